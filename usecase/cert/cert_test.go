package cert

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/fakeports"
)

func newUseCase(t *testing.T, w *fakeports.World) *UseCase {
	t.Helper()
	return &UseCase{
		CertTool:   fakeports.CertTool{W: w},
		TrustStore: fakeports.TrustStore{W: w},
		Cluster:    fakeports.Cluster{W: w},
		TempDir:    t.TempDir(),
	}
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return len(ents)
}

func TestProvision(t *testing.T) {
	ctx := context.Background()
	u := newUseCase(t, fakeports.NewWorld())
	b, err := u.Provision(ctx, &ProvisionInput{Subject: "*.localdev.me", ValidityDays: 365})
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if diff := cmp.Diff([]string{"*.localdev.me", "localdev.me"}, b.SANs); diff != "" {
		t.Errorf("SANs mismatch (-want +got):\n%s", diff)
	}
	if string(b.Key) != "KEY *.localdev.me" || len(b.Cert) == 0 {
		t.Errorf("bundle key=%q cert=%q", b.Key, b.Cert)
	}
	if _, err := os.Stat(b.KeyPath); err != nil {
		t.Errorf("key file missing before Destroy: %v", err)
	}
	if err := b.Destroy(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(b.Dir); !os.IsNotExist(err) {
		t.Errorf("bundle dir still present after Destroy: %v", err)
	}
	if dirEntries(t, u.TempDir) != 0 {
		t.Error("temp dir not empty")
	}
}

func TestProvision_Failures(t *testing.T) {
	tests := []struct {
		name string
		in   *ProvisionInput
		fail bool
	}{
		{name: "nil input", in: nil},
		{name: "zero validity", in: &ProvisionInput{Subject: "*.localdev.me"}},
		{name: "tool error", in: &ProvisionInput{Subject: "*.localdev.me", ValidityDays: 1}, fail: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := fakeports.NewWorld()
			if tt.fail {
				w.Fail["certtool.Generate"] = errors.New("unable to load config info")
			}
			u := newUseCase(t, w)
			_, err := u.Provision(context.Background(), tt.in)
			var ce *model.CertGenerationError
			if !errors.As(err, &ce) {
				t.Fatalf("Provision() error = %v, want CertGenerationError", err)
			}
			if dirEntries(t, u.TempDir) != 0 {
				t.Error("temporary key material left behind")
			}
		})
	}
}

func TestProvision_UnwritableTempDir(t *testing.T) {
	u := newUseCase(t, fakeports.NewWorld())
	u.TempDir = "/nonexistent/localdev"
	_, err := u.Provision(context.Background(), &ProvisionInput{Subject: "*.localdev.me", ValidityDays: 1})
	var ce *model.CertGenerationError
	if !errors.As(err, &ce) {
		t.Fatalf("Provision() error = %v, want CertGenerationError", err)
	}
}

func TestWithBundle_DestroysOnError(t *testing.T) {
	u := newUseCase(t, fakeports.NewWorld())
	boom := errors.New("boom")
	var dir string
	err := u.WithBundle(context.Background(), &ProvisionInput{Subject: "*.localdev.me", ValidityDays: 1}, func(b *model.CertificateBundle) error {
		dir = b.Dir
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithBundle() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("bundle dir %s survived: %v", dir, err)
	}
}

func TestRegisterTrust(t *testing.T) {
	ctx := context.Background()
	w := fakeports.NewWorld()
	u := newUseCase(t, w)
	err := u.WithBundle(ctx, &ProvisionInput{Subject: "*.localdev.me", ValidityDays: 1}, func(b *model.CertificateBundle) error {
		if err := u.RegisterTrust(ctx, b); err != nil {
			return err
		}
		return u.RegisterTrust(ctx, b)
	})
	if err != nil {
		t.Fatalf("RegisterTrust() error = %v", err)
	}
	if !w.Trusted["*.localdev.me"] {
		t.Error("certificate not trusted")
	}
	// Every add is preceded by a remove of the same subject.
	if w.Count("truststore.Remove") != 2 || w.Count("truststore.Add") != 2 {
		t.Errorf("events = %v", w.Events)
	}
	if w.Index("truststore.Remove", "*.localdev.me") > w.Index("truststore.Add", "*.localdev.me") {
		t.Error("add happened before remove")
	}
}

func TestRegisterTrust_Unsupported(t *testing.T) {
	w := fakeports.NewWorld()
	w.Unsupported = true
	u := newUseCase(t, w)
	err := u.RegisterTrust(context.Background(), &model.CertificateBundle{Subject: "*.localdev.me"})
	var te *model.TrustStoreError
	if !errors.As(err, &te) || !errors.Is(err, model.ErrUnsupportedOS) {
		t.Fatalf("RegisterTrust() = %v", err)
	}
	if len(w.Mutations()) != 0 {
		t.Errorf("mutations = %v", w.Mutations())
	}
}

func TestPublishSecret(t *testing.T) {
	ctx := context.Background()
	w := fakeports.NewWorld()
	w.Namespaces["ingress-nginx"] = true
	u := newUseCase(t, w)
	b := &model.CertificateBundle{Key: []byte("k"), Cert: []byte("c")}

	want := []model.Outcome{model.OutcomeCreated, model.OutcomeUnchanged}
	for i, o := range want {
		got, err := u.PublishSecret(ctx, b, "ingress-nginx", "wildcard-tls")
		if err != nil || got != o {
			t.Errorf("PublishSecret() #%d = %s, %v; want %s", i, got, err, o)
		}
	}

	_, err := u.PublishSecret(ctx, b, "missing", "wildcard-tls")
	var ae *model.ApplyError
	if !errors.As(err, &ae) || ae.Resource != "missing/wildcard-tls" {
		t.Errorf("PublishSecret() into missing namespace = %v", err)
	}
}

func TestRevokeTrust(t *testing.T) {
	ctx := context.Background()
	w := fakeports.NewWorld()
	w.Trusted["*.localdev.me"] = true
	u := newUseCase(t, w)

	var got []model.Outcome
	for i := 0; i < 2; i++ {
		out, err := u.RevokeTrust(ctx, "*.localdev.me")
		if err != nil {
			t.Fatalf("RevokeTrust() error = %v", err)
		}
		got = append(got, out)
	}
	if diff := cmp.Diff([]model.Outcome{model.OutcomeDeleted, model.OutcomeAlreadyAbsent}, got); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}

	w.Unsupported = true
	out, err := u.RevokeTrust(ctx, "*.localdev.me")
	if out != model.OutcomeIgnored || !errors.Is(err, model.ErrUnsupportedOS) {
		t.Errorf("RevokeTrust() unsupported = %s, %v", out, err)
	}
}
