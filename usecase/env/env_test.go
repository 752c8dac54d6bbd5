package env

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kompox/localdev/adapters/kube"
	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/fakeports"
	"github.com/kompox/localdev/internal/waiter"
)

const domain = "localdev.me"

func rule(host, ns, svc string, port int32) model.IngressRule {
	return model.IngressRule{Host: host + "." + domain, Namespace: ns, ServiceName: svc, ServicePort: port, TLSSecret: "wildcard-tls"}
}

func testComponents() []model.ComponentSpec {
	return []model.ComponentSpec{
		{
			Name:      model.ComponentCore,
			Namespace: "ingress-nginx",
			Chart:     &model.ChartRef{Chart: "ingress-nginx", Release: "ingress-nginx"},
			Manifests: []string{"kind: Deployment\n---\nkind: Service\n"},
			Readiness: []model.ReadinessTarget{{Selector: "app.kubernetes.io/name=echo"}},
			Ingress:   []model.IngressRule{rule("echo", "ingress-nginx", "echo", 80)},
		},
		{
			Name:      model.ComponentMonitoring,
			Namespace: "monitoring",
			Chart:     &model.ChartRef{Chart: "kube-prometheus-stack", Release: "kube-prometheus-stack"},
			Ingress: []model.IngressRule{
				rule("grafana", "monitoring", "kube-prometheus-stack-grafana", 80),
				rule("prometheus", "monitoring", "kube-prometheus-stack-prometheus", 9090),
			},
			DependsOn: []string{model.ComponentCore},
			Optional:  true,
		},
		{
			Name:      model.ComponentTracing,
			Namespace: "tracing",
			Manifests: []string{"kind: Deployment\n"},
			Ingress:   []model.IngressRule{rule("jaeger", "tracing", "jaeger", 16686)},
			DependsOn: []string{model.ComponentCore},
			Optional:  true,
		},
	}
}

func newUseCase(t *testing.T, w *fakeports.World) *UseCase {
	t.Helper()
	clock := waiter.NewFakeClock(time.Unix(0, 0))
	return &UseCase{
		Ports: &Ports{
			Cluster:    fakeports.Cluster{W: w},
			Release:    fakeports.Release{W: w},
			TrustStore: fakeports.TrustStore{W: w},
			CertTool:   fakeports.CertTool{W: w},
			Hosts:      fakeports.Hosts{W: w},
		},
		Config: &Config{
			Domain:           domain,
			Components:       testComponents(),
			CertValidityDays: 365,
			CertTempDir:      t.TempDir(),
			Trust:            true,
			IngressClass:     "nginx",
			Wait:             clock.Options(time.Minute, time.Second),
		},
	}
}

func statuses(r *RunReport) map[string]model.InstallStatus {
	m := map[string]model.InstallStatus{}
	for _, o := range r.Outcomes {
		m[o.Component] = o.Status
	}
	return m
}

func TestSetup_ScenarioA_NoMonitoring(t *testing.T) {
	w := fakeports.NewWorld()
	u := newUseCase(t, w)
	r := u.Setup(context.Background(), &SetupInput{NoOptional: true})
	if r.State != StateDone {
		t.Fatalf("state = %s, err = %v", r.State, r.Err)
	}
	want := []string{
		"host echo.localdev.me",
		"ingress ingress-nginx/echo.localdev.me",
		"manifests ingress-nginx 2",
		"ns ingress-nginx",
		"release ingress-nginx/ingress-nginx ingress-nginx",
		"secret ingress-nginx/wildcard-tls",
		"trusted *.localdev.me",
	}
	if diff := cmp.Diff(want, w.Snapshot()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	wantStatus := map[string]model.InstallStatus{
		model.ComponentCore:       model.InstallInstalled,
		model.ComponentMonitoring: model.InstallSkipped,
		model.ComponentTracing:    model.InstallSkipped,
	}
	if diff := cmp.Diff(wantStatus, statuses(r)); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]State{StateInit, StatePrereqCheck, StateCertificate, "CoreInstall", StateDone}, r.Trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	if len(r.AllWarnings()) != 0 {
		t.Errorf("warnings = %v", r.AllWarnings())
	}
}

func TestSetup_Idempotent(t *testing.T) {
	ctx := context.Background()
	w := fakeports.NewWorld()
	u := newUseCase(t, w)
	first := u.Setup(ctx, nil)
	snap := w.Snapshot()
	second := u.Setup(ctx, nil)
	for _, r := range []*RunReport{first, second} {
		if r.State != StateDone || len(r.AllWarnings()) != 0 {
			t.Fatalf("report = %+v", r)
		}
	}
	if diff := cmp.Diff(snap, w.Snapshot()); diff != "" {
		t.Errorf("second setup changed state (-first +second):\n%s", diff)
	}
	for name, st := range statuses(second) {
		if st != model.InstallAlreadyPresent {
			t.Errorf("%s = %s on second run", name, st)
		}
	}
}

func TestSetup_DestroysBundle(t *testing.T) {
	for _, fail := range []string{"", "release.Upsert ingress-nginx/ingress-nginx"} {
		w := fakeports.NewWorld()
		if fail != "" {
			w.Fail[fail] = nil
		}
		u := newUseCase(t, w)
		u.Setup(context.Background(), nil)
		if n := len(mustReadDir(t, u.Config.CertTempDir)); n != 0 {
			t.Errorf("fail=%q: %d entries left in cert temp dir", fail, n)
		}
	}
}

// interruptingCluster cancels the run the first time readiness is polled.
type interruptingCluster struct {
	fakeports.Cluster
	cancel context.CancelFunc
}

func (c interruptingCluster) PodsReady(context.Context, string, string) (bool, error) {
	c.cancel()
	return false, nil
}

func TestSetup_CancelDestroysBundle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := fakeports.NewWorld()
	u := newUseCase(t, w)
	u.Ports.Cluster = interruptingCluster{Cluster: fakeports.Cluster{W: w}, cancel: cancel}

	r := u.Setup(ctx, &SetupInput{NoOptional: true})
	if r.State != StateAborted || !errors.Is(r.Err, context.Canceled) {
		t.Fatalf("state = %s, err = %v", r.State, r.Err)
	}
	if w.Count("certtool.Generate") != 1 {
		t.Fatal("certificate was not generated before the interrupt")
	}
	if n := len(mustReadDir(t, u.Config.CertTempDir)); n != 0 {
		t.Errorf("%d entries left in cert temp dir after cancellation", n)
	}
}

func TestSetup_MonitoringFailureDoesNotBlockTracing(t *testing.T) {
	w := fakeports.NewWorld()
	w.Fail["release.Upsert monitoring/kube-prometheus-stack"] = errors.New("chart not found")
	r := newUseCase(t, w).Setup(context.Background(), nil)
	if r.State != StateDone {
		t.Fatalf("state = %s, err = %v", r.State, r.Err)
	}
	st := statuses(r)
	if st[model.ComponentMonitoring] != model.InstallPartialFailure {
		t.Errorf("monitoring = %s", st[model.ComponentMonitoring])
	}
	if st[model.ComponentTracing] != model.InstallInstalled {
		t.Errorf("tracing = %s", st[model.ComponentTracing])
	}
	if len(r.AllWarnings()) == 0 {
		t.Error("monitoring failure not reported as a warning")
	}
}

func TestSetup_CoreFailureAborts(t *testing.T) {
	w := fakeports.NewWorld()
	w.Fail["cluster.ApplyManifest ingress-nginx"] = nil
	r := newUseCase(t, w).Setup(context.Background(), nil)
	if r.State != StateAborted || r.Err == nil {
		t.Fatalf("report = %+v", r)
	}
	if len(r.Outcomes) != 1 {
		t.Errorf("components after core were attempted: %+v", r.Outcomes)
	}
	if model.RemedyOf(r.Err) == "" {
		t.Error("fatal error carries no remedy")
	}
}

func TestSetup_FatalGating(t *testing.T) {
	tests := []struct {
		name      string
		mut       func(*fakeports.World, *UseCase)
		wantCheck string
	}{
		{"cluster unreachable", func(w *fakeports.World, _ *UseCase) { w.PingErr = errors.New("connection refused") }, "cluster connection"},
		{"no helm config", func(w *fakeports.World, _ *UseCase) { w.Fail["release.Check"] = nil }, "package manager"},
		{"no cert tool", func(w *fakeports.World, _ *UseCase) { w.Fail["certtool.Check"] = nil }, "certificate tool"},
		{"unsupported os", func(w *fakeports.World, _ *UseCase) { w.Unsupported = true }, "host OS"},
		{"bad config", func(_ *fakeports.World, u *UseCase) {
			u.Config.Components[2].DependsOn = []string{"nonexistent"}
		}, "configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := fakeports.NewWorld()
			u := newUseCase(t, w)
			tt.mut(w, u)
			r := u.Setup(context.Background(), nil)
			if r.State != StateAborted {
				t.Fatalf("state = %s", r.State)
			}
			var fe *model.FatalPrereqError
			if !errors.As(r.Err, &fe) || fe.Check != tt.wantCheck {
				t.Fatalf("err = %v, want check %q", r.Err, tt.wantCheck)
			}
			if m := w.Mutations(); len(m) != 0 {
				t.Errorf("mutations before abort: %v", m)
			}
			if w.Count("certtool.Generate") != 0 {
				t.Error("certificate generated before abort")
			}
		})
	}
}

func TestPrereqCheck_MissingKubeconfig(t *testing.T) {
	tests := []struct {
		name      string
		pingErr   error
		wantCheck string
	}{
		{"cluster down", errors.New("connection refused"), "cluster connection"},
		{"cluster up", nil, "package manager"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := fakeports.NewWorld()
			w.PingErr = tt.pingErr
			u := newUseCase(t, w)
			u.Ports.Release = kube.NewReleaseManager(filepath.Join(t.TempDir(), "missing", "config"), "")
			err := u.PrereqCheck(context.Background())
			var fe *model.FatalPrereqError
			if !errors.As(err, &fe) || fe.Check != tt.wantCheck {
				t.Fatalf("PrereqCheck() = %v, want check %q", err, tt.wantCheck)
			}
			if fe.Remedy() == "" {
				t.Error("prerequisite failure carries no remedy")
			}
		})
	}
}

func TestSetup_UnsupportedOSWithoutTrust(t *testing.T) {
	w := fakeports.NewWorld()
	w.Unsupported = true
	u := newUseCase(t, w)
	u.Config.Trust = false
	r := u.Setup(context.Background(), &SetupInput{NoOptional: true})
	if r.State != StateDone {
		t.Fatalf("state = %s, err = %v", r.State, r.Err)
	}
	if w.Count("truststore.Add") != 0 {
		t.Error("trust store touched while disabled")
	}
}

func TestSetup_TrustFailureIsWarning(t *testing.T) {
	w := fakeports.NewWorld()
	w.Fail["truststore.Add"] = errors.New("authorization denied")
	r := newUseCase(t, w).Setup(context.Background(), &SetupInput{NoOptional: true})
	if r.State != StateDone || len(r.Warnings) != 1 {
		t.Fatalf("report = %+v", r)
	}
	var te *model.TrustStoreError
	if !errors.As(r.Warnings[0], &te) {
		t.Errorf("warning = %v", r.Warnings[0])
	}
}

func TestSetup_DisabledAndDependencySkips(t *testing.T) {
	w := fakeports.NewWorld()
	u := newUseCase(t, w)
	u.Config.Disabled = map[string]bool{model.ComponentMonitoring: true}
	u.Config.Components[2].DependsOn = []string{model.ComponentCore, model.ComponentMonitoring}
	r := u.Setup(context.Background(), nil)
	o, _ := r.Outcome(model.ComponentTracing)
	if o.Status != model.InstallSkipped || o.Detail != "dependency not installed: monitoring" {
		t.Errorf("tracing = %+v", o)
	}
	o, _ = r.Outcome(model.ComponentMonitoring)
	if o.Status != model.InstallSkipped || o.Detail != "disabled in configuration" {
		t.Errorf("monitoring = %+v", o)
	}
}

func TestCleanup_ScenarioB(t *testing.T) {
	ctx := context.Background()
	w := fakeports.NewWorld()
	u := newUseCase(t, w)
	if r := u.Setup(ctx, &SetupInput{NoOptional: true}); r.State != StateDone {
		t.Fatalf("setup: %+v", r)
	}
	w.Hosts["unrelated.example.com"] = true

	r := u.Cleanup(ctx)
	if r.State != StateDone || len(r.Warnings) != 0 {
		t.Fatalf("cleanup = %+v", r)
	}
	if diff := cmp.Diff([]string{"host unrelated.example.com"}, w.Snapshot()); diff != "" {
		t.Errorf("state after cleanup (-want +got):\n%s", diff)
	}
	// Reverse order: tracing namespace goes before core.
	if w.Index("cluster.DeleteNamespace", "tracing") > w.Index("cluster.DeleteNamespace", "ingress-nginx") {
		t.Error("cleanup did not run in reverse install order")
	}

	// A second cleanup over nothing still succeeds with typed no-op outcomes.
	r = u.Cleanup(ctx)
	if r.State != StateDone || len(r.Warnings) != 0 {
		t.Fatalf("second cleanup = %+v", r)
	}
	for _, a := range r.Actions {
		if a.Outcome != model.OutcomeAlreadyAbsent {
			t.Errorf("action %+v on empty environment", a)
		}
	}
}

func TestCleanup_FailuresAreWarnings(t *testing.T) {
	w := fakeports.NewWorld()
	w.Fail["cluster.DeleteNamespace monitoring"] = nil
	w.Fail["hosts.RemoveAll"] = &model.PermissionError{Op: "write", Path: "/etc/hosts", Err: errors.New("denied")}
	r := newUseCase(t, w).Cleanup(context.Background())
	if r.State != StateDone {
		t.Fatalf("state = %s", r.State)
	}
	if len(r.Warnings) != 2 {
		t.Errorf("warnings = %v", r.Warnings)
	}
	if w.Index("cluster.DeleteNamespace", "ingress-nginx") < 0 {
		t.Error("core namespace not deleted after sibling failure")
	}
}

func TestRecovery(t *testing.T) {
	ctx := context.Background()
	w := fakeports.NewWorld()
	u := newUseCase(t, w)
	u.Setup(ctx, nil)
	w.Terminating["monitoring"] = true
	w.PVs["pvc-prometheus"] = "monitoring"
	w.PVs["pvc-other"] = "default"

	for i := 0; i < 2; i++ {
		r := u.Recovery(ctx)
		if r.State != StateDone || len(r.Warnings) != 0 {
			t.Fatalf("recovery #%d = %+v", i, r)
		}
	}
	if _, ok := w.PVs["pvc-other"]; !ok {
		t.Error("persistent volume outside tool namespaces was deleted")
	}
	if _, ok := w.PVs["pvc-prometheus"]; ok {
		t.Error("persistent volume in monitoring survived")
	}
	for _, ns := range []string{"ingress-nginx", "monitoring", "tracing"} {
		if w.Namespaces[ns] {
			t.Errorf("namespace %s survived recovery", ns)
		}
	}
	if w.Terminating["monitoring"] {
		t.Error("finalizers not stripped")
	}

	// Setup works again afterwards.
	if r := u.Setup(ctx, nil); r.State != StateDone {
		t.Errorf("setup after recovery = %+v", r)
	}
}

func TestInstallState(t *testing.T) {
	if got := InstallState(model.ComponentMonitoring); got != "MonitoringInstall" {
		t.Errorf("InstallState() = %s", got)
	}
}
