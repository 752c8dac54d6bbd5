package localdevcfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kompox/localdev/domain/model"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration invalid: %v", err)
	}
	if cfg.Domain != "localdev.me" || cfg.Certificate.ValidityDays != 365 || !cfg.Trust.Enabled || !cfg.Hosts.Sudo {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Ingress.Chart.Repo != "https://kubernetes.github.io/ingress-nginx" || cfg.Ingress.Chart.Release != "ingress-nginx" {
		t.Errorf("ingress chart = %+v", cfg.Ingress.Chart)
	}
	if cfg.Wait.Timeout != 5*time.Minute || cfg.Monitoring.Timeout != 10*time.Minute {
		t.Errorf("wait = %+v monitoring timeout = %s", cfg.Wait, cfg.Monitoring.Timeout)
	}
	if cfg.CertSubject() != "*.localdev.me" {
		t.Errorf("CertSubject() = %s", cfg.CertSubject())
	}
}

func TestParse_OverridesKeepOtherDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
domain: dev.example.test
trust:
  enabled: false
monitoring:
  retention: 7d
  chart:
    version: 58.0.0
    values:
      grafana:
        persistence:
          enabled: true
tracing:
  enabled: false
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Trust.Enabled {
		t.Error("trust.enabled override ignored")
	}
	if cfg.Monitoring.Chart.Name != "kube-prometheus-stack" || cfg.Monitoring.Chart.Version != "58.0.0" {
		t.Errorf("monitoring chart = %+v", cfg.Monitoring.Chart)
	}
	want := map[string]bool{model.ComponentMonitoring: false, model.ComponentTracing: true}
	if diff := cmp.Diff(want, cfg.Disabled()); diff != "" {
		t.Errorf("Disabled() mismatch (-want +got):\n%s", diff)
	}

	specs, err := cfg.ToComponentSpecs()
	if err != nil {
		t.Fatal(err)
	}
	mon := specs[1]
	wantValues := map[string]any{
		"prometheus": map[string]any{"prometheusSpec": map[string]any{"retention": "7d"}},
		"grafana": map[string]any{
			"adminPassword": "admin",
			"ingress":       map[string]any{"enabled": false},
			"persistence":   map[string]any{"enabled": true},
		},
	}
	if diff := cmp.Diff(wantValues, mon.Chart.Values); diff != "" {
		t.Errorf("monitoring values mismatch (-want +got):\n%s", diff)
	}
	if mon.Ingress[0].Host != "grafana.dev.example.test" || mon.Ingress[0].ServiceName != "kube-prometheus-stack-grafana" {
		t.Errorf("grafana rule = %+v", mon.Ingress[0])
	}
}

func TestParse_UnknownField(t *testing.T) {
	if _, err := Parse([]byte("domian: typo.test\n")); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil || cfg.Domain != "localdev.me" {
		t.Errorf("Parse(nil) = %+v, %v", cfg, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"single label domain", "domain: localhost\n", "domain"},
		{"bad tool", "certificate:\n  tool: cfssl\n", "certificate.tool"},
		{"zero validity", "certificate:\n  validityDays: 0\n", "certificate.validityDays"},
		{"bad namespace", "ingress:\n  namespace: Ingress_NGINX\n", "ingress.namespace"},
		{"bad host", "echo:\n  host: -echo\n", "echo.host"},
		{"bad repo", "ingress:\n  chart:\n    repo: not a url\n", "ingress.chart.repo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatal(err)
			}
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestToComponentSpecs(t *testing.T) {
	cfg, _ := Default()
	specs, err := cfg.ToComponentSpecs()
	if err != nil {
		t.Fatal(err)
	}
	if err := model.ValidateComponents(specs); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range specs {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"core", "monitoring", "tracing"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	core := specs[0]
	if core.Optional || len(core.Manifests) != 1 || !strings.Contains(core.Manifests[0], "ealen/echo-server:latest") {
		t.Errorf("core = %+v", core)
	}
	if diff := cmp.Diff([]string{"echo.localdev.me"}, core.Hostnames()); diff != "" {
		t.Errorf("core hosts mismatch (-want +got):\n%s", diff)
	}
	if core.Ingress[0].TLSSecret != "wildcard-tls" || core.Ingress[0].Namespace != "ingress-nginx" {
		t.Errorf("echo rule = %+v", core.Ingress[0])
	}
	ctrl := core.Chart.Values["controller"].(map[string]any)
	if ctrl["extraArgs"].(map[string]any)["default-ssl-certificate"] != "ingress-nginx/wildcard-tls" {
		t.Errorf("controller values = %v", ctrl)
	}
	tracing := specs[2]
	if !tracing.Optional || tracing.Chart != nil || !strings.Contains(tracing.Manifests[0], "namespace: tracing") {
		t.Errorf("tracing = %+v", tracing)
	}

	cfg.Echo.Enabled = false
	specs, _ = cfg.ToComponentSpecs()
	if len(specs[0].Manifests) != 0 || len(specs[0].Ingress) != 0 {
		t.Errorf("echo disabled but core = %+v", specs[0])
	}
}

func TestToComponentSpecs_DefaultCertificateWithoutEcho(t *testing.T) {
	cfg, err := Parse([]byte("echo:\n  enabled: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	specs, err := cfg.ToComponentSpecs()
	if err != nil {
		t.Fatal(err)
	}
	core := specs[0]
	if len(core.Ingress) != 0 {
		t.Fatalf("core ingress = %+v", core.Ingress)
	}
	if diff := cmp.Diff([]string{"wildcard-tls"}, core.SecretNames()); diff != "" {
		t.Errorf("core secrets mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, path, err := Resolve("")
	if err != nil || path != "" || cfg.Domain != "localdev.me" {
		t.Fatalf("Resolve(\"\") = %v, %q, %v", cfg, path, err)
	}

	if err := os.WriteFile(filepath.Join(dir, DefaultFileName), []byte("domain: cwd.example.test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, path, err = Resolve("")
	if err != nil || path != DefaultFileName || cfg.Domain != "cwd.example.test" {
		t.Fatalf("Resolve(\"\") with file = %v, %q, %v", cfg, path, err)
	}

	if _, _, err := Resolve(filepath.Join(dir, "missing.yml")); err == nil {
		t.Error("expected error for explicit missing file")
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg, _ := Default()
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "timeout: 5m0s") {
		t.Errorf("durations not rendered as strings:\n%s", data)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
