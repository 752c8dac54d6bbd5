package localdevcfg

import (
	"fmt"
	"maps"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/manifests"
	"github.com/kompox/localdev/internal/naming"
)

// Service names the charts and manifests create.
const (
	EchoName   = "echo"
	JaegerName = "jaeger"
)

// ToComponentSpecs converts the configuration into every known component in
// install order, enabled or not. Use Disabled to tell which ones are off.
func (r *Root) ToComponentSpecs() ([]model.ComponentSpec, error) {
	core, err := r.coreSpec()
	if err != nil {
		return nil, err
	}
	tracing, err := r.tracingSpec()
	if err != nil {
		return nil, err
	}
	return []model.ComponentSpec{core, r.monitoringSpec(), tracing}, nil
}

// Disabled returns the names of components turned off in configuration.
func (r *Root) Disabled() map[string]bool {
	return map[string]bool{
		model.ComponentMonitoring: !r.Monitoring.Enabled,
		model.ComponentTracing:    !r.Tracing.Enabled,
	}
}

// CertSubject is the wildcard subject of the environment certificate.
func (r *Root) CertSubject() string {
	return naming.Wildcard(r.Domain)
}

func (r *Root) rule(sub, namespace, service string, port int32) model.IngressRule {
	return model.IngressRule{
		Host:        naming.Hostname(sub, r.Domain),
		Namespace:   namespace,
		ServiceName: service,
		ServicePort: port,
		TLSSecret:   r.Certificate.SecretName,
		Path:        "/",
	}
}

func (r *Root) coreSpec() (model.ComponentSpec, error) {
	ns := r.Ingress.Namespace
	values := map[string]any{
		"controller": map[string]any{
			"ingressClassResource": map[string]any{
				"name":    r.Ingress.Class,
				"default": true,
			},
			"ingressClass": r.Ingress.Class,
			"service": map[string]any{
				"type": "LoadBalancer",
			},
			"extraArgs": map[string]any{
				"default-ssl-certificate": ns + "/" + r.Certificate.SecretName,
			},
			"admissionWebhooks": map[string]any{
				"enabled": false,
			},
		},
	}
	spec := model.ComponentSpec{
		Name:      model.ComponentCore,
		Namespace: ns,
		Chart:     chartRef(r.Ingress.Chart, values),
		Readiness: []model.ReadinessTarget{{
			Selector: "app.kubernetes.io/name=ingress-nginx,app.kubernetes.io/component=controller",
			Timeout:  r.Wait.Timeout,
		}},
		// default-ssl-certificate points here whether or not echo is enabled
		TLSSecrets: []string{r.Certificate.SecretName},
	}
	if r.Echo.Enabled {
		m, err := manifests.Render(manifests.Echo, manifests.Params{Name: EchoName, Namespace: ns, Image: r.Echo.Image, Port: 80})
		if err != nil {
			return spec, fmt.Errorf("render echo manifest: %w", err)
		}
		spec.Manifests = append(spec.Manifests, string(m))
		spec.Readiness = append(spec.Readiness, model.ReadinessTarget{Selector: "app.kubernetes.io/name=" + EchoName, Timeout: r.Wait.Timeout})
		spec.Ingress = append(spec.Ingress, r.rule(r.Echo.Host, ns, EchoName, 80))
	}
	return spec, nil
}

func (r *Root) monitoringSpec() model.ComponentSpec {
	m := r.Monitoring
	ns := m.Namespace
	values := map[string]any{
		"prometheus": map[string]any{
			"prometheusSpec": map[string]any{
				"retention": m.Retention,
			},
		},
		"grafana": map[string]any{
			"adminPassword": m.GrafanaAdmin,
			"ingress":       map[string]any{"enabled": false},
		},
	}
	release := m.Chart.Release
	return model.ComponentSpec{
		Name:      model.ComponentMonitoring,
		Namespace: ns,
		Chart:     chartRef(m.Chart, values),
		Readiness: []model.ReadinessTarget{
			{Selector: "app.kubernetes.io/name=grafana", Timeout: m.Timeout},
			{Selector: "app.kubernetes.io/name=prometheus", Timeout: m.Timeout},
		},
		Ingress: []model.IngressRule{
			r.rule(m.GrafanaHost, ns, release+"-grafana", 80),
			r.rule(m.PrometheusHost, ns, release+"-prometheus", 9090),
		},
		DependsOn: []string{model.ComponentCore},
		Optional:  true,
	}
}

func (r *Root) tracingSpec() (model.ComponentSpec, error) {
	t := r.Tracing
	m, err := manifests.Render(manifests.Jaeger, manifests.Params{Name: JaegerName, Namespace: t.Namespace, Image: t.Image, Port: 16686, Env: t.Env})
	if err != nil {
		return model.ComponentSpec{}, fmt.Errorf("render jaeger manifest: %w", err)
	}
	return model.ComponentSpec{
		Name:      model.ComponentTracing,
		Namespace: t.Namespace,
		Manifests: []string{string(m)},
		Readiness: []model.ReadinessTarget{{Selector: "app.kubernetes.io/name=" + JaegerName, Timeout: r.Wait.Timeout}},
		Ingress:   []model.IngressRule{r.rule(t.Host, t.Namespace, JaegerName, 16686)},
		DependsOn: []string{model.ComponentCore},
		Optional:  true,
	}, nil
}

// chartRef builds a ChartRef whose values are the built-in values with the
// configured values merged over them.
func chartRef(c Chart, builtin map[string]any) *model.ChartRef {
	return &model.ChartRef{
		RepoURL: c.Repo,
		Chart:   c.Name,
		Version: c.Version,
		Release: c.Release,
		Values:  mergeValues(builtin, c.Values),
	}
}

// mergeValues deep-merges override into a copy of base; override wins.
func mergeValues(base, override map[string]any) map[string]any {
	out := maps.Clone(base)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range override {
		if bm, ok := out[k].(map[string]any); ok {
			if om, ok := v.(map[string]any); ok {
				out[k] = mergeValues(bm, om)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func validateSpecs(specs []model.ComponentSpec) error {
	if err := model.ValidateComponents(specs); err != nil {
		return fmt.Errorf("components: %w", err)
	}
	return nil
}
