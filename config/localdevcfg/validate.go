package localdevcfg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kompox/localdev/internal/naming"
)

var validate = validator.New()

// Validate performs structural validation from struct tags followed by
// semantic validation of names.
func (r *Root) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q validation", fieldPath(fe.Namespace()), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if err := naming.ValidateDomain(r.Domain); err != nil {
		return fmt.Errorf("domain: %w", err)
	}
	if err := naming.ValidateNamespace(r.Ingress.Namespace); err != nil {
		return fmt.Errorf("ingress.namespace: %w", err)
	}
	if r.Monitoring.Enabled {
		if err := naming.ValidateNamespace(r.Monitoring.Namespace); err != nil {
			return fmt.Errorf("monitoring.namespace: %w", err)
		}
	}
	if r.Tracing.Enabled {
		if err := naming.ValidateNamespace(r.Tracing.Namespace); err != nil {
			return fmt.Errorf("tracing.namespace: %w", err)
		}
	}
	for field, sub := range map[string]string{
		"echo.host":                 r.Echo.Host,
		"monitoring.grafanaHost":    r.Monitoring.GrafanaHost,
		"monitoring.prometheusHost": r.Monitoring.PrometheusHost,
		"tracing.host":              r.Tracing.Host,
	} {
		if err := naming.ValidateHostname(naming.Hostname(sub, r.Domain)); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	specs, err := r.ToComponentSpecs()
	if err != nil {
		return err
	}
	return validateSpecs(specs)
}

// fieldPath turns "Root.Monitoring.Chart.Repo" into "monitoring.chart.repo".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}
