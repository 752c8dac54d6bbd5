package model

import (
	"fmt"
	"time"

	"github.com/kompox/localdev/internal/naming"
)

// Well-known component names. The core component must install successfully
// before any other component is attempted.
const (
	ComponentCore       = "core"
	ComponentMonitoring = "monitoring"
	ComponentTracing    = "tracing"
)

// ChartRef identifies a Helm chart and the release it is installed as.
type ChartRef struct {
	RepoURL string         // Chart repository URL
	Chart   string         // Chart name within the repository
	Version string         // Chart version constraint; empty means latest
	Release string         // Release name
	Values  map[string]any // Values passed to the chart
}

// ReadinessTarget names a set of pods that must report Ready.
type ReadinessTarget struct {
	Selector string        // Label selector, e.g. "app.kubernetes.io/name=grafana"
	Timeout  time.Duration // Zero means the installer default
}

// ComponentSpec declares one installable subsystem of the environment.
// A spec may carry a chart, a manifest set, or both.
type ComponentSpec struct {
	Name      string
	Namespace string
	Chart     *ChartRef
	Manifests []string // Rendered multi-document YAML, applied in order
	Readiness []ReadinessTarget
	Ingress   []IngressRule
	// TLSSecrets names certificate secrets published even when no rule
	// references them, such as the controller's default certificate.
	TLSSecrets []string
	DependsOn  []string
	Optional   bool
}

// Hostnames returns the ingress hostnames declared by the component.
func (c *ComponentSpec) Hostnames() []string {
	hosts := make([]string, 0, len(c.Ingress))
	for _, r := range c.Ingress {
		hosts = append(hosts, r.Host)
	}
	return hosts
}

// SecretNames returns the distinct TLS secret names the component needs:
// TLSSecrets first, then those referenced by its ingress rules.
func (c *ComponentSpec) SecretNames() []string {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, name := range c.TLSSecrets {
		add(name)
	}
	for _, r := range c.Ingress {
		add(r.TLSSecret)
	}
	return names
}

// ValidateComponents checks the invariants that span a whole component list:
// unique names, unique hostnames, and DependsOn only referencing components
// declared earlier in the list. Declaration order is install order, so a
// backward-only reference rule also rules out cycles.
func ValidateComponents(specs []ComponentSpec) error {
	declared := make(map[string]struct{}, len(specs))
	hosts := map[string]string{}
	for i, s := range specs {
		if s.Name == "" {
			return fmt.Errorf("components[%d]: name is empty", i)
		}
		if err := naming.ValidateComponentName(s.Name); err != nil {
			return fmt.Errorf("components[%d]: %w", i, err)
		}
		if s.Namespace == "" {
			return fmt.Errorf("component %s: namespace is empty", s.Name)
		}
		if _, dup := declared[s.Name]; dup {
			return fmt.Errorf("component %s: duplicate name", s.Name)
		}
		if s.Chart == nil && len(s.Manifests) == 0 {
			return fmt.Errorf("component %s: neither chart nor manifests specified", s.Name)
		}
		for _, dep := range s.DependsOn {
			if dep == s.Name {
				return fmt.Errorf("component %s: depends on itself", s.Name)
			}
			if _, ok := declared[dep]; !ok {
				return fmt.Errorf("component %s: dependency %q is not declared before it", s.Name, dep)
			}
		}
		for _, h := range s.Hostnames() {
			if prev, ok := hosts[h]; ok {
				return fmt.Errorf("component %s: hostname %q already used by component %s", s.Name, h, prev)
			}
			hosts[h] = s.Name
		}
		declared[s.Name] = struct{}{}
	}
	return nil
}

// InstallStatus is the coarse result of installing one component.
type InstallStatus string

const (
	InstallInstalled      InstallStatus = "Installed"
	InstallAlreadyPresent InstallStatus = "AlreadyPresent"
	InstallPartialFailure InstallStatus = "PartialFailure"
	InstallSkipped        InstallStatus = "Skipped"
)

// InstallOutcome reports what happened to one component during setup.
// Warnings carry soft failures (readiness timeouts, hosts file problems)
// that did not prevent the component from being installed.
type InstallOutcome struct {
	Component string
	Status    InstallStatus
	Detail    string
	Err       error
	Warnings  []error
}

// Succeeded reports whether the component is usable by dependents.
func (o InstallOutcome) Succeeded() bool {
	return o.Status == InstallInstalled || o.Status == InstallAlreadyPresent
}
