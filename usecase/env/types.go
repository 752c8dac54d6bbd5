// Package env sequences the whole environment: setup, cleanup, and recovery.
package env

import (
	"strings"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/waiter"
	"github.com/kompox/localdev/usecase/cert"
	"github.com/kompox/localdev/usecase/component"
)

// Ports holds the external collaborators. Every mutation of global state
// goes through one of them.
type Ports struct {
	Cluster    model.ClusterPort
	Release    model.ReleasePort
	TrustStore model.TrustStorePort
	CertTool   model.CertToolPort
	Hosts      model.HostsPort
}

// Config is the resolved environment definition.
type Config struct {
	Domain string
	// Components lists every known component in install order, enabled or not.
	Components []model.ComponentSpec
	// Disabled names components turned off in configuration.
	Disabled map[string]bool

	CertSubject      string // defaults to "*." + Domain
	CertValidityDays int
	CertOrganization string
	CertTempDir      string
	// Trust registers the certificate in the OS trust store.
	Trust bool

	IngressClass string
	Wait         waiter.Options
}

// Subject returns the certificate subject.
func (c *Config) Subject() string {
	if c.CertSubject != "" {
		return c.CertSubject
	}
	return "*." + c.Domain
}

// UseCase sequences installers over the configured ports.
type UseCase struct {
	Ports  *Ports
	Config *Config
}

func (u *UseCase) certUseCase() *cert.UseCase {
	return &cert.UseCase{
		CertTool:     u.Ports.CertTool,
		TrustStore:   u.Ports.TrustStore,
		Cluster:      u.Ports.Cluster,
		TempDir:      u.Config.CertTempDir,
		Organization: u.Config.CertOrganization,
	}
}

func (u *UseCase) componentUseCase(certs *cert.UseCase) *component.UseCase {
	return &component.UseCase{
		Cluster:      u.Ports.Cluster,
		Release:      u.Ports.Release,
		Hosts:        u.Ports.Hosts,
		Secrets:      certs,
		IngressClass: u.Config.IngressClass,
		Wait:         u.Config.Wait,
	}
}

// State is a step of the setup state machine.
type State string

const (
	StateInit        State = "Init"
	StatePrereqCheck State = "PrereqCheck"
	StateCertificate State = "Certificate"
	StateDone        State = "Done"
	StateAborted     State = "Aborted"
)

// InstallState returns the state in which the named component is installed,
// e.g. "CoreInstall" or "MonitoringInstall".
func InstallState(name string) State {
	if name == "" {
		return "Install"
	}
	return State(strings.ToUpper(name[:1]) + name[1:] + "Install")
}

// Action is one tolerant teardown step and its typed result.
type Action struct {
	Step     string        `json:"step"`
	Resource string        `json:"resource"`
	Outcome  model.Outcome `json:"outcome"`
}

// RunReport is the result of a sequencer run.
type RunReport struct {
	State State `json:"state"`
	// Trace lists every state entered, in order.
	Trace    []State                `json:"trace"`
	Outcomes []model.InstallOutcome `json:"outcomes,omitempty"`
	Actions  []Action               `json:"actions,omitempty"`
	Warnings []error                `json:"-"`
	// Err is the fatal error when State is Aborted.
	Err error `json:"-"`
}

func (r *RunReport) enter(s State) {
	r.State = s
	r.Trace = append(r.Trace, s)
}

func (r *RunReport) warn(err error) {
	r.Warnings = append(r.Warnings, err)
}

func (r *RunReport) act(step, resource string, out model.Outcome) {
	r.Actions = append(r.Actions, Action{Step: step, Resource: resource, Outcome: out})
}

// AllWarnings returns sequencer warnings followed by per-component warnings.
func (r *RunReport) AllWarnings() []error {
	all := append([]error(nil), r.Warnings...)
	for _, o := range r.Outcomes {
		all = append(all, o.Warnings...)
		if o.Status == model.InstallPartialFailure && o.Err != nil {
			all = append(all, o.Err)
		}
	}
	return all
}

// Aborted reports whether the run stopped on a fatal error.
func (r *RunReport) Aborted() bool { return r.State == StateAborted }

// Outcome returns the outcome recorded for the named component.
func (r *RunReport) Outcome(name string) (model.InstallOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Component == name {
			return o, true
		}
	}
	return model.InstallOutcome{}, false
}
