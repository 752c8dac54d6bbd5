package env

import (
	"context"
	"fmt"
	"strings"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
	"github.com/kompox/localdev/usecase/cert"
	"github.com/kompox/localdev/usecase/component"
)

// SetupInput controls a setup run.
type SetupInput struct {
	// NoOptional skips every optional component (the --no-monitoring flag).
	NoOptional bool `json:"no_optional,omitempty"`
}

// Setup runs Init -> PrereqCheck -> Certificate -> <Component>Install... -> Done.
// Prerequisite, certificate, and required component failures abort the run;
// optional component failures only add warnings. The certificate bundle is
// destroyed before Setup returns.
func (u *UseCase) Setup(ctx context.Context, in *SetupInput) *RunReport {
	if in == nil {
		in = &SetupInput{}
	}
	logger := logging.FromContext(ctx)
	logger.Info(ctx, "Env:Setup/s", "domain", u.Config.Domain, "noOptional", in.NoOptional)
	report := &RunReport{}
	report.enter(StateInit)

	report.enter(StatePrereqCheck)
	if err := u.PrereqCheck(ctx); err != nil {
		return u.abort(ctx, report, err)
	}

	report.enter(StateCertificate)
	certs := u.certUseCase()
	installer := u.componentUseCase(certs)
	pin := &cert.ProvisionInput{Subject: u.Config.Subject(), ValidityDays: u.Config.CertValidityDays}

	var fatal error
	err := certs.WithBundle(ctx, pin, func(bundle *model.CertificateBundle) error {
		if u.Config.Trust {
			if err := certs.RegisterTrust(ctx, bundle); err != nil {
				logger.Warn(ctx, "Env:Setup/trust", "err", err, "remedy", model.RemedyOf(err))
				report.warn(err)
			}
		}

		installed := map[string]bool{}
		for _, spec := range u.Config.Components {
			if reason := u.skipReason(spec, in, installed); reason != "" {
				logger.Info(ctx, "Env:Setup/skip", "component", spec.Name, "reason", reason)
				report.Outcomes = append(report.Outcomes, model.InstallOutcome{
					Component: spec.Name,
					Status:    model.InstallSkipped,
					Detail:    reason,
				})
				continue
			}
			report.enter(InstallState(spec.Name))
			out := installer.Install(ctx, &component.InstallInput{Spec: spec, Bundle: bundle})
			report.Outcomes = append(report.Outcomes, out)
			if out.Succeeded() {
				installed[spec.Name] = true
				continue
			}
			if !spec.Optional {
				fatal = fmt.Errorf("required component %s failed: %w", spec.Name, out.Err)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return u.abort(ctx, report, err)
	}
	if fatal != nil {
		return u.abort(ctx, report, fatal)
	}

	report.enter(StateDone)
	logger.Info(ctx, "Env:Setup/eok", "warnings", len(report.AllWarnings()))
	return report
}

func (u *UseCase) abort(ctx context.Context, report *RunReport, err error) *RunReport {
	report.Err = err
	report.enter(StateAborted)
	logging.FromContext(ctx).Error(ctx, "Env:Setup/efail", "err", err, "remedy", model.RemedyOf(err))
	return report
}

// skipReason explains why a component is not installed in this run, or
// returns "" when it should be.
func (u *UseCase) skipReason(spec model.ComponentSpec, in *SetupInput, installed map[string]bool) string {
	if spec.Optional && in.NoOptional {
		return "optional components disabled by --no-monitoring"
	}
	if u.Config.Disabled[spec.Name] {
		return "disabled in configuration"
	}
	var missing []string
	for _, dep := range spec.DependsOn {
		if !installed[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return "dependency not installed: " + strings.Join(missing, ", ")
	}
	return ""
}
