package env

import (
	"context"
	"errors"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
)

// Cleanup tears the environment down in reverse install order. Every
// failure is recorded as a warning and the run always ends in Done.
func (u *UseCase) Cleanup(ctx context.Context) *RunReport {
	logger := logging.FromContext(ctx)
	logger.Info(ctx, "Env:Cleanup/s", "components", len(u.Config.Components))
	report := &RunReport{}
	report.enter(StateInit)

	comps := u.Config.Components
	for i := len(comps) - 1; i >= 0; i-- {
		u.teardown(ctx, report, comps[i], model.DeleteOptions{})
	}
	u.removeHostEntries(ctx, report)
	if u.Config.Trust {
		u.revokeTrust(ctx, report)
	}

	report.enter(StateDone)
	logger.Info(ctx, "Env:Cleanup/eok", "actions", len(report.Actions), "warnings", len(report.Warnings))
	return report
}

// teardown uninstalls the component's release and deletes its namespace.
func (u *UseCase) teardown(ctx context.Context, report *RunReport, spec model.ComponentSpec, opts model.DeleteOptions) {
	logger := logging.FromContext(ctx).With("component", spec.Name)
	if spec.Chart != nil {
		res := spec.Namespace + "/" + spec.Chart.Release
		out, err := u.Ports.Release.Uninstall(ctx, spec.Namespace, spec.Chart.Release)
		if err != nil {
			logger.Warn(ctx, "Env:Teardown/release", "release", res, "err", err)
			report.warn(&model.ApplyError{Step: "uninstall release", Resource: res, Err: err})
		} else {
			report.act("uninstall release", res, out)
		}
	}
	out, err := u.Ports.Cluster.DeleteNamespace(ctx, spec.Namespace, opts)
	if err != nil {
		logger.Warn(ctx, "Env:Teardown/namespace", "namespace", spec.Namespace, "err", err)
		report.warn(&model.ApplyError{Step: "delete namespace", Resource: spec.Namespace, Err: err})
		return
	}
	report.act("delete namespace", spec.Namespace, out)
}

func (u *UseCase) removeHostEntries(ctx context.Context, report *RunReport) {
	n, err := u.Ports.Hosts.RemoveAll(ctx, u.Config.Domain)
	if err != nil {
		logging.FromContext(ctx).Warn(ctx, "Env:Hosts/efail", "suffix", u.Config.Domain, "err", err, "remedy", model.RemedyOf(err))
		report.warn(err)
		return
	}
	out := model.OutcomeDeleted
	if n == 0 {
		out = model.OutcomeAlreadyAbsent
	}
	report.act("remove hosts entries", u.Config.Domain, out)
}

func (u *UseCase) revokeTrust(ctx context.Context, report *RunReport) {
	out, err := u.certUseCase().RevokeTrust(ctx, u.Config.Subject())
	if err != nil {
		if errors.Is(err, model.ErrUnsupportedOS) {
			report.act("remove trusted root", u.Config.Subject(), model.OutcomeIgnored)
			return
		}
		logging.FromContext(ctx).Warn(ctx, "Env:Trust/efail", "err", err, "remedy", model.RemedyOf(err))
		report.warn(err)
		return
	}
	report.act("remove trusted root", u.Config.Subject(), out)
}
