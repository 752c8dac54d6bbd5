package env

import (
	"context"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
)

// Recovery force-resets every known component, enabled or not: it uninstalls
// releases, deletes TLS secrets, force-deletes namespaces, strips finalizers
// that keep them terminating, and deletes persistent volumes claimed from
// those namespaces. Volumes claimed elsewhere are never touched. Recovery is
// safe to run any number of times and always ends in Done.
func (u *UseCase) Recovery(ctx context.Context) *RunReport {
	logger := logging.FromContext(ctx)
	logger.Info(ctx, "Env:Recovery/s")
	report := &RunReport{}
	report.enter(StateInit)

	zero := int64(0)
	force := model.DeleteOptions{Force: true, GracePeriodSeconds: &zero}

	var namespaces []string
	seen := map[string]bool{}
	comps := u.Config.Components
	for i := len(comps) - 1; i >= 0; i-- {
		spec := comps[i]
		for _, name := range spec.SecretNames() {
			out, err := u.Ports.Cluster.DeleteSecret(ctx, spec.Namespace, name)
			if err != nil {
				report.warn(&model.ApplyError{Step: "delete secret", Resource: spec.Namespace + "/" + name, Err: err})
				continue
			}
			report.act("delete secret", spec.Namespace+"/"+name, out)
		}
		u.teardown(ctx, report, spec, force)

		n, err := u.Ports.Cluster.StripFinalizers(ctx, spec.Namespace)
		if err != nil {
			report.warn(&model.ApplyError{Step: "strip finalizers", Resource: spec.Namespace, Err: err})
		} else {
			out := model.OutcomeUnchanged
			if n > 0 {
				out = model.OutcomeUpdated
			}
			report.act("strip finalizers", spec.Namespace, out)
		}
		if !seen[spec.Namespace] {
			seen[spec.Namespace] = true
			namespaces = append(namespaces, spec.Namespace)
		}
	}

	n, err := u.Ports.Cluster.DeleteNamespacedPersistentVolumes(ctx, namespaces)
	if err != nil {
		report.warn(&model.ApplyError{Step: "delete persistent volumes", Resource: "pv", Err: err})
	} else {
		out := model.OutcomeAlreadyAbsent
		if n > 0 {
			out = model.OutcomeDeleted
		}
		report.act("delete persistent volumes", "pv", out)
	}

	for _, w := range report.Warnings {
		logger.Warn(ctx, "Env:Recovery/warn", "err", w)
	}
	report.enter(StateDone)
	logger.Info(ctx, "Env:Recovery/eok", "actions", len(report.Actions), "warnings", len(report.Warnings))
	return report
}
