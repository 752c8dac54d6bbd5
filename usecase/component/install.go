package component

import (
	"context"
	"errors"
	"fmt"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
	"github.com/kompox/localdev/internal/waiter"
)

// InstallInput is one component and the certificate its ingress rules use.
type InstallInput struct {
	Spec   model.ComponentSpec
	Bundle *model.CertificateBundle
}

// Install converges one component. It never returns an error: hard failures
// become a PartialFailure outcome and soft failures (readiness timeouts,
// hosts file problems) become warnings, so sibling components are unaffected.
func (u *UseCase) Install(ctx context.Context, in *InstallInput) model.InstallOutcome {
	spec := in.Spec
	logger := logging.FromContext(ctx).With("component", spec.Name, "namespace", spec.Namespace)
	ctx = logging.WithLogger(ctx, logger)

	logger.Info(ctx, "Component:Install/s")
	out := u.install(ctx, in)
	if out.Status == model.InstallPartialFailure {
		logger.Warn(ctx, "Component:Install/efail", "status", out.Status, "err", out.Err)
	} else {
		logger.Info(ctx, "Component:Install/eok", "status", out.Status, "warnings", len(out.Warnings))
	}
	return out
}

func (u *UseCase) install(ctx context.Context, in *InstallInput) model.InstallOutcome {
	spec := in.Spec
	out := model.InstallOutcome{Component: spec.Name}
	fail := func(err error) model.InstallOutcome {
		out.Status = model.InstallPartialFailure
		out.Err = err
		out.Detail = err.Error()
		return out
	}

	// 1. namespace
	nsOut, err := u.Cluster.EnsureNamespace(ctx, spec.Namespace)
	if err != nil {
		return fail(&model.ApplyError{Step: "ensure namespace", Resource: spec.Namespace, Err: err})
	}
	present := nsOut == model.OutcomeUnchanged

	// 2. TLS secrets, before any ingress that references them
	for _, name := range spec.SecretNames() {
		if in.Bundle == nil {
			return fail(&model.ApplyError{Step: "publish secret", Resource: spec.Namespace + "/" + name, Err: errors.New("no certificate bundle")})
		}
		if _, err := u.Secrets.PublishSecret(ctx, in.Bundle, spec.Namespace, name); err != nil {
			return fail(err)
		}
	}

	// 3. chart release
	if spec.Chart != nil {
		relOut, err := u.Release.Upsert(ctx, spec.Namespace, spec.Chart)
		if err != nil {
			return fail(&model.ApplyError{Step: "upsert release", Resource: spec.Namespace + "/" + spec.Chart.Release, Err: err})
		}
		present = present && relOut != model.OutcomeCreated
	}

	// 4. manifests
	for i, m := range spec.Manifests {
		if _, err := u.Cluster.ApplyManifest(ctx, spec.Namespace, []byte(m)); err != nil {
			return fail(&model.ApplyError{Step: "apply manifest", Resource: fmt.Sprintf("%s[%d]", spec.Name, i), Err: err})
		}
	}

	// 5. readiness
	for _, target := range spec.Readiness {
		if err := u.waitReady(ctx, spec.Namespace, target); err != nil {
			var timeout *model.ReadinessTimeout
			if !errors.As(err, &timeout) {
				return fail(err)
			}
			out.Warnings = append(out.Warnings, err)
		}
	}

	// 6. ingress
	for _, rule := range spec.Ingress {
		if rule.Namespace == "" {
			rule.Namespace = spec.Namespace
		}
		if _, err := u.Cluster.ApplyIngress(ctx, rule, u.IngressClass); err != nil {
			return fail(&model.ApplyError{Step: "apply ingress", Resource: rule.Namespace + "/" + rule.Host, Err: err})
		}
	}

	// 7. hosts entries
	for _, rule := range spec.Ingress {
		if err := u.Hosts.Upsert(ctx, rule.Host); err != nil {
			out.Warnings = append(out.Warnings, fmt.Errorf("hosts entry %s: %w", rule.Host, err))
		}
	}

	if present {
		out.Status = model.InstallAlreadyPresent
	} else {
		out.Status = model.InstallInstalled
	}
	return out
}

func (u *UseCase) waitReady(ctx context.Context, namespace string, target model.ReadinessTarget) error {
	opts := u.Wait
	opts.Timeout = target.Timeout
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultReadinessTimeout
	}
	res, err := waiter.Poll(ctx, opts, func(ctx context.Context) (bool, error) {
		return u.Cluster.PodsReady(ctx, namespace, target.Selector)
	})
	if err != nil {
		return fmt.Errorf("wait for %s in %s: %w", target.Selector, namespace, err)
	}
	if res == model.TimedOut {
		return &model.ReadinessTimeout{Namespace: namespace, Selector: target.Selector, Timeout: opts.Timeout}
	}
	return nil
}
