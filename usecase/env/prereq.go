package env

import (
	"context"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
)

// PrereqCheck verifies everything setup needs without mutating anything.
// The first failure is returned as a *model.FatalPrereqError. The cluster is
// pinged before the package manager is checked, since the latter needs it too.
func (u *UseCase) PrereqCheck(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Info(ctx, "Env:PrereqCheck/s")

	checks := []struct {
		name string
		hint string
		run  func() error
	}{
		{"configuration", "fix the configuration file and re-run setup", func() error {
			return model.ValidateComponents(u.Config.Components)
		}},
		{"host OS", "the OS trust store integration is only available on macOS; set trust.enabled to false elsewhere", func() error {
			if !u.Config.Trust {
				return nil
			}
			return u.Ports.TrustStore.Supported()
		}},
		{"certificate tool", "install openssl or set certificate.tool to native", func() error {
			return u.Ports.CertTool.Check(ctx)
		}},
		{"cluster connection", "start the local cluster (for example Docker Desktop Kubernetes) and check the kubeconfig context", func() error {
			if err := u.Ports.Cluster.Ping(ctx); err != nil {
				return err
			}
			if v, err := u.Ports.Cluster.ServerVersion(ctx); err == nil {
				logger.Info(ctx, "Env:PrereqCheck/cluster", "version", v)
			}
			return nil
		}},
		{"package manager", "check the kubeconfig and that the Helm configuration can be initialised", func() error {
			return u.Ports.Release.Check(ctx)
		}},
	}
	for _, c := range checks {
		if err := c.run(); err != nil {
			perr := &model.FatalPrereqError{Check: c.name, Err: err, Hint: c.hint}
			logger.Info(ctx, "Env:PrereqCheck/efail", "check", c.name, "err", err)
			return perr
		}
	}
	logger.Info(ctx, "Env:PrereqCheck/eok")
	return nil
}
