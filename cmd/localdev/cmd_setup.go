package main

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/kompox/localdev/internal/logging"
	"github.com/kompox/localdev/usecase/env"
)

func newCmdSetup() *cobra.Command {
	var noMonitoring bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install or converge the local environment",
		Long: heredoc.Doc(`
			Install or converge the environment in order: prerequisite checks,
			wildcard certificate, core ingress with the echo service, then the
			optional monitoring and tracing stacks.

			Exits 0 on success or when only optional parts produced warnings,
			and 1 when a prerequisite, the certificate, or the core install fails.
		`),
		Example: heredoc.Doc(`
			localdev setup
			localdev setup --no-monitoring
			localdev setup --domain dev.example.test --context docker-desktop
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "setup", cfg.Domain)
			defer func() { cleanup(err) }()

			if target, err := inspectTarget(cfg); err == nil && !target.Local() {
				logging.FromContext(ctx).Warn(ctx, "target cluster is not local", "context", target.Context, "server", target.Server)
				warnColor.Fprintf(cmd.ErrOrStderr(), "warning: context %s does not point at a local cluster\n", target)
			}

			u, err := buildEnvUseCase(cfg)
			if err != nil {
				return err
			}
			report := u.Setup(ctx, &env.SetupInput{NoOptional: noMonitoring})
			printSetupReport(cmd.OutOrStdout(), report)
			if report.Aborted() {
				return ExitCodeError{Code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noMonitoring, "no-monitoring", false, "Skip the optional monitoring and tracing stacks")
	return cmd
}
