package main

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

func newCmdVerify() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Probe the installed environment",
		Long: heredoc.Doc(`
			Probe every installed component: pod readiness, hosts file and DNS
			resolution to 127.0.0.1, HTTPS reachability through the ingress,
			and the trust store entry. Components whose namespace does not
			exist are skipped and not counted.

			Exits 0 only when every counted probe passes.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "verify", cfg.Domain)
			defer func() { cleanup(err) }()

			u, err := buildVerifyUseCase(cfg)
			if err != nil {
				return err
			}
			summary := u.Run(ctx)
			printSummary(cmd.OutOrStdout(), summary)
			if !summary.OK() {
				return ExitCodeError{Code: 1}
			}
			return nil
		},
	}
}
