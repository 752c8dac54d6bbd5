package main

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

func newCmdRecovery() *cobra.Command {
	return &cobra.Command{
		Use:   "recovery",
		Short: "Force-reset stuck resources so setup can run again",
		Long: heredoc.Doc(`
			Force-delete every known component: uninstall releases, delete TLS
			secrets, delete namespaces with a zero grace period, strip the
			finalizers that keep them terminating, and delete persistent
			volumes claimed from those namespaces. Volumes claimed from other
			namespaces are left alone.

			Safe to run any number of times; always exits 0. Run setup afterwards.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "recovery", cfg.Domain)
			defer func() { cleanup(err) }()

			u, err := buildEnvUseCase(cfg)
			if err != nil {
				return err
			}
			printActions(cmd.OutOrStdout(), "Recovery", u.Recovery(ctx))
			return nil
		},
	}
}
