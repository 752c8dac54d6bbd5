package main

import (
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/kompox/localdev/internal/terminal"
)

func newCmdCleanup() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove everything setup installed",
		Long: heredoc.Doc(`
			Uninstall every component in reverse install order, delete their
			namespaces, remove the hosts file entries under the domain, and
			remove the certificate from the OS trust store.

			Asks for confirmation unless --yes is given. Individual failures
			are reported as warnings; the command always exits 0 once it runs.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !yes {
				ok, err := terminal.NewPrompter().Confirm(fmt.Sprintf("Remove the local environment for %s?", cfg.Domain))
				if errors.Is(err, terminal.ErrNotInteractive) {
					return fmt.Errorf("%w; pass --yes to run cleanup non-interactively", err)
				}
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			ctx, cleanup := withCmdRunLogger(cmd.Context(), "cleanup", cfg.Domain)
			defer func() { cleanup(err) }()

			u, err := buildEnvUseCase(cfg)
			if err != nil {
				return err
			}
			printActions(cmd.OutOrStdout(), "Cleanup", u.Cleanup(ctx))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
