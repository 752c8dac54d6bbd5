package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// newCmdConfig returns a command that prints the effective configuration.
func newCmdConfig() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch output {
			case "yaml":
				if target, err := inspectTarget(cfg); err == nil {
					fmt.Fprintf(w, "# target: %s\n", target)
				} else {
					fmt.Fprintf(w, "# target: unavailable: %v\n", err)
				}
				_, err = w.Write(data)
				return err
			case "json":
				j, err := yaml.YAMLToJSON(data)
				if err != nil {
					return fmt.Errorf("convert to json: %w", err)
				}
				_, err = fmt.Fprintln(w, string(j))
				return err
			default:
				return fmt.Errorf("unsupported output format %q (yaml or json)", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format (yaml or json)")
	return cmd
}
