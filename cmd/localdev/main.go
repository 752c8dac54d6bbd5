package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kompox/localdev/config/localdevcfg"
	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
)

// Environment variable names for global flags.
const (
	envLogFormat = "LOCALDEV_LOG_FORMAT"
	envLogLevel  = "LOCALDEV_LOG_LEVEL"
	envLogOutput = "LOCALDEV_LOG_OUTPUT"
)

const logRetention = 7 * 24 * time.Hour

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "localdev",
		Short: "Bootstrap a local Kubernetes development environment",
		Long: heredoc.Doc(`
			localdev installs an ingress controller with a trusted wildcard
			certificate, an echo test service, and optional monitoring
			(Prometheus, Grafana) and tracing (Jaeger) stacks into a local
			Kubernetes cluster, and keeps the hosts file in sync.

			Every command is idempotent and safe to re-run.
		`),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help by default when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", os.Getenv(localdevcfg.ConfigEnvKey), "Path to localdev.yml (env "+localdevcfg.ConfigEnvKey+"; default ./"+localdevcfg.DefaultFileName+" when present)")
	pf.String("kubeconfig", "", "Path to the kubeconfig file (env KUBECONFIG)")
	pf.String("context", "", "Kubeconfig context to use")
	pf.String("domain", "", "Base domain for all hostnames (overrides the configuration)")
	pf.String("log-format", "human", "Log format (human|text|json) (env "+envLogFormat+")")
	pf.String("log-level", "info", "Log level (debug|info|warn|error) (env "+envLogLevel+")")
	pf.String("log-output", "-", "Log output: - for stderr, auto, none, or a file path (env "+envLogOutput+")")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		format := flagOrEnv(c.Flags(), "log-format", envLogFormat)
		levelStr := flagOrEnv(c.Flags(), "log-level", envLogLevel)
		output := flagOrEnv(c.Flags(), "log-output", envLogOutput)
		level, err := logging.ParseLevel(levelStr)
		if err != nil {
			return err
		}
		logFormat, err := logging.ParseFormat(format)
		if err != nil {
			return err
		}
		out, err := logging.OpenOutput(output, defaultLogDir())
		if err != nil {
			return err
		}
		l := logging.New(logFormat, level, out.Writer())
		if out.Path != "" {
			if _, err := logging.Prune(filepath.Dir(out.Path), logRetention, time.Now()); err != nil {
				l.Debug(c.Context(), "prune log files", "err", err)
			}
		}
		l = l.With("runId", uuid.NewString())
		ctx := logging.WithLogger(c.Context(), l)
		c.SetContext(ctx)
		c.PersistentPostRun = func(*cobra.Command, []string) { _ = out.Close() }
		quietKlog()
		return nil
	}

	// Add subcommands
	cmd.AddCommand(newCmdVersion())
	cmd.AddCommand(newCmdConfig())
	cmd.AddCommand(newCmdSetup())
	cmd.AddCommand(newCmdCleanup())
	cmd.AddCommand(newCmdRecovery())
	cmd.AddCommand(newCmdVerify())
	return cmd
}

// flagOrEnv returns the flag value when set on the command line, then the
// environment variable, then the flag default.
func flagOrEnv(fs *pflag.FlagSet, flag, env string) string {
	v, _ := fs.GetString(flag)
	if fs.Changed(flag) {
		return v
	}
	if e := os.Getenv(env); e != "" {
		return e
	}
	return v
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "localdev", "logs")
	}
	return filepath.Join(home, ".localdev", "logs")
}

func main() {
	// Interrupts cancel the context so deferred cleanup, such as removing the
	// private key from the temp dir, runs before the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := newRootCmd()
	root.SetContext(ctx)
	code := run(root)
	stop()
	os.Exit(code)
}

// run executes root and maps the result to a process exit code.
func run(root *cobra.Command) int {
	executed, err := root.ExecuteC()
	if err == nil {
		return 0
	}
	var exitErr ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	ctx := root.Context()
	if executed != nil && executed.Context() != nil {
		ctx = executed.Context()
	}
	logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
	if remedy := model.RemedyOf(err); remedy != "" {
		fmt.Fprintf(root.ErrOrStderr(), "hint: %s\n", remedy)
	}
	return 1
}
