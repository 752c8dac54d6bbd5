// Package execx runs external command-line tools.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/kompox/localdev/internal/logging"
)

// Runner executes external commands. Implementations must not use a shell.
type Runner interface {
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error)
	LookPath(name string) (string, error)
}

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Cmd    string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: exit status %d", e.Cmd, e.Code)
	}
	return fmt.Sprintf("%s: exit status %d: %s", e.Cmd, e.Code, msg)
}

// ExitCode returns the exit code carried by err, or -1 when err is not an ExitError.
func ExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return -1
}

// OSRunner runs commands with os/exec.
type OSRunner struct{}

func (OSRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes name with args and returns stdout. Stderr is captured into
// the returned ExitError when the command fails.
func (OSRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	logger := logging.FromContext(ctx)
	cmdLine := name + " " + strings.Join(args, " ")
	logger.Debug(ctx, "Exec:Run/s", "cmd", cmdLine)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e := &ExitError{Cmd: name, Code: exitErr.ExitCode(), Stderr: stderr.String()}
			logger.Debug(ctx, "Exec:Run/efail", "cmd", cmdLine, "exitCode", e.Code)
			return stdout.Bytes(), e
		}
		logger.Debug(ctx, "Exec:Run/efail", "cmd", cmdLine, "err", err)
		return stdout.Bytes(), fmt.Errorf("run %s: %w", name, err)
	}
	logger.Debug(ctx, "Exec:Run/eok", "cmd", cmdLine)
	return stdout.Bytes(), nil
}
