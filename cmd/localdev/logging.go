package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/kompox/localdev/internal/logging"
)

// ExitCodeError carries a non-zero exit status that is not a command failure,
// e.g. verify with failing probes. main exits with Code without logging an error.
type ExitCodeError struct {
	Code int
}

func (e ExitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// withCmdRunLogger opens the CMD:<operation> span for a command run against
// domain. Call the returned function with the command's error:
//
//	ctx, cleanup := withCmdRunLogger(ctx, "setup", domain)
//	defer func() { cleanup(err) }()
//
// ExitCodeError closes the span as EOK with the exit code attached.
func withCmdRunLogger(ctx context.Context, operation, domain string) (context.Context, func(err error)) {
	ctx, end := logging.CommandSpan(ctx, operation, "resourceId", domain)
	return ctx, func(err error) {
		var exit ExitCodeError
		if errors.As(err, &exit) {
			end(nil, "exitCode", exit.Code)
			return
		}
		end(err)
	}
}
