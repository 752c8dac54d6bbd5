package logging

import (
	"context"
	"errors"
	"time"
)

type remedier interface{ Remedy() string }

// marks are the start, success, and failure suffixes of a span.
type marks struct{ start, ok, fail string }

var (
	opMarks  = marks{"/s", "/eok", "/efail"}
	cmdMarks = marks{"/S", "/EOK", "/EFAIL"}
)

// EndFunc closes a span. A nil err logs success; extra kv is attached to the
// closing message only.
type EndFunc func(err error, kv ...any)

// Span logs "<sym>:<op>/s" with kv and returns a context whose logger carries
// kv, plus the function that logs "/eok" or "/efail" with the elapsed seconds.
// Failures also carry the remedy when err offers one.
func Span(ctx context.Context, sym, op string, kv ...any) (context.Context, EndFunc) {
	return span(ctx, sym+":"+op, opMarks, kv)
}

// CommandSpan is Span for a CLI command, using the "CMD:<op>/S" spelling.
func CommandSpan(ctx context.Context, op string, kv ...any) (context.Context, EndFunc) {
	return span(ctx, "CMD:"+op, cmdMarks, kv)
}

func span(ctx context.Context, msg string, m marks, kv []any) (context.Context, EndFunc) {
	start := time.Now()
	logger := FromContext(ctx).With(kv...)
	ctx = WithLogger(ctx, logger)
	logger.Info(ctx, msg+m.start)

	return ctx, func(err error, extra ...any) {
		extra = append(extra, "elapsed", time.Since(start).Seconds())
		if err == nil {
			logger.Info(ctx, msg+m.ok, extra...)
			return
		}
		extra = append(extra, "err", err.Error())
		var r remedier
		if errors.As(err, &r) {
			extra = append(extra, "remedy", r.Remedy())
		}
		logger.Warn(ctx, msg+m.fail, extra...)
	}
}
