// Package logging provides the diagnostic logger for devbox.
// User-facing status goes through internal/ui; this logger is for tracing
// external commands and provisioning steps and is silent unless -v is given.
package logging

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/google/uuid"
)

// Options configures the logger behavior.
type Options struct {
	// Verbosity is the highest V-level that is written. 0 writes only Info
	// calls made without V and all errors.
	Verbosity int
}

// New returns a logr.Logger writing one line per entry to w.
func New(w io.Writer, opts Options) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{
		Verbosity: opts.Verbosity,
	})
}

// WithRun tags the logger with a fresh run id and stores it in ctx.
func WithRun(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger.WithValues("run", uuid.NewString()))
}

// FromContext returns the logger stored in ctx, or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}
