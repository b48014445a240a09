package runner

import (
	"context"
	"os/exec"

	"github.com/wellmaintained/devbox/internal/ui"
)

// Commander abstracts command construction for testing.
type Commander interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

type defaultCommander struct{}

func (c *defaultCommander) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// Option configures a Runner.
type Option func(*Runner)

// WithCommander sets a custom commander for testing.
func WithCommander(cmdr Commander) Option {
	return func(r *Runner) {
		r.commander = cmdr
	}
}

// WithReporter sets the progress reporter that wraps every command.
func WithReporter(reporter *ui.Reporter) Option {
	return func(r *Runner) {
		r.reporter = reporter
	}
}
