// Package runner executes external commands one at a time, wrapping each in
// a progress line.
//
// A command fails when it writes to its error stream, unless the task
// tolerates error-stream output (git and docker-machine print progress
// there). Each task is attempted exactly once; callers sequence dependent
// tasks themselves.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wellmaintained/devbox/internal/env"
	"github.com/wellmaintained/devbox/internal/errors"
	"github.com/wellmaintained/devbox/internal/logging"
	"github.com/wellmaintained/devbox/internal/ui"
)

// Task describes one external command invocation.
type Task struct {
	// Title is shown on the progress line.
	Title string
	Name  string
	Args  []string
	// Dir overrides the working directory when set.
	Dir string
	// Env entries are added to the inherited environment.
	Env map[string]string
	// TolerateStderr ignores error-stream output and the exit status.
	TolerateStderr bool
	// OnOutput receives the decoded standard output once the stream ends and
	// returns the summary shown on the progress line ("ok" when empty).
	OnOutput func(stdout string) (string, error)
}

// Runner executes Tasks.
type Runner struct {
	commander Commander
	reporter  *ui.Reporter
}

// New returns a Runner using os/exec and the process-wide progress reporter.
func New(opts ...Option) *Runner {
	r := &Runner{
		commander: &defaultCommander{},
		reporter:  ui.DefaultReporter(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes task and blocks until it has completed and been reported.
// Under the fatal policy, the first error-stream chunk kills the command and
// is returned as a *errors.CommandError whose message is that chunk.
func (r *Runner) Run(ctx context.Context, task Task) error {
	log := logging.FromContext(ctx)

	cmd := r.commander.CommandContext(ctx, task.Name, task.Args...)
	if task.Dir != "" {
		cmd.Dir = task.Dir
	}
	if len(task.Env) > 0 {
		cmd.Env = env.Merge(cmd.Env, task.Env)
	}

	log.V(1).Info("running command", "command", task.Name, "args", task.Args, "dir", task.Dir, "env", env.Redact(task.Env), "tolerateStderr", task.TolerateStderr)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.NewRuntimeError("failed to open stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.NewRuntimeError("failed to open stderr pipe", err)
	}

	progress := r.reporter.Begin(task.Title)

	if err := cmd.Start(); err != nil {
		progress.End(false, err.Error())
		return errors.NewCommandError(task.Name, task.Args, "", err)
	}

	outCh := make(chan []byte, 1)
	go func() {
		b, _ := io.ReadAll(stdout)
		outCh <- b
	}()

	firstErr := make(chan []byte, 1)
	errCh := make(chan []byte, 1)
	go func() {
		var all bytes.Buffer
		buf := make([]byte, 4096)
		for {
			n, err := stderr.Read(buf)
			if n > 0 {
				if all.Len() == 0 {
					firstErr <- append([]byte(nil), buf[:n]...)
				}
				all.Write(buf[:n])
			}
			if err != nil {
				break
			}
		}
		errCh <- all.Bytes()
	}()

	var out []byte
	if task.TolerateStderr {
		out = <-outCh
	} else {
		select {
		case chunk := <-firstErr:
			detail := decode(chunk)
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			<-outCh
			<-errCh
			log.V(1).Info("command wrote to stderr", "command", task.Name, "detail", detail)
			progress.End(false, detail)
			return errors.NewCommandError(task.Name, task.Args, detail, nil)
		case out = <-outCh:
		}
	}

	errOut := <-errCh
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		progress.End(false, ctx.Err().Error())
		return errors.NewCommandError(task.Name, task.Args, "", ctx.Err())
	}

	if !task.TolerateStderr {
		if len(errOut) > 0 {
			detail := decode(errOut)
			progress.End(false, detail)
			return errors.NewCommandError(task.Name, task.Args, detail, nil)
		}
		if waitErr != nil {
			progress.End(false, waitErr.Error())
			return errors.NewCommandError(task.Name, task.Args, "", waitErr)
		}
	} else if waitErr != nil {
		log.V(1).Info("ignoring command failure", "command", task.Name, "error", waitErr.Error(), "stderr", decode(errOut))
	}

	var summary string
	if task.OnOutput != nil {
		summary, err = task.OnOutput(decode(out))
		if err != nil {
			progress.End(false, err.Error())
			return fmt.Errorf("%s: %w", task.Title, err)
		}
	}
	progress.End(true, summary)
	return nil
}

// decode turns process output into text, replacing invalid UTF-8.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
