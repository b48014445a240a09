package runner

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellmaintained/devbox/internal/errors"
	"github.com/wellmaintained/devbox/internal/ui"
)

type CommandCall struct {
	name string
	args []string
}

// ScriptCommander replaces every invocation with `sh -c <script>`, where the
// script is looked up by the joined command line.
type ScriptCommander struct {
	calls   []CommandCall
	scripts map[string]string
	missing bool
}

func (sc *ScriptCommander) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	sc.calls = append(sc.calls, CommandCall{name: name, args: args})
	if sc.missing {
		return exec.CommandContext(ctx, filepath.Join("/nonexistent", name))
	}
	key := strings.TrimSpace(name + " " + strings.Join(args, " "))
	return exec.CommandContext(ctx, "sh", "-c", sc.scripts[key])
}

func newTestRunner(t *testing.T, cmdr Commander) (*Runner, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var out bytes.Buffer
	return New(WithCommander(cmdr), WithReporter(ui.NewReporter(&out))), &out
}

func TestRunSuccessWithSummary(t *testing.T) {
	cmdr := &ScriptCommander{scripts: map[string]string{
		"docker-machine version": `echo "docker-machine version 0.16.2, build bd45ab13"`,
	}}
	r, out := newTestRunner(t, cmdr)

	var got string
	err := r.Run(context.Background(), Task{
		Title: "Checking docker-machine",
		Name:  "docker-machine",
		Args:  []string{"version"},
		OnOutput: func(stdout string) (string, error) {
			got = stdout
			return "0.16.2", nil
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "docker-machine version 0.16.2, build bd45ab13\n", got)
	assert.Equal(t, "✔ Checking docker-machine [0.16.2]\n", out.String())
	require.Len(t, cmdr.calls, 1)
	assert.Equal(t, []string{"version"}, cmdr.calls[0].args)
}

func TestRunDefaultSummary(t *testing.T) {
	tests := []struct {
		name     string
		onOutput func(string) (string, error)
	}{
		{name: "no callback"},
		{name: "empty summary", onOutput: func(string) (string, error) { return "", nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmdr := &ScriptCommander{scripts: map[string]string{"git init": "echo Initialized"}}
			r, out := newTestRunner(t, cmdr)

			err := r.Run(context.Background(), Task{Title: "Git: init repo", Name: "git", Args: []string{"init"}, OnOutput: tt.onOutput})

			require.NoError(t, err)
			assert.Equal(t, "✔ Git: init repo [ok]\n", out.String())
		})
	}
}

func TestRunFatalStderr(t *testing.T) {
	cmdr := &ScriptCommander{scripts: map[string]string{
		"docker-machine create dev1": `echo 'Host already exists: "dev1"' >&2; exec sleep 10`,
	}}
	r, out := newTestRunner(t, cmdr)

	called := false
	start := time.Now()
	err := r.Run(context.Background(), Task{
		Title:    "Creating new VM 'dev1'",
		Name:     "docker-machine",
		Args:     []string{"create", "dev1"},
		OnOutput: func(string) (string, error) { called = true; return "", nil },
	})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "fatal stderr must not wait for the command to finish")
	assert.False(t, called, "OnOutput must not run after a fatal error")
	assert.Equal(t, `Host already exists: "dev1"`, err.Error())
	assert.Equal(t, 1, errors.GetExitCode(err))

	var cmdErr *errors.CommandError
	require.True(t, stderrors.As(err, &cmdErr))
	assert.Equal(t, "docker-machine create dev1", cmdErr.CommandLine())
	assert.Equal(t, "✖ Creating new VM 'dev1' Host already exists: \"dev1\"\n", out.String())
}

func TestRunStderrAfterStdout(t *testing.T) {
	cmdr := &ScriptCommander{scripts: map[string]string{
		"VBoxManage showvminfo dev1 --machinereadable": `echo 'name="dev1"'; exec 1>&-; echo 'VBoxManage: error: late' >&2`,
	}}
	r, _ := newTestRunner(t, cmdr)

	err := r.Run(context.Background(), Task{
		Title: "Getting 'dev1' shared folders list",
		Name:  "VBoxManage",
		Args:  []string{"showvminfo", "dev1", "--machinereadable"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "VBoxManage: error: late")
}

func TestRunToleratedStderr(t *testing.T) {
	cmdr := &ScriptCommander{scripts: map[string]string{
		"git pull origin master": `echo "From https://example.com/repo" >&2; echo "Updating"; exit 0`,
	}}
	r, out := newTestRunner(t, cmdr)

	err := r.Run(context.Background(), Task{
		Title:          "Git: pull containers",
		Name:           "git",
		Args:           []string{"pull", "origin", "master"},
		TolerateStderr: true,
		OnOutput:       func(string) (string, error) { return "12", nil },
	})

	require.NoError(t, err)
	assert.Equal(t, "✔ Git: pull containers [12]\n", out.String())
}

func TestRunExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		tolerate bool
		wantErr  bool
	}{
		{name: "fatal policy reports non-zero exit", tolerate: false, wantErr: true},
		{name: "tolerant policy ignores non-zero exit", tolerate: true, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmdr := &ScriptCommander{scripts: map[string]string{"docker-machine stop dev1": "exit 3"}}
			r, out := newTestRunner(t, cmdr)

			err := r.Run(context.Background(), Task{
				Title:          "Stopping VM 'dev1'",
				Name:           "docker-machine",
				Args:           []string{"stop", "dev1"},
				TolerateStderr: tt.tolerate,
			})

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "exit status 3")
				assert.Contains(t, out.String(), "✖ Stopping VM 'dev1' exit status 3")
			} else {
				require.NoError(t, err)
				assert.Equal(t, "✔ Stopping VM 'dev1' [ok]\n", out.String())
			}
		})
	}
}

func TestRunStartFailure(t *testing.T) {
	cmdr := &ScriptCommander{missing: true}
	r, out := newTestRunner(t, cmdr)

	err := r.Run(context.Background(), Task{Title: "Checking docker-machine", Name: "docker-machine", Args: []string{"version"}, TolerateStderr: true})

	require.Error(t, err)
	var cmdErr *errors.CommandError
	assert.True(t, stderrors.As(err, &cmdErr))
	assert.Contains(t, out.String(), "✖ Checking docker-machine")
}

func TestRunDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	cmdr := &ScriptCommander{scripts: map[string]string{
		"git init": `pwd; echo "prompt=$GIT_TERMINAL_PROMPT"`,
	}}
	r, _ := newTestRunner(t, cmdr)

	var got string
	err := r.Run(context.Background(), Task{
		Title: "Git: init repo",
		Name:  "git",
		Args:  []string{"init"},
		Dir:   dir,
		Env:   map[string]string{"GIT_TERMINAL_PROMPT": "0"},
		OnOutput: func(stdout string) (string, error) {
			got = stdout
			return "", nil
		},
	})

	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, []string{dir, resolved}, lines[0])
	assert.Equal(t, "prompt=0", lines[1])
}

func TestRunOnOutputError(t *testing.T) {
	cmdr := &ScriptCommander{scripts: map[string]string{"git pull origin master": "true"}}
	r, out := newTestRunner(t, cmdr)

	err := r.Run(context.Background(), Task{
		Title:          "Git: pull containers",
		Name:           "git",
		Args:           []string{"pull", "origin", "master"},
		TolerateStderr: true,
		OnOutput:       func(string) (string, error) { return "", stderrors.New("no containers folder") },
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no containers folder")
	assert.Contains(t, out.String(), "✖ Git: pull containers no containers folder")
}

func TestRunCancelled(t *testing.T) {
	cmdr := &ScriptCommander{scripts: map[string]string{"docker-machine create dev1": "exec sleep 10"}}
	r, _ := newTestRunner(t, cmdr)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Run(ctx, Task{Title: "Creating new VM 'dev1'", Name: "docker-machine", Args: []string{"create", "dev1"}, TolerateStderr: true})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecodeReplacesInvalidUTF8(t *testing.T) {
	assert.Equal(t, "ok�", decode([]byte{'o', 'k', 0xff}))
}
