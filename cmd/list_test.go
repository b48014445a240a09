package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellmaintained/devbox/internal/ui"
)

func TestListFlags(t *testing.T) {
	flag := listCmd.Flags().Lookup("vms-only")
	if assert.NotNil(t, flag) {
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestRunListVMsOnly(t *testing.T) {
	fake, _ := setupFakeTools(t, machineScripts())
	listVMsOnly = true
	t.Cleanup(func() { listVMsOnly = false })

	var out bytes.Buffer
	require.NoError(t, runList(context.Background(), &out))

	assert.Equal(t, "=== VMs ===\nName     State\ndefault  Running\ndev1     Stopped\n", out.String())
	assert.Empty(t, fake.Calls("git"))
}

func TestRunListWithTemplates(t *testing.T) {
	scripts := machineScripts()
	scripts["docker-machine ls -f {{ .Name }}\t{{ .State }}"] = ":"
	setupFakeTools(t, scripts)
	t.Setenv("DEVBOX_TEMPLATE_REPO", testRepo)

	var out bytes.Buffer
	require.NoError(t, runList(context.Background(), &out))

	assert.Contains(t, out.String(), "No VMs.\n")
	assert.Contains(t, out.String(), "=== Templates ("+testRepo+"@master) ===\n")
	assert.Contains(t, out.String(), "Template  Base\n")
	assert.Contains(t, out.String(), "alpine    -\n")
	assert.Contains(t, out.String(), "python    python:3\n")
}

func TestRunListWarnsOnBrokenTemplate(t *testing.T) {
	scripts := machineScripts()
	scripts["git pull origin master"] = templatePull + `
mkdir -p containers/broken/.devcontainer
echo '{ "image": ' > containers/broken/.devcontainer/devcontainer.json`
	setupFakeTools(t, scripts)
	t.Setenv("DEVBOX_TEMPLATE_REPO", testRepo)

	var messages bytes.Buffer
	prev := ui.Out
	ui.Out = &messages
	t.Cleanup(func() { ui.Out = prev })

	var out bytes.Buffer
	require.NoError(t, runList(context.Background(), &out))

	assert.Contains(t, out.String(), "broken    ?\n")
	assert.Contains(t, out.String(), "python    python:3\n")
	assert.Equal(t, "Warning: template 'broken' has an unreadable devcontainer.json\n", messages.String())
}
