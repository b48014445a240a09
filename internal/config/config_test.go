package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DEVBOX_CONFIG", "")
	t.Setenv("DEVBOX_TEMPLATE_REPO", "")
	t.Setenv("DEVBOX_TEMPLATE_BRANCH", "")
	t.Setenv("DEVBOX_TEMPLATE_FOLDER", "")
	t.Setenv("DEVBOX_MACHINE_BIN", "")
	t.Setenv("DEVBOX_VBOXMANAGE_BIN", "")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfigFromFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "devbox.yaml")
	writeFile(t, path, `
templates:
  repo: https://example.com/templates.git
  branch: main
tools:
  vboxmanage: /usr/local/bin/VBoxManage
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/templates.git", cfg.Templates.Repo)
	assert.Equal(t, "main", cfg.Templates.Branch)
	assert.Equal(t, DefaultTemplateFolder, cfg.Templates.Folder)
	assert.Equal(t, DefaultMachineBin, cfg.Tools.Machine)
	assert.Equal(t, "/usr/local/bin/VBoxManage", cfg.Tools.VBoxManage)
}

func TestLoadConfigUserFile(t *testing.T) {
	isolate(t)
	writeFile(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "devbox", "config.yaml"), "templates:\n  branch: main\n")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Templates.Branch)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, path, "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "devbox.yaml")
	writeFile(t, path, "tools:\n  machine: /opt/docker-machine\n")
	t.Setenv("DEVBOX_MACHINE_BIN", "/custom/docker-machine")
	t.Setenv("DEVBOX_TEMPLATE_REPO", "https://mirror.example.com/t.git")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/custom/docker-machine", cfg.Tools.Machine)
	assert.Equal(t, "https://mirror.example.com/t.git", cfg.Templates.Repo)
}

func TestLoadConfigTemplateFolderFromEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "devbox.yaml")
	writeFile(t, path, "templates:\n  folder: from-file\n")
	t.Setenv("DEVBOX_TEMPLATE_FOLDER", "src/containers")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "src/containers", cfg.Templates.Folder)
	assert.Equal(t, DefaultTemplateBranch, cfg.Templates.Branch)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		errMsg  string
	}{
		{
			name:    "unknown key",
			content: "templates:\n  repository: x\n",
			errMsg:  "failed to parse config",
		},
		{
			name:    "invalid yaml",
			content: "templates: [",
			errMsg:  "failed to parse config",
		},
		{
			name:   "explicit file missing",
			path:   "does-not-exist.yaml",
			errMsg: "failed to open config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			path := filepath.Join(dir, "devbox.yaml")
			if tt.path != "" {
				path = filepath.Join(dir, tt.path)
			} else {
				writeFile(t, path, tt.content)
			}

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadConfigDevboxConfigEnvMustExist(t *testing.T) {
	isolate(t)
	t.Setenv("DEVBOX_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig("")
	assert.Error(t, err)
}
