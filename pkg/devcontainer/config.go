// Package devcontainer reads and edits devcontainer.json files.
package devcontainer

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/tailscale/hujson"
)

const (
	// ConfigDir is the folder inside a project that holds the container config.
	ConfigDir = ".devcontainer"
	// ConfigFile is the config file name inside ConfigDir.
	ConfigFile = "devcontainer.json"
	// StartupScriptFile is the helper written next to the config that brings
	// the VM up before the editor attaches.
	StartupScriptFile = "run-before-start-vscode.cmd"

	workspacesRoot = "/workspaces"
)

// BuildConfig is the "build" property of devcontainer.json.
type BuildConfig struct {
	Dockerfile string `json:"dockerfile"`
	Context    string `json:"context,omitempty"`
}

// Config is the subset of devcontainer.json devbox reads.
type Config struct {
	Name            string                 `json:"name,omitempty"`
	Image           string                 `json:"image"`
	DockerFile      string                 `json:"dockerFile"`
	Build           *BuildConfig           `json:"build,omitempty"`
	RemoteUser      string                 `json:"remoteUser"`
	Mounts          []string               `json:"mounts,omitempty"`
	Features        map[string]interface{} `json:"features,omitempty"`
	WorkspaceFolder string                 `json:"workspaceFolder,omitempty"`
	WorkspaceMount  string                 `json:"workspaceMount,omitempty"`
}

// ConfigPath returns the devcontainer.json location inside projectPath.
func ConfigPath(projectPath string) string {
	return filepath.Join(projectPath, ConfigDir, ConfigFile)
}

// LoadConfig loads and parses .devcontainer/devcontainer.json if it exists.
// Comments and trailing commas are accepted.
func LoadConfig(projectPath string) (*Config, error) {
	configPath := ConfigPath(projectPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := decodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	return config, nil
}

func decodeConfig(data []byte) (*Config, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(std, &config); err != nil {
		return nil, err
	}

	// If RemoteUser is not specified, use root as default
	if config.RemoteUser == "" {
		config.RemoteUser = "root"
	}
	return &config, nil
}

// GetDockerfile returns the dockerfile path from either DockerFile field or Build.Dockerfile
func (c *Config) GetDockerfile() string {
	if c.Build != nil && c.Build.Dockerfile != "" {
		return c.Build.Dockerfile
	}
	return c.DockerFile
}

// HasDockerfile returns true if a dockerfile is specified
func (c *Config) HasDockerfile() bool {
	return c.GetDockerfile() != ""
}

// Base describes what the container is built from: the image reference,
// or "Dockerfile (<path>)".
func (c *Config) Base() string {
	if c.Image != "" {
		return c.Image
	}
	if c.HasDockerfile() {
		return fmt.Sprintf("Dockerfile (%s)", c.GetDockerfile())
	}
	return ""
}

// WorkspaceFolder is the in-container path of a shared folder.
func WorkspaceFolder(shareName string) string {
	return path.Join(workspacesRoot, shareName)
}

// WorkspaceMount is the bind mount from the VM's shared folder into the
// container workspace.
func WorkspaceMount(shareName string) string {
	return fmt.Sprintf("type=bind,source=/%s,target=%s,consistency=cached", shareName, WorkspaceFolder(shareName))
}

// SetWorkspace points the document's workspace mount and folder at the
// given shared folder.
func (d *Document) SetWorkspace(shareName string) error {
	if err := d.SetString("workspaceMount", WorkspaceMount(shareName)); err != nil {
		return err
	}
	return d.SetString("workspaceFolder", WorkspaceFolder(shareName))
}
