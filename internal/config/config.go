// Package config provides configuration management for devbox.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTemplateRepo   = "https://github.com/microsoft/vscode-dev-containers.git"
	DefaultTemplateBranch = "master"
	DefaultTemplateFolder = "containers"
	DefaultMachineBin     = "docker-machine"
	DefaultVBoxManageBin  = "VBoxManage"
)

// Config is the resolved devbox configuration.
type Config struct {
	Templates Templates `yaml:"templates"`
	Tools     Tools     `yaml:"tools"`
}

// Templates locates the devcontainer template catalog.
type Templates struct {
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	Folder string `yaml:"folder"`
}

// Tools names the external binaries devbox drives.
type Tools struct {
	Machine    string `yaml:"machine"`
	VBoxManage string `yaml:"vboxmanage"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Templates: Templates{
			Repo:   DefaultTemplateRepo,
			Branch: DefaultTemplateBranch,
			Folder: DefaultTemplateFolder,
		},
		Tools: Tools{
			Machine:    DefaultMachineBin,
			VBoxManage: DefaultVBoxManageBin,
		},
	}
}

// LoadConfig loads the devbox configuration.
// path names a YAML file that must exist; when empty, $DEVBOX_CONFIG is used,
// then the per-user file under XDG_CONFIG_HOME if present. Environment
// overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	required := path != ""
	if path == "" {
		path = os.Getenv("DEVBOX_CONFIG")
		required = path != ""
	}
	if path == "" {
		path = userConfigPath()
	}

	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			if err := decode(f, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("failed to open config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"DEVBOX_TEMPLATE_REPO":   &cfg.Templates.Repo,
		"DEVBOX_TEMPLATE_BRANCH": &cfg.Templates.Branch,
		"DEVBOX_TEMPLATE_FOLDER": &cfg.Templates.Folder,
		"DEVBOX_MACHINE_BIN":     &cfg.Tools.Machine,
		"DEVBOX_VBOXMANAGE_BIN":  &cfg.Tools.VBoxManage,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
}

func userConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "devbox", "config.yaml")
}
