// Package cmd defines command-line interface commands for devbox.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/wellmaintained/devbox/internal/config"
	"github.com/wellmaintained/devbox/internal/errors"
	"github.com/wellmaintained/devbox/internal/logging"
	"github.com/wellmaintained/devbox/internal/runner"
	"github.com/wellmaintained/devbox/pkg/machine"
)

var (
	version    string
	configPath string
	verbosity  int

	// runnerOptions are applied to every runner the commands build.
	runnerOptions []runner.Option
)

var rootCmd = &cobra.Command{
	Use:   "devbox",
	Short: "Devcontainer workspace scaffolding for docker-machine VMs",
	Long: `devbox prepares a local development workspace backed by a docker-machine
VirtualBox VM: it copies a devcontainer template into a new application
folder, shares that folder with the VM and points devcontainer.json at it.

External tools: docker-machine, VBoxManage and git must be on PATH (or set
in the config file).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger := logging.New(os.Stderr, logging.Options{Verbosity: verbosity})
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logging.WithRun(ctx, logger))
	},
}

// Execute runs the root CLI command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root CLI command with ctx; cancelling ctx kills
// the external command in flight.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
	rootCmd.Version = version
}

// loadConfig reads the configuration named by --config (or the defaults).
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.NewValidationError("invalid configuration", err)
	}
	return cfg, nil
}

// newMachineClient wires the runner and the docker-machine/VBoxManage client.
func newMachineClient(cfg *config.Config) (*runner.Runner, *machine.Client) {
	r := runner.New(runnerOptions...)
	return r, machine.NewClient(r, cfg.Tools.Machine, cfg.Tools.VBoxManage)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/devbox/config.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Trace external commands and provisioning steps (repeat for more)")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
}
