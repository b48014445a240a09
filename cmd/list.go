package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wellmaintained/devbox/internal/errors"
	"github.com/wellmaintained/devbox/internal/logging"
	"github.com/wellmaintained/devbox/internal/ui"
	"github.com/wellmaintained/devbox/pkg/devcontainer"
	"github.com/wellmaintained/devbox/pkg/templates"
	"github.com/wellmaintained/devbox/pkg/types"
)

var listVMsOnly bool

var listCmd = &cobra.Command{
	Use:   "list [flags]",
	Short: "List VMs and container templates",
	Long: `List the docker-machine VMs and the devcontainer templates create can use.

Templates are read from a fresh sparse checkout of the template repository,
which is removed again before the command exits.`,
	Example: `  # VMs and templates
  devbox list

  # Only VMs, without touching git
  devbox list --vms-only`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runList(cmd.Context(), os.Stdout); err != nil {
			ui.Error("Error: %v\n", err)
			os.Exit(errors.GetExitCode(err))
		}
	},
}

func runList(ctx context.Context, w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	r, client := newMachineClient(cfg)

	vms, err := client.List(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "=== VMs ===")
	if len(vms) == 0 {
		fmt.Fprintln(w, "No VMs.")
	} else {
		printVMs(w, vms)
	}

	if listVMsOnly {
		return nil
	}

	catalog, err := templates.Fetch(ctx, r, templates.Source{
		Repo:   cfg.Templates.Repo,
		Branch: cfg.Templates.Branch,
		Folder: cfg.Templates.Folder,
	})
	if err != nil {
		return err
	}
	defer catalog.Cleanup(ctx)

	fmt.Fprintf(w, "\n=== Templates (%s@%s) ===\n", cfg.Templates.Repo, cfg.Templates.Branch)
	if len(catalog.Templates) == 0 {
		fmt.Fprintln(w, "No templates.")
		return nil
	}
	printTemplates(ctx, w, catalog.Templates)
	return nil
}

func printVMs(w io.Writer, vms []types.VM) {
	rows := make([][]string, 0, len(vms))
	for _, vm := range vms {
		state := "Stopped"
		if vm.Running {
			state = "Running"
		}
		rows = append(rows, []string{vm.Name, state})
	}
	ui.PrintTable(w, []string{"Name", "State"}, rows)
}

// printTemplates shows each template with what its container is built from.
func printTemplates(ctx context.Context, w io.Writer, list []types.Template) {
	logger := logging.FromContext(ctx)

	rows := make([][]string, 0, len(list))
	for _, t := range list {
		base := "-"
		config, err := devcontainer.LoadConfig(t.Path)
		switch {
		case err != nil:
			logger.V(1).Info("unreadable template config", "template", t.Name, "error", err.Error())
			ui.Warning("Warning: template '%s' has an unreadable devcontainer.json\n", t.Name)
			base = "?"
		case config != nil && config.Base() != "":
			base = config.Base()
		}
		rows = append(rows, []string{t.Name, base})
	}
	ui.PrintTable(w, []string{"Template", "Base"}, rows)
}

func init() {
	listCmd.Flags().BoolVar(&listVMsOnly, "vms-only", false, "List VMs only and skip fetching templates")
}
