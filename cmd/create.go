package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wellmaintained/devbox/internal/errors"
	"github.com/wellmaintained/devbox/internal/prompt"
	"github.com/wellmaintained/devbox/internal/provision"
	"github.com/wellmaintained/devbox/internal/ui"
	"github.com/wellmaintained/devbox/pkg/templates"
	"github.com/wellmaintained/devbox/pkg/types"
)

var (
	createVM       string
	createNewVM    string
	createTemplate string
	createName     string
	createFolder   string
	createRepo     string
	createBranch   string
)

var createCmd = &cobra.Command{
	Use:   "create [flags]",
	Short: "Create a devcontainer workspace on a docker-machine VM",
	Long: `Create a new application workspace.

The create command:
1. Checks docker-machine and lists the existing VMs
2. Fetches the devcontainer template catalog with a sparse git checkout
3. Asks for every choice not given as a flag
4. Creates the VM if requested, then stops it
5. Moves the template into the application folder
6. Registers the folder as a VirtualBox shared folder (name made unique)
7. Points workspaceMount and workspaceFolder in devcontainer.json at the
   shared folder, keeping the original as devcontainer.json.bak
8. Writes .devcontainer/run-before-start-vscode.cmd to start the VM

The application folder must not exist; this is checked before anything is
changed. Steps are not rolled back on failure: a VM created or stopped, a
folder moved or a shared folder registered before the failing step stays
as it is.`,
	Example: `  # Answer every question interactively
  devbox create

  # Fully scripted, on an existing VM
  devbox create --vm dev1 --template python --name myapp

  # New VM, custom folder and template branch
  devbox create --new-vm dev2 --template go --name api --folder ~/src/api --branch main`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		var errs []error

		if createVM != "" && createNewVM != "" {
			errs = append(errs, fmt.Errorf("--vm and --new-vm are mutually exclusive (use an existing VM or create one)"))
		}
		if createName != "" && !types.ValidAppName(createName) {
			errs = append(errs, fmt.Errorf("--name '%s' is not a valid application name (letters, digits, '-' and '_', not starting with a digit or '-')", createName))
		}
		if strings.TrimSpace(createNewVM) != createNewVM {
			errs = append(errs, fmt.Errorf("--new-vm '%s' must not have surrounding spaces", createNewVM))
		}

		if len(errs) > 0 {
			combined := "Validation errors:\n"
			for _, err := range errs {
				combined += fmt.Sprintf("  - %s\n", err)
			}
			return errors.NewValidationError(combined, nil)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCreate(cmd.Context()); err != nil {
			ui.Error("Error: %v\n", err)
			os.Exit(errors.GetExitCode(err))
		}
	},
}

func runCreate(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if createRepo != "" {
		cfg.Templates.Repo = createRepo
	}
	if createBranch != "" {
		cfg.Templates.Branch = createBranch
	}

	r, client := newMachineClient(cfg)

	if _, err := client.Version(ctx); err != nil {
		return err
	}
	vms, err := client.List(ctx)
	if err != nil {
		return err
	}
	if err := checkVMFlags(vms); err != nil {
		return err
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

	sel := types.Selection{
		VMName:    createVM,
		NewVMName: createNewVM,
		AppName:   createName,
		AppFolder: createFolder,
	}
	if createTemplate != "" {
		t, ok := catalog.Lookup(createTemplate)
		if !ok {
			return errors.NewValidationError(fmt.Sprintf("template '%s' not found (available: %s)", createTemplate, strings.Join(catalog.Names(), ", ")), nil)
		}
		sel.TemplatePath = t.Path
	}

	if err := prompt.New(os.Stdin, ui.Out).Complete(ctx, &sel, vms, catalog.Templates); err != nil {
		return err
	}

	result, err := provision.New(client).Run(ctx, sel)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

// checkVMFlags rejects an unknown --vm and a --new-vm that already exists.
func checkVMFlags(vms []types.VM) error {
	known := make(map[string]bool, len(vms))
	for _, vm := range vms {
		known[vm.Name] = true
	}
	if createVM != "" && !known[createVM] {
		return errors.NewValidationError(fmt.Sprintf("VM '%s' not found", createVM), nil)
	}
	if createNewVM != "" && known[createNewVM] {
		return errors.NewValidationError(fmt.Sprintf("VM '%s' already exists", createNewVM), nil)
	}
	return nil
}

func printResult(result *provision.Result) {
	ui.Success("\nWorkspace ready in %s\n", result.AppFolder)
	fmt.Printf("  VM:            %s\n", result.VMName)
	fmt.Printf("  Shared folder: %s\n", result.SharedFolder)
	fmt.Printf("  Config:        %s (original: %s)\n", result.ConfigPath, result.BackupPath)
	fmt.Printf("  Startup:       %s\n", result.ScriptPath)
	ui.Info("\nRun the startup script before opening the folder in the editor.\n")
}

func init() {
	createCmd.Flags().StringVar(&createVM, "vm", "", "Existing VM to use")
	createCmd.Flags().StringVar(&createNewVM, "new-vm", "", "Name of a VM to create")
	createCmd.Flags().StringVar(&createTemplate, "template", "", "Container template name")
	createCmd.Flags().StringVar(&createName, "name", "", "Application name (also the shared folder name)")
	createCmd.Flags().StringVar(&createFolder, "folder", "", "Application folder (default ./<name>)")
	createCmd.Flags().StringVar(&createRepo, "repo", "", "Template repository URL (overrides config)")
	createCmd.Flags().StringVar(&createBranch, "branch", "", "Template repository branch (overrides config)")
}
