// Package provision turns a selection into a ready-to-open workspace: a VM,
// an application folder built from a template, a VirtualBox shared folder
// and a devcontainer.json pointing at it.
package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wellmaintained/devbox/internal/errors"
	"github.com/wellmaintained/devbox/internal/logging"
	"github.com/wellmaintained/devbox/pkg/devcontainer"
	"github.com/wellmaintained/devbox/pkg/machine"
	"github.com/wellmaintained/devbox/pkg/types"
)

// Machines is the VM surface the provisioner drives. *machine.Client
// implements it.
type Machines interface {
	Create(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	SharedFolders(ctx context.Context, vm string) ([]string, error)
	AddSharedFolder(ctx context.Context, vm, name, hostPath string) error
	StartupScript(vm string) string
}

var _ Machines = (*machine.Client)(nil)

// Result describes what a successful run produced.
type Result struct {
	VMName       string
	AppFolder    string
	SharedFolder string
	ConfigPath   string
	BackupPath   string
	ScriptPath   string
}

// Provisioner runs the provisioning steps in order.
type Provisioner struct {
	machines Machines
	rename   func(oldpath, newpath string) error
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithRename replaces os.Rename for moving the template folder.
func WithRename(fn func(oldpath, newpath string) error) Option {
	return func(p *Provisioner) {
		p.rename = fn
	}
}

// New returns a Provisioner driving m.
func New(m Machines, opts ...Option) *Provisioner {
	p := &Provisioner{
		machines: m,
		rename:   os.Rename,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run provisions sel. Steps run strictly in sequence and the first failure
// is returned as is. Nothing done by earlier steps is undone: a created or
// stopped VM, a moved folder and a registered shared folder all stay.
func (p *Provisioner) Run(ctx context.Context, sel types.Selection) (*Result, error) {
	logger := logging.FromContext(ctx)

	if err := validate(sel); err != nil {
		return nil, err
	}

	folder, err := filepath.Abs(sel.Folder())
	if err != nil {
		return nil, errors.NewRuntimeError("failed to resolve application folder", err)
	}
	if err := checkPreconditions(sel); err != nil {
		return nil, err
	}

	vm := sel.TargetVM()
	if sel.NewVMName != "" {
		logger.V(1).Info("creating vm", "vm", vm)
		if err := p.machines.Create(ctx, vm); err != nil {
			return nil, err
		}
	}

	// Shared folders can only be added to a powered-off VM.
	if err := p.machines.Stop(ctx, vm); err != nil {
		return nil, err
	}

	logger.V(1).Info("moving template", "from", sel.TemplatePath, "to", folder)
	if err := p.moveDir(sel.TemplatePath, folder); err != nil {
		return nil, errors.NewRuntimeError(fmt.Sprintf("failed to move template to '%s'", folder), err)
	}

	existing, err := p.machines.SharedFolders(ctx, vm)
	if err != nil {
		return nil, err
	}
	share := machine.UniqueFolderName(existing, sel.AppName)
	logger.V(1).Info("resolved shared folder", "vm", vm, "name", share, "existing", existing)

	if err := p.machines.AddSharedFolder(ctx, vm, share, folder); err != nil {
		return nil, err
	}

	result := &Result{
		VMName:       vm,
		AppFolder:    folder,
		SharedFolder: share,
		ConfigPath:   devcontainer.ConfigPath(folder),
		ScriptPath:   filepath.Join(folder, devcontainer.ConfigDir, devcontainer.StartupScriptFile),
	}

	doc, err := devcontainer.ReadDocument(result.ConfigPath)
	if err != nil {
		return nil, errors.NewRuntimeError("failed to load devcontainer config", err)
	}
	if err := doc.SetWorkspace(share); err != nil {
		return nil, errors.NewRuntimeError("failed to update devcontainer config", err)
	}
	if err := doc.WriteWithBackup(); err != nil {
		return nil, errors.NewRuntimeError("failed to save devcontainer config", err)
	}
	result.BackupPath = doc.BackupPath()
	logger.V(1).Info("patched devcontainer config", "path", result.ConfigPath, "backup", result.BackupPath)

	script := p.machines.StartupScript(vm)
	if err := os.WriteFile(result.ScriptPath, []byte(script), 0644); err != nil {
		return nil, errors.NewRuntimeError("failed to write startup script", err)
	}
	logger.V(1).Info("wrote startup script", "path", result.ScriptPath)

	return result, nil
}

func validate(sel types.Selection) error {
	problems := sel.Problems()
	if len(problems) == 0 {
		return nil
	}
	msgs := make([]string, len(problems))
	for i, p := range problems {
		msgs[i] = p.Error()
	}
	return errors.NewValidationError("Validation errors:\n  - "+strings.Join(msgs, "\n  - "), nil)
}

// checkPreconditions runs before anything is created, stopped or moved.
func checkPreconditions(sel types.Selection) error {
	folder := sel.Folder()
	if _, err := os.Lstat(folder); err == nil {
		return errors.NewValidationError(fmt.Sprintf("Path '%s' exists", folder), nil)
	} else if !os.IsNotExist(err) {
		return errors.NewRuntimeError(fmt.Sprintf("failed to check '%s'", folder), err)
	}

	info, err := os.Stat(sel.TemplatePath)
	if err != nil {
		return errors.NewValidationError(fmt.Sprintf("template '%s' not found", sel.TemplatePath), err)
	}
	if !info.IsDir() {
		return errors.NewValidationError(fmt.Sprintf("template '%s' is not a directory", sel.TemplatePath), nil)
	}
	return nil
}
