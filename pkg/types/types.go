// Package types defines shared data structures for devbox.
package types

import (
	"fmt"
	"regexp"
)

// CreateNewVM is the choice label offered next to existing VMs.
const CreateNewVM = "Create new VM"

// appNamePattern matches names usable both as a folder and a shared-folder name.
var appNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// VM is one docker-machine host as reported by `docker-machine ls`.
type VM struct {
	Name    string
	Running bool
}

// Template is a devcontainer template directory found in the template catalog.
type Template struct {
	Name string
	Path string // absolute, inside the catalog's temporary checkout
}

// Selection is the set of decisions that drives provisioning.
// Exactly one of VMName and NewVMName is set.
type Selection struct {
	VMName       string
	NewVMName    string
	TemplatePath string
	AppName      string
	AppFolder    string
}

// ValidAppName reports whether name starts with a letter or underscore and
// continues with letters, digits, hyphens or underscores.
func ValidAppName(name string) bool {
	return appNamePattern.MatchString(name)
}

// DefaultAppFolder returns the folder used when none is given: ./<appName>,
// with a forward slash on every platform.
func DefaultAppFolder(appName string) string {
	return "./" + appName
}

// TargetVM returns the VM the selection resolves to.
func (s Selection) TargetVM() string {
	if s.NewVMName != "" {
		return s.NewVMName
	}
	return s.VMName
}

// Folder returns AppFolder, or the default derived from AppName.
func (s Selection) Folder() string {
	if s.AppFolder != "" {
		return s.AppFolder
	}
	return DefaultAppFolder(s.AppName)
}

// Problems lists everything wrong with the selection. An empty result means
// the selection can be provisioned.
func (s Selection) Problems() []error {
	var errs []error

	switch {
	case s.VMName == "" && s.NewVMName == "":
		errs = append(errs, fmt.Errorf("a VM is required (choose an existing VM or a new VM name)"))
	case s.VMName != "" && s.NewVMName != "":
		errs = append(errs, fmt.Errorf("existing VM '%s' and new VM '%s' are mutually exclusive", s.VMName, s.NewVMName))
	}

	if s.TemplatePath == "" {
		errs = append(errs, fmt.Errorf("a container template is required"))
	}

	if !ValidAppName(s.AppName) {
		errs = append(errs, fmt.Errorf("bad application name '%s' (must start with a letter or '_' followed by letters, digits, '-' or '_')", s.AppName))
	}

	return errs
}
