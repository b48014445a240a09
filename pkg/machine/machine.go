// Package machine drives docker-machine and VBoxManage: listing and
// creating VMs, and managing VirtualBox shared folders.
package machine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wellmaintained/devbox/internal/runner"
	"github.com/wellmaintained/devbox/pkg/types"
)

const (
	// listFormat is the docker-machine ls template producing "name\tstate" lines.
	listFormat = "{{ .Name }}\t{{ .State }}"

	runningState = "Running"

	// sharedFolderMarker prefixes shared-folder lines in `showvminfo --machinereadable`.
	sharedFolderMarker = "SharedFolderNameMachineMapping"
)

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// Client runs VM commands through a runner.
type Client struct {
	runner     *runner.Runner
	machineBin string
	vboxBin    string
}

// NewClient returns a Client using the given binaries. Empty names fall
// back to "docker-machine" and "VBoxManage".
func NewClient(r *runner.Runner, machineBin, vboxBin string) *Client {
	if machineBin == "" {
		machineBin = "docker-machine"
	}
	if vboxBin == "" {
		vboxBin = "VBoxManage"
	}
	return &Client{runner: r, machineBin: machineBin, vboxBin: vboxBin}
}

// Version returns the docker-machine version, or "" when the output holds
// no dotted version number.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version string
	err := c.runner.Run(ctx, runner.Task{
		Title: "Checking docker-machine",
		Name:  c.machineBin,
		Args:  []string{"version"},
		OnOutput: func(out string) (string, error) {
			version = ParseVersion(out)
			return version, nil
		},
	})
	return version, err
}

// List returns the known VMs in the order docker-machine reports them.
func (c *Client) List(ctx context.Context) ([]types.VM, error) {
	var vms []types.VM
	err := c.runner.Run(ctx, runner.Task{
		Title: "Getting VMs list",
		Name:  c.machineBin,
		Args:  []string{"ls", "-f", listFormat},
		OnOutput: func(out string) (string, error) {
			vms = ParseVMList(out)
			return strconv.Itoa(len(vms)), nil
		},
	})
	return vms, err
}

// Create creates a new VM.
func (c *Client) Create(ctx context.Context, name string) error {
	return c.runner.Run(ctx, runner.Task{
		Title: fmt.Sprintf("Creating new VM '%s'", name),
		Name:  c.machineBin,
		Args:  []string{"create", name},
	})
}

// Stop stops a VM. Failures are tolerated: the VM may already be stopped.
func (c *Client) Stop(ctx context.Context, name string) error {
	return c.runner.Run(ctx, runner.Task{
		Title:          fmt.Sprintf("Stopping VM '%s'", name),
		Name:           c.machineBin,
		Args:           []string{"stop", name},
		TolerateStderr: true,
	})
}

// SharedFolders returns the names of the shared folders registered on vm.
func (c *Client) SharedFolders(ctx context.Context, vm string) ([]string, error) {
	var names []string
	err := c.runner.Run(ctx, runner.Task{
		Title: fmt.Sprintf("Getting '%s' shared folders list", vm),
		Name:  c.vboxBin,
		Args:  []string{"showvminfo", vm, "--machinereadable"},
		OnOutput: func(out string) (string, error) {
			names = ParseSharedFolders(out)
			return strconv.Itoa(len(names)), nil
		},
	})
	return names, err
}

// AddSharedFolder registers hostPath on vm under name, with automount.
func (c *Client) AddSharedFolder(ctx context.Context, vm, name, hostPath string) error {
	return c.runner.Run(ctx, runner.Task{
		Title: fmt.Sprintf("Adding shared folder to '%s'", vm),
		Name:  c.vboxBin,
		Args:  []string{"sharedfolder", "add", vm, "--name=" + name, "--hostpath=" + hostPath, "--automount"},
		OnOutput: func(string) (string, error) {
			return name, nil
		},
	})
}

// StartupScript returns the Windows batch script that starts vm and loads
// its docker environment into the calling shell.
func (c *Client) StartupScript(vm string) string {
	return strings.Join([]string{
		fmt.Sprintf("%s start %s", c.machineBin, vm),
		fmt.Sprintf("FOR /f \"tokens=* USEBACKQ\" %%%%G IN (`%s env %s`) DO %%%%G", c.machineBin, vm),
	}, "\n")
}

// ParseVersion extracts the first dotted numeric triplet from out.
func ParseVersion(out string) string {
	return versionPattern.FindString(out)
}

// ParseVMList parses "name\tstate" lines. Empty lines are skipped; a VM is
// running only when its state is exactly "Running". CRLF line endings from
// Windows builds of docker-machine are accepted.
func ParseVMList(out string) []types.VM {
	var vms []types.VM
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		name, state, _ := strings.Cut(line, "\t")
		vms = append(vms, types.VM{
			Name:    name,
			Running: state == runningState,
		})
	}
	return vms
}

// ParseSharedFolders extracts shared-folder names from a machine-readable
// VM info dump. For each line starting with the mapping marker, the name is
// the quoted text after the final '='. Empty names are dropped.
func ParseSharedFolders(dump string) []string {
	var names []string
	for _, line := range strings.Split(dump, "\n") {
		if !strings.HasPrefix(line, sharedFolderMarker) {
			continue
		}
		i := strings.LastIndex(line, "=")
		if i < 0 {
			continue
		}
		value := strings.TrimSpace(line[i+1:])
		if len(value) < 2 {
			continue
		}
		if name := value[1 : len(value)-1]; name != "" {
			names = append(names, name)
		}
	}
	return names
}

// UniqueFolderName returns name if it is not in existing, otherwise the
// first of name-1, name-2, ... that is not.
func UniqueFolderName(existing []string, name string) string {
	taken := make(map[string]bool, len(existing))
	for _, n := range existing {
		taken[n] = true
	}

	candidate := name
	for i := 1; taken[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", name, i)
	}
	return candidate
}
