// Package prompt asks the operator for the choices not given on the
// command line.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/wellmaintained/devbox/pkg/types"
)

// ErrNoInput is returned when input ends before a question is answered.
var ErrNoInput = errors.New("no input: selections must be passed as flags when stdin is not interactive")

// Prompter reads answers line by line. A read blocked on the terminal is
// abandoned when the context is canceled and picked up by the next question.
type Prompter struct {
	in      *bufio.Reader
	out     io.Writer
	pending chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// New returns a Prompter reading from in and writing questions to out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		p.pending = ch
	}

	var r lineResult
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r = <-p.pending:
		p.pending = nil
	}

	line, err := r.line, r.err
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		if err == io.EOF {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Choose shows a numbered list and returns the index of the picked option.
// The answer may be the number or the option text itself.
func (p *Prompter) Choose(ctx context.Context, question string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("%s: nothing to choose from", question)
	}

	fmt.Fprintf(p.out, "%s %s\n", color.CyanString("?"), question)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %2d) %s\n", i+1, opt)
	}

	for {
		fmt.Fprintf(p.out, "Choice [1-%d]: ", len(options))
		answer, err := p.readLine(ctx)
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		for i, opt := range options {
			if answer == opt {
				return i, nil
			}
		}
		fmt.Fprintln(p.out, color.RedString(">> Please pick one of the listed options"))
	}
}

// Ask reads a free-form answer. An empty answer takes def. When check is set
// the question repeats until check accepts the answer.
func (p *Prompter) Ask(ctx context.Context, question, def string, check func(string) error) (string, error) {
	for {
		if def != "" {
			fmt.Fprintf(p.out, "%s %s (%s): ", color.CyanString("?"), question, def)
		} else {
			fmt.Fprintf(p.out, "%s %s: ", color.CyanString("?"), question)
		}

		answer, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}
		if answer == "" {
			answer = def
		}
		if check == nil {
			return answer, nil
		}
		if err := check(answer); err != nil {
			fmt.Fprintf(p.out, "%s\n", color.RedString(">> %v", err))
			continue
		}
		return answer, nil
	}
}

// Complete fills every empty field of sel by asking, in order: the VM
// (with a "Create new VM" entry), a new VM name when that entry was picked,
// the template, the application name and the application folder.
func (p *Prompter) Complete(ctx context.Context, sel *types.Selection, vms []types.VM, templates []types.Template) error {
	if sel.VMName == "" && sel.NewVMName == "" {
		options := make([]string, 0, len(vms)+1)
		for _, vm := range vms {
			options = append(options, vm.Name)
		}
		options = append(options, types.CreateNewVM)

		i, err := p.Choose(ctx, "Select VM to create workspace or create new VM", options)
		if err != nil {
			return err
		}
		if i < len(vms) {
			sel.VMName = vms[i].Name
		} else {
			name, err := p.Ask(ctx, "Enter new VM name", "", newVMCheck(vms))
			if err != nil {
				return err
			}
			sel.NewVMName = name
		}
	}

	if sel.TemplatePath == "" {
		names := make([]string, len(templates))
		for i, t := range templates {
			names[i] = t.Name
		}
		i, err := p.Choose(ctx, "Select container template", names)
		if err != nil {
			return err
		}
		sel.TemplatePath = templates[i].Path
	}

	if sel.AppName == "" {
		name, err := p.Ask(ctx, "Enter new application name", "", func(s string) error {
			if !types.ValidAppName(s) {
				return errors.New("bad application name")
			}
			return nil
		})
		if err != nil {
			return err
		}
		sel.AppName = name
	}

	if sel.AppFolder == "" {
		folder, err := p.Ask(ctx, "Enter new application folder", types.DefaultAppFolder(sel.AppName), nil)
		if err != nil {
			return err
		}
		sel.AppFolder = folder
	}
	return nil
}

func newVMCheck(vms []types.VM) func(string) error {
	return func(name string) error {
		if name == "" {
			return errors.New("VM name is required")
		}
		for _, vm := range vms {
			if vm.Name == name {
				return fmt.Errorf("VM '%s' already exists", name)
			}
		}
		return nil
	}
}
