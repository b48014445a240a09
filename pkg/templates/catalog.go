// Package templates fetches the devcontainer template catalog with a sparse
// git checkout into a temporary directory.
package templates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/wellmaintained/devbox/internal/logging"
	"github.com/wellmaintained/devbox/internal/pathutil"
	"github.com/wellmaintained/devbox/internal/runner"
	"github.com/wellmaintained/devbox/pkg/types"
)

// Source locates the template catalog.
type Source struct {
	Repo   string
	Branch string
	// Folder is the only repository folder checked out; each directory in it is a template.
	Folder string
}

// Catalog is a checked-out template catalog. It owns a temporary directory
// that Cleanup removes.
type Catalog struct {
	Dir       string
	Templates []types.Template

	root string
}

// Fetch checks out src.Folder of src.Repo into a new temporary directory
// and lists the templates in it. The directory is removed again when Fetch
// fails.
func Fetch(ctx context.Context, r *runner.Runner, src Source) (*Catalog, error) {
	dir, err := os.MkdirTemp("", "containers_")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary directory: %w", err)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	c := &Catalog{Dir: dir, root: filepath.Join(dir, src.Folder)}

	tasks := sparseCheckoutTasks(dir, src)
	tasks[len(tasks)-1].OnOutput = func(string) (string, error) {
		templates, err := listTemplates(c.root)
		if err != nil {
			return "", err
		}
		c.Templates = templates
		return strconv.Itoa(len(templates)), nil
	}

	for _, task := range tasks {
		if err := r.Run(ctx, task); err != nil {
			c.Cleanup(ctx)
			return nil, err
		}
	}
	return c, nil
}

// Lookup returns the template called name.
func (c *Catalog) Lookup(name string) (types.Template, bool) {
	path, err := pathutil.Within(c.root, name)
	if err != nil {
		return types.Template{}, false
	}
	for _, t := range c.Templates {
		if t.Path == path {
			return t, true
		}
	}
	return types.Template{}, false
}

// Names returns the template names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Templates))
	for _, t := range c.Templates {
		names = append(names, t.Name)
	}
	return names
}

// Cleanup removes the temporary directory. Failures are logged and otherwise ignored.
func (c *Catalog) Cleanup(ctx context.Context) {
	if c == nil || c.Dir == "" {
		return
	}
	if err := os.RemoveAll(c.Dir); err != nil {
		logging.FromContext(ctx).V(1).Info("failed to remove template checkout", "dir", c.Dir, "error", err.Error())
	}
}

// listTemplates returns the directories directly under root, sorted by name.
func listTemplates(root string) ([]types.Template, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	var templates []types.Template
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		templates = append(templates, types.Template{
			Name: entry.Name(),
			Path: filepath.Join(root, entry.Name()),
		})
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}
