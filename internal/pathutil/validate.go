// Package pathutil keeps template lookups inside the catalog checkout.
// A template name comes from a directory listing or from a --template flag;
// either way it must resolve to a directory under the checkout root.
package pathutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path resolves outside its root directory.
var ErrOutsideRoot = errors.New("path escapes root directory")

// Within resolves name against root and returns the absolute result.
// Symlinks are resolved on both sides when they exist, so a link that points
// out of root is rejected. The root itself is not a valid result.
func Within(root, name string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("root cannot be empty")
	}
	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}

	absRoot, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("cannot resolve root to absolute path: %w", err)
	}

	candidate := filepath.Clean(name)
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(absRoot, candidate)
	}

	resolvedRoot := absRoot
	if r, err := filepath.EvalSymlinks(absRoot); err == nil {
		resolvedRoot = r
	}
	resolved := candidate
	if r, err := filepath.EvalSymlinks(candidate); err == nil {
		resolved = r
	} else if strings.HasPrefix(candidate, absRoot+string(filepath.Separator)) {
		// Not on disk yet: rebase onto the resolved root so both sides compare alike.
		resolved = filepath.Join(resolvedRoot, strings.TrimPrefix(candidate, absRoot))
	}

	if !strings.HasPrefix(resolved, resolvedRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is not within %s", ErrOutsideRoot, name, root)
	}
	return candidate, nil
}
