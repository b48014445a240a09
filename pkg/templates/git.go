package templates

import (
	"github.com/wellmaintained/devbox/internal/runner"
)

// gitEnv keeps git non-interactive and quiet on stderr: a private URL fails
// instead of prompting for credentials, and `git init` does not print the
// default-branch hint that would otherwise count as an error.
func gitEnv(branch string) map[string]string {
	return map[string]string{
		"GIT_TERMINAL_PROMPT": "0",
		"GIT_CONFIG_COUNT":    "1",
		"GIT_CONFIG_KEY_0":    "init.defaultBranch",
		"GIT_CONFIG_VALUE_0":  branch,
	}
}

// sparseCheckoutTasks returns the git commands that check out src.Folder
// of src.Repo into dir. Pull writes progress to stderr, so only it
// tolerates error-stream output.
func sparseCheckoutTasks(dir string, src Source) []runner.Task {
	gitTask := func(title string, args ...string) runner.Task {
		return runner.Task{
			Title: title,
			Name:  "git",
			Args:  args,
			Dir:   dir,
			Env:   gitEnv(src.Branch),
		}
	}

	pull := gitTask("Git: pull containers", "pull", "origin", src.Branch)
	pull.TolerateStderr = true

	return []runner.Task{
		gitTask("Git: init repo", "init"),
		gitTask("Git: sparse-checkout init", "sparse-checkout", "init"),
		gitTask("Git: sparse-checkout set", "sparse-checkout", "set", src.Folder),
		gitTask("Git: add remote", "remote", "add", "origin", src.Repo),
		pull,
	}
}
