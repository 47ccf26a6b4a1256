package edit

import (
	"fmt"
	"os/exec"
	"strings"
)

// InsideRepository reports whether root sits inside a git working tree.
func InsideRepository(root string) bool {
	out, err := git(root, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// CommitAll commits every pending change under root with the given
// message. Files are not staged individually; the repository's own
// commit-everything behavior applies, including its handling of a commit
// with nothing to record.
func CommitAll(root string, message string) error {
	if _, err := git(root, "add", "-A"); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}
	if out, err := git(root, "commit", "-m", message); err != nil {
		return fmt.Errorf("commit: %w: %s", err, strings.TrimSpace(out))
	}
	return nil
}

// UndoLastCommit discards the most recent commit and its tree changes.
func UndoLastCommit(root string) error {
	if out, err := git(root, "reset", "--hard", "HEAD~1"); err != nil {
		return fmt.Errorf("reset: %w: %s", err, strings.TrimSpace(out))
	}
	return nil
}

// git runs one git subcommand against root and returns combined output.
func git(root string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", root}, args...)...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
