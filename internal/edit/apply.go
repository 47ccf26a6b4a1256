package edit

import (
	"encoding/json"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/nanocoder/nanocoder/internal/tags"
)

// DefaultCommitMessage is used when a batch carries no commit element.
const DefaultCommitMessage = "Update"

// Status classifies the outcome of one operation.
type Status string

const (
	// StatusApplied means the operation took effect.
	StatusApplied Status = "applied"
	// StatusSkipped means the operation was a deliberate no-op.
	StatusSkipped Status = "skipped"
	// StatusFailed means the operation could not take effect.
	StatusFailed Status = "failed"
	// StatusNoMatch means an edit's find text did not occur; the target is
	// untouched and the batch continues.
	StatusNoMatch Status = "no match"
)

// Outcome reports one operation's result. Outcomes are for logging; no
// structured error propagates past the batch boundary.
type Outcome struct {
	// Kind is the operation kind.
	Kind tags.Kind
	// Path is the target file, when the operation has one.
	Path string
	// Status classifies the result.
	Status Status
	// Detail is a short human-readable explanation.
	Detail string
}

// Report is the ordered result of one Apply call. Requested, Dropped and
// Commands are handed back to the outer loop, which owns context mutation
// and command approval.
type Report struct {
	// Outcomes lists per-operation results in application order.
	Outcomes []Outcome
	// Requested lists files the assistant asked to add to the context.
	Requested []string
	// Dropped lists files the assistant asked to remove from the context.
	Dropped []string
	// Commands lists proposed shell commands awaiting approval.
	Commands []string
	// CommitMessage is the message used for the batch commit, if one ran.
	CommitMessage string
	// Committed reports whether a commit was attempted.
	Committed bool
}

// Apply extracts every operation from text and attempts each against the
// working tree rooted at root, in document order. A failing operation
// never aborts the batch; the commit, if any, runs last.
func Apply(text string, root string) *Report {
	report := &Report{}
	commitMessage := ""
	fileOps := false
	commitSeen := false

	for _, op := range Extract(text) {
		switch op.Kind {
		case tags.KindCreate:
			fileOps = true
			report.Outcomes = append(report.Outcomes, applyCreate(root, op))
		case tags.KindEdit:
			fileOps = true
			report.Outcomes = append(report.Outcomes, applyEdit(root, op))
		case tags.KindRequest:
			report.Requested = append(report.Requested, op.Paths...)
			report.Outcomes = append(report.Outcomes, Outcome{
				Kind:   op.Kind,
				Status: StatusApplied,
				Detail: fmt.Sprintf("%d file(s) requested", len(op.Paths)),
			})
		case tags.KindDrop:
			report.Dropped = append(report.Dropped, op.Paths...)
			report.Outcomes = append(report.Outcomes, Outcome{
				Kind:   op.Kind,
				Status: StatusApplied,
				Detail: fmt.Sprintf("%d file(s) dropped", len(op.Paths)),
			})
		case tags.KindShell:
			report.Commands = append(report.Commands, op.Command)
			report.Outcomes = append(report.Outcomes, Outcome{
				Kind:   op.Kind,
				Status: StatusApplied,
				Detail: "command extracted; execution needs approval",
			})
		case tags.KindCommit:
			if !commitSeen {
				commitMessage = op.Message
				commitSeen = true
			}
		}
	}

	// The commit runs after every create/edit has been attempted, whether
	// or not any of them changed a file.
	if (fileOps || commitSeen) && InsideRepository(root) {
		if commitMessage == "" {
			commitMessage = DefaultCommitMessage
		}
		report.CommitMessage = commitMessage
		report.Committed = true
		outcome := Outcome{Kind: tags.KindCommit, Status: StatusApplied, Detail: commitMessage}
		if err := CommitAll(root, commitMessage); err != nil {
			outcome.Status = StatusFailed
			outcome.Detail = err.Error()
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report
}

// applyCreate writes a new file. Existing files are never overwritten, and
// content that fails static validation leaves the target absent.
func applyCreate(root string, op Operation) Outcome {
	outcome := Outcome{Kind: op.Kind, Path: op.Path}

	path, err := resolvePath(root, op.Path)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Detail = err.Error()
		return outcome
	}

	if _, err := os.Stat(path); err == nil {
		outcome.Status = StatusSkipped
		outcome.Detail = "file already exists"
		return outcome
	} else if !errors.Is(err, os.ErrNotExist) {
		outcome.Status = StatusFailed
		outcome.Detail = err.Error()
		return outcome
	}

	if err := validateContent(op.Path, op.Content); err != nil {
		outcome.Status = StatusFailed
		outcome.Detail = fmt.Sprintf("content failed validation: %v", err)
		return outcome
	}

	if parent := filepath.Dir(path); parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			outcome.Status = StatusFailed
			outcome.Detail = err.Error()
			return outcome
		}
	}
	if err := os.WriteFile(path, []byte(op.Content), 0o644); err != nil {
		outcome.Status = StatusFailed
		outcome.Detail = err.Error()
		return outcome
	}

	outcome.Status = StatusApplied
	outcome.Detail = "created"
	return outcome
}

// applyEdit performs a literal first-occurrence replacement. A missing
// match is not an error; the assistant may have guessed a stale context.
func applyEdit(root string, op Operation) Outcome {
	outcome := Outcome{Kind: op.Kind, Path: op.Path}

	path, err := resolvePath(root, op.Path)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Detail = err.Error()
		return outcome
	}

	original, err := os.ReadFile(path)
	if err != nil {
		outcome.Status = StatusFailed
		if errors.Is(err, os.ErrNotExist) {
			outcome.Detail = "file not found"
		} else {
			outcome.Detail = err.Error()
		}
		return outcome
	}

	content := string(original)
	if !strings.Contains(content, op.Find) {
		outcome.Status = StatusNoMatch
		outcome.Detail = "find text not present; file unchanged"
		return outcome
	}

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}
	updated := strings.Replace(content, op.Find, op.Replace, 1)
	if err := os.WriteFile(path, []byte(updated), mode); err != nil {
		outcome.Status = StatusFailed
		outcome.Detail = err.Error()
		return outcome
	}

	outcome.Status = StatusApplied
	outcome.Detail = "replaced"
	return outcome
}

// resolvePath joins a reply-supplied relative path onto root and rejects
// anything that would escape the working tree.
func resolvePath(root string, rel string) (string, error) {
	if rel == "" {
		return "", errors.New("empty path")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("absolute path not allowed: %s", rel)
	}
	joined := filepath.Join(root, filepath.FromSlash(rel))
	cleanRoot := filepath.Clean(root)
	if joined != cleanRoot && !strings.HasPrefix(joined, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes working tree: %s", rel)
	}
	return joined, nil
}

// validateContent parses file content for extensions with a grammar the
// engine can check statically, so a syntactically broken source file is
// never written.
func validateContent(path string, content string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		fset := token.NewFileSet()
		if _, err := parser.ParseFile(fset, path, content, 0); err != nil {
			return err
		}
	case ".json":
		if !json.Valid([]byte(content)) {
			return errors.New("invalid JSON")
		}
	}
	return nil
}
