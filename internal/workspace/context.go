package workspace

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AgentsFileName is the per-project instruction file loaded at startup.
const AgentsFileName = "AGENTS.md"

// binaryProbeLen bounds how much of a file is inspected for binary data.
const binaryProbeLen = 8000

// ContextSet is the ordered set of files whose contents accompany each
// prompt. The set itself does no git I/O; the outer loop decides what is
// eligible.
type ContextSet struct {
	// root anchors relative paths.
	root string
	// paths preserves insertion order.
	paths []string
}

// NewContextSet returns an empty set rooted at root.
func NewContextSet(root string) *ContextSet {
	return &ContextSet{root: root}
}

// Add inserts a relative path if the file exists and is not yet present.
func (c *ContextSet) Add(rel string) error {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return fmt.Errorf("empty path")
	}
	if _, err := os.Stat(filepath.Join(c.root, rel)); err != nil {
		return fmt.Errorf("add %s: %w", rel, err)
	}
	for _, existing := range c.paths {
		if existing == rel {
			return nil
		}
	}
	c.paths = append(c.paths, rel)
	return nil
}

// Drop removes a path; removing an absent path is a no-op.
func (c *ContextSet) Drop(rel string) {
	rel = strings.TrimSpace(rel)
	for i, existing := range c.paths {
		if existing == rel {
			c.paths = append(c.paths[:i], c.paths[i+1:]...)
			return
		}
	}
}

// Paths returns the tracked paths in insertion order.
func (c *ContextSet) Paths() []string {
	out := make([]string, len(c.paths))
	copy(out, c.paths)
	return out
}

// Render produces the prompt block for the current set. Empty files show
// an [empty] marker, binary files are skipped with a notice, and files
// that vanished since being added are skipped silently.
func (c *ContextSet) Render() string {
	var b strings.Builder
	for _, rel := range c.paths {
		data, err := os.ReadFile(filepath.Join(c.root, rel))
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "==== %s ====\n", rel)
		switch {
		case len(data) == 0:
			b.WriteString("[empty]\n")
		case looksBinary(data):
			b.WriteString("[binary file skipped]\n")
		default:
			b.Write(data)
			if data[len(data)-1] != '\n' {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// looksBinary treats a NUL byte in the probe window as binary content.
func looksBinary(data []byte) bool {
	if len(data) > binaryProbeLen {
		data = data[:binaryProbeLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// LoadAgentsFile reads the project instruction file under root. The
// second result is false when the file is absent or unreadable.
func LoadAgentsFile(root string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(root, AgentsFileName))
	if err != nil {
		return "", false
	}
	return string(data), true
}
