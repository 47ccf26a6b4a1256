package workspace

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nanocoder/nanocoder/internal/testutil"
)

func initTrackedTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	root := t.TempDir()
	writeTree(t, root, files)
	for _, command := range []string{"git init", "git add -A"} {
		cmd := exec.Command("bash", "-c", command)
		cmd.Dir = root
		out, err := cmd.CombinedOutput()
		testutil.RequireNoError(t, err, command+": "+string(out))
	}
	return root
}

func TestSourceMap(t *testing.T) {
	root := initTrackedTree(t, map[string][]byte{
		"main.go":       []byte("package main\n\ntype Config struct{}\n\nfunc main() {}\n\nfunc helper() {}\n"),
		"notes.txt":     []byte("plain\n"),
		"pkg/broken.go": []byte("package broken\nfunc oops( {\n"),
	})

	got := SourceMap(root)
	lines := strings.Split(got, "\n")
	testutil.RequireEqual(t, len(lines), 3, "one line per tracked file")
	testutil.RequireStringContains(t, got, "main.go: Config, main, helper", "defs in source order")
	testutil.RequireStringContains(t, got, "notes.txt", "non-Go file listed bare")
	testutil.RequireStringContains(t, got, "pkg/broken.go", "unparseable file still listed")
	testutil.RequireNotContains(t, got, "broken.go:", "no defs for unparseable file")
}

func TestSourceMapSkipsVanishedFiles(t *testing.T) {
	root := initTrackedTree(t, map[string][]byte{
		"keep.txt": []byte("k\n"),
		"gone.txt": []byte("g\n"),
	})
	testutil.RequireNoError(t, os.Remove(filepath.Join(root, "gone.txt")), "remove tracked file")

	got := SourceMap(root)
	testutil.RequireStringContains(t, got, "keep.txt", "surviving file listed")
	testutil.RequireNotContains(t, got, "gone.txt", "vanished file skipped")
}

func TestSourceMapOutsideRepository(t *testing.T) {
	root := t.TempDir()
	cmd := exec.Command("git", "-C", root, "rev-parse", "--is-inside-work-tree")
	if cmd.Run() == nil {
		t.Skip("temporary directory unexpectedly inside a git repository")
	}
	testutil.RequireEqual(t, SourceMap(root), "", "no repository means no map")
}
