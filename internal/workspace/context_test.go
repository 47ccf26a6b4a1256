package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nanocoder/nanocoder/internal/testutil"
)

func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for rel, data := range files {
		path := filepath.Join(root, rel)
		testutil.RequireNoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "mkdir")
		testutil.RequireNoError(t, os.WriteFile(path, data, 0o644), "write "+rel)
	}
}

func TestContextSetAddDrop(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"a.go":     []byte("package a\n"),
		"sub/b.go": []byte("package b\n"),
	})

	set := NewContextSet(root)
	testutil.RequireNoError(t, set.Add("a.go"), "add a.go")
	testutil.RequireNoError(t, set.Add("sub/b.go"), "add sub/b.go")
	testutil.RequireNoError(t, set.Add("a.go"), "re-adding is a no-op")
	testutil.RequireEqual(t, set.Paths(), []string{"a.go", "sub/b.go"}, "insertion order kept")

	testutil.RequireError(t, set.Add("missing.go"), "absent file rejected")
	testutil.RequireError(t, set.Add("  "), "blank path rejected")

	set.Drop("a.go")
	set.Drop("never-added.go")
	testutil.RequireEqual(t, set.Paths(), []string{"sub/b.go"}, "drop removes one entry")
}

func TestContextSetRender(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"text.txt":  []byte("body\n"),
		"empty.txt": {},
		"bin.dat":   {0x00, 0x01, 0x02},
		"bare.txt":  []byte("no trailing newline"),
	})

	set := NewContextSet(root)
	for _, rel := range []string{"text.txt", "empty.txt", "bin.dat", "bare.txt", "gone.txt"} {
		if rel == "gone.txt" {
			writeTree(t, root, map[string][]byte{"gone.txt": []byte("x")})
			testutil.RequireNoError(t, set.Add(rel), "add "+rel)
			testutil.RequireNoError(t, os.Remove(filepath.Join(root, rel)), "remove")
			continue
		}
		testutil.RequireNoError(t, set.Add(rel), "add "+rel)
	}

	got := set.Render()
	testutil.RequireStringContains(t, got, "==== text.txt ====\nbody\n", "plain file")
	testutil.RequireStringContains(t, got, "==== empty.txt ====\n[empty]\n", "empty marker")
	testutil.RequireStringContains(t, got, "==== bin.dat ====\n[binary file skipped]\n", "binary notice")
	testutil.RequireStringContains(t, got, "==== bare.txt ====\nno trailing newline\n", "newline added")
	testutil.RequireNotContains(t, got, "gone.txt", "vanished file skipped")
}

func TestLoadAgentsFile(t *testing.T) {
	root := t.TempDir()
	_, ok := LoadAgentsFile(root)
	testutil.RequireTrue(t, !ok, "absent file")

	writeTree(t, root, map[string][]byte{AgentsFileName: []byte("follow these rules\n")})
	content, ok := LoadAgentsFile(root)
	testutil.RequireTrue(t, ok, "present file")
	testutil.RequireEqual(t, content, "follow these rules\n", "content")
}

func TestSystemIsCached(t *testing.T) {
	first := System()
	second := System()
	testutil.RequireTrue(t, first == second, "same instance")
	testutil.RequireTrue(t, first.OS != "", "os populated")
	testutil.RequireStringContains(t, first.Describe(), "os: ", "describe includes os")
	testutil.RequireStringContains(t, first.Describe(), "go: go", "describe includes go version")
}
