package edit

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nanocoder/nanocoder/internal/tags"
	"github.com/nanocoder/nanocoder/internal/testutil"
)

// initRepo creates a temporary git repository with commit identity set.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	root := t.TempDir()
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "test"},
	} {
		out, err := git(root, args...)
		testutil.RequireNoError(t, err, "git "+args[0]+": "+out)
	}
	return root
}

func lastCommitMessage(t *testing.T, root string) string {
	t.Helper()
	out, err := git(root, "log", "-1", "--pretty=%s")
	testutil.RequireNoError(t, err, "git log")
	return strings.TrimSpace(out)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	testutil.RequireNoError(t, err, "read "+path)
	return string(data)
}

func TestApplyCreateThenEdit(t *testing.T) {
	root := initRepo(t)

	report := Apply(`<create path="a.txt">hi</create>`, root)
	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusApplied, "create outcome")
	testutil.RequireEqual(t, readFile(t, filepath.Join(root, "a.txt")), "hi", "created content")
	testutil.RequireTrue(t, report.Committed, "batch committed")
	testutil.RequireEqual(t, lastCommitMessage(t, root), DefaultCommitMessage, "default message")

	report = Apply(`<edit path="a.txt"><find>hi</find><replace>bye</replace></edit>
<commit>Change greeting</commit>`, root)
	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusApplied, "edit outcome")
	testutil.RequireEqual(t, readFile(t, filepath.Join(root, "a.txt")), "bye", "edited content")
	testutil.RequireEqual(t, report.CommitMessage, "Change greeting", "explicit message")
	testutil.RequireEqual(t, lastCommitMessage(t, root), "Change greeting", "message in log")
}

func TestApplyCreateAndEditSameBatch(t *testing.T) {
	root := initRepo(t)
	report := Apply("<create path=\"a.txt\">hi</create>\n<edit path=\"a.txt\"><find>hi</find><replace>bye</replace></edit>", root)

	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusApplied, "create outcome")
	testutil.RequireEqual(t, report.Outcomes[1].Status, StatusApplied, "edit sees the file the create wrote")
	testutil.RequireEqual(t, readFile(t, filepath.Join(root, "a.txt")), "bye", "final content")
}

func TestApplyCreateNestedDirectories(t *testing.T) {
	root := initRepo(t)
	report := Apply(`<create path="deep/nested/dir/f.txt">x</create>`, root)
	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusApplied, "outcome")
	testutil.RequireEqual(t, readFile(t, filepath.Join(root, "deep/nested/dir/f.txt")), "x", "content")
}

func TestApplyCreateNeverOverwrites(t *testing.T) {
	root := initRepo(t)
	path := filepath.Join(root, "a.txt")
	testutil.RequireNoError(t, os.WriteFile(path, []byte("original"), 0o644), "seed file")

	report := Apply(`<create path="a.txt">clobbered</create>`, root)
	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusSkipped, "outcome")
	testutil.RequireEqual(t, readFile(t, path), "original", "existing content untouched")
}

func TestApplyCreateValidatesContent(t *testing.T) {
	root := initRepo(t)

	report := Apply(`<create path="bad.go">func broken( {</create>`, root)
	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusFailed, "invalid Go rejected")
	_, err := os.Stat(filepath.Join(root, "bad.go"))
	testutil.RequireTrue(t, os.IsNotExist(err), "invalid file never written")

	report = Apply(`<create path="bad.json">{not json</create>`, root)
	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusFailed, "invalid JSON rejected")

	report = Apply(`<create path="ok.go">package ok
</create>`, root)
	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusApplied, "valid Go accepted")
}

func TestApplyEditMissingFile(t *testing.T) {
	root := initRepo(t)
	report := Apply(`<edit path="gone.txt"><find>a</find><replace>b</replace></edit>`, root)
	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusFailed, "outcome")
	testutil.RequireEqual(t, report.Outcomes[0].Detail, "file not found", "detail")
	_, err := os.Stat(filepath.Join(root, "gone.txt"))
	testutil.RequireTrue(t, os.IsNotExist(err), "edit never creates the target")
}

func TestApplyEditNoMatch(t *testing.T) {
	root := initRepo(t)
	path := filepath.Join(root, "a.txt")
	testutil.RequireNoError(t, os.WriteFile(path, []byte("content"), 0o644), "seed file")

	report := Apply(`<edit path="a.txt"><find>absent</find><replace>b</replace></edit>`, root)
	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusNoMatch, "outcome")
	testutil.RequireEqual(t, readFile(t, path), "content", "file untouched")
}

func TestApplyEditReplacesFirstOccurrenceOnly(t *testing.T) {
	root := initRepo(t)
	path := filepath.Join(root, "a.txt")
	testutil.RequireNoError(t, os.WriteFile(path, []byte("x x x"), 0o644), "seed file")

	Apply(`<edit path="a.txt"><find>x</find><replace>y</replace></edit>`, root)
	testutil.RequireEqual(t, readFile(t, path), "y x x", "first occurrence only")
}

// One failing operation must not stop the rest of the batch.
func TestApplyPartialFailureIsolation(t *testing.T) {
	root := initRepo(t)
	report := Apply(`<create path="bad.go">not go at all</create>
<create path="good.txt">fine</create>`, root)

	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusFailed, "first outcome")
	testutil.RequireEqual(t, report.Outcomes[1].Status, StatusApplied, "second outcome")
	testutil.RequireEqual(t, readFile(t, filepath.Join(root, "good.txt")), "fine", "later op applied")
	testutil.RequireTrue(t, report.Committed, "commit still runs last")
}

func TestApplyRejectsEscapingPaths(t *testing.T) {
	root := initRepo(t)
	for _, path := range []string{"../outside.txt", "/etc/passwd", "a/../../b.txt", ""} {
		report := Apply(`<create path="`+path+`">x</create>`, root)
		if path == "" {
			// An empty attribute still parses; the apply step rejects it.
			testutil.RequireEqual(t, report.Outcomes[0].Status, StatusFailed, "empty path")
			continue
		}
		testutil.RequireEqual(t, report.Outcomes[0].Status, StatusFailed, "escaping path "+path)
	}
	entries, err := os.ReadDir(filepath.Dir(root))
	testutil.RequireNoError(t, err, "list parent")
	for _, entry := range entries {
		testutil.RequireTrue(t, entry.Name() != "outside.txt", "no file outside the tree")
	}
}

func TestApplyRoutesAdvisoryOperations(t *testing.T) {
	root := initRepo(t)
	report := Apply("<request>a.go b.go</request><drop>c.go</drop><shell>make test</shell>", root)

	testutil.RequireEqual(t, report.Requested, []string{"a.go", "b.go"}, "requested")
	testutil.RequireEqual(t, report.Dropped, []string{"c.go"}, "dropped")
	testutil.RequireEqual(t, report.Commands, []string{"make test"}, "commands")
	testutil.RequireTrue(t, !report.Committed, "advisory batch does not commit")
}

func TestApplyFirstCommitMessageWins(t *testing.T) {
	root := initRepo(t)
	report := Apply(`<create path="a.txt">x</create>
<commit>First</commit>
<commit>Second</commit>`, root)
	testutil.RequireEqual(t, report.CommitMessage, "First", "first message kept")
	testutil.RequireEqual(t, lastCommitMessage(t, root), "First", "message in log")
}

func TestApplyOutsideRepository(t *testing.T) {
	root := t.TempDir()
	if InsideRepository(root) {
		t.Skip("temporary directory unexpectedly inside a git repository")
	}
	report := Apply(`<create path="a.txt">hi</create>`, root)
	testutil.RequireEqual(t, report.Outcomes[0].Status, StatusApplied, "file still created")
	testutil.RequireTrue(t, !report.Committed, "no commit without a repository")
}

func TestUndoLastCommit(t *testing.T) {
	root := initRepo(t)
	Apply(`<create path="a.txt">v1</create>`, root)
	Apply(`<edit path="a.txt"><find>v1</find><replace>v2</replace></edit>`, root)
	testutil.RequireEqual(t, readFile(t, filepath.Join(root, "a.txt")), "v2", "second commit applied")

	testutil.RequireNoError(t, UndoLastCommit(root), "undo")
	testutil.RequireEqual(t, readFile(t, filepath.Join(root, "a.txt")), "v1", "tree rolled back")
	testutil.RequireEqual(t, lastCommitMessage(t, root), DefaultCommitMessage, "first commit remains")
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	got, err := resolvePath(root, "sub/file.txt")
	testutil.RequireNoError(t, err, "relative path")
	testutil.RequireEqual(t, got, filepath.Join(root, "sub", "file.txt"), "joined path")

	_, err = resolvePath(root, "../escape")
	testutil.RequireError(t, err, "escaping path")
	_, err = resolvePath(root, "/abs")
	testutil.RequireError(t, err, "absolute path")
}

func TestOutcomeKinds(t *testing.T) {
	root := initRepo(t)
	report := Apply(`<create path="a.txt">x</create><shell>ls</shell>`, root)
	testutil.RequireEqual(t, report.Outcomes[0].Kind, tags.KindCreate, "create kind")
	testutil.RequireEqual(t, report.Outcomes[1].Kind, tags.KindShell, "shell kind")
	testutil.RequireEqual(t, report.Outcomes[2].Kind, tags.KindCommit, "commit kind")
}
