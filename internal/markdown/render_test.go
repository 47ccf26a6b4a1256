package markdown

import (
	"testing"

	"github.com/nanocoder/nanocoder/internal/testutil"
)

func TestProseBold(t *testing.T) {
	got := Prose("some **bold** text")
	testutil.RequireEqual(t, got, "some \x1b[1mbold\x1b[0m text", "star bold")

	got = Prose("some __bold__ text")
	testutil.RequireEqual(t, got, "some \x1b[1mbold\x1b[0m text", "underscore bold")
}

func TestProseItalic(t *testing.T) {
	got := Prose("an *italic* word")
	testutil.RequireEqual(t, got, "an \x1b[3mitalic\x1b[0m word", "star italic")

	got = Prose("an _italic_ word")
	testutil.RequireEqual(t, got, "an \x1b[3mitalic\x1b[0m word", "underscore italic")

	// Double stars belong to the bold rule, never half-consumed as italic.
	got = Prose("**bold** only")
	testutil.RequireNotContains(t, got, "*", "bold markers fully consumed")
}

func TestProseInlineCode(t *testing.T) {
	got := Prose("run `go vet` first")
	testutil.RequireEqual(t, got, "run \x1b[36mgo vet\x1b[0m first", "inline code")
}

func TestProseHeaders(t *testing.T) {
	got := Prose("# Title")
	testutil.RequireEqual(t, got, "\x1b[1m\x1b[7m Title \x1b[0m", "h1")

	got = Prose("## Section")
	testutil.RequireEqual(t, got, "\x1b[1m\x1b[4mSection\x1b[0m", "h2")

	got = Prose("### Detail")
	testutil.RequireEqual(t, got, "\x1b[1mDetail\x1b[0m", "h3")

	// A hash mid-line is not a header.
	got = Prose("issue # 12")
	testutil.RequireEqual(t, got, "issue # 12", "mid-line hash untouched")
}

func TestProseLink(t *testing.T) {
	got := Prose("see [docs](https://example.com/a_b) now")
	testutil.RequireEqual(t, got,
		"see \x1b[4mdocs\x1b[0m \x1b[2m(https://example.com/a_b)\x1b[0m now",
		"link with underscore in URL")
}

func TestRenderCodeBlock(t *testing.T) {
	got := Render("```python\nprint('x')\n```")
	testutil.RequireEqual(t, got, "\x1b[2mprint('x')\n\x1b[0m", "language hint dropped")

	got = Render("```\nplain\n```")
	testutil.RequireEqual(t, got, "\x1b[2mplain\n\x1b[0m", "bare fence")

	got = Render("```code here```")
	testutil.RequireEqual(t, got, "\x1b[2mcode here\x1b[0m", "single-line fence")

	got = Render("```\n```")
	testutil.RequireEqual(t, got, "", "empty block renders to nothing")
}

func TestRenderMixed(t *testing.T) {
	got := Render("before **b**\n```go\nx := 1\n```\nafter `c`")
	testutil.RequireStringContains(t, got, "\x1b[1mb\x1b[0m", "prose before block")
	testutil.RequireStringContains(t, got, "\x1b[2mx := 1\n\x1b[0m", "dimmed block")
	testutil.RequireStringContains(t, got, "\x1b[36mc\x1b[0m", "prose after block")
	testutil.RequireNotContains(t, got, "```", "fence markers stripped")
}

// Tables are not a recognized construct; they pass through untouched.
func TestRenderTablePassthrough(t *testing.T) {
	table := "| a | b |\n|---|---|\n| 1 | 2 |\n"
	testutil.RequireEqual(t, Render(table), table, "table passthrough")
}

// Rendering already-rendered text must be a no-op: the markers that trigger
// each rule are stripped by the rule itself.
func TestRenderIdempotent(t *testing.T) {
	inputs := []string{
		"# Title\nsome **bold** and *italic* and `code`\n",
		"```go\nfmt.Println(1)\n```\ntail",
		"see [docs](https://example.com) now",
		"plain text with no markup",
	}
	for _, input := range inputs {
		once := Render(input)
		testutil.RequireEqual(t, Render(once), once, "second pass changed output")
	}
}
