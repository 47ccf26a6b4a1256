// Package markdown converts a fixed subset of markdown into ANSI-styled
// terminal text. The same rule set backs both the streaming prose renderer
// and the non-streaming Render pass, so a finalized reply redisplays the
// way it streamed.
package markdown

import (
	"regexp"
	"strings"
)

// ANSI style sequences used by the renderer. Constructs the renderer does
// not recognize, tables included, pass through byte-for-byte, which keeps
// Render idempotent on already-rendered text.
const (
	reset     = "\x1b[0m"
	bold      = "\x1b[1m"
	dim       = "\x1b[2m"
	italic    = "\x1b[3m"
	underline = "\x1b[4m"
	cyan      = "\x1b[36m"
	inverse   = "\x1b[7m"
)

var (
	boldStars     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnders    = regexp.MustCompile(`__(.+?)__`)
	italicStar    = regexp.MustCompile(`(^|[^*\x1b])\*([^*\n]+?)\*`)
	italicUnder   = regexp.MustCompile(`(^|[^_\w])_([^_\n]+?)_`)
	inlineCode    = regexp.MustCompile("`([^`\n]+)`")
	link          = regexp.MustCompile(`\[([^]\n]+)\]\(([^)\n]+)\)`)
	header1       = regexp.MustCompile(`(?m)^# (.+)$`)
	header2       = regexp.MustCompile(`(?m)^## (.+)$`)
	header3       = regexp.MustCompile(`(?m)^### (.+)$`)
	fencedBlock   = regexp.MustCompile("(?s)```(.*?)```")
	fenceLangLine = regexp.MustCompile(`^[A-Za-z0-9+_.-]*\n`)
)

// Render styles a fully buffered string. Fenced blocks are dimmed with the
// markers stripped; everything outside them goes through the prose rules.
func Render(text string) string {
	var out strings.Builder
	last := 0
	for _, span := range fencedBlock.FindAllStringSubmatchIndex(text, -1) {
		out.WriteString(Prose(text[last:span[0]]))
		out.WriteString(CodeBlock(text[span[2]:span[3]]))
		last = span[1]
	}
	out.WriteString(Prose(text[last:]))
	return out.String()
}

// Prose applies the inline and line-level rules to text outside fenced
// blocks. Header rules run before inline rules so a header line keeps a
// single style.
func Prose(text string) string {
	text = header3.ReplaceAllString(text, bold+"$1"+reset)
	text = header2.ReplaceAllString(text, bold+underline+"$1"+reset)
	text = header1.ReplaceAllString(text, bold+inverse+" $1 "+reset)
	text = link.ReplaceAllString(text, underline+"$1"+reset+" "+dim+"($2)"+reset)
	text = inlineCode.ReplaceAllString(text, cyan+"$1"+reset)
	text = boldStars.ReplaceAllString(text, bold+"$1"+reset)
	text = boldUnders.ReplaceAllString(text, bold+"$1"+reset)
	text = italicStar.ReplaceAllString(text, "$1"+italic+"$2"+reset)
	text = italicUnder.ReplaceAllString(text, "$1"+italic+"$2"+reset)
	return text
}

// CodeBlock dims fenced content. A leading language hint line is dropped;
// the content itself is otherwise untouched.
func CodeBlock(content string) string {
	content = fenceLangLine.ReplaceAllString(content, "")
	if content == "" {
		return ""
	}
	return dim + content + reset
}
