package agent

import (
	"strings"

	"github.com/nanocoder/nanocoder/internal/workspace"
)

// protocol documents the tag vocabulary for the model. The edit engine
// parses exactly these element shapes, so the wording stays literal.
const protocol = `You are nanocoder, a terminal pair-programming assistant.
Reply in plain markdown prose. To act on the project, embed these tags:

<create path="relative/path">full file content</create>
  Creates a new file. Never use it for files that already exist.

<edit path="relative/path">
<find>exact text currently in the file</find>
<replace>text to put in its place</replace>
</edit>
  Replaces the first occurrence of the find text, literally.

<request>one relative path per line</request>
  Asks for file contents you need but were not given.

<drop>one relative path per line</drop>
  Removes files you no longer need from the context.

<shell>single command line</shell>
  Proposes a shell command; the user must approve it before it runs.

<commit>short commit message</commit>
  Sets the commit message for the changes in this reply.

Keep edits minimal. Ask for files with <request> instead of guessing
their contents.`

// BuildSystemPrompt assembles the per-turn system message: the tag
// protocol, the host summary, the project source map, and the project's
// AGENTS.md instructions when present.
func BuildSystemPrompt(root string) string {
	var b strings.Builder
	b.WriteString(protocol)

	if sys := workspace.System().Describe(); sys != "" {
		b.WriteString("\n\nSystem:\n")
		b.WriteString(sys)
	}
	if srcMap := workspace.SourceMap(root); srcMap != "" {
		b.WriteString("\n\nProject files:\n")
		b.WriteString(srcMap)
	}
	if agents, ok := workspace.LoadAgentsFile(root); ok {
		b.WriteString("\n\nProject instructions:\n")
		b.WriteString(strings.TrimSpace(agents))
	}
	return b.String()
}
