// Package tags defines the structured-markup vocabulary embedded in
// assistant replies. Both the stream renderer and the edit engine consume
// the same vocabulary so delimiter matching never diverges between them.
package tags

import "strings"

// Kind identifies one operation in the closed tag vocabulary.
type Kind string

const (
	// KindCreate creates a new file with inline content.
	KindCreate Kind = "create"
	// KindEdit wraps a find/replace pair targeting one file.
	KindEdit Kind = "edit"
	// KindFind is the literal text to locate inside an edit element.
	KindFind Kind = "find"
	// KindReplace is the replacement text inside an edit element.
	KindReplace Kind = "replace"
	// KindRequest asks the outer loop to add files to the context set.
	KindRequest Kind = "request"
	// KindDrop asks the outer loop to remove files from the context set.
	KindDrop Kind = "drop"
	// KindShell proposes a shell command for user approval.
	KindShell Kind = "shell"
	// KindCommit supplies the commit message for the batch.
	KindCommit Kind = "commit"
)

// Tag describes one element of the vocabulary.
type Tag struct {
	// Kind is the operation this element encodes.
	Kind Kind
	// Name is the literal element name on the wire.
	Name string
	// Color is the ANSI SGR code used to display the tag while streaming.
	Color string
}

// All lists the vocabulary in a stable order. Element names equal the kind
// names; the invariant that no name is a prefix of another keeps streaming
// delimiter matching unambiguous and is locked in by a test.
var All = []Tag{
	{Kind: KindCreate, Name: "create", Color: "32m"},
	{Kind: KindEdit, Name: "edit", Color: "33m"},
	{Kind: KindFind, Name: "find", Color: "31m"},
	{Kind: KindReplace, Name: "replace", Color: "32m"},
	{Kind: KindRequest, Name: "request", Color: "36m"},
	{Kind: KindDrop, Name: "drop", Color: "35m"},
	{Kind: KindShell, Name: "shell", Color: "95m"},
	{Kind: KindCommit, Name: "commit", Color: "94m"},
}

// ByKind returns the tag for a kind, or nil if the kind is unknown.
func ByKind(kind Kind) *Tag {
	for i := range All {
		if All[i].Kind == kind {
			return &All[i]
		}
	}
	return nil
}

// Open returns the canonical opening delimiter without attributes.
func (t Tag) Open() string {
	return "<" + t.Name + ">"
}

// Close returns the closing delimiter.
func (t Tag) Close() string {
	return "</" + t.Name + ">"
}

// MatchOpen reports the tag whose opening delimiter begins at the start of
// text. An opener is "<" + name followed by ">" or a space (attributes).
// It returns nil when no vocabulary element matches.
func MatchOpen(text string) *Tag {
	if !strings.HasPrefix(text, "<") {
		return nil
	}
	rest := text[1:]
	for i := range All {
		name := All[i].Name
		if !strings.HasPrefix(rest, name) {
			continue
		}
		tail := rest[len(name):]
		if strings.HasPrefix(tail, ">") || strings.HasPrefix(tail, " ") {
			return &All[i]
		}
	}
	return nil
}

// CouldOpen reports whether text could still become an opening delimiter
// once more input arrives. It is used to hold back a fragment suffix that
// may be a partial opener split across chunk boundaries.
func CouldOpen(text string) bool {
	if text == "" || text[0] != '<' {
		return false
	}
	rest := text[1:]
	for i := range All {
		name := All[i].Name
		if strings.HasPrefix(name, rest) {
			return true
		}
		// A complete name still needs its ">" or " " terminator.
		if rest == name {
			return true
		}
	}
	return false
}

// MaxDelimiterLen is the longest delimiter the streaming renderer must be
// able to recognize; the hold-back buffer never needs to exceed it.
func MaxDelimiterLen() int {
	longest := 0
	for _, tag := range All {
		if n := len(tag.Close()); n > longest {
			longest = n
		}
	}
	return longest
}

// ColorFor returns the SGR code for a raw opening delimiter such as
// "<shell>", or "" when the delimiter names no known element.
func ColorFor(delimiter string) string {
	tag := MatchOpen(delimiter)
	if tag == nil {
		return ""
	}
	return tag.Color
}
