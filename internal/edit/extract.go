// Package edit extracts structured operations from a finalized assistant
// reply and applies them against a working tree. Extraction always runs on
// the untouched raw text; rendering never feeds this package.
package edit

import (
	"strings"

	"github.com/nanocoder/nanocoder/internal/tags"
)

// Operation is one extracted instance of the tag grammar. Kind selects
// which fields are meaningful; an Operation is immutable once extracted.
type Operation struct {
	// Kind is the operation kind from the tag vocabulary.
	Kind tags.Kind
	// Path targets a file for create and edit operations.
	Path string
	// Content is the full file body for create operations.
	Content string
	// Find is the literal text an edit locates.
	Find string
	// Replace is the text substituted for Find.
	Replace string
	// Paths lists files for request and drop operations.
	Paths []string
	// Command is the proposed shell command line.
	Command string
	// Message is the commit message text.
	Message string
}

// Extract scans text for every well-formed operation, in document order.
// Malformed elements (an edit without a complete find/replace pair, an
// unterminated body) are skipped silently; a partial reply from an
// interrupted stream is expected input, not an error.
func Extract(text string) []Operation {
	var ops []Operation
	pos := 0
	for pos < len(text) {
		offset := strings.IndexByte(text[pos:], '<')
		if offset < 0 {
			break
		}
		pos += offset
		op, next, ok := parseAt(text, pos)
		if !ok {
			pos++
			continue
		}
		ops = append(ops, op)
		pos = next
	}
	return ops
}

// parseAt attempts to parse one operation starting at an opening bracket.
// It returns the operation, the index just past its closing delimiter, and
// whether the parse succeeded.
func parseAt(text string, pos int) (Operation, int, bool) {
	tag := tags.MatchOpen(text[pos:])
	if tag == nil {
		return Operation{}, 0, false
	}

	switch tag.Kind {
	case tags.KindCreate:
		return parseCreate(text, pos)
	case tags.KindEdit:
		return parseEdit(text, pos)
	case tags.KindRequest, tags.KindDrop:
		return parsePathList(text, pos, tag)
	case tags.KindShell, tags.KindCommit:
		return parseBody(text, pos, tag)
	default:
		// find/replace only occur nested inside an edit element.
		return Operation{}, 0, false
	}
}

// parseCreate parses `<create path="...">content</create>`.
func parseCreate(text string, pos int) (Operation, int, bool) {
	tag := tags.ByKind(tags.KindCreate)
	path, bodyStart, ok := parseOpenWithPath(text, pos, tag)
	if !ok {
		return Operation{}, 0, false
	}
	body, next, ok := readUntil(text, bodyStart, tag.Close())
	if !ok {
		return Operation{}, 0, false
	}
	return Operation{Kind: tags.KindCreate, Path: path, Content: body}, next, true
}

// parseEdit parses an edit element with its required find/replace pair.
// Any missing piece makes the whole element a non-match.
func parseEdit(text string, pos int) (Operation, int, bool) {
	editTag := tags.ByKind(tags.KindEdit)
	findTag := tags.ByKind(tags.KindFind)
	replaceTag := tags.ByKind(tags.KindReplace)

	path, cursor, ok := parseOpenWithPath(text, pos, editTag)
	if !ok {
		return Operation{}, 0, false
	}

	cursor = skipSpace(text, cursor)
	if !strings.HasPrefix(text[cursor:], findTag.Open()) {
		return Operation{}, 0, false
	}
	find, cursor, ok := readUntil(text, cursor+len(findTag.Open()), findTag.Close())
	if !ok {
		return Operation{}, 0, false
	}

	cursor = skipSpace(text, cursor)
	if !strings.HasPrefix(text[cursor:], replaceTag.Open()) {
		return Operation{}, 0, false
	}
	replace, cursor, ok := readUntil(text, cursor+len(replaceTag.Open()), replaceTag.Close())
	if !ok {
		return Operation{}, 0, false
	}

	cursor = skipSpace(text, cursor)
	if !strings.HasPrefix(text[cursor:], editTag.Close()) {
		return Operation{}, 0, false
	}
	op := Operation{Kind: tags.KindEdit, Path: path, Find: find, Replace: replace}
	return op, cursor + len(editTag.Close()), true
}

// parsePathList parses request/drop bodies into whitespace-separated paths.
func parsePathList(text string, pos int, tag *tags.Tag) (Operation, int, bool) {
	if !strings.HasPrefix(text[pos:], tag.Open()) {
		return Operation{}, 0, false
	}
	body, next, ok := readUntil(text, pos+len(tag.Open()), tag.Close())
	if !ok {
		return Operation{}, 0, false
	}
	return Operation{Kind: tag.Kind, Paths: strings.Fields(body)}, next, true
}

// parseBody parses shell/commit elements whose body is plain text.
func parseBody(text string, pos int, tag *tags.Tag) (Operation, int, bool) {
	if !strings.HasPrefix(text[pos:], tag.Open()) {
		return Operation{}, 0, false
	}
	body, next, ok := readUntil(text, pos+len(tag.Open()), tag.Close())
	if !ok {
		return Operation{}, 0, false
	}
	op := Operation{Kind: tag.Kind}
	switch tag.Kind {
	case tags.KindShell:
		op.Command = strings.TrimSpace(body)
	case tags.KindCommit:
		op.Message = strings.TrimSpace(body)
	}
	return op, next, true
}

// parseOpenWithPath matches `<name path="...">` and returns the attribute
// value and the index of the first body byte.
func parseOpenWithPath(text string, pos int, tag *tags.Tag) (string, int, bool) {
	prefix := "<" + tag.Name + ` path="`
	if !strings.HasPrefix(text[pos:], prefix) {
		return "", 0, false
	}
	start := pos + len(prefix)
	quote := strings.IndexByte(text[start:], '"')
	if quote < 0 {
		return "", 0, false
	}
	end := start + quote
	if !strings.HasPrefix(text[end:], `">`) {
		return "", 0, false
	}
	return text[start:end], end + 2, true
}

// readUntil returns the text between from and the next occurrence of
// delimiter, plus the index just past the delimiter.
func readUntil(text string, from int, delimiter string) (string, int, bool) {
	idx := strings.Index(text[from:], delimiter)
	if idx < 0 {
		return "", 0, false
	}
	return text[from : from+idx], from + idx + len(delimiter), true
}

// skipSpace advances past ASCII whitespace.
func skipSpace(text string, pos int) int {
	for pos < len(text) {
		switch text[pos] {
		case ' ', '\t', '\r', '\n':
			pos++
		default:
			return pos
		}
	}
	return pos
}
