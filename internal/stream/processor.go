// Package stream renders assistant replies incrementally. A single
// Processor instance owns one assistant turn: fragments arrive in order
// from the transport, are classified as prose, fenced code, or protocol
// tags, and are written to the terminal as soon as their classification is
// certain. The untouched concatenation of every fragment is kept aside for
// the edit engine, which always re-parses the original text.
package stream

import (
	"io"
	"strings"

	"github.com/nanocoder/nanocoder/internal/markdown"
	"github.com/nanocoder/nanocoder/internal/tags"
)

// ansiReset and ansiDim match the escape style used by the markdown rules.
const (
	ansiReset = "\x1b[0m"
	ansiDim   = "\x1b[2m"
)

// maxLangHint bounds how long a fenced-block language hint may grow before
// the held text is reclassified as content.
const maxLangHint = 32

type mode int

const (
	modeProse mode = iota
	modeFenced
	modeTag
)

// Processor is the incremental renderer for one assistant turn. It is not
// safe for concurrent use; the transport drives it from a single goroutine.
type Processor struct {
	// out receives styled terminal output as fragments are classified.
	out io.Writer
	// raw accumulates every fragment byte-for-byte, untouched by rendering.
	raw strings.Builder
	// buf holds input whose classification is not yet certain. In prose it
	// grows until a flush point; in the other modes it never exceeds the
	// longest delimiter that could still be completing.
	buf string
	// mode selects the interpretation for newly arriving characters.
	mode mode
	// active is the open tag while mode is modeTag.
	active *tags.Tag
	// langPending is set right after a fence opener while the optional
	// language hint line may still be arriving.
	langPending bool
	// interrupted records a cancellation before the stream ended naturally.
	interrupted bool
	// finalized guards against double finalization.
	finalized bool
}

// New returns a Processor that writes rendered output to out.
func New(out io.Writer) *Processor {
	return &Processor{out: out}
}

// Process consumes one transport fragment. Fragments may be empty and may
// split any delimiter at any byte; Process never renders text whose
// classification could still change.
func (p *Processor) Process(fragment string) {
	if p.interrupted || p.finalized || fragment == "" {
		return
	}
	p.raw.WriteString(fragment)
	p.buf += fragment
	p.drain(false)
}

// Interrupt stops intake. Everything accumulated so far is preserved and
// Finalize reports the turn as interrupted; this is an expected outcome,
// not an error.
func (p *Processor) Interrupt() {
	p.interrupted = true
}

// Finalize flushes any held-back text (a false-start delimiter is emitted
// as-is) and returns the raw accumulated reply plus the interrupted flag.
func (p *Processor) Finalize() (raw string, interrupted bool) {
	if !p.finalized {
		p.drain(true)
		p.finalized = true
	}
	return p.raw.String(), p.interrupted
}

// drain classifies as much of buf as the current input allows. With final
// set it consumes everything, closing any open styling.
func (p *Processor) drain(final bool) {
	for {
		var again bool
		switch p.mode {
		case modeProse:
			again = p.scanProse(final)
		case modeFenced:
			again = p.scanFenced(final)
		case modeTag:
			again = p.scanTag(final)
		}
		if !again {
			return
		}
	}
}

// scanProse emits prose through the markdown rules. Prose is held until a
// flush point: a paragraph break, a fence opener, a recognized tag opener,
// or finalization. It returns true when the caller should rescan.
func (p *Processor) scanProse(final bool) bool {
	fence := strings.Index(p.buf, "```")
	tagIdx, tag := findTagOpen(p.buf)
	para := strings.Index(p.buf, "\n\n")

	event, kind := -1, ""
	if para >= 0 {
		event, kind = para, "para"
	}
	if fence >= 0 && (event < 0 || fence < event) {
		event, kind = fence, "fence"
	}
	if tagIdx >= 0 && (event < 0 || tagIdx < event) {
		event, kind = tagIdx, "tag"
	}

	switch kind {
	case "para":
		p.write(markdown.Prose(p.buf[:event+2]))
		p.buf = p.buf[event+2:]
		return true
	case "fence":
		p.write(markdown.Prose(p.buf[:event]))
		p.buf = p.buf[event+3:]
		p.mode = modeFenced
		p.langPending = true
		p.write(ansiDim)
		return true
	case "tag":
		p.write(markdown.Prose(p.buf[:event]))
		p.buf = p.buf[event:]
		p.mode = modeTag
		p.active = tag
		p.write("\x1b[" + tag.Color)
		return true
	}

	if final {
		p.write(markdown.Prose(p.buf))
		p.buf = ""
	}
	return false
}

// scanFenced streams fenced content dimmed. The opening style was written
// on entry, so content passes through verbatim; only a trailing partial
// fence marker is held back across fragments.
func (p *Processor) scanFenced(final bool) bool {
	if p.langPending && !p.resolveLangHint(final) {
		return false
	}

	if idx := strings.Index(p.buf, "```"); idx >= 0 {
		p.write(p.buf[:idx])
		p.write(ansiReset)
		p.buf = p.buf[idx+3:]
		p.mode = modeProse
		return true
	}

	if final {
		p.write(p.buf)
		p.write(ansiReset)
		p.buf = ""
		return false
	}

	hold := trailingBackticks(p.buf)
	p.write(p.buf[:len(p.buf)-hold])
	p.buf = p.buf[len(p.buf)-hold:]
	return false
}

// resolveLangHint decides whether the text right after a fence opener is a
// language hint to drop. It reports whether scanning may continue.
func (p *Processor) resolveLangHint(final bool) bool {
	newline := strings.IndexByte(p.buf, '\n')
	closer := strings.Index(p.buf, "```")

	// The block closes on the opener line, so there is no hint.
	if closer >= 0 && (newline < 0 || closer < newline) {
		p.langPending = false
		return true
	}

	if newline >= 0 {
		if isLangHint(p.buf[:newline]) {
			p.buf = p.buf[newline+1:]
		}
		p.langPending = false
		return true
	}

	if final {
		if isLangHint(p.buf) {
			p.buf = ""
		}
		p.langPending = false
		return true
	}

	// Reclassify as content once the held text can no longer be a hint.
	if !isLangHint(p.buf) || len(p.buf) > maxLangHint {
		p.langPending = false
		return true
	}
	return false
}

// scanTag streams tag text in the tag's color, opener and closer included.
// The color was written on entry; a suffix that could be the start of the
// closing delimiter is held back until it resolves.
func (p *Processor) scanTag(final bool) bool {
	closer := p.active.Close()
	if idx := strings.Index(p.buf, closer); idx >= 0 {
		p.write(p.buf[:idx+len(closer)])
		p.write(ansiReset)
		p.buf = p.buf[idx+len(closer):]
		p.mode = modeProse
		p.active = nil
		return true
	}

	if final {
		p.write(p.buf)
		p.write(ansiReset)
		p.buf = ""
		return false
	}

	hold := delimiterOverlap(p.buf, closer)
	p.write(p.buf[:len(p.buf)-hold])
	p.buf = p.buf[len(p.buf)-hold:]
	return false
}

// write sends rendered text to the terminal. Write errors are discarded;
// rendering is a projection for display and never affects raw.
func (p *Processor) write(text string) {
	if text == "" || p.out == nil {
		return
	}
	_, _ = io.WriteString(p.out, text)
}

// findTagOpen locates the earliest recognized tag opener in text.
func findTagOpen(text string) (int, *tags.Tag) {
	for i := 0; i < len(text); i++ {
		if text[i] != '<' {
			continue
		}
		if tag := tags.MatchOpen(text[i:]); tag != nil {
			return i, tag
		}
	}
	return -1, nil
}

// trailingBackticks counts how many trailing backticks could still belong
// to a fence marker split across fragments (at most two).
func trailingBackticks(text string) int {
	count := 0
	for count < 2 && count < len(text) && text[len(text)-1-count] == '`' {
		count++
	}
	return count
}

// delimiterOverlap returns the length of the longest suffix of text that
// is a proper prefix of delimiter.
func delimiterOverlap(text string, delimiter string) int {
	max := len(delimiter) - 1
	if max > len(text) {
		max = len(text)
	}
	for k := max; k > 0; k-- {
		if strings.HasSuffix(text, delimiter[:k]) {
			return k
		}
	}
	return 0
}

// isLangHint reports whether text looks like a fenced-block language tag.
func isLangHint(text string) bool {
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '+' || c == '_' || c == '.' || c == '-':
		default:
			return false
		}
	}
	return true
}
