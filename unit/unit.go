// Package unit implements the grouping engine: it walks a document's
// event stream and partitions it into translation units, honoring
// skip/comment directives and code block literal extraction.
//
// Units are transient. They are rebuilt from a fresh parse on every
// extraction or application pass; only the catalog persists.
package unit

import (
	"strings"

	"github.com/minios-linux/mdkit/event"
)

// Kind classifies a unit by the block context it was flushed from.
type Kind int

const (
	// Prose is a paragraph outside any list.
	Prose Kind = iota
	// Heading is a heading title.
	Heading
	// ListItem is direct inline content of a list item.
	ListItem
	// TableCell is one table cell.
	TableCell
	// CodeText is a string literal or comment inside a code block.
	CodeText
)

// Unit is one extracted span of translatable text plus the metadata
// needed to substitute a translation back into the source document.
type Unit struct {
	// Key is the catalog lookup key: soft breaks normalized to single
	// spaces, surrounding whitespace trimmed. Never empty.
	Key string
	// Source is the verbatim original text covered by Spans.
	Source string
	Kind   Kind
	// Level is the heading level, 0 for non-headings.
	Level int
	// Line is the 1-based source line the unit starts on.
	Line int
	// Spans are the per-line content ranges the unit occupies in the
	// source, in order. Continuation prefixes (quote markers, list
	// indentation) between spans stay in the skeleton.
	Spans []event.Span
	// Links holds the skeleton suffix for each bracketed link or image
	// in Key, in order of appearance. Targets are never translatable.
	Links []string
	// Comments are translator-facing notes from preceding directives.
	Comments []string
	// Skip marks a unit suppressed by a skip directive: excluded from
	// extraction and always rendered with its original text.
	Skip bool
}

// Extract parses a document and returns its translation units.
func Extract(source []byte) ([]Unit, error) {
	events, err := event.Parse(source)
	if err != nil {
		return nil, err
	}
	return Build(source, events), nil
}

// Build runs the grouping engine over an already parsed event stream.
func Build(source []byte, events []event.Event) []Unit {
	b := &builder{src: source}
	for _, e := range events {
		b.step(e)
	}
	return b.units
}

type frame struct {
	tag       event.TagKind
	kind      Kind
	level     int
	line      int
	buffering bool
	buf       []byte
	lines     []event.Span
	links     []string

	code      bool
	codeLang  string
	codeLines []codeLine

	htmlBlock bool
	htmlParts []string
}

type builder struct {
	src             []byte
	units           []Unit
	stack           []frame
	pendingSkip     bool
	pendingComments []string
}

func (b *builder) top() *frame {
	if len(b.stack) == 0 {
		return nil
	}
	return &b.stack[len(b.stack)-1]
}

// buffer returns the innermost frame accumulating inline content.
func (b *builder) buffer() *frame {
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].buffering {
			return &b.stack[i]
		}
	}
	return nil
}

func (b *builder) append(s string) {
	if f := b.buffer(); f != nil {
		f.buf = append(f.buf, s...)
	}
}

func (b *builder) step(e event.Event) {
	switch e.Kind {
	case event.Start:
		b.start(e)
	case event.End:
		b.end(e)
	case event.Text:
		if f := b.top(); f != nil && f.code {
			f.codeLines = append(f.codeLines, codeLine{text: e.Text, span: e.Span, line: e.Line})
			return
		}
		b.append(e.Text)
	case event.Code:
		b.append(codeSpanMarkup(e.Text))
	case event.HTML:
		if f := b.top(); f != nil && f.htmlBlock {
			f.htmlParts = append(f.htmlParts, e.Text)
			return
		}
		if dirs, ok := parseDirectives(e.Text); ok {
			b.applyDirectives(dirs)
			return
		}
		b.append(e.Text)
	case event.SoftBreak:
		b.append(" ")
	case event.HardBreak:
		b.append("\n")
	case event.FootnoteRef:
		b.append("[^" + e.Text + "]")
	case event.Rule:
		// skeleton only
	}
}

func (b *builder) start(e event.Event) {
	switch e.Tag.Kind {
	case event.Paragraph, event.Heading, event.TableCell:
		b.stack = append(b.stack, frame{
			tag:       e.Tag.Kind,
			kind:      b.kindFor(e.Tag.Kind),
			level:     e.Tag.Level,
			line:      e.Line,
			buffering: true,
			lines:     e.Lines,
		})
	case event.CodeBlock:
		b.stack = append(b.stack, frame{
			tag:      event.CodeBlock,
			line:     e.Line,
			code:     true,
			codeLang: e.Tag.Language,
		})
	case event.HTMLBlock:
		b.stack = append(b.stack, frame{tag: event.HTMLBlock, htmlBlock: true})
	case event.Emphasis:
		b.append("_")
	case event.Strong:
		b.append("**")
	case event.Strikethrough:
		b.append("~~")
	case event.Link:
		if e.Tag.Auto {
			b.append("<")
		} else {
			b.append("[")
		}
	case event.Image:
		b.append("![")
	default:
		b.stack = append(b.stack, frame{tag: e.Tag.Kind})
	}
}

func (b *builder) end(e event.Event) {
	switch e.Tag.Kind {
	case event.Paragraph, event.Heading, event.TableCell:
		f := b.pop()
		b.flush(f)
	case event.CodeBlock:
		f := b.pop()
		b.flushCode(f)
	case event.HTMLBlock:
		f := b.pop()
		if dirs, ok := parseDirectives(strings.Join(f.htmlParts, "\n")); ok {
			b.applyDirectives(dirs)
		}
	case event.Emphasis:
		b.append("_")
	case event.Strong:
		b.append("**")
	case event.Strikethrough:
		b.append("~~")
	case event.Link:
		if e.Tag.Auto {
			b.append(">")
			return
		}
		b.append("]")
		b.recordLink(e.Tag)
	case event.Image:
		b.append("]")
		b.recordLink(e.Tag)
	default:
		b.pop()
	}
}

func (b *builder) pop() frame {
	if len(b.stack) == 0 {
		return frame{}
	}
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return f
}

func (b *builder) recordLink(tag event.Tag) {
	f := b.buffer()
	if f == nil {
		return
	}
	suffix := "(" + tag.Destination
	if tag.Title != "" {
		suffix += ` "` + tag.Title + `"`
	}
	suffix += ")"
	f.links = append(f.links, suffix)
}

// flush turns a closed block's buffer into a unit. Whitespace-only
// buffers are dropped and do not consume a pending skip directive.
func (b *builder) flush(f frame) {
	key := strings.TrimSpace(string(f.buf))
	if key == "" {
		return
	}
	u := Unit{
		Key:    key,
		Source: b.sourceOf(f.lines),
		Kind:   f.kind,
		Level:  f.level,
		Line:   f.line,
		Spans:  f.lines,
		Links:  f.links,
	}
	b.attachPending(&u)
	b.units = append(b.units, u)
}

// flushCode re-tokenizes a closed code block and emits one unit per
// string literal or comment. A pending skip directive suppresses the
// whole block.
func (b *builder) flushCode(f frame) {
	units := scanCode(f.codeLang, f.codeLines)
	if len(units) == 0 {
		return
	}
	skip := b.pendingSkip
	b.pendingSkip = false
	for i := range units {
		units[i].Skip = skip
	}
	units[0].Comments = b.pendingComments
	b.pendingComments = nil
	b.units = append(b.units, units...)
}

func (b *builder) attachPending(u *Unit) {
	if b.pendingSkip {
		u.Skip = true
		b.pendingSkip = false
	}
	u.Comments = b.pendingComments
	b.pendingComments = nil
}

func (b *builder) applyDirectives(dirs []directive) {
	for _, d := range dirs {
		if d.skip {
			b.pendingSkip = true
		} else {
			b.pendingComments = append(b.pendingComments, d.comment)
		}
	}
}

func (b *builder) kindFor(tag event.TagKind) Kind {
	switch tag {
	case event.Heading:
		return Heading
	case event.TableCell:
		return TableCell
	}
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].tag == event.ListItem {
			return ListItem
		}
	}
	return Prose
}

func (b *builder) sourceOf(spans []event.Span) string {
	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		if s.Valid() {
			parts = append(parts, string(b.src[s.Start:s.End]))
		}
	}
	return strings.Join(parts, "\n")
}

// codeSpanMarkup re-wraps an inline code span with backticks.
func codeSpanMarkup(text string) string {
	if strings.Contains(text, "`") {
		return "`` " + text + " ``"
	}
	return "`" + text + "`"
}
