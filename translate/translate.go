// Package translate applies a translated catalog back onto the
// original Markdown source. Substitution is positional: each unit's
// source byte ranges are replaced with the translation text, and
// everything between them (markup, link targets, code syntax, skipped
// regions) is emitted verbatim. A document is never rendered broken
// because of a missing entry: anything without a usable translation
// keeps its original text.
package translate

import (
	"sort"
	"strings"

	"github.com/minios-linux/mdkit/event"
	"github.com/minios-linux/mdkit/pofile"
	"github.com/minios-linux/mdkit/unit"
)

// Apply renders one document using the given catalog.
//
// A nil catalog (locale not resolved) is a no-op, not an error. Units
// flagged skip, and entries that are missing, fuzzy or empty, all fall
// back to the original source text.
func Apply(source []byte, catalog *pofile.File) ([]byte, error) {
	if catalog == nil {
		return source, nil
	}

	units, err := unit.Extract(source)
	if err != nil {
		return nil, err
	}

	// Lookup is by (msgid, msgctxt). Units carry no context, so only
	// context-free entries can match them.
	index := make(map[string]*pofile.Entry, len(catalog.Entries))
	for _, e := range catalog.Entries {
		if e.Obsolete {
			continue
		}
		if _, ok := index[e.Key()]; !ok {
			index[e.Key()] = e
		}
	}

	type replacement struct {
		start, end int
		text       string
	}
	var repls []replacement

	for _, u := range units {
		if u.Skip || len(u.Spans) == 0 {
			continue
		}
		e := index[u.Key]
		if e == nil || e.IsFuzzy() || e.MsgStr == "" {
			continue
		}
		text := e.MsgStr
		if len(u.Links) > 0 {
			restored, ok := restoreLinks(text, u.Links)
			if !ok {
				// The translation changed the bracket structure; keep
				// the original rather than dropping a link target.
				continue
			}
			text = restored
		}
		if strings.Contains(text, "\n") {
			text = strings.ReplaceAll(text, "\n", "\n"+continuationPrefix(source, u.Spans))
		}
		repls = append(repls, replacement{
			start: u.Spans[0].Start,
			end:   u.Spans[len(u.Spans)-1].End,
			text:  text,
		})
	}

	sort.Slice(repls, func(i, j int) bool { return repls[i].start < repls[j].start })

	out := make([]byte, 0, len(source))
	pos := 0
	for _, r := range repls {
		if r.start < pos {
			continue
		}
		out = append(out, source[pos:r.start]...)
		out = append(out, r.text...)
		pos = r.end
	}
	out = append(out, source[pos:]...)
	return out, nil
}

// continuationPrefix derives the per-line skeleton prefix (block quote
// markers, list indentation) from the source bytes between the unit's
// first two line spans. Single-line units have no prefix.
func continuationPrefix(source []byte, spans []event.Span) string {
	if len(spans) < 2 {
		return ""
	}
	between := source[spans[0].End:spans[1].Start]
	if idx := strings.LastIndexByte(string(between), '\n'); idx >= 0 {
		return string(between[idx+1:])
	}
	return ""
}

// restoreLinks re-inserts the skeleton link targets after each bracket
// group of the translated text, in order. The translation must contain
// exactly as many bracket groups as the source unit had; otherwise the
// caller falls back to the original text.
func restoreLinks(text string, links []string) (string, bool) {
	type open struct {
		footnote     bool
		contentStart int
	}
	var b strings.Builder
	var stack []open
	next := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		b.WriteByte(c)
		switch c {
		case '\\':
			if i+1 < len(text) {
				b.WriteByte(text[i+1])
				i++
			}
		case '[':
			fn := i+1 < len(text) && text[i+1] == '^'
			stack = append(stack, open{footnote: fn, contentStart: i + 1})
		case ']':
			if len(stack) == 0 {
				continue
			}
			o := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if o.footnote || isTaskMarker(text[o.contentStart:i]) {
				continue
			}
			if next >= len(links) {
				return "", false
			}
			b.WriteString(links[next])
			next++
		}
	}
	if next != len(links) {
		return "", false
	}
	return b.String(), true
}

// isTaskMarker recognizes task list checkboxes, which use bracket
// syntax but carry no target.
func isTaskMarker(content string) bool {
	return content == " " || content == "x" || content == "X"
}
