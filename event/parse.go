package event

import (
	"sort"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Parse parses one Markdown document and returns its event stream.
// GFM tables, strikethrough and footnotes are recognized.
func Parse(source []byte) ([]Event, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Footnote))
	doc := md.Parser().Parse(text.NewReader(source))

	p := &producer{
		src:       source,
		newlines:  newlineOffsets(source),
		footnotes: make(map[int]string),
		line:      1,
	}

	// Footnote links only carry a numeric index; collect the original
	// labels from the definitions first.
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if fn, ok := n.(*east.Footnote); ok && entering {
			p.footnotes[fn.Index] = string(fn.Ref)
		}
		return ast.WalkContinue, nil
	})

	if err := ast.Walk(doc, p.visit); err != nil {
		return nil, err
	}
	return p.events, nil
}

type producer struct {
	src       []byte
	newlines  []int
	footnotes map[int]string
	events    []Event
	line      int
}

func newlineOffsets(src []byte) []int {
	var offs []int
	for i, b := range src {
		if b == '\n' {
			offs = append(offs, i)
		}
	}
	return offs
}

func (p *producer) lineAt(offset int) int {
	return sort.SearchInts(p.newlines, offset) + 1
}

func (p *producer) emit(e Event) {
	if e.Span.Valid() {
		p.line = p.lineAt(e.Span.Start)
	}
	if e.Line == 0 {
		e.Line = p.line
	}
	p.events = append(p.events, e)
}

func (p *producer) emitTag(kind Kind, tag Tag, lines []Span) {
	e := Event{Kind: kind, Tag: tag, Lines: lines}
	if len(lines) > 0 {
		e.Line = p.lineAt(lines[0].Start)
		p.line = e.Line
	} else {
		e.Line = p.line
	}
	p.events = append(p.events, e)
}

// blockLines converts a block's line segments to spans, trimming the
// trailing line terminator each segment carries.
func (p *producer) blockLines(n ast.Node) []Span {
	segs := n.Lines()
	spans := make([]Span, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		end := seg.Stop
		for end > seg.Start && (p.src[end-1] == '\n' || p.src[end-1] == '\r') {
			end--
		}
		spans = append(spans, Span{Start: seg.Start, End: end})
	}
	return spans
}

func (p *producer) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := n.(type) {
	case *ast.Document, *east.FootnoteList:
		return ast.WalkContinue, nil

	case *ast.Heading:
		p.tagPair(entering, Tag{Kind: Heading, Level: n.Level}, n)

	case *ast.Paragraph:
		p.tagPair(entering, Tag{Kind: Paragraph}, n)

	case *ast.TextBlock:
		p.tagPair(entering, Tag{Kind: Paragraph}, n)

	case *ast.Blockquote:
		p.tagPair(entering, Tag{Kind: BlockQuote}, nil)

	case *ast.List:
		p.tagPair(entering, Tag{Kind: List, Ordered: n.IsOrdered()}, nil)

	case *ast.ListItem:
		p.tagPair(entering, Tag{Kind: ListItem}, nil)

	case *ast.FencedCodeBlock:
		if entering {
			p.emitTag(Start, Tag{Kind: CodeBlock, Language: string(n.Language(p.src))}, p.blockLines(n))
			p.emitContentLines(n, Text)
			return ast.WalkSkipChildren, nil
		}
		p.emit(Event{Kind: End, Tag: Tag{Kind: CodeBlock}})

	case *ast.CodeBlock:
		if entering {
			p.emitTag(Start, Tag{Kind: CodeBlock}, p.blockLines(n))
			p.emitContentLines(n, Text)
			return ast.WalkSkipChildren, nil
		}
		p.emit(Event{Kind: End, Tag: Tag{Kind: CodeBlock}})

	case *ast.HTMLBlock:
		if entering {
			p.emitTag(Start, Tag{Kind: HTMLBlock}, nil)
			p.emitContentLines(n, HTML)
			if n.HasClosure() {
				p.emitSegment(HTML, n.ClosureLine.Start, n.ClosureLine.Stop)
			}
			return ast.WalkSkipChildren, nil
		}
		p.emit(Event{Kind: End, Tag: Tag{Kind: HTMLBlock}})

	case *ast.ThematicBreak:
		if entering {
			p.emit(Event{Kind: Rule})
		}

	case *ast.Text:
		if entering {
			start, end := n.Segment.Start, n.Segment.Stop
			if n.SoftLineBreak() || n.HardLineBreak() {
				for end > start {
					switch p.src[end-1] {
					case ' ', '\t', '\r', '\n':
						end--
						continue
					}
					break
				}
			}
			p.emitSegment(Text, start, end)
			if n.HardLineBreak() {
				p.emit(Event{Kind: HardBreak})
			} else if n.SoftLineBreak() {
				p.emit(Event{Kind: SoftBreak})
			}
		}

	case *ast.String:
		if entering {
			p.emit(Event{Kind: Text, Text: string(n.Value)})
		}

	case *ast.CodeSpan:
		if entering {
			p.emit(Event{Kind: Code, Text: p.inlineText(n), Span: p.childSpan(n)})
			return ast.WalkSkipChildren, nil
		}

	case *ast.Emphasis:
		kind := Emphasis
		if n.Level >= 2 {
			kind = Strong
		}
		p.tagPair(entering, Tag{Kind: kind}, nil)

	case *east.Strikethrough:
		p.tagPair(entering, Tag{Kind: Strikethrough}, nil)

	case *ast.Link:
		p.tagPair(entering, Tag{Kind: Link, Destination: string(n.Destination), Title: string(n.Title)}, nil)

	case *ast.AutoLink:
		if entering {
			url := string(n.URL(p.src))
			if n.AutoLinkType == ast.AutoLinkEmail {
				url = "mailto:" + url
			}
			p.emit(Event{Kind: Start, Tag: Tag{Kind: Link, Destination: url, Auto: true}})
			p.emit(Event{Kind: Text, Text: string(n.Label(p.src))})
			p.emit(Event{Kind: End, Tag: Tag{Kind: Link, Auto: true}})
			return ast.WalkSkipChildren, nil
		}

	case *ast.Image:
		p.tagPair(entering, Tag{Kind: Image, Destination: string(n.Destination), Title: string(n.Title)}, nil)

	case *ast.RawHTML:
		if entering {
			var buf []byte
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				buf = append(buf, seg.Value(p.src)...)
			}
			span := Span{}
			if n.Segments.Len() > 0 {
				span = Span{Start: n.Segments.At(0).Start, End: n.Segments.At(n.Segments.Len()-1).Stop}

			}
			p.emit(Event{Kind: HTML, Text: string(buf), Span: span})
			return ast.WalkSkipChildren, nil
		}

	case *east.Table:
		p.tagPair(entering, Tag{Kind: Table}, nil)

	case *east.TableHeader:
		p.tagPair(entering, Tag{Kind: TableHead}, nil)

	case *east.TableRow:
		p.tagPair(entering, Tag{Kind: TableRow}, nil)

	case *east.TableCell:
		p.tagPair(entering, Tag{Kind: TableCell}, n)

	case *east.FootnoteLink:
		if entering {
			label := p.footnotes[n.Index]
			if label == "" {
				label = strconv.Itoa(n.Index)
			}
			p.emit(Event{Kind: FootnoteRef, Text: label})
		}

	case *east.Footnote:
		p.tagPair(entering, Tag{Kind: FootnoteDef, Label: string(n.Ref)}, nil)

	case *east.FootnoteBacklink:
		return ast.WalkSkipChildren, nil

	case *east.TaskCheckBox:
		if entering {
			if n.IsChecked {
				p.emit(Event{Kind: Text, Text: "[x] "})
			} else {
				p.emit(Event{Kind: Text, Text: "[ ] "})
			}
		}
	}

	return ast.WalkContinue, nil
}

// tagPair emits the Start or End event for a tag. When linesFrom is
// non-nil the Start event carries the block's per-line content spans.
func (p *producer) tagPair(entering bool, tag Tag, linesFrom ast.Node) {
	if entering {
		var lines []Span
		if linesFrom != nil {
			lines = p.blockLines(linesFrom)
		}
		p.emitTag(Start, tag, lines)
		return
	}
	p.emit(Event{Kind: End, Tag: tag})
}

// emitContentLines emits one event per stored line of a leaf block.
func (p *producer) emitContentLines(n ast.Node, kind Kind) {
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		p.emitSegment(kind, seg.Start, seg.Stop)
	}
}

func (p *producer) emitSegment(kind Kind, start, stop int) {
	end := stop
	for end > start && (p.src[end-1] == '\n' || p.src[end-1] == '\r') {
		end--
	}
	p.emit(Event{Kind: kind, Text: string(p.src[start:end]), Span: Span{Start: start, End: end}})
}

// inlineText concatenates the text of an inline node's children.
func (p *producer) inlineText(n ast.Node) string {
	var buf []byte
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			buf = append(buf, c.Segment.Value(p.src)...)
		case *ast.String:
			buf = append(buf, c.Value...)
		}
	}
	return string(buf)
}

// childSpan computes the byte range covered by an inline node's children.
func (p *producer) childSpan(n ast.Node) Span {
	span := Span{}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			continue
		}
		if !span.Valid() {
			span = Span{Start: t.Segment.Start, End: t.Segment.Stop}
			continue
		}
		if t.Segment.Stop > span.End {
			span.End = t.Segment.Stop
		}
	}
	return span
}
