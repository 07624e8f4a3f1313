// Package event defines the typed Markdown event stream consumed by the
// grouping engine. Events are produced by parsing one document with
// goldmark; each event carries its source line and, where the parser
// provides one, the byte range it was read from.
package event

// Kind discriminates event variants.
type Kind int

const (
	// Start opens a block or inline tag.
	Start Kind = iota
	// End closes the most recently opened tag of the same TagKind.
	End
	// Text is flowed text, including code block content lines.
	Text
	// Code is an inline code span (content without backticks).
	Code
	// HTML is raw HTML, inline or one line of an HTML block.
	HTML
	// SoftBreak is a line break inside a paragraph.
	SoftBreak
	// HardBreak is an explicit line break.
	HardBreak
	// Rule is a thematic break.
	Rule
	// FootnoteRef is a footnote reference; Text holds the label.
	FootnoteRef
)

// TagKind identifies the tag of a Start or End event.
type TagKind int

const (
	Paragraph TagKind = iota
	Heading
	BlockQuote
	List
	ListItem
	CodeBlock
	HTMLBlock
	Table
	TableHead
	TableRow
	TableCell
	Emphasis
	Strong
	Strikethrough
	Link
	Image
	FootnoteDef
)

// Span is a half-open byte range [Start, End) in the document source.
type Span struct {
	Start int
	End   int
}

// Valid reports whether the span points into the source.
func (s Span) Valid() bool { return s.End > s.Start }

// Tag carries the attributes of a Start or End event.
type Tag struct {
	Kind TagKind
	// Level is the heading level (1-6).
	Level int
	// Language is the info string of a fenced code block.
	Language string
	// Destination is the resolved target of a link or image.
	Destination string
	// Title is the optional link or image title.
	Title string
	// Label is the footnote definition label.
	Label string
	// Ordered marks ordered lists.
	Ordered bool
	// Auto marks autolinks, whose text is the destination itself.
	Auto bool
}

// Event is one element of the stream.
type Event struct {
	Kind Kind
	Tag  Tag
	// Text is the payload of Text, Code, HTML and FootnoteRef events.
	Text string
	// Line is the 1-based source line the event was read from.
	Line int
	// Span is the byte range of the payload, when known.
	Span Span
	// Lines holds the per-line content ranges of a unit-forming block.
	// Set only on Start events for paragraphs, headings and table cells.
	Lines []Span
}
