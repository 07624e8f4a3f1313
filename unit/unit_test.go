package unit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func extractKeys(t *testing.T, doc string) []string {
	t.Helper()
	units, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	var keys []string
	for _, u := range units {
		if !u.Skip {
			keys = append(keys, u.Key)
		}
	}
	return keys
}

func TestBuildParagraphWithInlineMarkup(t *testing.T) {
	units, err := Extract([]byte("Hello **world**!\n"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("units = %d, want 1", len(units))
	}
	u := units[0]
	if u.Key != "Hello **world**!" {
		t.Fatalf("key = %q", u.Key)
	}
	if u.Kind != Prose || u.Line != 1 {
		t.Fatalf("kind = %v line = %d", u.Kind, u.Line)
	}
	if u.Source != "Hello **world**!" {
		t.Fatalf("source = %q", u.Source)
	}
}

func TestBuildSoftBreakNormalizedInKey(t *testing.T) {
	units, err := Extract([]byte("first line\nsecond line\n"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("units = %d, want 1", len(units))
	}
	if units[0].Key != "first line second line" {
		t.Fatalf("key = %q, want soft break normalized", units[0].Key)
	}
	if units[0].Source != "first line\nsecond line" {
		t.Fatalf("source = %q, want verbatim lines", units[0].Source)
	}
	if len(units[0].Spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(units[0].Spans))
	}
}

func TestBuildHeadingAndListKinds(t *testing.T) {
	doc := "## Install\n\n- unpack it\n- run it\n"
	units, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("units = %d, want 3", len(units))
	}
	if units[0].Kind != Heading || units[0].Level != 2 || units[0].Key != "Install" {
		t.Fatalf("heading unit = %+v", units[0])
	}
	if units[1].Kind != ListItem || units[2].Kind != ListItem {
		t.Fatalf("list kinds = %v, %v", units[1].Kind, units[2].Kind)
	}
}

func TestBuildNestedParagraphIsSeparateUnit(t *testing.T) {
	doc := "- item text\n\n  nested paragraph\n"
	got := extractKeys(t, doc)
	want := []string{"item text", "nested paragraph"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWhitespaceOnlyItemProducesNoUnit(t *testing.T) {
	doc := "- first\n-\n- third\n"
	got := extractKeys(t, doc)
	want := []string{"first", "third"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildLinkTargetStaysInSkeleton(t *testing.T) {
	doc := "See [the docs](https://example.com) now.\n"
	units, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("units = %d, want 1", len(units))
	}
	if units[0].Key != "See [the docs] now." {
		t.Fatalf("key = %q, want target excluded", units[0].Key)
	}
	if len(units[0].Links) != 1 || units[0].Links[0] != "(https://example.com)" {
		t.Fatalf("links = %v", units[0].Links)
	}
}

func TestBuildTableCells(t *testing.T) {
	doc := "| Name | Role |\n|------|------|\n| Ada  | Lead |\n"
	units, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	var keys []string
	for _, u := range units {
		if u.Kind != TableCell {
			t.Fatalf("unit %q kind = %v, want TableCell", u.Key, u.Kind)
		}
		keys = append(keys, u.Key)
	}
	want := []string{"Name", "Role", "Ada", "Lead"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestSkipDirectiveSuppressesNextUnitOnly(t *testing.T) {
	doc := "<!-- mdkit:skip -->\n\n- first\n- second\n- third\n"
	units, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("units = %d, want 3", len(units))
	}
	if !units[0].Skip {
		t.Fatal("first item should be skipped")
	}
	if units[1].Skip || units[2].Skip {
		t.Fatal("only the first item should be skipped")
	}
}

func TestSkipDirectiveLegacyPrefix(t *testing.T) {
	doc := "<!-- mdbook-xgettext:skip -->\n\nHidden paragraph.\n\nVisible paragraph.\n"
	got := extractKeys(t, doc)
	want := []string{"Visible paragraph."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestCommentDirectivesCoalesce(t *testing.T) {
	doc := "<!-- mdkit:comment Keep it short -->\n<!-- mdkit:comment Used on the landing page -->\n\nWelcome!\n"
	units, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("units = %d, want 1", len(units))
	}
	want := []string{"Keep it short", "Used on the landing page"}
	if diff := cmp.Diff(want, units[0].Comments); diff != "" {
		t.Fatalf("comments mismatch (-want +got):\n%s", diff)
	}
}

func TestMalformedDirectiveIsPlainHTML(t *testing.T) {
	doc := "Before <!-- mdkit:frobnicate --> after.\n"
	units, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("units = %d, want 1", len(units))
	}
	if units[0].Key != "Before <!-- mdkit:frobnicate --> after." {
		t.Fatalf("key = %q, want comment kept as text", units[0].Key)
	}
}

func TestCodeBlockLiteralAndCommentExtraction(t *testing.T) {
	doc := "```go\n// TODO: fix\nx := \"literal\"\n```\n"
	units, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	var keys []string
	for _, u := range units {
		if u.Kind != CodeText {
			t.Fatalf("unit %q kind = %v, want CodeText", u.Key, u.Kind)
		}
		keys = append(keys, u.Key)
	}
	want := []string{"TODO: fix", "literal"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("code units mismatch (-want +got):\n%s", diff)
	}

	// Delimiters stay in the skeleton: the spans must cover only the
	// content between them.
	for i, u := range units {
		if len(u.Spans) != 1 {
			t.Fatalf("unit %d spans = %v", i, u.Spans)
		}
		if got := doc[u.Spans[0].Start:u.Spans[0].End]; got != u.Key {
			t.Fatalf("span text = %q, want %q", got, u.Key)
		}
	}
}

func TestCodeBlockUnknownLanguageIsOpaque(t *testing.T) {
	doc := "```brainfuck\n\"not extracted\"\n```\n"
	got := extractKeys(t, doc)
	if len(got) != 0 {
		t.Fatalf("keys = %v, want none for unknown language", got)
	}
}

func TestCodeBlockNoLanguageIsOpaque(t *testing.T) {
	doc := "```\n// not a comment unit\n```\n"
	got := extractKeys(t, doc)
	if len(got) != 0 {
		t.Fatalf("keys = %v, want none without a language tag", got)
	}
}

func TestCodeBlockWithoutExtractableTextYieldsNothing(t *testing.T) {
	doc := "```go\nx := 1 + 2\n```\n"
	got := extractKeys(t, doc)
	if len(got) != 0 {
		t.Fatalf("keys = %v, want none", got)
	}
}

func TestBlockquoteContent(t *testing.T) {
	doc := "> quoted wisdom\n> continues here\n"
	got := extractKeys(t, doc)
	want := []string{"quoted wisdom continues here"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestInlineCodeSpanMarkers(t *testing.T) {
	doc := "Run `make all` twice.\n"
	got := extractKeys(t, doc)
	want := []string{"Run `make all` twice."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDirectives(t *testing.T) {
	dirs, ok := parseDirectives("<!-- mdkit:skip -->")
	if !ok || len(dirs) != 1 || !dirs[0].skip {
		t.Fatalf("skip directive not recognized: %v %v", dirs, ok)
	}

	dirs, ok = parseDirectives("<!-- i18n:comment: A note -->")
	if !ok || len(dirs) != 1 || dirs[0].comment != "A note" {
		t.Fatalf("comment directive = %v %v", dirs, ok)
	}

	if _, ok := parseDirectives("<!-- just a comment -->"); ok {
		t.Fatal("plain comment must not parse as directive")
	}
	if _, ok := parseDirectives("<!-- mdkit:skip"); ok {
		t.Fatal("unterminated marker must not parse as directive")
	}
}
