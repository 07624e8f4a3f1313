package translate

import (
	"strings"
	"testing"

	"github.com/minios-linux/mdkit/pofile"
)

func apply(t *testing.T, doc string, pairs map[string]string) string {
	t.Helper()
	cat := pofile.NewFile()
	for id, str := range pairs {
		cat.Entries = append(cat.Entries, &pofile.Entry{MsgID: id, MsgStr: str})
	}
	out, err := Apply([]byte(doc), cat)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return string(out)
}

func TestApplyParagraphWithMarkup(t *testing.T) {
	got := apply(t, "Hello **world**!\n", map[string]string{
		"Hello **world**!": "Bonjour **monde**!",
	})
	if got != "Bonjour **monde**!\n" {
		t.Fatalf("got %q", got)
	}
}

func TestApplyNilCatalogIsNoOp(t *testing.T) {
	doc := "Some text.\n"
	out, err := Apply([]byte(doc), nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(out) != doc {
		t.Fatalf("got %q, want untouched document", out)
	}
}

func TestApplyMissingFuzzyAndEmptyFallBack(t *testing.T) {
	doc := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph.\n"
	cat := pofile.NewFile()
	cat.Entries = []*pofile.Entry{
		{MsgID: "First paragraph.", MsgStr: "Premier paragraphe.", Flags: []string{"fuzzy"}},
		{MsgID: "Second paragraph.", MsgStr: ""},
		// Third has no entry at all.
	}
	out, err := Apply([]byte(doc), cat)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(out) != doc {
		t.Fatalf("got %q, want full fallback to source", out)
	}
}

func TestApplySkippedUnitKeepsOriginal(t *testing.T) {
	doc := "<!-- mdkit:skip -->\n\nKeep me.\n\nChange me.\n"
	got := apply(t, doc, map[string]string{
		"Keep me.":   "NE PAS",
		"Change me.": "Changez-moi.",
	})
	want := "<!-- mdkit:skip -->\n\nKeep me.\n\nChangez-moi.\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplyContextedEntriesDoNotShadow(t *testing.T) {
	doc := "Open the file.\n"
	cat := pofile.NewFile()
	cat.Entries = []*pofile.Entry{
		{MsgID: "Open the file.", MsgCtxt: "menu", MsgStr: "Ouvrir"},
		{MsgID: "Open the file.", MsgStr: "Ouvrez le fichier."},
	}
	out, err := Apply([]byte(doc), cat)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(out) != "Ouvrez le fichier.\n" {
		t.Fatalf("got %q, want the context-free entry applied", out)
	}
}

func TestApplyHeadingAndStructureSurvive(t *testing.T) {
	doc := "# Title\n\n- item one\n- item two\n"
	got := apply(t, doc, map[string]string{
		"Title":    "Titre",
		"item one": "premier",
		"item two": "second",
	})
	want := "# Titre\n\n- premier\n- second\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplyRestoresLinkTargets(t *testing.T) {
	doc := "See [the docs](https://example.com) now.\n"
	got := apply(t, doc, map[string]string{
		"See [the docs] now.": "Voir [les docs] maintenant.",
	})
	want := "Voir [les docs](https://example.com) maintenant.\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplyLinkStructureMismatchFallsBack(t *testing.T) {
	doc := "See [the docs](https://example.com) now.\n"
	got := apply(t, doc, map[string]string{
		"See [the docs] now.": "Voir les docs maintenant.",
	})
	if got != doc {
		t.Fatalf("got %q, want original kept when brackets are lost", got)
	}
}

func TestApplyBlockquotePrefixPreserved(t *testing.T) {
	doc := "> quoted wisdom\n> continues here\n"
	got := apply(t, doc, map[string]string{
		"quoted wisdom continues here": "sagesse citée\ncontinue ici",
	})
	want := "> sagesse citée\n> continue ici\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplyCodeBlockLiteralsOnly(t *testing.T) {
	doc := "```go\n// TODO: fix\nx := \"literal\"\n```\n"
	got := apply(t, doc, map[string]string{
		"TODO: fix": "À FAIRE: corriger",
		"literal":   "littéral",
	})
	want := "```go\n// À FAIRE: corriger\nx := \"littéral\"\n```\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplyTableCells(t *testing.T) {
	doc := "| Name | Role |\n|------|------|\n| Ada | Lead |\n"
	got := apply(t, doc, map[string]string{
		"Name": "Nom",
		"Role": "Rôle",
		"Lead": "Chef",
	})
	if got == doc {
		t.Fatal("table cells were not translated")
	}
	for _, want := range []string{"Nom", "Rôle", "Ada", "Chef"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output %q missing %q", got, want)
		}
	}
}

func TestApplyIdentityKeepsSkeleton(t *testing.T) {
	doc := "# Title\n\nSee [docs](https://example.com) here.\n\n```go\nx := \"lit\"\n```\n"
	got := apply(t, doc, map[string]string{
		"Title":            "Title",
		"See [docs] here.": "See [docs] here.",
		"lit":              "lit",
		"unused extra key": "ignored",
	})
	if got != doc {
		t.Fatalf("identity translation changed the document:\n got %q\nwant %q", got, doc)
	}
}
