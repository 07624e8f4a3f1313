package pofile

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseWriteRoundTripAndHeaderFields(t *testing.T) {
	input := `msgid ""
msgstr ""
"Project-Id-Version: mdkit 1.0\n"
"Language: ru\n"

#. extracted comment
#: guide/intro.md:12
msgid "hello"
msgstr "privet"

#, fuzzy
#| msgid "old count"
msgid "count"
msgid_plural "counts"
msgstr[0] "odin"
msgstr[1] "mnogo"

#~ msgid "gone"
#~ msgstr "ushlo"
`

	f, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if got := f.HeaderField("language"); got != "ru" {
		t.Fatalf("HeaderField(language) = %q, want ru", got)
	}
	f.SetHeaderField("Language", "de")
	f.SetHeaderField("Plural-Forms", PluralFormsForLang("de"))
	if got := f.HeaderField("Language"); got != "de" {
		t.Fatalf("Language header after SetHeaderField = %q, want de", got)
	}

	if len(f.Entries) != 3 {
		t.Fatalf("entries len = %d, want 3", len(f.Entries))
	}
	plural := f.EntryByMsgID("count")
	if plural == nil {
		t.Fatal("count entry not found")
	}
	if plural.PreviousMsgID != "old count" {
		t.Fatalf("PreviousMsgID = %q, want old count", plural.PreviousMsgID)
	}
	if f.EntryByMsgID("gone") != nil {
		t.Fatal("obsolete entry must not resolve as live")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	round, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Parse roundtrip error: %v", err)
	}

	if round.HeaderField("Language") != "de" {
		t.Fatalf("roundtrip Language = %q, want de", round.HeaderField("Language"))
	}
	if got := round.EntryByMsgID("hello"); got == nil || got.MsgStr != "privet" {
		t.Fatalf("roundtrip hello entry mismatch: %#v", got)
	}
	roundPlural := round.EntryByMsgID("count")
	if roundPlural == nil {
		t.Fatal("roundtrip plural entry missing")
	}
	if !reflect.DeepEqual(roundPlural.MsgStrPlural, map[int]string{0: "odin", 1: "mnogo"}) {
		t.Fatalf("roundtrip plural forms = %v", roundPlural.MsgStrPlural)
	}
	if len(round.Entries) != 3 || !round.Entries[2].Obsolete {
		t.Fatal("obsolete entry lost in roundtrip")
	}
}

func TestRoundTripLongAndMultilineStrings(t *testing.T) {
	long := strings.Repeat("a translation unit that needs wrapping ", 5)
	multi := "- foo\n- bar\n"

	f := NewFile()
	f.Entries = []*Entry{
		{MsgID: long, MsgStr: ""},
		{MsgID: multi, MsgStr: "- le foo\n- le bar\n"},
		{MsgID: "tab\tand \"quote\"", MsgStr: `back\slash`},
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	for _, line := range strings.Split(buf.String(), "\n") {
		if len(line) > wrapWidth+4 {
			t.Fatalf("line exceeds wrap width: %q", line)
		}
	}

	round, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(round.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(round.Entries))
	}
	for i := range f.Entries {
		if round.Entries[i].MsgID != f.Entries[i].MsgID {
			t.Fatalf("entry %d msgid mismatch:\n got %q\nwant %q", i, round.Entries[i].MsgID, f.Entries[i].MsgID)
		}
		if round.Entries[i].MsgStr != f.Entries[i].MsgStr {
			t.Fatalf("entry %d msgstr mismatch:\n got %q\nwant %q", i, round.Entries[i].MsgStr, f.Entries[i].MsgStr)
		}
	}
}

func TestParseMergesIdenticalDuplicates(t *testing.T) {
	input := `msgid ""
msgstr ""

#: a.md:1
msgid "twice"
msgstr ""

#: b.md:9
msgid "twice"
msgstr ""
`
	f, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Entries) != 1 {
		t.Fatalf("entries = %d, want identical duplicates merged", len(f.Entries))
	}
	want := []string{"a.md:1", "b.md:9"}
	if diff := cmp.Diff(want, f.Entries[0].References); diff != "" {
		t.Fatalf("references mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsConflictingDuplicates(t *testing.T) {
	input := `msgid ""
msgstr ""

msgid "twice"
msgstr "first"

msgid "twice"
msgstr "second"
`
	_, err := Parse(strings.NewReader(input))
	if err == nil {
		t.Fatal("conflicting duplicate keys must be an error")
	}
	if !strings.Contains(err.Error(), "twice") || !strings.Contains(err.Error(), "line") {
		t.Fatalf("error should name the key and line: %v", err)
	}
}

func TestParseRejectsUnterminatedString(t *testing.T) {
	input := "msgid \"open\nmsgstr \"\"\n"
	_, err := Parse(strings.NewReader(input))
	if err == nil {
		t.Fatal("unterminated string must be an error")
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("error should carry the line number: %v", err)
	}
}

func TestParseRejectsStrayInput(t *testing.T) {
	input := "msgid \"a\"\nmsgstr \"b\"\nwhat is this\n"
	_, err := Parse(strings.NewReader(input))
	if err == nil {
		t.Fatal("stray input must be an error")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("error should carry the line number: %v", err)
	}
}

func TestEntryKeyAndClone(t *testing.T) {
	a := &Entry{MsgID: "text", MsgCtxt: "menu"}
	b := &Entry{MsgID: "text"}
	if a.Key() == b.Key() {
		t.Fatal("context must be part of the key")
	}

	c := a.Clone()
	c.References = append(c.References, "x.md:1")
	c.MsgStr = "changed"
	if len(a.References) != 0 || a.MsgStr != "" {
		t.Fatal("Clone must not share state with the original")
	}
}

func TestStatsFuzzyAndUntranslated(t *testing.T) {
	f := NewFile()
	f.Entries = []*Entry{
		{MsgID: "t1", MsgStr: "translated"},
		{MsgID: "f1", MsgStr: "draft", Flags: []string{"fuzzy"}},
		{MsgID: "u1", MsgStr: ""},
		{MsgID: "p1", MsgIDPlural: "p1s", MsgStrPlural: map[int]string{0: "one", 1: "many"}},
		{MsgID: "p2", MsgIDPlural: "p2s", MsgStrPlural: map[int]string{0: "only one", 1: ""}},
		{MsgID: "old", MsgStr: "x", Obsolete: true},
	}

	total, translated, fuzzy, untranslated := f.Stats()
	if total != 5 || translated != 2 || fuzzy != 1 || untranslated != 2 {
		t.Fatalf("Stats = total=%d translated=%d fuzzy=%d untranslated=%d", total, translated, fuzzy, untranslated)
	}

	if len(f.FuzzyEntries()) != 1 {
		t.Fatalf("FuzzyEntries len = %d, want 1", len(f.FuzzyEntries()))
	}
	if len(f.UntranslatedEntries()) != 2 {
		t.Fatalf("UntranslatedEntries len = %d, want 2", len(f.UntranslatedEntries()))
	}
}

func TestPluralFormsAndLangNameHelpers(t *testing.T) {
	pluralCases := []struct {
		lang string
		want string
	}{
		{lang: "ru", want: "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);"},
		{lang: "pt-BR", want: "nplurals=2; plural=(n > 1);"},
		{lang: "ja", want: "nplurals=1; plural=0;"},
		{lang: "zz", want: "nplurals=2; plural=(n != 1);"},
	}
	for _, tc := range pluralCases {
		if got := PluralFormsForLang(tc.lang); got != tc.want {
			t.Fatalf("PluralFormsForLang(%q) = %q, want %q", tc.lang, got, tc.want)
		}
	}

	if got := LangNameNative("pt_br"); got != "Português (Brasil)" {
		t.Fatalf("LangNameNative(pt_br) = %q", got)
	}
	if got := LangNameNative("zz-ZZ"); got != "zz-ZZ" {
		t.Fatalf("LangNameNative(zz-ZZ) = %q, want passthrough", got)
	}
}
