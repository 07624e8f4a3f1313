package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// wrapWidth is the column at which quoted strings are wrapped, matching
// the convention of the gettext tools so externally edited catalogs
// diff minimally. Not configurable.
const wrapWidth = 76

// Write serializes the catalog. The header entry always comes first;
// the rest follows insertion order.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if f.Header != nil {
		if err := writeEntry(bw, f.Header); err != nil {
			return err
		}
	}

	for _, e := range f.Entries {
		fmt.Fprintln(bw)
		if err := writeEntry(bw, e); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteFile writes the catalog to disk.
func (f *File) WriteFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return f.Write(out)
}

func writeEntry(w *bufio.Writer, e *Entry) error {
	prefix := ""
	if e.Obsolete {
		prefix = "#~ "
	}

	for _, c := range e.TranslatorComments {
		fmt.Fprintf(w, "# %s\n", c)
	}

	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}

	for _, ref := range e.References {
		fmt.Fprintf(w, "#: %s\n", ref)
	}

	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}

	if e.PreviousMsgID != "" {
		fmt.Fprintf(w, "#| msgid %s\n", quote(e.PreviousMsgID))
	}

	if e.MsgCtxt != "" {
		writeQuotedField(w, prefix, "msgctxt", e.MsgCtxt)
	}

	writeQuotedField(w, prefix, "msgid", e.MsgID)

	if e.MsgIDPlural != "" {
		writeQuotedField(w, prefix, "msgid_plural", e.MsgIDPlural)
	}

	if e.MsgIDPlural != "" && len(e.MsgStrPlural) > 0 {
		indices := make([]int, 0, len(e.MsgStrPlural))
		for idx := range e.MsgStrPlural {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			writeQuotedField(w, prefix, fmt.Sprintf("msgstr[%d]", idx), e.MsgStrPlural[idx])
		}
	} else {
		writeQuotedField(w, prefix, "msgstr", e.MsgStr)
	}

	return nil
}

// writeQuotedField writes one PO field, wrapping long or multi-line
// values across continuation lines.
func writeQuotedField(w *bufio.Writer, prefix, field, value string) {
	esc := escape(value)
	if !strings.Contains(value, "\n") && len(prefix)+len(field)+len(esc)+3 <= wrapWidth+2 {
		fmt.Fprintf(w, "%s%s \"%s\"\n", prefix, field, esc)
		return
	}

	fmt.Fprintf(w, "%s%s \"\"\n", prefix, field)
	for _, chunk := range wrapValue(value) {
		fmt.Fprintf(w, "%s\"%s\"\n", prefix, chunk)
	}
}

// wrapValue splits a value into escaped chunks: first at embedded
// newlines (kept as trailing \n escapes), then word-wrapped at
// wrapWidth columns. Concatenating the unescaped chunks restores the
// value exactly.
func wrapValue(value string) []string {
	var chunks []string
	segments := strings.SplitAfter(value, "\n")
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		esc := escape(seg)
		for len(esc) > wrapWidth {
			cut := strings.LastIndex(esc[:wrapWidth+1], " ")
			if cut < 0 {
				cut = strings.Index(esc, " ")
				if cut < 0 {
					break
				}
			}
			chunks = append(chunks, esc[:cut+1])
			esc = esc[cut+1:]
		}
		if esc != "" {
			chunks = append(chunks, esc)
		}
	}
	if len(chunks) == 0 {
		chunks = []string{""}
	}
	return chunks
}

// quote produces a single-line PO quoted string.
func quote(s string) string {
	return `"` + escape(s) + `"`
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}
