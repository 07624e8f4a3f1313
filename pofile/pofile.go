// Package pofile implements the message catalog model and its PO/POT
// codec following the GNU gettext format specification.
package pofile

import (
	"fmt"
	"strings"
	"time"
)

// Entry represents a single translatable message in a PO file.
type Entry struct {
	// TranslatorComments are lines starting with "# " (translator comments).
	TranslatorComments []string
	// ExtractedComments are lines starting with "#." (extracted/automatic comments).
	ExtractedComments []string
	// References are source locations, lines starting with "#:".
	References []string
	// Flags are format flags, lines starting with "#,".
	Flags []string
	// PreviousMsgID stores the previous msgid for fuzzy entries, lines starting with "#|".
	PreviousMsgID string

	// MsgCtxt is the message context (msgctxt).
	MsgCtxt string
	// MsgID is the untranslated string.
	MsgID string
	// MsgIDPlural is the untranslated plural string.
	MsgIDPlural string
	// MsgStr is the translated string (singular or the only form).
	MsgStr string
	// MsgStrPlural maps plural form index to translated string.
	MsgStrPlural map[int]string

	// Obsolete marks entries prefixed with "#~".
	Obsolete bool
}

// Key returns the catalog lookup key combining msgctxt and msgid.
func (e *Entry) Key() string {
	if e.MsgCtxt != "" {
		return e.MsgCtxt + "\x04" + e.MsgID
	}
	return e.MsgID
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.TranslatorComments = append([]string(nil), e.TranslatorComments...)
	c.ExtractedComments = append([]string(nil), e.ExtractedComments...)
	c.References = append([]string(nil), e.References...)
	c.Flags = append([]string(nil), e.Flags...)
	if e.MsgStrPlural != nil {
		c.MsgStrPlural = make(map[int]string, len(e.MsgStrPlural))
		for k, v := range e.MsgStrPlural {
			c.MsgStrPlural[k] = v
		}
	}
	return &c
}

// IsTranslated returns true if the entry has a non-empty translation.
func (e *Entry) IsTranslated() bool {
	if e.MsgID == "" {
		return false // header entry
	}
	if e.IsFuzzy() {
		return false
	}
	if e.MsgIDPlural != "" {
		for _, v := range e.MsgStrPlural {
			if v == "" {
				return false
			}
		}
		return len(e.MsgStrPlural) > 0
	}
	return e.MsgStr != ""
}

// IsFuzzy returns true if the entry is marked fuzzy.
func (e *Entry) IsFuzzy() bool {
	for _, f := range e.Flags {
		if f == "fuzzy" {
			return true
		}
	}
	return false
}

// SetFuzzy adds or removes the fuzzy flag.
func (e *Entry) SetFuzzy(fuzzy bool) {
	if fuzzy && !e.IsFuzzy() {
		e.Flags = append(e.Flags, "fuzzy")
	} else if !fuzzy {
		filtered := make([]string, 0, len(e.Flags))
		for _, f := range e.Flags {
			if f != "fuzzy" {
				filtered = append(filtered, f)
			}
		}
		e.Flags = filtered
	}
}

// HasFlag checks if a specific flag is present.
func (e *Entry) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddReference appends a source reference, skipping duplicates.
func (e *Entry) AddReference(ref string) {
	for _, r := range e.References {
		if r == ref {
			return
		}
	}
	e.References = append(e.References, ref)
}

// File represents a parsed PO/POT catalog.
type File struct {
	// Header is the metadata entry (msgid "").
	Header *Entry
	// Entries are the translatable message entries, in insertion order.
	Entries []*Entry
}

// NewFile creates a new empty PO file.
func NewFile() *File {
	return &File{
		Header: &Entry{
			MsgID:  "",
			MsgStr: "",
		},
		Entries: make([]*Entry, 0),
	}
}

// HeaderField returns a header field value by name.
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		if idx := strings.Index(line, ":"); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			if strings.EqualFold(key, name) {
				return strings.TrimSpace(line[idx+1:])
			}
		}
	}
	return ""
}

// SetHeaderField sets a header field value.
func (f *File) SetHeaderField(name, value string) {
	if f.Header == nil {
		f.Header = &Entry{MsgID: "", MsgStr: ""}
	}

	lines := strings.Split(f.Header.MsgStr, "\n")
	found := false
	for i, line := range lines {
		if idx := strings.Index(line, ":"); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			if strings.EqualFold(key, name) {
				lines[i] = name + ": " + value
				found = true
				break
			}
		}
	}
	if !found {
		// Insert before trailing empty line
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = append(lines[:len(lines)-1], name+": "+value, "")
		} else {
			lines = append(lines, name+": "+value)
		}
	}
	f.Header.MsgStr = strings.Join(lines, "\n")
}

// EntryByMsgID finds a live entry by its msgid.
func (f *File) EntryByMsgID(msgid string) *Entry {
	return f.EntryByKey(msgid, "")
}

// EntryByKey finds a live entry by msgid and msgctxt.
func (f *File) EntryByKey(msgid, msgctxt string) *Entry {
	for _, e := range f.Entries {
		if e.MsgID == msgid && e.MsgCtxt == msgctxt && !e.Obsolete {
			return e
		}
	}
	return nil
}

// Stats returns translation statistics over live entries.
func (f *File) Stats() (total, translated, fuzzy, untranslated int) {
	for _, e := range f.Entries {
		if e.MsgID == "" || e.Obsolete {
			continue
		}
		total++
		if e.IsFuzzy() {
			fuzzy++
		} else if e.IsTranslated() {
			translated++
		} else {
			untranslated++
		}
	}
	return
}

// UntranslatedEntries returns entries that have no translation and are not fuzzy.
func (f *File) UntranslatedEntries() []*Entry {
	var result []*Entry
	for _, e := range f.Entries {
		if e.MsgID == "" || e.Obsolete {
			continue
		}
		if !e.IsTranslated() && !e.IsFuzzy() {
			result = append(result, e)
		}
	}
	return result
}

// FuzzyEntries returns entries marked as fuzzy.
func (f *File) FuzzyEntries() []*Entry {
	var result []*Entry
	for _, e := range f.Entries {
		if e.MsgID == "" || e.Obsolete {
			continue
		}
		if e.IsFuzzy() {
			result = append(result, e)
		}
	}
	return result
}

// MakeHeader creates a standard PO/POT file header.
func MakeHeader(packageName, packageVersion, bugsEmail, copyrightHolder, language string) *Entry {
	now := time.Now().UTC().Format("2006-01-02 15:04+0000")

	headerStr := fmt.Sprintf(
		"Project-Id-Version: %s %s\n"+
			"Report-Msgid-Bugs-To: %s\n"+
			"POT-Creation-Date: %s\n"+
			"PO-Revision-Date: %s\n"+
			"Last-Translator: \n"+
			"Language-Team: \n"+
			"Language: %s\n"+
			"MIME-Version: 1.0\n"+
			"Content-Type: text/plain; charset=UTF-8\n"+
			"Content-Transfer-Encoding: 8bit\n",
		packageName, packageVersion, bugsEmail, now, now, language,
	)

	comments := []string{
		fmt.Sprintf("Translations for %s.", packageName),
		fmt.Sprintf("Copyright (C) %d %s", time.Now().Year(), copyrightHolder),
		fmt.Sprintf("This file is distributed under the same license as the %s package.", packageName),
	}

	return &Entry{
		TranslatorComments: comments,
		MsgID:              "",
		MsgStr:             headerStr,
	}
}
