// Package extract builds POT templates from Markdown documents: it
// runs the grouping engine over each document and collects the
// resulting units into one catalog, or into per-section catalogs when
// outline partitioning is enabled.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/mdkit/pofile"
	"github.com/minios-linux/mdkit/unit"
)

// Document is one source document to extract from. Path is the
// identifier written into source references, normally relative to the
// project root.
type Document struct {
	Path   string
	Source []byte
}

// skipDirs contains directory names ignored while scanning for documents.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// FindDocuments recursively collects .md files under dir. Paths in the
// result are relative to dir and sorted.
func FindDocuments(dir string) ([]Document, error) {
	var docs []Document
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if info.IsDir() {
			if skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".md") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		docs = append(docs, Document{Path: filepath.ToSlash(rel), Source: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Template extracts all documents into one POT catalog. Units with the
// same text collapse into one entry with merged references. Skipped
// units never reach the catalog. The caller provides the header.
func Template(docs []Document, granularity int) (*pofile.File, error) {
	f := pofile.NewFile()
	for _, doc := range docs {
		units, err := unit.Extract(doc.Source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Path, err)
		}
		for _, u := range units {
			if u.Skip {
				continue
			}
			addUnit(f, u, doc.Path, granularity)
		}
	}
	return f, nil
}

func addUnit(f *pofile.File, u unit.Unit, path string, granularity int) {
	e := f.EntryByMsgID(u.Key)
	if e == nil {
		e = &pofile.Entry{
			MsgID:        u.Key,
			MsgStrPlural: make(map[int]string),
		}
		f.Entries = append(f.Entries, e)
	}
	e.AddReference(Reference(path, u.Line, granularity))
	for _, c := range u.Comments {
		found := false
		for _, have := range e.ExtractedComments {
			if have == c {
				found = true
				break
			}
		}
		if !found {
			e.ExtractedComments = append(e.ExtractedComments, c)
		}
	}
}

// Reference formats a source reference with line number rounding.
// Granularity 0 omits line numbers entirely, 1 keeps them exact, and
// larger values round down to a multiple (with a floor of 1) so that
// small edits do not churn every reference below them.
func Reference(path string, line, granularity int) string {
	if granularity <= 0 || line <= 0 {
		return path
	}
	if granularity > 1 {
		line = line - line%granularity
		if line < 1 {
			line = 1
		}
	}
	return fmt.Sprintf("%s:%d", path, line)
}

// Section is one partition of the template.
type Section struct {
	// Name is the slug of the heading that opened the section, or
	// "index" for units before any heading at the partition depth.
	Name string
	File *pofile.File
}

// Partition extracts documents into per-section catalogs. Every unit is
// assigned to the nearest enclosing heading at the configured depth;
// units before the first such heading go to the default bucket.
// Sections come back in first-appearance order.
func Partition(docs []Document, depth, granularity int) ([]Section, error) {
	if depth <= 0 {
		f, err := Template(docs, granularity)
		if err != nil {
			return nil, err
		}
		return []Section{{Name: "index", File: f}}, nil
	}

	var sections []Section
	byName := make(map[string]*pofile.File)

	bucket := func(name string) *pofile.File {
		if f, ok := byName[name]; ok {
			return f
		}
		f := pofile.NewFile()
		byName[name] = f
		sections = append(sections, Section{Name: name, File: f})
		return f
	}

	for _, doc := range docs {
		units, err := unit.Extract(doc.Source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Path, err)
		}
		current := "index"
		for _, u := range units {
			if u.Kind == unit.Heading && u.Level <= depth {
				current = slugify(u.Key)
			}
			if u.Skip {
				continue
			}
			addUnit(bucket(current), u, doc.Path, granularity)
		}
	}
	if len(sections) == 0 {
		sections = append(sections, Section{Name: "index", File: pofile.NewFile()})
	}
	return sections, nil
}

// slugify reduces a heading to a file-name friendly identifier.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "section"
	}
	return out
}
