// mdkit — Markdown localization kit: gettext catalogs for Markdown books.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/mdkit/config"
	"github.com/minios-linux/mdkit/extract"
	"github.com/minios-linux/mdkit/i18n"
	"github.com/minios-linux/mdkit/lockfile"
	"github.com/minios-linux/mdkit/merge"
	"github.com/minios-linux/mdkit/pofile"
	"github.com/minios-linux/mdkit/translate"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mdkit",
		Short: "Markdown localization kit: gettext catalogs for Markdown books",
		Long: `mdkit — Markdown localization kit.

Extracts translatable text from Markdown documents into gettext POT
templates, keeps per-language PO catalogs up to date across source
edits, and renders translated copies of the document tree. Markup,
link targets and code structure never reach the translators and never
depend on them.

Commands:
  extract     Build the POT template from the source documents
  merge       Create or update per-language PO catalogs from the template
  translate   Render translated document trees from the catalogs
  status      Show project info and translation statistics

Configuration is read from .mdkit.yaml in the project root; a project
without one uses the defaults (src/, po/, translated/).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newStatusCmd(),
		newExtractCmd(),
		newMergeCmd(),
		newTranslateCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mdkit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// extract (documents -> POT template)
// ---------------------------------------------------------------------------

func newExtractCmd() *cobra.Command {
	var (
		granularity int
		depth       int
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Build the POT template from the source documents",
		Long: `Extract translatable text from all Markdown documents under the
source directory into the POT template.

With depth > 0, one template is written per top-level section instead
(po/<section>.pot). Flags override the .mdkit.yaml values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(granularity, depth)
		},
	}

	cmd.Flags().IntVar(&granularity, "granularity", -1, "Reference line rounding (0 = no line numbers, 1 = exact)")
	cmd.Flags().IntVar(&depth, "depth", -1, "Per-section templates at this heading depth (0 = single template)")

	return cmd
}

func runExtract(granularity, depth int) error {
	c, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	if granularity >= 0 {
		c.Granularity = &granularity
	}
	if depth >= 0 {
		c.Depth = depth
	}

	logInfo("%s", i18n.T("Extracting messages"))

	docs, err := loadDocuments(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.AbsPODir(), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.AbsPODir(), err)
	}

	total := 0
	if c.Depth > 0 {
		sections, err := extract.Partition(docs, c.Depth, c.LineGranularity())
		if err != nil {
			return err
		}
		for _, s := range sections {
			s.File.Header = templateHeader(c)
			path := filepath.Join(c.AbsPODir(), s.Name+".pot")
			if err := s.File.WriteFile(path); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			logSuccess("Wrote %s (%d messages)", path, len(s.File.Entries))
			total += len(s.File.Entries)
		}
	} else {
		tmpl, err := extract.Template(docs, c.LineGranularity())
		if err != nil {
			return err
		}
		tmpl.Header = templateHeader(c)
		if err := tmpl.WriteFile(c.AbsPOTFile()); err != nil {
			return fmt.Errorf("writing %s: %w", c.AbsPOTFile(), err)
		}
		logSuccess("Extracted %d messages to %s", len(tmpl.Entries), c.AbsPOTFile())
		total = len(tmpl.Entries)
	}

	if total == 0 {
		logWarning("No translatable text found under %s", c.AbsSourceDir())
	}

	return updateLock(c, docs)
}

func templateHeader(c *config.Config) *pofile.Entry {
	return pofile.MakeHeader(c.Package, c.Version, c.BugsEmail, c.Package, "")
}

// loadDocuments scans the source directory for Markdown documents.
func loadDocuments(c *config.Config) ([]extract.Document, error) {
	docs, err := extract.FindDocuments(c.AbsSourceDir())
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no Markdown documents found in %s", c.AbsSourceDir())
	}
	logInfo(i18n.N("Found %d document", "Found %d documents", len(docs)), len(docs))
	return docs, nil
}

// updateLock refreshes the per-document checksums after a successful run.
func updateLock(c *config.Config, docs []extract.Document) error {
	lock, err := lockfile.Load(c.Root())
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		lock.Update(doc.Path, doc.Source)
		paths = append(paths, doc.Path)
	}
	lock.Clean(paths)
	return lock.Save()
}

// ---------------------------------------------------------------------------
// merge (POT template -> per-language PO catalogs)
// ---------------------------------------------------------------------------

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [languages...]",
		Short: "Create or update per-language PO catalogs from the template",
		Long: `Create missing PO catalogs and merge existing ones against the POT
template. Exact matches keep their translations, moved or edited text
is matched by similarity and flagged fuzzy, and dropped messages are
kept as obsolete entries.

Without arguments, the languages come from .mdkit.yaml or from the
existing .po files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(args)
		},
	}

	return cmd
}

func runMerge(langs []string) error {
	c, err := config.Load(rootDir)
	if err != nil {
		return err
	}

	if !fileExists(c.AbsPOTFile()) {
		logInfo("No POT template found, running extraction first")
		if err := runExtract(-1, -1); err != nil {
			return err
		}
	}

	potFile, err := pofile.ParseFile(c.AbsPOTFile())
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.AbsPOTFile(), err)
	}

	if len(langs) == 0 {
		langs = c.ResolveLanguages()
	}
	if len(langs) == 0 {
		return fmt.Errorf("no languages configured; pass them as arguments or list them in %s", config.FileName)
	}

	logInfo("%s: %s", i18n.T("Merging catalogs"), strings.Join(langs, ", "))

	created, updated := 0, 0
	for _, lang := range langs {
		poPath := c.POPath(lang)

		if err := os.MkdirAll(filepath.Dir(poPath), 0755); err != nil {
			logError("Creating directory for %s: %v", poPath, err)
			continue
		}

		if !fileExists(poPath) {
			newPO := catalogFromTemplate(c, potFile, lang)
			if err := newPO.WriteFile(poPath); err != nil {
				logError("Creating %s: %v", poPath, err)
				continue
			}
			logSuccess("Created: %s", poPath)
			created++
		} else {
			existing, err := pofile.ParseFile(poPath)
			if err != nil {
				logError("Reading %s: %v", poPath, err)
				continue
			}
			merged := merge.Merge(existing, potFile)
			if err := merged.WriteFile(poPath); err != nil {
				logError("Writing %s: %v", poPath, err)
				continue
			}
			logSuccess("Updated: %s", poPath)
			updated++
		}
	}

	logInfo("Summary: %d created, %d updated", created, updated)

	fmt.Fprintln(os.Stderr)
	showStatsTable(c, langs)
	return nil
}

// catalogFromTemplate seeds a fresh PO catalog from the template.
func catalogFromTemplate(c *config.Config, potFile *pofile.File, lang string) *pofile.File {
	newPO := pofile.NewFile()
	newPO.Header = pofile.MakeHeader(c.Package, c.Version, c.BugsEmail, c.Package, lang)
	newPO.SetHeaderField("Plural-Forms", pofile.PluralFormsForLang(lang))

	for _, e := range potFile.Entries {
		entry := e.Clone()
		entry.MsgStr = ""
		entry.Flags = copyFlags(e.Flags)
		newPO.Entries = append(newPO.Entries, entry)
	}
	return newPO
}

// copyFlags copies entry flags, dropping fuzzy: a fresh catalog entry
// has nothing to be fuzzy about.
func copyFlags(flags []string) []string {
	var result []string
	for _, f := range flags {
		if f != "fuzzy" {
			result = append(result, f)
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// translate (PO catalogs -> translated document trees)
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [languages...]",
		Short: "Render translated document trees from the catalogs",
		Long: `Render one translated copy of the source tree per language into the
output directory. Messages without a usable translation (missing,
fuzzy or empty) keep their original text, so the output is always a
complete, well-formed document tree.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(args)
		},
	}

	return cmd
}

func runTranslate(langs []string) error {
	c, err := config.Load(rootDir)
	if err != nil {
		return err
	}

	if len(langs) == 0 {
		langs = c.ResolveLanguages()
	}
	if len(langs) == 0 {
		return fmt.Errorf("no languages configured; pass them as arguments or list them in %s", config.FileName)
	}

	docs, err := loadDocuments(c)
	if err != nil {
		return err
	}

	logInfo("%s: %s", i18n.T("Rendering translations"), strings.Join(langs, ", "))

	for _, lang := range langs {
		poPath := c.POPath(lang)
		catalog, err := pofile.ParseFile(poPath)
		if err != nil {
			logWarning("Skipping %s: %v", lang, err)
			continue
		}

		outRoot := c.OutputPath(lang)
		written := 0
		for _, doc := range docs {
			rendered, err := translate.Apply(doc.Source, catalog)
			if err != nil {
				logError("%s (%s): %v", doc.Path, lang, err)
				continue
			}
			outPath := filepath.Join(outRoot, filepath.FromSlash(doc.Path))
			if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
				logError("Creating directory for %s: %v", outPath, err)
				continue
			}
			if err := os.WriteFile(outPath, rendered, 0644); err != nil {
				logError("Writing %s: %v", outPath, err)
				continue
			}
			written++
		}
		logSuccess("%s: %d documents rendered to %s", lang, written, outRoot)
	}

	return updateLock(c, docs)
}

// ---------------------------------------------------------------------------
// status (read-only: project info + translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show project info and translation statistics",
		Long: `Show the project layout, which documents changed since the last
extraction, and per-language translation progress. Does not modify
any files.`,
		Run: func(cmd *cobra.Command, args []string) {
			runStatus()
		},
	}

	return cmd
}

func runStatus() {
	c, err := config.Load(rootDir)
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\n%sProject%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	fmt.Fprintf(os.Stderr, "  Name:       %s\n", c.Package)
	fmt.Fprintf(os.Stderr, "  Version:    %s\n", c.Version)
	fmt.Fprintf(os.Stderr, "  Root:       %s\n", c.Root())
	fmt.Fprintf(os.Stderr, "  Sources:    %s\n", c.SourceDir)
	fmt.Fprintf(os.Stderr, "  PO dir:     %s\n", c.PODir)
	fmt.Fprintf(os.Stderr, "  Template:   %s\n", c.POTFile)
	fmt.Fprintf(os.Stderr, "  Output:     %s\n", c.OutputDir)

	langs := c.ResolveLanguages()
	if len(langs) > 0 {
		fmt.Fprintf(os.Stderr, "  Languages:  %s\n", strings.Join(langs, ", "))
	}
	fmt.Fprintln(os.Stderr)

	showChangedDocuments(c)
	showStatsTable(c, langs)
}

// showChangedDocuments lists documents whose content differs from the
// checksums recorded at the last extraction.
func showChangedDocuments(c *config.Config) {
	docs, err := extract.FindDocuments(c.AbsSourceDir())
	if err != nil || len(docs) == 0 {
		return
	}
	lock, err := lockfile.Load(c.Root())
	if err != nil {
		return
	}

	var changed []string
	for _, doc := range docs {
		if lock.IsChanged(doc.Path, doc.Source) {
			changed = append(changed, doc.Path)
		}
	}
	if len(changed) == 0 {
		logInfo("All %d documents up to date with %s", len(docs), lockfile.LockFileName)
		return
	}
	logWarning("%d of %d documents changed since last extraction:", len(changed), len(docs))
	for _, p := range changed {
		fmt.Fprintf(os.Stderr, "  %s\n", p)
	}
	fmt.Fprintln(os.Stderr)
}

func showStatsTable(c *config.Config, langs []string) {
	potTotal := 0
	if potFile, err := pofile.ParseFile(c.AbsPOTFile()); err == nil {
		for _, e := range potFile.Entries {
			if e.MsgID != "" && !e.Obsolete {
				potTotal++
			}
		}
	}

	if potTotal == 0 {
		logInfo("No POT template yet; run \"mdkit extract\" first")
		return
	}

	fmt.Fprintf(os.Stderr, "%sTranslation Statistics%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "\n%-24s %-12s %-10s %-10s %-8s\n", "Lang", "Translated", "Fuzzy", "Untrans.", "Percent")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	for _, lang := range langs {
		poFile, err := pofile.ParseFile(c.POPath(lang))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%-24s %-12s %-10s %-10s %-8s\n", langLabel(lang), "missing", "-", "-", "-")
			continue
		}

		_, translated, fuzzy, untranslated := poFile.Stats()
		percent := translated * 100 / potTotal
		fmt.Fprintf(os.Stderr, "%-24s %-12d %-10d %-10d %d%%\n", langLabel(lang), translated, fuzzy, untranslated, percent)
	}

	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "Total strings: %d\n\n", potTotal)
}

// langLabel renders a language code with its native name when known.
func langLabel(lang string) string {
	if name := pofile.LangNameNative(lang); name != lang {
		return lang + " (" + name + ")"
	}
	return lang
}

// fileExists returns true if the file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
