// Package config loads project settings from .mdkit.yaml.
//
// The file is optional: a project without one gets the defaults (src/,
// po/, po/messages.pot, translated/). When it exists, unknown keys are
// rejected so that typos do not silently fall back to defaults.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the project root.
const FileName = ".mdkit.yaml"

// Config is the top-level .mdkit.yaml structure. All paths are
// relative to the project root.
type Config struct {
	// Package and Version feed the POT header.
	Package   string `yaml:"package,omitempty"`
	Version   string `yaml:"version,omitempty"`
	BugsEmail string `yaml:"bugs_email,omitempty"`

	// SourceDir is scanned recursively for .md documents.
	SourceDir string `yaml:"source_dir,omitempty"`
	// PODir holds one <lang>.po per language.
	PODir string `yaml:"po_dir,omitempty"`
	// POTFile is the extraction template path.
	POTFile string `yaml:"pot_file,omitempty"`
	// OutputDir receives translated document trees, one per language.
	OutputDir string `yaml:"output_dir,omitempty"`

	// Languages lists the translation targets. Empty means detect from
	// existing .po files.
	Languages []string `yaml:"languages,omitempty"`

	// Granularity rounds reference line numbers (0 = no line numbers,
	// 1 = exact). A pointer so that an explicit 0 survives decoding;
	// nil means the default of 1.
	Granularity *int `yaml:"granularity,omitempty"`
	// Depth enables per-section templates when > 0.
	Depth int `yaml:"depth,omitempty"`

	root string
}

// Load reads .mdkit.yaml from rootDir. A missing file is not an error:
// the returned config carries the defaults.
func Load(rootDir string) (*Config, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		absRoot = rootDir
	}

	c := &Config{root: absRoot}
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		c.root = absRoot
	}

	if c.Package == "" {
		c.Package = filepath.Base(absRoot)
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.SourceDir == "" {
		c.SourceDir = "src"
	}
	if c.PODir == "" {
		c.PODir = "po"
	}
	if c.POTFile == "" {
		c.POTFile = filepath.Join(c.PODir, "messages.pot")
	}
	if c.OutputDir == "" {
		c.OutputDir = "translated"
	}
	if c.Granularity == nil {
		def := 1
		c.Granularity = &def
	}

	if *c.Granularity < 0 {
		return nil, fmt.Errorf("%s: granularity must not be negative", path)
	}
	if c.Depth < 0 {
		return nil, fmt.Errorf("%s: depth must not be negative", path)
	}
	for _, lang := range c.Languages {
		if strings.TrimSpace(lang) == "" {
			return nil, fmt.Errorf("%s: empty language code", path)
		}
	}
	return c, nil
}

// Root returns the absolute project root the config was loaded from.
func (c *Config) Root() string { return c.root }

// LineGranularity returns the effective reference-line granularity.
func (c *Config) LineGranularity() int {
	if c.Granularity == nil {
		return 1
	}
	return *c.Granularity
}

// AbsSourceDir returns the absolute document source directory.
func (c *Config) AbsSourceDir() string { return filepath.Join(c.root, c.SourceDir) }

// AbsPODir returns the absolute PO directory.
func (c *Config) AbsPODir() string { return filepath.Join(c.root, c.PODir) }

// AbsPOTFile returns the absolute template path.
func (c *Config) AbsPOTFile() string { return filepath.Join(c.root, c.POTFile) }

// AbsOutputDir returns the absolute translated-output directory.
func (c *Config) AbsOutputDir() string { return filepath.Join(c.root, c.OutputDir) }

// POPath returns the catalog path for one language.
func (c *Config) POPath(lang string) string {
	return filepath.Join(c.AbsPODir(), lang+".po")
}

// OutputPath returns the translated tree root for one language.
func (c *Config) OutputPath(lang string) string {
	return filepath.Join(c.AbsOutputDir(), lang)
}

// ResolveLanguages returns the configured language list, or the
// languages of the existing .po files when none are configured.
func (c *Config) ResolveLanguages() []string {
	if len(c.Languages) > 0 {
		return c.Languages
	}
	entries, err := os.ReadDir(c.AbsPODir())
	if err != nil {
		return nil
	}
	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".po") {
			continue
		}
		langs = append(langs, strings.TrimSuffix(name, ".po"))
	}
	sort.Strings(langs)
	return langs
}
