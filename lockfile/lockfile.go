// Package lockfile implements mdkit.lock — a lock file that tracks
// MD5 checksums of source documents. It lets the status and translate
// commands tell which documents changed since the catalogs were last
// refreshed, without re-parsing anything.
//
// The lock file is stored in the project root as mdkit.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "mdkit.lock"

// Version is the lock file format version.
const Version = 1

// LockFile represents the mdkit.lock file structure.
type LockFile struct {
	Version   int               `yaml:"version"`
	Documents map[string]string `yaml:"documents"` // relative path -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Documents: make(map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Documents == nil {
		lf.Documents = make(map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// Hash computes the MD5 hex digest of document content.
func Hash(content []byte) string {
	return fmt.Sprintf("%x", md5.Sum(content))
}

// DocumentKey normalizes a document path for use as a lock file key.
func DocumentKey(relPath string) string {
	return filepath.ToSlash(relPath)
}

// IsChanged reports whether a document is new or its content differs
// from the recorded checksum.
func (lf *LockFile) IsChanged(relPath string, content []byte) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	old, ok := lf.Documents[DocumentKey(relPath)]
	if !ok {
		return true
	}
	return old != Hash(content)
}

// Update records the checksum of a document.
func (lf *LockFile) Update(relPath string, content []byte) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	lf.Documents[DocumentKey(relPath)] = Hash(content)
}

// Clean removes entries for documents that no longer exist. This
// prevents stale entries from accumulating after renames.
func (lf *LockFile) Clean(currentPaths []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	valid := make(map[string]bool, len(currentPaths))
	for _, p := range currentPaths {
		valid[DocumentKey(p)] = true
	}
	for k := range lf.Documents {
		if !valid[k] {
			delete(lf.Documents, k)
		}
	}
}

// Stats returns the number of tracked documents.
func (lf *LockFile) Stats() int {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return len(lf.Documents)
}

// Tracked returns the sorted list of tracked document paths.
func (lf *LockFile) Tracked() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	paths := make([]string, 0, len(lf.Documents))
	for p := range lf.Documents {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	paths := lf.Tracked()
	if len(paths) == 0 {
		return "empty"
	}
	if len(paths) <= 5 {
		return fmt.Sprintf("%d documents (%s)", len(paths), strings.Join(paths, ", "))
	}
	return fmt.Sprintf("%d documents", len(paths))
}
