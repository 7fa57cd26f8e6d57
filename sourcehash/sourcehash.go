// Package sourcehash implements polyglot.lock, a lock file that tracks
// MD5 checksums of base-locale strings per target locale. A translation
// is stale when the base string it was written against has since changed,
// which is how staleness is detected for formats without a native marker
// (gettext has fuzzy flags; nested YAML has nothing).
//
// The lock file is stored at the project root as polyglot.lock. It is
// best-effort: a missing or unreadable lock file means no YAML staleness
// information, never a failed run.
package sourcehash

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "polyglot.lock"

// Version is the lock file format version.
const Version = 1

// LockFile represents the polyglot.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // locale -> key -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// Load reads the lock file from the given directory.
// Returns an empty lock file if the file doesn't exist or is unreadable.
func Load(dir string) *LockFile {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return lf
	}
	if err := yaml.Unmarshal(data, lf); err != nil {
		// Corrupt lock file: start over rather than fail the run.
		lf.Checksums = make(map[string]map[string]string)
	}
	lf.path = path
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	return lf
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

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// IsStale reports whether the translation of key in locale was written
// against a different base string than baseValue. Keys never recorded
// are not considered stale: with no record there is nothing to compare.
func (lf *LockFile) IsStale(locale, key, baseValue string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys, ok := lf.Checksums[locale]
	if !ok {
		return false
	}
	oldHash, ok := keys[key]
	if !ok {
		return false
	}
	return oldHash != Hash(baseValue)
}

// Update records the base string a translation was written against.
func (lf *LockFile) Update(locale, key, baseValue string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[locale] == nil {
		lf.Checksums[locale] = make(map[string]string)
	}
	lf.Checksums[locale][key] = Hash(baseValue)
}

// UpdateBatch records checksums for multiple keys at once.
func (lf *LockFile) UpdateBatch(locale string, entries map[string]string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[locale] == nil {
		lf.Checksums[locale] = make(map[string]string)
	}
	for key, baseValue := range entries {
		lf.Checksums[locale][key] = Hash(baseValue)
	}
}

// Clean removes entries for keys that no longer exist in the base locale.
func (lf *LockFile) Clean(locale string, currentKeys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[locale]
	if existing == nil {
		return
	}
	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}
	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
}

// Stats returns the number of locales and total keys in the lock file.
func (lf *LockFile) Stats() (locales, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	locales = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Locales returns the sorted list of locales with recorded checksums.
func (lf *LockFile) Locales() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	locales := make([]string, 0, len(lf.Checksums))
	for l := range lf.Checksums {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}
