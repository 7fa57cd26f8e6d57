// Package tracking records which file each (key, locale) pair was parsed
// from, so write-back targets the same file a translation came from instead
// of re-deriving a path.
//
// When no tracked path exists, a target is derived from the default locale's
// path for the same key, and as a final fallback from the key's own
// namespace structure. The heuristic fallback is inherently ambiguous for
// deep or irregular key structures; it is best-effort and its use is
// surfaced as a degraded-path warning, not made fully correct.
package tracking

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Index is the source-file tracking table: (key, locale) → file path.
// Populated only while parsing existing files; the write-back engine adds
// records for files it creates.
type Index struct {
	baseDir       string
	defaultLocale string

	// sources maps key → locale → path.
	sources map[string]map[string]string
	// defaultFiles is every file seen for the default locale, in first-seen
	// order. Used by the write-back symmetry sweep.
	defaultFiles []string
	defaultSeen  map[string]bool
}

// NewIndex creates an index rooted at the locale directory (e.g.
// "config/locales" or "locale").
func NewIndex(baseDir, defaultLocale string) *Index {
	return &Index{
		baseDir:       baseDir,
		defaultLocale: defaultLocale,
		sources:       make(map[string]map[string]string),
		defaultSeen:   make(map[string]bool),
	}
}

// BaseDir returns the locale directory the index is rooted at.
func (x *Index) BaseDir() string { return x.baseDir }

// DefaultLocale returns the project default locale.
func (x *Index) DefaultLocale() string { return x.defaultLocale }

// Record stores the source path for (key, locale). Default-locale paths are
// also collected into the default file list.
func (x *Index) Record(key, locale, path string) {
	m, ok := x.sources[key]
	if !ok {
		m = make(map[string]string)
		x.sources[key] = m
	}
	m[locale] = path
	if locale == x.defaultLocale {
		x.addDefaultFile(path)
	}
}

// AddDefaultFile registers a default-locale file that was parsed, whether or
// not any key was recorded from it.
func (x *Index) AddDefaultFile(path string) {
	x.addDefaultFile(path)
}

func (x *Index) addDefaultFile(path string) {
	if !x.defaultSeen[path] {
		x.defaultSeen[path] = true
		x.defaultFiles = append(x.defaultFiles, path)
	}
}

// Get returns the tracked path for (key, locale), if any.
func (x *Index) Get(key, locale string) (string, bool) {
	path, ok := x.sources[key][locale]
	return path, ok
}

// DefaultSource returns the tracked default-locale path for key, if any.
func (x *Index) DefaultSource(key string) (string, bool) {
	return x.Get(key, x.defaultLocale)
}

// DefaultFiles returns every file recorded for the default locale.
func (x *Index) DefaultFiles() []string {
	return append([]string(nil), x.defaultFiles...)
}

// TranslatePath converts a default-locale file path into the structurally
// corresponding path for locale. Three patterns are recognised:
//
//	en/application.yml  → de/application.yml
//	en.yml              → de.yml
//	devise.en.yml       → devise.de.yml
//
// Returns "" when the path is outside the locale directory or matches no
// pattern.
func (x *Index) TranslatePath(defaultPath, locale string) string {
	rel, err := filepath.Rel(x.baseDir, defaultPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	rel = filepath.ToSlash(rel)
	def := x.defaultLocale

	// Pattern 1: directory-per-locale (en/..., with the filename itself
	// possibly locale-bearing as well: en/en.yml, en/javascript.en.yml).
	if strings.HasPrefix(rel, def+"/") {
		rest := strings.TrimPrefix(rel, def+"/")
		dir, base := "", rest
		if i := strings.LastIndex(rest, "/"); i >= 0 {
			dir, base = rest[:i+1], rest[i+1:]
		}
		base = rewriteLocaleSegment(base, def, locale)
		return filepath.Join(x.baseDir, filepath.FromSlash(locale+"/"+dir+base))
	}

	// Patterns 2 and 3 apply only to files directly in the locale directory.
	if strings.Contains(rel, "/") {
		return ""
	}
	if rewritten := rewriteLocaleSegment(rel, def, locale); rewritten != rel {
		return filepath.Join(x.baseDir, rewritten)
	}
	return ""
}

// rewriteLocaleSegment swaps the locale-bearing filename segment:
// en.yml → de.yml, devise.en.yml → devise.de.yml, en.po → de.po.
func rewriteLocaleSegment(base, from, to string) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	switch {
	case stem == from:
		return to + ext
	case strings.HasSuffix(stem, "."+from):
		return strings.TrimSuffix(stem, "."+from) + "." + to + ext
	case strings.HasPrefix(stem, from+"."):
		return to + "." + strings.TrimPrefix(stem, from+".") + ext
	}
	return base
}

// DegradedPathError reports that a write target had to be derived from the
// key structure alone because no tracked or translatable source path
// existed. It is a warning condition, never fatal.
type DegradedPathError struct {
	Key    string
	Locale string
	Path   string
}

func (e *DegradedPathError) Error() string {
	return fmt.Sprintf("no tracked source for key %q (locale %s): falling back to heuristic path %s",
		e.Key, e.Locale, e.Path)
}

// HeuristicPath derives a target file purely from the key's namespace
// structure: the first segment becomes the file name under the locale
// directory, single-segment keys land in a catch-all file named after the
// locale. The returned error is always a *DegradedPathError describing the
// degraded resolution; the path itself is still usable.
func (x *Index) HeuristicPath(key, locale, ext string) (string, error) {
	var path string
	parts := strings.Split(key, ".")
	if len(parts) >= 2 {
		path = filepath.Join(x.baseDir, locale, parts[0]+ext)
	} else {
		path = filepath.Join(x.baseDir, locale, locale+ext)
	}
	return path, &DegradedPathError{Key: key, Locale: locale, Path: path}
}
