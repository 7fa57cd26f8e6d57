// Package parse builds the translation model from a detected project.
//
// Parsing runs in two passes. The first pass reads every default-locale
// file: each key found there is a base key, its source file is recorded in
// the tracking index, and the parsed structure is kept as a handle for
// later write-back. The second pass reads every other locale and attaches
// values to the model; keys that exist only in a non-default locale stay
// in the model as orphans but never become editable.
//
// A file that fails to parse is skipped and reported; the rest of the
// project is still processed. Only project detection failures are fatal.
package parse

import (
	"fmt"
	"path/filepath"

	"github.com/openlocale/polyglot/format"
	"github.com/openlocale/polyglot/model"
	"github.com/openlocale/polyglot/project"
	"github.com/openlocale/polyglot/sourcehash"
	"github.com/openlocale/polyglot/tracking"
)

// Failure records one file that could not be parsed.
type Failure struct {
	Path   string
	Locale string
	Err    error
}

// Result is the full outcome of parsing a project.
type Result struct {
	Model   *model.Set
	Index   *tracking.Index
	Adapter format.Adapter
	// Handles maps file path → parsed structure, for every file that
	// parsed cleanly. Write-back merges into these.
	Handles map[string]format.Handle
	// Extracted maps file path → the key/value pairs read from it, kept
	// so write-back can compute the minimal update set per file.
	Extracted map[string]map[string]string
	// Failed lists files skipped due to parse or encoding errors.
	Failed []Failure
	// Warnings are non-fatal conditions: duplicate YAML keys, a file
	// whose internal locale tag disagrees with its path.
	Warnings []string
}

// AdapterFor returns the format adapter for a project.
func AdapterFor(p *project.Project) format.Adapter {
	if p.Format == project.FormatGettext {
		return &format.Gettext{ProjectName: filepath.Base(p.Root)}
	}
	return &format.NestedYAML{}
}

// Run parses every translation file of the project and builds the model.
// lock supplies recorded source hashes for YAML staleness and may be nil.
func Run(p *project.Project, lock *sourcehash.LockFile) *Result {
	r := &Result{
		Model:     model.NewSet(),
		Index:     tracking.NewIndex(p.LocaleDir, p.DefaultLocale),
		Adapter:   AdapterFor(p),
		Handles:   make(map[string]format.Handle),
		Extracted: make(map[string]map[string]string),
	}

	// Pass 1: the default locale defines the editable key set.
	for _, path := range p.FilesByLocale[p.DefaultLocale] {
		r.readFile(path, p.DefaultLocale, true)
	}

	// Pass 2: every other locale attaches values to existing keys.
	for _, locale := range p.Locales {
		if locale == p.DefaultLocale {
			continue
		}
		for _, path := range p.FilesByLocale[locale] {
			r.readFile(path, locale, false)
		}
	}

	if p.Format == project.FormatYAML && lock != nil {
		r.markHashStale(lock, p.DefaultLocale)
	}
	return r
}

func (r *Result) readFile(path, locale string, isDefault bool) {
	ext, h, err := r.Adapter.Extract(path)
	if err != nil {
		r.Failed = append(r.Failed, Failure{Path: path, Locale: locale, Err: err})
		return
	}
	r.Handles[path] = h
	r.Extracted[path] = ext.Values
	for _, w := range ext.Warnings {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", path, w))
	}
	if ext.Locale != "" && ext.Locale != locale {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("%s: file declares locale %q but is placed as %q", path, ext.Locale, locale))
	}

	if isDefault {
		r.Index.AddDefaultFile(path)
	}
	for key, value := range ext.Values {
		g := r.Model.Ensure(model.Key(key), isDefault)
		// An empty default-locale value carries no base string: the key
		// itself is the source (gettext default catalogs leave msgstr
		// empty). Storing it would shadow the fallback.
		if !isDefault || value != "" {
			g.SetValue(locale, value)
		}
		if !isDefault && ext.Stale[key] {
			g.Stale[locale] = true
		}
		r.Index.Record(key, locale, path)
	}
}

// markHashStale marks non-default values whose recorded base-string hash
// no longer matches the current base value. Best-effort: keys that were
// never recorded are left alone.
func (r *Result) markHashStale(lock *sourcehash.LockFile, defaultLocale string) {
	for _, key := range r.Model.BaseKeys() {
		g := r.Model.Get(key)
		base := g.Value(defaultLocale, defaultLocale)
		for locale := range g.Values {
			if locale == defaultLocale {
				continue
			}
			if lock.IsStale(locale, string(key), base) {
				g.Stale[locale] = true
			}
		}
	}
}
