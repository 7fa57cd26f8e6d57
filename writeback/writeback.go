// Package writeback persists the translation model to disk.
//
// Every editable key is routed to a target file per locale: the tracked
// source file when the pair was parsed from one, otherwise the path derived
// from the default locale's file for that key, and as a last resort a path
// derived from the key structure alone (reported as degraded). Existing
// files are merged through their parsed structure so comments, ordering and
// untouched values survive; missing files are created from the default
// locale's file as a template, with every untranslated key written as an
// explicit empty value.
//
// Files are written atomically (temp file + rename) and failures are
// isolated per file: one unwritable target never aborts the rest.
package writeback

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openlocale/polyglot/format"
	"github.com/openlocale/polyglot/model"
	"github.com/openlocale/polyglot/mofile"
	"github.com/openlocale/polyglot/parse"
	"github.com/openlocale/polyglot/pofile"
	"github.com/openlocale/polyglot/project"
	"github.com/openlocale/polyglot/sourcehash"
)

// MergeError wraps a failure to merge updates into a file structure.
type MergeError struct {
	Path string
	Err  error
}

func (e *MergeError) Error() string { return fmt.Sprintf("merging into %s: %v", e.Path, e.Err) }
func (e *MergeError) Unwrap() error { return e.Err }

// Failure records one target file that could not be written.
type Failure struct {
	Path   string
	Locale string
	Err    error
}

// Result reports the outcome of a write pass.
type Result struct {
	// Written lists every file that was created or rewritten, sorted.
	Written []string
	// Failed lists targets that could not be merged or written.
	Failed []Failure
	// Warnings are degraded-path notices and other non-fatal conditions.
	Warnings []string
}

// Engine writes the model back to the project tree.
type Engine struct {
	Project *project.Project
	Source  *parse.Result
	// Lock records base-string hashes for formats without a native
	// staleness marker. Nil disables hash tracking.
	Lock *sourcehash.LockFile
	// CompileMO also compiles each written PO file to its MO sibling.
	CompileMO bool
}

// target is one file to be (re)written for one locale.
type target struct {
	path   string
	locale string
	// updates holds the key/value pairs that differ from the file on disk
	// (or the full key set for files being created).
	updates map[string]string
	// templateFrom names the default-locale file whose structure seeds
	// this target when no file exists yet.
	templateFrom string
}

// Run plans and writes every target. Only catastrophic conditions (none at
// present) yield an error; per-file problems land in the result.
func (e *Engine) Run() *Result {
	res := &Result{}
	targets := e.plan(res)

	paths := make([]string, 0, len(targets))
	for p := range targets {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		e.write(targets[p], res)
	}
	sort.Strings(res.Written)

	e.updateLock(res)
	return res
}

// plan routes every (base key, locale) pair to a target file and seeds the
// symmetry sweep: each default-locale file must have a structurally
// corresponding file in every locale.
func (e *Engine) plan(res *Result) map[string]*target {
	targets := make(map[string]*target)
	defaultLocale := e.Project.DefaultLocale

	ensure := func(path, locale, templateFrom string) *target {
		t, ok := targets[path]
		if !ok {
			t = &target{
				path:         path,
				locale:       locale,
				updates:      make(map[string]string),
				templateFrom: templateFrom,
			}
			targets[path] = t
		}
		return t
	}

	for _, locale := range e.Project.Locales {
		for _, key := range e.Source.Model.BaseKeys() {
			g := e.Source.Model.Get(key)
			value := g.Value(locale, defaultLocale)
			if locale == defaultLocale {
				// The stored value, not the key fallback: a source catalog
				// with empty msgstrs must stay empty on disk.
				value = g.Values[locale]
			}

			path, templateFrom, degraded := e.resolve(string(key), locale)
			if degraded != "" {
				res.Warnings = append(res.Warnings, degraded)
			}

			t := ensure(path, locale, templateFrom)
			if onDisk, tracked := e.Source.Extracted[path]; tracked {
				if old, ok := onDisk[string(key)]; ok && old == value {
					continue
				}
			}
			t.updates[string(key)] = value
		}
	}

	// Symmetry sweep: derived counterparts of every default-locale file
	// exist even when all of their keys were routed elsewhere.
	for _, df := range e.Source.Index.DefaultFiles() {
		for _, locale := range e.Project.Locales {
			if locale == defaultLocale {
				continue
			}
			want := e.Source.Index.TranslatePath(df, locale)
			if want == "" {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("no %s counterpart derivable for %s", locale, df))
				continue
			}
			if _, planned := targets[want]; !planned && !fileExists(want) {
				ensure(want, locale, df)
			}
		}
	}

	// Targets built from a template carry the template's full key set, so
	// untranslated keys come out as explicit empty values.
	for _, t := range targets {
		if t.templateFrom == "" {
			continue
		}
		if _, exists := e.Source.Handles[t.path]; exists {
			continue
		}
		for key := range e.Source.Extracted[t.templateFrom] {
			if _, ok := t.updates[key]; ok {
				continue
			}
			if g := e.Source.Model.Get(model.Key(key)); g != nil {
				t.updates[key] = g.Value(t.locale, defaultLocale)
			}
		}
	}

	// Existing files with nothing to change are left untouched.
	for p, t := range targets {
		if len(t.updates) == 0 {
			if _, exists := e.Source.Handles[p]; exists || fileExists(p) {
				delete(targets, p)
			}
		}
	}

	// Files that failed to parse are never overwritten: their structure is
	// unknown and rewriting from scratch would destroy whatever they hold.
	for _, f := range e.Source.Failed {
		if _, ok := targets[f.Path]; ok {
			delete(targets, f.Path)
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("skipping %s: file did not parse and will not be overwritten", f.Path))
		}
	}
	return targets
}

// resolve picks the target path for (key, locale): tracked source first,
// then the path derived from the key's default-locale file, then the
// key-structure heuristic. The third return is a degraded-path warning.
func (e *Engine) resolve(key, locale string) (path, templateFrom, degraded string) {
	if p, ok := e.Source.Index.Get(key, locale); ok {
		return p, "", ""
	}
	if src, ok := e.Source.Index.DefaultSource(key); ok {
		if p := e.Source.Index.TranslatePath(src, locale); p != "" {
			return p, src, ""
		}
	}
	p, err := e.Source.Index.HeuristicPath(key, locale, e.Project.Ext())
	return p, "", err.Error()
}

func (e *Engine) write(t *target, res *Result) {
	h := e.handleFor(t)

	data, err := e.Source.Adapter.MergeSerialize(h, t.updates, t.locale)
	if err != nil {
		res.Failed = append(res.Failed, Failure{
			Path: t.path, Locale: t.locale,
			Err: &MergeError{Path: t.path, Err: err},
		})
		return
	}

	if err := atomicWrite(t.path, data); err != nil {
		res.Failed = append(res.Failed, Failure{Path: t.path, Locale: t.locale, Err: err})
		return
	}
	res.Written = append(res.Written, t.path)

	for key := range t.updates {
		e.Source.Index.Record(key, t.locale, t.path)
	}

	if e.CompileMO && e.Project.Format == project.FormatGettext {
		if err := compileMO(t.path, data); err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("compiling %s: %v", moPath(t.path), err))
		} else {
			res.Written = append(res.Written, moPath(t.path))
		}
	}
}

// handleFor selects the structure to merge into: the file's own parsed
// structure, the default-locale template, or a fresh empty structure.
func (e *Engine) handleFor(t *target) format.Handle {
	if h, ok := e.Source.Handles[t.path]; ok {
		return h
	}
	if t.templateFrom != "" {
		if h, ok := e.Source.Handles[t.templateFrom]; ok {
			return h
		}
	}
	return e.Source.Adapter.NewHandle(t.locale)
}

// updateLock records the base string each written translation was made
// against and drops entries for keys no longer in the base locale.
func (e *Engine) updateLock(res *Result) {
	if e.Lock == nil {
		return
	}
	defaultLocale := e.Project.DefaultLocale
	baseKeys := e.Source.Model.BaseKeys()
	current := make([]string, len(baseKeys))
	for i, k := range baseKeys {
		current[i] = string(k)
	}

	for _, key := range baseKeys {
		g := e.Source.Model.Get(key)
		base := g.Value(defaultLocale, defaultLocale)
		for locale, value := range g.Values {
			if locale == defaultLocale || value == "" {
				continue
			}
			if g.Stale[locale] {
				continue
			}
			e.Lock.Update(locale, string(key), base)
		}
	}
	for _, locale := range e.Project.Locales {
		if locale != defaultLocale {
			e.Lock.Clean(locale, current)
		}
	}
	if err := e.Lock.Save(); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("saving lock file: %v", err))
	}
}

// atomicWrite writes data to path via a temp file in the same directory.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".polyglot-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func moPath(poPath string) string {
	return strings.TrimSuffix(poPath, ".po") + ".mo"
}

// compileMO parses the just-written PO bytes and writes the MO sibling.
func compileMO(poPath string, data []byte) error {
	f, err := pofile.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	mo, err := mofile.Compile(f)
	if err != nil {
		return err
	}
	return atomicWrite(moPath(poPath), mo)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
