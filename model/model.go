// Package model holds the in-memory canonical translation model: one group
// per translation key, carrying per-locale values, base-locale membership,
// staleness and validation state.
//
// Keys are opaque strings: dot-delimited paths for Rails YAML projects
// ("tasks.form.title"), the msgid itself for gettext. The model is built by
// the parser, mutated by value assignment only (keys are never renamed or
// deleted here), and consumed by the write-back engine.
package model

import "sort"

// Key identifies a translation group. Equality and ordering are string-based.
type Key string

// Flag marks a single validation failure class on a (key, locale) value.
type Flag string

const (
	FlagInvalidUnicode      Flag = "invalid_unicode"
	FlagInvalidIndices      Flag = "invalid_format_indices"
	FlagInvalidBraces       Flag = "invalid_braces"
	FlagInvalidLeadingSpace Flag = "invalid_leading_space"
	FlagInvalidNewline      Flag = "invalid_newline"
)

// Group is the canonical entry for one translation key across all locales.
type Group struct {
	Key Key
	// IsInBase is true iff the key exists in the project's default locale.
	// Only base keys are eligible for write-back; a key seen only in a
	// non-default locale file stays orphaned (preserved on disk, never
	// surfaced for editing).
	IsInBase bool
	// Values maps locale code → translated string.
	Values map[string]string
	// Stale marks locales whose value predates a change to the base string
	// (gettext: the fuzzy flag; YAML: source-hash mismatch, best-effort).
	Stale map[string]bool
	// Flags holds the current validation failures per locale. Recomputed on
	// every check pass, never cached across edits.
	Flags map[string][]Flag
}

// NewGroup creates an empty group for key.
func NewGroup(key Key, inBase bool) *Group {
	return &Group{
		Key:      key,
		IsInBase: inBase,
		Values:   make(map[string]string),
		Stale:    make(map[string]bool),
		Flags:    make(map[string][]Flag),
	}
}

// SetValue assigns the translation for a locale.
func (g *Group) SetValue(locale, value string) {
	g.Values[locale] = value
}

// Value returns the translation for a locale. For the default locale a
// missing or empty value falls back to the key itself (gettext convention:
// the msgid is the source string); any other missing locale yields "".
func (g *Group) Value(locale, defaultLocale string) string {
	v := g.Values[locale]
	if v == "" && locale == defaultLocale {
		return string(g.Key)
	}
	return v
}

// MissingLocales returns the subset of locales with no usable translation.
func (g *Group) MissingLocales(locales []string) []string {
	var missing []string
	for _, loc := range locales {
		if v, ok := g.Values[loc]; !ok || v == "" {
			missing = append(missing, loc)
		}
	}
	return missing
}

// HasFlag reports whether the given flag is currently set for locale.
func (g *Group) HasFlag(locale string, flag Flag) bool {
	for _, f := range g.Flags[locale] {
		if f == flag {
			return true
		}
	}
	return false
}

// SetFlags replaces the validation flags for locale.
func (g *Group) SetFlags(locale string, flags []Flag) {
	if len(flags) == 0 {
		delete(g.Flags, locale)
		return
	}
	g.Flags[locale] = flags
}

// Set is the translation model: all groups keyed by translation key.
type Set struct {
	groups map[Key]*Group
}

// NewSet creates an empty model.
func NewSet() *Set {
	return &Set{groups: make(map[Key]*Group)}
}

// Get returns the group for key, or nil.
func (s *Set) Get(key Key) *Group {
	return s.groups[key]
}

// Ensure returns the group for key, creating it when absent. When the group
// already exists and inBase is true, base membership is promoted: a key may
// be seen in a non-default locale before the default-locale pass records it,
// and base membership never downgrades.
func (s *Set) Ensure(key Key, inBase bool) *Group {
	g, ok := s.groups[key]
	if !ok {
		g = NewGroup(key, inBase)
		s.groups[key] = g
		return g
	}
	if inBase {
		g.IsInBase = true
	}
	return g
}

// Len returns the number of tracked groups.
func (s *Set) Len() int {
	return len(s.groups)
}

// Keys returns all keys in sorted order.
func (s *Set) Keys() []Key {
	keys := make([]Key, 0, len(s.groups))
	for k := range s.groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// BaseKeys returns the sorted keys present in the base locale, the editable
// and writable subset of the model.
func (s *Set) BaseKeys() []Key {
	var keys []Key
	for k, g := range s.groups {
		if g.IsInBase {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Locales returns every locale that has at least one value in the model,
// sorted.
func (s *Set) Locales() []string {
	seen := make(map[string]bool)
	for _, g := range s.groups {
		for loc := range g.Values {
			seen[loc] = true
		}
	}
	locales := make([]string, 0, len(seen))
	for loc := range seen {
		locales = append(locales, loc)
	}
	sort.Strings(locales)
	return locales
}
