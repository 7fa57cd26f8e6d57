// Package format defines the adapter contract shared by the gettext and
// nested-YAML file formats: extract a locale-tagged flat key→value mapping
// plus an opaque original-structure handle, and later merge updates onto a
// copy of that handle and serialise it without disturbing anything else in
// the file.
//
// Handles are explicit owned values keyed by file path in the caller's
// table, not hidden adapter state: the parser creates them, the write-back
// engine passes them back in. A handle parsed for one locale may be reused
// as the template for another: MergeSerialize rewrites the locale marker
// (YAML top-level key, PO Language header) when the target differs.
package format

import (
	"errors"
	"fmt"
)

// Extraction is the flat reading of one translation file.
type Extraction struct {
	// Locale is the locale tag carried by the file itself: the top-level
	// key for YAML, the Language header for PO (may be empty for PO files
	// with a bare header).
	Locale string
	// Values maps translation key → value.
	Values map[string]string
	// Stale marks keys whose format-native staleness marker is set
	// (gettext fuzzy). YAML has no native marker; its staleness is inferred
	// elsewhere from source hashes.
	Stale map[string]bool
	// Warnings are non-fatal parse conditions (duplicate YAML keys).
	Warnings []string
}

// Handle is the opaque original-structure value for one parsed file.
type Handle interface {
	// Locale returns the locale the structure currently carries.
	Locale() string
}

// Adapter reads and writes one translation file format.
type Adapter interface {
	// Ext returns the file extension including the dot.
	Ext() string
	// Extract reads path into a flat extraction and a structure handle.
	// Malformed input yields a *ParseError, wrong encoding an
	// *EncodingError.
	Extract(path string) (*Extraction, Handle, error)
	// MergeSerialize applies updates onto a copy of the structure behind h
	// and serialises it for targetLocale. The handle itself is not
	// mutated. Untouched keys, comments, and ordering are preserved;
	// updated values are written in normalized (quoted/escaped) form, and
	// empty values are written explicitly.
	MergeSerialize(h Handle, updates map[string]string, targetLocale string) ([]byte, error)
	// NewHandle returns an empty structure for a locale that has no file
	// and no template yet.
	NewHandle(locale string) Handle
}

// ParseError wraps a malformed-file failure. The affected file is skipped
// and reported; parsing continues for the rest of the project.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parsing %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// EncodingError wraps a wrong-encoding failure: the file is not valid UTF-8.
type EncodingError struct {
	Path string
	Err  error
}

func (e *EncodingError) Error() string { return fmt.Sprintf("decoding %s: %v", e.Path, e.Err) }
func (e *EncodingError) Unwrap() error { return e.Err }

// classify wraps err as an EncodingError when it stems from invalid UTF-8,
// otherwise as a ParseError.
func classify(path string, err error, encodingSentinel error) error {
	if errors.Is(err, encodingSentinel) {
		return &EncodingError{Path: path, Err: err}
	}
	return &ParseError{Path: path, Err: err}
}
