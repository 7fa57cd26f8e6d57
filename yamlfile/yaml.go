// Package yamlfile implements reading and writing of Rails-style locale
// YAML files.
//
// A file has a single top-level locale key with nested string leaves:
//
//	en:
//	  tasks:
//	    form:
//	      title: "Task Details"
//
// The parse keeps the full yaml.Node tree, so a File doubles as the
// structure-preserving handle for write-back: comments, key order, and the
// scalar style of untouched values survive a round-trip. Values applied
// through Apply are written double-quoted (Rails convention); keys are never
// quoted. Duplicate keys are tolerated: the last occurrence wins and a
// warning is recorded, never an error.
package yamlfile

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrInvalidUTF8 is returned when a YAML file contains bytes that are not
// valid UTF-8.
var ErrInvalidUTF8 = fmt.Errorf("yaml file is not valid UTF-8")

// Entry is a single translatable leaf.
type Entry struct {
	// Path is the dot-joined key path below the locale key ("tasks.form.title").
	Path string
	// Value is the current string value.
	Value string
	// Style is the original scalar style, kept for round-trip fidelity.
	Style yaml.Style
}

// File is a parsed locale YAML file: both the flat extraction and the
// structure-preserving handle.
type File struct {
	doc    *yaml.Node
	locale string

	entries []Entry
	index   map[string]int

	// Warnings collects non-fatal parse conditions (duplicate keys).
	Warnings []string
}

// Parse parses locale YAML data.
func Parse(data []byte) (*File, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty file: missing top-level locale key")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode || len(root.Content) != 2 ||
		root.Content[0].Kind != yaml.ScalarNode || root.Content[1].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a single top-level locale key with a nested mapping")
	}

	f := &File{
		doc:    &doc,
		locale: root.Content[0].Value,
		index:  make(map[string]int),
	}
	f.collect(root.Content[1], "")
	return f, nil
}

// ParseFile reads and parses a locale YAML file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// NewFile creates an empty structure for locale, used when neither an
// existing file nor a default-locale template is available.
func NewFile(locale string) *File {
	body := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: locale},
		body,
	}}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	return &File{doc: doc, locale: locale, index: make(map[string]int)}
}

// collect walks a mapping node and records leaf entries. Later occurrences
// of the same path replace earlier ones (duplicate keys keep the last value).
func (f *File) collect(node *yaml.Node, prefix string) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		path := keyNode.Value
		if prefix != "" {
			path = prefix + "." + keyNode.Value
		}

		switch valNode.Kind {
		case yaml.MappingNode:
			f.collect(valNode, path)
		case yaml.ScalarNode:
			switch valNode.Tag {
			case "!!bool", "!!int", "!!float", "!!null":
				continue
			}
			if prev, dup := f.index[path]; dup {
				f.Warnings = append(f.Warnings,
					fmt.Sprintf("duplicate key %q: keeping the last occurrence", path))
				f.entries[prev] = Entry{Path: path, Value: valNode.Value, Style: valNode.Style}
				continue
			}
			f.index[path] = len(f.entries)
			f.entries = append(f.entries, Entry{Path: path, Value: valNode.Value, Style: valNode.Style})
		}
	}
}

// Locale returns the top-level locale key.
func (f *File) Locale() string {
	return f.locale
}

// Values returns the flat path → value extraction.
func (f *File) Values() map[string]string {
	m := make(map[string]string, len(f.entries))
	for _, e := range f.entries {
		m[e.Path] = e.Value
	}
	return m
}

// Keys returns all leaf paths in document order.
func (f *File) Keys() []string {
	keys := make([]string, len(f.entries))
	for i, e := range f.entries {
		keys[i] = e.Path
	}
	return keys
}

// Get returns the value for path.
func (f *File) Get(path string) (string, bool) {
	idx, ok := f.index[path]
	if !ok {
		return "", false
	}
	return f.entries[idx].Value, true
}

// Stats returns (total, translated) counts over leaf entries.
func (f *File) Stats() (int, int) {
	translated := 0
	for _, e := range f.entries {
		if e.Value != "" {
			translated++
		}
	}
	return len(f.entries), translated
}

// RewriteLocale replaces the top-level locale key, used when a file parsed
// for one locale serves as the template for another locale's file.
func (f *File) RewriteLocale(locale string) {
	f.locale = locale
	if f.doc != nil && len(f.doc.Content) > 0 {
		root := f.doc.Content[0]
		if root.Kind == yaml.MappingNode && len(root.Content) == 2 {
			root.Content[0].Value = locale
		}
	}
}

// Clone deep-copies the file, comments and ordering included, so the
// original handle stays valid for the session while a copy is merged and
// serialised.
func (f *File) Clone() *File {
	c := &File{locale: f.locale, index: make(map[string]int, len(f.index))}
	c.doc = cloneNode(f.doc)
	c.entries = append([]Entry(nil), f.entries...)
	for k, v := range f.index {
		c.index[k] = v
	}
	return c
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Content = make([]*yaml.Node, len(n.Content))
	for i, child := range n.Content {
		c.Content[i] = cloneNode(child)
	}
	if n.Alias != nil {
		c.Alias = cloneNode(n.Alias)
	}
	return &c
}

// Apply injects updates into the node tree. Existing leaves are updated in
// place; missing paths are created. Every applied value is written
// double-quoted, untouched leaves keep their original style.
func (f *File) Apply(updates map[string]string) {
	body := f.body()
	if body == nil {
		return
	}
	for path, value := range updates {
		f.applyOne(body, path, value)
	}
}

func (f *File) body() *yaml.Node {
	if f.doc == nil || len(f.doc.Content) == 0 {
		return nil
	}
	root := f.doc.Content[0]
	if root.Kind != yaml.MappingNode || len(root.Content) != 2 {
		return nil
	}
	return root.Content[1]
}

func (f *File) applyOne(body *yaml.Node, path, value string) {
	parts := strings.Split(path, ".")
	node := body
	for depth, part := range parts {
		last := depth == len(parts)-1
		val := findValue(node, part)

		if val == nil {
			if last {
				appendScalar(node, part, value)
			} else {
				child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
				node.Content = append(node.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: part},
					child,
				)
				node = child
			}
			continue
		}

		if last {
			val.Kind = yaml.ScalarNode
			val.Tag = "!!str"
			val.Value = value
			val.Style = yaml.DoubleQuotedStyle
			val.Content = nil
		} else {
			if val.Kind != yaml.MappingNode {
				// A scalar in the way of a deeper path: replace it with
				// a mapping so the full key can be created.
				val.Kind = yaml.MappingNode
				val.Tag = "!!map"
				val.Value = ""
				val.Style = 0
				val.Content = nil
			}
			node = val
		}
	}

	if idx, ok := f.index[path]; ok {
		f.entries[idx].Value = value
		f.entries[idx].Style = yaml.DoubleQuotedStyle
	} else {
		f.index[path] = len(f.entries)
		f.entries = append(f.entries, Entry{Path: path, Value: value, Style: yaml.DoubleQuotedStyle})
	}
}

// findValue returns the value node for key in a mapping, preferring the last
// occurrence when the key is duplicated.
func findValue(mapping *yaml.Node, key string) *yaml.Node {
	var found *yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			found = mapping.Content[i+1]
		}
	}
	return found
}

func appendScalar(mapping *yaml.Node, key, value string) {
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: yaml.DoubleQuotedStyle},
	)
}

// Marshal serialises the file with two-space indentation.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f.doc); err != nil {
		return nil, fmt.Errorf("marshaling yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
