package format

import (
	"fmt"

	"github.com/openlocale/polyglot/yamlfile"
)

// NestedYAML is the Rails locale-file adapter. Keys are dot-joined leaf
// paths below the single top-level locale key. YAML has no native staleness
// marker, so Extract never reports stale keys.
type NestedYAML struct{}

type yamlHandle struct {
	file *yamlfile.File
}

func (h *yamlHandle) Locale() string { return h.file.Locale() }

// Ext implements Adapter.
func (y *NestedYAML) Ext() string { return ".yml" }

// Extract implements Adapter.
func (y *NestedYAML) Extract(path string) (*Extraction, Handle, error) {
	f, err := yamlfile.ParseFile(path)
	if err != nil {
		return nil, nil, classify(path, err, yamlfile.ErrInvalidUTF8)
	}
	return &Extraction{
		Locale:   f.Locale(),
		Values:   f.Values(),
		Stale:    make(map[string]bool),
		Warnings: append([]string(nil), f.Warnings...),
	}, &yamlHandle{file: f}, nil
}

// MergeSerialize implements Adapter.
func (y *NestedYAML) MergeSerialize(h Handle, updates map[string]string, targetLocale string) ([]byte, error) {
	yh, ok := h.(*yamlHandle)
	if !ok {
		return nil, fmt.Errorf("handle is not a yaml structure")
	}

	f := yh.file.Clone()
	if f.Locale() != targetLocale {
		// Template use: rewrite the top-level locale marker.
		f.RewriteLocale(targetLocale)
	}
	f.Apply(updates)
	return f.Marshal()
}

// NewHandle implements Adapter.
func (y *NestedYAML) NewHandle(locale string) Handle {
	return &yamlHandle{file: yamlfile.NewFile(locale)}
}
