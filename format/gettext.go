package format

import (
	"fmt"

	"github.com/openlocale/polyglot/pofile"
)

// Gettext is the PO text-format adapter. The msgid itself is the
// translation key; the fuzzy flag is the native staleness marker. Compiled
// MO files are never read here; only the text format is authoritative.
type Gettext struct {
	// ProjectName and Version seed the header of newly created files.
	ProjectName string
	Version     string
}

// gettextHandle wraps the parsed PO file as the original-structure handle.
type gettextHandle struct {
	file   *pofile.File
	locale string
}

func (h *gettextHandle) Locale() string { return h.locale }

// Ext implements Adapter.
func (g *Gettext) Ext() string { return ".po" }

// Extract implements Adapter.
func (g *Gettext) Extract(path string) (*Extraction, Handle, error) {
	f, err := pofile.ParseFile(path)
	if err != nil {
		return nil, nil, classify(path, err, pofile.ErrInvalidUTF8)
	}

	ex := &Extraction{
		Locale: f.HeaderField("Language"),
		Values: make(map[string]string),
		Stale:  make(map[string]bool),
	}
	for _, e := range f.Entries {
		if e.MsgID == "" || e.Obsolete {
			continue
		}
		ex.Values[e.MsgID] = e.MsgStr
		if e.IsFuzzy() {
			ex.Stale[e.MsgID] = true
		}
	}
	return ex, &gettextHandle{file: f, locale: ex.Locale}, nil
}

// MergeSerialize implements Adapter.
func (g *Gettext) MergeSerialize(h Handle, updates map[string]string, targetLocale string) ([]byte, error) {
	gh, ok := h.(*gettextHandle)
	if !ok {
		return nil, fmt.Errorf("handle is not a gettext structure")
	}

	f := gh.file.Clone()
	if gh.locale != targetLocale {
		// Template use: the structure came from another locale's file.
		f.SetLanguage(targetLocale)
	}

	for msgid, value := range updates {
		entry := f.EntryByMsgID(msgid)
		if entry == nil {
			f.Entries = append(f.Entries, &pofile.Entry{MsgID: msgid, MsgStr: value})
			continue
		}
		if entry.MsgStr != value && value != "" {
			// A changed non-empty value counts as confirmed current.
			entry.SetFuzzy(false)
		}
		entry.MsgStr = value
	}
	return f.Marshal()
}

// NewHandle implements Adapter.
func (g *Gettext) NewHandle(locale string) Handle {
	f := pofile.NewFile()
	f.Header = pofile.NewHeader(g.ProjectName, g.Version, locale)
	return &gettextHandle{file: f, locale: locale}
}
