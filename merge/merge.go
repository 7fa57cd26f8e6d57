// Package merge synchronises a PO file with an extracted POT template,
// the way msgmerge does: entries new in the template appear untranslated,
// entries still present keep their translation with refreshed metadata,
// and entries gone from the template are demoted to obsolete.
package merge

import (
	po "github.com/openlocale/polyglot/pofile"
)

// Merge applies a POT template to an existing PO file and returns the
// synchronised file. Neither input is mutated.
func Merge(poFile, potFile *po.File) *po.File {
	result := po.NewFile()

	// The PO header survives; only the template creation date is taken
	// from the POT.
	if poFile.Header != nil {
		result.Header = poFile.Header.Clone()
	}
	if potFile.Header != nil {
		if created := potFile.HeaderField("POT-Creation-Date"); created != "" {
			result.SetHeaderField("POT-Creation-Date", created)
		}
	}

	existing := make(map[string]*po.Entry)
	for _, e := range poFile.Entries {
		if !e.Obsolete {
			existing[e.MsgID] = e
		}
	}

	matched := make(map[string]bool)
	for _, tmpl := range potFile.Entries {
		if tmpl.MsgID == "" {
			continue
		}
		old, ok := existing[tmpl.MsgID]
		if !ok {
			fresh := tmpl.Clone()
			fresh.MsgStr = ""
			fresh.MsgStrPlural = make(map[int]string)
			fresh.TranslatorComments = nil
			result.Entries = append(result.Entries, fresh)
			continue
		}
		matched[tmpl.MsgID] = true

		// Template owns extraction metadata; the PO owns the translation
		// and the translator's own comments.
		merged := tmpl.Clone()
		merged.TranslatorComments = append([]string(nil), old.TranslatorComments...)
		merged.Flags = mergeFlags(old.Flags, tmpl.Flags)
		merged.MsgStr = old.MsgStr
		merged.MsgStrPlural = make(map[int]string, len(old.MsgStrPlural))
		for k, v := range old.MsgStrPlural {
			merged.MsgStrPlural[k] = v
		}
		result.Entries = append(result.Entries, merged)
	}

	// Whatever the template no longer mentions becomes obsolete, keeping
	// the translation around for a possible revival.
	for _, e := range poFile.Entries {
		if e.MsgID == "" || e.Obsolete || matched[e.MsgID] {
			continue
		}
		obs := e.Clone()
		obs.Obsolete = true
		obs.References = nil
		result.Entries = append(result.Entries, obs)
	}

	return result
}

// mergeFlags unions PO flags (fuzzy and friends) with the template's format
// flags, listing fuzzy first when present.
func mergeFlags(poFlags, potFlags []string) []string {
	seen := make(map[string]bool)
	for _, f := range poFlags {
		seen[f] = true
	}
	for _, f := range potFlags {
		seen[f] = true
	}

	var out []string
	if seen["fuzzy"] {
		out = append(out, "fuzzy")
	}
	for _, f := range append(poFlags, potFlags...) {
		if f != "fuzzy" && seen[f] {
			out = append(out, f)
			seen[f] = false
		}
	}
	return out
}
