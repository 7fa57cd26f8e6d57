// Package validate checks translated values against their base-locale
// string and flags the classes of damage that translation pipelines
// introduce: escaped unicode sequences, dropped or renumbered format
// placeholders, unbalanced braces, changed edge whitespace, and changed
// newline counts.
//
// Checks run over the editable (base) keys only and recompute every flag
// from scratch; Repair fixes the mechanical classes in memory so a
// subsequent write persists the corrected values.
package validate

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/openlocale/polyglot/model"
)

var formatIndexPattern = regexp.MustCompile(`\{[0-9]+\}`)

// FormatIndices returns the sorted positional indices of {N} placeholders.
func FormatIndices(s string) []int {
	var indices []int
	for _, m := range formatIndexPattern.FindAllString(s, -1) {
		n, _ := strconv.Atoi(m[1 : len(m)-1])
		indices = append(indices, n)
	}
	sort.Ints(indices)
	return indices
}

// UnescapeUnicode decodes \uXXXX escape sequences. Sequences without four
// hex digits are left verbatim.
func UnescapeUnicode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if i+6 <= len(s) && s[i] == '\\' && s[i+1] == 'u' {
			if n, err := strconv.ParseUint(s[i+2:i+6], 16, 32); err == nil {
				b.WriteRune(rune(n))
				i += 6
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// GroupIssues is the validation outcome for one key.
type GroupIssues struct {
	Key     model.Key
	Missing []string
	ByFlag  map[model.Flag][]string
}

// HasIssues reports whether any locale of the group failed a check.
func (gi *GroupIssues) HasIssues() bool {
	return len(gi.Missing) > 0 || len(gi.ByFlag) > 0
}

// Report aggregates validation over the whole model.
type Report struct {
	// Groups holds only keys with at least one issue, in key order.
	Groups []GroupIssues
	// Totals counts flagged (key, locale) pairs per flag class.
	Totals map[model.Flag]int
	// MissingTotal counts (key, locale) pairs with no translation.
	MissingTotal int
}

// Check validates every base key of the model against the expected
// locales, updates the per-group flags, and returns the report.
func Check(s *model.Set, defaultLocale string, locales []string) *Report {
	r := &Report{Totals: make(map[model.Flag]int)}

	// The default locale can never be missing: base keys fall back to the
	// key itself as their source string.
	var others []string
	for _, loc := range locales {
		if loc != defaultLocale {
			others = append(others, loc)
		}
	}

	for _, key := range s.BaseKeys() {
		g := s.Get(key)
		base := g.Value(defaultLocale, defaultLocale)

		gi := GroupIssues{Key: key, ByFlag: make(map[model.Flag][]string)}
		gi.Missing = g.MissingLocales(others)
		r.MissingTotal += len(gi.Missing)

		perLocale := make(map[string][]model.Flag)
		for locale, value := range g.Values {
			var flags []model.Flag
			if invalidUnicode(value) {
				flags = append(flags, model.FlagInvalidUnicode)
			}
			if locale != defaultLocale {
				if invalidIndices(base, value) {
					flags = append(flags, model.FlagInvalidIndices)
				}
				if invalidBraces(base, value) {
					flags = append(flags, model.FlagInvalidBraces)
				}
				if invalidEdgeSpace(base, value) {
					flags = append(flags, model.FlagInvalidLeadingSpace)
				}
				if invalidNewlines(base, value) {
					flags = append(flags, model.FlagInvalidNewline)
				}
			}
			perLocale[locale] = flags
			for _, f := range flags {
				gi.ByFlag[f] = append(gi.ByFlag[f], locale)
				r.Totals[f]++
			}
		}
		for locale := range g.Values {
			g.SetFlags(locale, perLocale[locale])
		}
		for _, locs := range gi.ByFlag {
			sort.Strings(locs)
		}
		if len(gi.ByFlag) == 0 {
			gi.ByFlag = nil
		}
		if gi.HasIssues() {
			r.Groups = append(r.Groups, gi)
		}
	}
	return r
}

// invalidUnicode reports escaped \uXXXX sequences or bytes that are not
// valid UTF-8.
func invalidUnicode(value string) bool {
	return strings.Contains(value, `\u`) || !utf8.ValidString(value)
}

// invalidIndices compares {N} placeholder sets. Only strings whose base
// actually uses positional placeholders (contains {0}) are checked.
func invalidIndices(base, value string) bool {
	if !strings.Contains(base, "{0}") {
		return false
	}
	want := FormatIndices(base)
	got := FormatIndices(value)
	if len(want) != len(got) {
		return true
	}
	for i := range want {
		if want[i] != got[i] {
			return true
		}
	}
	return false
}

// bracePairs lists the structural pairs to check. Parentheses only need to
// close (U+FF09 counts as a close paren); the other pairs must match the
// base counts exactly.
var bracePairs = []struct {
	open        string
	closers     []string
	closureOnly bool
}{
	{"(", []string{")", "）"}, true},
	{"[", []string{"]"}, false},
	{"<", []string{">"}, false},
	{"{", []string{"}"}, false},
}

func countAll(s string, subs []string) int {
	n := 0
	for _, sub := range subs {
		n += strings.Count(s, sub)
	}
	return n
}

func invalidBraces(base, value string) bool {
	for _, p := range bracePairs {
		open := strings.Count(value, p.open)
		closed := countAll(value, p.closers)
		if p.closureOnly {
			if open != closed {
				return true
			}
			continue
		}
		if open != strings.Count(base, p.open) || closed != countAll(base, p.closers) {
			return true
		}
	}
	return false
}

func edgeSpace(s string) (leading, trailing int) {
	leading = len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace))
	trailing = len(s) - len(strings.TrimRightFunc(s, unicode.IsSpace))
	return
}

func invalidEdgeSpace(base, value string) bool {
	wantLead, wantTrail := edgeSpace(base)
	lead, trail := edgeSpace(value)
	return lead != wantLead || trail != wantTrail
}

// invalidNewlines compares counts of literal \n escapes and real newline
// characters separately; translation pipelines tend to swap one for the
// other.
func invalidNewlines(base, value string) bool {
	return strings.Count(value, `\n`) != strings.Count(base, `\n`) ||
		strings.Count(value, "\n") != strings.Count(base, "\n")
}

// Repair fixes the mechanically correctable classes in memory: unicode
// escapes are decoded, edge whitespace is reshaped to match the base, and
// literal \n escapes become real newlines. Returns true when any value
// changed. Placeholder and brace damage needs a human and is left flagged.
func Repair(s *model.Set, defaultLocale string) bool {
	changed := false
	for _, key := range s.BaseKeys() {
		g := s.Get(key)
		base := g.Value(defaultLocale, defaultLocale)
		for locale, value := range g.Values {
			fixed := value
			if strings.Contains(fixed, `\u`) {
				fixed = UnescapeUnicode(fixed)
			}
			if strings.Contains(fixed, `\n`) {
				fixed = strings.ReplaceAll(fixed, `\n`, "\n")
			}
			if locale != defaultLocale && invalidEdgeSpace(base, fixed) {
				fixed = reshapeEdgeSpace(base, fixed)
			}
			if fixed != value {
				g.SetValue(locale, fixed)
				changed = true
			}
		}
	}
	return changed
}

// reshapeEdgeSpace pads or trims value so its leading and trailing space
// counts match base.
func reshapeEdgeSpace(base, value string) string {
	wantLead, wantTrail := edgeSpace(base)
	core := strings.TrimSpace(value)
	if core == "" {
		return value
	}
	return strings.Repeat(" ", wantLead) + core + strings.Repeat(" ", wantTrail)
}
