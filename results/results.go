// Package results aggregates a parsed project, its validation report and
// any per-file failures into per-locale statistics and a human-readable
// status report.
package results

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openlocale/polyglot/langmeta"
	"github.com/openlocale/polyglot/model"
	"github.com/openlocale/polyglot/parse"
	"github.com/openlocale/polyglot/project"
	"github.com/openlocale/polyglot/validate"
)

// LocaleStatus summarises one locale across all editable keys.
type LocaleStatus struct {
	Locale     string
	Files      int
	Translated int
	Missing    int
	Stale      int
	Invalid    int
}

// Percent returns the translated share in whole percent.
func (ls LocaleStatus) Percent() int {
	total := ls.Translated + ls.Missing
	if total == 0 {
		return 100
	}
	return ls.Translated * 100 / total
}

// Summary is the full outcome of a status or check run.
type Summary struct {
	Root          string
	Format        project.Format
	DefaultLocale string
	TotalKeys     int
	Orphaned      int
	Locales       []LocaleStatus
	FailedFiles   []parse.Failure
	Warnings      []string
	Validation    *validate.Report
}

// Collect builds the summary. report may be nil when validation was not run.
func Collect(p *project.Project, src *parse.Result, report *validate.Report) *Summary {
	s := &Summary{
		Root:          p.Root,
		Format:        p.Format,
		DefaultLocale: p.DefaultLocale,
		TotalKeys:     len(src.Model.BaseKeys()),
		Orphaned:      src.Model.Len() - len(src.Model.BaseKeys()),
		FailedFiles:   append([]parse.Failure(nil), src.Failed...),
		Warnings:      append([]string(nil), src.Warnings...),
		Validation:    report,
	}

	baseKeys := src.Model.BaseKeys()
	for _, locale := range p.Locales {
		ls := LocaleStatus{Locale: locale, Files: len(p.FilesByLocale[locale])}
		for _, key := range baseKeys {
			g := src.Model.Get(key)
			if v := g.Value(locale, p.DefaultLocale); v != "" {
				ls.Translated++
			} else {
				ls.Missing++
			}
			if g.Stale[locale] {
				ls.Stale++
			}
			ls.Invalid += len(g.Flags[locale])
		}
		s.Locales = append(s.Locales, ls)
	}
	sort.Slice(s.Locales, func(i, j int) bool { return s.Locales[i].Locale < s.Locales[j].Locale })
	return s
}

// OK reports whether the run found nothing wrong: no unparsable files and,
// when validation ran, no flagged values.
func (s *Summary) OK() bool {
	if len(s.FailedFiles) > 0 {
		return false
	}
	if s.Validation != nil && len(s.Validation.Groups) > 0 {
		return false
	}
	return true
}

// Render produces the status report.
func (s *Summary) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s (%s, default %s)\n", s.Root, s.Format, s.DefaultLocale)
	fmt.Fprintf(&b, "Keys: %d editable", s.TotalKeys)
	if s.Orphaned > 0 {
		fmt.Fprintf(&b, ", %d orphaned", s.Orphaned)
	}
	b.WriteString("\n\n")

	for _, ls := range s.Locales {
		marker := " "
		if ls.Locale == s.DefaultLocale {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %-30s %3d%%  %d/%d translated",
			marker, langmeta.Label(ls.Locale), ls.Percent(), ls.Translated, ls.Translated+ls.Missing)
		if ls.Stale > 0 {
			fmt.Fprintf(&b, ", %d stale", ls.Stale)
		}
		if ls.Invalid > 0 {
			fmt.Fprintf(&b, ", %d invalid", ls.Invalid)
		}
		b.WriteString("\n")
	}

	if s.Validation != nil {
		if len(s.Validation.Totals) > 0 || s.Validation.MissingTotal > 0 {
			b.WriteString("\nValidation:\n")
			fmt.Fprintf(&b, "  missing: %d\n", s.Validation.MissingTotal)
			for _, flag := range sortedFlags(s.Validation.Totals) {
				fmt.Fprintf(&b, "  %s: %d\n", flag, s.Validation.Totals[flag])
			}
		} else {
			b.WriteString("\nValidation: clean\n")
		}
	}

	if len(s.FailedFiles) > 0 {
		b.WriteString("\nSkipped files:\n")
		for _, f := range s.FailedFiles {
			fmt.Fprintf(&b, "  %s: %v\n", f.Path, f.Err)
		}
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range s.Warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}
	return b.String()
}

func sortedFlags(totals map[model.Flag]int) []model.Flag {
	flags := make([]model.Flag, 0, len(totals))
	for f := range totals {
		flags = append(flags, f)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}
