// Package project implements auto-detection of a translation project's
// layout: where the locale files live, which format they use, how they are
// organised per locale, and which locale is the default.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Format identifies the translation file format of a project.
type Format string

const (
	// FormatGettext: PO/MO files under locale/ or locales/.
	FormatGettext Format = "gettext"
	// FormatYAML: Rails-style nested YAML under config/locales/.
	FormatYAML Format = "yaml"
)

// Layout indicates how locale files are organised.
type Layout string

const (
	// LayoutDirPerLocale: locale/en/*.po, config/locales/en/*.yml.
	LayoutDirPerLocale Layout = "dir-per-locale"
	// LayoutFlat: locale/en.po, config/locales/en.yml, config/locales/devise.en.yml.
	LayoutFlat Layout = "flat"
)

// ErrNoLocaleDir is the fatal condition: no locale directory exists at all.
var ErrNoLocaleDir = fmt.Errorf("no locale directory found")

// ErrNoDefaultLocale is the fatal condition: the default locale cannot be
// determined.
var ErrNoDefaultLocale = fmt.Errorf("default locale could not be determined")

// localePattern matches a locale-bearing filename segment: "en", "en-GB",
// "pt_BR".
var localePattern = regexp.MustCompile(`^[a-z]{2}([-_][A-Z]{2})?$`)

// IsLocaleCode reports whether s looks like a locale code.
func IsLocaleCode(s string) bool {
	return localePattern.MatchString(s)
}

// Project holds a detected translation project.
type Project struct {
	// Root is the project directory.
	Root string
	// LocaleDir is the detected locale directory (absolute).
	LocaleDir string
	// Format is the translation file format.
	Format Format
	// Layout is how files are organised per locale.
	Layout Layout
	// DefaultLocale is fixed at detection time; no single write changes it.
	DefaultLocale string
	// Locales are all detected locale codes, sorted, default included.
	Locales []string
	// FilesByLocale maps locale code → translation file paths.
	FilesByLocale map[string][]string
	// ExtractorConfig is the path to an extractor configuration file
	// (babel.cfg style) when one exists in the project root. The extraction
	// tool itself is an external collaborator; only its template output is
	// consumed here.
	ExtractorConfig string
}

// Ext returns the translation file extension for the project format.
func (p *Project) Ext() string {
	if p.Format == FormatGettext {
		return ".po"
	}
	return ".yml"
}

// Detect inspects root and returns the project layout. defaultLocale may be
// "" to auto-select: "en" when present, otherwise the first detected locale.
func Detect(root, defaultLocale string) (*Project, error) {
	p := &Project{Root: root, FilesByLocale: make(map[string][]string)}

	// Rails projects keep YAML under config/locales; gettext projects use
	// locale/ or locales/, with locale/ winning when both exist.
	candidates := []struct {
		dir    string
		format Format
	}{
		{filepath.Join(root, "config", "locales"), FormatYAML},
		{filepath.Join(root, "locale"), FormatGettext},
		{filepath.Join(root, "locales"), FormatGettext},
	}
	for _, c := range candidates {
		if info, err := os.Stat(c.dir); err == nil && info.IsDir() {
			p.LocaleDir = c.dir
			p.Format = c.format
			break
		}
	}
	if p.LocaleDir == "" {
		return nil, fmt.Errorf("%w under %s", ErrNoLocaleDir, root)
	}

	if err := p.gather(); err != nil {
		return nil, err
	}

	switch {
	case defaultLocale != "":
		p.DefaultLocale = defaultLocale
	case contains(p.Locales, "en"):
		p.DefaultLocale = "en"
	case len(p.Locales) > 0:
		p.DefaultLocale = p.Locales[0]
	default:
		return nil, ErrNoDefaultLocale
	}

	if cfg := filepath.Join(root, "babel.cfg"); fileExists(cfg) {
		p.ExtractorConfig = cfg
	}
	return p, nil
}

// gather scans the locale directory. Matching subdirectories take
// precedence; flat locale-named files are collected second.
func (p *Project) gather() error {
	entries, err := os.ReadDir(p.LocaleDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", p.LocaleDir, err)
	}

	ext := p.Ext()
	sawDirs := false
	for _, e := range entries {
		if e.IsDir() && IsLocaleCode(e.Name()) {
			// An empty locale directory still declares the locale.
			p.FilesByLocale[e.Name()] = collectFiles(filepath.Join(p.LocaleDir, e.Name()), ext)
			sawDirs = true
		}
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		if locale, ok := localeFromFilename(e.Name()); ok {
			p.FilesByLocale[locale] = append(p.FilesByLocale[locale],
				filepath.Join(p.LocaleDir, e.Name()))
		}
	}

	if sawDirs {
		p.Layout = LayoutDirPerLocale
	} else {
		p.Layout = LayoutFlat
	}

	for locale := range p.FilesByLocale {
		sort.Strings(p.FilesByLocale[locale])
		p.Locales = append(p.Locales, locale)
	}
	sort.Strings(p.Locales)
	return nil
}

// localeFromFilename extracts the locale from a flat filename: "en.yml" → en,
// "devise.en.yml" → en, "en-GB.yml" → en-GB.
func localeFromFilename(name string) (string, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.LastIndex(stem, "."); i >= 0 {
		stem = stem[i+1:]
	}
	if IsLocaleCode(stem) {
		return stem, true
	}
	return "", false
}

// collectFiles walks dir recursively for files with the given extension
// (covers both locale/en/*.po and locale/en/LC_MESSAGES/*.po).
func collectFiles(dir, ext string) []string {
	var files []string
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(path, ext) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
