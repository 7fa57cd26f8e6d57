package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDetectRailsDirPerLocale(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config", "locales", "en", "application.yml"), "en:\n  a: b\n")
	writeFile(t, filepath.Join(root, "config", "locales", "de", "application.yml"), "de:\n  a: c\n")

	p, err := Detect(root, "")
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if p.Format != FormatYAML || p.Layout != LayoutDirPerLocale {
		t.Fatalf("format=%s layout=%s", p.Format, p.Layout)
	}
	if p.DefaultLocale != "en" {
		t.Fatalf("default locale = %s", p.DefaultLocale)
	}
	if len(p.Locales) != 2 || p.Locales[0] != "de" || p.Locales[1] != "en" {
		t.Fatalf("locales = %v", p.Locales)
	}
}

func TestDetectFlatFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config", "locales", "en.yml"), "en:\n  a: b\n")
	writeFile(t, filepath.Join(root, "config", "locales", "devise.fr.yml"), "fr:\n  a: b\n")
	writeFile(t, filepath.Join(root, "config", "locales", "shared.yml"), "x:\n  a: b\n")

	p, err := Detect(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if p.Layout != LayoutFlat {
		t.Fatalf("layout = %s", p.Layout)
	}
	if len(p.FilesByLocale["en"]) != 1 || len(p.FilesByLocale["fr"]) != 1 {
		t.Fatalf("files = %v", p.FilesByLocale)
	}
	// shared.yml has no locale-bearing segment and must be ignored.
	if len(p.Locales) != 2 {
		t.Fatalf("locales = %v", p.Locales)
	}
}

func TestDetectLocaleBeatsLocales(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "locale", "en.po"), "msgid \"\"\nmsgstr \"\"\n")
	writeFile(t, filepath.Join(root, "locales", "en.po"), "msgid \"\"\nmsgstr \"\"\n")

	p, err := Detect(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if p.LocaleDir != filepath.Join(root, "locale") {
		t.Fatalf("locale dir = %s", p.LocaleDir)
	}
	if p.Format != FormatGettext {
		t.Fatalf("format = %s", p.Format)
	}
}

func TestDetectGettextLCMessages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "locale", "en", "LC_MESSAGES", "base.po"), "msgid \"\"\nmsgstr \"\"\n")
	writeFile(t, filepath.Join(root, "locale", "pt_BR", "LC_MESSAGES", "base.po"), "msgid \"\"\nmsgstr \"\"\n")

	p, err := Detect(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if p.Layout != LayoutDirPerLocale {
		t.Fatalf("layout = %s", p.Layout)
	}
	if len(p.FilesByLocale["pt_BR"]) != 1 {
		t.Fatalf("pt_BR files = %v", p.FilesByLocale["pt_BR"])
	}
}

func TestDetectErrors(t *testing.T) {
	if _, err := Detect(t.TempDir(), ""); !errors.Is(err, ErrNoLocaleDir) {
		t.Fatalf("err = %v, want ErrNoLocaleDir", err)
	}

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "locale"), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := Detect(root, ""); !errors.Is(err, ErrNoDefaultLocale) {
		t.Fatalf("err = %v, want ErrNoDefaultLocale", err)
	}
}

func TestDetectExplicitDefaultLocale(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config", "locales", "fr.yml"), "fr:\n  a: b\n")

	p, err := Detect(root, "fr")
	if err != nil {
		t.Fatal(err)
	}
	if p.DefaultLocale != "fr" {
		t.Fatalf("default = %s", p.DefaultLocale)
	}
}

func TestDetectExtractorConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "locale", "en.po"), "msgid \"\"\nmsgstr \"\"\n")
	writeFile(t, filepath.Join(root, "babel.cfg"), "[python: **.py]\n")

	p, err := Detect(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if p.ExtractorConfig != filepath.Join(root, "babel.cfg") {
		t.Fatalf("extractor config = %q", p.ExtractorConfig)
	}
}

func TestIsLocaleCode(t *testing.T) {
	valid := []string{"en", "de", "en-GB", "pt_BR"}
	invalid := []string{"EN", "english", "e", "en-gb", "en_gbx", "devise"}
	for _, s := range valid {
		if !IsLocaleCode(s) {
			t.Errorf("IsLocaleCode(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsLocaleCode(s) {
			t.Errorf("IsLocaleCode(%q) = true, want false", s)
		}
	}
}
