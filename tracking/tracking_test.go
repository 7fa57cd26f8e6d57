package tracking

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestRecordAndGet(t *testing.T) {
	x := NewIndex("config/locales", "en")
	x.Record("tasks.title", "en", "config/locales/en/application.yml")
	x.Record("tasks.title", "de", "config/locales/de/application.yml")

	if got, ok := x.Get("tasks.title", "de"); !ok || got != "config/locales/de/application.yml" {
		t.Fatalf("Get(de) = %q, %v", got, ok)
	}
	if got, ok := x.DefaultSource("tasks.title"); !ok || got != "config/locales/en/application.yml" {
		t.Fatalf("DefaultSource = %q, %v", got, ok)
	}
	if _, ok := x.Get("tasks.title", "fr"); ok {
		t.Fatal("fr should not be tracked")
	}
	files := x.DefaultFiles()
	if len(files) != 1 || files[0] != "config/locales/en/application.yml" {
		t.Fatalf("DefaultFiles = %v", files)
	}
}

func TestTranslatePathPatterns(t *testing.T) {
	x := NewIndex("config/locales", "en")
	cases := []struct {
		in   string
		want string
	}{
		{"config/locales/en/application.yml", "config/locales/de/application.yml"},
		{"config/locales/en/views/tasks.yml", "config/locales/de/views/tasks.yml"},
		{"config/locales/en/en.yml", "config/locales/de/de.yml"},
		{"config/locales/en/javascript.en.yml", "config/locales/de/javascript.de.yml"},
		{"config/locales/en.yml", "config/locales/de.yml"},
		{"config/locales/devise.en.yml", "config/locales/devise.de.yml"},
		{"config/locales/en.devise.yml", "config/locales/de.devise.yml"},
		{"elsewhere/en.yml", ""},
		{"config/locales/shared.yml", ""},
	}
	for _, tc := range cases {
		got := x.TranslatePath(filepath.FromSlash(tc.in), "de")
		want := tc.want
		if want != "" {
			want = filepath.FromSlash(want)
		}
		if got != want {
			t.Errorf("TranslatePath(%q) = %q, want %q", tc.in, got, want)
		}
	}
}

func TestTranslatePathGettext(t *testing.T) {
	x := NewIndex("locale", "en")
	got := x.TranslatePath(filepath.FromSlash("locale/devise.en.po"), "de")
	if got != filepath.FromSlash("locale/devise.de.po") {
		t.Fatalf("TranslatePath = %q", got)
	}
}

func TestHeuristicPath(t *testing.T) {
	x := NewIndex("config/locales", "en")

	path, err := x.HeuristicPath("tasks.form.title", "de", ".yml")
	if path != filepath.Join("config/locales", "de", "tasks.yml") {
		t.Fatalf("path = %q", path)
	}
	var degraded *DegradedPathError
	if !errors.As(err, &degraded) {
		t.Fatalf("err = %v, want DegradedPathError", err)
	}
	if degraded.Key != "tasks.form.title" || degraded.Locale != "de" {
		t.Fatalf("degraded = %+v", degraded)
	}

	// Single-segment keys land in the catch-all file.
	path, _ = x.HeuristicPath("greeting", "de", ".yml")
	if path != filepath.Join("config/locales", "de", "de.yml") {
		t.Fatalf("catch-all path = %q", path)
	}
}
