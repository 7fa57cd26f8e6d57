package writeback

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openlocale/polyglot/format"
	"github.com/openlocale/polyglot/model"
	"github.com/openlocale/polyglot/parse"
	"github.com/openlocale/polyglot/project"
	"github.com/openlocale/polyglot/sourcehash"
	"github.com/openlocale/polyglot/tracking"
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

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func railsSetup(t *testing.T) (*project.Project, *parse.Result, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "config", "locales")
	writeFile(t, filepath.Join(dir, "en", "application.yml"),
		"en:\n  app:\n    title: \"My App\"\n    footer: \"All rights reserved\"\n")
	writeFile(t, filepath.Join(dir, "de", "application.yml"),
		"# German strings\nde:\n  app:\n    title: \"Meine App\"\n    footer: \"Alle Rechte vorbehalten\"\n")

	p, err := project.Detect(root, "")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return p, parse.Run(p, nil), dir
}

func TestWriteEditedValue(t *testing.T) {
	p, src, dir := railsSetup(t)
	lock := sourcehash.Load(p.Root)

	src.Model.Get("app.title").SetValue("de", "Meine neue App")

	res := (&Engine{Project: p, Source: src, Lock: lock}).Run()
	if len(res.Failed) != 0 {
		t.Fatalf("failures: %v", res.Failed)
	}

	dePath := filepath.Join(dir, "de", "application.yml")
	if len(res.Written) != 1 || res.Written[0] != dePath {
		t.Fatalf("Written = %v, want only the de file", res.Written)
	}

	content := readFile(t, dePath)
	if !strings.Contains(content, `"Meine neue App"`) {
		t.Errorf("edited value missing:\n%s", content)
	}
	if !strings.Contains(content, "# German strings") {
		t.Errorf("comment lost:\n%s", content)
	}
	if !strings.Contains(content, `"Alle Rechte vorbehalten"`) {
		t.Errorf("untouched value lost:\n%s", content)
	}

	// The lock now records the base strings the de values were written
	// against.
	reloaded := sourcehash.Load(p.Root)
	if reloaded.IsStale("de", "app.title", "My App") {
		t.Error("fresh translation reported stale")
	}
	if !reloaded.IsStale("de", "app.title", "My App v2") {
		t.Error("base change not detected by recorded hash")
	}
}

func TestZeroEditRunWritesNothing(t *testing.T) {
	p, src, dir := railsSetup(t)
	before := readFile(t, filepath.Join(dir, "de", "application.yml"))

	res := (&Engine{Project: p, Source: src}).Run()

	if len(res.Written) != 0 {
		t.Errorf("Written = %v, want none", res.Written)
	}
	if after := readFile(t, filepath.Join(dir, "de", "application.yml")); after != before {
		t.Error("unedited file was rewritten")
	}
}

func TestCreatesMissingLocaleFromTemplate(t *testing.T) {
	p, src, dir := railsSetup(t)

	// A locale added to the project without any file yet.
	p.Locales = append(p.Locales, "fr")
	src.Model.Get("app.title").SetValue("fr", "Mon App")

	res := (&Engine{Project: p, Source: src}).Run()
	if len(res.Failed) != 0 {
		t.Fatalf("failures: %v", res.Failed)
	}

	frPath := filepath.Join(dir, "fr", "application.yml")
	content := readFile(t, frPath)
	if !strings.HasPrefix(strings.TrimLeft(content, "# \n"), "fr:") {
		t.Errorf("top-level key should be fr:\n%s", content)
	}
	if !strings.Contains(content, `"Mon App"`) {
		t.Errorf("translated value missing:\n%s", content)
	}
	// Untranslated keys are written as explicit empty values.
	if !strings.Contains(content, `footer: ""`) {
		t.Errorf("untranslated key should be explicit empty:\n%s", content)
	}
}

func TestNeverOverwritesUnparsedFile(t *testing.T) {
	p, src, dir := railsSetup(t)
	broken := filepath.Join(dir, "fr", "application.yml")
	writeFile(t, broken, "fr: [unclosed\n")

	p, err := project.Detect(p.Root, "")
	if err != nil {
		t.Fatal(err)
	}
	src = parse.Run(p, nil)
	src.Model.Get("app.title").SetValue("fr", "Mon App")

	res := (&Engine{Project: p, Source: src}).Run()

	if readFile(t, broken) != "fr: [unclosed\n" {
		t.Error("unparsed file was overwritten")
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "did not parse") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a skip warning, got %v", res.Warnings)
	}
}

func TestGettextWriteAndCompile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "locale")
	writeFile(t, filepath.Join(dir, "en.po"), `msgid ""
msgstr ""
"Language: en\n"

msgid "Save"
msgstr ""

msgid "Cancel"
msgstr ""
`)
	writeFile(t, filepath.Join(dir, "de.po"), `msgid ""
msgstr ""
"Language: de\n"

msgid "Save"
msgstr "Speichern"

#, fuzzy
msgid "Cancel"
msgstr "Abbruch"
`)

	p, err := project.Detect(root, "")
	if err != nil {
		t.Fatal(err)
	}
	src := parse.Run(p, nil)

	g := src.Model.Get("Cancel")
	g.SetValue("de", "Abbrechen")
	g.Stale["de"] = false

	res := (&Engine{Project: p, Source: src, CompileMO: true}).Run()
	if len(res.Failed) != 0 {
		t.Fatalf("failures: %v", res.Failed)
	}

	dePath := filepath.Join(dir, "de.po")
	content := readFile(t, dePath)
	if !strings.Contains(content, `msgstr "Abbrechen"`) {
		t.Errorf("edited msgstr missing:\n%s", content)
	}
	if strings.Contains(content, "#, fuzzy") {
		t.Errorf("fuzzy flag should be cleared by the confirmed edit:\n%s", content)
	}
	if _, err := os.Stat(filepath.Join(dir, "de.mo")); err != nil {
		t.Error("MO sibling was not compiled")
	}
	// The untouched en file stays as it was.
	for _, w := range res.Written {
		if w == filepath.Join(dir, "en.po") {
			t.Error("unedited en.po was rewritten")
		}
	}
}

func TestHeuristicTargetFallback(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "config", "locales")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	// A base key tracked to a file whose name carries no locale: no
	// counterpart path can be derived from it.
	src := &parse.Result{
		Model:     model.NewSet(),
		Index:     tracking.NewIndex(dir, "en"),
		Adapter:   &format.NestedYAML{},
		Handles:   map[string]format.Handle{},
		Extracted: map[string]map[string]string{},
	}
	g := src.Model.Ensure("nav.home", true)
	g.SetValue("en", "Home")
	g.SetValue("de", "Start")
	src.Index.Record("nav.home", "en", filepath.Join(dir, "strings.yml"))

	p := &project.Project{
		Root:          root,
		LocaleDir:     dir,
		Format:        project.FormatYAML,
		Layout:        project.LayoutFlat,
		DefaultLocale: "en",
		Locales:       []string{"de", "en"},
		FilesByLocale: map[string][]string{},
	}

	res := (&Engine{Project: p, Source: src}).Run()

	degraded := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "heuristic") {
			degraded = true
		}
	}
	if !degraded {
		t.Errorf("expected a degraded-path warning, got %v", res.Warnings)
	}

	target := filepath.Join(dir, "de", "nav.yml")
	content := readFile(t, target)
	if !strings.Contains(content, `"Start"`) {
		t.Errorf("heuristic target missing the value:\n%s", content)
	}
}
