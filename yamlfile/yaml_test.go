package yamlfile

import (
	"errors"
	"strings"
	"testing"
)

func assertValue(t *testing.T, f *File, path, want string) {
	t.Helper()
	got, ok := f.Get(path)
	if !ok {
		t.Fatalf("path %q not found (keys: %v)", path, f.Keys())
	}
	if got != want {
		t.Fatalf("path %q = %q, want %q", path, got, want)
	}
}

func TestParseNested(t *testing.T) {
	data := []byte(`en:
  greeting: Hello
  tasks:
    form:
      title: "Task Details"
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if f.Locale() != "en" {
		t.Fatalf("Locale = %q, want en", f.Locale())
	}
	assertValue(t, f, "greeting", "Hello")
	assertValue(t, f, "tasks.form.title", "Task Details")
	if len(f.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", f.Warnings)
	}
}

func TestParseRejectsNonLocaleRoot(t *testing.T) {
	for _, data := range []string{
		"",
		"- a\n- b\n",
		"en: plain string\n",
		"en:\n  a: 1\nde:\n  a: 2\n",
	} {
		if _, err := Parse([]byte(data)); err == nil {
			t.Fatalf("Parse(%q) should fail", data)
		}
	}
}

func TestParseRejectsInvalidUTF8(t *testing.T) {
	_, err := Parse([]byte("en:\n  a: \"caf\xe9\"\n"))
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("err = %v, want ErrInvalidUTF8", err)
	}
}

func TestDuplicateKeysKeepLastWithWarning(t *testing.T) {
	data := []byte(`en:
  greeting: First
  greeting: Second
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse must tolerate duplicate keys: %v", err)
	}
	assertValue(t, f, "greeting", "Second")
	if len(f.Warnings) != 1 || !strings.Contains(f.Warnings[0], "duplicate key") {
		t.Fatalf("warnings = %v", f.Warnings)
	}
}

func TestParseSkipsNonStringScalars(t *testing.T) {
	data := []byte(`en:
  count: 42
  enabled: true
  nothing: ~
  label: Hello
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Keys()) != 1 {
		t.Fatalf("keys = %v, want only label", f.Keys())
	}
	assertValue(t, f, "label", "Hello")
}

func TestApplyUpdatesAndInserts(t *testing.T) {
	data := []byte(`en:
  tasks:
    title: Tasks
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	f.Apply(map[string]string{
		"tasks.title":      "All Tasks",
		"tasks.form.title": "Details",
		"footer.copyright": "",
	})

	out, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	round, err := Parse(out)
	if err != nil {
		t.Fatalf("re-parse error: %v", err)
	}
	assertValue(t, round, "tasks.title", "All Tasks")
	assertValue(t, round, "tasks.form.title", "Details")
	assertValue(t, round, "footer.copyright", "")

	// Empty values must be written explicitly, quoted.
	if !strings.Contains(string(out), `copyright: ""`) {
		t.Fatalf("empty value not written quoted:\n%s", out)
	}
}

func TestRoundTripPreservesCommentsAndOrder(t *testing.T) {
	data := []byte(`# Application strings
en:
  # navigation
  nav:
    home: "Home"
    about: About
  zeta: "last on purpose"
  alpha: "out of order"
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, "# Application strings") || !strings.Contains(s, "# navigation") {
		t.Fatalf("comments lost:\n%s", s)
	}
	if strings.Index(s, "zeta") > strings.Index(s, "alpha") {
		t.Fatalf("key order not preserved:\n%s", s)
	}
	// Untouched values keep their original style.
	if !strings.Contains(s, "about: About") {
		t.Fatalf("plain style not preserved:\n%s", s)
	}
}

func TestRewriteLocaleOnClone(t *testing.T) {
	data := []byte(`en:
  # keep me
  tasks:
    title: "Tasks"
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := f.Clone()
	tmpl.RewriteLocale("de")
	tmpl.Apply(map[string]string{"tasks.title": "Aufgaben"})

	out, err := tmpl.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	round, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if round.Locale() != "de" {
		t.Fatalf("template locale = %q, want de", round.Locale())
	}
	assertValue(t, round, "tasks.title", "Aufgaben")
	if !strings.Contains(string(out), "# keep me") {
		t.Fatalf("template comment lost:\n%s", out)
	}

	// The original handle must be untouched.
	if f.Locale() != "en" {
		t.Fatalf("original locale changed to %q", f.Locale())
	}
	assertValue(t, f, "tasks.title", "Tasks")
}

func TestNewFile(t *testing.T) {
	f := NewFile("fr")
	f.Apply(map[string]string{"a.b": "c"})
	out, err := f.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	round, err := Parse(out)
	if err != nil {
		t.Fatalf("re-parse error: %v\n%s", err, out)
	}
	if round.Locale() != "fr" {
		t.Fatalf("locale = %q", round.Locale())
	}
	assertValue(t, round, "a.b", "c")
}
