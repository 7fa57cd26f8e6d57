package extract

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFindSourcesSkipsNonSourceDirs(t *testing.T) {
	root := t.TempDir()
	write := func(rel string) {
		t.Helper()
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("app.py")
	write("ui/window.rb")
	write("node_modules/dep/index.js")
	write("locale/en.po")
	write("README.md")

	files, err := FindSources(root)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "app.py"),
		filepath.Join(root, "ui", "window.rb"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("FindSources = %v, want %v", files, want)
	}
}

func TestDetectedLanguages(t *testing.T) {
	files := []string{"a.py", "b.py", "c.rb", "d.sh"}
	want := []string{"Python", "Ruby", "Shell"}
	if got := DetectedLanguages(files); !reflect.DeepEqual(got, want) {
		t.Fatalf("DetectedLanguages = %v, want %v", got, want)
	}
}

func TestRunRejectsEmptyInput(t *testing.T) {
	if _, err := Run(nil, filepath.Join(t.TempDir(), "out.pot"), "demo", "1.0"); err == nil {
		t.Fatal("Run with no files should fail")
	}
}
