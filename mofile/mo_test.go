package mofile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openlocale/polyglot/pofile"
)

func TestCompileAndRead(t *testing.T) {
	f := pofile.NewFile()
	f.Header = pofile.NewHeader("demo", "1.0", "de")
	f.Entries = append(f.Entries,
		&pofile.Entry{MsgID: "Tasks", MsgStr: "Aufgaben"},
		&pofile.Entry{MsgID: "Save", MsgStr: "Speichern"},
		&pofile.Entry{MsgID: "untranslated", MsgStr: ""},
	)
	fuzzy := &pofile.Entry{MsgID: "Draft", MsgStr: "Entwurf"}
	fuzzy.SetFuzzy(true)
	f.Entries = append(f.Entries, fuzzy)

	path := filepath.Join(t.TempDir(), "base.mo")
	if err := WriteFile(f, path); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	msgs, err := Read(path)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if msgs["Tasks"] != "Aufgaben" || msgs["Save"] != "Speichern" {
		t.Fatalf("messages = %v", msgs)
	}
	if _, ok := msgs["untranslated"]; ok {
		t.Fatal("untranslated entry must be skipped")
	}
	if _, ok := msgs["Draft"]; ok {
		t.Fatal("fuzzy entry must be skipped")
	}
	if _, ok := msgs[""]; !ok {
		t.Fatal("header entry missing")
	}
}

func TestReadRejectsNonMO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.mo")
	if err := os.WriteFile(path, []byte("not an mo file, padded to header size...."), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("expected magic number error")
	}
}
