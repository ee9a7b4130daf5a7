package docinfo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInspect_PlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := Inspect(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "notes.txt" || info.Size != 5 || info.Pages != 0 {
		t.Errorf("info = %+v", info)
	}
}

func TestInspect_BrokenPDFStillReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := Inspect(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Pages != 0 {
		t.Errorf("Pages = %d, want 0 for an unparseable pdf", info.Pages)
	}
}

func TestInspect_Missing(t *testing.T) {
	if _, err := Inspect(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestInspect_Directory(t *testing.T) {
	if _, err := Inspect(t.TempDir()); err == nil {
		t.Fatal("expected an error for a directory")
	}
}
