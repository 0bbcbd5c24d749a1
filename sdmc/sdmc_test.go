package sdmc

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestFileOpen(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "title", "00040000"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte("not really an NCCH")
	if err := os.WriteFile(filepath.Join(root, "title", "00040000", "content.app"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	file := Dir(root).File("title/00040000/content.app")
	if file.Name() != "title/00040000/content.app" {
		t.Errorf("Name() = %q", file.Name())
	}

	first, err := file.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer first.Close()

	second, err := file.Open()
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer second.Close()

	// Handles have independent cursors.
	if _, err := first.Seek(4, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(second)
	if err != nil || string(got) != string(content) {
		t.Errorf("second handle read %q, %v", got, err)
	}
}

func TestFileOpenMissing(t *testing.T) {
	file := Dir(t.TempDir()).File("missing.app")
	if _, err := file.Open(); err == nil {
		t.Error("Open() succeeded on a missing file")
	}
}
