package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsImage(t *testing.T) {
	cases := map[string]bool{
		"photo.jpg":     true,
		"photo.JPEG":    true,
		"scan.png":      true,
		"art.webp":      true,
		"notes.txt":     false,
		"clip.gif":      false,
		"noextension":   false,
		"archive.png.z": false,
	}
	for name, want := range cases {
		if got := IsImage(name); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestListImagesFiltersAndSkipsDirs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.png", "skip.txt", "c.WEBP"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages returned error: %v", err)
	}
	want := []string{"a.png", "b.jpg", "c.WEBP"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "moved", "src.jpg")

	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "moved"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile returned error: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present after move: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Fatalf("destination content mismatch: %q", got)
	}
}

func TestMoveFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := MoveFile(filepath.Join(dir, "absent.jpg"), filepath.Join(dir, "dst.jpg")); err == nil {
		t.Fatal("expected error for missing source")
	}
}
