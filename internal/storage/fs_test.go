package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marph91/jimmy/internal/checksum"
)

func tempOutput(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempOutput(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
	if !s.Exists("note.md") {
		t.Error("Exists(note.md) = false")
	}
	if s.Exists("other.md") {
		t.Error("Exists(other.md) = true")
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempOutput(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestMkdirAll(t *testing.T) {
	s := tempOutput(t)
	if err := s.MkdirAll("x/y"); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	info, err := os.Stat(filepath.Join(s.Root(), "x", "y"))
	if err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
}

func TestCopyAndHash(t *testing.T) {
	s := tempOutput(t)
	src := filepath.Join(t.TempDir(), "image.png")
	data := []byte("pretend png")
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Copy(src, "res/image.png"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	sum, err := s.Hash("res/image.png")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if want := checksum.Sum(data); sum != want {
		t.Errorf("Hash = %q, want %q", sum, want)
	}
}

func TestCopyMissingSource(t *testing.T) {
	s := tempOutput(t)
	if err := s.Copy(filepath.Join(t.TempDir(), "missing"), "x"); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestList(t *testing.T) {
	s := tempOutput(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.md", []byte("b"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write(".jimmy/hidden.md", []byte("skip"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempOutput(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if s.Exists(p) {
			t.Errorf("Exists(%q) = true", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	s := tempOutput(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".jimmy-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new", "output")
	if _, err := NewFS(dir); err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("root not created: %v", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "jimmy-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
