package sniff

import (
	"os"
	"path/filepath"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", pngHeader, ".png"},
		{"pdf", []byte("%PDF-1.4\n"), ".pdf"},
		{"text", []byte("just some words\n"), ".txt"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, "blob", tt.data)
			if got := Extension(p); got != tt.want {
				t.Errorf("Extension = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsImage(t *testing.T) {
	if !IsImage(writeFile(t, "img", pngHeader)) {
		t.Error("png content should be an image")
	}
	if IsImage(writeFile(t, "txt", []byte("hello"))) {
		t.Error("text should not be an image")
	}
	if IsImage(filepath.Join(t.TempDir(), "missing")) {
		t.Error("missing file should not be an image")
	}
}
