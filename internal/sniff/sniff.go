// Package sniff guesses file types from content for resources that come
// without a usable extension.
package sniff

import (
	"io"
	"mime"
	"net/http"
	"os"
	"sort"
	"strings"
)

const sniffLen = 512

var preferredExt = map[string]string{
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
	"image/gif":        ".gif",
	"image/webp":       ".webp",
	"image/bmp":        ".bmp",
	"image/svg+xml":    ".svg",
	"image/x-icon":     ".ico",
	"application/pdf":  ".pdf",
	"application/json": ".json",
	"application/zip":  ".zip",
	"audio/mpeg":       ".mp3",
	"audio/wave":       ".wav",
	"video/mp4":        ".mp4",
	"text/plain":       ".txt",
	"text/html":        ".html",
}

// ContentType returns the sniffed MIME type of the file without parameters,
// or "" when the file cannot be read or is empty.
func ContentType(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ""
	}
	if n == 0 {
		return ""
	}

	mimeType := strings.TrimSpace(http.DetectContentType(buf[:n]))
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return strings.ToLower(mimeType)
}

// IsImage reports whether the content of path looks like an image.
func IsImage(path string) bool {
	return strings.HasPrefix(ContentType(path), "image/")
}

// Extension returns an extension (with leading dot) matching the sniffed
// content of path, or "" if nothing sensible can be derived.
func Extension(path string) string {
	mimeType := ContentType(path)
	if mimeType == "" || mimeType == "application/octet-stream" {
		return ""
	}
	if ext, ok := preferredExt[mimeType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	sort.Strings(exts)
	return exts[0]
}
