package paths

import (
	"net/url"
	"path/filepath"
	"strings"
)

// RelativeLink renders target relative to the directory fromDir as a
// Markdown link destination: slash separated, "./" prefixed unless it goes
// upwards, and wrapped in angle brackets when a segment is not URL-safe.
func RelativeLink(fromDir, target string) string {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		rel = target
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") && rel != ".." {
		rel = "./" + strings.TrimPrefix(rel, "./")
	}
	return Destination(rel)
}

// Destination wraps dest in angle brackets when a segment is not URL-safe,
// so that spaces and parentheses survive as a Markdown link destination.
func Destination(dest string) string {
	if needsQuoting(dest) {
		return "<" + dest + ">"
	}
	return dest
}

func needsQuoting(p string) bool {
	for _, segment := range strings.Split(p, "/") {
		if segment == "." || segment == ".." || segment == "" {
			continue
		}
		if url.PathEscape(segment) != segment {
			return true
		}
	}
	return false
}
