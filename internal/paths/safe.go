// Package paths turns arbitrary titles into portable file names, resolves
// name collisions in the output tree and renders relative link targets.
package paths

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxNameLength is used when no positive limit is configured.
const DefaultMaxNameLength = 50

// forbiddenChars covers Windows and POSIX. Control characters are handled
// separately.
const forbiddenChars = `<>:"/\|?*`

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// Safe returns a single path segment derived from name that is valid on
// Windows and POSIX and at most maxLength runes long.
func Safe(name string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxNameLength
	}

	var b strings.Builder
	for _, r := range norm.NFC.String(name) {
		if r < 32 || strings.ContainsRune(forbiddenChars, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	cleaned := b.String()
	if cleaned == "" {
		cleaned = "unnamed_" + uuid.NewString()
	}

	out := fixName(truncate(cleaned, maxLength))
	if utf8.RuneCountInString(out) > maxLength {
		// fixName appended a marker; make room for it.
		out = fixName(truncate(cleaned, maxLength-1))
	}
	return out
}

// fixName handles dot names, trailing spaces/periods and device names.
func fixName(s string) string {
	if s == "." || s == ".." {
		return s + "_"
	}

	trimmed := strings.TrimRight(s, " .")
	if len(trimmed) != len(s) {
		s = trimmed + strings.Repeat("_", len(s)-len(trimmed))
	}

	stem, rest, _ := strings.Cut(s, ".")
	if _, ok := reservedNames[strings.ToUpper(stem)]; ok {
		if rest != "" {
			return stem + "_." + rest
		}
		return stem + "_"
	}
	return s
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
