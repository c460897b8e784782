package filter

import (
	"regexp"
	"strings"
	"sync"
)

var (
	globMu    sync.Mutex
	globCache = map[string]*regexp.Regexp{}
)

// Match reports whether s matches the shell-style pattern as a whole.
// Matching is case-sensitive and "*" also matches "/".
func Match(pattern, s string) bool {
	return compile(pattern).MatchString(s)
}

func compile(pattern string) *regexp.Regexp {
	globMu.Lock()
	defer globMu.Unlock()
	if re, ok := globCache[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(translate(pattern))
	if err != nil {
		re = regexp.MustCompile(`(?s)\A` + regexp.QuoteMeta(pattern) + `\z`)
	}
	globCache[pattern] = re
	return re
}

// translate converts a glob into an anchored regular expression.
func translate(pattern string) string {
	var b strings.Builder
	b.WriteString(`(?s)\A`)
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end, class, ok := bracket(runes, i)
			if !ok {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(class)
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`\z`)
	return b.String()
}

// bracket parses a "[...]" set starting at runes[start]. It returns the index
// of the closing bracket and the equivalent regexp class.
func bracket(runes []rune, start int) (int, string, bool) {
	j := start + 1
	if j < len(runes) && runes[j] == '!' {
		j++
	}
	if j < len(runes) && runes[j] == ']' {
		j++
	}
	for j < len(runes) && runes[j] != ']' {
		j++
	}
	if j >= len(runes) {
		return 0, "", false
	}

	body := runes[start+1 : j]
	negate := false
	if len(body) > 0 && body[0] == '!' {
		negate = true
		body = body[1:]
	}

	var items strings.Builder
	for i := 0; i < len(body); i++ {
		if i+2 < len(body) && body[i+1] == '-' {
			lo, hi := body[i], body[i+2]
			i += 2
			// A reversed range matches nothing.
			if lo > hi {
				continue
			}
			items.WriteString(classRune(lo) + "-" + classRune(hi))
			continue
		}
		items.WriteString(classRune(body[i]))
	}

	switch {
	case items.Len() == 0 && negate:
		return j, ".", true
	case items.Len() == 0:
		return j, `[^\x00-\x{10FFFF}]`, true
	case negate:
		return j, "[^" + items.String() + "]", true
	default:
		return j, "[" + items.String() + "]", true
	}
}

func classRune(r rune) string {
	switch r {
	case '\\', '[', ']', '-', '^':
		return `\` + string(r)
	default:
		return string(r)
	}
}
