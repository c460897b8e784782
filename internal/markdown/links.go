// Package markdown renders the Markdown fragments the writer inserts into
// note bodies and applies frontmatter or a template to notes.
package markdown

import (
	"regexp"
	"strings"
)

var voidLinkRe = regexp.MustCompile(`!?\[\s*\]\(\s*\)`)

// Link renders a Markdown link.
func Link(title, target string) string {
	return "[" + title + "](" + target + ")"
}

// ResourceLink renders a resource either as an embedded image or as a link.
func ResourceLink(title, target string, isImage bool) string {
	if isImage {
		return "!" + Link(title, target)
	}
	return Link(title, target)
}

// StripVoidLinks removes links without text and destination, such as "[]()"
// or "![ ]( )".
func StripVoidLinks(body string) string {
	return voidLinkRe.ReplaceAllString(body, "")
}

// AppendBlock appends block to body, separated by a blank line.
func AppendBlock(body, block string) string {
	if strings.TrimSpace(body) == "" {
		return block
	}
	return strings.TrimRight(body, "\n") + "\n\n" + block
}
