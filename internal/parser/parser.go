// Package parser extracts frontmatter, links, wikilinks and tags from
// Markdown notes.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`(!?)\[\[([^\[\]]+?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	mdLinkRe   = regexp.MustCompile(`(!?)\[([^\]]*)\]\((<[^>]*>|[^)\s]+)(?:\s+"[^"]*")?\)`)
)

var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// Meta holds the frontmatter keys converters understand.
type Meta struct {
	Title   string `yaml:"title" toml:"title"`
	Author  string `yaml:"author" toml:"author"`
	Created any    `yaml:"created" toml:"created"`
	Updated any    `yaml:"updated" toml:"updated"`
	Tags    any    `yaml:"tags" toml:"tags"`
}

// CreatedTime returns the parsed creation date, if any.
func (m Meta) CreatedTime() time.Time { return toTime(m.Created) }

// UpdatedTime returns the parsed modification date, if any.
func (m Meta) UpdatedTime() time.Time { return toTime(m.Updated) }

// Link is an inline Markdown link or image. Raw is the exact source text.
type Link struct {
	Raw         string
	Text        string
	Destination string
	Image       bool
}

// Wikilink is a [[target|alias]] or ![[embed]] reference.
type Wikilink struct {
	Raw    string
	Target string
	Alias  string
	Embed  bool
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Meta      Meta
	Body      string
	Links     []Link
	Wikilinks []Wikilink
	Tags      []string
	Title     string
}

// Parse extracts frontmatter, body, links and tags from raw Markdown bytes.
// Invalid frontmatter is treated as part of the body.
func Parse(data []byte) (*Result, error) {
	var meta Meta
	body := string(data)
	rest, err := frontmatter.Parse(bytes.NewReader(data), &meta, formats...)
	if err == nil {
		body = strings.TrimLeft(string(rest), "\n\r")
	} else {
		meta = Meta{}
	}

	links, err := extractLinks([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("parser: links: %w", err)
	}

	return &Result{
		Meta:      meta,
		Body:      body,
		Links:     links,
		Wikilinks: extractWikilinks(body),
		Tags:      extractTags(body, meta.Tags),
		Title:     deriveTitle(meta, body),
	}, nil
}

// extractLinks collects inline links and images outside of code. The AST
// decides which destinations are real links; the raw text is then located
// in the source so it can be replaced verbatim later.
func extractLinks(body []byte) ([]Link, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(body))
	dests := map[string]struct{}{}
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			dests[string(v.Destination)] = struct{}{}
		case *ast.Image:
			dests[string(v.Destination)] = struct{}{}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if len(dests) == 0 {
		return nil, nil
	}

	var out []Link
	for _, m := range mdLinkRe.FindAllStringSubmatch(string(body), -1) {
		dest := strings.TrimSuffix(strings.TrimPrefix(m[3], "<"), ">")
		if _, ok := dests[dest]; !ok {
			continue
		}
		out = append(out, Link{Raw: m[0], Text: m[2], Destination: dest, Image: m[1] == "!"})
	}
	return out, nil
}

// extractWikilinks returns wikilinks in order of appearance, normalising
// aliases and dropping section anchors from the target.
func extractWikilinks(body string) []Wikilink {
	var out []Wikilink
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target, alias, _ := strings.Cut(m[2], "|")
		if i := strings.Index(target, "#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		out = append(out, Wikilink{
			Raw:    m[0],
			Target: target,
			Alias:  strings.TrimSpace(alias),
			Embed:  m[1] == "!",
		})
	}
	return out
}

// extractTags collects tags from the frontmatter "tags" field and #tags
// from the body, without duplicates.
func extractTags(body string, fmTags any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimPrefix(strings.TrimSpace(s), "#")
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := fmTags.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			add(s)
		}
	}

	for _, line := range strings.Split(stripCode(body), "\n") {
		for _, m := range tagRe.FindAllStringSubmatch(line, -1) {
			add(m[1])
		}
	}
	return out
}

// stripCode blanks fenced code blocks so that their content is not taken
// for tags.
func stripCode(body string) string {
	var b strings.Builder
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			b.WriteString("\n")
			continue
		}
		if !inFence {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// deriveTitle returns the frontmatter title if present, otherwise the first
// H1 heading, otherwise an empty string.
func deriveTitle(meta Meta, body string) string {
	if meta.Title != "" {
		return meta.Title
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}
