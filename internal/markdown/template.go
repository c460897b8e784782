package markdown

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/marph91/jimmy/internal/imf"
)

// placeholderRe matches "{name}" and "{name:layout}".
var placeholderRe = regexp.MustCompile(`\{([a-z_]+)(?::([^{}]+))?\}`)

// Template renders notes through a user supplied text with placeholders:
// {title}, {body}, {author}, {source_application}, {tags}, {created},
// {updated}. Dates accept a Go time layout, e.g. {created:2006-01-02}.
// Unknown placeholders are kept verbatim and missing values render empty.
type Template struct {
	text string
}

// NewTemplate wraps a template text.
func NewTemplate(text string) *Template {
	return &Template{text: text}
}

// LoadTemplate reads a template from disk.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("markdown: read template: %w", err)
	}
	return NewTemplate(string(data)), nil
}

// Render returns the templated body of note.
func (t *Template) Render(note *imf.Note) string {
	return placeholderRe.ReplaceAllStringFunc(t.text, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		name, layout := sub[1], sub[2]
		switch name {
		case "title":
			return note.Title
		case "body":
			return note.Body
		case "author":
			return note.Author
		case "source_application":
			return note.SourceApplication
		case "tags":
			return strings.Join(note.TagTitles(), ", ")
		case "created":
			return renderTime(note.Created, layout)
		case "updated":
			return renderTime(note.Updated, layout)
		}
		return m
	})
}

// Apply replaces the body of every note below root with its rendering.
func (t *Template) Apply(root *imf.Notebook) {
	root.WalkNotes(func(note *imf.Note) {
		note.Body = t.Render(note)
	})
}

func renderTime(ts time.Time, layout string) string {
	if ts.IsZero() {
		return ""
	}
	if layout == "" {
		layout = time.RFC3339
	}
	return ts.Format(layout)
}
