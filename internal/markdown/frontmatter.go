package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marph91/jimmy/internal/imf"
)

// Frontmatter styles.
const (
	FrontmatterNone      = ""
	FrontmatterJoplin    = "joplin"
	FrontmatterObsidian  = "obsidian"
	FrontmatterQOwnNotes = "qownnotes"
)

// FrontmatterStyles lists every supported non-empty style.
var FrontmatterStyles = []string{FrontmatterJoplin, FrontmatterObsidian, FrontmatterQOwnNotes}

type joplinMeta struct {
	Title     string   `yaml:"title,omitempty"`
	Created   string   `yaml:"created,omitempty"`
	Updated   string   `yaml:"updated,omitempty"`
	Author    string   `yaml:"author,omitempty"`
	Latitude  *float64 `yaml:"latitude,omitempty"`
	Longitude *float64 `yaml:"longitude,omitempty"`
	Altitude  *float64 `yaml:"altitude,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
}

type obsidianMeta struct {
	Tags    []string `yaml:"tags,omitempty"`
	Created string   `yaml:"created,omitempty"`
	Updated string   `yaml:"updated,omitempty"`
}

type qownnotesMeta struct {
	Title string `yaml:"title,omitempty"`
	Tags  string `yaml:"tags,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Frontmatter renders the YAML block for note in the given style. It returns
// an empty string for FrontmatterNone or when there is nothing to render.
func Frontmatter(note *imf.Note, style string) (string, error) {
	var meta any
	switch style {
	case FrontmatterNone:
		return "", nil
	case FrontmatterJoplin:
		meta = joplinMeta{
			Title:     note.Title,
			Created:   formatTime(note.Created),
			Updated:   formatTime(note.Updated),
			Author:    note.Author,
			Latitude:  note.Latitude,
			Longitude: note.Longitude,
			Altitude:  note.Altitude,
			Tags:      note.TagTitles(),
		}
	case FrontmatterObsidian:
		meta = obsidianMeta{
			Tags:    note.TagTitles(),
			Created: formatTime(note.Created),
			Updated: formatTime(note.Updated),
		}
	case FrontmatterQOwnNotes:
		tags := make([]string, 0, len(note.Tags))
		for _, t := range note.TagTitles() {
			tags = append(tags, strings.ReplaceAll(t, " ", "_"))
		}
		meta = qownnotesMeta{Title: note.Title, Tags: strings.Join(tags, " ")}
	default:
		return "", fmt.Errorf("markdown: unknown frontmatter style %q", style)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return "", fmt.Errorf("markdown: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("markdown: encode frontmatter: %w", err)
	}
	out := buf.String()
	if strings.TrimSpace(out) == "{}" {
		return "", nil
	}
	return "---\n" + out + "---\n", nil
}

// ApplyFrontmatter prepends the frontmatter of the given style to every note
// below root.
func ApplyFrontmatter(root *imf.Notebook, style string) error {
	if style == FrontmatterNone {
		return nil
	}
	var firstErr error
	root.WalkNotes(func(note *imf.Note) {
		if firstErr != nil {
			return
		}
		fm, err := Frontmatter(note, style)
		if err != nil {
			firstErr = err
			return
		}
		if fm != "" {
			note.Body = fm + "\n" + note.Body
		}
	})
	return firstErr
}
