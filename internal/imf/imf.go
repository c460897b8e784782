// Package imf defines the intermediate format every converter produces and
// the writer consumes: a tree of notebooks holding notes, which in turn own
// their tags, resources and pending note links.
package imf

import (
	"strings"
	"time"
)

// Notebook is a named container. The tree is owned top-down; there are no
// back-pointers.
type Notebook struct {
	Title      string
	Created    time.Time
	Updated    time.Time
	OriginalID string
	// Path is assigned by the layout pass and is relative to the output root.
	Path string

	Notebooks []*Notebook
	Notes     []*Note
}

// Note is a single note, page or entry.
type Note struct {
	Title   string
	Body    string
	Created time.Time
	Updated time.Time
	Author  string

	Latitude  *float64
	Longitude *float64
	Altitude  *float64

	SourceApplication string
	OriginalID        string
	Path              string

	Tags      []*Tag
	Resources []*Resource
	NoteLinks []*NoteLink
}

// ReferenceID is the key other notes use to link to this one.
func (n *Note) ReferenceID() string {
	if n.OriginalID != "" {
		return n.OriginalID
	}
	return n.Title
}

// IsEmpty reports whether the note carries nothing worth writing.
func (n *Note) IsEmpty() bool {
	return strings.TrimSpace(n.Body) == "" && len(n.Tags) == 0 && len(n.Resources) == 0
}

// TagTitles returns the titles of all tags in order.
func (n *Note) TagTitles() []string {
	out := make([]string, 0, len(n.Tags))
	for _, t := range n.Tags {
		out = append(out, t.Title)
	}
	return out
}

// Tag is a label attached to a note.
type Tag struct {
	Title      string
	OriginalID string
}

// ReferenceID returns the original ID, falling back to the title.
func (t *Tag) ReferenceID() string {
	if t.OriginalID != "" {
		return t.OriginalID
	}
	return t.Title
}

// NoteLink is a reference from one note body to another note. OriginalText
// is replaced verbatim once the target path is known.
type NoteLink struct {
	OriginalText string
	OriginalID   string
	Title        string
}
