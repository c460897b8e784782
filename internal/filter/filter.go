// Package filter selects the notes and tags a user wants to import.
package filter

import "github.com/marph91/jimmy/internal/imf"

// Options holds glob lists for the note and tag filters. Within each level
// only the highest-priority non-empty list is applied.
type Options struct {
	ExcludeNotes         []string `yaml:"exclude_notes"`
	IncludeNotes         []string `yaml:"include_notes"`
	ExcludeNotesWithTags []string `yaml:"exclude_notes_with_tags"`
	IncludeNotesWithTags []string `yaml:"include_notes_with_tags"`
	ExcludeTags          []string `yaml:"exclude_tags"`
	IncludeTags          []string `yaml:"include_tags"`
}

// NoteFilter returns the predicate a note must satisfy to be kept.
func (o Options) NoteFilter() func(*imf.Note) bool {
	switch {
	case len(o.ExcludeNotes) > 0:
		return func(n *imf.Note) bool { return !matchAny(o.ExcludeNotes, n.Title) }
	case len(o.IncludeNotes) > 0:
		return func(n *imf.Note) bool { return matchAny(o.IncludeNotes, n.Title) }
	case len(o.ExcludeNotesWithTags) > 0:
		return func(n *imf.Note) bool { return !anyTagMatches(o.ExcludeNotesWithTags, n.Tags) }
	case len(o.IncludeNotesWithTags) > 0:
		return func(n *imf.Note) bool { return anyTagMatches(o.IncludeNotesWithTags, n.Tags) }
	default:
		return nil
	}
}

// TagFilter returns the predicate a tag must satisfy to be kept.
func (o Options) TagFilter() func(*imf.Tag) bool {
	switch {
	case len(o.ExcludeTags) > 0:
		return func(t *imf.Tag) bool { return !matchAny(o.ExcludeTags, t.Title) }
	case len(o.IncludeTags) > 0:
		return func(t *imf.Tag) bool { return matchAny(o.IncludeTags, t.Title) }
	default:
		return nil
	}
}

// Apply filters the notes and tags of every tree in place. Child notebooks
// are processed before their parent's notes.
func Apply(roots []*imf.Notebook, opts Options) {
	keepNote := opts.NoteFilter()
	keepTag := opts.TagFilter()
	if keepNote == nil && keepTag == nil {
		return
	}
	for _, root := range roots {
		apply(root, keepNote, keepTag)
	}
}

func apply(nb *imf.Notebook, keepNote func(*imf.Note) bool, keepTag func(*imf.Tag) bool) {
	for _, child := range nb.Notebooks {
		apply(child, keepNote, keepTag)
	}

	if keepNote != nil {
		nb.Notes = keep(nb.Notes, keepNote)
	}
	if keepTag != nil {
		for _, note := range nb.Notes {
			note.Tags = keep(note.Tags, keepTag)
		}
	}
}

func keep[T any](items []*T, pred func(*T) bool) []*T {
	out := make([]*T, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

func matchAny(patterns []string, s string) bool {
	for _, p := range patterns {
		if Match(p, s) {
			return true
		}
	}
	return false
}

func anyTagMatches(patterns []string, tags []*imf.Tag) bool {
	for _, t := range tags {
		if matchAny(patterns, t.Title) {
			return true
		}
	}
	return false
}
