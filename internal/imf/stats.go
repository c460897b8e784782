package imf

import "fmt"

// Stats counts the entities of one or more notebook trees.
type Stats struct {
	Notebooks int `json:"notebooks"`
	Notes     int `json:"notes"`
	Resources int `json:"resources"`
	Tags      int `json:"tags"`
	NoteLinks int `json:"note_links"`
}

// Count aggregates the stats of all given trees, each root included.
func Count(roots ...*Notebook) Stats {
	var s Stats
	for _, root := range roots {
		root.Walk(func(nb *Notebook) {
			s.Notebooks++
			for _, note := range nb.Notes {
				s.Notes++
				s.Resources += len(note.Resources)
				s.Tags += len(note.Tags)
				s.NoteLinks += len(note.NoteLinks)
			}
		})
	}
	return s
}

// Add returns the field-wise sum.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Notebooks: s.Notebooks + o.Notebooks,
		Notes:     s.Notes + o.Notes,
		Resources: s.Resources + o.Resources,
		Tags:      s.Tags + o.Tags,
		NoteLinks: s.NoteLinks + o.NoteLinks,
	}
}

// Sub returns the field-wise difference.
func (s Stats) Sub(o Stats) Stats {
	return Stats{
		Notebooks: s.Notebooks - o.Notebooks,
		Notes:     s.Notes - o.Notes,
		Resources: s.Resources - o.Resources,
		Tags:      s.Tags - o.Tags,
		NoteLinks: s.NoteLinks - o.NoteLinks,
	}
}

// IsZero reports whether nothing was counted.
func (s Stats) IsZero() bool {
	return s == Stats{}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d notebooks, %d notes, %d resources, %d tags, %d note links",
		s.Notebooks, s.Notes, s.Resources, s.Tags, s.NoteLinks)
}
