package manifest

import "time"

// ImportRow is one recorded conversion run.
type ImportRow struct {
	ID        int64     `json:"id"`
	Format    string    `json:"format"`
	Input     string    `json:"input"`
	StartedAt time.Time `json:"started_at"`
	Notebooks int       `json:"notebooks"`
	Notes     int       `json:"notes"`
	Resources int       `json:"resources"`
	Tags      int       `json:"tags"`
	NoteLinks int       `json:"note_links"`
	Failures  int       `json:"failures"`
}

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path       string
	ImportID   int64
	Title      string
	OriginalID string
	Checksum   string
	Tags       []string
	WrittenAt  time.Time
}

// LinkRow is a rewritten note link.
type LinkRow struct {
	Source   string `json:"source"`
	Title    string `json:"title"`
	TargetID string `json:"target_id"`
	Target   string `json:"target"`
	Resolved bool   `json:"resolved"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Reader is the read side of the manifest.
// Consumers should depend on this interface rather than the concrete *DB type.
type Reader interface {
	Imports() ([]ImportRow, error)
	GetNote(path string) (*NoteRow, error)
	ListNotes(limit, offset int, tag string) ([]NoteRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Backlinks(target string) ([]string, error)
	Unresolved() ([]LinkRow, error)
	Resources(note string) ([]string, error)
}

// Verify *DB satisfies Reader at compile time.
var _ Reader = (*DB)(nil)
