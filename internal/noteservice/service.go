// Package noteservice answers questions about a finished import by
// combining the manifest with the files in the output folder.
package noteservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/marph91/jimmy/internal/apperr"
	"github.com/marph91/jimmy/internal/checksum"
	"github.com/marph91/jimmy/internal/imf"
	"github.com/marph91/jimmy/internal/manifest"
	"github.com/marph91/jimmy/internal/storage"
)

// NoteDetail is the full representation of a written note.
type NoteDetail struct {
	Path       string    `json:"path"`
	Title      string    `json:"title"`
	OriginalID string    `json:"original_id"`
	Content    string    `json:"content"`
	Checksum   string    `json:"checksum"`
	Modified   bool      `json:"modified"`
	Tags       []string  `json:"tags"`
	Backlinks  []string  `json:"backlinks"`
	Resources  []string  `json:"resources"`
	WrittenAt  time.Time `json:"written_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	WrittenAt time.Time `json:"written_at"`
}

// Report summarises all imports recorded in the manifest.
type Report struct {
	Imports     []manifest.ImportRow `json:"imports"`
	Totals      imf.Stats            `json:"totals"`
	Failures    int                  `json:"failures"`
	FilesOnDisk int                  `json:"files_on_disk"`
}

// Service coordinates storage and manifest reads.
type Service struct {
	store storage.Provider
	db    manifest.Reader
}

// NewService creates a new note service.
func NewService(store storage.Provider, db manifest.Reader) *Service {
	return &Service{store: store, db: db}
}

// Stats aggregates every recorded import.
func (s *Service) Stats(_ context.Context) (*Report, error) {
	imports, err := s.db.Imports()
	if err != nil {
		return nil, err
	}
	files, err := s.store.List("")
	if err != nil {
		return nil, err
	}
	r := &Report{Imports: nonNilSlice(imports), FilesOnDisk: len(files)}
	for _, imp := range imports {
		r.Totals = r.Totals.Add(imf.Stats{
			Notebooks: imp.Notebooks,
			Notes:     imp.Notes,
			Resources: imp.Resources,
			Tags:      imp.Tags,
			NoteLinks: imp.NoteLinks,
		})
		r.Failures += imp.Failures
	}
	return r, nil
}

// GetNote reads a note from the output folder and enriches it with what the
// manifest knows about it.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	row, err := s.db.GetNote(path)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	res, err := s.db.Resources(path)
	if err != nil {
		return nil, err
	}
	sum := checksum.Sum(data)
	return &NoteDetail{
		Path:       row.Path,
		Title:      row.Title,
		OriginalID: row.OriginalID,
		Content:    string(data),
		Checksum:   sum,
		Modified:   sum != row.Checksum,
		Tags:       nonNilSlice(row.Tags),
		Backlinks:  nonNilSlice(bl),
		Resources:  nonNilSlice(res),
		WrittenAt:  row.WrittenAt,
	}, nil
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			WrittenAt: r.WrittenAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the manifest.
func (s *Service) Search(_ context.Context, query string, limit int) ([]manifest.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	return nonNilSlice(res), err
}

// Unresolved returns all note links that pointed nowhere.
func (s *Service) Unresolved(_ context.Context) ([]manifest.LinkRow, error) {
	links, err := s.db.Unresolved()
	return nonNilSlice(links), err
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
