// Package writer materialises a laid out IMF tree below an output root. It
// copies resources, rewrites link placeholders to relative paths and
// resolves name collisions by content equality.
package writer

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marph91/jimmy/internal/apperr"
	"github.com/marph91/jimmy/internal/checksum"
	"github.com/marph91/jimmy/internal/imf"
	"github.com/marph91/jimmy/internal/layout"
	"github.com/marph91/jimmy/internal/markdown"
	"github.com/marph91/jimmy/internal/paths"
	"github.com/marph91/jimmy/internal/storage"
)

// Progress is notified after every note, successful or not.
type Progress interface {
	Advance(title string)
}

// NoteError records a note that could not be written.
type NoteError struct {
	Path  string
	Title string
	Err   error
}

func (e *NoteError) Error() string {
	return fmt.Sprintf("writer: note %q (%s): %v", e.Title, e.Path, e.Err)
}

func (e *NoteError) Unwrap() error { return e.Err }

// LinkRecord is one rewritten note link.
type LinkRecord struct {
	Title    string
	TargetID string
	Target   string // output path for resolved links, the original ID otherwise
	Resolved bool
}

// WrittenNote summarises a note on disk.
type WrittenNote struct {
	Path       string // slash separated, relative to the output root
	Title      string
	OriginalID string
	Checksum   string
	Tags       []string
	Links      []LinkRecord
	Resources  []string
}

// Writer performs the second pass. It is not safe for concurrent use.
type Writer struct {
	store    storage.Provider
	ids      layout.NoteIDMap
	log      *slog.Logger
	progress Progress

	// replaceable paths were written by an earlier run and are overwritten
	// instead of suffixed until this run claims them.
	replaceable map[string]bool
	claimed     map[string]bool

	stats    imf.Stats
	written  []WrittenNote
	failures []*NoteError
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) { w.log = l }
}

// WithProgress sets a progress reporter.
func WithProgress(p Progress) Option {
	return func(w *Writer) { w.progress = p }
}

// WithReplaceable marks files of a previous run into the same root. They
// are overwritten rather than treated as collisions. Paths are slash
// separated and relative to the store root.
func WithReplaceable(files []string) Option {
	return func(w *Writer) {
		for _, p := range files {
			w.replaceable[filepath.ToSlash(p)] = true
		}
	}
}

// New creates a Writer that resolves note links through ids.
func New(store storage.Provider, ids layout.NoteIDMap, opts ...Option) *Writer {
	w := &Writer{
		store:       store,
		ids:         ids,
		log:         slog.Default(),
		replaceable: map[string]bool{},
		claimed:     map[string]bool{},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Stats returns what has been written so far.
func (w *Writer) Stats() imf.Stats { return w.stats }

// Written returns a record for every note written so far.
func (w *Writer) Written() []WrittenNote { return w.written }

// Failures returns the notes that could not be written.
func (w *Writer) Failures() []*NoteError { return w.failures }

// Claimed returns every note and resource path written so far, slash
// separated and sorted.
func (w *Writer) Claimed() []string {
	out := make([]string, 0, len(w.claimed))
	for p := range w.claimed {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// exists hides files of a previous run that this run has not claimed yet.
func (w *Writer) exists(p string) bool {
	key := filepath.ToSlash(p)
	if w.replaceable[key] && !w.claimed[key] {
		return false
	}
	return w.store.Exists(p)
}

func (w *Writer) claim(p string) { w.claimed[filepath.ToSlash(p)] = true }

// WriteNotebook creates the notebook directory and writes its notes and
// child notebooks. Only directory creation failures are returned; note
// failures are collected and reported by Failures.
func (w *Writer) WriteNotebook(nb *imf.Notebook) error {
	if err := w.store.MkdirAll(nb.Path); err != nil {
		return fmt.Errorf("writer: notebook %q: %w", nb.Title, err)
	}
	w.stats.Notebooks++

	for _, note := range nb.Notes {
		_ = w.WriteNote(note)
	}
	for _, child := range nb.Notebooks {
		if err := w.WriteNotebook(child); err != nil {
			return err
		}
	}
	return nil
}

// WriteNote writes a single note with its resources. A failure is logged,
// recorded and returned as *NoteError.
func (w *Writer) WriteNote(note *imf.Note) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			ne := &NoteError{Path: note.Path, Title: note.Title, Err: err}
			w.failures = append(w.failures, ne)
			w.log.Debug("writer: note failed", slog.String("path", note.Path), slog.String("error", err.Error()))
			w.log.Warn("writer: failed to write note", slog.String("title", note.Title))
			err = ne
		}
		if w.progress != nil {
			w.progress.Advance(note.Title)
		}
	}()
	return w.writeNote(note)
}

func (w *Writer) writeNote(note *imf.Note) error {
	if note.Path == "" {
		return errors.New("no path assigned")
	}
	placed := w.placeResources(note)
	body, links := w.renderBody(note, placed)
	note.Body = body

	content := []byte(body)
	target := paths.Unique(note.Path, w.exists, func(p string) bool {
		existing, err := w.store.Read(p)
		return err == nil && bytes.Equal(existing, content)
	})
	if target != note.Path {
		w.log.Debug("writer: note renamed", slog.String("from", note.Path), slog.String("to", target))
		note.Path = target
	}
	if err := w.store.Write(target, content); err != nil {
		return err
	}
	w.claim(target)

	w.stats.Notes++
	w.stats.Tags += len(note.Tags)
	w.stats.NoteLinks += len(note.NoteLinks)

	rec := WrittenNote{
		Path:       filepath.ToSlash(target),
		Title:      note.Title,
		OriginalID: note.OriginalID,
		Checksum:   checksum.Sum(content),
		Tags:       note.TagTitles(),
		Links:      links,
	}
	for _, p := range placed {
		if p.target != "" {
			rec.Resources = append(rec.Resources, filepath.ToSlash(p.target))
		}
	}
	w.written = append(w.written, rec)
	return nil
}

// placement is where a resource of a note ended up. An empty target means
// the resource was skipped. duplicate marks later occurrences of content
// already placed for the same note.
type placement struct {
	res       *imf.Resource
	target    string
	duplicate bool
}

// placeResources copies every distinct resource of note to its final path.
func (w *Writer) placeResources(note *imf.Note) []placement {
	placed := make([]placement, 0, len(note.Resources))
	for _, res := range note.Resources {
		if _, err := res.MD5(); err != nil {
			w.log.Warn("writer: skipping resource",
				slog.String("note", note.Title),
				slog.String("file", res.Filename),
				slog.String("error", fmt.Errorf("%w: %w", apperr.ErrMissingResource, err).Error()))
			placed = append(placed, placement{res: res})
			continue
		}
		if prev := firstEqual(placed, res); prev != nil {
			res.Path = prev.target
			placed = append(placed, placement{res: res, target: prev.target, duplicate: true})
			w.stats.Resources++
			continue
		}

		target := paths.Unique(res.Path, w.exists, func(p string) bool {
			return res.SameContentAsFile(filepath.Join(w.store.Root(), p))
		})
		if !res.SameContentAsFile(filepath.Join(w.store.Root(), target)) {
			if err := w.store.Copy(res.Filename, target); err != nil {
				w.log.Warn("writer: skipping resource",
					slog.String("note", note.Title),
					slog.String("file", res.Filename),
					slog.String("error", err.Error()))
				placed = append(placed, placement{res: res})
				continue
			}
		}
		w.claim(target)
		res.Path = target
		placed = append(placed, placement{res: res, target: target})
		w.stats.Resources++
	}
	return placed
}

// firstEqual returns the first placed resource with the content of res.
func firstEqual(placed []placement, res *imf.Resource) *placement {
	for i := range placed {
		p := &placed[i]
		if p.target != "" && !p.duplicate && p.res.Equal(res) {
			return p
		}
	}
	return nil
}

// renderBody rewrites resource and note link placeholders. It does not
// touch the file system, so the result only depends on its inputs.
func (w *Writer) renderBody(note *imf.Note, placed []placement) (string, []LinkRecord) {
	body := note.Body
	dir := filepath.Dir(note.Path)

	for _, p := range placed {
		if p.target == "" {
			continue
		}
		title := p.res.Title
		if title == "" {
			title = filepath.Base(p.target)
		}
		md := markdown.ResourceLink(title, paths.RelativeLink(dir, p.target), p.res.IsImage())
		switch {
		case p.res.OriginalText != "":
			body = strings.ReplaceAll(body, p.res.OriginalText, md)
		case !p.duplicate:
			body = markdown.AppendBlock(body, md)
		}
	}

	links := make([]LinkRecord, 0, len(note.NoteLinks))
	for _, link := range note.NoteLinks {
		rec := LinkRecord{Title: link.Title, TargetID: link.OriginalID, Target: link.OriginalID}
		md := markdown.Link(link.Title, paths.Destination(link.OriginalID))
		if target, ok := w.ids.Lookup(link.OriginalID); ok {
			rec.Target = filepath.ToSlash(target)
			rec.Resolved = true
			md = markdown.Link(link.Title, paths.RelativeLink(dir, target))
		} else {
			w.log.Debug("writer: unresolved note link",
				slog.String("note", note.Title),
				slog.String("target", link.OriginalID))
		}
		if link.OriginalText != "" {
			body = strings.ReplaceAll(body, link.OriginalText, md)
		}
		links = append(links, rec)
	}

	return markdown.StripVoidLinks(body), links
}
