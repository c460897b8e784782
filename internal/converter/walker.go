package converter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/marph91/jimmy/internal/imf"
	"github.com/marph91/jimmy/internal/parser"
)

var commentRe = regexp.MustCompile(`(?s)%%.*?%%`)

var noteExts = map[string]bool{".md": true, ".markdown": true, ".txt": true}

// Walker converts a folder of Markdown files. Directories become notebooks,
// Markdown and text files become notes. Local links to other notes become
// note links and links to other local files become resources.
type Walker struct {
	format   string
	log      *slog.Logger
	obsidian bool
	skip     map[string]bool // absolute folders that are never read

	base      string
	notes     map[string]string // slash path relative to base -> absolute path
	byStem    map[string]string // lower case stem -> slash path of the note
	resources map[string]string // lower case base name -> absolute path
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithObsidianSyntax strips %%comments%% before parsing.
func WithObsidianSyntax() WalkerOption {
	return func(w *Walker) { w.obsidian = true }
}

// WithSkipDirs excludes folders from the walk, typically the output folder
// when it lives inside the input folder.
func WithSkipDirs(dirs ...string) WalkerOption {
	return func(w *Walker) {
		for _, d := range dirs {
			if abs, err := filepath.Abs(d); err == nil {
				w.skip[abs] = true
			}
		}
	}
}

// NewWalker creates a Walker that tags notes with format as source application.
func NewWalker(format string, log *slog.Logger, opts ...WalkerOption) *Walker {
	w := &Walker{format: format, log: log, skip: map[string]bool{}}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Convert implements Converter. input may be a single file or a folder.
func (w *Walker) Convert(ctx context.Context, input string, root *imf.Notebook) (Report, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return Report{}, fmt.Errorf("converter: resolve input: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Report{}, fmt.Errorf("converter: stat input: %w", err)
	}

	var report Report
	if !info.IsDir() {
		w.base = filepath.Dir(abs)
		if err := w.scan(ctx, w.base, false); err != nil {
			return report, err
		}
		w.convertFile(abs, root, &report)
		root.PruneEmptyNotes()
		return report, nil
	}

	w.base = abs
	if err := w.scan(ctx, abs, true); err != nil {
		return report, err
	}
	if err := w.convertDir(ctx, abs, root, &report); err != nil {
		return report, err
	}
	root.PruneEmptyNotes()
	root.RemoveEmptyNotebooks()
	return report, nil
}

// scan indexes note and resource files so links can be resolved in any order.
func (w *Walker) scan(ctx context.Context, dir string, recursive bool) error {
	w.notes = map[string]string{}
	w.byStem = map[string]string{}
	w.resources = map[string]string{}
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != dir && (!recursive || hidden(d.Name()) || w.skip[p]) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(w.base, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if isNote(d.Name()) {
			w.notes[rel] = p
			stem := strings.ToLower(strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())))
			if _, taken := w.byStem[stem]; !taken {
				w.byStem[stem] = rel
			}
			return nil
		}
		name := strings.ToLower(d.Name())
		if _, taken := w.resources[name]; !taken {
			w.resources[name] = p
		}
		return nil
	})
}

func (w *Walker) convertDir(ctx context.Context, dir string, nb *imf.Notebook, report *Report) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("converter: read dir: %w", err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if hidden(e.Name()) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if e.IsDir() && w.skip[p] {
			continue
		}
		if e.IsDir() {
			child := &imf.Notebook{Title: e.Name(), OriginalID: w.relative(p)}
			if info, err := e.Info(); err == nil {
				child.Created = info.ModTime()
				child.Updated = info.ModTime()
			}
			if err := w.convertDir(ctx, p, child, report); err != nil {
				return err
			}
			nb.Notebooks = append(nb.Notebooks, child)
			continue
		}
		if isNote(e.Name()) {
			w.convertFile(p, nb, report)
		}
	}
	return nil
}

func (w *Walker) convertFile(path string, nb *imf.Notebook, report *Report) {
	note, err := w.parseNote(path)
	if err != nil {
		w.log.Warn("converter: failed to convert note", slog.String("path", path), slog.String("error", err.Error()))
		report.Failures = append(report.Failures, &ConversionError{Path: path, Err: err})
		return
	}
	nb.Notes = append(nb.Notes, note)
	report.Converted++
}

func (w *Walker) parseNote(path string) (*imf.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if w.obsidian {
		data = commentRe.ReplaceAll(data, nil)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	note := &imf.Note{
		Title:             res.Title,
		Body:              res.Body,
		Author:            res.Meta.Author,
		Created:           res.Meta.CreatedTime(),
		Updated:           res.Meta.UpdatedTime(),
		SourceApplication: w.format,
		OriginalID:        w.relative(path),
	}
	if note.Title == "" {
		note.Title = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if note.Created.IsZero() {
		note.Created = info.ModTime()
	}
	if note.Updated.IsZero() {
		note.Updated = info.ModTime()
	}
	for _, t := range res.Tags {
		note.Tags = append(note.Tags, &imf.Tag{Title: t})
	}

	dir := filepath.Dir(path)
	for _, l := range res.Links {
		w.addLink(note, dir, l)
	}
	for _, l := range res.Wikilinks {
		w.addWikilink(note, l)
	}
	return note, nil
}

func (w *Walker) addLink(note *imf.Note, dir string, l parser.Link) {
	if isExternal(l.Destination) {
		return
	}
	dest := l.Destination
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		dest = dest[:i]
	}
	if unescaped, err := url.PathUnescape(dest); err == nil {
		dest = unescaped
	}
	if dest == "" {
		return
	}
	target := filepath.Join(dir, filepath.FromSlash(dest))
	rel := w.relative(target)
	if _, ok := w.notes[rel]; ok && !l.Image {
		note.NoteLinks = append(note.NoteLinks, &imf.NoteLink{OriginalText: l.Raw, OriginalID: rel, Title: l.Text})
		return
	}
	if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() {
		note.Resources = append(note.Resources, &imf.Resource{Filename: target, OriginalText: l.Raw, Title: l.Text})
		return
	}
	w.log.Debug("converter: link target not found", slog.String("note", note.Title), slog.String("target", l.Destination))
}

func (w *Walker) addWikilink(note *imf.Note, l parser.Wikilink) {
	title := l.Alias
	if title == "" {
		title = l.Target
	}
	name := l.Target
	if isNote(name) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if !l.Embed || isNote(l.Target) || filepath.Ext(l.Target) == "" {
		if rel, ok := w.byStem[strings.ToLower(path.Base(name))]; ok {
			note.NoteLinks = append(note.NoteLinks, &imf.NoteLink{OriginalText: l.Raw, OriginalID: rel, Title: title})
			return
		}
	}
	if src, ok := w.resources[strings.ToLower(filepath.Base(l.Target))]; ok {
		note.Resources = append(note.Resources, &imf.Resource{Filename: src, OriginalText: l.Raw, Title: title})
		return
	}
	// Unknown targets are kept as links by title and reported by the writer.
	note.NoteLinks = append(note.NoteLinks, &imf.NoteLink{OriginalText: l.Raw, OriginalID: l.Target, Title: title})
}

func (w *Walker) relative(path string) string {
	rel, err := filepath.Rel(w.base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func isNote(name string) bool {
	return noteExts[strings.ToLower(filepath.Ext(name))]
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isExternal(dest string) bool {
	if strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return true
	}
	u, err := url.Parse(dest)
	return err == nil && u.Scheme != ""
}
