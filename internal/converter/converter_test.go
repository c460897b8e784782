package converter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/marph91/jimmy/internal/apperr"
	"github.com/marph91/jimmy/internal/imf"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func convert(t *testing.T, c Converter, input string) (*imf.Notebook, Report) {
	t.Helper()
	root := &imf.Notebook{Title: filepath.Base(input)}
	report, err := c.Convert(context.Background(), input, root)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	return root, report
}

func findNote(nb *imf.Notebook, title string) *imf.Note {
	var found *imf.Note
	nb.WalkNotes(func(n *imf.Note) {
		if n.Title == title && found == nil {
			found = n
		}
	})
	return found
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(discard())
	if got := r.Formats(); !reflect.DeepEqual(got, []string{"default", "obsidian"}) {
		t.Errorf("Formats = %v", got)
	}
	if _, err := r.Lookup(""); err != nil {
		t.Errorf("Lookup(\"\") = %v", err)
	}
	if _, err := r.Lookup("evernote"); !errors.Is(err, apperr.ErrUnknownFormat) {
		t.Errorf("Lookup(evernote) err = %v", err)
	}
}

func TestWalkerBuildsTree(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"top.md":              "---\ntitle: Top Note\ntags: [a]\nauthor: me\n---\nsee [sub](work/sub.md) and #b\n",
		"work/sub.md":         "# Sub\nback to [top](../top.md)\n",
		"work/img/photo.png":  "\x89PNG\r\n\x1a\n",
		"work/with image.md":  "![photo](img/photo.png) and [web](https://example.com)\n",
		"empty/.keep":         "",
		".obsidian/config.md": "ignored",
		"notes.txt":           "plain",
		"data.json":           "{}",
	})
	root, report := convert(t, NewWalker("default", discard()), dir)

	if report.Converted != 4 || len(report.Failures) != 0 {
		t.Errorf("report = %+v", report)
	}
	if len(root.Notebooks) != 1 || root.Notebooks[0].Title != "work" {
		t.Fatalf("notebooks = %+v", root.Notebooks)
	}
	if len(root.Notes) != 2 {
		t.Errorf("root notes = %d, want 2", len(root.Notes))
	}

	top := findNote(root, "Top Note")
	if top == nil {
		t.Fatal("Top Note missing")
	}
	if top.Author != "me" || top.OriginalID != "top.md" || top.SourceApplication != "default" {
		t.Errorf("top = %+v", top)
	}
	if !reflect.DeepEqual(top.TagTitles(), []string{"a", "b"}) {
		t.Errorf("tags = %v", top.TagTitles())
	}
	if len(top.NoteLinks) != 1 || top.NoteLinks[0].OriginalID != "work/sub.md" || top.NoteLinks[0].OriginalText != "[sub](work/sub.md)" {
		t.Errorf("links = %+v", top.NoteLinks)
	}

	sub := findNote(root, "Sub")
	if sub == nil || len(sub.NoteLinks) != 1 || sub.NoteLinks[0].OriginalID != "top.md" {
		t.Errorf("sub = %+v", sub)
	}

	img := findNote(root, "with image")
	if img == nil || len(img.Resources) != 1 || len(img.NoteLinks) != 0 {
		t.Fatalf("with image = %+v", img)
	}
	if r := img.Resources[0]; r.OriginalText != "![photo](img/photo.png)" || r.Title != "photo" || filepath.Base(r.Filename) != "photo.png" {
		t.Errorf("resource = %+v", r)
	}
}

func TestWalkerWikilinksAndComments(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.md":         "link [[B|bee]] embed ![[pic.png]] missing [[Nowhere]] %%secret%%\n",
		"sub/B.md":     "b",
		"att/pic.png":  "\x89PNG\r\n\x1a\n",
		"sub/notes.md": "n",
	})
	root, _ := convert(t, NewWalker("obsidian", discard(), WithObsidianSyntax()), dir)

	a := findNote(root, "a")
	if a == nil {
		t.Fatal("note a missing")
	}
	if a.Body != "link [[B|bee]] embed ![[pic.png]] missing [[Nowhere]] \n" {
		t.Errorf("body = %q", a.Body)
	}
	if len(a.NoteLinks) != 2 {
		t.Fatalf("links = %+v", a.NoteLinks)
	}
	if l := a.NoteLinks[0]; l.OriginalID != "sub/B.md" || l.Title != "bee" || l.OriginalText != "[[B|bee]]" {
		t.Errorf("link 0 = %+v", l)
	}
	if l := a.NoteLinks[1]; l.OriginalID != "Nowhere" {
		t.Errorf("link 1 = %+v", l)
	}
	if len(a.Resources) != 1 || a.Resources[0].OriginalText != "![[pic.png]]" {
		t.Errorf("resources = %+v", a.Resources)
	}
}

func TestWalkerSingleFile(t *testing.T) {
	dir := writeTree(t, map[string]string{"one.md": "hello", "other.md": "x"})
	root, report := convert(t, NewWalker("default", discard()), filepath.Join(dir, "one.md"))
	if report.Converted != 1 || len(root.Notes) != 1 || root.Notes[0].Title != "one" {
		t.Errorf("root = %+v, report = %+v", root, report)
	}
}

func TestWalkerMissingInput(t *testing.T) {
	root := &imf.Notebook{}
	if _, err := NewWalker("default", discard()).Convert(context.Background(), filepath.Join(t.TempDir(), "nope"), root); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestWalkerHonoursCancellation(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.md": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewWalker("default", discard()).Convert(ctx, dir, &imf.Notebook{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestReportErr(t *testing.T) {
	if (Report{}).Err() != nil {
		t.Error("empty report should have no error")
	}
	r := Report{Failures: []*ConversionError{{Path: "x.md", Err: os.ErrPermission}}}
	if !errors.Is(r.Err(), os.ErrPermission) {
		t.Errorf("Err = %v", r.Err())
	}
}

func TestWalkerPrunesEmptyNotes(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"keep.md":       "content",
		"blank.md":      "  \n",
		"only/empty.md": "",
	})
	root, _ := convert(t, NewWalker("default", discard()), dir)
	if got := len(root.Notes); got != 1 || root.Notes[0].Title != "keep" {
		t.Errorf("notes = %+v", root.Notes)
	}
	if len(root.Notebooks) != 0 {
		t.Errorf("notebook with only empty notes should be removed: %+v", root.Notebooks)
	}
}

func TestWalkerSkipDirs(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.md":       "a",
		"out/a.md":   "previous output",
		"out/sub.md": "previous output",
	})
	root, report := convert(t, NewWalker("default", discard(), WithSkipDirs(filepath.Join(dir, "out"))), dir)
	if report.Converted != 1 || len(root.Notebooks) != 0 {
		t.Errorf("report = %+v, notebooks = %+v", report, root.Notebooks)
	}
}

func TestRegistrySkip(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.md": "a", "out/b.md": "b"})
	r := NewRegistry(discard())
	r.Skip(filepath.Join(dir, "out"))
	c, err := r.Lookup("obsidian")
	if err != nil {
		t.Fatal(err)
	}
	root, _ := convert(t, c, dir)
	if findNote(root, "b") != nil {
		t.Error("skipped folder was converted")
	}
}
