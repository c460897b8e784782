package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/marph91/jimmy/internal/apperr"
	"github.com/marph91/jimmy/internal/manifest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeInput(t *testing.T, files map[string]string) string {
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

func sampleInput(t *testing.T) string {
	return writeInput(t, map[string]string{
		"a.md":    "# Alpha\nsee [b](b.md) and ![pic](pic.png) #work\n",
		"b.md":    "bee\n",
		"pic.png": "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR",
	})
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Output.Folder = filepath.Join(t.TempDir(), "out")
	return cfg
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestConvert(t *testing.T) {
	cfg := testConfig(t)
	cfg.Manifest.Enabled = true
	input := sampleInput(t)

	summary, err := Convert(context.Background(),
		WithConfig(cfg), WithInputs(input), WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if summary.Stats.Notebooks != 1 || summary.Stats.Notes != 2 || summary.Stats.Resources != 1 || summary.Stats.NoteLinks != 1 {
		t.Errorf("stats = %+v", summary.Stats)
	}
	if summary.Failures != 0 {
		t.Errorf("failures = %d", summary.Failures)
	}

	out := cfg.Output.Folder
	alpha := readOutput(t, filepath.Join(out, "Alpha.md"))
	if !strings.Contains(alpha, "[b](./b.md)") {
		t.Errorf("note link not rewritten: %q", alpha)
	}
	if !strings.Contains(alpha, "![pic](./resources/pic.png)") {
		t.Errorf("resource link not rewritten: %q", alpha)
	}
	if _, err := os.Stat(filepath.Join(out, "resources", "pic.png")); err != nil {
		t.Errorf("resource not copied: %v", err)
	}

	db, err := manifest.Open(filepath.Join(out, ".jimmy", "manifest.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	notes, total, err := db.ListNotes(10, 0, "")
	if err != nil || total != 2 {
		t.Fatalf("manifest notes = %d, err = %v", total, err)
	}
	if notes[0].Path != "Alpha.md" || !reflect.DeepEqual(notes[0].Tags, []string{"work"}) {
		t.Errorf("first note = %+v", notes[0])
	}
	backlinks, err := db.Backlinks("b.md")
	if err != nil || !reflect.DeepEqual(backlinks, []string{"Alpha.md"}) {
		t.Errorf("backlinks = %v, err = %v", backlinks, err)
	}
	resources, _ := db.Resources("Alpha.md")
	if !reflect.DeepEqual(resources, []string{"resources/pic.png"}) {
		t.Errorf("resources = %v", resources)
	}
}

func TestConvertIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	input := sampleInput(t)
	opts := []Option{WithConfig(cfg), WithInputs(input), WithLogger(discardLogger())}

	for i := 0; i < 2; i++ {
		if _, err := Convert(context.Background(), opts...); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(cfg.Output.Folder)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if !reflect.DeepEqual(names, []string{".jimmy", "Alpha.md", "b.md", "resources"}) {
		t.Errorf("output = %v", names)
	}
}

func markdownFiles(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".md") {
			rel, _ := filepath.Rel(dir, p)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestConvertOverwritesEditedNote(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, map[string]string{"a.md": "first\n"})
	opts := []Option{WithConfig(cfg), WithInputs(input), WithLogger(discardLogger())}

	for _, body := range []string{"first\n", "second\n", "third\n"} {
		if err := os.WriteFile(filepath.Join(input, "a.md"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Convert(context.Background(), opts...); err != nil {
			t.Fatal(err)
		}
	}

	if got := markdownFiles(t, cfg.Output.Folder); !reflect.DeepEqual(got, []string{"a.md"}) {
		t.Errorf("output = %v, want [a.md]", got)
	}
	if got := readOutput(t, filepath.Join(cfg.Output.Folder, "a.md")); !strings.HasPrefix(got, "third") {
		t.Errorf("a.md = %q", got)
	}
}

func TestConvertRerunInSameApplication(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, map[string]string{"a.md": "first\n"})
	app, err := newApplication(WithConfig(cfg), WithInputs(input), WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	folders, err := app.outputFolders()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := app.convert(context.Background(), folders); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(input, "a.md"), []byte("second\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := app.convert(context.Background(), folders); err != nil {
		t.Fatal(err)
	}

	if got := markdownFiles(t, cfg.Output.Folder); !reflect.DeepEqual(got, []string{"a.md"}) {
		t.Errorf("output = %v, want [a.md]", got)
	}
}

func TestConvertKeepsForeignFiles(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.Output.Folder, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Output.Folder, "a.md"), []byte("mine"), 0o644); err != nil {
		t.Fatal(err)
	}
	input := writeInput(t, map[string]string{"a.md": "imported\n"})
	if _, err := Convert(context.Background(), WithConfig(cfg), WithInputs(input), WithLogger(discardLogger())); err != nil {
		t.Fatal(err)
	}

	if got := readOutput(t, filepath.Join(cfg.Output.Folder, "a.md")); got != "mine" {
		t.Errorf("a.md = %q", got)
	}
	if got := readOutput(t, filepath.Join(cfg.Output.Folder, "a_0001.md")); !strings.HasPrefix(got, "imported") {
		t.Errorf("a_0001.md = %q", got)
	}
}

func TestConvertIgnoresOutputInsideInput(t *testing.T) {
	input := writeInput(t, map[string]string{"a.md": "alpha\n"})
	cfg := NewDefaultConfig()
	cfg.Output.Folder = filepath.Join(input, "out")
	opts := []Option{WithConfig(cfg), WithInputs(input), WithLogger(discardLogger())}

	for i := 0; i < 2; i++ {
		summary, err := Convert(context.Background(), opts...)
		if err != nil {
			t.Fatal(err)
		}
		if summary.Stats.Notes != 1 {
			t.Errorf("run %d: notes = %d, want 1", i, summary.Stats.Notes)
		}
	}
	if got := markdownFiles(t, cfg.Output.Folder); !reflect.DeepEqual(got, []string{"a.md"}) {
		t.Errorf("output = %v, want [a.md]", got)
	}
}

func TestConvertFilterLeavesLinkUnresolved(t *testing.T) {
	cfg := testConfig(t)
	cfg.Filter.ExcludeNotes = []string{"b"}
	input := sampleInput(t)

	summary, err := Convert(context.Background(), WithConfig(cfg), WithInputs(input), WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if summary.Stats.Notes != 1 {
		t.Errorf("notes = %d, want 1", summary.Stats.Notes)
	}
	alpha := readOutput(t, filepath.Join(cfg.Output.Folder, "Alpha.md"))
	if !strings.Contains(alpha, "[b](b.md)") {
		t.Errorf("unresolved link should keep the original id: %q", alpha)
	}
}

func TestConvertFrontmatterAndTree(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Frontmatter = "obsidian"
	cfg.Output.PrintTree = true
	input := sampleInput(t)

	var stdout bytes.Buffer
	if _, err := Convert(context.Background(),
		WithConfig(cfg), WithInputs(input), WithLogger(discardLogger()), WithStdout(&stdout)); err != nil {
		t.Fatal(err)
	}
	alpha := readOutput(t, filepath.Join(cfg.Output.Folder, "Alpha.md"))
	if !strings.HasPrefix(alpha, "---\n") || !strings.Contains(alpha, "- work") {
		t.Errorf("frontmatter missing: %q", alpha)
	}
	if !strings.Contains(stdout.String(), "Alpha") {
		t.Errorf("tree not printed: %q", stdout.String())
	}
}

func TestConvertMultipleInputs(t *testing.T) {
	cfg := testConfig(t)
	first := sampleInput(t)
	second := writeInput(t, map[string]string{"c.md": "# Gamma\n"})

	summary, err := Convert(context.Background(),
		WithConfig(cfg), WithInputs(first, second), WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Folders) != 2 || summary.Folders[1] != cfg.Output.Folder+" (2)" {
		t.Fatalf("folders = %v", summary.Folders)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Folder+" (2)", "Gamma.md")); err != nil {
		t.Errorf("second input not written: %v", err)
	}
	if summary.Stats.Notes != 3 || summary.Stats.Notebooks != 2 {
		t.Errorf("stats = %+v", summary.Stats)
	}
}

func TestConvertUnknownFormat(t *testing.T) {
	cfg := testConfig(t)
	_, err := Convert(context.Background(),
		WithConfig(cfg), WithInputs(sampleInput(t)), WithFormat("evernote"), WithLogger(discardLogger()))
	if !errors.Is(err, apperr.ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestConvertRequiresInput(t *testing.T) {
	_, err := Convert(context.Background(), WithConfig(testConfig(t)), WithLogger(discardLogger()))
	if !errors.Is(err, apperr.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestOutputFolders(t *testing.T) {
	got := OutputFolders("out", 3)
	if !reflect.DeepEqual(got, []string{"out", "out (2)", "out (3)"}) {
		t.Errorf("OutputFolders = %v", got)
	}
}

func TestDefaultOutputFolderName(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	app, err := newApplication(WithConfig(NewDefaultConfig()), WithInputs("x"), WithFormat("obsidian"),
		WithClock(clock), WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	folders, err := app.outputFolders()
	if err != nil {
		t.Fatal(err)
	}
	if got := filepath.Base(folders[0]); got != "2024-01-02 03_04_05 - Jimmy Import from obsidian" {
		t.Errorf("folder = %q", got)
	}
}

func TestOpenImportMissing(t *testing.T) {
	app, err := newApplication(WithConfig(NewDefaultConfig()), WithLogger(discardLogger()),
		WithImport(t.TempDir(), ""))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := app.openImport(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFormats(t *testing.T) {
	if got := Formats(); !reflect.DeepEqual(got, []string{"default", "obsidian"}) {
		t.Errorf("Formats = %v", got)
	}
}
