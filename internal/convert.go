package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/marph91/jimmy/internal/apperr"
	"github.com/marph91/jimmy/internal/converter"
	"github.com/marph91/jimmy/internal/filter"
	"github.com/marph91/jimmy/internal/imf"
	"github.com/marph91/jimmy/internal/layout"
	"github.com/marph91/jimmy/internal/manifest"
	"github.com/marph91/jimmy/internal/markdown"
	"github.com/marph91/jimmy/internal/storage"
	"github.com/marph91/jimmy/internal/ui"
	"github.com/marph91/jimmy/internal/watch"
	"github.com/marph91/jimmy/internal/writer"
)

// Summary is the outcome of converting every input once.
type Summary struct {
	Folders  []string
	Stats    imf.Stats
	Failures int
}

// importRoot is one input on its way through the pipeline.
type importRoot struct {
	input    string
	folder   string
	root     *imf.Notebook
	expected imf.Stats
	written  imf.Stats
	failures int
}

// Run converts all inputs. With WithWatch it keeps converting into the same
// output folders whenever an input changes, until ctx is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}

	folders, err := app.outputFolders()
	if err != nil {
		return err
	}
	if _, err := app.convert(ctx, folders); err != nil {
		return err
	}
	if !app.watch {
		return nil
	}

	w := watch.New(app.inputs,
		watch.WithDebounce(app.debounce),
		watch.WithIgnore(folders...),
		watch.WithLogger(app.logger),
	)
	return w.Run(ctx, func(ctx context.Context) error {
		_, err := app.convert(ctx, folders)
		return err
	})
}

// Convert runs the pipeline once and reports what was written.
func Convert(ctx context.Context, opts ...Option) (*Summary, error) {
	app, err := newApplication(opts...)
	if err != nil {
		return nil, err
	}
	folders, err := app.outputFolders()
	if err != nil {
		return nil, err
	}
	return app.convert(ctx, folders)
}

// OutputFolders returns one output folder per input. The first input uses
// base, every further input gets a " (n)" suffix starting at 2.
func OutputFolders(base string, n int) []string {
	folders := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			folders = append(folders, base)
			continue
		}
		folders = append(folders, fmt.Sprintf("%s (%d)", base, i+1))
	}
	return folders
}

func (a *application) outputFolders() ([]string, error) {
	if len(a.inputs) == 0 {
		return nil, fmt.Errorf("%w: no input given", apperr.ErrInvalidConfig)
	}
	base := a.config.Output.Folder
	if base == "" {
		base = a.now().Format("2006-01-02 15_04_05") + " - Jimmy Import"
		if a.format != "" {
			base += " from " + a.format
		}
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("jimmy: output folder: %w", err)
	}
	return OutputFolders(abs, len(a.inputs)), nil
}

func (a *application) formatName() string {
	if a.format == "" {
		return converter.DefaultFormat
	}
	return a.format
}

func (a *application) convert(ctx context.Context, folders []string) (*Summary, error) {
	cfg := a.config
	registry := converter.NewRegistry(a.logger)
	// An output folder inside an input folder must not be imported again.
	registry.Skip(folders...)

	var tmpl *markdown.Template
	if cfg.Output.TemplateFile != "" {
		t, err := markdown.LoadTemplate(cfg.Output.TemplateFile)
		if err != nil {
			return nil, err
		}
		tmpl = t
	}

	// All output folders are siblings, so one store serves every input and
	// links between inputs stay relative.
	store, err := storage.NewFS(filepath.Dir(folders[0]))
	if err != nil {
		return nil, err
	}

	imports := make([]*importRoot, 0, len(a.inputs))
	for i, input := range a.inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		imp, err := a.parse(ctx, registry, input, folders[i], tmpl)
		if err != nil {
			return nil, err
		}
		imports = append(imports, imp)
	}

	determiner := layout.New(cfg.Output.Layout())
	for _, imp := range imports {
		determiner.Determine(imp.root)
	}
	ids := determiner.IDs()

	statePath := filepath.Join(filepath.Base(folders[0]), stateFile)
	previous, err := loadWritten(store, statePath)
	if err != nil {
		a.logger.Warn("jimmy: ignoring state of previous run", slog.String("error", err.Error()))
	}

	summary := &Summary{Folders: folders}
	var claimed []string
	for _, imp := range imports {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		written, err := a.write(store, ids, imp, previous)
		if err != nil {
			return summary, err
		}
		claimed = append(claimed, written...)
		summary.Stats = summary.Stats.Add(imp.written)
		summary.Failures += imp.failures
	}
	if err := saveWritten(store, statePath, claimed); err != nil {
		return summary, err
	}

	a.logger.Info("jimmy: converted",
		slog.String("stats", summary.Stats.String()),
		slog.Int("failures", summary.Failures),
		slog.String("output", strings.Join(folders, ", ")))
	return summary, nil
}

// parse converts, filters and decorates one input.
func (a *application) parse(ctx context.Context, registry *converter.Registry, input, folder string, tmpl *markdown.Template) (*importRoot, error) {
	log := a.logger.With(slog.String("input", input))

	conv, err := registry.Lookup(a.format)
	if err != nil {
		return nil, err
	}

	root := &imf.Notebook{
		Title: rootTitle(input),
		Path:  filepath.Base(folder),
	}
	log.Info("jimmy: parsing input", slog.String("format", a.formatName()))
	report, err := conv.Convert(ctx, input, root)
	if err != nil {
		return nil, fmt.Errorf("jimmy: convert %s: %w", input, err)
	}
	for _, f := range report.Failures {
		log.Warn("jimmy: failed to convert note", slog.String("path", f.Path), slog.String("error", f.Err.Error()))
	}

	parsed := imf.Count(root)
	log.Info("jimmy: parsed", slog.String("stats", parsed.String()))

	filter.Apply([]*imf.Notebook{root}, a.config.Filter)
	expected := imf.Count(root)
	if removed := parsed.Sub(expected); !removed.IsZero() {
		log.Info("jimmy: filtered", slog.String("removed", removed.String()))
	}

	if tmpl != nil {
		tmpl.Apply(root)
	}
	if err := markdown.ApplyFrontmatter(root, a.config.Output.Frontmatter); err != nil {
		return nil, err
	}

	if a.config.Output.PrintTree {
		fmt.Fprintln(a.stdout, ui.Tree(root))
	}

	return &importRoot{
		input:    input,
		folder:   folder,
		root:     root,
		expected: expected,
		failures: len(report.Failures),
	}, nil
}

// write runs the second pass for one input and records the manifest. It
// returns the paths the writer claimed. Files listed in previous were
// written by an earlier run and get overwritten.
func (a *application) write(store storage.Provider, ids layout.NoteIDMap, imp *importRoot, previous []string) ([]string, error) {
	progress := ui.NewProgress(imp.expected.Notes)
	w := writer.New(store, ids,
		writer.WithLogger(a.logger),
		writer.WithProgress(progress),
		writer.WithReplaceable(previous),
	)
	err := w.WriteNotebook(imp.root)
	progress.Done()
	if err != nil {
		return nil, fmt.Errorf("jimmy: write %s: %w", imp.folder, err)
	}

	imp.written = w.Stats()
	imp.failures += len(w.Failures())
	if imp.written != imp.expected {
		a.logger.Warn("jimmy: written entities differ from parsed entities",
			slog.String("input", imp.input),
			slog.String("parsed", imp.expected.String()),
			slog.String("written", imp.written.String()))
	}

	if a.config.Manifest.Enabled {
		if err := a.recordManifest(store, imp, w.Written()); err != nil {
			return nil, err
		}
	}
	return w.Claimed(), nil
}

func (a *application) recordManifest(store storage.Provider, imp *importRoot, written []writer.WrittenNote) error {
	path := a.config.Manifest.Resolve(imp.folder)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("jimmy: manifest dir: %w", err)
	}
	db, err := manifest.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.RecordImport(manifest.ImportRow{
		Format:    a.formatName(),
		Input:     imp.input,
		Notebooks: imp.written.Notebooks,
		Notes:     imp.written.Notes,
		Resources: imp.written.Resources,
		Tags:      imp.written.Tags,
		NoteLinks: imp.written.NoteLinks,
		Failures:  imp.failures,
	})
	if err != nil {
		return err
	}

	// Written paths are relative to the common parent, the manifest stores
	// them relative to the output folder.
	prefix := filepath.ToSlash(imp.root.Path) + "/"
	rel := func(p string) string { return strings.TrimPrefix(p, prefix) }

	for _, n := range written {
		body, err := store.Read(n.Path)
		if err != nil {
			return fmt.Errorf("jimmy: manifest: %w", err)
		}
		links := make([]manifest.LinkRow, 0, len(n.Links))
		for _, l := range n.Links {
			target := l.Target
			if l.Resolved {
				target = rel(filepath.ToSlash(target))
			}
			links = append(links, manifest.LinkRow{Title: l.Title, TargetID: l.TargetID, Target: target, Resolved: l.Resolved})
		}
		resources := make([]string, 0, len(n.Resources))
		for _, r := range n.Resources {
			resources = append(resources, rel(r))
		}
		row := manifest.NoteRow{
			Path:       rel(n.Path),
			ImportID:   id,
			Title:      n.Title,
			OriginalID: n.OriginalID,
			Checksum:   n.Checksum,
			Tags:       n.Tags,
		}
		if err := db.UpsertNote(row, string(body), links, resources); err != nil {
			return err
		}
	}
	a.logger.Debug("jimmy: manifest written", slog.String("path", path), slog.Int("notes", len(written)))
	return nil
}

// rootTitle names the root notebook after the input file or folder.
func rootTitle(input string) string {
	base := filepath.Base(filepath.Clean(input))
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base
}
