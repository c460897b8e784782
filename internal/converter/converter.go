// Package converter turns exported notes into an IMF tree. Each source
// format registers a Converter under its format tag.
package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/marph91/jimmy/internal/apperr"
	"github.com/marph91/jimmy/internal/imf"
)

// DefaultFormat is used when no format is given.
const DefaultFormat = "default"

// Converter populates root with the content found at input.
type Converter interface {
	Convert(ctx context.Context, input string, root *imf.Notebook) (Report, error)
}

// ConversionError records a single source file that could not be converted.
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converter: %s: %v", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Report summarises a conversion. Failures are not fatal.
type Report struct {
	Converted int
	Failures  []*ConversionError
}

// Err joins all failures, or returns nil.
func (r Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Env is what a factory gets to build a converter.
type Env struct {
	Log *slog.Logger
	// SkipDirs are folders below the input that must not be read.
	SkipDirs []string
}

// Factory builds a converter for one run.
type Factory func(env Env) Converter

// Registry maps format tags to converter factories.
type Registry struct {
	factories map[string]Factory
	log       *slog.Logger
	skip      []string
}

// NewRegistry returns a registry with the built-in formats.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{factories: map[string]Factory{}, log: log}
	r.Register(DefaultFormat, func(env Env) Converter {
		return NewWalker(DefaultFormat, env.Log, WithSkipDirs(env.SkipDirs...))
	})
	r.Register("obsidian", func(env Env) Converter {
		return NewWalker("obsidian", env.Log, WithObsidianSyntax(), WithSkipDirs(env.SkipDirs...))
	})
	return r
}

// Register adds or replaces a format.
func (r *Registry) Register(format string, f Factory) {
	r.factories[format] = f
}

// Skip excludes dirs from every converter built afterwards.
func (r *Registry) Skip(dirs ...string) {
	r.skip = append(r.skip, dirs...)
}

// Lookup returns a converter for format.
func (r *Registry) Lookup(format string) (Converter, error) {
	if format == "" {
		format = DefaultFormat
	}
	f, ok := r.factories[format]
	if !ok {
		return nil, fmt.Errorf("converter: %q: %w", format, apperr.ErrUnknownFormat)
	}
	return f(Env{Log: r.log.With(slog.String("format", format)), SkipDirs: r.skip}), nil
}

// Formats returns all registered format tags, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
