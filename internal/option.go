package internal

import (
	"io"
	"log/slog"
	"time"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	logger   *slog.Logger
	stdout   io.Writer
	version  string
	inputs   []string
	format   string
	watch    bool
	debounce time.Duration
	now      func() time.Time

	// serve and mcp
	outputFolder string
	manifestPath string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger overrides the logger built from the configuration.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithStdout sets where the notebook tree is printed.
func WithStdout(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithInputs sets the files and folders to convert.
func WithInputs(inputs ...string) Option {
	return func(a *application) {
		a.inputs = append(a.inputs, inputs...)
	}
}

// WithFormat selects the converter. Empty means the default converter.
func WithFormat(format string) Option {
	return func(a *application) {
		a.format = format
	}
}

// WithWatch keeps converting whenever an input changes.
func WithWatch(debounce time.Duration) Option {
	return func(a *application) {
		a.watch = true
		a.debounce = debounce
	}
}

// WithClock overrides the time used for the default output folder name.
func WithClock(now func() time.Time) Option {
	return func(a *application) {
		a.now = now
	}
}

// WithImport points serve and mcp at a finished import.
func WithImport(outputFolder, manifestPath string) Option {
	return func(a *application) {
		a.outputFolder = outputFolder
		a.manifestPath = manifestPath
	}
}
