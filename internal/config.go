package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/marph91/jimmy/internal/apperr"
	"github.com/marph91/jimmy/internal/filter"
	"github.com/marph91/jimmy/internal/layout"
	"github.com/marph91/jimmy/internal/markdown"
	"github.com/marph91/jimmy/internal/paths"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// DefaultManifestPath is where the manifest is stored, relative to the
// output folder.
const DefaultManifestPath = ".jimmy/manifest.db"

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Output   OutputConfig      `yaml:"output"`
	Filter   filter.Options    `yaml:"filter"`
	Manifest ManifestConfig    `yaml:"manifest"`
	Serve    ServeConfig       `yaml:"serve"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("%w: app: %w", apperr.ErrInvalidConfig, err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("%w: output: %w", apperr.ErrInvalidConfig, err)
	}
	if err := validateFilter(c.Filter); err != nil {
		return fmt.Errorf("%w: filter: %w", apperr.ErrInvalidConfig, err)
	}
	if err := c.Serve.Validate(); err != nil {
		return fmt.Errorf("%w: serve: %w", apperr.ErrInvalidConfig, err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// OutputConfig controls what the converted notes look like and where
// they are written.
type OutputConfig struct {
	// Folder is the output folder. Empty means a timestamped folder in
	// the working directory.
	Folder               string `yaml:"folder"`
	Frontmatter          string `yaml:"frontmatter"`
	TemplateFile         string `yaml:"template_file"`
	GlobalResourceFolder string `yaml:"global_resource_folder"`
	LocalResourceFolder  string `yaml:"local_resource_folder"`
	LocalImageFolder     string `yaml:"local_image_folder"`
	MaxNameLength        int    `yaml:"max_name_length"`
	PrintTree            bool   `yaml:"print_tree"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Frontmatter, validation.In(stringsToAny(markdown.FrontmatterStyles)...)),
		validation.Field(&c.GlobalResourceFolder, validation.By(singleSegment)),
		validation.Field(&c.LocalResourceFolder, validation.By(singleSegment)),
		validation.Field(&c.LocalImageFolder, validation.By(singleSegment)),
		validation.Field(&c.MaxNameLength, validation.Required, validation.Min(8)),
	)
}

// Layout returns the path determiner options.
func (c *OutputConfig) Layout() layout.Options {
	return layout.Options{
		GlobalResourceFolder: c.GlobalResourceFolder,
		LocalResourceFolder:  c.LocalResourceFolder,
		LocalImageFolder:     c.LocalImageFolder,
		MaxNameLength:        c.MaxNameLength,
	}
}

// ManifestConfig controls the SQLite manifest of an import.
type ManifestConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path is relative to the output folder unless absolute.
	Path string `yaml:"path"`
}

// Resolve returns the manifest location for an output folder.
func (c *ManifestConfig) Resolve(outputFolder string) string {
	p := c.Path
	if p == "" {
		p = DefaultManifestPath
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(outputFolder, p)
}

// ServeConfig holds the configuration of the report server.
type ServeConfig struct {
	HTTP HTTPConfig `yaml:"http"`
	Auth AuthConfig `yaml:"auth"`
}

// Validate validates the serve configuration.
func (c *ServeConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AuthConfig holds authentication configuration of the report API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
		},
		Output: OutputConfig{
			GlobalResourceFolder: "resources",
			MaxNameLength:        paths.DefaultMaxNameLength,
		},
		Serve: ServeConfig{
			HTTP: HTTPConfig{Port: 8080},
			Auth: AuthConfig{Mode: AuthModeDisabled},
		},
	}
}

// singleSegment accepts an empty value or one relative path component.
func singleSegment(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if filepath.IsAbs(s) || strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return fmt.Errorf("must be a single relative folder name, got %q", s)
	}
	return nil
}

// validateFilter rejects more than one filter list, since only the one
// with the highest priority would have an effect.
func validateFilter(o filter.Options) error {
	groups := []struct {
		name     string
		patterns []string
	}{
		{"exclude_notes", o.ExcludeNotes},
		{"include_notes", o.IncludeNotes},
		{"exclude_notes_with_tags", o.ExcludeNotesWithTags},
		{"include_notes_with_tags", o.IncludeNotesWithTags},
		{"exclude_tags", o.ExcludeTags},
		{"include_tags", o.IncludeTags},
	}
	var set []string
	for _, g := range groups {
		if len(g.patterns) > 0 {
			set = append(set, g.name)
		}
	}
	if len(set) > 1 {
		return fmt.Errorf("only one filter may be set, got %s", strings.Join(set, ", "))
	}
	return nil
}

func stringsToAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
