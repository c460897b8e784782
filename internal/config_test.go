package internal

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marph91/jimmy/internal/apperr"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown frontmatter", func(c *Config) { c.Output.Frontmatter = "markdown" }},
		{"nested resource folder", func(c *Config) { c.Output.GlobalResourceFolder = "a/b" }},
		{"absolute local folder", func(c *Config) { c.Output.LocalResourceFolder = "/tmp" }},
		{"parent image folder", func(c *Config) { c.Output.LocalImageFolder = ".." }},
		{"short names", func(c *Config) { c.Output.MaxNameLength = 4 }},
		{"two filters", func(c *Config) {
			c.Filter.ExcludeNotes = []string{"Draft*"}
			c.Filter.IncludeTags = []string{"work"}
		}},
		{"log format", func(c *Config) { c.App.LogFormat = "xml" }},
		{"port", func(c *Config) { c.Serve.HTTP.Port = 70000 }},
		{"token without secret", func(c *Config) { c.Serve.Auth.Mode = AuthModeToken }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, apperr.ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfigAccepts(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Frontmatter = "qownnotes"
	cfg.Output.LocalResourceFolder = "attachments"
	cfg.Output.LocalImageFolder = "images"
	cfg.Filter.ExcludeTags = []string{"private"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	opts := cfg.Output.Layout()
	if opts.LocalImageFolder != "images" || opts.MaxNameLength != 50 {
		t.Errorf("layout options = %+v", opts)
	}
}

func TestManifestResolve(t *testing.T) {
	m := ManifestConfig{}
	if got := m.Resolve("out"); got != filepath.Join("out", ".jimmy", "manifest.db") {
		t.Errorf("Resolve = %q", got)
	}
	abs := filepath.Join(t.TempDir(), "m.db")
	m.Path = abs
	if got := m.Resolve("out"); got != abs {
		t.Errorf("Resolve = %q, want %q", got, abs)
	}
}
