// Package storage defines the output folder abstraction the writer works through.
package storage

import "time"

// Entry describes a Markdown file found below the output root.
type Entry struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for output folder operations. All paths are
// relative to the provider root unless stated otherwise.
type Provider interface {
	// Root returns the absolute output root.
	Root() string
	// Exists reports whether a file or directory exists at path.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// MkdirAll creates the directory at path with all parents.
	MkdirAll(path string) error
	// Copy copies the file at the absolute path src to path.
	Copy(src, path string) error
	// Hash returns the content hash of the file at path.
	Hash(path string) (string, error)
	// List returns every .md file below dir.
	List(dir string) ([]Entry, error)
}
