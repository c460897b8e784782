// Package testutil provides shared test helpers for output folders and manifests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/marph91/jimmy/internal/manifest"
	"github.com/marph91/jimmy/internal/storage"
)

// TestManifest creates a temporary manifest database that is automatically closed.
func TestManifest(t *testing.T) *manifest.DB {
	t.Helper()
	db, err := manifest.Open(filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestOutput creates a temporary output directory with a storage provider.
func TestOutput(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
