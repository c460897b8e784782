// Package layout assigns output paths to every notebook, note and resource
// of a tree and records where each note ends up, so that links can be
// rewritten later. It never writes to disk.
package layout

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/marph91/jimmy/internal/imf"
	"github.com/marph91/jimmy/internal/paths"
	"github.com/marph91/jimmy/internal/sniff"
)

// Options controls where resources go and how long names may get.
//
// With LocalResourceFolder or LocalImageFolder set, resources are placed next
// to the note that references them (inside the given sub folder). Otherwise
// GlobalResourceFolder, relative to the output root, collects all of them.
// An empty configuration places resources directly next to their note.
type Options struct {
	GlobalResourceFolder string
	LocalResourceFolder  string
	LocalImageFolder     string
	MaxNameLength        int
}

func (o Options) local() bool {
	return o.LocalResourceFolder != "" || o.LocalImageFolder != "" || o.GlobalResourceFolder == ""
}

// NoteIDMap maps a note reference ID to the note's output path.
type NoteIDMap map[string]string

// Lookup returns the path for id.
func (m NoteIDMap) Lookup(id string) (string, bool) {
	p, ok := m[id]
	return p, ok
}

var plausibleExt = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

// Determiner walks a tree once and fills in all Path fields. The ID map
// accumulates across every Determine call on the same Determiner.
type Determiner struct {
	opts     Options
	rootPath string
	rootSet  bool
	ids      NoteIDMap
}

// New creates a Determiner.
func New(opts Options) *Determiner {
	if opts.MaxNameLength <= 0 {
		opts.MaxNameLength = paths.DefaultMaxNameLength
	}
	return &Determiner{opts: opts, ids: NoteIDMap{}}
}

// Determine assigns paths below nb, whose Path must already be set, and
// returns the note ID map built so far. The first notebook passed in
// defines the root that a global resource folder is relative to.
func (d *Determiner) Determine(nb *imf.Notebook) NoteIDMap {
	if !d.rootSet {
		d.rootPath = nb.Path
		d.rootSet = true
	}

	for _, note := range nb.Notes {
		name := paths.Safe(note.Title, d.opts.MaxNameLength)
		if !strings.HasSuffix(name, ".md") {
			name += ".md"
		}
		note.Path = filepath.Join(nb.Path, name)
		// Last writer wins for colliding reference IDs.
		d.ids[note.ReferenceID()] = note.Path

		for _, res := range note.Resources {
			res.Path = d.resourcePath(note, res)
		}
	}

	// Sibling notebooks never share a folder. Names compare case
	// insensitively to stay distinct on case folding file systems.
	used := map[string]bool{}
	taken := func(name string) bool { return used[strings.ToLower(name)] }
	never := func(string) bool { return false }
	for _, child := range nb.Notebooks {
		name := paths.Unique(paths.Safe(child.Title, d.opts.MaxNameLength), taken, never)
		used[strings.ToLower(name)] = true
		child.Path = filepath.Join(nb.Path, name)
		d.Determine(child)
	}
	return d.ids
}

// IDs returns the accumulated note ID map.
func (d *Determiner) IDs() NoteIDMap {
	return d.ids
}

func (d *Determiner) resourcePath(note *imf.Note, res *imf.Resource) string {
	var dir string
	if d.opts.local() {
		dir = filepath.Dir(note.Path)
		folder := d.opts.LocalResourceFolder
		if d.opts.LocalImageFolder != "" && res.IsImage() {
			folder = d.opts.LocalImageFolder
		}
		if folder != "" {
			dir = filepath.Join(dir, folder)
		}
	} else {
		dir = filepath.Join(d.rootPath, d.opts.GlobalResourceFolder)
	}

	name := paths.Safe(filepath.Base(res.Filename), d.opts.MaxNameLength)
	if filepath.Ext(name) == "" {
		name += inferExtension(res)
	}
	return filepath.Join(dir, name)
}

// inferExtension tries the resource title first, then the file content.
func inferExtension(res *imf.Resource) string {
	if ext := filepath.Ext(res.Title); plausibleExt.MatchString(ext) {
		return ext
	}
	return sniff.Extension(res.Filename)
}
