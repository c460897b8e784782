package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/marph91/jimmy/internal/imf"
)

// Tree renders a notebook with all descendants. Notes list their
// resources, tags and note links as leaves.
func Tree(root *imf.Notebook) string {
	return notebookTree(root).String()
}

func notebookTree(nb *imf.Notebook) *tree.Tree {
	t := tree.Root(Accent.Render("📘 " + nb.Title)).
		Enumerator(tree.RoundedEnumerator)
	for _, note := range nb.Notes {
		t.Child(noteTree(note))
	}
	for _, child := range nb.Notebooks {
		t.Child(notebookTree(child))
	}
	return t
}

func noteTree(note *imf.Note) any {
	label := "📄 " + note.Title
	if len(note.Resources) == 0 && len(note.Tags) == 0 && len(note.NoteLinks) == 0 {
		return label
	}
	t := tree.Root(label)
	for _, res := range note.Resources {
		name := res.Title
		if name == "" {
			name = res.Filename
		}
		t.Child(Muted.Render("🎴 " + name))
	}
	for _, tag := range note.Tags {
		t.Child(Muted.Render("🔖 " + tag.Title))
	}
	for _, link := range note.NoteLinks {
		t.Child(Muted.Render(fmt.Sprintf("🔗 %s -> %s", link.Title, link.OriginalID)))
	}
	return t
}
