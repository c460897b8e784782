package imf

// Walk visits nb and every descendant notebook depth-first, parents first.
func (nb *Notebook) Walk(fn func(*Notebook)) {
	fn(nb)
	for _, child := range nb.Notebooks {
		child.Walk(fn)
	}
}

// WalkNotes calls fn for every note in the subtree rooted at nb.
func (nb *Notebook) WalkNotes(fn func(*Note)) {
	nb.Walk(func(n *Notebook) {
		for _, note := range n.Notes {
			fn(note)
		}
	})
}

// IsEmpty reports whether the notebook has neither notes nor non-empty children.
func (nb *Notebook) IsEmpty() bool {
	if len(nb.Notes) > 0 {
		return false
	}
	for _, child := range nb.Notebooks {
		if !child.IsEmpty() {
			return false
		}
	}
	return true
}

// RemoveEmptyNotebooks drops child notebooks that contain no notes anywhere
// below them. The receiver itself is kept.
func (nb *Notebook) RemoveEmptyNotebooks() {
	kept := nb.Notebooks[:0]
	for _, child := range nb.Notebooks {
		child.RemoveEmptyNotebooks()
		if !child.IsEmpty() {
			kept = append(kept, child)
		}
	}
	nb.Notebooks = kept
}

// PruneEmptyNotes removes placeholder notes from the whole subtree.
func (nb *Notebook) PruneEmptyNotes() {
	nb.Walk(func(n *Notebook) {
		kept := n.Notes[:0]
		for _, note := range n.Notes {
			if !note.IsEmpty() {
				kept = append(kept, note)
			}
		}
		n.Notes = kept
	})
}
