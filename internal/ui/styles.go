// Package ui renders terminal output: the progress bar shown while notes
// are written and the notebook tree printed with --print-tree.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Accent highlights notebooks.
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)

	// Muted is used for resources, tags and links.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)
