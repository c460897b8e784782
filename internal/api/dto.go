package api

import (
	"github.com/marph91/jimmy/internal/manifest"
	"github.com/marph91/jimmy/internal/noteservice"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// StatsResponse is the import report.
type StatsResponse = noteservice.Report

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []manifest.SearchResult `json:"results"`
}

// UnresolvedResponse wraps the links that could not be resolved.
type UnresolvedResponse struct {
	Links []manifest.LinkRow `json:"links"`
}
