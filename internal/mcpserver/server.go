// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes a finished import for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marph91/jimmy/internal/apperr"
	"github.com/marph91/jimmy/internal/noteservice"
)

const layoutURI = "jimmy://output-layout"

// Server wraps the MCP server with the import tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Jimmy",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through the converted notes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a converted note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the output folder (e.g. notebook/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List converted notes, optionally restricted to a tag."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter by")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of notes (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Number of notes to skip")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("list_unresolved_links",
		mcp.WithDescription("List note links whose target was not part of the import."),
	), s.listUnresolvedLinks)

	s.mcp.AddTool(mcp.NewTool("import_stats",
		mcp.WithDescription("Summarise all recorded imports: notebooks, notes, resources, tags and links."),
	), s.importStats)

	s.mcp.AddResource(
		mcp.NewResource(layoutURI, "Output Layout",
			mcp.WithResourceDescription("How converted notes, resources and links are laid out on disk."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLayoutResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.ListNotes(ctx, req.GetInt("limit", 50), req.GetInt("offset", 0), req.GetString("tag", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lines := make([]string, 0, len(items)+1)
	for _, it := range items {
		line := it.Path
		if len(it.Tags) > 0 {
			line += " [" + strings.Join(it.Tags, ", ") + "]"
		}
		lines = append(lines, line)
	}
	lines = append(lines, fmt.Sprintf("(%d of %d notes)", len(items), total))
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(note.Backlinks) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(note.Backlinks, "\n")), nil
}

func (s *Server) listUnresolvedLinks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	links, err := s.svc.Unresolved(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("all note links were resolved"), nil
	}
	return jsonResult(links), nil
}

func (s *Server) importStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report), nil
}

func (s *Server) readLayoutResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      layoutURI,
			MIMEType: "text/markdown",
			Text:     OutputLayout,
		},
	}, nil
}
