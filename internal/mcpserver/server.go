// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the team schedule to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/schedulectx/internal/apperr"
	"github.com/starford/schedulectx/internal/schedule"
	"github.com/starford/schedulectx/internal/scheduleservice"
)

// ScheduleResourceURI addresses the live schedule document.
const ScheduleResourceURI = "schedulectx://schedule"

// Server wraps the MCP server with schedule tools.
type Server struct {
	mcp *server.MCPServer
	svc *scheduleservice.Service
}

// New creates a new MCP server with all schedule tools registered.
func New(svc *scheduleservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"schedulectx",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_schedule_context",
		mcp.WithDescription("Returns the team schedule formatted as a prompt context block. "+
			"Pass game_date to append a note asking the model to check the schedule around that date. "+
			"Returns empty text when no schedule is installed."),
		mcp.WithString("game_date", mcp.Description("Date of the game, embedded verbatim (e.g. 2024-03-10)")),
	), s.getScheduleContext)

	s.mcp.AddTool(mcp.NewTool("read_schedule",
		mcp.WithDescription("Read the raw team schedule Markdown."),
	), s.readSchedule)

	s.mcp.AddTool(mcp.NewTool("list_schedule_revisions",
		mcp.WithDescription("List recorded changes of the schedule file, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of revisions to return (default 50)")),
	), s.listRevisions)

	s.mcp.AddResource(
		mcp.NewResource(ScheduleResourceURI, "Team Schedule",
			mcp.WithResourceDescription("Free-form team schedule document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readScheduleResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) getScheduleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var opts []schedule.ContextOption
	if date, ok := req.GetArguments()["game_date"].(string); ok {
		opts = append(opts, schedule.WithGameDate(date))
	}
	text, err := s.svc.Context(ctx, opts...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) readSchedule(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.svc.GetSchedule(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError("no schedule installed"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) listRevisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 0)
	revs, _, err := s.svc.Revisions(ctx, limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := json.MarshalIndent(revs, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode revisions: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readScheduleResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc, err := s.svc.GetSchedule(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ScheduleResourceURI,
			MIMEType: "text/markdown",
			Text:     doc.Content,
		},
	}, nil
}
