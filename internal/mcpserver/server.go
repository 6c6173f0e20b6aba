// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only content tools for LLM integration via stdio transport.
// Tools read through the shared cache, so an assistant session benefits
// from the same de-duplication and invalidation as the web surfaces.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/gateway"
)

// Server wraps the MCP server with content tools.
type Server struct {
	mcp *server.MCPServer
	svc *gateway.Service
}

// New creates a new MCP server with all content tools registered.
func New(svc *gateway.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_services",
		mcp.WithDescription("List the consulting service lines."),
	), s.listServices)

	s.mcp.AddTool(mcp.NewTool("list_team",
		mcp.WithDescription("List all staff profiles."),
	), s.listTeam)

	s.mcp.AddTool(mcp.NewTool("get_team_member",
		mcp.WithDescription("Read one staff profile by its slug."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Profile slug (e.g. anna-quist)")),
	), s.getTeamMember)

	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List news/insights articles."),
		mcp.WithBoolean("published_only", mcp.Description("Only return published articles (default true)")),
	), s.listArticles)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List reference projects."),
	), s.listProjects)

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

func (s *Server) listServices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	services, _, err := s.svc.Services(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(services), nil
}

func (s *Server) listTeam(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	team, _, err := s.svc.Team(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(team), nil
}

func (s *Server) getTeamMember(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tm, _, err := s.svc.TeamMember(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	return jsonResult(tm), nil
}

func (s *Server) listArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	publishedOnly := req.GetBool("published_only", true)
	articles, _, err := s.svc.Articles(ctx, publishedOnly)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(articles), nil
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, _, err := s.svc.Projects(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(projects), nil
}
