// Package mcp exposes training history, stats and the workout catalog to
// assistants over the Model Context Protocol. All tools are read-only; the
// session is driven exclusively through the HTTP API.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/session"
	"github.com/meltforce/ironlog/internal/stats"
)

// New creates an MCP server with all tools and resources registered.
func New(eng *session.Engine, cat *catalog.Catalog, agg *stats.Aggregator, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("IronLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("IronLog workout tracker. Query the weekly plan, workout history, personal records and suggested next loads. Read-only."),
	)

	h := &handlers{engine: eng, catalog: cat, stats: agg, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolSuggestNextLoad, Handler: h.suggestNextLoad},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetCurrentSession, Handler: h.getCurrentSession},
	)

	s.AddResources(
		server.ServerResource{Resource: resWeeklyPlan, Handler: h.weeklyPlan},
		server.ServerResource{Resource: resRecentHistory, Handler: h.recentHistory},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	engine  *session.Engine
	catalog *catalog.Catalog
	stats   *stats.Aggregator
	log     *slog.Logger
}

// --- Resource definitions ---

var resWeeklyPlan = mcp.NewResource(
	"ironlog://weekly_plan",
	"Weekly Plan",
	mcp.WithResourceDescription("The effective weekly workout plan: built-in days merged with the user's custom edits"),
	mcp.WithMIMEType("application/json"),
)

var resRecentHistory = mcp.NewResource(
	"ironlog://recent_history",
	"Recent History",
	mcp.WithResourceDescription("Completed workout sessions from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)
