package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	ironlog "github.com/meltforce/ironlog"
	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/config"
	"github.com/meltforce/ironlog/internal/mcp"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/plan"
	"github.com/meltforce/ironlog/internal/resttimer"
	"github.com/meltforce/ironlog/internal/session"
	"github.com/meltforce/ironlog/internal/stats"
	"github.com/meltforce/ironlog/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// ironlog-mcp serves the read-only MCP interface over stdio, for wiring the
// tracker into an assistant. It opens the same store as the main server.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Logs go to stderr; stdout carries the MCP stream.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var kv storage.KV
	if cfg.Database.Driver == "postgres" {
		kv, err = storage.OpenPostgres(ctx, cfg.Database.URL())
	} else {
		kv, err = storage.OpenSQLite(cfg.Database.Path)
	}
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	var defaults []models.WorkoutDay
	if cfg.Plan.Path != "" {
		defaults, err = plan.Load(cfg.Plan.Path)
	} else {
		defaults, err = plan.Parse(ironlog.DefaultPlan)
	}
	if err != nil {
		log.Error("failed to load plan", "error", err)
		os.Exit(1)
	}

	agg := stats.New(kv, log)
	cat := catalog.New(kv, defaults, log)
	timer := resttimer.New(kv, log)
	engine := session.New(kv, cat, agg, timer, log)
	if _, err := engine.Restore(ctx); err != nil {
		log.Warn("session restore failed", "error", err)
	}

	srv := mcp.New(engine, cat, agg, Version, log)
	if err := mcpserver.ServeStdio(srv); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
