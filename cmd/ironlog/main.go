package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailscale.com/tsnet"

	ironlog "github.com/meltforce/ironlog"
	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/config"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/plan"
	"github.com/meltforce/ironlog/internal/resttimer"
	"github.com/meltforce/ironlog/internal/server"
	"github.com/meltforce/ironlog/internal/session"
	"github.com/meltforce/ironlog/internal/stats"
	"github.com/meltforce/ironlog/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("IronLog starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Database.Driver != "memory" {
		if err := storage.RunMigrations(cfg.Database.URL(), "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	kv, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer kv.Close()
	log.Info("store opened", "driver", cfg.Database.Driver)

	defaults, err := loadPlan(cfg)
	if err != nil {
		log.Error("failed to load plan", "error", err)
		os.Exit(1)
	}
	log.Info("plan loaded", "days", len(defaults))

	agg := stats.New(kv, log)
	cat := catalog.New(kv, defaults, log)
	timer := resttimer.New(kv, log)
	engine := session.New(kv, cat, agg, timer, log)

	// Reattach to whatever survived the last shutdown.
	if recovered, err := engine.Restore(ctx); err != nil {
		log.Warn("session restore failed", "error", err)
	} else if recovered {
		log.Info("active session restored")
	}
	if state, ok := timer.Recover(ctx); ok {
		log.Info("rest timer recovered", "time_left", state.TimeLeft)
	}

	go timer.Run(ctx)
	go engine.RunBackups(ctx)

	srv := server.New(cat, engine, timer, agg, cfg.Auth.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return storage.OpenPostgres(ctx, cfg.Database.URL())
	case "memory":
		return storage.NewMemory(), nil
	default:
		return storage.OpenSQLite(cfg.Database.Path)
	}
}

func loadPlan(cfg *config.Config) ([]models.WorkoutDay, error) {
	if cfg.Plan.Path != "" {
		return plan.Load(cfg.Plan.Path)
	}
	return plan.Parse(ironlog.DefaultPlan)
}
