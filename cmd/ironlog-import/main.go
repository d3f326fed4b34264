package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/config"
	"github.com/meltforce/ironlog/internal/storage"
)

// ironlog-import loads an exported workouts JSON file into the custom store.
// Every imported workout gets fresh ids, so repeated imports append copies
// rather than overwrite.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	filePath := flag.String("file", "", "path to exported workouts JSON (required)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *filePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: ironlog-import -config config.yaml -file workouts.json\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Error("failed to read import file", "path", *filePath, "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := storage.RunMigrations(cfg.Database.URL(), "migrations"); err != nil {
		log.Error("migration failed", "error", err)
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

	cat := catalog.New(kv, nil, log)
	count, err := cat.Import(ctx, data)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	log.Info("import complete", "workouts", count)
}
