// Command generate_demo creates a demo catalog with public domain books.
// Usage: go run ./cmd/generate_demo [-db path/to/demo.db] [-today 2024-06-01]
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/demo"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/logging"
)

func main() {
	dbPath := flag.String("db", config.DefaultDemoDatabasePath, "path to the demo database file")
	todayFlag := flag.String("today", "", "reference date for loan due dates (default: today)")
	flag.Parse()

	logging.Setup("info", "text")

	today := entities.Today()
	if *todayFlag != "" {
		d, err := entities.ParseDate(*todayFlag)
		if err != nil {
			slog.Error("invalid -today", "error", err)
			os.Exit(1)
		}
		today = d
	}

	slog.Info("generating demo database", "path", *dbPath)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		slog.Error("failed to create demo directory", "error", err)
		os.Exit(1)
	}

	// Start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		slog.Error("failed to remove existing demo database", "error", err)
		os.Exit(1)
	}

	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     *dbPath,
		LogLevel: "silent",
	})
	if err != nil {
		slog.Error("failed to create database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	result, err := demo.Seed(db.DB, today)
	if err != nil {
		slog.Error("failed to seed demo catalog", "error", err)
		os.Exit(1)
	}

	slog.Info("demo database generated",
		"genres", result.Genres,
		"languages", result.Languages,
		"publishers", result.Publishers,
		"authors", result.Authors,
		"books", result.Books,
		"instances", result.Instances,
	)
}
