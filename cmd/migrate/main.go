package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ncaa-baseball/internal/config"
	"ncaa-baseball/pkg/database"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	if *direction != "up" && *direction != "down" {
		fmt.Fprintf(os.Stderr, "Unknown direction %q: use up or down\n", *direction)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Connect to database
	dbConfig := &database.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
		Path:     cfg.Database.Path,
	}

	db, err := database.Open(dbConfig, logging.NewNopLogger(), metrics.NewCollector("ncaa_stats_migrate", nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database successfully\n", db.Driver())

	ctx := context.Background()
	if *direction == "up" {
		fmt.Println("Running migration: create schema")
		err = db.Migrate(ctx)
	} else {
		fmt.Println("Running migration: drop schema")
		err = db.Drop(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migration completed successfully")
}
