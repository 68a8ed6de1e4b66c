// Command seed migrates the schema and inserts reference data.
//
//	go run ./cmd/seed                 migrate, then seed buildings and the bootstrap admin
//	go run ./cmd/seed -migrate-only   migrate and check the connection
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/usched/usched-api/config"
	"github.com/usched/usched-api/database"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and a health check without seeding")
	flag.Parse()

	if err := run(*migrateOnly); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(migrateOnly bool) error {
	if err := config.LoadENV(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := database.StartGORM(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return err
	}
	if err := store.HealthCheck(); err != nil {
		return err
	}

	if migrateOnly {
		tables, err := store.DB().Migrator().GetTables()
		if err != nil {
			return err
		}
		slog.Info("migrations completed", "tables", tables)
		return nil
	}

	if cfg.Bootstrap.Email == "" || cfg.Bootstrap.Password == "" {
		slog.Info("set ADMIN_EMAIL and ADMIN_PASSWORD to create the bootstrap admin")
	}
	if err := database.NewSeeder(store.DB()).SeedAll(cfg.Bootstrap); err != nil {
		return err
	}
	slog.Info("seeding completed")
	return nil
}
