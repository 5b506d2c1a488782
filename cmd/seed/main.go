// Package main loads tenants and administrators into the configured
// database. Without -file it applies the built-in demo data set.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	adminstore "smartparking/internal/admin/store"
	"smartparking/internal/auth/password"
	"smartparking/internal/platform/config"
	"smartparking/internal/platform/database"
	"smartparking/internal/platform/logger"
	"smartparking/internal/seeder"
	tenantstore "smartparking/internal/tenant/store"
)

func main() {
	file := flag.String("file", "", "YAML seed file. Uses the demo data set when empty.")
	migrateFirst := flag.Bool("migrate", true, "Apply migrations before seeding")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if cfg.IsProduction() && *file == "" {
		log.Error("refusing to load demo data in production; pass -file")
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *file, *migrateFirst, log); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, file string, migrateFirst bool, log *slog.Logger) error {
	if migrateFirst {
		if err := database.Migrate(cfg.Database.URL); err != nil {
			return err
		}
	}
	pool, err := database.New(ctx, cfg.Database, nil)
	if err != nil {
		return err
	}
	defer pool.Close()

	doc, err := loadDocument(file)
	if err != nil {
		return err
	}

	s := seeder.New(
		tenantstore.NewPostgres(pool.DB()),
		adminstore.NewPostgres(pool.DB()),
		password.New(),
		log,
	)
	_, err = s.Seed(ctx, doc)
	return err
}

func loadDocument(file string) (*seeder.File, error) {
	if file == "" {
		return seeder.Demo()
	}
	return seeder.LoadFile(file)
}
