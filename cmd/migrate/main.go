package main

import (
	"context"
	"database/sql"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-events/internal/config"
	"ms-events/internal/database/migrations"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up, down or reset")
	seed := flag.Bool("seed", false, "also run seed data migrations")
	dir := flag.String("dir", "./migrations", "migrations directory")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	cfg := config.Load()

	ctx := context.Background()
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN()))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	opts := migrations.DefaultOptions()
	opts.MigrationsDir = *dir
	opts.SeedData = *seed

	runner := migrations.NewRunner(db, opts)
	defer runner.Close()

	switch *cmd {
	case "up":
		if err := runner.RunMigrations(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
	case "down":
		if err := runner.MigrateDown(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
	case "reset":
		if err := runner.MigrateDown(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		if err := runner.RunMigrations(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
	default:
		log.Fatalf("Unknown command %q (want up, down or reset)", *cmd)
	}

	log.Println("✅ Done.")
}
