package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/monroy-qms/api/internal/config"
	"github.com/monroy-qms/api/migrations"
	"github.com/monroy-qms/api/pkg/logger"
)

const usage = `usage: migrate [-timeout 1m] <command> [args]

commands:
  up                 apply all pending migrations
  up-by-one          apply the next pending migration
  down               roll back the latest migration
  reset              roll back all migrations
  status             print migration status
  version            print the current schema version`

func main() {
	timeout := flag.Duration("timeout", time.Minute, "overall timeout")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logger.ParseLevel(os.Getenv("LOG_LEVEL")),
	}))

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	// Migrations only need the database settings, not the JWT secrets.
	dbCfg := config.DatabaseConfig{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     envOr("DB_HOST", "localhost"),
		Port:     5432,
		User:     envOr("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     envOr("DB_NAME", "qms"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
	}
	if p := os.Getenv("DB_PORT"); p != "" {
		fmt.Sscanf(p, "%d", &dbCfg.Port)
	}

	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		log.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Error("failed to set dialect", slog.String("error", err.Error()))
		os.Exit(1)
	}

	command := flag.Arg(0)
	if err := goose.RunContext(ctx, command, db, ".", flag.Args()[1:]...); err != nil {
		log.Error("migration command failed",
			slog.String("command", command),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	log.Info("migration command completed", slog.String("command", command))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
