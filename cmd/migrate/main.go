package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/warimas/backoffice/internal/db"
	"github.com/warimas/backoffice/internal/logger"
)

type options struct {
	mode  string
	dir   string
	steps int
	dsn   string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&opts.mode, "mode", "m", "up", "migration mode: up, down or status")
	fs.StringVarP(&opts.dir, "dir", "d", "./migrations", "directory holding *.sql migrations")
	fs.IntVarP(&opts.steps, "steps", "n", 1, "number of migrations to roll back in down mode")
	fs.StringVar(&opts.dsn, "dsn", os.Getenv("DB_URL"), "Postgres connection string (defaults to $DB_URL)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.dsn == "" {
		return opts, errors.New("no database: pass --dsn or set DB_URL")
	}
	if opts.steps < 1 {
		return opts, errors.New("--steps must be at least 1")
	}
	return opts, nil
}

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()
	log := logger.L()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal("invalid arguments", zap.Error(err))
	}

	conn, err := sql.Open("postgres", opts.dsn)
	if err != nil {
		log.Fatal("failed to connect db", zap.Error(err))
	}
	defer conn.Close()

	if err := run(context.Background(), conn, opts); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
}

func run(ctx context.Context, conn *sql.DB, opts options) error {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(opts.dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	sort.Strings(files)

	switch opts.mode {
	case "up":
		return runMigrationsUp(ctx, conn, files)
	case "down":
		for i := 0; i < opts.steps; i++ {
			done, err := runMigrationDown(ctx, conn, files)
			if err != nil || !done {
				return err
			}
		}
		return nil
	case "status":
		return printStatus(ctx, conn, files, os.Stdout)
	default:
		return fmt.Errorf("unknown mode: %s (use 'up', 'down' or 'status')", opts.mode)
	}
}

func applied(ctx context.Context, conn *sql.DB, version string) (bool, error) {
	var exists bool
	err := conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// runMigrationsUp applies every pending file in name order, each in its own
// transaction together with its schema_migrations row.
func runMigrationsUp(ctx context.Context, conn *sql.DB, files []string) error {
	log := logger.L()

	for _, file := range files {
		version := filepath.Base(file)

		exists, err := applied(ctx, conn, version)
		if err != nil {
			return err
		}
		if exists {
			log.Debug("skipping applied migration", zap.String("version", version))
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		upSQL := extractMigrationPart(string(content), "Up")

		log.Info("applying migration", zap.String("version", version))
		err = db.WithTx(ctx, conn, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, upSQL); err != nil {
				return fmt.Errorf("migration %s: %w", version, err)
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			return err
		}
	}

	log.Info("all migrations applied")
	return nil
}

// runMigrationDown rolls back the latest applied migration. It reports
// false when nothing was left to roll back.
func runMigrationDown(ctx context.Context, conn *sql.DB, files []string) (bool, error) {
	log := logger.L()

	var lastVersion string
	err := conn.QueryRowContext(ctx,
		`SELECT version FROM schema_migrations ORDER BY applied_at DESC, version DESC LIMIT 1`).Scan(&lastVersion)
	if errors.Is(err, sql.ErrNoRows) {
		log.Info("no migrations to roll back")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get last applied migration: %w", err)
	}

	filePath := ""
	for _, f := range files {
		if filepath.Base(f) == lastVersion {
			filePath = f
			break
		}
	}
	if filePath == "" {
		return false, fmt.Errorf("migration file not found for version: %s", lastVersion)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	downSQL := extractMigrationPart(string(content), "Down")

	log.Info("rolling back migration", zap.String("version", lastVersion))
	err = db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, downSQL); err != nil {
			return fmt.Errorf("rollback %s: %w", lastVersion, err)
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, lastVersion)
		return err
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func printStatus(ctx context.Context, conn *sql.DB, files []string, out io.Writer) error {
	for _, file := range files {
		version := filepath.Base(file)
		exists, err := applied(ctx, conn, version)
		if err != nil {
			return err
		}
		state := "pending"
		if exists {
			state = "applied"
		}
		fmt.Fprintf(out, "%-8s %s\n", state, version)
	}
	return nil
}

func extractMigrationPart(content string, section string) string {
	lines := strings.Split(content, "\n")
	var part strings.Builder
	var inPart bool

	for _, line := range lines {
		if strings.Contains(line, "-- +migrate "+section) {
			inPart = true
			continue
		}
		if inPart && strings.HasPrefix(line, "-- +migrate") {
			break
		}
		if inPart {
			part.WriteString(line + "\n")
		}
	}
	return part.String()
}
