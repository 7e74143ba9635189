package dbmigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fdg312/adaptive-tdee/migrations"
)

// Run executes a goose command (up, down, status) against dbURL using the
// migrations embedded in the binary.
func Run(ctx context.Context, command string, dbURL string) error {
	return run(ctx, command, dbURL, migrations.FS)
}

// Up applies every pending migration. Used for RUN_MIGRATIONS_ON_STARTUP.
func Up(ctx context.Context, dbURL string) error {
	return Run(ctx, "up", dbURL)
}

func run(ctx context.Context, command, dbURL string, fsys fs.FS) error {
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, DefaultMigrationsDir); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}
	return nil
}
