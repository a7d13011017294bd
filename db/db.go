// Package db is the SQLite backend for the changelog. Each stored file is a
// row in the documents table; its integer version is the concurrency token.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrationPattern = regexp.MustCompile(`^(\d{3})-.*\.sql$`)

// Open opens an sqlite database with pragmas suited to a single small
// service process.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON;",
		"PRAGMA journal_mode=wal;",
		"PRAGMA busy_timeout=1000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

// MigrationHook is called after each migration that was applied.
type MigrationHook func(name string, start, end time.Time)

// RunMigrations executes pending migrations (NNN-*.sql) in numeric order.
// Each migration records itself in the migrations table.
func RunMigrations(ctx context.Context, db *sql.DB, hook MigrationHook) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var migrations []string
	for _, e := range entries {
		if !e.IsDir() && migrationPattern.MatchString(e.Name()) {
			migrations = append(migrations, e.Name())
		}
	}
	sort.Strings(migrations)

	executed, err := executedMigrations(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		n, err := strconv.Atoi(migrationPattern.FindStringSubmatch(m)[1])
		if err != nil {
			return fmt.Errorf("parse migration number %s: %w", m, err)
		}
		if executed[n] {
			continue
		}
		start := time.Now()
		if err := executeMigration(ctx, db, m); err != nil {
			return fmt.Errorf("execute %s: %w", m, err)
		}
		slog.Info("db: applied migration", "file", m, "number", n)
		if hook != nil {
			hook(m, start, time.Now())
		}
	}
	return nil
}

func executedMigrations(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	executed := make(map[int]bool)
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='migrations'").Scan(&tableName)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		slog.Info("db: migrations table not found; running all migrations")
		return executed, nil
	case err != nil:
		return nil, fmt.Errorf("check migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT migration_number FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("query executed migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan migration number: %w", err)
		}
		executed[n] = true
	}
	return executed, rows.Err()
}

func executeMigration(ctx context.Context, db *sql.DB, filename string) error {
	content, err := migrationFS.ReadFile("migrations/" + filename)
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("exec %s: %w", filename, err)
	}
	return tx.Commit()
}
