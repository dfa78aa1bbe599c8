package config

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LovationAdmin/trainer-api/config/migrations"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func InitDB(s *Settings) (*sql.DB, error) {
	db, err := sql.Open("postgres", s.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(s.DBMaxOpenConns)
	db.SetMaxIdleConns(s.DBMaxIdleConns)

	return db, nil
}

// gooseUp is swapped out in tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// RunMigrations applies the embedded SQL migrations in order.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
