package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("database connected", "host", config.ConnConfig.Host, "database", config.ConnConfig.Database)
	return pool, nil
}

// Execer is the subset of a pool needed to apply the schema.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the tables if they do not exist. Safe to run at every start.
func EnsureSchema(ctx context.Context, db Execer) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS attributes (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL DEFAULT 'select',
		order_by TEXT NOT NULL DEFAULT 'menu_order',
		has_archives BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS attribute_modifications (
		attribute_id BIGINT PRIMARY KEY REFERENCES attributes(id) ON DELETE CASCADE,
		modified_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS image_assets (
		id BIGSERIAL PRIMARY KEY,
		source_url TEXT UNIQUE,
		object_key TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size_bytes BIGINT NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS terms (
		id BIGSERIAL PRIMARY KEY,
		attribute_id BIGINT NOT NULL REFERENCES attributes(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL DEFAULT '',
		suffix TEXT NOT NULL DEFAULT '',
		thumbnail_id BIGINT REFERENCES image_assets(id) ON DELETE SET NULL,
		modified_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (attribute_id, slug)
	)`,
	`CREATE TABLE IF NOT EXISTS term_sync_links (
		local_term_id BIGINT PRIMARY KEY REFERENCES terms(id) ON DELETE CASCADE,
		source_term_id BIGINT NOT NULL,
		last_synced_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS api_credentials (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		secret_hash TEXT NOT NULL,
		capabilities TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
