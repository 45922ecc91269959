package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// The DDL sticks to types both Postgres and MySQL accept.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS channels (
		id VARCHAR(64) PRIMARY KEY,
		title VARCHAR(255) NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		uploads_playlist_id VARCHAR(64) NOT NULL DEFAULT '',
		thumbnail_url VARCHAR(512) NOT NULL DEFAULT '',
		subscribed BOOLEAN NOT NULL DEFAULT FALSE,
		subscribed_override BOOLEAN NOT NULL DEFAULT FALSE,
		snippet TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id VARCHAR(64) PRIMARY KEY,
		channel_id VARCHAR(64) NOT NULL,
		title VARCHAR(512) NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		published_at TIMESTAMP NULL,
		kind VARCHAR(16) NOT NULL DEFAULT 'vod',
		downloaded BOOLEAN NOT NULL DEFAULT FALSE,
		watched BOOLEAN NOT NULL DEFAULT FALSE,
		discarded BOOLEAN NOT NULL DEFAULT FALSE,
		watch_prio INTEGER NOT NULL DEFAULT 0,
		vid_path VARCHAR(1024) NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
