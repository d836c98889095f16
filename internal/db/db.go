package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection pool.
type DB struct {
	*sql.DB
}

func New(databaseURL string) (*DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{conn}, nil
}

// Migrate creates the render_jobs table if it does not exist.
func (db *DB) Migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS render_jobs (
	id UUID PRIMARY KEY,
	brand_id TEXT,
	script_id TEXT,
	theme TEXT NOT NULL DEFAULT 'dark',
	status TEXT NOT NULL DEFAULT 'pending',
	output_url TEXT,
	error_message TEXT,
	brand_name TEXT,
	slides_snapshot JSONB,
	logo_url_snapshot TEXT,
	watermark_url_snapshot TEXT,
	website_url_snapshot TEXT,
	watermark_opacity INTEGER NOT NULL DEFAULT 18,
	logo_position TEXT NOT NULL DEFAULT 'bottom_center',
	logo_size_snapshot INTEGER NOT NULL DEFAULT 120,
	qr_code_url_snapshot TEXT,
	qr_text_snapshot TEXT,
	music_url_snapshot TEXT,
	music_volume_snapshot DOUBLE PRECISION NOT NULL DEFAULT 0.15,
	music_start_time_snapshot DOUBLE PRECISION NOT NULL DEFAULT 0,
	ai_voice_snapshot TEXT,
	outro_voiceover_snapshot TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_render_jobs_status ON render_jobs(status);
CREATE INDEX IF NOT EXISTS idx_render_jobs_created_at ON render_jobs(created_at DESC);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate render_jobs: %w", err)
	}
	return nil
}
