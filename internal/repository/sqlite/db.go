// Package sqlite хранит магазины и рекомендации в локальном файле SQLite
// для запусков без PostgreSQL (CLI, разработка).
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/DRSN-tech/cartwhisper/pkg/e"
	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// DB оборачивает соединение с SQLite.
type DB struct {
	db *sql.DB
}

// Open открывает или создаёт базу по пути path и создаёт схему.
func Open(ctx context.Context, path string) (*DB, error) {
	const op = "sqlite.Open"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// SQLite не поддерживает параллельную запись
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, e.Wrap(op, err)
	}

	if err := createSchema(ctx, db); err != nil {
		db.Close()
		return nil, e.Wrap(op, err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(ctx context.Context, db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS shops (
			domain TEXT PRIMARY KEY,
			access_token TEXT NOT NULL DEFAULT '',
			plan TEXT NOT NULL DEFAULT 'free',
			created_at TEXT NOT NULL,
			updated_at TEXT
		);

		CREATE TABLE IF NOT EXISTS recommendations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			shop TEXT NOT NULL REFERENCES shops (domain) ON DELETE CASCADE,
			run_id TEXT NOT NULL,
			source_product_id TEXT NOT NULL,
			source_title TEXT NOT NULL DEFAULT '',
			recommended_product_id TEXT NOT NULL,
			recommended_title TEXT NOT NULL DEFAULT '',
			recommended_price TEXT NOT NULL DEFAULT '0',
			recommended_image TEXT NOT NULL DEFAULT '',
			recommended_category TEXT NOT NULL DEFAULT '',
			similarity REAL NOT NULL,
			priority INTEGER NOT NULL,
			reasoning TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT,
			UNIQUE (shop, source_product_id, recommended_product_id)
		);

		CREATE INDEX IF NOT EXISTS idx_recommendations_active
			ON recommendations (shop, source_product_id, priority DESC, similarity DESC)
			WHERE is_active = 1;
	`

	_, err := db.ExecContext(ctx, schema)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
