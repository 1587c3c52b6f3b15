package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ============================================================
// SQLite Key-Value Repository
// ============================================================

//go:embed migrations/001_init_layout.sql
var initMigration string

// Repository хранит сериализованное состояние раскладок: один ключ - один блоб.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init запускает миграции.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, initMigration); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// Load возвращает блоб по ключу; для отсутствующего ключа - (nil, nil).
func (r *Repository) Load(ctx context.Context, key string) ([]byte, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT value
        FROM layout_state
        WHERE key = ?
    `, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return []byte(value), nil
}

// Save записывает блоб, заменяя прежнее значение.
func (r *Repository) Save(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO layout_state (key, value, updated_at)
        VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
        ON CONFLICT(key) DO UPDATE SET
            value = excluded.value,
            updated_at = excluded.updated_at
    `, key, string(data))
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Ping проверяет доступность базы (readiness).
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
