// Package persistence stores the game state in a single named slot.
// Slots live either in a SQLite key/value table or in a JSON file.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrSlotEmpty is returned when nothing has been saved under a key yet.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is one durable key-value cell.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// DB wraps a SQLite connection holding state slots.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; SQLite serializes anyway and this keeps :memory: databases shared.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Get returns the raw value stored under key.
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM slots WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %q: %w", key, err)
	}
	return []byte(value), nil
}

// Put replaces the value stored under key.
func (db *DB) Put(ctx context.Context, key string, value []byte) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put slot %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx, "DELETE FROM slots WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete slot %q: %w", key, err)
	}
	return nil
}

// UpdatedAt returns when key was last written.
func (db *DB) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var ms int64
	err := db.conn.GetContext(ctx, &ms, "SELECT updated_at FROM slots WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrSlotEmpty
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("slot %q timestamp: %w", key, err)
	}
	return time.UnixMilli(ms), nil
}

// Slot returns the slot stored under key.
func (db *DB) Slot(key string) Slot {
	return dbSlot{db: db, key: key}
}

type dbSlot struct {
	db  *DB
	key string
}

func (s dbSlot) Load(ctx context.Context) ([]byte, error) {
	return s.db.Get(ctx, s.key)
}

func (s dbSlot) Save(ctx context.Context, data []byte) error {
	return s.db.Put(ctx, s.key, data)
}

func (s dbSlot) Clear(ctx context.Context) error {
	return s.db.Delete(ctx, s.key)
}
