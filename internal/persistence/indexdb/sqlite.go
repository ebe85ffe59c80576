// Package indexdb keeps the save-slot index: one sqlite row per written
// snapshot file, so resume can find the latest save without scanning the
// data directory. Writes happen on explicit SAVE, never per tick, so the
// index writes synchronously on the caller's goroutine.
package indexdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoSlot reports a lookup that matched nothing.
var ErrNoSlot = errors.New("indexdb: no such slot")

type SlotRow struct {
	Slot      string
	WorldID   string
	Path      string
	Tick      uint64
	Seed      int64
	Chunks    int
	Blocks    int
	CreatedAt time.Time
}

type SQLiteIndex struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL keeps readers out of the writer's way; NORMAL durability is fine
	// for a secondary index, the snapshot file is the source of truth.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		slot TEXT NOT NULL,
		world_id TEXT NOT NULL,
		path TEXT NOT NULL,
		tick INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		blocks INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (world_id, slot)
	);`)
	return err
}

func (s *SQLiteIndex) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// RecordSave upserts the slot row. Saving the same slot again replaces its
// metadata, matching the snapshot file being overwritten on disk.
func (s *SQLiteIndex) RecordSave(row SlotRow) error {
	_, err := s.db.Exec(`INSERT INTO snapshots
		(slot, world_id, path, tick, seed, chunks, blocks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (world_id, slot) DO UPDATE SET
			path=excluded.path,
			tick=excluded.tick,
			seed=excluded.seed,
			chunks=excluded.chunks,
			blocks=excluded.blocks,
			created_at=excluded.created_at`,
		row.Slot, row.WorldID, row.Path, row.Tick, row.Seed,
		row.Chunks, row.Blocks, row.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record save: %w", err)
	}
	return nil
}

// Lookup returns the row for a named slot.
func (s *SQLiteIndex) Lookup(worldID, slot string) (SlotRow, error) {
	return s.scanOne(`SELECT slot, world_id, path, tick, seed, chunks, blocks, created_at
		FROM snapshots WHERE world_id = ? AND slot = ?`, worldID, slot)
}

// Latest returns the most recently written slot for the world.
func (s *SQLiteIndex) Latest(worldID string) (SlotRow, error) {
	return s.scanOne(`SELECT slot, world_id, path, tick, seed, chunks, blocks, created_at
		FROM snapshots WHERE world_id = ?
		ORDER BY created_at DESC, tick DESC LIMIT 1`, worldID)
}

// Slots lists every slot for the world, newest first.
func (s *SQLiteIndex) Slots(worldID string) ([]SlotRow, error) {
	rows, err := s.db.Query(`SELECT slot, world_id, path, tick, seed, chunks, blocks, created_at
		FROM snapshots WHERE world_id = ? ORDER BY created_at DESC`, worldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SlotRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteIndex) scanOne(query string, args ...any) (SlotRow, error) {
	row, err := scanRow(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return SlotRow{}, ErrNoSlot
	}
	return row, err
}

func scanRow(r rowScanner) (SlotRow, error) {
	var row SlotRow
	var created string
	if err := r.Scan(&row.Slot, &row.WorldID, &row.Path, &row.Tick, &row.Seed,
		&row.Chunks, &row.Blocks, &created); err != nil {
		return SlotRow{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return SlotRow{}, fmt.Errorf("created_at %q: %w", created, err)
	}
	row.CreatedAt = t
	return row, nil
}
