package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
//
// The canvas is persisted as one row in canvases (key + size) plus one row per
// cell in canvas_cells, so a single pixel placement touches a single row.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS canvases (
	key  TEXT PRIMARY KEY,
	size INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS canvas_cells (
	canvas_key TEXT NOT NULL,
	x          INTEGER NOT NULL,
	y          INTEGER NOT NULL,
	color      TEXT NOT NULL,
	PRIMARY KEY (canvas_key, x, y)
);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadSnapshot reconstructs the persisted grid, or store.ErrNotFound when the
// canvas has never been saved.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context) ([][]string, error) {
	var size int
	err := s.db.QueryRowContext(ctx,
		`SELECT size FROM canvases WHERE key = ?`, store.CanvasKey,
	).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load canvas meta: %w", err)
	}
	if size <= 0 {
		return nil, fmt.Errorf("load canvas meta: invalid size %d", size)
	}

	grid := make([][]string, size)
	for y := range grid {
		grid[y] = make([]string, size)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT x, y, color FROM canvas_cells WHERE canvas_key = ?`, store.CanvasKey,
	)
	if err != nil {
		return nil, fmt.Errorf("load canvas cells: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var x, y int
		var color string
		if err := rows.Scan(&x, &y, &color); err != nil {
			return nil, fmt.Errorf("scan canvas cell: %w", err)
		}
		if x < 0 || x >= size || y < 0 || y >= size {
			return nil, fmt.Errorf("canvas cell (%d,%d) outside stored size %d", x, y, size)
		}
		grid[y][x] = color
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate canvas cells: %w", err)
	}

	// Every cell must be present; a gap means the snapshot is malformed.
	for y := range grid {
		for x, color := range grid[y] {
			if color == "" {
				return nil, fmt.Errorf("canvas cell (%d,%d) missing from snapshot", x, y)
			}
		}
	}

	return grid, nil
}

// SaveSnapshot replaces the whole persisted grid in one transaction.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, grid [][]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO canvases (key, size) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET size = excluded.size
	`, store.CanvasKey, len(grid))
	if err != nil {
		return fmt.Errorf("upsert canvas meta: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM canvas_cells WHERE canvas_key = ?`, store.CanvasKey,
	); err != nil {
		return fmt.Errorf("clear canvas cells: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO canvas_cells (canvas_key, x, y, color) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare cell insert: %w", err)
	}
	defer stmt.Close()

	for y, row := range grid {
		for x, color := range row {
			if _, err := stmt.ExecContext(ctx, store.CanvasKey, x, y, color); err != nil {
				return fmt.Errorf("insert cell (%d,%d): %w", x, y, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// SaveCell upserts a single cell of the persisted grid.
func (s *SQLiteStore) SaveCell(ctx context.Context, x, y int, color string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO canvas_cells (canvas_key, x, y, color) VALUES (?, ?, ?, ?)
		ON CONFLICT(canvas_key, x, y) DO UPDATE SET color = excluded.color
	`, store.CanvasKey, x, y, color)
	if err != nil {
		return fmt.Errorf("upsert cell (%d,%d): %w", x, y, err)
	}
	return nil
}
