package store

import (
	"context"
	"errors"
)

// CanvasKey identifies the single persisted canvas document.
const CanvasKey = "mainCanvas"

// ErrNotFound is returned when no snapshot exists for the canvas key.
var ErrNotFound = errors.New("canvas not found")

// Store is the durable persistence gateway for the canvas.
//
// Saves are best-effort from the caller's point of view: a failed save never
// rolls back in-memory state that was already applied and broadcast.
type Store interface {
	// LoadSnapshot returns the persisted grid as rows of color strings,
	// or ErrNotFound when nothing has been saved yet.
	LoadSnapshot(ctx context.Context) ([][]string, error)

	// SaveSnapshot replaces the persisted grid with the given one (upsert).
	SaveSnapshot(ctx context.Context, grid [][]string) error

	// SaveCell updates a single cell of the persisted grid (upsert).
	SaveCell(ctx context.Context, x, y int, color string) error

	// Close releases the underlying storage resources.
	Close() error
}
