package eventlog

import "context"

// Log port (interface for the append-only event store). Rows are never
// updated or deleted; the store only grows.
type Log interface {
	// Append writes every row of one detection event, or none of them.
	Append(ctx context.Context, rows []Row) error

	// ReadRecent returns up to limit rows, newest first.
	ReadRecent(ctx context.Context, limit int) ([]Row, error)

	// ReadAll returns every row in append order. The result is an
	// immutable snapshot: analytics computes over it off-lock.
	ReadAll(ctx context.Context) ([]Row, error)
}
