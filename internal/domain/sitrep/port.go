package sitrep

import (
	"context"
	"errors"
)

// ErrNotFound indicates no artifact exists for the given scan id.
var ErrNotFound = errors.New("scan artifact not found")

// Store port (interface for scan artifact persistence). Implementations
// must make whole-store read-modify-write atomic with respect to
// concurrent writers.
type Store interface {
	// Create stores the artifact under scanID. A scan artifact is
	// created exactly once.
	Create(ctx context.Context, scanID string, a Artifact) error

	// Get returns the artifact for scanID, or ErrNotFound.
	Get(ctx context.Context, scanID string) (*Artifact, error)

	// AppendChatTurn extends the chat history in chronological order.
	// Appending to an unknown scanID is a logged no-op, never an error.
	AppendChatTurn(ctx context.Context, scanID, role, content string) error

	// ChatHistory returns the ordered chat turns, empty if absent.
	ChatHistory(ctx context.Context, scanID string) ([]ChatTurn, error)

	// Retain keeps only the n most recently created artifacts, evicting
	// the rest by creation timestamp ascending. Maintenance only, never
	// on the hot path.
	Retain(ctx context.Context, n int) error
}
