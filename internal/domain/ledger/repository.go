package ledger

import (
	"context"
)

// Repository defines the interface for ledger entry data operations
type Repository interface {
	// Create a new entry. Fails if an entry with the same ID exists.
	CreateEntry(ctx context.Context, entry *Entry) error

	// Get an entry of a user by ID
	GetEntry(ctx context.Context, userID, entryID string) (*Entry, error)

	// Get an entry by ID from the entries with the given status
	GetEntryByStatus(ctx context.Context, status Status, entryID string) (*Entry, error)

	// List the entries of a user, newest first
	ListByUser(ctx context.Context, userID string, filter *ListFilter) (*ListResponse, error)

	// List entries with the given status, oldest first
	ListByStatus(ctx context.Context, status Status, limit int32, nextToken string) (*ListResponse, error)
}
