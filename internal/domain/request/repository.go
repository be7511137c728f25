package request

import (
	"context"
	"time"
)

// Repository defines the interface for request data operations
type Repository interface {
	// Create a new request. Fails if a request with the same ID exists.
	CreateRequest(ctx context.Context, req *Request) error

	// Get a request by ID from the requests of a kind with the given status
	GetRequestByStatus(ctx context.Context, kind Kind, status Status, requestID string) (*Request, error)

	// List the requests of a kind made by a user, newest first
	ListByUser(ctx context.Context, userID string, kind Kind, limit int32, nextToken string) (*ListResponse, error)

	// List the requests of a kind with the given status, oldest first
	ListByStatus(ctx context.Context, kind Kind, status Status, limit int32, nextToken string) (*ListResponse, error)

	// Move a pending request to a terminal status. Fails with CONFLICT when
	// the request is no longer pending.
	CloseRequest(ctx context.Context, req *Request, status Status, reviewer string, at time.Time) error
}
