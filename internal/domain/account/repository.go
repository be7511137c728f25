package account

import (
	"context"
)

// Repository defines the interface for account data operations
type Repository interface {
	// Create a new account, failing with a conflict if it exists
	CreateAccount(ctx context.Context, account *Account) error

	// Get an account by user ID
	GetAccount(ctx context.Context, userID string) (*Account, error)

	// Replace both code hashes
	UpdateCodeHashes(ctx context.Context, userID, secondaryHash, tertiaryHash string) error

	// Change the account status
	UpdateStatus(ctx context.Context, userID string, status Status) error
}

// Directory creates sign-in identities for new account holders
type Directory interface {
	// CreateUser creates the identity and returns its user ID (the token subject)
	CreateUser(ctx context.Context, email, firstName, lastName string) (string, error)

	// DeleteUser removes the identity. A missing identity is not an error.
	DeleteUser(ctx context.Context, email string) error
}
