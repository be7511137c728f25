package repository

import (
	"log/slog"

	"github.com/hirosato/guarded-funds/internal/platform/dynamodb/client"
)

// Factory creates repository instances
type Factory struct {
	client    client.Client
	tableName string
	logger    *slog.Logger
}

// NewFactory creates a new repository factory
func NewFactory(client client.Client, tableName string, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Accounts returns the account repository, which is also the code store
func (f *Factory) Accounts() *DynamoDBAccountRepository {
	return NewDynamoDBAccountRepository(f.client, f.tableName, f.logger)
}

// Entries returns the ledger entry repository
func (f *Factory) Entries() *DynamoDBEntryRepository {
	return NewDynamoDBEntryRepository(f.client, f.tableName, f.logger)
}

// Approvals returns the repository applying review decisions
func (f *Factory) Approvals() *DynamoDBApprovalRepository {
	return NewDynamoDBApprovalRepository(f.client, f.tableName, f.logger)
}

// Attempts returns the verification attempt repository
func (f *Factory) Attempts() *AttemptRepository {
	return NewAttemptRepository(f.client, f.tableName)
}

// SecurityEvents returns the security event repository
func (f *Factory) SecurityEvents() *SecurityEventRepository {
	return NewSecurityEventRepository(f.client, f.tableName)
}

// Requests returns the loan and card request repository
func (f *Factory) Requests() *DynamoDBRequestRepository {
	return NewDynamoDBRequestRepository(f.client, f.tableName, f.logger)
}
