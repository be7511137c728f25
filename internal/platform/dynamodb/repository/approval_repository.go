package repository

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hirosato/guarded-funds/internal/domain/account"
	"github.com/hirosato/guarded-funds/internal/domain/approval"
	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/ledger"
	"github.com/hirosato/guarded-funds/internal/platform/dynamodb/client"
)

const conditionalCheckFailed = "ConditionalCheckFailed"

// DynamoDBApprovalRepository implements approval.Repository
type DynamoDBApprovalRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBApprovalRepository creates a new DynamoDBApprovalRepository
func NewDynamoDBApprovalRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBApprovalRepository {
	return &DynamoDBApprovalRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

// Settle completes a pending entry and applies it to the account balance in
// one transaction. A debit is only applied while the balance still covers
// its total; a deposit credits its net amount.
func (r *DynamoDBApprovalRepository) Settle(ctx context.Context, entry *ledger.Entry, reviewer string, at time.Time) error {
	entryUpdate, err := r.transition(entry, ledger.Completed, reviewer, at).update()
	if err != nil {
		return err
	}

	balance := expression.Name(account.AccountType(entry.AccountType).BalanceField())
	exists := expression.AttributeExists(expression.Name("PK"))

	var update expression.UpdateBuilder
	cond := exists
	if entry.Kind.IsDebit() {
		total := expression.Value(Amount{entry.Total})
		update = expression.Set(balance, balance.Minus(total))
		cond = exists.And(balance.GreaterThanEqual(total))
	} else {
		update = expression.Set(balance, balance.Plus(expression.Value(Amount{entry.Net()})))
	}
	update = update.Set(expression.Name("UpdatedAt"), expression.Value(at))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return errors.NewInternalError("failed to build balance update", err)
	}

	balanceUpdate := &types.Update{
		TableName:                 aws.String(r.table),
		Key:                       keyOf(userPK(entry.UserID), profileSK),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: entryUpdate},
			{Update: balanceUpdate},
		},
	})
	if err != nil {
		return settleError(entry, err)
	}

	r.logger.InfoContext(ctx, "Ledger entry settled",
		"entryId", entry.ID,
		"userId", entry.UserID,
		"kind", entry.Kind,
		"reviewer", reviewer,
	)
	return nil
}

// Close moves a pending entry to a terminal status without touching balances
func (r *DynamoDBApprovalRepository) Close(ctx context.Context, entry *ledger.Entry, status ledger.Status, reviewer string, at time.Time) error {
	err := r.transition(entry, status, reviewer, at).apply(ctx, r.client)
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if stderrors.As(err, &condCheckErr) {
			return errors.NewConflictError("entry is no longer pending")
		}
		return errors.NewStorageError("failed to update ledger entry", err)
	}

	r.logger.InfoContext(ctx, "Ledger entry closed",
		"entryId", entry.ID,
		"status", status,
		"reviewer", reviewer,
	)
	return nil
}

func (r *DynamoDBApprovalRepository) transition(entry *ledger.Entry, status ledger.Status, reviewer string, at time.Time) reviewTransition {
	return reviewTransition{
		table:    r.table,
		key:      keyOf(userPK(entry.UserID), entrySK(entry.ID)),
		status:   string(status),
		indexPK:  statusPK(string(status)),
		reviewer: reviewer,
		at:       at,
	}
}

// settleError maps transaction cancellation reasons, which are reported in
// the order of the transact items.
func settleError(entry *ledger.Entry, err error) error {
	var canceled *types.TransactionCanceledException
	if !stderrors.As(err, &canceled) {
		return errors.NewStorageError("failed to settle ledger entry", err)
	}

	reasons := canceled.CancellationReasons
	if len(reasons) > 0 && aws.ToString(reasons[0].Code) == conditionalCheckFailed {
		return errors.NewConflictError("entry is no longer pending")
	}
	if len(reasons) > 1 && aws.ToString(reasons[1].Code) == conditionalCheckFailed {
		if entry.Kind.IsDebit() {
			return errors.NewInsufficientBalanceError("Insufficient balance to approve this entry")
		}
		return errors.NewNotFoundError("account not found")
	}
	return errors.NewStorageError("failed to settle ledger entry", err)
}

var _ approval.Repository = (*DynamoDBApprovalRepository)(nil)
