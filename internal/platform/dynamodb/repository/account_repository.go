package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hirosato/guarded-funds/internal/domain/account"
	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/verification"
	"github.com/hirosato/guarded-funds/internal/platform/dynamodb/client"
)

// DynamoDBAccountRepository implements account.Repository and verification.CodeStore
type DynamoDBAccountRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
	now    func() time.Time
}

// NewDynamoDBAccountRepository creates a new DynamoDBAccountRepository
func NewDynamoDBAccountRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBAccountRepository {
	return &DynamoDBAccountRepository{
		client: client,
		table:  table,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type accountItem struct {
	PK                string    `dynamodbav:"PK"`
	SK                string    `dynamodbav:"SK"`
	Type              string    `dynamodbav:"Type"`
	UserID            string    `dynamodbav:"UserID"`
	Email             string    `dynamodbav:"Email"`
	FirstName         string    `dynamodbav:"FirstName"`
	LastName          string    `dynamodbav:"LastName"`
	Currency          string    `dynamodbav:"Currency"`
	Status            string    `dynamodbav:"Status"`
	Balance           Amount    `dynamodbav:"Balance"`
	SavingsBalance    Amount    `dynamodbav:"SavingsBalance"`
	SecondaryCodeHash string    `dynamodbav:"SecondaryCodeHash"`
	TertiaryCodeHash  string    `dynamodbav:"TertiaryCodeHash"`
	CreatedAt         time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt         time.Time `dynamodbav:"UpdatedAt"`
}

func newAccountItem(a *account.Account) accountItem {
	return accountItem{
		PK:                userPK(a.UserID),
		SK:                profileSK,
		Type:              typeAccount,
		UserID:            a.UserID,
		Email:             a.Email,
		FirstName:         a.FirstName,
		LastName:          a.LastName,
		Currency:          a.Currency,
		Status:            string(a.Status),
		Balance:           Amount{a.Balance},
		SavingsBalance:    Amount{a.SavingsBalance},
		SecondaryCodeHash: a.SecondaryCodeHash,
		TertiaryCodeHash:  a.TertiaryCodeHash,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func (i accountItem) toAccount() *account.Account {
	return &account.Account{
		UserID:            i.UserID,
		Email:             i.Email,
		FirstName:         i.FirstName,
		LastName:          i.LastName,
		Currency:          i.Currency,
		Status:            account.Status(i.Status),
		Balance:           i.Balance.Decimal,
		SavingsBalance:    i.SavingsBalance.Decimal,
		SecondaryCodeHash: i.SecondaryCodeHash,
		TertiaryCodeHash:  i.TertiaryCodeHash,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

// CreateAccount stores a new account, failing if one exists for the user
func (r *DynamoDBAccountRepository) CreateAccount(ctx context.Context, acc *account.Account) error {
	item, err := attributevalue.MarshalMap(newAccountItem(acc))
	if err != nil {
		return errors.NewInternalError("failed to marshal account", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if stderrors.As(err, &condCheckErr) {
			return errors.NewConflictError("account already exists")
		}
		return errors.NewStorageError("failed to create account", err)
	}

	return nil
}

// GetAccount reads an account by user ID
func (r *DynamoDBAccountRepository) GetAccount(ctx context.Context, userID string) (*account.Account, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            keyOf(userPK(userID), profileSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.NewStorageError("failed to get account", err)
	}
	if len(result.Item) == 0 {
		return nil, errors.NewNotFoundError("account not found")
	}

	var item accountItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, errors.NewInternalError("failed to unmarshal account", err)
	}

	return item.toAccount(), nil
}

// GetCodeHashes implements verification.CodeStore
func (r *DynamoDBAccountRepository) GetCodeHashes(ctx context.Context, userID string) (verification.CodeHashes, error) {
	proj := expression.NamesList(expression.Name("SecondaryCodeHash"), expression.Name("TertiaryCodeHash"))
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return verification.CodeHashes{}, errors.NewInternalError("failed to build projection", err)
	}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(r.table),
		Key:                      keyOf(userPK(userID), profileSK),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
		ConsistentRead:           aws.Bool(true),
	})
	if err != nil {
		return verification.CodeHashes{}, fmt.Errorf("failed to read code hashes: %w", err)
	}
	if len(result.Item) == 0 {
		return verification.CodeHashes{}, errors.NewNotFoundError("account not found")
	}

	var item accountItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return verification.CodeHashes{}, fmt.Errorf("failed to unmarshal code hashes: %w", err)
	}

	return verification.CodeHashes{
		Secondary: item.SecondaryCodeHash,
		Tertiary:  item.TertiaryCodeHash,
	}, nil
}

// UpdateCodeHashes replaces both code hashes of an existing account
func (r *DynamoDBAccountRepository) UpdateCodeHashes(ctx context.Context, userID, secondaryHash, tertiaryHash string) error {
	update := expression.
		Set(expression.Name("SecondaryCodeHash"), expression.Value(secondaryHash)).
		Set(expression.Name("TertiaryCodeHash"), expression.Value(tertiaryHash)).
		Set(expression.Name("UpdatedAt"), expression.Value(r.now()))

	return r.update(ctx, userID, update)
}

// UpdateStatus changes the status of an existing account
func (r *DynamoDBAccountRepository) UpdateStatus(ctx context.Context, userID string, status account.Status) error {
	update := expression.
		Set(expression.Name("Status"), expression.Value(string(status))).
		Set(expression.Name("UpdatedAt"), expression.Value(r.now()))

	return r.update(ctx, userID, update)
}

func (r *DynamoDBAccountRepository) update(ctx context.Context, userID string, update expression.UpdateBuilder) error {
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return errors.NewInternalError("failed to build update expression", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       keyOf(userPK(userID), profileSK),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if stderrors.As(err, &condCheckErr) {
			return errors.NewNotFoundError("account not found")
		}
		return errors.NewStorageError("failed to update account", err)
	}

	r.logger.InfoContext(ctx, "Account updated", "userId", userID)
	return nil
}

var (
	_ account.Repository     = (*DynamoDBAccountRepository)(nil)
	_ verification.CodeStore = (*DynamoDBAccountRepository)(nil)
)
