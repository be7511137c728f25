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

	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/ledger"
	"github.com/hirosato/guarded-funds/internal/platform/dynamodb/client"
)

// DynamoDBEntryRepository implements ledger.Repository
type DynamoDBEntryRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBEntryRepository creates a new DynamoDBEntryRepository
func NewDynamoDBEntryRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBEntryRepository {
	return &DynamoDBEntryRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

type entryItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`
	Type   string `dynamodbav:"Type"`

	ID                string                 `dynamodbav:"ID"`
	UserID            string                 `dynamodbav:"UserID"`
	Kind              string                 `dynamodbav:"Kind"`
	Amount            Amount                 `dynamodbav:"Amount"`
	Fee               Amount                 `dynamodbav:"Fee"`
	Total             Amount                 `dynamodbav:"Total"`
	Status            string                 `dynamodbav:"Status"`
	Recipient         string                 `dynamodbav:"Recipient,omitempty"`
	RecipientType     string                 `dynamodbav:"RecipientType,omitempty"`
	TransferType      string                 `dynamodbav:"TransferType,omitempty"`
	Method            string                 `dynamodbav:"Method,omitempty"`
	AccountType       string                 `dynamodbav:"AccountType"`
	Description       string                 `dynamodbav:"Description,omitempty"`
	Date              string                 `dynamodbav:"Date"`
	SecondaryVerified bool                   `dynamodbav:"SecondaryVerified"`
	TertiaryVerified  bool                   `dynamodbav:"TertiaryVerified"`
	RequiresApproval  bool                   `dynamodbav:"RequiresApproval"`
	PaymentDetails    *ledger.PaymentDetails `dynamodbav:"PaymentDetails,omitempty"`
	CreatedAt         time.Time              `dynamodbav:"CreatedAt"`
	UpdatedAt         time.Time              `dynamodbav:"UpdatedAt"`
	ReviewedAt        *time.Time             `dynamodbav:"ReviewedAt,omitempty"`
	ReviewedBy        string                 `dynamodbav:"ReviewedBy,omitempty"`
}

func newEntryItem(e *ledger.Entry) entryItem {
	return entryItem{
		PK:                userPK(e.UserID),
		SK:                entrySK(e.ID),
		GSI1PK:            statusPK(string(e.Status)),
		GSI1SK:            entrySK(e.ID),
		Type:              typeEntry,
		ID:                e.ID,
		UserID:            e.UserID,
		Kind:              string(e.Kind),
		Amount:            Amount{e.Amount},
		Fee:               Amount{e.Fee},
		Total:             Amount{e.Total},
		Status:            string(e.Status),
		Recipient:         e.Recipient,
		RecipientType:     e.RecipientType,
		TransferType:      e.TransferType,
		Method:            e.Method,
		AccountType:       e.AccountType,
		Description:       e.Description,
		Date:              e.Date,
		SecondaryVerified: e.SecondaryVerified,
		TertiaryVerified:  e.TertiaryVerified,
		RequiresApproval:  e.RequiresApproval,
		PaymentDetails:    e.PaymentDetails,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
		ReviewedAt:        e.ReviewedAt,
		ReviewedBy:        e.ReviewedBy,
	}
}

func (i entryItem) toEntry() ledger.Entry {
	return ledger.Entry{
		ID:                i.ID,
		UserID:            i.UserID,
		Kind:              ledger.Kind(i.Kind),
		Amount:            i.Amount.Decimal,
		Fee:               i.Fee.Decimal,
		Total:             i.Total.Decimal,
		Status:            ledger.Status(i.Status),
		Recipient:         i.Recipient,
		RecipientType:     i.RecipientType,
		TransferType:      i.TransferType,
		Method:            i.Method,
		AccountType:       i.AccountType,
		Description:       i.Description,
		Date:              i.Date,
		SecondaryVerified: i.SecondaryVerified,
		TertiaryVerified:  i.TertiaryVerified,
		RequiresApproval:  i.RequiresApproval,
		PaymentDetails:    i.PaymentDetails,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
		ReviewedAt:        i.ReviewedAt,
		ReviewedBy:        i.ReviewedBy,
	}
}

func unmarshalEntries(items []map[string]types.AttributeValue) ([]ledger.Entry, error) {
	entries := make([]ledger.Entry, 0, len(items))
	for _, item := range items {
		var ei entryItem
		if err := attributevalue.UnmarshalMap(item, &ei); err != nil {
			return nil, errors.NewInternalError("failed to unmarshal ledger entry", err)
		}
		entries = append(entries, ei.toEntry())
	}
	return entries, nil
}

// CreateEntry stores a new entry
func (r *DynamoDBEntryRepository) CreateEntry(ctx context.Context, entry *ledger.Entry) error {
	item, err := attributevalue.MarshalMap(newEntryItem(entry))
	if err != nil {
		return errors.NewInternalError("failed to marshal ledger entry", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if stderrors.As(err, &condCheckErr) {
			return errors.NewConflictError("ledger entry already exists")
		}
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	r.logger.InfoContext(ctx, "Ledger entry created",
		"entryId", entry.ID,
		"userId", entry.UserID,
		"kind", entry.Kind,
	)
	return nil
}

// GetEntry reads one entry of a user
func (r *DynamoDBEntryRepository) GetEntry(ctx context.Context, userID, entryID string) (*ledger.Entry, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       keyOf(userPK(userID), entrySK(entryID)),
	})
	if err != nil {
		return nil, errors.NewStorageError("failed to get ledger entry", err)
	}
	if len(result.Item) == 0 {
		return nil, errors.NewNotFoundError("entry not found")
	}

	entries, err := unmarshalEntries([]map[string]types.AttributeValue{result.Item})
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// GetEntryByStatus finds an entry through the status index
func (r *DynamoDBEntryRepository) GetEntryByStatus(ctx context.Context, status ledger.Status, entryID string) (*ledger.Entry, error) {
	keyCondition := expression.Key("GSI1PK").Equal(expression.Value(statusPK(string(status)))).
		And(expression.Key("GSI1SK").Equal(expression.Value(entrySK(entryID))))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, errors.NewInternalError("failed to build query expression", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(gsi1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, errors.NewStorageError("failed to query ledger entry", err)
	}
	if len(result.Items) == 0 {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no %s entry %s", status, entryID))
	}

	entries, err := unmarshalEntries(result.Items[:1])
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// ListByUser lists a user's entries, newest first. Filtered queries keep
// reading until the page is full or the partition is exhausted.
func (r *DynamoDBEntryRepository) ListByUser(ctx context.Context, userID string, filter *ledger.ListFilter) (*ledger.ListResponse, error) {
	if filter == nil {
		filter = &ledger.ListFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = ledger.DefaultPageSize
	}

	builder := expression.NewBuilder().WithKeyCondition(
		expression.Key("PK").Equal(expression.Value(userPK(userID))).
			And(expression.Key("SK").BeginsWith(entryPrefix)),
	)
	if cond, ok := entryFilter(filter); ok {
		builder = builder.WithFilter(cond)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, errors.NewInternalError("failed to build query expression", err)
	}

	startKey, err := decodeToken(filter.NextToken)
	if err != nil {
		return nil, err
	}

	resp := &ledger.ListResponse{Entries: []ledger.Entry{}}
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.table),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
			ScanIndexForward:          aws.Bool(false),
			Limit:                     aws.Int32(limit - int32(len(resp.Entries))),
		})
		if err != nil {
			return nil, errors.NewStorageError("failed to list ledger entries", err)
		}

		entries, err := unmarshalEntries(result.Items)
		if err != nil {
			return nil, err
		}
		resp.Entries = append(resp.Entries, entries...)

		startKey = result.LastEvaluatedKey
		if len(startKey) == 0 || int32(len(resp.Entries)) >= limit {
			break
		}
	}

	if resp.NextToken, err = encodeToken(startKey); err != nil {
		return nil, errors.NewInternalError("failed to build page token", err)
	}
	return resp, nil
}

func entryFilter(filter *ledger.ListFilter) (expression.ConditionBuilder, bool) {
	var conds []expression.ConditionBuilder

	date := expression.Name("Date")
	switch {
	case filter.From != "" && filter.To != "":
		conds = append(conds, date.Between(expression.Value(filter.From), expression.Value(filter.To)))
	case filter.From != "":
		conds = append(conds, date.GreaterThanEqual(expression.Value(filter.From)))
	case filter.To != "":
		conds = append(conds, date.LessThanEqual(expression.Value(filter.To)))
	}
	if filter.Kind != "" {
		conds = append(conds, expression.Name("Kind").Equal(expression.Value(string(filter.Kind))))
	}
	if filter.Status != "" {
		conds = append(conds, expression.Name("Status").Equal(expression.Value(string(filter.Status))))
	}

	switch len(conds) {
	case 0:
		return expression.ConditionBuilder{}, false
	case 1:
		return conds[0], true
	default:
		return expression.And(conds[0], conds[1], conds[2:]...), true
	}
}

// ListByStatus lists entries with a status through the status index, oldest first
func (r *DynamoDBEntryRepository) ListByStatus(ctx context.Context, status ledger.Status, limit int32, nextToken string) (*ledger.ListResponse, error) {
	if limit <= 0 {
		limit = ledger.DefaultPageSize
	}

	keyCondition := expression.Key("GSI1PK").Equal(expression.Value(statusPK(string(status))))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, errors.NewInternalError("failed to build query expression", err)
	}

	startKey, err := decodeToken(nextToken)
	if err != nil {
		return nil, err
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(gsi1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         startKey,
		ScanIndexForward:          aws.Bool(true),
		Limit:                     aws.Int32(limit),
	})
	if err != nil {
		return nil, errors.NewStorageError("failed to list ledger entries", err)
	}

	entries, err := unmarshalEntries(result.Items)
	if err != nil {
		return nil, err
	}

	resp := &ledger.ListResponse{Entries: entries}
	if resp.NextToken, err = encodeToken(result.LastEvaluatedKey); err != nil {
		return nil, errors.NewInternalError("failed to build page token", err)
	}
	return resp, nil
}

var _ ledger.Repository = (*DynamoDBEntryRepository)(nil)
