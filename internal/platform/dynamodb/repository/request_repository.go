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
	"github.com/hirosato/guarded-funds/internal/domain/request"
	"github.com/hirosato/guarded-funds/internal/platform/dynamodb/client"
)

// DynamoDBRequestRepository implements request.Repository
type DynamoDBRequestRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBRequestRepository creates a new DynamoDBRequestRepository
func NewDynamoDBRequestRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBRequestRepository {
	return &DynamoDBRequestRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

type loanTermsItem struct {
	Amount         Amount `dynamodbav:"Amount"`
	Purpose        string `dynamodbav:"Purpose"`
	TermMonths     int    `dynamodbav:"TermMonths"`
	Income         Amount `dynamodbav:"Income"`
	Employment     string `dynamodbav:"Employment"`
	Employer       string `dynamodbav:"Employer"`
	WorkExperience string `dynamodbav:"WorkExperience"`
}

type requestItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`
	Type   string `dynamodbav:"Type"`

	ID          string                `dynamodbav:"ID"`
	UserID      string                `dynamodbav:"UserID"`
	UserEmail   string                `dynamodbav:"UserEmail"`
	UserName    string                `dynamodbav:"UserName"`
	Kind        string                `dynamodbav:"Kind"`
	Product     string                `dynamodbav:"Product"`
	ProductName string                `dynamodbav:"ProductName"`
	Status      string                `dynamodbav:"Status"`
	Loan        *loanTermsItem        `dynamodbav:"Loan,omitempty"`
	Card        *request.CardDelivery `dynamodbav:"Card,omitempty"`
	CreatedAt   time.Time             `dynamodbav:"CreatedAt"`
	UpdatedAt   time.Time             `dynamodbav:"UpdatedAt"`
	ReviewedAt  *time.Time            `dynamodbav:"ReviewedAt,omitempty"`
	ReviewedBy  string                `dynamodbav:"ReviewedBy,omitempty"`
}

func newRequestItem(r *request.Request) requestItem {
	item := requestItem{
		PK:          userPK(r.UserID),
		SK:          requestSK(string(r.Kind), r.ID),
		GSI1PK:      requestStatusPK(string(r.Kind), string(r.Status)),
		GSI1SK:      requestSK(string(r.Kind), r.ID),
		Type:        typeRequest,
		ID:          r.ID,
		UserID:      r.UserID,
		UserEmail:   r.UserEmail,
		UserName:    r.UserName,
		Kind:        string(r.Kind),
		Product:     r.Product,
		ProductName: r.ProductName,
		Status:      string(r.Status),
		Card:        r.Card,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		ReviewedAt:  r.ReviewedAt,
		ReviewedBy:  r.ReviewedBy,
	}
	if l := r.Loan; l != nil {
		item.Loan = &loanTermsItem{
			Amount:         Amount{l.Amount},
			Purpose:        l.Purpose,
			TermMonths:     l.TermMonths,
			Income:         Amount{l.Income},
			Employment:     l.Employment,
			Employer:       l.Employer,
			WorkExperience: l.WorkExperience,
		}
	}
	return item
}

func (i requestItem) toRequest() request.Request {
	r := request.Request{
		ID:          i.ID,
		UserID:      i.UserID,
		UserEmail:   i.UserEmail,
		UserName:    i.UserName,
		Kind:        request.Kind(i.Kind),
		Product:     i.Product,
		ProductName: i.ProductName,
		Status:      request.Status(i.Status),
		Card:        i.Card,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
		ReviewedAt:  i.ReviewedAt,
		ReviewedBy:  i.ReviewedBy,
	}
	if l := i.Loan; l != nil {
		r.Loan = &request.LoanTerms{
			Amount:         l.Amount.Decimal,
			Purpose:        l.Purpose,
			TermMonths:     l.TermMonths,
			Income:         l.Income.Decimal,
			Employment:     l.Employment,
			Employer:       l.Employer,
			WorkExperience: l.WorkExperience,
		}
	}
	return r
}

func unmarshalRequests(items []map[string]types.AttributeValue) ([]request.Request, error) {
	requests := make([]request.Request, 0, len(items))
	for _, item := range items {
		var ri requestItem
		if err := attributevalue.UnmarshalMap(item, &ri); err != nil {
			return nil, errors.NewInternalError("failed to unmarshal request", err)
		}
		requests = append(requests, ri.toRequest())
	}
	return requests, nil
}

// CreateRequest stores a new request
func (r *DynamoDBRequestRepository) CreateRequest(ctx context.Context, req *request.Request) error {
	item, err := attributevalue.MarshalMap(newRequestItem(req))
	if err != nil {
		return errors.NewInternalError("failed to marshal request", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if stderrors.As(err, &condCheckErr) {
			return errors.NewConflictError("request already exists")
		}
		return fmt.Errorf("failed to create request: %w", err)
	}

	r.logger.InfoContext(ctx, "Request created",
		"requestId", req.ID,
		"userId", req.UserID,
		"kind", req.Kind,
		"product", req.Product,
	)
	return nil
}

// GetRequestByStatus finds a request through the status index
func (r *DynamoDBRequestRepository) GetRequestByStatus(ctx context.Context, kind request.Kind, status request.Status, requestID string) (*request.Request, error) {
	keyCondition := expression.Key("GSI1PK").Equal(expression.Value(requestStatusPK(string(kind), string(status)))).
		And(expression.Key("GSI1SK").Equal(expression.Value(requestSK(string(kind), requestID))))

	page, err := r.query(ctx, keyCondition, true, 1, nil)
	if err != nil {
		return nil, err
	}
	if len(page.Requests) == 0 {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no %s %s request %s", status, kind, requestID))
	}
	return &page.Requests[0], nil
}

// ListByUser lists a user's requests of one kind, newest first
func (r *DynamoDBRequestRepository) ListByUser(ctx context.Context, userID string, kind request.Kind, limit int32, nextToken string) (*request.ListResponse, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith(requestPrefix(string(kind))))

	startKey, err := decodeToken(nextToken)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, keyCondition, false, limit, startKey)
}

// ListByStatus lists the requests of one kind with a status, oldest first
func (r *DynamoDBRequestRepository) ListByStatus(ctx context.Context, kind request.Kind, status request.Status, limit int32, nextToken string) (*request.ListResponse, error) {
	keyCondition := expression.Key("GSI1PK").Equal(expression.Value(requestStatusPK(string(kind), string(status))))

	startKey, err := decodeToken(nextToken)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, keyCondition, true, limit, startKey)
}

// query reads one page. Status queues are read oldest first through the
// index, a user's partition newest first.
func (r *DynamoDBRequestRepository) query(ctx context.Context, keyCondition expression.KeyConditionBuilder, byStatus bool, limit int32, startKey map[string]types.AttributeValue) (*request.ListResponse, error) {
	if limit <= 0 {
		limit = request.DefaultPageSize
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, errors.NewInternalError("failed to build query expression", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         startKey,
		ScanIndexForward:          aws.Bool(byStatus),
		Limit:                     aws.Int32(limit),
	}
	if byStatus {
		input.IndexName = aws.String(gsi1Name)
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, errors.NewStorageError("failed to query requests", err)
	}

	requests, err := unmarshalRequests(result.Items)
	if err != nil {
		return nil, err
	}

	resp := &request.ListResponse{Requests: requests}
	if resp.NextToken, err = encodeToken(result.LastEvaluatedKey); err != nil {
		return nil, errors.NewInternalError("failed to build page token", err)
	}
	return resp, nil
}

// CloseRequest moves a pending request to a terminal status
func (r *DynamoDBRequestRepository) CloseRequest(ctx context.Context, req *request.Request, status request.Status, reviewer string, at time.Time) error {
	err := reviewTransition{
		table:    r.table,
		key:      keyOf(userPK(req.UserID), requestSK(string(req.Kind), req.ID)),
		status:   string(status),
		indexPK:  requestStatusPK(string(req.Kind), string(status)),
		reviewer: reviewer,
		at:       at,
	}.apply(ctx, r.client)
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if stderrors.As(err, &condCheckErr) {
			return errors.NewConflictError("request is no longer pending")
		}
		return errors.NewStorageError("failed to update request", err)
	}

	r.logger.InfoContext(ctx, "Request closed",
		"requestId", req.ID,
		"kind", req.Kind,
		"status", status,
		"reviewer", reviewer,
	)
	return nil
}

var _ request.Repository = (*DynamoDBRequestRepository)(nil)
