package repository

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hirosato/guarded-funds/internal/domain/verification"
	"github.com/hirosato/guarded-funds/internal/platform/dynamodb/client"
)

const (
	attemptRetention       = 30 * 24 * time.Hour
	securityEventRetention = 90 * 24 * time.Hour
)

// AttemptRepository implements verification.AttemptRepository
type AttemptRepository struct {
	client    client.Client
	tableName string
}

// NewAttemptRepository creates a new verification attempt repository
func NewAttemptRepository(dbClient client.Client, tableName string) *AttemptRepository {
	return &AttemptRepository{
		client:    dbClient,
		tableName: tableName,
	}
}

// LogAttempt records one code check
func (r *AttemptRepository) LogAttempt(ctx context.Context, attempt *verification.Attempt) error {
	item, err := attributevalue.MarshalMap(map[string]interface{}{
		"PK":        attemptPK(attempt.UserID),
		"SK":        attemptSK(attempt.Timestamp, attempt.ID),
		"Type":      typeAttempt,
		"ID":        attempt.ID,
		"UserID":    attempt.UserID,
		"Stage":     string(attempt.Stage),
		"Result":    string(attempt.Result),
		"Timestamp": attempt.Timestamp.UTC().Format(time.RFC3339Nano),
		"Success":   attempt.Success,
		"TTL":       attempt.Timestamp.Add(attemptRetention).Unix(),
	})
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	return err
}

// GetFailedAttemptsCount counts failed checks of a user since the given time
func (r *AttemptRepository) GetFailedAttemptsCount(ctx context.Context, userID string, since time.Time) (int, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(attemptPK(userID))).
		And(expression.Key("SK").GreaterThanEqual(expression.Value("ATTEMPT#" + since.UTC().Format(sortableTime))))
	filter := expression.Name("Success").Equal(expression.Value(false))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).WithFilter(filter).Build()
	if err != nil {
		return 0, err
	}

	count := 0
	var startKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
			Select:                    types.SelectCount,
		})
		if err != nil {
			return 0, err
		}

		count += int(result.Count)
		startKey = result.LastEvaluatedKey
		if len(startKey) == 0 {
			return count, nil
		}
	}
}

// SecurityEventRepository implements verification.SecurityEventRepository
type SecurityEventRepository struct {
	client    client.Client
	tableName string
}

// NewSecurityEventRepository creates a new security event repository
func NewSecurityEventRepository(dbClient client.Client, tableName string) *SecurityEventRepository {
	return &SecurityEventRepository{
		client:    dbClient,
		tableName: tableName,
	}
}

// LogSecurityEvent logs a security event
func (r *SecurityEventRepository) LogSecurityEvent(ctx context.Context, event *verification.SecurityEvent) error {
	item, err := attributevalue.MarshalMap(map[string]interface{}{
		"PK":        securityEventPK(event.Timestamp),
		"SK":        securityEventSK(event.Timestamp, event.ID),
		"Type":      typeSecurityEvent,
		"ID":        event.ID,
		"EventType": event.EventType,
		"UserID":    event.UserID,
		"Message":   event.Message,
		"Metadata":  event.Metadata,
		"Timestamp": event.Timestamp.UTC().Format(time.RFC3339Nano),
		"Severity":  event.Severity,
		"TTL":       event.Timestamp.Add(securityEventRetention).Unix(),
	})
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	return err
}

var (
	_ verification.AttemptRepository       = (*AttemptRepository)(nil)
	_ verification.SecurityEventRepository = (*SecurityEventRepository)(nil)
)
