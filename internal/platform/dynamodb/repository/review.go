package repository

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/platform/dynamodb/client"
)

// statusPending is the status every reviewable item starts in
const statusPending = "pending"

// reviewTransition moves a pending item to status and re-keys it in the
// status index under indexPK. The write fails its condition when the item
// is no longer pending.
type reviewTransition struct {
	table    string
	key      map[string]types.AttributeValue
	status   string
	indexPK  string
	reviewer string
	at       time.Time
}

func (t reviewTransition) update() (*types.Update, error) {
	update := expression.
		Set(expression.Name("Status"), expression.Value(t.status)).
		Set(expression.Name("GSI1PK"), expression.Value(t.indexPK)).
		Set(expression.Name("ReviewedBy"), expression.Value(t.reviewer)).
		Set(expression.Name("ReviewedAt"), expression.Value(t.at)).
		Set(expression.Name("UpdatedAt"), expression.Value(t.at))
	cond := expression.Name("Status").Equal(expression.Value(statusPending))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, errors.NewInternalError("failed to build review update", err)
	}

	return &types.Update{
		TableName:                 aws.String(t.table),
		Key:                       t.key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

// apply writes the transition on its own, outside a transaction
func (t reviewTransition) apply(ctx context.Context, c client.ItemWriter) error {
	update, err := t.update()
	if err != nil {
		return err
	}

	_, err = c.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 update.TableName,
		Key:                       update.Key,
		UpdateExpression:          update.UpdateExpression,
		ConditionExpression:       update.ConditionExpression,
		ExpressionAttributeNames:  update.ExpressionAttributeNames,
		ExpressionAttributeValues: update.ExpressionAttributeValues,
	})
	return err
}
