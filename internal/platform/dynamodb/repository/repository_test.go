package repository

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/guarded-funds/internal/domain/account"
	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/ledger"
	"github.com/hirosato/guarded-funds/internal/domain/verification"
	"github.com/hirosato/guarded-funds/internal/platform/dynamodb/client"
)

// TestClient is an in-memory implementation of the DynamoDB client interface for testing
type TestClient struct {
	client.MockDynamoDBClient
	items map[string]map[string]types.AttributeValue
}

// NewTestClient creates a new test client with an empty items map
func NewTestClient() *TestClient {
	return &TestClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

// GetItem retrieves an item from the in-memory store
func (c *TestClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	pk := params.Key["PK"].(*types.AttributeValueMemberS).Value
	sk := params.Key["SK"].(*types.AttributeValueMemberS).Value

	if item, exists := c.items[pk+"#"+sk]; exists {
		return &dynamodb.GetItemOutput{Item: item}, nil
	}
	return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{}}, nil
}

// PutItem adds or updates an item in the in-memory store
func (c *TestClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	pk := params.Item["PK"].(*types.AttributeValueMemberS).Value
	sk := params.Item["SK"].(*types.AttributeValueMemberS).Value
	key := pk + "#" + sk

	if aws.ToString(params.ConditionExpression) == "attribute_not_exists(PK)" {
		if _, exists := c.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("Item already exists")}
		}
	}

	c.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func attributeValues(m map[string]types.AttributeValue) []types.AttributeValue {
	out := make([]types.AttributeValue, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAccount() *account.Account {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &account.Account{
		UserID:            "user-1",
		Email:             "ada@example.com",
		FirstName:         "Ada",
		LastName:          "Lovelace",
		Currency:          "USD",
		Status:            account.Active,
		Balance:           decimal.RequireFromString("1500.25"),
		SavingsBalance:    decimal.RequireFromString("20"),
		SecondaryCodeHash: "hash-s",
		TertiaryCodeHash:  "hash-t",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func testEntry(id string) *ledger.Entry {
	now := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	return &ledger.Entry{
		ID:               id,
		UserID:           "user-1",
		Kind:             ledger.Withdrawal,
		Amount:           decimal.RequireFromString("100"),
		Fee:              decimal.RequireFromString("1.5"),
		Total:            decimal.RequireFromString("101.5"),
		Status:           ledger.Pending,
		Method:           "bank",
		AccountType:      "checking",
		Date:             "2024-03-02",
		RequiresApproval: true,
		PaymentDetails:   &ledger.PaymentDetails{Method: "bank", AccountNumber: "****6789"},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		repo := NewDynamoDBAccountRepository(NewTestClient(), "test-table", testLogger())
		require.NoError(t, repo.CreateAccount(ctx, testAccount()))

		got, err := repo.GetAccount(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", got.Email)
		assert.True(t, got.Balance.Equal(decimal.RequireFromString("1500.25")))
		assert.True(t, got.SavingsBalance.Equal(decimal.NewFromInt(20)))
		assert.Equal(t, account.Active, got.Status)

		hashes, err := repo.GetCodeHashes(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, verification.CodeHashes{Secondary: "hash-s", Tertiary: "hash-t"}, hashes)
	})

	t.Run("balances are stored as numbers", func(t *testing.T) {
		db := NewTestClient()
		repo := NewDynamoDBAccountRepository(db, "test-table", testLogger())
		require.NoError(t, repo.CreateAccount(ctx, testAccount()))

		item := db.items["USER#user-1#PROFILE"]
		require.NotNil(t, item)
		assert.Equal(t, &types.AttributeValueMemberN{Value: "1500.25"}, item["Balance"])
	})

	t.Run("duplicate account", func(t *testing.T) {
		repo := NewDynamoDBAccountRepository(NewTestClient(), "test-table", testLogger())
		require.NoError(t, repo.CreateAccount(ctx, testAccount()))

		err := repo.CreateAccount(ctx, testAccount())
		assert.True(t, stderrors.Is(err, errors.ErrConflict))
	})

	t.Run("missing account", func(t *testing.T) {
		repo := NewDynamoDBAccountRepository(NewTestClient(), "test-table", testLogger())

		_, err := repo.GetAccount(ctx, "nobody")
		assert.True(t, stderrors.Is(err, errors.ErrNotFound))

		_, err = repo.GetCodeHashes(ctx, "nobody")
		assert.True(t, stderrors.Is(err, errors.ErrNotFound))
	})

	t.Run("update status", func(t *testing.T) {
		db := client.NewMockDynamoDBClient()
		var input *dynamodb.UpdateItemInput
		db.UpdateItemFn = func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			input = params
			return &dynamodb.UpdateItemOutput{}, nil
		}
		repo := NewDynamoDBAccountRepository(db, "test-table", testLogger())

		require.NoError(t, repo.UpdateStatus(ctx, "user-1", account.Suspended))
		require.NotNil(t, input)
		assert.Equal(t, "USER#user-1", input.Key["PK"].(*types.AttributeValueMemberS).Value)
		assert.Contains(t, attributeValues(input.ExpressionAttributeValues), &types.AttributeValueMemberS{Value: "suspended"})
		assert.NotNil(t, input.ConditionExpression)
	})

	t.Run("update missing account", func(t *testing.T) {
		db := client.NewMockDynamoDBClient()
		db.UpdateItemFn = func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		}
		repo := NewDynamoDBAccountRepository(db, "test-table", testLogger())

		err := repo.UpdateCodeHashes(ctx, "nobody", "a", "b")
		assert.True(t, stderrors.Is(err, errors.ErrNotFound))
	})
}

func TestEntryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		db := NewTestClient()
		repo := NewDynamoDBEntryRepository(db, "test-table", testLogger())
		require.NoError(t, repo.CreateEntry(ctx, testEntry("01HQ0000000000000000000001")))

		item := db.items["USER#user-1#ENTRY#01HQ0000000000000000000001"]
		require.NotNil(t, item)
		assert.Equal(t, &types.AttributeValueMemberS{Value: "STATUS#pending"}, item["GSI1PK"])

		got, err := repo.GetEntry(ctx, "user-1", "01HQ0000000000000000000001")
		require.NoError(t, err)
		assert.Equal(t, ledger.Withdrawal, got.Kind)
		assert.True(t, got.Total.Equal(decimal.RequireFromString("101.5")))
		assert.Equal(t, "****6789", got.PaymentDetails.AccountNumber)
		assert.Nil(t, got.ReviewedAt)

		err = repo.CreateEntry(ctx, testEntry("01HQ0000000000000000000001"))
		assert.True(t, stderrors.Is(err, errors.ErrConflict))

		_, err = repo.GetEntry(ctx, "user-1", "01HQ0000000000000000000009")
		assert.True(t, stderrors.Is(err, errors.ErrNotFound))
	})

	t.Run("get by status uses the index", func(t *testing.T) {
		item, err := attributevalue.MarshalMap(newEntryItem(testEntry("01HQ0000000000000000000002")))
		require.NoError(t, err)

		db := client.NewMockDynamoDBClient()
		var input *dynamodb.QueryInput
		db.QueryFn = func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			input = params
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}, nil
		}
		repo := NewDynamoDBEntryRepository(db, "test-table", testLogger())

		got, err := repo.GetEntryByStatus(ctx, ledger.Pending, "01HQ0000000000000000000002")
		require.NoError(t, err)
		assert.Equal(t, "01HQ0000000000000000000002", got.ID)
		assert.Equal(t, "GSI1", aws.ToString(input.IndexName))
	})

	t.Run("get by status not found", func(t *testing.T) {
		repo := NewDynamoDBEntryRepository(client.NewMockDynamoDBClient(), "test-table", testLogger())
		_, err := repo.GetEntryByStatus(ctx, ledger.Pending, "01HQ0000000000000000000002")
		assert.True(t, stderrors.Is(err, errors.ErrNotFound))
	})

	t.Run("list by user fills the page across queries", func(t *testing.T) {
		first, _ := attributevalue.MarshalMap(newEntryItem(testEntry("01HQ0000000000000000000003")))
		second, _ := attributevalue.MarshalMap(newEntryItem(testEntry("01HQ0000000000000000000004")))

		db := client.NewMockDynamoDBClient()
		var inputs []*dynamodb.QueryInput
		db.QueryFn = func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			inputs = append(inputs, params)
			if len(inputs) == 1 {
				return &dynamodb.QueryOutput{
					Items:            []map[string]types.AttributeValue{first},
					LastEvaluatedKey: lastKey(first, "PK", "SK"),
				}, nil
			}
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{second}}, nil
		}
		repo := NewDynamoDBEntryRepository(db, "test-table", testLogger())

		resp, err := repo.ListByUser(ctx, "user-1", &ledger.ListFilter{Kind: ledger.Withdrawal, Limit: 5})
		require.NoError(t, err)
		assert.Len(t, resp.Entries, 2)
		assert.Empty(t, resp.NextToken)

		require.Len(t, inputs, 2)
		assert.False(t, aws.ToBool(inputs[0].ScanIndexForward))
		assert.NotNil(t, inputs[0].FilterExpression)
		assert.Equal(t, int32(5), aws.ToInt32(inputs[0].Limit))
		assert.Equal(t, int32(4), aws.ToInt32(inputs[1].Limit))
		assert.NotEmpty(t, inputs[1].ExclusiveStartKey)
	})

	t.Run("list by user returns a resumable token", func(t *testing.T) {
		first, _ := attributevalue.MarshalMap(newEntryItem(testEntry("01HQ0000000000000000000005")))

		db := client.NewMockDynamoDBClient()
		var inputs []*dynamodb.QueryInput
		db.QueryFn = func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			inputs = append(inputs, params)
			return &dynamodb.QueryOutput{
				Items:            []map[string]types.AttributeValue{first},
				LastEvaluatedKey: lastKey(first, "PK", "SK"),
			}, nil
		}
		repo := NewDynamoDBEntryRepository(db, "test-table", testLogger())

		resp, err := repo.ListByUser(ctx, "user-1", &ledger.ListFilter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, resp.Entries, 1)
		require.NotEmpty(t, resp.NextToken)
		assert.Nil(t, inputs[0].FilterExpression)

		_, err = repo.ListByUser(ctx, "user-1", &ledger.ListFilter{Limit: 1, NextToken: resp.NextToken})
		require.NoError(t, err)
		assert.Equal(t, lastKey(first, "PK", "SK"), inputs[1].ExclusiveStartKey)
	})

	t.Run("invalid page token", func(t *testing.T) {
		repo := NewDynamoDBEntryRepository(client.NewMockDynamoDBClient(), "test-table", testLogger())
		_, err := repo.ListByUser(ctx, "user-1", &ledger.ListFilter{NextToken: "!!not-a-token"})
		assert.True(t, stderrors.Is(err, errors.ErrValidation))
	})

	t.Run("list by status is oldest first", func(t *testing.T) {
		db := client.NewMockDynamoDBClient()
		var input *dynamodb.QueryInput
		db.QueryFn = func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			input = params
			return &dynamodb.QueryOutput{}, nil
		}
		repo := NewDynamoDBEntryRepository(db, "test-table", testLogger())

		resp, err := repo.ListByStatus(ctx, ledger.Pending, 10, "")
		require.NoError(t, err)
		assert.Empty(t, resp.Entries)
		assert.True(t, aws.ToBool(input.ScanIndexForward))
		assert.Equal(t, "GSI1", aws.ToString(input.IndexName))
	})
}

func canceled(codes ...string) error {
	reasons := make([]types.CancellationReason, 0, len(codes))
	for _, c := range codes {
		reasons = append(reasons, types.CancellationReason{Code: aws.String(c)})
	}
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}

func TestApprovalRepository(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)

	t.Run("settle writes entry and balance together", func(t *testing.T) {
		db := client.NewMockDynamoDBClient()
		var input *dynamodb.TransactWriteItemsInput
		db.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			input = params
			return &dynamodb.TransactWriteItemsOutput{}, nil
		}
		repo := NewDynamoDBApprovalRepository(db, "test-table", testLogger())

		require.NoError(t, repo.Settle(ctx, testEntry("01HQ0000000000000000000006"), "admin-1", at))
		require.Len(t, input.TransactItems, 2)

		entryUpdate := input.TransactItems[0].Update
		assert.Equal(t, "ENTRY#01HQ0000000000000000000006", entryUpdate.Key["SK"].(*types.AttributeValueMemberS).Value)

		balanceUpdate := input.TransactItems[1].Update
		assert.Equal(t, "PROFILE", balanceUpdate.Key["SK"].(*types.AttributeValueMemberS).Value)
		assert.Contains(t, aws.ToString(balanceUpdate.ConditionExpression), ">=")
		assert.Contains(t, attributeValues(balanceUpdate.ExpressionAttributeValues), &types.AttributeValueMemberN{Value: "101.5"})
	})

	t.Run("deposit has no balance floor", func(t *testing.T) {
		db := client.NewMockDynamoDBClient()
		var input *dynamodb.TransactWriteItemsInput
		db.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			input = params
			return &dynamodb.TransactWriteItemsOutput{}, nil
		}
		repo := NewDynamoDBApprovalRepository(db, "test-table", testLogger())

		entry := testEntry("01HQ0000000000000000000007")
		entry.Kind = ledger.Deposit
		entry.AccountType = "savings"
		require.NoError(t, repo.Settle(ctx, entry, "admin-1", at))

		balanceUpdate := input.TransactItems[1].Update
		assert.NotContains(t, aws.ToString(balanceUpdate.ConditionExpression), ">=")
		names := make([]string, 0)
		for _, n := range balanceUpdate.ExpressionAttributeNames {
			names = append(names, n)
		}
		assert.Contains(t, names, "SavingsBalance")
	})

	t.Run("cancellation reasons", func(t *testing.T) {
		tests := []struct {
			name   string
			kind   ledger.Kind
			err    error
			target error
		}{
			{"entry no longer pending", ledger.Withdrawal, canceled("ConditionalCheckFailed", "None"), errors.ErrConflict},
			{"debit exceeds balance", ledger.Transfer, canceled("None", "ConditionalCheckFailed"), errors.ErrInsufficientBalance},
			{"deposit to missing account", ledger.Deposit, canceled("None", "ConditionalCheckFailed"), errors.ErrNotFound},
			{"throttled", ledger.Withdrawal, canceled("ThrottlingError", "None"), errors.ErrStorage},
			{"transport", ledger.Withdrawal, stderrors.New("connection reset"), errors.ErrStorage},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				db := client.NewMockDynamoDBClient()
				db.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
					return nil, tt.err
				}
				repo := NewDynamoDBApprovalRepository(db, "test-table", testLogger())

				entry := testEntry("01HQ0000000000000000000008")
				entry.Kind = tt.kind
				err := repo.Settle(ctx, entry, "admin-1", at)
				assert.True(t, stderrors.Is(err, tt.target), "got %v", err)
			})
		}
	})

	t.Run("close conflicts when no longer pending", func(t *testing.T) {
		db := client.NewMockDynamoDBClient()
		db.UpdateItemFn = func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		}
		repo := NewDynamoDBApprovalRepository(db, "test-table", testLogger())

		err := repo.Close(ctx, testEntry("01HQ0000000000000000000009"), ledger.Rejected, "admin-1", at)
		assert.True(t, stderrors.Is(err, errors.ErrConflict))
	})
}

func TestAuditRepositories(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 3, 4, 8, 0, 0, 5, time.UTC)

	t.Run("log attempt", func(t *testing.T) {
		db := NewTestClient()
		repo := NewAttemptRepository(db, "test-table")

		err := repo.LogAttempt(ctx, &verification.Attempt{
			ID: "a1", UserID: "user-1", Stage: verification.Secondary,
			Result: verification.Mismatch, Timestamp: ts,
		})
		require.NoError(t, err)

		item := db.items["VERIFY_ATTEMPT#user-1#ATTEMPT#2024-03-04T08:00:00.000000005Z#a1"]
		require.NotNil(t, item)
		assert.Equal(t, &types.AttributeValueMemberBOOL{Value: false}, item["Success"])
		assert.Contains(t, item, "TTL")
	})

	t.Run("count failed attempts across pages", func(t *testing.T) {
		db := client.NewMockDynamoDBClient()
		calls := 0
		db.QueryFn = func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			calls++
			assert.Equal(t, types.SelectCount, params.Select)
			if calls == 1 {
				return &dynamodb.QueryOutput{Count: 2, LastEvaluatedKey: keyOf("VERIFY_ATTEMPT#user-1", "ATTEMPT#x")}, nil
			}
			return &dynamodb.QueryOutput{Count: 1}, nil
		}

		n, err := NewAttemptRepository(db, "test-table").GetFailedAttemptsCount(ctx, "user-1", ts)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("log security event", func(t *testing.T) {
		db := NewTestClient()
		err := NewSecurityEventRepository(db, "test-table").LogSecurityEvent(ctx, &verification.SecurityEvent{
			ID: "e1", EventType: "verification_failure", UserID: "user-1",
			Message: "Confirmation code mismatch", Timestamp: ts, Severity: "medium",
			Metadata: map[string]string{"stage": "secondary"},
		})
		require.NoError(t, err)
		assert.NotNil(t, db.items["SECURITY_EVENT#2024-03-04#EVENT#2024-03-04T08:00:00.000000005Z#e1"])
	})
}

func TestAmountAndTokens(t *testing.T) {
	av, err := attributevalue.Marshal(Amount{decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "12.5"}, av)

	var a Amount
	require.NoError(t, attributevalue.Unmarshal(&types.AttributeValueMemberN{Value: "0.10"}, &a))
	assert.True(t, a.Equal(decimal.RequireFromString("0.1")))

	assert.Error(t, a.UnmarshalDynamoDBAttributeValue(&types.AttributeValueMemberBOOL{Value: true}))

	key := keyOf("USER#user-1", "ENTRY#01HQ")
	token, err := encodeToken(key)
	require.NoError(t, err)
	decoded, err := decodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	empty, err := encodeToken(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
