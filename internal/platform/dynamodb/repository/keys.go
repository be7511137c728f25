package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/hirosato/guarded-funds/internal/domain/errors"
)

// Single table layout
//
//	account          PK=USER#<userId>                  SK=PROFILE
//	ledger entry     PK=USER#<userId>                  SK=ENTRY#<ulid>
//	                 GSI1PK=STATUS#<status>            GSI1SK=ENTRY#<ulid>
//	product request  PK=USER#<userId>                  SK=REQUEST#<kind>#<ulid>
//	                 GSI1PK=REQUEST_STATUS#<kind>#<status>  GSI1SK=REQUEST#<kind>#<ulid>
//	code attempt     PK=VERIFY_ATTEMPT#<userId>        SK=ATTEMPT#<ts>#<id>
//	security event   PK=SECURITY_EVENT#<YYYY-MM-DD>    SK=EVENT#<ts>#<id>
const (
	gsi1Name = "GSI1"

	profileSK   = "PROFILE"
	entryPrefix = "ENTRY#"
	requestRoot = "REQUEST#"

	typeAccount       = "account"
	typeEntry         = "ledger_entry"
	typeRequest       = "product_request"
	typeAttempt       = "verification_attempt"
	typeSecurityEvent = "security_event"
)

// sortableTime keeps a fixed width so timestamps order lexically in sort keys
const sortableTime = "2006-01-02T15:04:05.000000000Z"

func userPK(userID string) string {
	return fmt.Sprintf("USER#%s", userID)
}

func entrySK(entryID string) string {
	return entryPrefix + entryID
}

func statusPK(status string) string {
	return fmt.Sprintf("STATUS#%s", status)
}

func requestPrefix(kind string) string {
	return requestRoot + kind + "#"
}

func requestSK(kind, requestID string) string {
	return requestPrefix(kind) + requestID
}

func requestStatusPK(kind, status string) string {
	return fmt.Sprintf("REQUEST_STATUS#%s#%s", kind, status)
}

func attemptPK(userID string) string {
	return fmt.Sprintf("VERIFY_ATTEMPT#%s", userID)
}

func attemptSK(ts time.Time, id string) string {
	return fmt.Sprintf("ATTEMPT#%s#%s", ts.UTC().Format(sortableTime), id)
}

func securityEventPK(ts time.Time) string {
	return fmt.Sprintf("SECURITY_EVENT#%s", ts.UTC().Format("2006-01-02"))
}

func securityEventSK(ts time.Time, id string) string {
	return fmt.Sprintf("EVENT#%s#%s", ts.UTC().Format(sortableTime), id)
}

func keyOf(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// Amount stores a decimal as a DynamoDB number so update and condition
// expressions can do arithmetic on it.
type Amount struct {
	decimal.Decimal
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler
func (a Amount) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: a.Decimal.String()}, nil
}

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler
func (a *Amount) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = v.Value
	case *types.AttributeValueMemberNULL:
		a.Decimal = decimal.Zero
		return nil
	default:
		return fmt.Errorf("cannot decode %T as an amount", av)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid stored amount %q: %w", raw, err)
	}
	a.Decimal = d
	return nil
}

// encodeToken turns a query's exclusive start key into an opaque page token
func encodeToken(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}

	var plain map[string]string
	if err := attributevalue.UnmarshalMap(key, &plain); err != nil {
		return "", fmt.Errorf("failed to encode page token: %w", err)
	}

	data, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("failed to encode page token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeToken(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.NewValidationError("Invalid page token")
	}

	var plain map[string]string
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, errors.NewValidationError("Invalid page token")
	}

	key, err := attributevalue.MarshalMap(plain)
	if err != nil {
		return nil, errors.NewValidationError("Invalid page token")
	}
	return key, nil
}

// lastKey builds the exclusive start key from the last returned item
func lastKey(item map[string]types.AttributeValue, attrs ...string) map[string]types.AttributeValue {
	key := make(map[string]types.AttributeValue, len(attrs))
	for _, a := range attrs {
		if v, ok := item[a]; ok {
			key[a] = v
		}
	}
	return key
}
