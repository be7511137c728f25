package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/guarded-funds/internal/api/response"
	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/identity"
	"github.com/hirosato/guarded-funds/pkg/validator"
)

// Path parameter names set by the router
const (
	ParamEntryID   = "entryId"
	ParamUserID    = "userId"
	ParamRequestID = "requestId"
)

// principal returns the authenticated caller or an authentication error
// response
func principal(ctx context.Context, request events.APIGatewayProxyRequest) (*identity.Principal, *events.APIGatewayProxyResponse) {
	p, ok := identity.FromContext(ctx)
	if !ok || p.UserID == "" {
		resp := response.AuthenticationError("Authentication required", request.RequestContext.RequestID)
		return nil, &resp
	}
	return p, nil
}

// decodeBody unmarshals the request body into v and runs tag validation
// when a validator is given
func decodeBody(request events.APIGatewayProxyRequest, v interface{}, vld validator.Validator) error {
	if strings.TrimSpace(request.Body) == "" {
		return errors.NewValidationError("Request body is required")
	}
	if err := json.Unmarshal([]byte(request.Body), v); err != nil {
		return errors.NewInvalidInputError("Invalid request body", err)
	}
	if vld == nil {
		return nil
	}
	if err := vld.Validate(v); err != nil {
		return errors.NewValidationError(err.Error())
	}
	return nil
}

// fail converts err into an error response and logs server-side failures
func fail(ctx context.Context, logger *slog.Logger, err error, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp := response.FromError(err, request.RequestContext.RequestID)
	if resp.StatusCode >= 500 {
		logger.ErrorContext(ctx, "request failed", "error", err, "path", request.Path)
	} else {
		logger.InfoContext(ctx, "request rejected", "status", resp.StatusCode, "error", err)
	}
	return resp, nil
}
