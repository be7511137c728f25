package handlers

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/guarded-funds/internal/api/response"
	"github.com/hirosato/guarded-funds/internal/common/utils"
	"github.com/hirosato/guarded-funds/internal/domain/account"
	"github.com/hirosato/guarded-funds/pkg/validator"
)

// AccountService manages accounts and their codes
type AccountService interface {
	Open(ctx context.Context, req *account.OpenAccountRequest) (*account.OpenAccountResponse, error)
	Get(ctx context.Context, userID string) (*account.Account, error)
	RegenerateCodes(ctx context.Context, userID string) (*account.CodesResponse, error)
	SetStatus(ctx context.Context, userID string, status account.Status) (*account.Account, error)
}

// AccountHandler handles the account endpoints for customers and admins
type AccountHandler struct {
	accounts  AccountService
	validator validator.Validator
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts AccountService, vld validator.Validator) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		validator: vld,
	}
}

// GetOwn handles GET /account
func (h *AccountHandler) GetOwn(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, denied := principal(ctx, request)
	if denied != nil {
		return *denied, nil
	}

	acct, err := h.accounts.Get(ctx, p.UserID)
	if err != nil {
		return fail(ctx, logger, err, request)
	}
	return response.OK(acct, request.RequestContext.RequestID), nil
}

// Open handles POST /admin/accounts
func (h *AccountHandler) Open(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req account.OpenAccountRequest
	if err := decodeBody(request, &req, h.validator); err != nil {
		return fail(ctx, logger, err, request)
	}

	opened, err := h.accounts.Open(ctx, &req)
	if err != nil {
		return fail(ctx, logger, err, request)
	}

	logger.InfoContext(ctx, "account opened", "accountUserId", opened.Account.UserID)
	return response.Created(opened, request.RequestContext.RequestID), nil
}

// Get handles GET /admin/accounts/{userId}
func (h *AccountHandler) Get(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID := request.PathParameters[ParamUserID]
	if err := utils.ValidateRequiredString(userID, "userId"); err != nil {
		return fail(ctx, logger, err, request)
	}

	acct, err := h.accounts.Get(ctx, userID)
	if err != nil {
		return fail(ctx, logger, err, request)
	}
	return response.OK(acct, request.RequestContext.RequestID), nil
}

// RegenerateCodes handles POST /admin/accounts/{userId}/codes
func (h *AccountHandler) RegenerateCodes(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID := request.PathParameters[ParamUserID]
	if err := utils.ValidateRequiredString(userID, "userId"); err != nil {
		return fail(ctx, logger, err, request)
	}

	codes, err := h.accounts.RegenerateCodes(ctx, userID)
	if err != nil {
		return fail(ctx, logger, err, request)
	}

	logger.InfoContext(ctx, "codes regenerated", "accountUserId", userID)
	return response.OK(codes, request.RequestContext.RequestID), nil
}

// SetStatus handles PUT /admin/accounts/{userId}/status
func (h *AccountHandler) SetStatus(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID := request.PathParameters[ParamUserID]
	if err := utils.ValidateRequiredString(userID, "userId"); err != nil {
		return fail(ctx, logger, err, request)
	}

	var req account.SetStatusRequest
	if err := decodeBody(request, &req, h.validator); err != nil {
		return fail(ctx, logger, err, request)
	}

	acct, err := h.accounts.SetStatus(ctx, userID, req.Status)
	if err != nil {
		return fail(ctx, logger, err, request)
	}

	logger.InfoContext(ctx, "account status changed", "accountUserId", userID, "status", acct.Status)
	return response.OK(acct, request.RequestContext.RequestID), nil
}
