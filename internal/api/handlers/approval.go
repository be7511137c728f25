package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/guarded-funds/internal/api/response"
	"github.com/hirosato/guarded-funds/internal/common/utils"
	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/ledger"
)

// ApprovalService reviews pending entries
type ApprovalService interface {
	ListPending(ctx context.Context, limit int32, nextToken string) (*ledger.ListResponse, error)
	Approve(ctx context.Context, entryID, reviewer string) (*ledger.Entry, error)
	Reject(ctx context.Context, entryID, reviewer string) (*ledger.Entry, error)
	Fail(ctx context.Context, entryID, reviewer string) (*ledger.Entry, error)
}

// ApprovalHandler handles the admin review endpoints
type ApprovalHandler struct {
	approvals ApprovalService
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approvals ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

// ListPending handles GET /admin/entries
func (h *ApprovalHandler) ListPending(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if status := request.QueryStringParameters["status"]; status != "" && ledger.Status(status) != ledger.Pending {
		return fail(ctx, logger, errors.NewValidationError("only pending entries can be listed for review"), request)
	}

	limit, err := utils.ParseLimit(request.QueryStringParameters["limit"])
	if err != nil {
		return fail(ctx, logger, err, request)
	}

	page, err := h.approvals.ListPending(ctx, limit, request.QueryStringParameters["nextToken"])
	if err != nil {
		return fail(ctx, logger, err, request)
	}

	return response.SuccessWithPagination(page.Entries, &response.Pagination{
		Count:     len(page.Entries),
		NextToken: page.NextToken,
	}, http.StatusOK, request.RequestContext.RequestID), nil
}

// Approve handles POST /admin/entries/{entryId}/approve
func (h *ApprovalHandler) Approve(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.review(ctx, logger, request, h.approvals.Approve)
}

// Reject handles POST /admin/entries/{entryId}/reject
func (h *ApprovalHandler) Reject(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.review(ctx, logger, request, h.approvals.Reject)
}

// Fail handles POST /admin/entries/{entryId}/fail
func (h *ApprovalHandler) Fail(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.review(ctx, logger, request, h.approvals.Fail)
}

type reviewFunc func(ctx context.Context, entryID, reviewer string) (*ledger.Entry, error)

func (h *ApprovalHandler) review(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, decide reviewFunc) (events.APIGatewayProxyResponse, error) {
	p, denied := principal(ctx, request)
	if denied != nil {
		return *denied, nil
	}

	entryID := request.PathParameters[ParamEntryID]
	if err := utils.ValidateEntryID(entryID); err != nil {
		return fail(ctx, logger, err, request)
	}

	entry, err := decide(ctx, entryID, p.UserID)
	if err != nil {
		return fail(ctx, logger, err, request)
	}

	logger.InfoContext(ctx, "entry reviewed",
		"entryId", entry.ID,
		"status", entry.Status,
		"reviewer", p.UserID)
	return response.OK(entry, request.RequestContext.RequestID), nil
}
