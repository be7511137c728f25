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

// StatementService reads a customer's ledger
type StatementService interface {
	Get(ctx context.Context, userID, entryID string) (*ledger.Entry, error)
	ListByUser(ctx context.Context, userID string, filter *ledger.ListFilter) (*ledger.ListResponse, error)
}

// StatementHandler handles the customer statement endpoints
type StatementHandler struct {
	ledger StatementService
}

// NewStatementHandler creates a new statement handler
func NewStatementHandler(ledger StatementService) *StatementHandler {
	return &StatementHandler{ledger: ledger}
}

// List handles GET /entries
func (h *StatementHandler) List(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, denied := principal(ctx, request)
	if denied != nil {
		return *denied, nil
	}

	filter, err := parseListFilter(request.QueryStringParameters)
	if err != nil {
		return fail(ctx, logger, err, request)
	}

	page, err := h.ledger.ListByUser(ctx, p.UserID, filter)
	if err != nil {
		return fail(ctx, logger, err, request)
	}

	return response.SuccessWithPagination(page.Entries, &response.Pagination{
		Count:     len(page.Entries),
		NextToken: page.NextToken,
	}, http.StatusOK, request.RequestContext.RequestID), nil
}

// Get handles GET /entries/{entryId}
func (h *StatementHandler) Get(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, denied := principal(ctx, request)
	if denied != nil {
		return *denied, nil
	}

	entryID := request.PathParameters[ParamEntryID]
	if err := utils.ValidateEntryID(entryID); err != nil {
		return fail(ctx, logger, err, request)
	}

	entry, err := h.ledger.Get(ctx, p.UserID, entryID)
	if err != nil {
		return fail(ctx, logger, err, request)
	}
	return response.OK(entry, request.RequestContext.RequestID), nil
}

func parseListFilter(query map[string]string) (*ledger.ListFilter, error) {
	filter := &ledger.ListFilter{
		From:      query["from"],
		To:        query["to"],
		Kind:      ledger.Kind(query["kind"]),
		Status:    ledger.Status(query["status"]),
		NextToken: query["nextToken"],
	}

	if filter.From != "" {
		if err := utils.ValidateISODate(filter.From); err != nil {
			return nil, err
		}
	}
	if filter.To != "" {
		if err := utils.ValidateISODate(filter.To); err != nil {
			return nil, err
		}
	}
	if filter.From != "" && filter.To != "" && filter.From > filter.To {
		return nil, errors.NewValidationError("from must not be after to")
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, errors.NewValidationError("kind must be one of transfer, withdrawal, deposit")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, errors.NewValidationError("status must be one of pending, completed, failed, rejected")
	}

	limit, err := utils.ParseLimit(query["limit"])
	if err != nil {
		return nil, err
	}
	filter.Limit = limit
	return filter, nil
}
