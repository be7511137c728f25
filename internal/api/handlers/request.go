package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/guarded-funds/internal/api/middleware"
	"github.com/hirosato/guarded-funds/internal/api/response"
	"github.com/hirosato/guarded-funds/internal/common/utils"
	productreq "github.com/hirosato/guarded-funds/internal/domain/request"
	"github.com/hirosato/guarded-funds/pkg/validator"
)

// RequestService takes and reviews loan applications and card requests
type RequestService interface {
	ApplyLoan(ctx context.Context, userID string, app *productreq.LoanApplication) (*productreq.Request, error)
	RequestCard(ctx context.Context, userID string, app *productreq.CardApplication) (*productreq.Request, error)
	ListByUser(ctx context.Context, userID string, kind productreq.Kind, limit int32, nextToken string) (*productreq.ListResponse, error)
	ListByStatus(ctx context.Context, kind productreq.Kind, status productreq.Status, limit int32, nextToken string) (*productreq.ListResponse, error)
	Approve(ctx context.Context, kind productreq.Kind, requestID, reviewer string) (*productreq.Request, error)
	Reject(ctx context.Context, kind productreq.Kind, requestID, reviewer string) (*productreq.Request, error)
}

// RequestHandler handles the loan and card endpoints. The list and review
// handlers are built per kind.
type RequestHandler struct {
	requests  RequestService
	validator validator.Validator
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requests RequestService, vld validator.Validator) *RequestHandler {
	return &RequestHandler{
		requests:  requests,
		validator: vld,
	}
}

// ApplyLoan handles POST /loans
func (h *RequestHandler) ApplyLoan(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, denied := principal(ctx, request)
	if denied != nil {
		return *denied, nil
	}

	var app productreq.LoanApplication
	if err := decodeBody(request, &app, h.validator); err != nil {
		return fail(ctx, logger, err, request)
	}

	created, err := h.requests.ApplyLoan(ctx, p.UserID, &app)
	if err != nil {
		return fail(ctx, logger, err, request)
	}

	logger.InfoContext(ctx, "loan application submitted", "requestId", created.ID, "product", created.Product)
	return response.Created(created, request.RequestContext.RequestID), nil
}

// RequestCard handles POST /cards
func (h *RequestHandler) RequestCard(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, denied := principal(ctx, request)
	if denied != nil {
		return *denied, nil
	}

	var app productreq.CardApplication
	if err := decodeBody(request, &app, h.validator); err != nil {
		return fail(ctx, logger, err, request)
	}

	created, err := h.requests.RequestCard(ctx, p.UserID, &app)
	if err != nil {
		return fail(ctx, logger, err, request)
	}

	logger.InfoContext(ctx, "card request submitted", "requestId", created.ID, "product", created.Product)
	return response.Created(created, request.RequestContext.RequestID), nil
}

// LoanProducts handles GET /loans/products
func (h *RequestHandler) LoanProducts(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return response.OK(productreq.LoanProducts(), request.RequestContext.RequestID), nil
}

// CardProducts handles GET /cards/products
func (h *RequestHandler) CardProducts(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return response.OK(productreq.CardProducts(), request.RequestContext.RequestID), nil
}

// ListOwn returns the handler for GET /loans or GET /cards
func (h *RequestHandler) ListOwn(kind productreq.Kind) middleware.APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		p, denied := principal(ctx, request)
		if denied != nil {
			return *denied, nil
		}

		limit, err := utils.ParseLimit(request.QueryStringParameters["limit"])
		if err != nil {
			return fail(ctx, logger, err, request)
		}

		page, err := h.requests.ListByUser(ctx, p.UserID, kind, limit, request.QueryStringParameters["nextToken"])
		if err != nil {
			return fail(ctx, logger, err, request)
		}
		return paged(page, request), nil
	}
}

// ListQueue returns the handler for GET /admin/loans or GET /admin/cards.
// The status query parameter defaults to pending.
func (h *RequestHandler) ListQueue(kind productreq.Kind) middleware.APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		limit, err := utils.ParseLimit(request.QueryStringParameters["limit"])
		if err != nil {
			return fail(ctx, logger, err, request)
		}

		status := productreq.Status(request.QueryStringParameters["status"])
		page, err := h.requests.ListByStatus(ctx, kind, status, limit, request.QueryStringParameters["nextToken"])
		if err != nil {
			return fail(ctx, logger, err, request)
		}
		return paged(page, request), nil
	}
}

// Approve returns the handler for POST /admin/{loans|cards}/{requestId}/approve
func (h *RequestHandler) Approve(kind productreq.Kind) middleware.APIGatewayHandler {
	return h.review(kind, h.requests.Approve)
}

// Reject returns the handler for POST /admin/{loans|cards}/{requestId}/reject
func (h *RequestHandler) Reject(kind productreq.Kind) middleware.APIGatewayHandler {
	return h.review(kind, h.requests.Reject)
}

type requestDecision func(ctx context.Context, kind productreq.Kind, requestID, reviewer string) (*productreq.Request, error)

func (h *RequestHandler) review(kind productreq.Kind, decide requestDecision) middleware.APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		p, denied := principal(ctx, request)
		if denied != nil {
			return *denied, nil
		}

		requestID := request.PathParameters[ParamRequestID]
		if err := utils.ValidateRequestID(requestID); err != nil {
			return fail(ctx, logger, err, request)
		}

		reviewed, err := decide(ctx, kind, requestID, p.UserID)
		if err != nil {
			return fail(ctx, logger, err, request)
		}

		logger.InfoContext(ctx, "request reviewed",
			"requestId", reviewed.ID,
			"kind", kind,
			"status", reviewed.Status,
			"reviewer", p.UserID)
		return response.OK(reviewed, request.RequestContext.RequestID), nil
	}
}

func paged(page *productreq.ListResponse, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	return response.SuccessWithPagination(page.Requests, &response.Pagination{
		Count:     len(page.Requests),
		NextToken: page.NextToken,
	}, http.StatusOK, request.RequestContext.RequestID)
}
