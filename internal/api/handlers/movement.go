package handlers

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/guarded-funds/internal/api/response"
	"github.com/hirosato/guarded-funds/internal/domain/movement"
)

// MovementService runs the operation wizard
type MovementService interface {
	Advance(ctx context.Context, userID string, req *movement.AdvanceRequest) (*movement.AdvanceResult, error)
	Retreat(req *movement.RetreatRequest) movement.Step
}

// AuditFlusher waits for verification audit writes started by a request
type AuditFlusher interface {
	Flush()
}

// MovementHandler handles the operation wizard endpoints
type MovementHandler struct {
	service MovementService
	audit   AuditFlusher
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(service MovementService, audit AuditFlusher) *MovementHandler {
	return &MovementHandler{
		service: service,
		audit:   audit,
	}
}

// Advance handles POST /movements/advance
func (h *MovementHandler) Advance(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, denied := principal(ctx, request)
	if denied != nil {
		return *denied, nil
	}
	if h.audit != nil {
		// Attempt records must land before the next request counts them
		defer h.audit.Flush()
	}

	var req movement.AdvanceRequest
	if err := decodeBody(request, &req, nil); err != nil {
		return fail(ctx, logger, err, request)
	}

	result, err := h.service.Advance(ctx, p.UserID, &req)
	if err != nil {
		return fail(ctx, logger, err, request)
	}

	if result.Done && result.Entry != nil {
		logger.InfoContext(ctx, "operation submitted",
			"entryId", result.Entry.ID,
			"kind", result.Entry.Kind,
			"status", result.Entry.Status)
		return response.Created(result, request.RequestContext.RequestID), nil
	}
	return response.OK(result, request.RequestContext.RequestID), nil
}

// Retreat handles POST /movements/retreat
func (h *MovementHandler) Retreat(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if _, denied := principal(ctx, request); denied != nil {
		return *denied, nil
	}

	var req movement.RetreatRequest
	if err := decodeBody(request, &req, nil); err != nil {
		return fail(ctx, logger, err, request)
	}

	step := h.service.Retreat(&req)
	return response.OK(map[string]movement.Step{"step": step}, request.RequestContext.RequestID), nil
}
