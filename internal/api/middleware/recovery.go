package middleware

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/guarded-funds/internal/api/response"
	"github.com/hirosato/guarded-funds/internal/domain/errors"
)

// RecoveryMiddleware turns panics and returned errors into error responses
type RecoveryMiddleware struct{}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware() RecoveryMiddleware {
	return RecoveryMiddleware{}
}

// Handle handles the recovery middleware
func (m RecoveryMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
		requestID := request.RequestContext.RequestID

		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "Panic while handling request",
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)
				resp, err = response.InternalError(requestID), nil
			}
		}()

		resp, err = next(ctx, logger, request)
		if err == nil {
			return resp, nil
		}

		var appErr errors.AppError
		if stderrors.As(err, &appErr) && appErr.StatusCode < http.StatusInternalServerError {
			logger.WarnContext(ctx, "Request failed", "code", appErr.Code, "error", err)
		} else {
			logger.ErrorContext(ctx, "Request failed", "error", err)
		}

		return response.FromError(err, requestID), nil
	}
}
