package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

const masked = "***"

var sensitiveHeaders = []string{
	"Authorization",
	"X-Api-Key",
	"Cookie",
}

// Body fields that must never reach the logs
var sensitiveFields = map[string]bool{
	"secondarycode": true,
	"tertiarycode":  true,
	"cvv":           true,
	"number":        true,
	"accountnumber": true,
	"routingnumber": true,
}

// LoggingMiddleware is a middleware for logging requests and responses
type LoggingMiddleware struct{}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware() LoggingMiddleware {
	return LoggingMiddleware{}
}

// Handle handles the logging middleware. The logger passed on carries the
// request ID.
func (m LoggingMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		startTime := time.Now()
		logger = logger.With("requestId", request.RequestContext.RequestID)

		logRequest(ctx, request, logger)

		response, err := next(ctx, logger, request)

		logResponse(ctx, response, err, time.Since(startTime), logger)

		return response, err
	}
}

func logRequest(ctx context.Context, request events.APIGatewayProxyRequest, logger *slog.Logger) {
	logger.InfoContext(ctx, "REQUEST",
		"method", request.HTTPMethod,
		"path", request.Path,
		"queryParameters", request.QueryStringParameters,
		"headers", maskSensitiveHeaders(request.Headers))

	if request.Body != "" {
		logger.DebugContext(ctx, "REQUEST", "body", maskBody(request.Body))
	}
}

func logResponse(ctx context.Context, response events.APIGatewayProxyResponse, err error, duration time.Duration, logger *slog.Logger) {
	if err != nil {
		logger.InfoContext(ctx, "ERROR", "error", err)
	}

	logger.InfoContext(ctx, "RESPONSE",
		"status", response.StatusCode,
		"duration", duration,
	)

	if response.Body != "" {
		logger.DebugContext(ctx, "RESPONSE", "body", maskBody(response.Body))
	}
}

// maskSensitiveHeaders masks sensitive headers regardless of their case
func maskSensitiveHeaders(headers map[string]string) map[string]string {
	maskedHeaders := make(map[string]string, len(headers))
	for k, v := range headers {
		maskedHeaders[k] = v
		for _, h := range sensitiveHeaders {
			if strings.EqualFold(k, h) {
				maskedHeaders[k] = masked
			}
		}
	}
	return maskedHeaders
}

// maskBody masks sensitive fields at any depth of a JSON body. Bodies that
// are not JSON are dropped.
func maskBody(body string) string {
	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return "<non-JSON body omitted>"
	}

	out, err := json.Marshal(maskValue(v))
	if err != nil {
		return "<unprintable body omitted>"
	}
	return string(out)
}

func maskValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			if sensitiveFields[strings.ToLower(k)] {
				t[k] = masked
				continue
			}
			t[k] = maskValue(child)
		}
		return t
	case []interface{}:
		for i, child := range t {
			t[i] = maskValue(child)
		}
		return t
	default:
		return v
	}
}
