package response

import (
	stderrors "errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/guarded-funds/internal/domain/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success          bool             `json:"success"`
	Error            string           `json:"error"`
	ErrorDescription ErrorDescription `json:"error_description"`
	Metadata         ResponseMetadata `json:"metadata"`
}

// ErrorDescription represents the error details
type ErrorDescription struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error creates an error response. A zero status is derived from the code.
func Error(appErr errors.AppError, requestID string) events.APIGatewayProxyResponse {
	statusCode := appErr.StatusCode
	if statusCode == 0 {
		statusCode = errors.StatusFor(appErr.Code)
	}

	return marshal(statusCode, ErrorResponse{
		Success: false,
		Error:   appErr.Code,
		ErrorDescription: ErrorDescription{
			Message: appErr.Message,
			Details: appErr.Details,
		},
		Metadata: newMetadata(requestID),
	})
}

// FromError maps any error to an error response. Errors that are not an
// AppError are reported as a generic internal error so their text never
// reaches the client.
func FromError(err error, requestID string) events.APIGatewayProxyResponse {
	var appErr errors.AppError
	if stderrors.As(err, &appErr) {
		if appErr.Code == errors.CodeInternal {
			return InternalError(requestID)
		}
		return Error(appErr, requestID)
	}
	return InternalError(requestID)
}

// ValidationError creates a validation error response
func ValidationError(message string, requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewValidationError(message), requestID)
}

// NotFound creates a not found error response
func NotFound(message string, requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewNotFoundError(message), requestID)
}

// InternalError creates a generic internal error response. The cause is
// logged by the caller, never returned.
func InternalError(requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewInternalError("An unexpected error occurred", nil), requestID)
}

// AuthenticationError creates an authentication error response
func AuthenticationError(message string, requestID string) events.APIGatewayProxyResponse {
	resp := Error(errors.NewAuthenticationError(message), requestID)
	resp.Headers["WWW-Authenticate"] = `Bearer realm="guarded-funds"`
	return resp
}

// AuthorizationError creates an authorization error response
func AuthorizationError(message string, requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewAuthorizationError(message), requestID)
}

// MethodNotAllowed creates a response for a known path with an unsupported method
func MethodNotAllowed(requestID string) events.APIGatewayProxyResponse {
	return Error(errors.AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Method not allowed",
		StatusCode: http.StatusMethodNotAllowed,
	}, requestID)
}
