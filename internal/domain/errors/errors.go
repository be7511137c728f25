package errors

import (
	"fmt"
	"net/http"
)

// Error codes. The code is the stable, client-facing identity of an error.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeAuthentication      = "AUTHENTICATION_ERROR"
	CodeAuthorization       = "AUTHORIZATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeCodeMismatch        = "CODE_MISMATCH"
	CodeLookupUnavailable   = "LOOKUP_UNAVAILABLE"
	CodeStorage             = "STORAGE_FAILURE"
	CodeLocked              = "VERIFICATION_LOCKED"
)

var statusByCode = map[string]int{
	CodeValidation:          http.StatusBadRequest,
	CodeInvalidInput:        http.StatusBadRequest,
	CodeAuthentication:      http.StatusUnauthorized,
	CodeAuthorization:       http.StatusForbidden,
	CodeNotFound:            http.StatusNotFound,
	CodeConflict:            http.StatusConflict,
	CodeInternal:            http.StatusInternalServerError,
	CodeInsufficientBalance: http.StatusUnprocessableEntity,
	CodeCodeMismatch:        http.StatusUnprocessableEntity,
	CodeLookupUnavailable:   http.StatusServiceUnavailable,
	CodeStorage:             http.StatusServiceUnavailable,
	CodeLocked:              http.StatusTooManyRequests,
}

// AppError is a custom error type for application errors
type AppError struct {
	Code       string
	Message    string
	StatusCode int // Same rule as HTTP status codes
	Err        error
	Details    map[string]interface{}
}

func newError(code, message string, err error) AppError {
	return AppError{
		Code:       code,
		Message:    message,
		StatusCode: StatusFor(code),
		Err:        err,
	}
}

// StatusFor returns the HTTP status for a code. Unknown codes are 500.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (e AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any AppError with the same Code
func (e AppError) Is(target error) bool {
	t, ok := target.(AppError)
	return ok && t.Code == e.Code
}

func (e AppError) Unwrap() error {
	return e.Err
}

// WithDetails replaces the details of the error
func (e AppError) WithDetails(details map[string]interface{}) AppError {
	e.Details = details
	return e
}

// WithDetail returns a copy of the error with one more detail. The receiver's
// map is never written to, so shared errors stay unchanged.
func (e AppError) WithDetail(key string, value interface{}) AppError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

func NewValidationError(message string) AppError {
	return newError(CodeValidation, message, nil)
}

// NewInvalidInputError is for request bodies that could not be decoded
func NewInvalidInputError(message string, err error) AppError {
	return newError(CodeInvalidInput, message, err)
}

func NewAuthenticationError(message string) AppError {
	return newError(CodeAuthentication, message, nil)
}

func NewAuthorizationError(message string) AppError {
	return newError(CodeAuthorization, message, nil)
}

func NewNotFoundError(message string) AppError {
	return newError(CodeNotFound, message, nil)
}

func NewConflictError(message string) AppError {
	return newError(CodeConflict, message, nil)
}

// NewInternalError wraps an unexpected failure. The message is never shown
// to clients.
func NewInternalError(message string, err error) AppError {
	return newError(CodeInternal, message, err)
}

// NewInsufficientBalanceError is returned when a debit does not fit the balance
func NewInsufficientBalanceError(message string) AppError {
	return newError(CodeInsufficientBalance, message, nil)
}

// NewCodeMismatchError is returned when a confirmation code does not match the stored one
func NewCodeMismatchError(message string) AppError {
	return newError(CodeCodeMismatch, message, nil)
}

// NewLookupUnavailableError is returned when the stored codes could not be read
func NewLookupUnavailableError(message string, err error) AppError {
	return newError(CodeLookupUnavailable, message, err)
}

// NewStorageError creates a new storage failure error. The caller may retry.
func NewStorageError(message string, err error) AppError {
	return newError(CodeStorage, message, err)
}

// NewLockedError is returned after too many failed verification attempts
func NewLockedError(message string) AppError {
	return newError(CodeLocked, message, nil)
}

// Sentinels for errors.Is checks. Only the Code is compared.
var (
	ErrValidation          = AppError{Code: CodeValidation}
	ErrNotFound            = AppError{Code: CodeNotFound}
	ErrConflict            = AppError{Code: CodeConflict}
	ErrInsufficientBalance = AppError{Code: CodeInsufficientBalance}
	ErrCodeMismatch        = AppError{Code: CodeCodeMismatch}
	ErrLookupUnavailable   = AppError{Code: CodeLookupUnavailable}
	ErrStorage             = AppError{Code: CodeStorage}
	ErrLocked              = AppError{Code: CodeLocked}
	ErrAuthorization       = AppError{Code: CodeAuthorization}
)
