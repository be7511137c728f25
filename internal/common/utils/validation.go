package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hirosato/guarded-funds/internal/domain/errors"
)

var (
	// DateRegex validates ISO 8601 date strings (YYYY-MM-DD)
	DateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidateISODate validates an ISO 8601 date string (YYYY-MM-DD)
func ValidateISODate(date string) error {
	if !DateRegex.MatchString(date) {
		return errors.NewValidationError("invalid date format, should be YYYY-MM-DD")
	}

	// Parse the date to ensure it's valid
	_, err := time.Parse("2006-01-02", date)
	if err != nil {
		return errors.NewValidationError("invalid date value")
	}

	return nil
}

// ValidateEntryID validates a ledger entry ID
func ValidateEntryID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return errors.NewValidationError("invalid entry ID")
	}
	return nil
}

// ParseLimit parses an optional page size. Empty means zero (use the default).
func ParseLimit(value string) (int32, error) {
	if value == "" {
		return 0, nil
	}
	num, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, errors.NewValidationError("limit must be a valid integer")
	}
	if num <= 0 {
		return 0, errors.NewValidationError("limit must be a positive integer")
	}
	return int32(num), nil
}

// ValidateRequiredString validates that a string is not empty
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(fieldName + " is required")
	}
	return nil
}

// ValidateRequestID validates a loan or card request ID
func ValidateRequestID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return errors.NewValidationError("invalid request ID")
	}
	return nil
}
