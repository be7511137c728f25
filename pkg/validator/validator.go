package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	playground "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator provides validation functions for request data
type Validator interface {
	// Validate validates a struct based on validation tags
	Validate(i interface{}) error
	// Var validates a single value against a tag expression
	Var(field interface{}, tag string) error
}

// ErrValidationFailed wraps every error returned by Validate
var ErrValidationFailed = errors.New("validation failed")

var (
	phoneRegex   = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{6,19}$`)
	accountRegex = regexp.MustCompile(`^[A-Za-z0-9]{4,34}$`)
)

var (
	shared     *playgroundValidator
	sharedOnce sync.Once
	sharedErr  error
)

// New returns the shared validator with the custom tags registered
func New() (Validator, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = newPlaygroundValidator()
	})
	if sharedErr != nil {
		return nil, sharedErr
	}
	return shared, nil
}

// MustNew is New for package initialisation
func MustNew() Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

type playgroundValidator struct {
	validate *playground.Validate
}

func newPlaygroundValidator() (*playgroundValidator, error) {
	vld := playground.New(playground.WithRequiredStructEnabled())

	custom := map[string]playground.Func{
		"positive_decimal": func(fl playground.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && d.IsPositive()
		},
		"nonnegative_decimal": func(fl playground.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && !d.IsNegative()
		},
		"positive_amount": func(fl playground.FieldLevel) bool {
			str := fl.Field().String()
			if str == "" {
				return true // Let required tag handle empty strings
			}
			d, err := decimal.NewFromString(str)
			return err == nil && d.IsPositive()
		},
		"phone": func(fl playground.FieldLevel) bool {
			return phoneRegex.MatchString(fl.Field().String())
		},
		"account_number": func(fl playground.FieldLevel) bool {
			return accountRegex.MatchString(strings.ReplaceAll(fl.Field().String(), " ", ""))
		},
	}

	for tag, fn := range custom {
		if err := vld.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("failed to register %q: %w", tag, err)
		}
	}

	return &playgroundValidator{validate: vld}, nil
}

func (v *playgroundValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var fieldErrors playground.ValidationErrors
		if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			return formatFieldError(fieldErrors[0])
		}
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return nil
}

func (v *playgroundValidator) Var(field interface{}, tag string) error {
	if err := v.validate.Var(field, tag); err != nil {
		var fieldErrors playground.ValidationErrors
		if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			return formatFieldError(fieldErrors[0])
		}
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return nil
}

var fieldErrorFormatters = map[string]func(field, param string) string{
	"required": func(field, _ string) string {
		return fmt.Sprintf("'%s' is required", field)
	},
	"max": func(field, param string) string {
		return fmt.Sprintf("'%s' must be at most %s", field, param)
	},
	"len": func(field, param string) string {
		return fmt.Sprintf("'%s' must be exactly %s long", field, param)
	},
	"oneof": func(field, param string) string {
		return fmt.Sprintf("'%s' must be one of [%s]", field, param)
	},
	"email": func(field, _ string) string {
		return fmt.Sprintf("'%s' must be a valid email", field)
	},
	"phone": func(field, _ string) string {
		return fmt.Sprintf("'%s' must be a valid phone number", field)
	},
	"account_number": func(field, _ string) string {
		return fmt.Sprintf("'%s' must be a valid account number", field)
	},
	"positive_decimal": func(field, _ string) string {
		return fmt.Sprintf("'%s' must be a positive amount", field)
	},
	"positive_amount": func(field, _ string) string {
		return fmt.Sprintf("'%s' must be a positive amount", field)
	},
	"nonnegative_decimal": func(field, _ string) string {
		return fmt.Sprintf("'%s' must not be negative", field)
	},
}

func formatFieldError(fe playground.FieldError) error {
	field := lowerFirst(fe.Field())
	if format, ok := fieldErrorFormatters[fe.Tag()]; ok {
		return fmt.Errorf("%w: %s", ErrValidationFailed, format(field, fe.Param()))
	}
	return fmt.Errorf("%w: '%s' failed on '%s'", ErrValidationFailed, field, fe.Tag())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
