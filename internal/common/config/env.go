package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config represents the application configuration
// This struct contains all configuration parameters for the application
type Config struct {
	// AWS-specific configuration
	AWSRegion         string
	DynamoDBTableName string
	UserPoolID        string
	UserPoolClientID  string

	// Environment info
	Environment string

	// Auth configuration
	AuthProvider    string
	StaticJWTSecret string
	AdminGroup      string

	// Confirmation code secrets
	CodePepperSecretID string

	// Fees and minimums
	InstantTransferFee   decimal.Decimal
	WithdrawalFeePercent decimal.Decimal
	DepositFeePercent    decimal.Decimal
	MinTransferAmount    decimal.Decimal
	MinWithdrawalAmount  decimal.Decimal
	MinDepositAmount     decimal.Decimal

	// Verification lockout
	MaxFailedAttempts int
	LockoutWindow     time.Duration

	// Lambda detection flag (cached)
	isLambda bool
}

// LoadFromEnv loads the configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}

	// Check if running in Lambda
	cfg.isLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	// Local runs may keep their settings in a .env file; real env vars win.
	if !cfg.isLambda {
		_ = godotenv.Load()
	}

	// Required environment variables
	cfg.DynamoDBTableName = os.Getenv("DYNAMODB_TABLE_NAME")
	if cfg.DynamoDBTableName == "" {
		return nil, errors.New("DYNAMODB_TABLE_NAME environment variable is required")
	}

	cfg.UserPoolID = os.Getenv("USER_POOL_ID")
	if cfg.UserPoolID == "" {
		return nil, errors.New("USER_POOL_ID environment variable is required")
	}

	cfg.UserPoolClientID = os.Getenv("USER_POOL_CLIENT_ID")
	if cfg.UserPoolClientID == "" {
		return nil, errors.New("USER_POOL_CLIENT_ID environment variable is required")
	}

	cfg.Environment = getEnv("ENVIRONMENT", "dev")
	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")

	// Auth configuration
	cfg.AuthProvider = getEnv("AUTH_PROVIDER", "cognito")
	cfg.StaticJWTSecret = os.Getenv("STATIC_JWT_SECRET")
	if cfg.AuthProvider == "static" && cfg.StaticJWTSecret == "" {
		return nil, errors.New("STATIC_JWT_SECRET environment variable is required for the static auth provider")
	}
	cfg.AdminGroup = getEnv("ADMIN_GROUP", "admin")

	cfg.CodePepperSecretID = getEnv("CODE_PEPPER_SECRET_ID", "guarded-funds/code-pepper")

	var err error
	if cfg.InstantTransferFee, err = getDecimal("INSTANT_TRANSFER_FEE", "2.99"); err != nil {
		return nil, err
	}
	if cfg.WithdrawalFeePercent, err = getDecimal("WITHDRAWAL_FEE_PERCENT", "1.5"); err != nil {
		return nil, err
	}
	if cfg.DepositFeePercent, err = getDecimal("DEPOSIT_FEE_PERCENT", "2.5"); err != nil {
		return nil, err
	}
	if cfg.MinTransferAmount, err = getDecimal("MIN_TRANSFER_AMOUNT", "0.01"); err != nil {
		return nil, err
	}
	if cfg.MinWithdrawalAmount, err = getDecimal("MIN_WITHDRAWAL_AMOUNT", "20"); err != nil {
		return nil, err
	}
	if cfg.MinDepositAmount, err = getDecimal("MIN_DEPOSIT_AMOUNT", "10"); err != nil {
		return nil, err
	}

	cfg.MaxFailedAttempts = 5
	if v := os.Getenv("VERIFY_MAX_FAILED_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("VERIFY_MAX_FAILED_ATTEMPTS must be a positive integer, got %q", v)
		}
		cfg.MaxFailedAttempts = n
	}

	cfg.LockoutWindow = 5 * time.Minute
	if v := os.Getenv("VERIFY_LOCKOUT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("VERIFY_LOCKOUT_WINDOW must be a duration: %w", err)
		}
		cfg.LockoutWindow = d
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDecimal(key, fallback string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal number: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// IsLambda returns true if the application is running in AWS Lambda
func (c *Config) IsLambda() bool {
	return c.isLambda
}
