package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "test")
	t.Setenv("DYNAMODB_TABLE_NAME", "funds")
	t.Setenv("USER_POOL_ID", "pool")
	t.Setenv("USER_POOL_CLIENT_ID", "client")
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := LoadFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "dev", cfg.Environment)
		assert.Equal(t, "cognito", cfg.AuthProvider)
		assert.Equal(t, "admin", cfg.AdminGroup)
		assert.Equal(t, "2.99", cfg.InstantTransferFee.String())
		assert.Equal(t, "1.5", cfg.WithdrawalFeePercent.String())
		assert.Equal(t, "20", cfg.MinWithdrawalAmount.String())
		assert.Equal(t, "10", cfg.MinDepositAmount.String())
		assert.Equal(t, 5, cfg.MaxFailedAttempts)
		assert.Equal(t, 5*time.Minute, cfg.LockoutWindow)
		assert.True(t, cfg.IsLambda())
		assert.False(t, cfg.IsProd())
	})

	t.Run("missing table name", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DYNAMODB_TABLE_NAME", "")

		_, err := LoadFromEnv()
		assert.Error(t, err)
	})

	t.Run("static provider needs a secret", func(t *testing.T) {
		setRequired(t)
		t.Setenv("AUTH_PROVIDER", "static")

		_, err := LoadFromEnv()
		assert.Error(t, err)
	})

	t.Run("overrides", func(t *testing.T) {
		setRequired(t)
		t.Setenv("MIN_WITHDRAWAL_AMOUNT", "50")
		t.Setenv("VERIFY_MAX_FAILED_ATTEMPTS", "3")
		t.Setenv("VERIFY_LOCKOUT_WINDOW", "10m")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "50", cfg.MinWithdrawalAmount.String())
		assert.Equal(t, 3, cfg.MaxFailedAttempts)
		assert.Equal(t, 10*time.Minute, cfg.LockoutWindow)
	})

	t.Run("invalid decimal", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DEPOSIT_FEE_PERCENT", "two")

		_, err := LoadFromEnv()
		assert.Error(t, err)
	})
}
