package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/hirosato/guarded-funds/internal/api/handlers"
	"github.com/hirosato/guarded-funds/internal/api/middleware"
	"github.com/hirosato/guarded-funds/internal/common/config"
	"github.com/hirosato/guarded-funds/internal/domain/account"
	"github.com/hirosato/guarded-funds/internal/domain/approval"
	"github.com/hirosato/guarded-funds/internal/domain/ledger"
	"github.com/hirosato/guarded-funds/internal/domain/movement"
	"github.com/hirosato/guarded-funds/internal/domain/request"
	"github.com/hirosato/guarded-funds/internal/domain/verification"
	"github.com/hirosato/guarded-funds/internal/platform/auth"
	"github.com/hirosato/guarded-funds/internal/platform/breaker"
	"github.com/hirosato/guarded-funds/internal/platform/cognito"
	dynamoClient "github.com/hirosato/guarded-funds/internal/platform/dynamodb/client"
	dynamodbRepository "github.com/hirosato/guarded-funds/internal/platform/dynamodb/repository"
	kmspkg "github.com/hirosato/guarded-funds/internal/platform/kms"
	"github.com/hirosato/guarded-funds/pkg/validator"
)

// App holds the services and middleware shared by the Lambda entry points
type App struct {
	Accounts  *account.Service
	Ledger    *ledger.Service
	Approvals *approval.Service
	Movements *movement.Service
	Requests  *request.Service
	Verifier  *verification.Service
	Validator validator.Validator
	Auth      middleware.AuthMiddleware
}

// New wires the AWS clients, repositories and services from cfg
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	repos := dynamodbRepository.NewFactory(dynamoClient.NewFromConfig(awsCfg, logger), cfg.DynamoDBTableName, logger)
	cognitoClient := cognitoidentityprovider.NewFromConfig(awsCfg)

	vld, err := validator.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	tokenVerifier, err := auth.NewVerifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	random := kmspkg.NewRandomSource(kms.NewFromConfig(awsCfg))
	pepper := kmspkg.NewPepperRepository(secretsmanager.NewFromConfig(awsCfg), cfg.CodePepperSecretID, random)

	// Code lookups go through a breaker so a failing table is not hammered
	codeStore := breaker.NewCodeStore(repos.Accounts(), breaker.New("code-store", breaker.DefaultConfig(), logger))
	verifier := verification.NewService(
		verification.NewValidator(codeStore, pepper),
		repos.Attempts(),
		repos.SecurityEvents(),
		logger,
		verification.WithLockout(cfg.MaxFailedAttempts, cfg.LockoutWindow),
	)

	accounts := account.NewService(repos.Accounts(), cognito.NewDirectory(cognitoClient, cfg.UserPoolID), verification.NewIssuer(random, pepper))
	ledgerService := ledger.NewService(repos.Entries())

	return &App{
		Accounts:  accounts,
		Ledger:    ledgerService,
		Approvals: approval.NewService(repos.Approvals(), repos.Entries()),
		Movements: movement.NewService(accounts, movement.Deps{
			Fees:      FeePolicy(cfg),
			Verifier:  verifier,
			Submitter: ledgerService,
			Validator: vld,
		}),
		Requests:  request.NewService(repos.Requests(), accounts),
		Verifier:  verifier,
		Validator: vld,
		Auth:      middleware.NewAuthMiddleware(tokenVerifier, zapLogger),
	}, nil
}

// FeePolicy reads the fees and minimums from cfg
func FeePolicy(cfg *config.Config) movement.FeePolicy {
	return movement.FeePolicy{
		InstantTransferFee:   cfg.InstantTransferFee,
		WithdrawalFeePercent: cfg.WithdrawalFeePercent,
		DepositFeePercent:    cfg.DepositFeePercent,
		MinTransferAmount:    cfg.MinTransferAmount,
		MinWithdrawalAmount:  cfg.MinWithdrawalAmount,
		MinDepositAmount:     cfg.MinDepositAmount,
	}
}

// UserHandler is the customer API behind the standard middleware chain
func (a *App) UserHandler() middleware.APIGatewayHandler {
	router := handlers.NewUserRouter(
		handlers.NewAccountHandler(a.Accounts, a.Validator),
		handlers.NewStatementHandler(a.Ledger),
		handlers.NewMovementHandler(a.Movements, a.Verifier),
		handlers.NewRequestHandler(a.Requests, a.Validator),
	)
	return a.chain(router.Handle)
}

// AdminHandler is the admin API. Every route requires the admin group.
func (a *App) AdminHandler() middleware.APIGatewayHandler {
	router := handlers.NewAdminRouter(
		handlers.NewAccountHandler(a.Accounts, a.Validator),
		handlers.NewApprovalHandler(a.Approvals),
		handlers.NewRequestHandler(a.Requests, a.Validator),
		a.Auth.RequireAdmin,
	)
	return a.chain(router.Handle)
}

func (a *App) chain(h middleware.APIGatewayHandler) middleware.APIGatewayHandler {
	return middleware.Chain(h,
		middleware.NewRecoveryMiddleware().Handle,
		middleware.NewLoggingMiddleware().Handle,
		a.Auth.Handle,
	)
}

// Logger is the JSON logger used by every entry point. Debug output is
// enabled outside production.
func Logger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && !cfg.IsProd() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
