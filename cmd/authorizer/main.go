package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/hirosato/guarded-funds/internal/api/middleware"
	"github.com/hirosato/guarded-funds/internal/app"
	"github.com/hirosato/guarded-funds/internal/common/config"
	"github.com/hirosato/guarded-funds/internal/common/utils"
	"github.com/hirosato/guarded-funds/internal/domain/identity"
	"github.com/hirosato/guarded-funds/internal/platform/auth"
)

var (
	logger        *slog.Logger
	tokenVerifier identity.TokenVerifier
)

const (
	effectAllow = "Allow"
	effectDeny  = "Deny"
)

func setup() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger = app.Logger(cfg).With("function", "authorizer")

	tokenVerifier, err = auth.NewVerifier(cfg, logger)
	if err != nil {
		logger.Error("Failed to create token verifier", "error", err)
		os.Exit(1)
	}
}

// handler is the API Gateway REQUEST authorizer
func handler(ctx context.Context, request events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.Debug("authorizer - Memory Status", "MB", m.Alloc/1024/1024)

	return authorize(ctx, tokenVerifier, logger, request), nil
}

func authorize(ctx context.Context, verifier identity.TokenVerifier, logger *slog.Logger, request events.APIGatewayCustomAuthorizerRequestTypeRequest) events.APIGatewayCustomAuthorizerResponse {
	requestID := request.RequestContext.RequestID

	token, err := utils.ExtractBearerToken(utils.HeaderValue(request.Headers, "Authorization"))
	if err != nil {
		logger.Info("Missing or invalid Authorization header", "requestId", requestID)
		return deny(request.MethodArn)
	}

	principal, err := verifier.Verify(ctx, token)
	if err != nil {
		logger.Warn("Token validation failed", "error", err, "requestId", requestID)
		return deny(request.MethodArn)
	}

	// The policy is cached per token, so it covers the whole stage rather
	// than the invoked method.
	stage := stageARN(request.RequestContext)
	statements := []events.IAMPolicyStatement{invoke(effectAllow, stage+"/*")}
	if !principal.IsAdmin {
		statements = append(statements, invoke(effectDeny, stage+"/*/admin/*"))
	}

	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID:    principal.UserID,
		PolicyDocument: policy(statements...),
		Context:        middleware.AuthorizerContext(principal),
	}
}

// stageARN is arn:aws:execute-api:{region}:{accountId}:{apiId}/{stage}
func stageARN(rc events.APIGatewayCustomAuthorizerRequestTypeRequestContext) string {
	return fmt.Sprintf("arn:aws:execute-api:*:%s:%s/%s", rc.AccountID, rc.APIID, rc.Stage)
}

func deny(methodARN string) events.APIGatewayCustomAuthorizerResponse {
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID:    "anonymous",
		PolicyDocument: policy(invoke(effectDeny, methodARN)),
	}
}

func invoke(effect, resource string) events.IAMPolicyStatement {
	return events.IAMPolicyStatement{
		Action:   []string{"execute-api:Invoke"},
		Effect:   effect,
		Resource: []string{resource},
	}
}

func policy(statements ...events.IAMPolicyStatement) events.APIGatewayCustomAuthorizerPolicy {
	return events.APIGatewayCustomAuthorizerPolicy{
		Version:   "2012-10-17",
		Statement: statements,
	}
}

func main() {
	setup()
	lambda.Start(handler)
}
