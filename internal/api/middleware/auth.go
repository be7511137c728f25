package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/hirosato/guarded-funds/internal/api/response"
	"github.com/hirosato/guarded-funds/internal/common/utils"
	"github.com/hirosato/guarded-funds/internal/domain/identity"
)

// Keys set in the authorizer context by cmd/authorizer
const (
	AuthorizerUserID  = "userId"
	AuthorizerEmail   = "email"
	AuthorizerGroups  = "groups"
	AuthorizerIsAdmin = "isAdmin"
)

// AuthMiddleware authenticates the caller. Requests that passed the API
// Gateway Lambda authorizer carry the principal in the authorizer context;
// otherwise the bearer token is verified here.
type AuthMiddleware struct {
	verifier identity.TokenVerifier
	log      *zap.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(verifier identity.TokenVerifier, log *zap.Logger) AuthMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return AuthMiddleware{
		verifier: verifier,
		log:      log,
	}
}

// Handle handles the auth middleware
func (m AuthMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		requestID := request.RequestContext.RequestID

		// CORS preflight
		if request.HTTPMethod == http.MethodOptions {
			return next(ctx, logger, request)
		}

		principal, ok := PrincipalFromAuthorizer(request.RequestContext.Authorizer)
		if !ok {
			if m.verifier == nil {
				return response.AuthenticationError("Authentication required", requestID), nil
			}

			token, err := utils.ExtractBearerToken(utils.HeaderValue(request.Headers, "Authorization"))
			if err != nil {
				return response.AuthenticationError(err.Error(), requestID), nil
			}

			principal, err = m.verifier.Verify(ctx, token)
			if err != nil {
				m.log.Warn("Token validation failed",
					zap.String("requestId", requestID),
					zap.Error(err),
				)
				return response.AuthenticationError("Invalid or expired token", requestID), nil
			}
		}

		ctx = identity.WithPrincipal(ctx, principal)
		logger = logger.With("userId", principal.UserID)

		return next(ctx, logger, request)
	}
}

// RequireAdmin rejects callers that are not in the admin group
func (m AuthMiddleware) RequireAdmin(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		principal, ok := identity.FromContext(ctx)
		if !ok {
			return response.AuthenticationError("Authentication required", request.RequestContext.RequestID), nil
		}
		if !principal.IsAdmin {
			m.log.Warn("Admin access denied",
				zap.String("userId", principal.UserID),
				zap.String("path", request.Path),
			)
			return response.AuthorizationError("Administrator access required", request.RequestContext.RequestID), nil
		}
		return next(ctx, logger, request)
	}
}

// PrincipalFromAuthorizer reads the principal set by the Lambda authorizer
func PrincipalFromAuthorizer(authorizer map[string]interface{}) (*identity.Principal, bool) {
	if authorizer == nil {
		return nil, false
	}

	userID, _ := authorizer[AuthorizerUserID].(string)
	if userID == "" {
		return nil, false
	}

	email, _ := authorizer[AuthorizerEmail].(string)

	var groups []string
	if raw, _ := authorizer[AuthorizerGroups].(string); raw != "" {
		groups = strings.Split(raw, ",")
	}

	isAdmin := false
	switch v := authorizer[AuthorizerIsAdmin].(type) {
	case bool:
		isAdmin = v
	case string:
		isAdmin = v == "true"
	}

	return &identity.Principal{
		UserID:  userID,
		Email:   email,
		Groups:  groups,
		IsAdmin: isAdmin,
	}, true
}

// AuthorizerContext is the authorizer context for a principal. All values
// are strings because API Gateway flattens them.
func AuthorizerContext(p *identity.Principal) map[string]interface{} {
	isAdmin := "false"
	if p.IsAdmin {
		isAdmin = "true"
	}
	return map[string]interface{}{
		AuthorizerUserID:  p.UserID,
		AuthorizerEmail:   p.Email,
		AuthorizerGroups:  strings.Join(p.Groups, ","),
		AuthorizerIsAdmin: isAdmin,
	}
}
