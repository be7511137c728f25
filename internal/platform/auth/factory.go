package auth

import (
	"fmt"
	"log/slog"

	"github.com/hirosato/guarded-funds/internal/common/config"
	"github.com/hirosato/guarded-funds/internal/domain/identity"
	"github.com/hirosato/guarded-funds/internal/platform/cognito"
)

// ProviderType represents the type of auth provider
type ProviderType string

const (
	// ProviderCognito validates tokens against the Cognito user pool keys
	ProviderCognito ProviderType = "cognito"
	// ProviderStatic validates HS256 tokens signed with a shared secret, for local runs
	ProviderStatic ProviderType = "static"
)

// NewVerifier creates a token verifier based on the provider type
func NewVerifier(cfg *config.Config, log *slog.Logger) (identity.TokenVerifier, error) {
	// Default to Cognito provider
	providerType := ProviderCognito
	if cfg.AuthProvider != "" {
		providerType = ProviderType(cfg.AuthProvider)
	}

	switch providerType {
	case ProviderCognito:
		return cognito.NewVerifier(cfg, log), nil
	case ProviderStatic:
		if cfg.IsLambda() {
			return nil, fmt.Errorf("auth provider %q is not allowed in Lambda", providerType)
		}
		return NewStaticVerifier([]byte(cfg.StaticJWTSecret), cfg.AdminGroup)
	default:
		return nil, fmt.Errorf("unknown auth provider %q", providerType)
	}
}
