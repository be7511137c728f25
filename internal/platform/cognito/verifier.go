package cognito

import (
	"context"
	"crypto/rsa"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/jwk"

	"github.com/hirosato/guarded-funds/internal/common/config"
	"github.com/hirosato/guarded-funds/internal/common/utils"
	"github.com/hirosato/guarded-funds/internal/domain/identity"
)

var errUnknownKey = stderrors.New("signing key not found in key set")

// KeySetFetcher loads a JSON Web Key Set
type KeySetFetcher func(ctx context.Context, url string) (jwk.Set, error)

func fetchKeySet(ctx context.Context, url string) (jwk.Set, error) {
	return jwk.Fetch(ctx, url)
}

// Verifier validates Cognito issued ID and access tokens
type Verifier struct {
	jwksURL    string
	issuer     string
	clientID   string
	adminGroup string
	fetch      KeySetFetcher
	logger     *slog.Logger

	mu   sync.RWMutex
	keys jwk.Set
}

// NewVerifier creates a verifier for the configured user pool
func NewVerifier(cfg *config.Config, logger *slog.Logger) *Verifier {
	issuer := utils.CognitoIssuer(cfg.AWSRegion, cfg.UserPoolID)
	return newVerifier(
		utils.JWKSURL(issuer),
		issuer,
		cfg.UserPoolClientID,
		cfg.AdminGroup,
		fetchKeySet,
		logger,
	)
}

func newVerifier(jwksURL, issuer, clientID, adminGroup string, fetch KeySetFetcher, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		jwksURL:    jwksURL,
		issuer:     issuer,
		clientID:   clientID,
		adminGroup: adminGroup,
		fetch:      fetch,
		logger:     logger,
	}
}

// Verify implements identity.TokenVerifier
func (v *Verifier) Verify(ctx context.Context, token string) (*identity.Principal, error) {
	keys, err := v.keySet(ctx, false)
	if err != nil {
		return nil, err
	}

	claims, err := v.parse(token, keys)
	if stderrors.Is(err, errUnknownKey) {
		// Keys rotate in the user pool; refresh once and retry.
		v.logger.Info("Signing key not cached, refreshing JWK set")
		if keys, err = v.keySet(ctx, true); err != nil {
			return nil, err
		}
		claims, err = v.parse(token, keys)
	}
	if err != nil {
		return nil, err
	}

	if !utils.ClientMatches(claims, v.clientID) {
		return nil, fmt.Errorf("token was not issued for client %s", v.clientID)
	}
	if claims.Subject == "" {
		return nil, stderrors.New("token has no subject")
	}

	return identity.NewPrincipal(claims.Subject, claims.Email, claims.Groups, v.adminGroup), nil
}

func (v *Verifier) parse(token string, keys jwk.Set) (*utils.CognitoClaims, error) {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, stderrors.New("token has no key id")
		}
		key, ok := keys.LookupKeyID(kid)
		if !ok {
			return nil, errUnknownKey
		}
		var raw rsa.PublicKey
		if err := key.Raw(&raw); err != nil {
			return nil, fmt.Errorf("failed to read signing key: %w", err)
		}
		return &raw, nil
	}

	return utils.ParseJWT(token, keyFunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
	)
}

func (v *Verifier) keySet(ctx context.Context, refresh bool) (jwk.Set, error) {
	if !refresh {
		v.mu.RLock()
		keys := v.keys
		v.mu.RUnlock()
		if keys != nil {
			return keys, nil
		}
	}

	keys, err := v.fetch(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWK set: %w", err)
	}

	v.mu.Lock()
	v.keys = keys
	v.mu.Unlock()

	return keys, nil
}

var _ identity.TokenVerifier = (*Verifier)(nil)
