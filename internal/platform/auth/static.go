package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hirosato/guarded-funds/internal/common/utils"
	"github.com/hirosato/guarded-funds/internal/domain/identity"
)

const minStaticSecretSize = 32

// StaticVerifier validates HS256 tokens signed with a shared secret
type StaticVerifier struct {
	secret     []byte
	adminGroup string
}

// NewStaticVerifier creates a shared secret verifier
func NewStaticVerifier(secret []byte, adminGroup string) (*StaticVerifier, error) {
	if len(secret) < minStaticSecretSize {
		return nil, errors.New("static JWT secret must be at least 32 bytes")
	}
	return &StaticVerifier{secret: secret, adminGroup: adminGroup}, nil
}

// Verify implements identity.TokenVerifier
func (v *StaticVerifier) Verify(ctx context.Context, token string) (*identity.Principal, error) {
	claims, err := utils.ParseJWT(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return identity.NewPrincipal(claims.Subject, claims.Email, claims.Groups, v.adminGroup), nil
}

// IssueStatic signs a token the StaticVerifier accepts. Used by local tooling.
func IssueStatic(secret []byte, claims utils.CognitoClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
