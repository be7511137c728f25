package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// CognitoClaims represents the claims in a Cognito JWT token
type CognitoClaims struct {
	jwt.RegisteredClaims
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Groups   []string `json:"cognito:groups,omitempty"`
	TokenUse string   `json:"token_use,omitempty"`
	ClientID string   `json:"client_id,omitempty"`
}

// ParseJWT verifies the signature of a Cognito token and decodes its claims.
// A token without exp is rejected.
func ParseJWT(tokenString string, keyFunc jwt.Keyfunc, opts ...jwt.ParserOption) (*CognitoClaims, error) {
	opts = append([]jwt.ParserOption{jwt.WithExpirationRequired()}, opts...)

	var claims CognitoClaims
	if _, err := jwt.ParseWithClaims(tokenString, &claims, keyFunc, opts...); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &claims, nil
}

// ExtractBearerToken extracts the token from the Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is required")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be: Bearer {token}")
	}

	return parts[1], nil
}

// HeaderValue returns a header value regardless of its case
func HeaderValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// CognitoIssuer is the iss claim of tokens minted by a user pool
func CognitoIssuer(region, userPoolID string) string {
	return "https://cognito-idp." + region + ".amazonaws.com/" + userPoolID
}

// JWKSURL is where an issuer publishes its signing keys
func JWKSURL(issuer string) string {
	return strings.TrimSuffix(issuer, "/") + "/.well-known/jwks.json"
}

// ClientMatches reports whether the token was issued to clientID. ID tokens
// carry the client in aud, access tokens in client_id.
func ClientMatches(claims *CognitoClaims, clientID string) bool {
	if claims.TokenUse == "access" {
		return claims.ClientID == clientID
	}
	for _, aud := range claims.Audience {
		if aud == clientID {
			return true
		}
	}
	return false
}
