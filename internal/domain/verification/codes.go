package verification

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the number of characters in a confirmation code
	CodeLength = 6

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// largest multiple of len(codeAlphabet) that fits in a byte
	acceptBelow = 252
)

// NormalizeCode upper-cases a code the way it is stored
func NormalizeCode(code string) string {
	return strings.ToUpper(code)
}

// HashCode hashes a code for storage. The code is upper-cased and keyed with the
// pepper before bcrypt, which keeps the bcrypt input under its 72 byte limit.
func HashCode(pepper []byte, code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(pepperedCode(pepper, code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareCode reports whether code matches the stored hash
func CompareCode(pepper []byte, hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), pepperedCode(pepper, code)) == nil
}

func pepperedCode(pepper []byte, code string) []byte {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(NormalizeCode(code)))
	return []byte(base64.RawStdEncoding.EncodeToString(mac.Sum(nil)))
}

// Issuer generates new confirmation codes
type Issuer struct {
	random RandomSource
	pepper PepperSource
}

// NewIssuer creates a new code issuer
func NewIssuer(random RandomSource, pepper PepperSource) *Issuer {
	return &Issuer{
		random: random,
		pepper: pepper,
	}
}

// Generate returns a random code of CodeLength characters from A-Z0-9
func (i *Issuer) Generate(ctx context.Context) (string, error) {
	var b strings.Builder
	for b.Len() < CodeLength {
		buf, err := i.random.Random(ctx, 2*CodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, c := range buf {
			// rejection sampling avoids modulo bias
			if c >= acceptBelow {
				continue
			}
			b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
			if b.Len() == CodeLength {
				break
			}
		}
	}
	return b.String(), nil
}

// Issue generates a code and its storage hash
func (i *Issuer) Issue(ctx context.Context) (IssuedCode, error) {
	pepper, err := i.pepper.Pepper(ctx)
	if err != nil {
		return IssuedCode{}, fmt.Errorf("failed to read code pepper: %w", err)
	}

	plain, err := i.Generate(ctx)
	if err != nil {
		return IssuedCode{}, err
	}

	hash, err := HashCode(pepper, plain)
	if err != nil {
		return IssuedCode{}, fmt.Errorf("failed to hash code: %w", err)
	}

	return IssuedCode{Plain: plain, Hash: hash}, nil
}
