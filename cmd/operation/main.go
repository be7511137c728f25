package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hirosato/guarded-funds/internal/common/utils"
	"github.com/hirosato/guarded-funds/internal/domain/verification"
	"github.com/hirosato/guarded-funds/internal/platform/auth"
	kmspkg "github.com/hirosato/guarded-funds/internal/platform/kms"
)

const usage = `usage:
  operation create-pepper             create the code pepper secret if it does not exist
  operation test-pepper               read the pepper and run a hash round trip
  operation issue-token <userId> [admin]
                                      sign a local token for AUTH_PROVIDER=static`

// run like AWS_PROFILE=myapp-dev AWS_REGION=ap-northeast-1 go run ./cmd/operation create-pepper
func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "create-pepper":
		createPepper()
	case "test-pepper":
		testPepper()
	case "issue-token":
		issueToken(os.Args[2:])
	default:
		fmt.Println(usage)
		os.Exit(2)
	}
}

func pepperRepository(ctx context.Context) *kmspkg.PepperRepository {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	secretID := os.Getenv("CODE_PEPPER_SECRET_ID")
	if secretID == "" {
		secretID = "guarded-funds/code-pepper"
	}

	random := kmspkg.NewRandomSource(kms.NewFromConfig(cfg))
	return kmspkg.NewPepperRepository(secretsmanager.NewFromConfig(cfg), secretID, random).
		WithKMSKey(os.Getenv("KMS_KEY_ID"))
}

func createPepper() {
	ctx := context.Background()
	repo := pepperRepository(ctx)

	fmt.Println("Creating code pepper...")
	created, err := repo.CreatePepper(ctx)
	if err != nil {
		log.Fatalf("Failed to create pepper: %v", err)
	}
	if !created {
		fmt.Println("Pepper already exists, left unchanged")
		return
	}
	fmt.Println("Pepper created")
}

func testPepper() {
	ctx := context.Background()
	repo := pepperRepository(ctx)

	pepper, err := repo.Pepper(ctx)
	if err != nil {
		log.Fatalf("Failed to read pepper: %v", err)
	}
	fmt.Printf("Pepper length: %d bytes\n", len(pepper))

	code := strings.ToUpper(uuid.NewString()[:6])
	hash, err := verification.HashCode(pepper, code)
	if err != nil {
		log.Fatalf("Failed to hash code: %v", err)
	}
	if !verification.CompareCode(pepper, hash, code) {
		log.Fatalf("Hash round trip failed")
	}
	if verification.CompareCode(pepper, hash, code+"X") {
		log.Fatalf("Hash accepted a wrong code")
	}
	fmt.Println("Hash round trip ok")
}

func issueToken(args []string) {
	if len(args) < 1 {
		fmt.Println(usage)
		os.Exit(2)
	}

	secret := os.Getenv("STATIC_JWT_SECRET")
	if len(secret) < 32 {
		log.Fatalf("STATIC_JWT_SECRET must be at least 32 bytes")
	}

	adminGroup := os.Getenv("ADMIN_GROUP")
	if adminGroup == "" {
		adminGroup = "admin"
	}

	claims := utils.CognitoClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   args[0],
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email:    args[0] + "@localhost",
		TokenUse: "access",
	}
	if len(args) > 1 && args[1] == "admin" {
		claims.Groups = []string{adminGroup}
	}

	token, err := auth.IssueStatic([]byte(secret), claims)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
