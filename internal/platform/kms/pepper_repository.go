package kms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
)

// PepperSize is the number of random bytes in a new pepper
const PepperSize = 32

const minPepperSize = 16

// SecretsAPI is the part of the Secrets Manager client used for the pepper
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
}

type secretReader interface {
	GetSecretString(secretID string) (string, error)
}

type randomReader interface {
	Random(ctx context.Context, n int) ([]byte, error)
}

// PepperRepository reads the code hashing pepper from Secrets Manager
type PepperRepository struct {
	secretsClient SecretsAPI
	secretCache   secretReader
	secretID      string
	kmsKeyID      string
	random        randomReader

	mu     sync.RWMutex
	pepper []byte
}

type pepperData struct {
	Pepper    string `json:"pepper"`
	CreatedAt string `json:"createdAt"`
}

// NewPepperRepository creates a new pepper repository
func NewPepperRepository(secretsClient *secretsmanager.Client, secretID string, random randomReader) *PepperRepository {
	r := &PepperRepository{
		secretsClient: secretsClient,
		secretID:      secretID,
		random:        random,
	}

	// Initialize secretCache with the configured secrets client
	secretCache, err := secretcache.New(
		func(c *secretcache.Cache) {
			c.Client = secretsClient
		},
	)
	if err == nil {
		r.secretCache = secretCache
	}
	// Without the cache the repository falls back to direct API calls

	return r
}

// WithKMSKey encrypts a newly created secret with the given customer
// managed key instead of the account default
func (r *PepperRepository) WithKMSKey(keyID string) *PepperRepository {
	r.kmsKeyID = keyID
	return r
}

// Pepper implements verification.PepperSource
func (r *PepperRepository) Pepper(ctx context.Context) ([]byte, error) {
	r.mu.RLock()
	if r.pepper != nil {
		defer r.mu.RUnlock()
		return r.pepper, nil
	}
	r.mu.RUnlock()

	secretString, err := r.readSecret(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get code pepper: %w", err)
	}

	pepper, err := decodePepper(secretString)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.pepper = pepper
	r.mu.Unlock()

	return pepper, nil
}

// CreatePepper stores a new random pepper unless one exists. It reports
// whether a secret was created. Replacing a pepper would invalidate every
// stored code hash, so there is no rotation.
func (r *PepperRepository) CreatePepper(ctx context.Context) (bool, error) {
	_, err := r.readSecret(ctx)
	if err == nil {
		return false, nil
	}
	if !isSecretNotFoundError(err) {
		return false, fmt.Errorf("failed to check code pepper: %w", err)
	}

	raw, err := r.random.Random(ctx, PepperSize)
	if err != nil {
		return false, err
	}

	data, err := json.Marshal(pepperData{
		Pepper:    base64.StdEncoding.EncodeToString(raw),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal pepper: %w", err)
	}

	input := &secretsmanager.CreateSecretInput{
		Name:         aws.String(r.secretID),
		SecretString: aws.String(string(data)),
		Description:  aws.String("Pepper for confirmation code hashes"),
	}
	if r.kmsKeyID != "" {
		input.KmsKeyId = aws.String(r.kmsKeyID)
	}

	_, err = r.secretsClient.CreateSecret(ctx, input)
	if err != nil {
		return false, fmt.Errorf("failed to store code pepper: %w", err)
	}

	return true, nil
}

func (r *PepperRepository) readSecret(ctx context.Context) (string, error) {
	if r.secretCache != nil {
		return r.secretCache.GetSecretString(r.secretID)
	}

	// Fall back to direct API call if secretCache is not available
	result, err := r.secretsClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(r.secretID),
	})
	if err != nil {
		return "", err
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", r.secretID)
	}
	return *result.SecretString, nil
}

func decodePepper(secretString string) ([]byte, error) {
	var data pepperData
	if err := json.Unmarshal([]byte(secretString), &data); err != nil {
		return nil, fmt.Errorf("failed to parse pepper data: %w", err)
	}

	pepper, err := base64.StdEncoding.DecodeString(data.Pepper)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pepper: %w", err)
	}
	if len(pepper) < minPepperSize {
		return nil, fmt.Errorf("pepper must be at least %d bytes", minPepperSize)
	}

	return pepper, nil
}

func isSecretNotFoundError(err error) bool {
	var notFound *types.ResourceNotFoundException
	return stderrors.As(err, &notFound)
}
