package kms

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// GenerateRandomAPI is the part of the KMS client used for randomness
type GenerateRandomAPI interface {
	GenerateRandom(ctx context.Context, params *kms.GenerateRandomInput, optFns ...func(*kms.Options)) (*kms.GenerateRandomOutput, error)
}

// RandomSource draws random bytes from AWS KMS
type RandomSource struct {
	client GenerateRandomAPI
}

// NewRandomSource creates a KMS backed random source
func NewRandomSource(client GenerateRandomAPI) *RandomSource {
	return &RandomSource{client: client}
}

// Random returns n random bytes
func (r *RandomSource) Random(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 || n > 1024 {
		return nil, fmt.Errorf("random byte count must be between 1 and 1024, got %d", n)
	}

	result, err := r.client.GenerateRandom(ctx, &kms.GenerateRandomInput{
		NumberOfBytes: aws.Int32(int32(n)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	if len(result.Plaintext) != n {
		return nil, fmt.Errorf("kms returned %d random bytes, want %d", len(result.Plaintext), n)
	}

	return result.Plaintext, nil
}
