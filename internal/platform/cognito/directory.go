package cognito

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/hirosato/guarded-funds/internal/domain/errors"
)

// AdminAPI is the part of the Cognito client used by the directory
type AdminAPI interface {
	AdminCreateUser(ctx context.Context, params *cognitoidentityprovider.AdminCreateUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error)
	AdminDeleteUser(ctx context.Context, params *cognitoidentityprovider.AdminDeleteUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDeleteUserOutput, error)
}

// Directory creates account holders in the user pool
type Directory struct {
	client     AdminAPI
	userPoolID string
}

// NewDirectory creates a new user pool directory
func NewDirectory(client AdminAPI, userPoolID string) *Directory {
	return &Directory{client: client, userPoolID: userPoolID}
}

// CreateUser implements account.Directory. Cognito emails the user a
// temporary password.
func (d *Directory) CreateUser(ctx context.Context, email, firstName, lastName string) (string, error) {
	result, err := d.client.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId: aws.String(d.userPoolID),
		Username:   aws.String(email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
			{Name: aws.String("given_name"), Value: aws.String(firstName)},
			{Name: aws.String("family_name"), Value: aws.String(lastName)},
		},
		DesiredDeliveryMediums: []types.DeliveryMediumType{types.DeliveryMediumTypeEmail},
	})
	if err != nil {
		var exists *types.UsernameExistsException
		if stderrors.As(err, &exists) {
			return "", errors.NewConflictError("A user with this email already exists")
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	if result.User != nil {
		for _, attr := range result.User.Attributes {
			if aws.ToString(attr.Name) == "sub" {
				return aws.ToString(attr.Value), nil
			}
		}
	}

	return "", stderrors.New("created user has no sub attribute")
}

// DeleteUser implements account.Directory
func (d *Directory) DeleteUser(ctx context.Context, email string) error {
	_, err := d.client.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(d.userPoolID),
		Username:   aws.String(email),
	})
	if err != nil {
		var missing *types.UserNotFoundException
		if stderrors.As(err, &missing) {
			return nil
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
