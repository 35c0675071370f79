package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
)

// CognitoAPI is the subset of the Cognito client used by CognitoProvider.
type CognitoAPI interface {
	SignUp(ctx context.Context, params *cognito.SignUpInput, optFns ...func(*cognito.Options)) (*cognito.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognito.ConfirmSignUpInput, optFns ...func(*cognito.Options)) (*cognito.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, params *cognito.ResendConfirmationCodeInput, optFns ...func(*cognito.Options)) (*cognito.ResendConfirmationCodeOutput, error)
	InitiateAuth(ctx context.Context, params *cognito.InitiateAuthInput, optFns ...func(*cognito.Options)) (*cognito.InitiateAuthOutput, error)
	GetUser(ctx context.Context, params *cognito.GetUserInput, optFns ...func(*cognito.Options)) (*cognito.GetUserOutput, error)
	ForgotPassword(ctx context.Context, params *cognito.ForgotPasswordInput, optFns ...func(*cognito.Options)) (*cognito.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cognito.ConfirmForgotPasswordInput, optFns ...func(*cognito.Options)) (*cognito.ConfirmForgotPasswordOutput, error)
	GlobalSignOut(ctx context.Context, params *cognito.GlobalSignOutInput, optFns ...func(*cognito.Options)) (*cognito.GlobalSignOutOutput, error)
}

// CognitoProvider implements IdentityProvider against AWS Cognito.
type CognitoProvider struct {
	api      CognitoAPI
	clientID string
	logger   *logrus.Logger
}

func NewCognitoProvider(api CognitoAPI, clientID string, logger *logrus.Logger) *CognitoProvider {
	return &CognitoProvider{
		api:      api,
		clientID: clientID,
		logger:   logger,
	}
}

func (p *CognitoProvider) SignUp(ctx context.Context, in SignUpInput) error {
	_, err := p.api.SignUp(ctx, &cognito.SignUpInput{
		ClientId:   aws.String(p.clientID),
		SecretHash: aws.String(in.SecretHash),
		Username:   aws.String(in.Email),
		Password:   aws.String(in.Password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(in.Email)},
			{Name: aws.String("given_name"), Value: aws.String(in.FirstName)},
			{Name: aws.String("family_name"), Value: aws.String(in.LastName)},
			{Name: aws.String("phone_number"), Value: aws.String(in.PhoneNumber)},
			{Name: aws.String("birthdate"), Value: aws.String(in.DateOfBirth)},
			{Name: aws.String("custom:user_type"), Value: aws.String("user")},
		},
	})
	return p.translate(err)
}

func (p *CognitoProvider) ConfirmSignUp(ctx context.Context, email, code, secretHash string) error {
	_, err := p.api.ConfirmSignUp(ctx, &cognito.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		SecretHash:       aws.String(secretHash),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	return p.translate(err)
}

func (p *CognitoProvider) ResendConfirmationCode(ctx context.Context, email, secretHash string) error {
	_, err := p.api.ResendConfirmationCode(ctx, &cognito.ResendConfirmationCodeInput{
		ClientId:   aws.String(p.clientID),
		SecretHash: aws.String(secretHash),
		Username:   aws.String(email),
	})
	return p.translate(err)
}

func (p *CognitoProvider) InitiateAuth(ctx context.Context, email, password, secretHash string) (string, error) {
	out, err := p.api.InitiateAuth(ctx, &cognito.InitiateAuthInput{
		ClientId: aws.String(p.clientID),
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME":    email,
			"PASSWORD":    password,
			"SECRET_HASH": secretHash,
		},
	})
	if err != nil {
		return "", p.translate(err)
	}
	if out.AuthenticationResult == nil || out.AuthenticationResult.AccessToken == nil {
		return "", &ProviderError{Code: ProviderInternal, Err: fmt.Errorf("no access token in auth result")}
	}
	return *out.AuthenticationResult.AccessToken, nil
}

func (p *CognitoProvider) GetUser(ctx context.Context, accessToken string) (string, error) {
	out, err := p.api.GetUser(ctx, &cognito.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return "", p.translate(err)
	}
	return aws.ToString(out.Username), nil
}

func (p *CognitoProvider) ForgotPassword(ctx context.Context, email, secretHash string) error {
	_, err := p.api.ForgotPassword(ctx, &cognito.ForgotPasswordInput{
		ClientId:   aws.String(p.clientID),
		SecretHash: aws.String(secretHash),
		Username:   aws.String(email),
	})
	return p.translate(err)
}

func (p *CognitoProvider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword, secretHash string) error {
	_, err := p.api.ConfirmForgotPassword(ctx, &cognito.ConfirmForgotPasswordInput{
		ClientId:         aws.String(p.clientID),
		SecretHash:       aws.String(secretHash),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	})
	return p.translate(err)
}

func (p *CognitoProvider) SignOut(ctx context.Context, accessToken string) error {
	_, err := p.api.GlobalSignOut(ctx, &cognito.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	return p.translate(err)
}

// translate maps Cognito SDK error types onto the closed ProviderCode set.
func (p *CognitoProvider) translate(err error) error {
	if err == nil {
		return nil
	}

	var (
		usernameExists   *types.UsernameExistsException
		codeMismatch     *types.CodeMismatchException
		expiredCode      *types.ExpiredCodeException
		notAuthorized    *types.NotAuthorizedException
		userNotConfirmed *types.UserNotConfirmedException
		limitExceeded    *types.LimitExceededException
		tooManyRequests  *types.TooManyRequestsException
	)

	code := ProviderInternal
	switch {
	case errors.As(err, &usernameExists):
		code = ProviderUsernameExists
	case errors.As(err, &codeMismatch):
		code = ProviderCodeMismatch
	case errors.As(err, &expiredCode):
		code = ProviderExpiredCode
	case errors.As(err, &notAuthorized):
		code = ProviderNotAuthorized
	case errors.As(err, &userNotConfirmed):
		code = ProviderUserNotConfirmed
	case errors.As(err, &limitExceeded), errors.As(err, &tooManyRequests):
		code = ProviderLimitExceeded
	}

	if code == ProviderInternal {
		p.logger.WithError(err).Error("Cognito call failed")
	}
	return &ProviderError{Code: code, Err: err}
}
