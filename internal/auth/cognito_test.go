package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCognitoAPI struct {
	signUpIn *cognito.SignUpInput
	authIn   *cognito.InitiateAuthInput
	err      error
	token    string
}

func (f *fakeCognitoAPI) SignUp(_ context.Context, params *cognito.SignUpInput, _ ...func(*cognito.Options)) (*cognito.SignUpOutput, error) {
	f.signUpIn = params
	return &cognito.SignUpOutput{}, f.err
}

func (f *fakeCognitoAPI) ConfirmSignUp(context.Context, *cognito.ConfirmSignUpInput, ...func(*cognito.Options)) (*cognito.ConfirmSignUpOutput, error) {
	return &cognito.ConfirmSignUpOutput{}, f.err
}

func (f *fakeCognitoAPI) ResendConfirmationCode(context.Context, *cognito.ResendConfirmationCodeInput, ...func(*cognito.Options)) (*cognito.ResendConfirmationCodeOutput, error) {
	return &cognito.ResendConfirmationCodeOutput{}, f.err
}

func (f *fakeCognitoAPI) InitiateAuth(_ context.Context, params *cognito.InitiateAuthInput, _ ...func(*cognito.Options)) (*cognito.InitiateAuthOutput, error) {
	f.authIn = params
	if f.err != nil {
		return nil, f.err
	}
	return &cognito.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{AccessToken: aws.String(f.token)},
	}, nil
}

func (f *fakeCognitoAPI) GetUser(context.Context, *cognito.GetUserInput, ...func(*cognito.Options)) (*cognito.GetUserOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &cognito.GetUserOutput{Username: aws.String("test@example.com")}, nil
}

func (f *fakeCognitoAPI) ForgotPassword(context.Context, *cognito.ForgotPasswordInput, ...func(*cognito.Options)) (*cognito.ForgotPasswordOutput, error) {
	return &cognito.ForgotPasswordOutput{}, f.err
}

func (f *fakeCognitoAPI) ConfirmForgotPassword(context.Context, *cognito.ConfirmForgotPasswordInput, ...func(*cognito.Options)) (*cognito.ConfirmForgotPasswordOutput, error) {
	return &cognito.ConfirmForgotPasswordOutput{}, f.err
}

func (f *fakeCognitoAPI) GlobalSignOut(context.Context, *cognito.GlobalSignOutInput, ...func(*cognito.Options)) (*cognito.GlobalSignOutOutput, error) {
	return &cognito.GlobalSignOutOutput{}, f.err
}

func TestCognitoProviderSignUpAttributes(t *testing.T) {
	api := &fakeCognitoAPI{}
	p := NewCognitoProvider(api, "client-id", testLogger())

	err := p.SignUp(context.Background(), SignUpInput{
		Email:       "test@example.com",
		Password:    "ValidP@ssw0rd",
		FirstName:   "John",
		LastName:    "Doe",
		PhoneNumber: "+12125551234",
		DateOfBirth: "1990-01-01",
		SecretHash:  "hash",
	})
	require.NoError(t, err)
	require.NotNil(t, api.signUpIn)

	assert.Equal(t, "client-id", aws.ToString(api.signUpIn.ClientId))
	assert.Equal(t, "hash", aws.ToString(api.signUpIn.SecretHash))
	assert.Equal(t, "test@example.com", aws.ToString(api.signUpIn.Username))

	attrs := map[string]string{}
	for _, a := range api.signUpIn.UserAttributes {
		attrs[aws.ToString(a.Name)] = aws.ToString(a.Value)
	}
	assert.Equal(t, "John", attrs["given_name"])
	assert.Equal(t, "Doe", attrs["family_name"])
	assert.Equal(t, "+12125551234", attrs["phone_number"])
	assert.Equal(t, "1990-01-01", attrs["birthdate"])
	assert.Equal(t, "user", attrs["custom:user_type"])
}

func TestCognitoProviderInitiateAuth(t *testing.T) {
	api := &fakeCognitoAPI{token: "access-token"}
	p := NewCognitoProvider(api, "client-id", testLogger())

	token, err := p.InitiateAuth(context.Background(), "test@example.com", "pw", "hash")
	require.NoError(t, err)
	assert.Equal(t, "access-token", token)

	require.NotNil(t, api.authIn)
	assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, api.authIn.AuthFlow)
	assert.Equal(t, "hash", api.authIn.AuthParameters["SECRET_HASH"])
}

func TestCognitoProviderErrorTranslation(t *testing.T) {
	tests := []struct {
		err  error
		code ProviderCode
	}{
		{&types.UsernameExistsException{}, ProviderUsernameExists},
		{&types.CodeMismatchException{}, ProviderCodeMismatch},
		{&types.ExpiredCodeException{}, ProviderExpiredCode},
		{&types.NotAuthorizedException{}, ProviderNotAuthorized},
		{&types.UserNotConfirmedException{}, ProviderUserNotConfirmed},
		{&types.LimitExceededException{}, ProviderLimitExceeded},
		{&types.TooManyRequestsException{}, ProviderLimitExceeded},
		{errors.New("socket closed"), ProviderInternal},
	}

	for _, tt := range tests {
		api := &fakeCognitoAPI{err: tt.err}
		p := NewCognitoProvider(api, "client-id", testLogger())

		err := p.ConfirmSignUp(context.Background(), "test@example.com", "123456", "hash")
		var perr *ProviderError
		require.True(t, errors.As(err, &perr), "%T", tt.err)
		assert.Equal(t, tt.code, perr.Code, "%T", tt.err)
	}
}
