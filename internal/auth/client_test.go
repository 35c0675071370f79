package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legatera/legatera/internal/ratelimit"
	"github.com/legatera/legatera/internal/validate"
)

// fakeProvider records calls and returns scripted errors.
type fakeProvider struct {
	signUpErr   error
	confirmErr  error
	resendErr   error
	authErr     error
	getUserErr  error
	signOutErr  error
	forgotErr   error
	confirmFErr error

	signUpCalls  int
	signOutCalls int
	lastSignUp   SignUpInput
	token        string
	username     string
}

func (f *fakeProvider) SignUp(_ context.Context, in SignUpInput) error {
	f.signUpCalls++
	f.lastSignUp = in
	return f.signUpErr
}

func (f *fakeProvider) ConfirmSignUp(_ context.Context, _, _, _ string) error {
	return f.confirmErr
}

func (f *fakeProvider) ResendConfirmationCode(_ context.Context, _, _ string) error {
	return f.resendErr
}

func (f *fakeProvider) InitiateAuth(_ context.Context, _, _, _ string) (string, error) {
	return f.token, f.authErr
}

func (f *fakeProvider) GetUser(_ context.Context, _ string) (string, error) {
	return f.username, f.getUserErr
}

func (f *fakeProvider) ForgotPassword(_ context.Context, _, _ string) error {
	return f.forgotErr
}

func (f *fakeProvider) ConfirmForgotPassword(_ context.Context, _, _, _, _ string) error {
	return f.confirmFErr
}

func (f *fakeProvider) SignOut(_ context.Context, _ string) error {
	f.signOutCalls++
	return f.signOutErr
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(p IdentityProvider) *Client {
	limiter := ratelimit.NewMemoryLimiter(nil, ratelimit.Limit{MaxRequests: 5, Window: time.Minute})
	return NewClient(p, limiter, "client-id", "client-secret", testLogger())
}

func validParams() SignUpParams {
	return SignUpParams{
		Email:       "test@example.com",
		Password:    "ValidP@ssw0rd",
		FirstName:   "John",
		LastName:    "Doe",
		PhoneNumber: "+12125551234",
		DateOfBirth: "1990-01-01",
	}
}

func TestSignUpSuccess(t *testing.T) {
	provider := &fakeProvider{}
	c := newTestClient(provider)

	require.NoError(t, c.SignUp(context.Background(), "10.0.0.1", validParams()))
	assert.Equal(t, 1, provider.signUpCalls)
	assert.Equal(t, "test@example.com", provider.lastSignUp.Email)
	assert.Equal(t, SecretHash("test@example.com", "client-id", "client-secret"), provider.lastSignUp.SecretHash)
}

func TestSignUpValidationFailsBeforeProviderCall(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignUpParams)
	}{
		{"bad email", func(p *SignUpParams) { p.Email = "not-an-email" }},
		{"bad first name", func(p *SignUpParams) { p.FirstName = "J" }},
		{"bad phone", func(p *SignUpParams) { p.PhoneNumber = "+11234567890" }},
		{"under 18", func(p *SignUpParams) { p.DateOfBirth = time.Now().AddDate(-17, 0, 0).Format("2006-01-02") }},
		{"weak password", func(p *SignUpParams) { p.Password = "ValidPassword1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{}
			c := newTestClient(provider)

			p := validParams()
			tt.mutate(&p)

			err := c.SignUp(context.Background(), "10.0.0.1", p)
			require.Error(t, err)

			var verr *validate.Error
			assert.True(t, errors.As(err, &verr))
			assert.Zero(t, provider.signUpCalls, "provider must not be called on invalid input")
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	provider := &fakeProvider{signUpErr: &ProviderError{Code: ProviderUsernameExists}}
	c := newTestClient(provider)

	err := c.SignUp(context.Background(), "10.0.0.1", validParams())
	require.Error(t, err)

	var rerr *RegistrationError
	require.True(t, errors.As(err, &rerr))
	assert.True(t, rerr.Duplicate)
	assert.Equal(t, "Email already registered", rerr.Message)
}

func TestSignUpRateLimited(t *testing.T) {
	provider := &fakeProvider{}
	c := newTestClient(provider)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.SignUp(context.Background(), "10.0.0.1", validParams()))
	}

	err := c.SignUp(context.Background(), "10.0.0.1", validParams())
	require.Error(t, err)

	var rl *ratelimit.Error
	assert.True(t, errors.As(err, &rl))
	assert.Equal(t, 5, provider.signUpCalls, "sixth call must not reach the provider")
}

func TestConfirmSignUpDistinguishesMismatchFromExpiry(t *testing.T) {
	tests := []struct {
		code    ProviderCode
		reason  AuthReason
		message string
	}{
		{ProviderCodeMismatch, AuthCodeMismatch, "Invalid verification code"},
		{ProviderExpiredCode, AuthCodeExpired, "Verification code has expired"},
		{ProviderInternal, AuthFailed, "Confirmation failed"},
	}

	for _, tt := range tests {
		provider := &fakeProvider{confirmErr: &ProviderError{Code: tt.code}}
		c := newTestClient(provider)

		err := c.ConfirmSignUp(context.Background(), "10.0.0.1", "test@example.com", "123456")
		require.Error(t, err)

		var aerr *AuthenticationError
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, tt.reason, aerr.Reason)
		assert.Equal(t, tt.message, aerr.Message)
	}
}

func TestResendConfirmationCodeLimitExceeded(t *testing.T) {
	provider := &fakeProvider{resendErr: &ProviderError{Code: ProviderLimitExceeded}}
	c := newTestClient(provider)

	err := c.ResendConfirmationCode(context.Background(), "10.0.0.1", "test@example.com")
	require.Error(t, err)

	var aerr *AuthenticationError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, AuthLimitExceeded, aerr.Reason)
}

func TestInitiateAuth(t *testing.T) {
	t.Run("success returns provider token", func(t *testing.T) {
		provider := &fakeProvider{token: "access-token"}
		c := newTestClient(provider)

		token, err := c.InitiateAuth(context.Background(), "10.0.0.1", "test@example.com", "ValidP@ssw0rd")
		require.NoError(t, err)
		assert.Equal(t, "access-token", token)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		provider := &fakeProvider{authErr: &ProviderError{Code: ProviderNotAuthorized}}
		c := newTestClient(provider)

		_, err := c.InitiateAuth(context.Background(), "10.0.0.1", "test@example.com", "wrong")
		var aerr *AuthenticationError
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, AuthInvalidCredentials, aerr.Reason)
	})

	t.Run("not confirmed", func(t *testing.T) {
		provider := &fakeProvider{authErr: &ProviderError{Code: ProviderUserNotConfirmed}}
		c := newTestClient(provider)

		_, err := c.InitiateAuth(context.Background(), "10.0.0.1", "test@example.com", "ValidP@ssw0rd")
		var aerr *AuthenticationError
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, AuthNotConfirmed, aerr.Reason)
	})
}

func TestVerifyToken(t *testing.T) {
	provider := &fakeProvider{username: "test@example.com"}
	c := newTestClient(provider)

	username, err := c.VerifyToken(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", username)

	provider.getUserErr = &ProviderError{Code: ProviderNotAuthorized}
	_, err = c.VerifyToken(context.Background(), "token")
	assert.Error(t, err)
}

func TestConfirmForgotPasswordChecksPolicyFirst(t *testing.T) {
	provider := &fakeProvider{}
	c := newTestClient(provider)

	err := c.ConfirmForgotPassword(context.Background(), "10.0.0.1", "test@example.com", "123456", "weak")
	require.Error(t, err)

	var verr *validate.Error
	assert.True(t, errors.As(err, &verr))
}

func TestSignOutSwallowsProviderFailure(t *testing.T) {
	provider := &fakeProvider{signOutErr: &ProviderError{Code: ProviderInternal, Err: errors.New("provider down")}}
	c := newTestClient(provider)

	assert.NoError(t, c.SignOut(context.Background(), "token"))
	assert.Equal(t, 1, provider.signOutCalls)
}
