package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalProvider() *LocalProvider {
	p := NewLocalProvider([]byte("0123456789abcdef0123456789abcdef"), time.Hour, testLogger())
	p.genCode = func() (string, error) { return "123456", nil }
	return p
}

func signUpLocal(t *testing.T, p *LocalProvider) {
	t.Helper()
	require.NoError(t, p.SignUp(context.Background(), SignUpInput{
		Email:    "test@example.com",
		Password: "ValidP@ssw0rd",
	}))
}

func TestLocalProviderFullFlow(t *testing.T) {
	ctx := context.Background()
	p := newTestLocalProvider()

	signUpLocal(t, p)

	// Sign-in before confirmation is rejected distinctly.
	_, err := p.InitiateAuth(ctx, "test@example.com", "ValidP@ssw0rd", "")
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ProviderUserNotConfirmed, perr.Code)

	require.NoError(t, p.ConfirmSignUp(ctx, "test@example.com", "123456", ""))

	token, err := p.InitiateAuth(ctx, "test@example.com", "ValidP@ssw0rd", "")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := p.GetUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", username)

	assert.NoError(t, p.SignOut(ctx, token))
}

func TestLocalProviderDuplicateSignUp(t *testing.T) {
	p := newTestLocalProvider()
	signUpLocal(t, p)

	err := p.SignUp(context.Background(), SignUpInput{Email: "test@example.com", Password: "Other!Pass1"})
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ProviderUsernameExists, perr.Code)
}

func TestLocalProviderConfirmCode(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong code", func(t *testing.T) {
		p := newTestLocalProvider()
		signUpLocal(t, p)

		err := p.ConfirmSignUp(ctx, "test@example.com", "000000", "")
		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, ProviderCodeMismatch, perr.Code)
	})

	t.Run("expired code", func(t *testing.T) {
		p := newTestLocalProvider()
		signUpLocal(t, p)

		p.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
		err := p.ConfirmSignUp(ctx, "test@example.com", "123456", "")
		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, ProviderExpiredCode, perr.Code)
	})
}

func TestLocalProviderWrongPassword(t *testing.T) {
	ctx := context.Background()
	p := newTestLocalProvider()
	signUpLocal(t, p)
	require.NoError(t, p.ConfirmSignUp(ctx, "test@example.com", "123456", ""))

	_, err := p.InitiateAuth(ctx, "test@example.com", "WrongP@ss1", "")
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ProviderNotAuthorized, perr.Code)
}

func TestLocalProviderPasswordReset(t *testing.T) {
	ctx := context.Background()
	p := newTestLocalProvider()
	signUpLocal(t, p)
	require.NoError(t, p.ConfirmSignUp(ctx, "test@example.com", "123456", ""))

	require.NoError(t, p.ForgotPassword(ctx, "test@example.com", ""))
	require.NoError(t, p.ConfirmForgotPassword(ctx, "test@example.com", "123456", "NewP@ssw0rd", ""))

	_, err := p.InitiateAuth(ctx, "test@example.com", "ValidP@ssw0rd", "")
	assert.Error(t, err, "old password no longer valid")

	token, err := p.InitiateAuth(ctx, "test@example.com", "NewP@ssw0rd", "")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLocalProviderRejectsForeignToken(t *testing.T) {
	ctx := context.Background()
	p := newTestLocalProvider()
	other := NewLocalProvider([]byte("ffffffffffffffffffffffffffffffff"), time.Hour, testLogger())
	other.genCode = p.genCode

	signUpLocal(t, other)
	require.NoError(t, other.ConfirmSignUp(ctx, "test@example.com", "123456", ""))
	token, err := other.InitiateAuth(ctx, "test@example.com", "ValidP@ssw0rd", "")
	require.NoError(t, err)

	_, err = p.GetUser(ctx, token)
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ProviderNotAuthorized, perr.Code)
}
