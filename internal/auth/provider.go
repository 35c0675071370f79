package auth

import "context"

// SignUpInput carries the validated registration fields plus the computed
// signing token for the provider call.
type SignUpInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	DateOfBirth string
	SecretHash  string
}

// IdentityProvider is the remote credential-management boundary. Every
// implementation returns failures as *ProviderError so callers can match on
// the closed ProviderCode set.
type IdentityProvider interface {
	SignUp(ctx context.Context, in SignUpInput) error
	ConfirmSignUp(ctx context.Context, email, code, secretHash string) error
	ResendConfirmationCode(ctx context.Context, email, secretHash string) error

	// InitiateAuth returns an access token, opaque to this layer, to be held
	// for the session.
	InitiateAuth(ctx context.Context, email, password, secretHash string) (string, error)

	// GetUser resolves an access token to the username it was issued for.
	GetUser(ctx context.Context, accessToken string) (string, error)

	ForgotPassword(ctx context.Context, email, secretHash string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword, secretHash string) error
	SignOut(ctx context.Context, accessToken string) error
}
