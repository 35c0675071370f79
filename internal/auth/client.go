package auth

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/legatera/legatera/internal/ratelimit"
	"github.com/legatera/legatera/internal/validate"
)

// Rate-limited operation names. Each is budgeted independently by the
// limiter.
const (
	OpSignUp                = "sign_up"
	OpConfirmSignUp         = "confirm_sign_up"
	OpResendCode            = "resend_confirmation_code"
	OpInitiateAuth          = "initiate_auth"
	OpForgotPassword        = "forgot_password"
	OpConfirmForgotPassword = "confirm_forgot_password"
)

// SignUpParams are the raw registration fields as submitted by the client.
type SignUpParams struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	DateOfBirth string
}

// Client orchestrates validation, rate limiting and request signing around
// identity-provider calls. It performs no retries; every failure is surfaced
// immediately as a typed error.
type Client struct {
	provider     IdentityProvider
	limiter      ratelimit.Limiter
	clientID     string
	clientSecret string
	logger       *logrus.Logger
}

func NewClient(provider IdentityProvider, limiter ratelimit.Limiter, clientID, clientSecret string, logger *logrus.Logger) *Client {
	return &Client{
		provider:     provider,
		limiter:      limiter,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger,
	}
}

func (c *Client) secretHash(username string) string {
	return SecretHash(username, c.clientID, c.clientSecret)
}

// SignUp validates every field, then registers the user with the provider.
// Rate limiting and validation both happen before any network call.
func (c *Client) SignUp(ctx context.Context, addr string, p SignUpParams) error {
	if err := c.limiter.Allow(ctx, OpSignUp, addr); err != nil {
		return err
	}

	email, err := validate.Email(p.Email)
	if err != nil {
		return err
	}
	first, err := validate.Name(p.FirstName, "First name")
	if err != nil {
		return err
	}
	last, err := validate.Name(p.LastName, "Last name")
	if err != nil {
		return err
	}
	phone, err := validate.PhoneNumber(p.PhoneNumber)
	if err != nil {
		return err
	}
	dob, err := validate.DateOfBirth(p.DateOfBirth)
	if err != nil {
		return err
	}
	if ok, msg := validate.Password(p.Password); !ok {
		return &validate.Error{Field: "password", Message: msg}
	}

	err = c.provider.SignUp(ctx, SignUpInput{
		Email:       email,
		Password:    p.Password,
		FirstName:   first,
		LastName:    last,
		PhoneNumber: phone,
		DateOfBirth: dob,
		SecretHash:  c.secretHash(email),
	})
	if err == nil {
		return nil
	}

	var perr *ProviderError
	if errors.As(err, &perr) && perr.Code == ProviderUsernameExists {
		return &RegistrationError{Message: "Email already registered", Duplicate: true, Err: err}
	}
	return &RegistrationError{Message: "Registration failed", Err: err}
}

// ConfirmSignUp verifies the emailed registration code.
func (c *Client) ConfirmSignUp(ctx context.Context, addr, email, code string) error {
	if err := c.limiter.Allow(ctx, OpConfirmSignUp, addr); err != nil {
		return err
	}
	email, err := validate.Email(email)
	if err != nil {
		return err
	}

	err = c.provider.ConfirmSignUp(ctx, email, code, c.secretHash(email))
	if err == nil {
		return nil
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		switch perr.Code {
		case ProviderCodeMismatch:
			return &AuthenticationError{Reason: AuthCodeMismatch, Message: "Invalid verification code", Err: err}
		case ProviderExpiredCode:
			return &AuthenticationError{Reason: AuthCodeExpired, Message: "Verification code has expired", Err: err}
		}
	}
	return &AuthenticationError{Reason: AuthFailed, Message: "Confirmation failed", Err: err}
}

// ResendConfirmationCode asks the provider to send a fresh registration code.
func (c *Client) ResendConfirmationCode(ctx context.Context, addr, email string) error {
	if err := c.limiter.Allow(ctx, OpResendCode, addr); err != nil {
		return err
	}
	email, err := validate.Email(email)
	if err != nil {
		return err
	}

	err = c.provider.ResendConfirmationCode(ctx, email, c.secretHash(email))
	if err == nil {
		return nil
	}

	var perr *ProviderError
	if errors.As(err, &perr) && perr.Code == ProviderLimitExceeded {
		return &AuthenticationError{Reason: AuthLimitExceeded, Message: "Too many attempts. Please try again later", Err: err}
	}
	return &AuthenticationError{Reason: AuthFailed, Message: "Failed to resend code", Err: err}
}

// InitiateAuth signs the user in and returns the provider-issued access
// token. Invalid credentials and not-yet-confirmed accounts are surfaced
// distinctly so callers can show the right message.
func (c *Client) InitiateAuth(ctx context.Context, addr, email, password string) (string, error) {
	if err := c.limiter.Allow(ctx, OpInitiateAuth, addr); err != nil {
		return "", err
	}
	email, err := validate.Email(email)
	if err != nil {
		return "", err
	}

	token, err := c.provider.InitiateAuth(ctx, email, password, c.secretHash(email))
	if err == nil {
		return token, nil
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		switch perr.Code {
		case ProviderNotAuthorized:
			return "", &AuthenticationError{Reason: AuthInvalidCredentials, Message: "Invalid email or password", Err: err}
		case ProviderUserNotConfirmed:
			return "", &AuthenticationError{Reason: AuthNotConfirmed, Message: "Please verify your email address", Err: err}
		}
	}
	return "", &AuthenticationError{Reason: AuthFailed, Message: "Login failed", Err: err}
}

// VerifyToken checks an access token against the provider and returns the
// username it belongs to. A failure means the caller must invalidate its
// session; no retry happens here.
func (c *Client) VerifyToken(ctx context.Context, accessToken string) (string, error) {
	username, err := c.provider.GetUser(ctx, accessToken)
	if err != nil {
		return "", &AuthenticationError{Reason: AuthInvalidCredentials, Message: "Invalid or expired token", Err: err}
	}
	return username, nil
}

// ForgotPassword starts the out-of-band password reset flow.
func (c *Client) ForgotPassword(ctx context.Context, addr, email string) error {
	if err := c.limiter.Allow(ctx, OpForgotPassword, addr); err != nil {
		return err
	}
	email, err := validate.Email(email)
	if err != nil {
		return err
	}

	if err := c.provider.ForgotPassword(ctx, email, c.secretHash(email)); err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && perr.Code == ProviderLimitExceeded {
			return &AuthenticationError{Reason: AuthLimitExceeded, Message: "Too many attempts. Please try again later", Err: err}
		}
		return &AuthenticationError{Reason: AuthFailed, Message: "Failed to start password reset", Err: err}
	}
	return nil
}

// ConfirmForgotPassword completes the reset. The new password must pass the
// local policy before the provider is called.
func (c *Client) ConfirmForgotPassword(ctx context.Context, addr, email, code, newPassword string) error {
	if err := c.limiter.Allow(ctx, OpConfirmForgotPassword, addr); err != nil {
		return err
	}
	email, err := validate.Email(email)
	if err != nil {
		return err
	}
	if ok, msg := validate.Password(newPassword); !ok {
		return &validate.Error{Field: "new_password", Message: msg}
	}

	err = c.provider.ConfirmForgotPassword(ctx, email, code, newPassword, c.secretHash(email))
	if err == nil {
		return nil
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		switch perr.Code {
		case ProviderCodeMismatch:
			return &AuthenticationError{Reason: AuthCodeMismatch, Message: "Invalid verification code", Err: err}
		case ProviderExpiredCode:
			return &AuthenticationError{Reason: AuthCodeExpired, Message: "Verification code has expired", Err: err}
		}
	}
	return &AuthenticationError{Reason: AuthFailed, Message: "Password reset failed", Err: err}
}

// SignOut revokes the session token provider-side. Provider failures are
// logged but never returned: local session teardown must always succeed.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := c.provider.SignOut(ctx, accessToken); err != nil {
		c.logger.WithError(err).Error("Provider sign-out failed")
	}
	return nil
}
