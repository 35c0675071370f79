package auth

import "fmt"

// ProviderCode is the closed set of identity-provider failure categories.
// Provider-specific errors are translated into these at the boundary, so
// nothing above it ever matches on provider error strings.
type ProviderCode int

const (
	ProviderInternal ProviderCode = iota
	ProviderUsernameExists
	ProviderCodeMismatch
	ProviderExpiredCode
	ProviderNotAuthorized
	ProviderUserNotConfirmed
	ProviderLimitExceeded
)

func (c ProviderCode) String() string {
	switch c {
	case ProviderUsernameExists:
		return "username_exists"
	case ProviderCodeMismatch:
		return "code_mismatch"
	case ProviderExpiredCode:
		return "expired_code"
	case ProviderNotAuthorized:
		return "not_authorized"
	case ProviderUserNotConfirmed:
		return "user_not_confirmed"
	case ProviderLimitExceeded:
		return "limit_exceeded"
	default:
		return "internal"
	}
}

// ProviderError wraps a raw identity-provider failure with its category.
type ProviderError struct {
	Code ProviderCode
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity provider %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("identity provider %s", e.Code)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RegistrationError reports a failed sign-up. Duplicate is set when the
// provider already has an account for the email.
type RegistrationError struct {
	Message   string
	Duplicate bool
	Err       error
}

func (e *RegistrationError) Error() string {
	return e.Message
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// AuthReason distinguishes authentication failures the caller must surface
// differently.
type AuthReason int

const (
	AuthFailed AuthReason = iota
	AuthCodeMismatch
	AuthCodeExpired
	AuthLimitExceeded
	AuthInvalidCredentials
	AuthNotConfirmed
)

// AuthenticationError reports a failed confirmation, sign-in, code resend or
// password reset.
type AuthenticationError struct {
	Reason  AuthReason
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
