package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const localCodeTTL = 24 * time.Hour

// LocalProvider is an in-process IdentityProvider used when no remote
// provider credentials are configured, mirroring the application's local
// storage fallback. Accounts live in memory for the life of the process;
// passwords and confirmation codes are bcrypt-hashed, access tokens are
// HS256 JWTs.
type LocalProvider struct {
	mu       sync.Mutex
	accounts map[string]*localAccount

	secret   []byte
	tokenTTL time.Duration
	logger   *logrus.Logger

	now     func() time.Time
	genCode func() (string, error)
}

type localAccount struct {
	email        string
	passwordHash []byte
	confirmed    bool

	confirmCodeHash []byte
	confirmExpires  time.Time
	resetCodeHash   []byte
	resetExpires    time.Time
}

func NewLocalProvider(secret []byte, tokenTTL time.Duration, logger *logrus.Logger) *LocalProvider {
	return &LocalProvider{
		accounts: make(map[string]*localAccount),
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger,
		now:      time.Now,
		genCode:  randomCode,
	}
}

func randomCode() (string, error) {
	code := ""
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += n.String()
	}
	return code, nil
}

func (p *LocalProvider) SignUp(_ context.Context, in SignUpInput) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[in.Email]; exists {
		return &ProviderError{Code: ProviderUsernameExists}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return &ProviderError{Code: ProviderInternal, Err: err}
	}

	acct := &localAccount{email: in.Email, passwordHash: hash}
	if err := p.issueConfirmCode(acct); err != nil {
		return err
	}
	p.accounts[in.Email] = acct
	return nil
}

// issueConfirmCode generates, stores and logs a fresh confirmation code.
// Must be called with p.mu held. The code is logged because there is no
// outbound email in local mode.
func (p *LocalProvider) issueConfirmCode(acct *localAccount) error {
	code, err := p.genCode()
	if err != nil {
		return &ProviderError{Code: ProviderInternal, Err: err}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return &ProviderError{Code: ProviderInternal, Err: err}
	}
	acct.confirmCodeHash = hash
	acct.confirmExpires = p.now().Add(localCodeTTL)

	p.logger.WithFields(logrus.Fields{
		"email": acct.email,
		"code":  code,
	}).Info("Confirmation code issued (local provider)")
	return nil
}

func (p *LocalProvider) ConfirmSignUp(_ context.Context, email, code, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[email]
	if !ok || acct.confirmCodeHash == nil {
		return &ProviderError{Code: ProviderNotAuthorized}
	}
	if p.now().After(acct.confirmExpires) {
		return &ProviderError{Code: ProviderExpiredCode}
	}
	if bcrypt.CompareHashAndPassword(acct.confirmCodeHash, []byte(code)) != nil {
		return &ProviderError{Code: ProviderCodeMismatch}
	}

	acct.confirmed = true
	acct.confirmCodeHash = nil
	return nil
}

func (p *LocalProvider) ResendConfirmationCode(_ context.Context, email, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[email]
	if !ok {
		return &ProviderError{Code: ProviderNotAuthorized}
	}
	if acct.confirmed {
		return &ProviderError{Code: ProviderInternal, Err: fmt.Errorf("account already confirmed")}
	}
	return p.issueConfirmCode(acct)
}

type localClaims struct {
	jwt.RegisteredClaims
}

func (p *LocalProvider) InitiateAuth(_ context.Context, email, password, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[email]
	if !ok {
		return "", &ProviderError{Code: ProviderNotAuthorized}
	}
	if bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)) != nil {
		return "", &ProviderError{Code: ProviderNotAuthorized}
	}
	if !acct.confirmed {
		return "", &ProviderError{Code: ProviderUserNotConfirmed}
	}

	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, localClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
		},
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", &ProviderError{Code: ProviderInternal, Err: err}
	}
	return signed, nil
}

func (p *LocalProvider) GetUser(_ context.Context, accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &localClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return "", &ProviderError{Code: ProviderNotAuthorized, Err: err}
	}
	claims, ok := token.Claims.(*localClaims)
	if !ok || !token.Valid {
		return "", &ProviderError{Code: ProviderNotAuthorized}
	}
	return claims.Subject, nil
}

func (p *LocalProvider) ForgotPassword(_ context.Context, email, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[email]
	if !ok {
		return &ProviderError{Code: ProviderNotAuthorized}
	}

	code, err := p.genCode()
	if err != nil {
		return &ProviderError{Code: ProviderInternal, Err: err}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return &ProviderError{Code: ProviderInternal, Err: err}
	}
	acct.resetCodeHash = hash
	acct.resetExpires = p.now().Add(localCodeTTL)

	p.logger.WithFields(logrus.Fields{
		"email": email,
		"code":  code,
	}).Info("Password reset code issued (local provider)")
	return nil
}

func (p *LocalProvider) ConfirmForgotPassword(_ context.Context, email, code, newPassword, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[email]
	if !ok || acct.resetCodeHash == nil {
		return &ProviderError{Code: ProviderNotAuthorized}
	}
	if p.now().After(acct.resetExpires) {
		return &ProviderError{Code: ProviderExpiredCode}
	}
	if bcrypt.CompareHashAndPassword(acct.resetCodeHash, []byte(code)) != nil {
		return &ProviderError{Code: ProviderCodeMismatch}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return &ProviderError{Code: ProviderInternal, Err: err}
	}
	acct.passwordHash = hash
	acct.resetCodeHash = nil
	return nil
}

// SignOut is a no-op for the local provider: tokens are stateless and simply
// expire. It never fails, matching the caller's requirement that logout must
// always locally succeed.
func (p *LocalProvider) SignOut(context.Context, string) error {
	return nil
}
