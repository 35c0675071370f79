package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/legatera/legatera/internal/auth"
	"github.com/legatera/legatera/internal/models"
	"github.com/legatera/legatera/internal/store"
)

type contextKey string

const (
	emailKey contextKey = "email"
	tokenKey contextKey = "token"
	userKey  contextKey = "user"
)

// EmailFromContext returns the authenticated email set by RequireAuth.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}

// TokenFromContext returns the bearer token the request authenticated with.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}

// UserFromContext returns the stored user record for the authenticated email,
// or nil if no local record exists yet.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

type AuthMiddleware struct {
	creds  *auth.Client
	store  store.Store
	logger *logrus.Logger
}

func NewAuthMiddleware(creds *auth.Client, s store.Store, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		creds:  creds,
		store:  s,
		logger: logger,
	}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondUnauthorized(w, "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondUnauthorized(w, "Invalid authorization header format")
			return
		}

		tokenString := parts[1]

		email, err := m.creds.VerifyToken(r.Context(), tokenString)
		if err != nil {
			m.logger.WithError(err).Debug("Token verification failed")
			m.respondUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), emailKey, email)
		ctx = context.WithValue(ctx, tokenKey, tokenString)

		// The local record may not exist yet; handlers that need it check
		// UserFromContext for nil.
		user, err := models.UserByEmail(ctx, m.store, email)
		if err == nil {
			ctx = context.WithValue(ctx, userKey, user)
		} else if !errors.Is(err, store.ErrNotFound) {
			m.logger.WithError(err).WithField("email", email).Warn("Failed to load user record")
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}
