package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/legatera/legatera/internal/auth"
	"github.com/legatera/legatera/internal/middleware"
	"github.com/legatera/legatera/internal/models"
	"github.com/legatera/legatera/internal/ratelimit"
	"github.com/legatera/legatera/internal/store"
	"github.com/legatera/legatera/internal/validate"
)

type AuthHandlers struct {
	creds  *auth.Client
	store  store.Store
	logger *logrus.Logger
}

func NewAuthHandlers(creds *auth.Client, s store.Store, logger *logrus.Logger) *AuthHandlers {
	return &AuthHandlers{
		creds:  creds,
		store:  s,
		logger: logger,
	}
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	DateOfBirth string `json:"date_of_birth"`
}

type ConfirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type ResendCodeRequest struct {
	Email string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsTrustee bool   `json:"is_trustee"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	params := auth.SignUpParams{
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		DateOfBirth: strings.TrimSpace(req.DateOfBirth),
	}

	if err := h.creds.SignUp(r.Context(), clientAddr(r), params); err != nil {
		h.respondAuthError(w, err, "Registration failed")
		return
	}

	// Keep a local profile record alongside the provider account.
	user := models.NewUser(params.Email, params.FirstName, params.LastName)
	if err := user.SetPassword(params.Password); err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Registration failed")
		return
	}
	if err := user.Save(r.Context(), h.store); err != nil {
		h.logger.WithError(err).Error("Failed to save user record")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Registration failed")
		return
	}

	respondWithJSON(w, http.StatusCreated, MessageResponse{
		Message: "Registration successful. Please check your email for a verification code",
	})
}

func (h *AuthHandlers) ConfirmSignUp(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	code := strings.TrimSpace(req.Code)

	if err := h.creds.ConfirmSignUp(r.Context(), clientAddr(r), email, code); err != nil {
		h.respondAuthError(w, err, "Confirmation failed")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Email verified successfully"})
}

func (h *AuthHandlers) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req ResendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)

	if err := h.creds.ResendConfirmationCode(r.Context(), clientAddr(r), email); err != nil {
		h.respondAuthError(w, err, "Failed to resend code")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Verification code sent"})
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)

	token, err := h.creds.InitiateAuth(r.Context(), clientAddr(r), email, req.Password)
	if err != nil {
		h.respondAuthError(w, err, "Login failed")
		return
	}

	user, err := models.UserByEmail(r.Context(), h.store, email)
	if errors.Is(err, store.ErrNotFound) {
		// Accounts created directly in the provider get a record on first login.
		user = models.NewUser(email, "", "")
		if err := user.Save(r.Context(), h.store); err != nil {
			h.logger.WithError(err).Error("Failed to save user record")
			respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed")
			return
		}
	} else if err != nil {
		h.logger.WithError(err).Error("Failed to load user record")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed")
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        userResponse(user),
	})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	// Provider-side sign-out failures are logged, not surfaced.
	h.creds.SignOut(r.Context(), token)

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)

	if err := h.creds.ForgotPassword(r.Context(), clientAddr(r), email); err != nil {
		h.respondAuthError(w, err, "Failed to start password reset")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Password reset code sent"})
}

func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	code := strings.TrimSpace(req.Code)

	if err := h.creds.ConfirmForgotPassword(r.Context(), clientAddr(r), email, code, req.NewPassword); err != nil {
		h.respondAuthError(w, err, "Password reset failed")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Password reset successfully"})
}

func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "User record not found")
		return
	}

	respondWithJSON(w, http.StatusOK, userResponse(user))
}

// respondAuthError maps the credential client's error types to HTTP responses.
func (h *AuthHandlers) respondAuthError(w http.ResponseWriter, err error, fallback string) {
	var limitErr *ratelimit.Error
	if errors.As(err, &limitErr) {
		w.Header().Set("Retry-After", strconv.Itoa(int(limitErr.RetryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later")
		return
	}

	var valErr *validate.Error
	if errors.As(err, &valErr) {
		respondWithError(w, http.StatusBadRequest, "VALIDATION_FAILED", valErr.Message)
		return
	}

	var regErr *auth.RegistrationError
	if errors.As(err, &regErr) {
		if regErr.Duplicate {
			respondWithError(w, http.StatusConflict, "EMAIL_TAKEN", regErr.Message)
			return
		}
		respondWithError(w, http.StatusBadRequest, "REGISTRATION_FAILED", regErr.Message)
		return
	}

	var authErr *auth.AuthenticationError
	if errors.As(err, &authErr) {
		switch authErr.Reason {
		case auth.AuthCodeMismatch:
			respondWithError(w, http.StatusBadRequest, "INVALID_CODE", authErr.Message)
		case auth.AuthCodeExpired:
			respondWithError(w, http.StatusBadRequest, "CODE_EXPIRED", authErr.Message)
		case auth.AuthLimitExceeded:
			respondWithError(w, http.StatusTooManyRequests, "RATE_LIMITED", authErr.Message)
		case auth.AuthInvalidCredentials:
			respondWithError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", authErr.Message)
		case auth.AuthNotConfirmed:
			respondWithError(w, http.StatusForbidden, "NOT_CONFIRMED", authErr.Message)
		default:
			respondWithError(w, http.StatusBadRequest, "AUTH_FAILED", authErr.Message)
		}
		return
	}

	h.logger.WithError(err).Error(fallback)
	respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
}

func userResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsTrustee: u.IsTrustee,
	}
}

// clientAddr returns the caller's address for rate limiting, preferring the
// first X-Forwarded-For hop when present.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
