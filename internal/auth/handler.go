package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/redmonkez12/stocktrack-api/internal/httputil"
	"github.com/redmonkez12/stocktrack-api/internal/logging"
	"github.com/redmonkez12/stocktrack-api/internal/user"
)

// RateLimiter throttles auth attempts per client IP and purpose.
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
}

// NewHandler builds the auth handlers. rateLimiter may be nil.
func NewHandler(service *Service, rateLimiter RateLimiter) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
	}
}

// CredentialsRequest is the body shared by register, login and reset-password
type CredentialsRequest struct {
	Email    string `json:"email" example:"a@b.com"`
	Password string `json:"password" example:"secret1"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Registration credentials"
// @Success      201 {object} user.User
// @Failure      400 {object} httputil.ErrorResponse "Missing fields"
// @Failure      409 {object} httputil.ErrorResponse "Email already registered"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, logger, "register") {
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, httputil.MsgInvalidRequestBody, httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrCredentialsRequired), errors.Is(err, ErrPasswordTooLong):
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("registration failed: email already exists")
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailAlreadyExists, http.StatusConflict)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			httputil.RespondError(w, httputil.MsgInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, newUser, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate a user and receive a bearer token valid for seven days
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Login credentials"
// @Success      200 {object} LoginResult
// @Failure      400 {object} httputil.ErrorResponse "Missing fields"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Server misconfigured or internal error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, logger, "login") {
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, httputil.MsgInvalidRequestBody, httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrCredentialsRequired):
			logger.Warn("login failed: validation error")
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			httputil.RespondError(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, ErrMissingSecret):
			logger.Error("login failed: token signing secret is not configured")
			httputil.RespondError(w, httputil.MsgServerMisconfigured, http.StatusInternalServerError)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			httputil.RespondError(w, httputil.MsgInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in successfully", "user_id", result.User.ID)

	httputil.RespondJSON(w, result, http.StatusOK)
}

// ResetPassword replaces the caller's own password
// @Summary      Reset password
// @Description  Replace the password of the authenticated user's account. The email must be the caller's own.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CredentialsRequest true "Account email and new password"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing fields"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      403 {object} httputil.ErrorResponse "Not the caller's account or unknown email"
// @Failure      404 {object} httputil.ErrorResponse "Account removed during the request"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, httputil.MsgUnauthorized, http.StatusUnauthorized)
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, httputil.MsgInvalidRequestBody, httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.ChangeOwnPassword(r.Context(), userID, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrCredentialsRequired), errors.Is(err, ErrPasswordTooLong):
			logger.Warn("password reset failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrForbidden):
			logger.Warn("password reset failed: target is not the caller")
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeForbidden, http.StatusForbidden)
		case errors.Is(err, user.ErrNotFound):
			// The account was deleted between lookup and update.
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeNotFound, http.StatusNotFound)
		default:
			logger.Error("password reset failed: internal error", "error", err.Error())
			httputil.RespondError(w, httputil.MsgInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password reset successfully")

	httputil.RespondJSON(w, MessageResponse{Message: "password updated"}, http.StatusOK)
}

// allow applies the IP rate limit for purpose. Limiter errors let the request through.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, logger *logging.Logger, purpose string) bool {
	if h.rateLimiter == nil {
		return true
	}

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for "+purpose, "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return false
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	return true
}

// getClientIP returns the peer address of the request. Forwarding headers are
// honoured only when the router runs behind a trusted proxy, where RealIP has
// already rewritten RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
