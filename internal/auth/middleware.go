package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/redmonkez12/stocktrack-api/internal/httputil"
	"github.com/redmonkez12/stocktrack-api/internal/logging"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth rejects the request before next runs unless it carries a valid
// bearer token. Every rejection cause gets the same 401 body, except a
// missing signing secret which is a server fault.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			logger.Warn("missing or malformed authorization header")
			httputil.RespondError(w, httputil.MsgUnauthorized, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			if errors.Is(err, ErrMissingSecret) {
				logger.Error("token verification refused: signing secret not configured")
				httputil.RespondError(w, httputil.MsgServerMisconfigured, http.StatusInternalServerError)
				return
			}
			logger.Warn("token verification failed", "error", err.Error())
			httputil.RespondError(w, httputil.MsgUnauthorized, http.StatusUnauthorized)
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || userID <= 0 {
			logger.Warn("token subject is not a user id", "subject", claims.Subject)
			httputil.RespondError(w, httputil.MsgUnauthorized, http.StatusUnauthorized)
			return
		}

		ctx := WithUserID(r.Context(), userID)
		ctx = logging.WithLogger(ctx, logger.With("user_id", userID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" value.
func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
