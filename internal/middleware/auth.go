package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/spendlog/spendlog/internal/auth"
	"github.com/spendlog/spendlog/internal/model"
)

// Verifier checks an Authorization header value.
// *auth.TokenManager satisfies it.
type Verifier interface {
	Verify(header string) (*model.AuthContext, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier Verifier
}

// Auth returns a middleware that requires a valid bearer token and
// injects the caller into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := cfg.Verifier.Verify(r.Header.Get("Authorization"))
			if err != nil {
				reason, message := authFailure(err)
				logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", getClientIP(r)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
				return
			}

			setLogUserID(r.Context(), authCtx.UserID)

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authFailure maps a verification error to a log reason and client message.
// Every token problem shares one message so responses do not leak detail.
func authFailure(err error) (reason, message string) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing_token", "No token provided"
	case errors.Is(err, auth.ErrMalformedHeader):
		return "malformed_header", "Invalid or expired token"
	case errors.Is(err, auth.ErrExpiredToken):
		return "expired_token", "Invalid or expired token"
	default:
		return "invalid_token", "Invalid or expired token"
	}
}
