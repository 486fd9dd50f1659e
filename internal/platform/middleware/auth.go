package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	jwttoken "viacarona/internal/jwt_token"
	"viacarona/pkg/requestcontext"
)

// TokenValidator validates a bearer session token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

type contextKeyClaims struct{}

// Claims returns the session claims stored by RequireAuth, or nil.
func Claims(ctx context.Context) *jwttoken.Claims {
	claims, _ := ctx.Value(contextKeyClaims{}).(*jwttoken.Claims)
	return claims
}

// WithClaims injects session claims into a context.
func WithClaims(ctx context.Context, claims *jwttoken.Claims) context.Context {
	return context.WithValue(ctx, contextKeyClaims{}, claims)
}

// RequireAuth rejects requests without a valid bearer session token and
// stores the token claims in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", requestID)
				writeUnauthorized(w, logger, ctx, "Sessão expirada. Faça login novamente.")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, logger, ctx, "Sessão expirada. Faça login novamente.")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, logger *slog.Logger, ctx context.Context, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	body := `{"success":false,"errorCode":"AUTH_004","message":"` + msg + `"}`
	if _, err := w.Write([]byte(body)); err != nil {
		logger.ErrorContext(ctx, "failed to write unauthorized response",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
