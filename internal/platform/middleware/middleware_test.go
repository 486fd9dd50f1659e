package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "viacarona/internal/jwt_token"
	"viacarona/internal/platform/logger"
	"viacarona/pkg/requestcontext"
)

func TestRequestContext(t *testing.T) {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, RequestContext)
	var seen string
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestRequireAuth(t *testing.T) {
	tokens := jwttoken.NewJWTService("test-key", "viacarona-sandbox", "viacarona")
	accountID := uuid.New()
	token, err := tokens.IssueSessionToken(accountID, "ana@example.com", time.Hour)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(RequireAuth(tokens, logger.Discard()))
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		claims := Claims(r.Context())
		if claims == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(claims.Email))
	})

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ana@example.com", rec.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "AUTH_004")
	})

	t.Run("tampered token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
