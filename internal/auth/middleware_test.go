package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"admin_id": "a1",
		"username": "alice",
		"role":     "admin",
		"exp":      time.Now().Add(ttl).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func serve(handler *AuthHandler, cookie string) (*httptest.ResponseRecorder, *Session) {
	var seen *Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, ok := SessionFromContext(r.Context()); ok {
			seen = &s
		}
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest("GET", "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	}
	rr := httptest.NewRecorder()
	handler.SessionMiddleware(next).ServeHTTP(rr, req)
	return rr, seen
}

func findCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestSessionMiddleware_SlidingSession(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, nil)

	t.Run("TokenRenewed", func(t *testing.T) {
		// 11 hours left is less than TokenDuration/2
		token := signedToken(t, cfg.JWTSecret, 11*time.Hour)
		rr, seen := serve(handler, token)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "a1", seen.AdminID)
		c := findCookie(rr)
		require.NotNil(t, c, "expected a renewed auth_token cookie")
		assert.NotEqual(t, token, c.Value)
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		token := signedToken(t, cfg.JWTSecret, 13*time.Hour)
		rr, seen := serve(handler, token)

		require.NotNil(t, seen)
		assert.Nil(t, findCookie(rr))
	})

	t.Run("Anonymous", func(t *testing.T) {
		rr, seen := serve(handler, "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Nil(t, seen)
	})

	t.Run("ForgedToken", func(t *testing.T) {
		rr, seen := serve(handler, signedToken(t, "other-secret", time.Hour))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Nil(t, seen)
	})
}
