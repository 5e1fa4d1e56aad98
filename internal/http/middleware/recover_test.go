package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecoverReturnsSanitizedError(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("token vazou")
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"data":null,"error":{"code":"INTERNAL","message":"erro interno"}}`, rec.Body.String())
	require.NotContains(t, rec.Body.String(), "token")
}

func TestRealIPPrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	require.Equal(t, "10.0.0.1", realIPFromRequest(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", realIPFromRequest(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	require.Equal(t, "198.51.100.2", realIPFromRequest(req))
}

func TestRateLimiterIsPerIP(t *testing.T) {
	l := NewRateLimiter(0.001, 0)

	require.True(t, l.Allow("203.0.113.7"))
	require.False(t, l.Allow("203.0.113.7"))
	require.True(t, l.Allow("198.51.100.2"))
}
