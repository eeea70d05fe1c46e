package csrf_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/csrf"
)

func newRouter(g *csrf.Guard) http.Handler {
	r := chi.NewRouter()
	r.Use(g.Middleware)
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }
	r.Get("/api/protected", ok)
	r.Post("/api/protected", ok)
	r.Post("/api/auth/login", ok)
	return r
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	g := newGuard(t)
	h := newRouter(g.Guard)
	token := mustToken(t)

	t.Run("passes valid pair", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, newRequest(http.MethodPost, "/api/protected", token, token))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("passes safe method", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, newRequest(http.MethodGet, "/api/protected", "", ""))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("passes excluded route", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, newRequest(http.MethodPost, "/api/auth/login", "", ""))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, newRequest(http.MethodPost, "/api/protected", "", token))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Empty(t, w.Header().Get("Retry-After"))
		assert.NotContains(t, w.Body.String(), token)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "csrf_invalid", body["error"])
		assert.Equal(t, "CSRF token missing", body["message"])
	})
}

func TestMiddleware_Lockout(t *testing.T) {
	t.Parallel()

	g := newGuard(t)
	h := newRouter(g.Guard)

	for range csrf.DefaultFailureThreshold + 1 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, newRequest(http.MethodPost, "/api/protected", "", ""))
		require.Equal(t, http.StatusForbidden, w.Code)
	}

	w := httptest.NewRecorder()
	token := mustToken(t)
	h.ServeHTTP(w, newRequest(http.MethodPost, "/api/protected", token, token))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "300", w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "csrf_rate_limited", body["error"])
	assert.InDelta(t, 300, body["retry_after"], 0)
}

func TestMiddleware_CustomErrorHandler(t *testing.T) {
	t.Parallel()

	var got error
	g := newGuard(t, csrf.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	newRouter(g.Guard).ServeHTTP(w, newRequest(http.MethodPost, "/api/protected", "", ""))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, errors.Is(got, csrf.ErrCSRF))
}
