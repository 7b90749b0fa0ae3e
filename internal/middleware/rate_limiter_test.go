package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Config defaults: global burst 10, per-query burst 3. Refill is per minute, so no
// tokens come back within a test.

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRateLimitMiddleware_GlobalBurst(t *testing.T) {
	ResetVisitors()
	mw := RateLimitMiddleware(okHandler())
	ip := "1.2.3.4:1234"

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/search?q=city%d", i), nil)
		req.RemoteAddr = ip
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/search?q=another", nil)
	req.RemoteAddr = ip
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp map[string]interface{}
	_ = json.NewDecoder(w.Body).Decode(&resp)
	assert.Contains(t, resp["error"], "global limit")
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_PerQueryBurst(t *testing.T) {
	ResetVisitors()
	mw := RateLimitMiddleware(okHandler())
	ip := "2.3.4.5:2345"

	for i, q := range []string{"London", "london", " LONDON "} {
		req := httptest.NewRequest(http.MethodPost, "/api/search?q="+strings.ReplaceAll(q, " ", "+"), nil)
		req.RemoteAddr = ip
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/search?q=London", nil)
	req.RemoteAddr = ip
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp map[string]interface{}
	_ = json.NewDecoder(w.Body).Decode(&resp)
	assert.Contains(t, resp["error"], "per-query limit")

	// Another city from the same client is still fine.
	req = httptest.NewRequest(http.MethodPost, "/api/search?q=Paris", nil)
	req.RemoteAddr = ip
	w = httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware_ClientsAreIndependent(t *testing.T) {
	ResetVisitors()
	mw := RateLimitMiddleware(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/locate", nil)
		req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/locate", nil)
	req.Header.Set("X-Forwarded-For", "8.8.8.8")
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware_FormBodyCitiesAreSeparate(t *testing.T) {
	ResetVisitors()
	var seen []string
	mw := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		seen = append(seen, r.Form.Get("q"))
		w.WriteHeader(http.StatusOK)
	}))

	cities := []string{"London", "Paris", "Rome", "Berlin", "Oslo"}
	for _, city := range cities {
		form := url.Values{"q": {city}}
		req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "4.4.4.4:4444"
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "search for %s", city)
	}
	assert.Equal(t, cities, seen, "the handler still reads the form")
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "q:paris", queryKey(httptest.NewRequest(http.MethodGet, "/search?q=Paris", nil)))
	assert.Equal(t, "coords:1.5,2.5", queryKey(httptest.NewRequest(http.MethodGet, "/api/search?lat=1.5&lon=2.5", nil)))
	assert.Equal(t, "__none__", queryKey(httptest.NewRequest(http.MethodGet, "/api/locate", nil)))

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader("q=+Rome+"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, "q:rome", queryKey(req))
	assert.Equal(t, " Rome ", req.Form.Get("q"))
}

func TestGetIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", getIP(req))

	req.RemoteAddr = "not-an-addr"
	assert.Equal(t, "not-an-addr", getIP(req))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	l := NewRateLimiter()
	l.allow("1.1.1.1", "q:paris")
	l.allow("2.2.2.2", "q:rome")

	l.mu.Lock()
	l.clients["1.1.1.1"].lastSeen = time.Now().Add(-time.Hour)
	l.queries["1.1.1.1"]["q:paris"].lastSeen = time.Now().Add(-time.Hour)
	l.mu.Unlock()

	l.Cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.clients, "1.1.1.1")
	assert.NotContains(t, l.queries, "1.1.1.1")
	assert.Contains(t, l.clients, "2.2.2.2")
}
