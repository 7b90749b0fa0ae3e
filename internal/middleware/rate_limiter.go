package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"golang.org/x/time/rate"
)

// visitor holds a rate limiter and the last time it was used.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces two token buckets per client: one across all searches and one
// per distinct query, so hammering the same city trips sooner than browsing.
type RateLimiter struct {
	globalRate  rate.Limit
	globalBurst int
	paramRate   rate.Limit
	paramBurst  int

	mu       sync.Mutex
	clients  map[string]*visitor            // key: ip
	queries  map[string]map[string]*visitor // key: ip -> query
	staleAge time.Duration
}

// perMinute converts a requests-per-minute figure to a rate.Limit.
func perMinute(n float64) rate.Limit {
	return rate.Limit(n / 60.0)
}

// NewRateLimiter builds a limiter from rate_limiter.* config.
func NewRateLimiter() *RateLimiter {
	globalRate, globalBurst := config.GetGlobalRateLimiterConfig()
	paramRate, paramBurst := config.GetParamRateLimiterConfig()
	return &RateLimiter{
		globalRate:  perMinute(globalRate),
		globalBurst: globalBurst,
		paramRate:   perMinute(paramRate),
		paramBurst:  paramBurst,
		clients:     make(map[string]*visitor),
		queries:     make(map[string]map[string]*visitor),
		staleAge:    config.GetRateLimiterCleanupTimeout(),
	}
}

var (
	defaultLimiter     *RateLimiter
	defaultLimiterOnce sync.Once
)

func getDefaultLimiter() *RateLimiter {
	defaultLimiterOnce.Do(func() {
		defaultLimiter = NewRateLimiter()
	})
	return defaultLimiter
}

// allow reports whether ip may run a search for query, and which bucket refused it.
func (l *RateLimiter) allow(ip, query string) (ok bool, scope string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()

	c, exists := l.clients[ip]
	if !exists {
		c = &visitor{limiter: rate.NewLimiter(l.globalRate, l.globalBurst)}
		l.clients[ip] = c
	}
	c.lastSeen = now

	if _, ok := l.queries[ip]; !ok {
		l.queries[ip] = make(map[string]*visitor)
	}
	q, exists := l.queries[ip][query]
	if !exists {
		q = &visitor{limiter: rate.NewLimiter(l.paramRate, l.paramBurst)}
		l.queries[ip][query] = q
	}
	q.lastSeen = now

	if !c.limiter.Allow() {
		return false, "global"
	}
	if !q.limiter.Allow() {
		return false, "per-query"
	}
	return true, ""
}

// Cleanup drops limiters that have not been used for longer than the stale age.
func (l *RateLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.clients {
		if time.Since(v.lastSeen) > l.staleAge {
			delete(l.clients, ip)
		}
	}
	for ip, perQuery := range l.queries {
		for query, v := range perQuery {
			if time.Since(v.lastSeen) > l.staleAge {
				delete(perQuery, query)
			}
		}
		if len(perQuery) == 0 {
			delete(l.queries, ip)
		}
	}
}

// Reset clears all limiter state. Used primarily for testing.
func (l *RateLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clients = make(map[string]*visitor)
	l.queries = make(map[string]map[string]*visitor)
}

// StartRateLimiterCleanup runs Cleanup on the default limiter every minute until ctx ends.
func StartRateLimiterCleanup(ctx context.Context) {
	l := getDefaultLimiter()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}

// ResetVisitors clears the default limiter. Used primarily for testing.
func ResetVisitors() {
	getDefaultLimiter().Reset()
}

// getIP extracts the client's IP address from the HTTP request, considering X-Forwarded-For headers.
func getIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

// queryKey identifies what a request searches for: a normalized city name, a coordinate
// pair, or "__none__" for geolocation and empty searches. Form bodies count as well as
// the URL query; the parsed form stays on r for the handler.
func queryKey(r *http.Request) string {
	values := r.URL.Query()
	if err := r.ParseForm(); err == nil {
		values = r.Form
	}
	if q := strings.ToLower(strings.TrimSpace(values.Get("q"))); q != "" {
		return "q:" + q
	}
	if lat, lon := values.Get("lat"), values.Get("lon"); lat != "" || lon != "" {
		return "coords:" + lat + "," + lon
	}
	return "__none__"
}

// Handler wraps next with this limiter. Refused requests get a 429 JSON envelope.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, scope := l.allow(getIP(r), queryKey(r))
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			errMsg := fmt.Sprintf("Rate limit exceeded (%s limit)", scope)
			_ = json.NewEncoder(w).Encode(model.ErrorResponse("Too Many Requests", errMsg))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware applies the process-wide limiter to next.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return getDefaultLimiter().Handler(next)
}
