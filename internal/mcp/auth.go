package mcp

import (
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultMCPMaxBodyBytes int64 = 1 << 20 // 1MiB
	defaultRatePerMin            = 60
	maxIdleBuckets               = 1024
	bucketIdleAfter              = 10 * time.Minute
)

// HTTPHandlerConfig guards the streamable HTTP transport.
type HTTPHandlerConfig struct {
	// AuthTokens lists every accepted bearer token.
	AuthTokens      []string
	RateLimitPerMin int
	MaxBodyBytes    int64
	// Requests counts outcomes when set: ok, unauthorized, forbidden, limited.
	Requests *prometheus.CounterVec
}

// ParseAuthTokens splits a comma separated token list, dropping blanks.
func ParseAuthTokens(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// httpGuard authenticates, rate limits and caps the body of each request
// before the MCP handler sees it.
type httpGuard struct {
	next     http.Handler
	tokens   [][]byte
	limiter  *httpRateLimiter
	maxBody  int64
	requests *prometheus.CounterVec
}

func wrapHTTPHandler(base http.Handler, cfg HTTPHandlerConfig) http.Handler {
	g := &httpGuard{
		next:     base,
		limiter:  newHTTPRateLimiter(cfg.RateLimitPerMin),
		maxBody:  cfg.MaxBodyBytes,
		requests: cfg.Requests,
	}
	if g.maxBody <= 0 {
		g.maxBody = defaultMCPMaxBodyBytes
	}
	for _, t := range cfg.AuthTokens {
		if t = strings.TrimSpace(t); t != "" {
			g.tokens = append(g.tokens, []byte(t))
		}
	}
	return g
}

func (g *httpGuard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(authz, "Bearer ") {
		g.reject(w, "unauthorized", http.StatusUnauthorized, "missing bearer token")
		return
	}
	tokenID, ok := g.match(strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")))
	if !ok {
		g.reject(w, "forbidden", http.StatusForbidden, "invalid bearer token")
		return
	}
	if !g.limiter.Allow(tokenID + "|" + clientHost(r)) {
		g.reject(w, "limited", http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, g.maxBody)
	}
	g.count("ok")
	g.next.ServeHTTP(w, r)
}

// match returns a stable label for the token so raw secrets never become
// limiter keys. Every token is compared to keep timing flat.
func (g *httpGuard) match(provided string) (string, bool) {
	if provided == "" {
		return "", false
	}
	found := -1
	for i, t := range g.tokens {
		if subtle.ConstantTimeCompare([]byte(provided), t) == 1 && found < 0 {
			found = i
		}
	}
	if found < 0 {
		return "", false
	}
	return "token-" + strconv.Itoa(found), true
}

func (g *httpGuard) reject(w http.ResponseWriter, outcome string, status int, message string) {
	g.count(outcome)
	writeJSONError(w, status, message)
}

func (g *httpGuard) count(outcome string) {
	if g.requests != nil {
		g.requests.WithLabelValues(outcome).Inc()
	}
}

func clientHost(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "" {
		return "unknown"
	}
	return host
}

// httpRateLimiter keeps one token bucket per key. Buckets idle for a while
// are dropped once the map grows large.
type httpRateLimiter struct {
	mu      sync.Mutex
	perSec  float64
	burst   float64
	buckets map[string]*tokenBucket
	now     func() time.Time
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

func newHTTPRateLimiter(perMin int) *httpRateLimiter {
	if perMin <= 0 {
		perMin = defaultRatePerMin
	}
	return &httpRateLimiter{
		perSec:  float64(perMin) / 60,
		burst:   float64(perMin),
		buckets: make(map[string]*tokenBucket),
		now:     time.Now,
	}
}

func (l *httpRateLimiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxIdleBuckets {
			l.prune(now)
		}
		l.buckets[key] = &tokenBucket{tokens: l.burst - 1, seen: now}
		return true
	}

	if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = min(l.burst, b.tokens+elapsed*l.perSec)
	}
	b.seen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *httpRateLimiter) prune(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.seen) > bucketIdleAfter {
			delete(l.buckets, k)
		}
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
