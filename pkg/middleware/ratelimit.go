package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/dukaan-ai/orderdesk/pkg/logger"
	"github.com/dukaan-ai/orderdesk/pkg/ratelimit"
)

// RateLimiterMiddleware applies a global and a per-client-IP token bucket to
// incoming requests.
type RateLimiterMiddleware struct {
	globalLimiter     *ratelimit.TokenBucket
	logger            logger.Logger
	trustForwardedFor bool

	ipMaxTokens  float64
	ipRefillRate float64
	mu           sync.Mutex
	ipLimiters   map[string]*ratelimit.TokenBucket
}

// RateLimiterConfig configures the rate limiter middleware
type RateLimiterConfig struct {
	GlobalMaxTokens   float64
	GlobalRefillRate  float64
	IPMaxTokens       float64
	IPRefillRate      float64
	TrustForwardedFor bool
}

// NewRateLimiterMiddleware creates a new rate limiter middleware
func NewRateLimiterMiddleware(cfg *RateLimiterConfig, logger logger.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		globalLimiter:     ratelimit.NewTokenBucket(cfg.GlobalMaxTokens, cfg.GlobalRefillRate),
		logger:            logger,
		trustForwardedFor: cfg.TrustForwardedFor,
		ipMaxTokens:       cfg.IPMaxTokens,
		ipRefillRate:      cfg.IPRefillRate,
		ipLimiters:        make(map[string]*ratelimit.TokenBucket),
	}
}

// Middleware returns a middleware function
func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.globalLimiter.Allow() {
			m.logger.Warn("Global rate limit exceeded", "method", r.Method, "path", r.URL.Path)

			w.Header().Set("Retry-After", "10")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Rate limit exceeded. Please try again later."))
			return
		}

		ip := m.getClientIP(r)

		if !m.limiterForIP(ip).Allow() {
			m.logger.Warn("IP rate limit exceeded", "method", r.Method, "path", r.URL.Path, "ip", ip)

			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Rate limit exceeded. Please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimiterMiddleware) limiterForIP(ip string) *ratelimit.TokenBucket {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, ok := m.ipLimiters[ip]
	if !ok {
		limiter = ratelimit.NewTokenBucket(m.ipMaxTokens, m.ipRefillRate)
		m.ipLimiters[ip] = limiter
	}
	return limiter
}

// getClientIP extracts the client IP from the request
func (m *RateLimiterMiddleware) getClientIP(r *http.Request) string {
	if m.trustForwardedFor {
		forwardedFor := r.Header.Get("X-Forwarded-For")
		if forwardedFor != "" {
			// X-Forwarded-For can contain multiple IPs; use the first one
			ips := strings.Split(forwardedFor, ",")
			return strings.TrimSpace(ips[0])
		}
	}

	ip := r.RemoteAddr
	if i := strings.LastIndex(ip, ":"); i != -1 {
		ip = ip[:i]
	}
	return ip
}
