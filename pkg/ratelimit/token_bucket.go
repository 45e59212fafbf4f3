package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements a token bucket rate limiting algorithm
type TokenBucket struct {
	tokens         float64
	maxTokens      float64
	refillRate     float64
	lastRefillTime time.Time
	mutex          sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter. refillRate is
// tokens per second.
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
	}
}

// Allow checks if a request can proceed based on the token bucket algorithm
func (tb *TokenBucket) Allow() bool {
	return tb.AllowN(1)
}

// AllowN checks if n requests should be allowed based on available tokens
func (tb *TokenBucket) AllowN(n float64) bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	// Refill tokens based on the time elapsed since the last refill
	now := time.Now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	tb.lastRefillTime = now

	newTokens := elapsed * tb.refillRate
	tb.tokens = minFloat(tb.maxTokens, tb.tokens+newTokens)

	if tb.tokens >= n {
		tb.tokens -= n
		return true
	}
	return false
}

// Available returns the number of tokens currently available
func (tb *TokenBucket) Available() float64 {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()

	return minFloat(tb.maxTokens, tb.tokens+elapsed*tb.refillRate)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
