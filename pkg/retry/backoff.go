package retry

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy defines the interface for backoff strategies
type BackoffStrategy interface {
	// NextBackoff returns the next backoff duration based on the attempt number
	NextBackoff(attempt int) time.Duration
}

// ConstantBackoff implements a backoff strategy with a constant delay
type ConstantBackoff struct {
	Interval time.Duration
}

// NextBackoff returns the constant backoff interval
func (b *ConstantBackoff) NextBackoff(attempt int) time.Duration {
	return b.Interval
}

// ExponentialBackoff implements an exponential backoff strategy with jitter
type ExponentialBackoff struct {
	InitialInterval time.Duration // Initial backoff interval
	MaxInterval     time.Duration // Maximum backoff interval
	Multiplier      float64       // Multiplier for exponential growth
	JitterFactor    float64       // Jitter factor to add randomness
}

// NextBackoff calculates the next exponentially increasing backoff duration with jitter
func (b *ExponentialBackoff) NextBackoff(attempt int) time.Duration {
	backoff := float64(b.InitialInterval) * math.Pow(b.Multiplier, float64(attempt-1))

	if b.JitterFactor > 0 {
		jitter := rand.Float64() * b.JitterFactor * backoff
		backoff += jitter
	}

	if backoff > float64(b.MaxInterval) {
		backoff = float64(b.MaxInterval)
	}

	return time.Duration(backoff)
}

// NewDefaultExponentialBackoff creates a default exponential backoff strategy
func NewDefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		Multiplier:      1.5,
		JitterFactor:    0.2,
	}
}
