// Package bucket provides a token bucket measured in bytes. It paces data
// movement: a caller about to move n bytes waits for n tokens.
package bucket

import (
	"context"
	"math"
	"sync"
	"time"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
)

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration options for creating a Limiter.
type Config struct {
	// BytesPerSecond is the refill rate. Zero disables limiting.
	BytesPerSecond int64

	// Burst is the most bytes that may move at once. Defaults to
	// BytesPerSecond, with a floor of 1 KiB.
	Burst int

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock
}

// Limiter is a byte token bucket. It is safe for concurrent use.
type Limiter struct {
	mu         sync.Mutex
	rate       float64
	burst      int
	tokens     float64
	lastUpdate time.Time
	clock      Clock
}

// New creates a Limiter starting with a full bucket.
func New(config Config) (*Limiter, error) {
	if config.BytesPerSecond < 0 {
		return nil, pferrors.NewValidationError("bucket", "bytes_per_second", config.BytesPerSecond, "cannot be negative").
			WithHint("use 0 for no limit")
	}
	if config.Burst < 0 {
		return nil, pferrors.NewValidationError("bucket", "burst", config.Burst, "cannot be negative")
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	if config.Burst == 0 {
		config.Burst = int(max(config.BytesPerSecond, 1024))
	}

	return &Limiter{
		rate:       float64(config.BytesPerSecond),
		burst:      config.Burst,
		tokens:     float64(config.Burst),
		lastUpdate: config.Clock.Now(),
		clock:      config.Clock,
	}, nil
}

// Unlimited reports whether the limiter lets everything through.
func (l *Limiter) Unlimited() bool {
	return l.rate == 0
}

// Burst returns the largest n WaitN accepts.
func (l *Limiter) Burst() int {
	return l.burst
}

// Tokens returns the number of bytes that may move right now.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(l.clock.Now())
	return l.tokens
}

// WaitN blocks until n bytes may move. n must not exceed Burst. The
// reservation is returned to the bucket when ctx ends first.
func (l *Limiter) WaitN(ctx context.Context, n int) error {
	if n <= 0 || l.Unlimited() {
		return nil
	}
	if n > l.burst {
		return pferrors.NewValidationError("bucket", "n", n, "exceeds burst").
			WithHint("split the write into chunks of at most Burst bytes")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	delay := l.reserve(n)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		l.cancel(n)
		return ctx.Err()
	}
}

// reserve takes n tokens, letting the balance go negative, and returns how
// long the caller must wait before acting.
func (l *Limiter) reserve(n int) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.refill(now)
	l.tokens -= float64(n)
	if l.tokens >= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) * -l.tokens / l.rate)
}

func (l *Limiter) cancel(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(l.clock.Now())
	l.tokens = math.Min(l.tokens+float64(n), float64(l.burst))
}

// refill adds tokens for the time elapsed since the last update.
func (l *Limiter) refill(now time.Time) {
	elapsed := now.Sub(l.lastUpdate)
	if elapsed <= 0 {
		return
	}
	l.tokens = math.Min(l.tokens+elapsed.Seconds()*l.rate, float64(l.burst))
	l.lastUpdate = now
}
