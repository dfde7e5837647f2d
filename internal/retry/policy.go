// Package retry implements the exponential-backoff-with-jitter policy used by
// the agent's send loop (§4.4), plus the IsTransient error classifier used by
// the TSDB writer.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Policy is the exponential back-off schedule: delay = min(base*2^attempt,
// max), optionally jittered by ±jitterFactor (clamped at 0). MaxAttempts of 0
// means infinite retries.
type Policy struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64
	MaxAttempts  int // 0 == infinite

	// rand is overridable for deterministic tests.
	rand func() float64
}

// DefaultPolicy matches the agent's default send-loop back-off.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		JitterFactor: 0.2,
	}
}

func (p Policy) randFloat() float64 {
	if p.rand != nil {
		return p.rand()
	}
	return rand.Float64()
}

// WithRand overrides the jitter source; used in tests.
func (p Policy) WithRand(f func() float64) Policy {
	p.rand = f
	return p
}

// DelayForAttempt returns the back-off delay for the given zero-based attempt
// number, with symmetric jitter applied.
func (p Policy) DelayForAttempt(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	if p.MaxDelay > 0 && base > float64(p.MaxDelay) {
		base = float64(p.MaxDelay)
	}

	jitter := p.JitterFactor
	if jitter < 0 {
		jitter = 0
	}
	if jitter == 0 {
		return time.Duration(base)
	}

	// Symmetric jitter in [-jitter, +jitter] of base.
	factor := 1 + (p.randFloat()*2-1)*jitter
	return time.Duration(base * factor)
}

// ShouldRetry reports whether another attempt is permitted for the given
// zero-based attempt number just completed.
func (p Policy) ShouldRetry(attempt int) bool {
	if p.MaxAttempts <= 0 {
		return true
	}
	return attempt+1 < p.MaxAttempts
}
