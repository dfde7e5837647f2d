package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDelayForAttemptGrowsAndCaps(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 1 * time.Second, JitterFactor: 0}
	require.Equal(t, 100*time.Millisecond, p.DelayForAttempt(0))
	require.Equal(t, 200*time.Millisecond, p.DelayForAttempt(1))
	require.Equal(t, 400*time.Millisecond, p.DelayForAttempt(2))
	require.Equal(t, 1*time.Second, p.DelayForAttempt(10))
}

func TestJitterClampedAtZero(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, JitterFactor: -1}
	require.Equal(t, 100*time.Millisecond, p.DelayForAttempt(0))
}

func TestJitterStaysWithinBounds(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, JitterFactor: 0.5}.WithRand(func() float64 { return 1 })
	d := p.DelayForAttempt(0)
	require.Equal(t, 150*time.Millisecond, d)

	p2 := p.WithRand(func() float64 { return 0 })
	d2 := p2.DelayForAttempt(0)
	require.Equal(t, 50*time.Millisecond, d2)
}

func TestShouldRetryInfiniteByDefault(t *testing.T) {
	p := Policy{}
	require.True(t, p.ShouldRetry(1000))
}

func TestShouldRetryRespectsMaxAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3}
	require.True(t, p.ShouldRetry(0))
	require.True(t, p.ShouldRetry(1))
	require.False(t, p.ShouldRetry(2))
}

func TestIsTransient(t *testing.T) {
	require.True(t, IsTransient(errors.New("dial tcp: connection refused")))
	require.True(t, IsTransient(errors.New("context deadline exceeded (timeout)")))
	require.True(t, IsTransient(errors.New("pq: too many clients already")))
	require.True(t, IsTransient(errors.New("pq: deadlock detected")))
	require.False(t, IsTransient(errors.New("pq: duplicate key value violates unique constraint")))
	require.False(t, IsTransient(nil))
}
