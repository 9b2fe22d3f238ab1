package notionclient

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DEFAULT_MAX_ATTEMPTS = 4
	DEFAULT_BASE_DELAY   = time.Second
	DEFAULT_MAX_DELAY    = 30 * time.Second
	DEFAULT_JITTER       = 0.2
	BACKOFF_MULTIPLIER   = 2.0
)

// RetryPolicy decides how often and how long to wait when a remote call
// fails with a transient error. MaxAttempts counts the first call too.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter is the fraction of the delay that is randomised in both
	// directions, 0.2 means +-20%.
	Jitter float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DEFAULT_MAX_ATTEMPTS,
		BaseDelay:   DEFAULT_BASE_DELAY,
		MaxDelay:    DEFAULT_MAX_DELAY,
		Jitter:      DEFAULT_JITTER,
	}
}

func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	if p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("max delay %s is below base delay %s", p.MaxDelay, p.BaseDelay)
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		return fmt.Errorf("jitter must be in [0, 1), got %v", p.Jitter)
	}
	return nil
}

// ShouldRetry reports whether another attempt is allowed after the given
// number of attempts failed.
func (p RetryPolicy) ShouldRetry(failedAttempts int) bool {
	return failedAttempts < p.MaxAttempts
}

// Delay returns how long to wait after the given failed attempt (1 based).
// random must return values in [0, 1).
func (p RetryPolicy) Delay(failedAttempt int, random func() float64) time.Duration {
	if failedAttempt < 1 {
		failedAttempt = 1
	}

	// Jitter is applied below with random, so the exponential schedule
	// itself stays deterministic
	schedule := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          BACKOFF_MULTIPLIER,
		MaxInterval:         p.MaxDelay,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	schedule.Reset()

	var delay time.Duration
	for i := 0; i < failedAttempt; i++ {
		delay = schedule.NextBackOff()
		if delay >= p.MaxDelay {
			break
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.Jitter > 0 && random != nil {
		factor := 1 + p.Jitter*(2*random()-1)
		delay = time.Duration(float64(delay) * factor)
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Clock is the time source of the fetch layer, replaced in tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RealClock returns the wall clock.
func RealClock() Clock {
	return realClock{}
}

// lockedRand is a math/rand source safe for the worker pool.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}
