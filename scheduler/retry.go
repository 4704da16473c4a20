package scheduler

import (
	"math"
	"time"
)

// RetryStrategy encapsulates the delay between retries of a failing job.
type RetryStrategy interface {
	// SleepDuration returns how long to wait before the next attempt. The
	// attempt index starts at 0, incrementing after each failure.
	SleepDuration(attempt int, err error) time.Duration
}

// NoDelayStrategy requeues immediately. Useful in tests.
type NoDelayStrategy struct{}

func (NoDelayStrategy) SleepDuration(_ int, _ error) time.Duration {
	return 0
}

// ExponentialBackoffStrategy grows the requeue delay per attempt.
// Usage example:
//
//	RetryPolicy{
//	    MaxRetries: 5,
//	    Strategy: ExponentialBackoffStrategy{
//	        Base:   30 * time.Second,
//	        Factor: 2,
//	        Max:    15 * time.Minute,
//	    },
//	}
type ExponentialBackoffStrategy struct {
	// Base is the starting delay (e.g., 30s)
	Base time.Duration
	// Factor is multiplied each iteration (e.g., 2 => 30s, 60s, 120s, ...)
	Factor float64
	// Max is the maximum delay allowed (caps the exponential growth)
	Max time.Duration
}

// SleepDuration implements an exponential backoff with a cap at Max.
func (e ExponentialBackoffStrategy) SleepDuration(attempt int, _ error) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(e.Base) * math.Pow(e.Factor, float64(attempt))
	if time.Duration(delay) > e.Max && e.Max > 0 {
		return e.Max
	}
	return time.Duration(delay)
}

// RetryPolicy bounds how often a job kind is requeued before it is marked
// permanently failed.
type RetryPolicy struct {
	MaxRetries int
	Strategy   RetryStrategy
}

// NextRun computes when a job should run again after its attempt-th
// failure, or false once the budget is exhausted.
func (p RetryPolicy) NextRun(now time.Time, attempt int) (time.Time, bool) {
	if attempt > p.MaxRetries {
		return time.Time{}, false
	}
	strategy := p.Strategy
	if strategy == nil {
		strategy = NoDelayStrategy{}
	}
	return now.Add(strategy.SleepDuration(attempt-1, nil)), true
}
