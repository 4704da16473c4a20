package scheduler

import (
	"testing"
	"time"
)

func TestExponentialBackoffGrowthAndCap(t *testing.T) {
	strategy := ExponentialBackoffStrategy{
		Base:   30 * time.Second,
		Factor: 2,
		Max:    15 * time.Minute,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 30 * time.Second},
		{1, 60 * time.Second},
		{2, 120 * time.Second},
		{3, 240 * time.Second},
		{4, 480 * time.Second},
		{5, 15 * time.Minute},
		{10, 15 * time.Minute},
		{-1, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := strategy.SleepDuration(tc.attempt, nil); got != tc.want {
			t.Fatalf("attempt %d: expected %s, got %s", tc.attempt, tc.want, got)
		}
	}
}

func TestNoDelayStrategy(t *testing.T) {
	if got := (NoDelayStrategy{}).SleepDuration(5, nil); got != 0 {
		t.Fatalf("expected zero delay, got %s", got)
	}
}

func TestRetryPolicyNextRun(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	policy := RetryPolicy{
		MaxRetries: 3,
		Strategy:   ExponentialBackoffStrategy{Base: 30 * time.Second, Factor: 2, Max: 15 * time.Minute},
	}

	at, ok := policy.NextRun(now, 1)
	if !ok {
		t.Fatal("first retry must be allowed")
	}
	if want := now.Add(30 * time.Second); !at.Equal(want) {
		t.Fatalf("expected %s, got %s", want, at)
	}

	at, ok = policy.NextRun(now, 3)
	if !ok {
		t.Fatal("retry within budget must be allowed")
	}
	if want := now.Add(120 * time.Second); !at.Equal(want) {
		t.Fatalf("expected %s, got %s", want, at)
	}

	if _, ok := policy.NextRun(now, 4); ok {
		t.Fatal("retry past the budget must be refused")
	}
}

func TestRetryPolicyNilStrategyRequeuesImmediately(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	policy := RetryPolicy{MaxRetries: 1}

	at, ok := policy.NextRun(now, 1)
	if !ok || !at.Equal(now) {
		t.Fatalf("expected immediate requeue, got %s ok=%v", at, ok)
	}
}
