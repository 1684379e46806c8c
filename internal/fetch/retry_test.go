package fetch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithBackoffSucceedsEventually(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryWithBackoffExhausted(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("always failing")
	attempts := 0
	err := RetryWithBackoff(context.Background(), 2, time.Millisecond, func() error {
		attempts++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("expected last error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (initial + 2 retries)", attempts)
	}
}

func TestRetryWithBackoffPermanent(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("not found")
	attempts := 0
	err := RetryWithBackoff(context.Background(), 5, time.Millisecond, func() error {
		attempts++
		return Permanent(wantErr)
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("expected unwrapped permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on permanent error)", attempts)
	}
}

func TestRetryWithBackoffContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, 3, time.Hour, func() error {
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRetryFixedThirdAttemptSucceeds(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := RetryFixed(context.Background(), 2, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transport failure")
		}
		return nil
	})

	if err != nil {
		t.Errorf("third attempt within retries=2 should succeed, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryFixedExhausted(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("down")
	attempts := 0
	err := RetryFixed(context.Background(), 2, time.Millisecond, func() error {
		attempts++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("expected last error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRateLimiterEnforcesDelay(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(20 * time.Millisecond)

	start := time.Now()
	for range 3 {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	// First call is immediate; the next two must each wait ~20ms.
	if elapsed < 40*time.Millisecond {
		t.Errorf("three calls took %v, want >= 40ms", elapsed)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(0)
	start := time.Now()
	for range 100 {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("disabled limiter should not block, took %v", elapsed)
	}
}
