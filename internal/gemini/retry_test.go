package gemini

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("googleapi: Error 429: rate limit exceeded"), true},
		{"server error", errors.New("rpc error: code 503 service unavailable"), true},
		{"network", errors.New("read tcp: connection reset by peer"), true},
		{"timeout", errors.New("context deadline exceeded (Client.Timeout)"), true},
		{"bad request", errors.New("googleapi: Error 400: invalid argument"), false},
		{"auth failure", errors.New("API key not valid"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryableError(tt.err); got != tt.want {
				t.Errorf("retryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

	calls := 0
	got, err := withRetry(context.Background(), cfg, discardLogger(), "test", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("503 service unavailable")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("withRetry: %v", err)
	}
	if got != "ok" {
		t.Errorf("result = %q, want %q", got, "ok")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	cfg := DefaultRetryConfig()

	calls := 0
	permanent := errors.New("400 invalid argument")
	_, err := withRetry(context.Background(), cfg, discardLogger(), "test", func(context.Context) (string, error) {
		calls++
		return "", permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_ExhaustsRetries(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

	calls := 0
	_, err := withRetry(context.Background(), cfg, discardLogger(), "test", func(context.Context) (string, error) {
		calls++
		return "", errors.New("rate limit exceeded")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", calls)
	}
}

func TestWithRetry_ContextCanceledDuringBackoff(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialInterval: time.Minute, MaxInterval: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := withRetry(ctx, cfg, discardLogger(), "test", func(context.Context) (string, error) {
		return "", errors.New("503 unavailable")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
