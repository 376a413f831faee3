package bughound

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyProvider struct {
	failures int
	err      error
	calls    int
}

func (f *flakyProvider) Generate(_ context.Context, _ []Message) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return "ok", nil
}

func testPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestInvokerRetriesTransientFailures(t *testing.T) {
	p := &flakyProvider{failures: 2, err: MarkTransient(errors.New("rate limit exceeded (429)"))}
	inv := NewInvoker(p, testPolicy(4), nil)

	text, err := inv.Invoke(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok" {
		t.Fatalf("text = %q, want ok", text)
	}
	if p.calls != 3 {
		t.Fatalf("calls = %d, want 3", p.calls)
	}
}

func TestInvokerDoesNotRetryPermanentFailures(t *testing.T) {
	p := &flakyProvider{failures: 10, err: errors.New("invalid api key")}
	inv := NewInvoker(p, testPolicy(4), nil)

	_, err := inv.Invoke(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("permanent failure must not be reported as unavailable: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry)", p.calls)
	}
}

func TestInvokerExhaustionWrapsProviderUnavailable(t *testing.T) {
	p := &flakyProvider{failures: 10, err: MarkTransient(errors.New("connection reset"))}
	inv := NewInvoker(p, testPolicy(3), nil)

	_, err := inv.Invoke(context.Background(), nil)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if p.calls != 3 {
		t.Fatalf("calls = %d, want 3", p.calls)
	}
}

func TestInvokerStopsOnContextCancel(t *testing.T) {
	p := &flakyProvider{failures: 10, err: MarkTransient(errors.New("timeout"))}
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	inv := NewInvoker(p, policy, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := inv.Invoke(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("calls = %d, want 1 (cancelled during backoff)", p.calls)
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(MarkTransient(errors.New("x"))) {
		t.Error("marked error should be transient")
	}
	if !IsTransient(context.DeadlineExceeded) {
		t.Error("deadline exceeded should be transient")
	}
	if IsTransient(errors.New("bad request")) {
		t.Error("plain error should not be transient")
	}
	if MarkTransient(nil) != nil {
		t.Error("MarkTransient(nil) should stay nil")
	}
}
