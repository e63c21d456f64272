package gateway

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func newTestGateway(opts ...Option) *Gateway {
	base := []Option{
		WithBackoffIntervals(time.Millisecond, 5*time.Millisecond),
		WithCallTimeout(time.Second),
	}
	return New("test", append(base, opts...)...)
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	g := newTestGateway()

	calls := 0
	err := g.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if g.State() != StateClosed {
		t.Errorf("state = %v, want closed", g.State())
	}
}

func TestDo_RetriesTransientFailures(t *testing.T) {
	g := newTestGateway()

	calls := 0
	err := g.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return NewHTTPError("fetch", http.StatusBadGateway, errors.New("upstream down"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_StopsAtAttemptLimit(t *testing.T) {
	g := newTestGateway(WithMaxAttempts(3), WithBreaker(100, time.Minute))

	calls := 0
	err := g.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		return NewHTTPError("fetch", http.StatusServiceUnavailable, errors.New("still down"))
	})
	if err == nil {
		t.Fatal("Do() succeeded, want error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_NoRetryOnPermanentError(t *testing.T) {
	g := newTestGateway()

	calls := 0
	wantErr := NewHTTPError("fetch", http.StatusNotFound, errors.New("no such resource"))
	err := g.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		return wantErr
	})

	var depErr *DependencyError
	if !errors.As(err, &depErr) || depErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Do() error = %v, want 404 DependencyError", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", calls)
	}
}

func TestDo_CircuitOpensAfterThreshold(t *testing.T) {
	g := newTestGateway(WithMaxAttempts(1), WithBreaker(2, time.Minute))

	fail := func(ctx context.Context) error {
		return NewHTTPError("fetch", http.StatusInternalServerError, errors.New("boom"))
	}
	for i := 0; i < 2; i++ {
		if err := g.Do(context.Background(), "fetch", fail); err == nil {
			t.Fatal("expected failure")
		}
	}
	if g.State() != StateOpen {
		t.Fatalf("state = %v, want open", g.State())
	}

	calls := 0
	err := g.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Do() error = %v, want ErrCircuitOpen", err)
	}
	if calls != 0 {
		t.Errorf("dependency was called %d times while open", calls)
	}
}

func TestDo_HalfOpenProbeRecovers(t *testing.T) {
	g := newTestGateway(WithMaxAttempts(1), WithBreaker(1, 10*time.Millisecond))

	fail := func(ctx context.Context) error {
		return NewHTTPError("fetch", http.StatusInternalServerError, errors.New("boom"))
	}
	if err := g.Do(context.Background(), "fetch", fail); err == nil {
		t.Fatal("expected failure")
	}
	if g.State() != StateOpen {
		t.Fatalf("state = %v, want open", g.State())
	}

	time.Sleep(20 * time.Millisecond)

	err := g.Do(context.Background(), "fetch", func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if g.State() != StateClosed {
		t.Errorf("state = %v, want closed after successful probe", g.State())
	}
}

func TestDo_FailedProbeReopens(t *testing.T) {
	g := newTestGateway(WithMaxAttempts(1), WithBreaker(1, 10*time.Millisecond))

	fail := func(ctx context.Context) error {
		return NewHTTPError("fetch", http.StatusInternalServerError, errors.New("boom"))
	}
	if err := g.Do(context.Background(), "fetch", fail); err == nil {
		t.Fatal("expected failure")
	}

	time.Sleep(20 * time.Millisecond)

	if err := g.Do(context.Background(), "fetch", fail); err == nil {
		t.Fatal("expected probe failure")
	}
	if g.State() != StateOpen {
		t.Errorf("state = %v, want open after failed probe", g.State())
	}
}

func TestDoWithResult(t *testing.T) {
	g := newTestGateway()

	got, err := DoWithResult(context.Background(), g, "fetch", func(ctx context.Context) ([]string, error) {
		return []string{"SU26238RMFS4"}, nil
	})
	if err != nil {
		t.Fatalf("DoWithResult() error = %v", err)
	}
	if len(got) != 1 || got[0] != "SU26238RMFS4" {
		t.Errorf("DoWithResult() = %v", got)
	}
}

func TestDo_ContextCancelStopsRetrying(t *testing.T) {
	g := newTestGateway(WithMaxAttempts(50), WithBreaker(100, time.Minute),
		WithBackoffIntervals(50*time.Millisecond, 100*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := g.Do(ctx, "fetch", func(ctx context.Context) error {
		calls++
		return NewHTTPError("fetch", http.StatusBadGateway, errors.New("down"))
	})
	if err == nil {
		t.Fatal("Do() succeeded, want error")
	}
	if calls > 3 {
		t.Errorf("calls = %d, want retries cut off by cancel", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"500", NewHTTPError("op", 500, errors.New("x")), true},
		{"429", NewHTTPError("op", 429, errors.New("x")), true},
		{"404", NewHTTPError("op", 404, errors.New("x")), false},
		{"400", NewHTTPError("op", 400, errors.New("x")), false},
		{"deadline", context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBreaker_HalfOpenAdmitsSingleProbe(t *testing.T) {
	b := NewBreaker(1, 5*time.Millisecond)
	b.onFailure()
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	time.Sleep(10 * time.Millisecond)

	if !b.allow() {
		t.Fatal("first probe rejected")
	}
	if b.allow() {
		t.Error("second caller admitted while probe in flight")
	}
	b.onSuccess()
	if !b.allow() {
		t.Error("closed breaker rejected call")
	}
}
