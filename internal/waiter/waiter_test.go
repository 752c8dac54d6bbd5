package waiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kompox/localdev/domain/model"
)

func TestPoll_ReadyAfterRetries(t *testing.T) {
	clk := NewFakeClock(time.Unix(0, 0))
	calls := 0
	got, err := Poll(context.Background(), clk.Options(time.Minute, time.Second), func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if got != model.Ready {
		t.Errorf("Poll() = %v, want Ready", got)
	}
	if diff := cmp.Diff([]time.Duration{time.Second, 2 * time.Second}, clk.Sleeps); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
}

func TestPoll_TimedOut(t *testing.T) {
	clk := NewFakeClock(time.Unix(0, 0))
	got, err := Poll(context.Background(), clk.Options(10*time.Second, time.Second), func(ctx context.Context) (bool, error) {
		return false, errors.New("transient")
	})
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if got != model.TimedOut {
		t.Errorf("Poll() = %v, want TimedOut", got)
	}
	var total time.Duration
	for _, d := range clk.Sleeps {
		total += d
	}
	if total > 10*time.Second {
		t.Errorf("slept %s beyond the 10s timeout", total)
	}
}

func TestPoll_StopAbortsImmediately(t *testing.T) {
	clk := NewFakeClock(time.Unix(0, 0))
	boom := errors.New("forbidden")
	calls := 0
	_, err := Poll(context.Background(), clk.Options(time.Minute, time.Second), func(ctx context.Context) (bool, error) {
		calls++
		return false, Stop(boom)
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Poll() error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("condition called %d times, want 1", calls)
	}
}

func TestPoll_ContextCanceled(t *testing.T) {
	clk := NewFakeClock(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Poll(ctx, clk.Options(time.Minute, time.Second), func(ctx context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Poll() error = %v, want context.Canceled", err)
	}
}
