package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func quick() Config {
	return Config{Attempts: 3, Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), quick(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), quick(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("down")
	calls := 0
	err := Do(context.Background(), quick(), func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want last error", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoStopError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("permanent")
	calls := 0
	err := Do(context.Background(), quick(), func() error {
		calls++
		return Stop(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want wrapped error", err)
	}
	var stop *StopError
	if errors.As(err, &stop) {
		t.Fatal("StopError wrapper leaked to caller")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, quick(), func() error {
		t.Fatal("fn ran under cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), Config{}, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
