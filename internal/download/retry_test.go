package download

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryFirstAttemptSucceeds(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Delay: time.Hour}

	start := time.Now()
	attempts, err := p.Run(context.Background(), func(int) error { return nil })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("success on first attempt slept for %v", elapsed)
	}
}

func TestRetryRecoversWithinBudget(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Millisecond}

	calls := 0
	attempts, err := p.Run(context.Background(), func(attempt int) error {
		calls++
		if attempt != calls {
			t.Errorf("attempt number %d on call %d", attempt, calls)
		}
		if attempt < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3", attempts, calls)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}

	boom := errors.New("boom")
	attempts, err := p.Run(context.Background(), func(int) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want last attempt error", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryDelayIsConstant(t *testing.T) {
	const delay = 20 * time.Millisecond
	p := RetryPolicy{MaxAttempts: 3, Delay: delay}

	var stamps []time.Time
	p.Run(context.Background(), func(int) error {
		stamps = append(stamps, time.Now())
		return errors.New("always")
	})

	if len(stamps) != 3 {
		t.Fatalf("got %d attempts", len(stamps))
	}
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		if gap < delay {
			t.Errorf("gap %d = %v, want at least %v", i, gap, delay)
		}
		if gap > 10*delay {
			t.Errorf("gap %d = %v, looks exponential rather than constant", i, gap)
		}
	}
}

func TestRetryStopsWhenContextEnds(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, Delay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	attempts, err := p.Run(ctx, func(int) error { return errors.New("fail") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryZeroValueDefaults(t *testing.T) {
	p := RetryPolicy{}.withDefaults()
	if p.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", p.MaxAttempts)
	}
	if p.Delay != 2*time.Second {
		t.Errorf("Delay = %v, want 2s", p.Delay)
	}
}
