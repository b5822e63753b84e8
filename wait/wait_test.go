package wait

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestForImmediateSuccess(t *testing.T) {
	calls := 0
	err := For(context.Background(), time.Second, time.Millisecond, func() (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (checked once immediately)", calls)
	}
}

func TestForEventualSuccess(t *testing.T) {
	calls := 0
	err := For(context.Background(), time.Second, time.Millisecond, func() (bool, error) {
		calls++
		return calls >= 3, nil
	})
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestForTimeout(t *testing.T) {
	err := For(context.Background(), 20*time.Millisecond, 5*time.Millisecond, func() (bool, error) {
		return false, nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("For error = %v, want ErrTimeout", err)
	}
}

func TestForConditionError(t *testing.T) {
	boom := errors.New("boom")
	err := For(context.Background(), time.Second, time.Millisecond, func() (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("For error = %v, want condition error propagated", err)
	}
}

func TestForContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := For(ctx, time.Second, time.Millisecond, func() (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("For error = %v, want context.Canceled", err)
	}
}
