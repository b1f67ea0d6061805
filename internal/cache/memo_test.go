package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemo_SingleFlight(t *testing.T) {
	m := New[string, int]()

	var calls atomic.Int32
	produce := func(ctx context.Context) (int, error) {
		calls.Add(1)
		time.Sleep(30 * time.Millisecond) // Give every goroutine time to pile up
		return 42, nil
	}

	const n = 50
	results := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := m.GetOrCompute(context.Background(), "fp-1", produce)
			if err != nil {
				t.Errorf("GetOrCompute failed: %v", err)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("producer ran %d times, want exactly 1", got)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("caller %d got %d, want 42", i, v)
		}
	}
}

func TestMemo_ReadyEntryReturnsImmediately(t *testing.T) {
	m := New[string, string]()

	var calls atomic.Int32
	produce := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "bars", nil
	}

	for i := 0; i < 3; i++ {
		v, err := m.GetOrCompute(context.Background(), "fp", produce)
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
		if v != "bars" {
			t.Fatalf("call %d = %q, want %q", i, v, "bars")
		}
	}

	if calls.Load() != 1 {
		t.Errorf("producer ran %d times, want 1", calls.Load())
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestMemo_DistinctKeysDoNotBlock(t *testing.T) {
	m := New[string, int]()

	slowStarted := make(chan struct{})
	slowRelease := make(chan struct{})

	go m.GetOrCompute(context.Background(), "slow", func(ctx context.Context) (int, error) {
		close(slowStarted)
		<-slowRelease
		return 1, nil
	})

	<-slowStarted

	// A different key must complete while "slow" is still in flight.
	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := m.GetOrCompute(context.Background(), "fast", func(ctx context.Context) (int, error) {
			return 2, nil
		})
		if err != nil || v != 2 {
			t.Errorf("fast key got (%d, %v), want (2, nil)", v, err)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fast key blocked behind an unrelated in-flight computation")
	}
	close(slowRelease)
}

func TestMemo_FailureIsNotCached(t *testing.T) {
	m := New[string, int]()

	var calls atomic.Int32
	boom := errors.New("backend down")
	produce := func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, boom
		}
		return 7, nil
	}

	if _, err := m.GetOrCompute(context.Background(), "fp", produce); !errors.Is(err, boom) {
		t.Fatalf("first call error = %v, want %v", err, boom)
	}
	if m.Len() != 0 {
		t.Fatalf("failed entry should be removed, Len() = %d", m.Len())
	}

	v, err := m.GetOrCompute(context.Background(), "fp", produce)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if v != 7 {
		t.Errorf("retry = %d, want 7", v)
	}
	if calls.Load() != 2 {
		t.Errorf("producer ran %d times, want 2", calls.Load())
	}
}

func TestMemo_FailurePropagatesToAllWaiters(t *testing.T) {
	m := New[string, int]()

	boom := errors.New("no data source")
	started := make(chan struct{})
	release := make(chan struct{})

	const waiters = 5
	errs := make(chan error, waiters+1)

	go func() {
		_, err := m.GetOrCompute(context.Background(), "fp", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 0, boom
		})
		errs <- err
	}()

	<-started
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.GetOrCompute(context.Background(), "fp", func(ctx context.Context) (int, error) {
				t.Error("waiter must not re-run the in-flight producer")
				return 0, nil
			})
			errs <- err
		}()
	}

	time.Sleep(50 * time.Millisecond) // Let every waiter attach to the entry
	close(release)
	wg.Wait()

	for i := 0; i < waiters+1; i++ {
		if err := <-errs; !errors.Is(err, boom) {
			t.Errorf("waiter error = %v, want %v", err, boom)
		}
	}
}

func TestMemo_WaiterHonorsContext(t *testing.T) {
	m := New[string, int]()

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go m.GetOrCompute(context.Background(), "fp", func(ctx context.Context) (int, error) {
		close(started)
		<-release
		return 1, nil
	})

	<-started
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.GetOrCompute(ctx, "fp", func(ctx context.Context) (int, error) {
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled waiter error = %v, want context.Canceled", err)
	}
}

func BenchmarkMemo_Hit(b *testing.B) {
	m := New[string, int]()
	produce := func(ctx context.Context) (int, error) { return 42, nil }
	m.GetOrCompute(context.Background(), "fp", produce)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.GetOrCompute(context.Background(), "fp", produce)
	}
}
