package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryAssetLocker_SerializesSameID(t *testing.T) {
	locker := NewMemoryAssetLocker()
	var (
		active  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle, err := locker.Acquire(context.Background(), "asset1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			current := active.Add(1)
			for {
				seen := maxSeen.Load()
				if current <= seen || maxSeen.CompareAndSwap(seen, current) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			_ = handle.Unlock(context.Background())
		}()
	}
	wg.Wait()
	if maxSeen.Load() != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen.Load())
	}
	if locker.size() != 0 {
		t.Fatalf("expected lock entries to be released, got %d", locker.size())
	}
}

func TestMemoryAssetLocker_ContextCancelWhileWaiting(t *testing.T) {
	locker := NewMemoryAssetLocker()
	handle, err := locker.Acquire(context.Background(), "asset1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := locker.Acquire(ctx, "asset1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if locker.size() != 1 {
		t.Fatalf("expected waiter to release its reference, got %d entries", locker.size())
	}

	if err := handle.Unlock(context.Background()); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := handle.Unlock(context.Background()); err != nil {
		t.Fatalf("second unlock: %v", err)
	}
	if locker.size() != 0 {
		t.Fatalf("expected entry cleanup, got %d", locker.size())
	}

	again, err := locker.Acquire(context.Background(), "asset1")
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	_ = again.Unlock(context.Background())
}

func TestMemoryAssetLocker_IndependentIDs(t *testing.T) {
	locker := NewMemoryAssetLocker()
	first, err := locker.Acquire(context.Background(), "asset1")
	if err != nil {
		t.Fatalf("acquire first: %v", err)
	}
	defer func() { _ = first.Unlock(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	second, err := locker.Acquire(ctx, "asset2")
	if err != nil {
		t.Fatalf("acquire second: %v", err)
	}
	_ = second.Unlock(context.Background())
}

func TestMemoryAssetLocker_RejectsEmptyID(t *testing.T) {
	if _, err := NewMemoryAssetLocker().Acquire(context.Background(), " "); err == nil {
		t.Fatalf("expected empty id rejection")
	}
}
