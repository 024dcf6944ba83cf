package core

import (
	"context"
	"fmt"
	"sync"
)

// MemoryAssetLocker serializes operations per asset id within one process.
// Waiters give up when their context is done.
type MemoryAssetLocker struct {
	mu    sync.Mutex
	locks map[AssetID]*assetLockEntry
}

type assetLockEntry struct {
	sem  chan struct{}
	refs int
}

func NewMemoryAssetLocker() *MemoryAssetLocker {
	return &MemoryAssetLocker{
		locks: make(map[AssetID]*assetLockEntry),
	}
}

func (l *MemoryAssetLocker) Acquire(ctx context.Context, id AssetID) (LockHandle, error) {
	if l == nil {
		return nil, fmt.Errorf("core: asset locker is not configured")
	}
	if id == "" {
		return nil, fmt.Errorf("core: asset id is required for lock acquisition")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &assetLockEntry{sem: make(chan struct{}, 1)}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return &memoryAssetLockHandle{locker: l, id: id, entry: entry}, nil
	case <-ctx.Done():
		l.release(id, entry)
		return nil, fmt.Errorf("core: lock wait for asset %q: %w", id, ctx.Err())
	}
}

func (l *MemoryAssetLocker) release(id AssetID, entry *assetLockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs <= 0 {
		delete(l.locks, id)
	}
}

func (l *MemoryAssetLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

type memoryAssetLockHandle struct {
	locker *MemoryAssetLocker
	id     AssetID
	entry  *assetLockEntry
	once   sync.Once
}

func (h *memoryAssetLockHandle) Unlock(_ context.Context) error {
	if h == nil || h.locker == nil || h.entry == nil {
		return nil
	}
	h.once.Do(func() {
		<-h.entry.sem
		h.locker.release(h.id, h.entry)
	})
	return nil
}
