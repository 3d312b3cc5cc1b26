package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultRunLeaseTTLFallback = 60 * time.Second

type LeaseHandle interface {
	Release(ctx context.Context) error
}

// AccountLocker grants a single-flight lease per account so two overlapping
// runs never race on the same watermark.
type AccountLocker interface {
	Acquire(ctx context.Context, accountID string, ttl time.Duration) (LeaseHandle, error)
}

type MemoryAccountLocker struct {
	mu      sync.Mutex
	locks   map[string]leaseEntry
	lastGen uint64
	nowFn   func() time.Time
}

// leaseEntry fences each acquisition with a generation so a stale handle
// from an expired lease cannot release the holder that replaced it.
type leaseEntry struct {
	until      time.Time
	generation uint64
}

func NewMemoryAccountLocker() *MemoryAccountLocker {
	return &MemoryAccountLocker{
		locks: make(map[string]leaseEntry),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

func (l *MemoryAccountLocker) Acquire(_ context.Context, accountID string, ttl time.Duration) (LeaseHandle, error) {
	if l == nil {
		return nil, fmt.Errorf("core: account locker is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("core: account id is required for lease acquisition")
	}
	if ttl <= 0 {
		ttl = defaultRunLeaseTTLFallback
	}

	now := l.nowFn()
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.locks[accountID]; ok && now.Before(entry.until) {
		return nil, fmt.Errorf("%w: account %q", ErrRunLeaseHeld, accountID)
	}
	l.lastGen++
	l.locks[accountID] = leaseEntry{until: now.Add(ttl), generation: l.lastGen}
	return &memoryLeaseHandle{locker: l, accountID: accountID, generation: l.lastGen}, nil
}

type memoryLeaseHandle struct {
	locker     *MemoryAccountLocker
	accountID  string
	generation uint64
	once       sync.Once
}

func (h *memoryLeaseHandle) Release(_ context.Context) error {
	if h == nil || h.locker == nil {
		return nil
	}
	h.once.Do(func() {
		h.locker.mu.Lock()
		// Only release the acquisition this handle fenced. A handle that
		// outlived its TTL must not unlock the run that replaced it.
		if entry, ok := h.locker.locks[h.accountID]; ok && entry.generation == h.generation {
			delete(h.locker.locks, h.accountID)
		}
		h.locker.mu.Unlock()
	})
	return nil
}
