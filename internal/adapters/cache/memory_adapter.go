package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter is a process-local CacheProvider used when Redis is disabled
type MemoryAdapter struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryAdapter creates an empty in-process cache
func NewMemoryAdapter() providers.CacheProvider {
	return newMemoryAdapter(time.Now)
}

func newMemoryAdapter(now func() time.Time) *MemoryAdapter {
	return &MemoryAdapter{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	entry, ok := a.entries[key]
	a.mu.RUnlock()

	if !ok || a.expired(entry) {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a copy of value; a non-positive ttl never expires
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = a.now().Add(ttl)
	}

	a.mu.Lock()
	a.entries[key] = entry
	a.sweepLocked()
	a.mu.Unlock()
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	delete(a.entries, key)
	a.mu.Unlock()
	return nil
}

// Len counts live entries
func (a *MemoryAdapter) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := 0
	for _, e := range a.entries {
		if !a.expired(e) {
			n++
		}
	}
	return n
}

func (a *MemoryAdapter) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !a.now().Before(e.expiresAt)
}

// sweepLocked drops expired entries so the map does not grow without bound.
func (a *MemoryAdapter) sweepLocked() {
	for k, e := range a.entries {
		if a.expired(e) {
			delete(a.entries, k)
		}
	}
}
