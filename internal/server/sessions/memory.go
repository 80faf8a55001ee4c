package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/akozlovs/gamersnet/internal/common"
	"github.com/akozlovs/gamersnet/internal/server/models"
)

type memoryEntry struct {
	entry   models.SessionEntry
	expires time.Time
}

// MemoryStore is the default in-process Store. A janitor goroutine sweeps
// expired entries periodically; Get also treats an expired entry as absent so
// correctness does not depend on sweep timing.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	done    chan struct{}
	once    sync.Once
}

func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}
	go s.janitor(sweepInterval)
	return s
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*models.SessionEntry, error) {
	s.mu.RLock()
	e, ok := s.entries[token]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expires) {
		return nil, common.ErrorNotFound
	}

	entry := e.entry
	return &entry, nil
}

func (s *MemoryStore) Put(ctx context.Context, token string, entry *models.SessionEntry, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[token] = memoryEntry{entry: *entry, expires: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor goroutine.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	for token, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, token)
		}
	}
	s.mu.Unlock()
}
