package dialogue

import (
	"context"
	"sync"
	"time"
)

// Store holds at most one offer per user. Put replaces any existing offer.
// Get returns nil without error when the user is idle.
type Store interface {
	Get(ctx context.Context, userID string) (*PendingOffer, error)
	Put(ctx context.Context, userID string, offer PendingOffer) error
	Clear(ctx context.Context, userID string) error
}

type memoryEntry struct {
	offer   PendingOffer
	expires time.Time
}

// MemoryStore keeps offers in process memory. A zero ttl keeps entries until
// they are cleared or replaced.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*PendingOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	if !ok {
		return nil, nil
	}
	if !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		delete(s.entries, userID)
		return nil, nil
	}
	offer := entry.offer
	return &offer, nil
}

func (s *MemoryStore) Put(ctx context.Context, userID string, offer PendingOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{offer: offer}
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}
	s.entries[userID] = entry
	s.sweepLocked()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}

// Len counts live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.entries)
}

func (s *MemoryStore) sweepLocked() {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	for user, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, user)
		}
	}
}
