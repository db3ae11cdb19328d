package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the fallback used when Redis is unreachable.  It only works
// for a single server instance.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

type memEntry struct {
	Challenge
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry), now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, phone, hash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = memEntry{Challenge: Challenge{Hash: hash}, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, phone string) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(phone)
	if !ok {
		return Challenge{}, ErrNotFound
	}
	return e.Challenge, nil
}

func (s *MemoryStore) IncrAttempts(_ context.Context, phone string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(phone)
	if !ok {
		return 0, ErrNotFound
	}
	e.Attempts++
	s.entries[phone] = e
	return e.Attempts, nil
}

func (s *MemoryStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, phone)
	return nil
}

// live returns the entry if present and unexpired.  Caller holds mu.
func (s *MemoryStore) live(phone string) (memEntry, bool) {
	e, ok := s.entries[phone]
	if !ok {
		return memEntry{}, false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, phone)
		return memEntry{}, false
	}
	return e, true
}
