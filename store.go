// File: store.go
package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ChallengeStore keeps the expected answer of each issued challenge.
// Take removes the entry whether or not the caller's answer turns out to be right,
// so every challenge gets exactly one attempt.
type ChallengeStore interface {
	Put(ctx context.Context, id, answer string, ttl time.Duration) error
	Take(ctx context.Context, id string) (answer string, ok bool, err error)
}

func newStore(ctx context.Context, cfg StoreConfig) (ChallengeStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return newMemoryStore(ctx, time.Minute), nil
	case "redis":
		return newRedisStore(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

type memoryEntry struct {
	answer  string
	expires time.Time
}

type memoryStore struct {
	mu         sync.Mutex
	challenges map[string]memoryEntry
	now        func() time.Time
}

// newMemoryStore starts a janitor that drops expired entries every interval
// until ctx is done.
func newMemoryStore(ctx context.Context, interval time.Duration) *memoryStore {
	s := &memoryStore{
		challenges: make(map[string]memoryEntry),
		now:        time.Now,
	}
	go s.cleanupLoop(ctx, interval)
	return s
}

func (s *memoryStore) Put(_ context.Context, id, answer string, ttl time.Duration) error {
	s.mu.Lock()
	s.challenges[id] = memoryEntry{answer: answer, expires: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Take(_ context.Context, id string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.challenges[id]
	if !ok {
		return "", false, nil
	}
	delete(s.challenges, id)
	if s.now().After(e.expires) {
		return "", false, nil
	}
	return e.answer, true, nil
}

func (s *memoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

func (s *memoryStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.challenges {
		if now.After(e.expires) {
			delete(s.challenges, id)
		}
	}
}

func (s *memoryStore) cleanupLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.evictExpired()
		}
	}
}
