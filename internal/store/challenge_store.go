package store

import (
	"sync"
	"time"

	"github.com/fwforge/fwportal/internal/model"
)

// ChallengeStore maps an email to its single pending verification
// challenge. Implementations must keep concurrent submits and resends
// for the same email linearizable: an attempt increment is never lost
// and a deleted challenge is never observed as present.
type ChallengeStore interface {
	Put(email string, ch model.Challenge)
	Get(email string) (model.Challenge, bool)
	// Update runs fn on the stored challenge under the store lock.
	// fn returns false to consume (remove) the entry. The returned
	// snapshot reflects the state after fn ran.
	Update(email string, fn func(ch *model.Challenge) bool) (model.Challenge, bool)
	Delete(email string)
	SweepExpired(now time.Time) int
}

type MemoryStore struct {
	mu    sync.Mutex
	items map[string]model.Challenge
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]model.Challenge)}
}

func (s *MemoryStore) Put(email string, ch model.Challenge) {
	s.mu.Lock()
	s.items[email] = ch
	s.mu.Unlock()
}

func (s *MemoryStore) Get(email string) (model.Challenge, bool) {
	s.mu.Lock()
	ch, ok := s.items[email]
	s.mu.Unlock()
	return ch, ok
}

func (s *MemoryStore) Update(email string, fn func(ch *model.Challenge) bool) (model.Challenge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.items[email]
	if !ok {
		return model.Challenge{}, false
	}
	if fn(&ch) {
		s.items[email] = ch
	} else {
		delete(s.items, email)
	}
	return ch, true
}

func (s *MemoryStore) Delete(email string) {
	s.mu.Lock()
	delete(s.items, email)
	s.mu.Unlock()
}

// SweepExpired drops challenges past their expiry so abandoned requests
// do not accumulate. Expiry is still enforced on every lookup; the sweep
// only bounds memory.
func (s *MemoryStore) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for email, ch := range s.items {
		if now.After(ch.ExpiresAt) {
			delete(s.items, email)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
