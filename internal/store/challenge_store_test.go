package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fwforge/fwportal/internal/model"
)

func TestMemoryStore_PutOverwrites(t *testing.T) {
	s := NewMemoryStore()
	s.Put("a@b.com", model.Challenge{Email: "a@b.com", CodeHash: "h1", Attempts: 4})
	s.Put("a@b.com", model.Challenge{Email: "a@b.com", CodeHash: "h2"})

	ch, ok := s.Get("a@b.com")
	require.True(t, ok)
	require.Equal(t, "h2", ch.CodeHash)
	require.Equal(t, 0, ch.Attempts)
	require.Equal(t, 1, s.Len())
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	s := NewMemoryStore()
	called := false
	_, ok := s.Update("nobody@b.com", func(ch *model.Challenge) bool {
		called = true
		return true
	})
	require.False(t, ok)
	require.False(t, called)
}

func TestMemoryStore_ConcurrentIncrementsNotLost(t *testing.T) {
	s := NewMemoryStore()
	s.Put("a@b.com", model.Challenge{Email: "a@b.com"})

	const workers = 64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			s.Update("a@b.com", func(ch *model.Challenge) bool {
				ch.Attempts++
				return true
			})
		}()
	}
	wg.Wait()

	ch, ok := s.Get("a@b.com")
	require.True(t, ok)
	require.Equal(t, workers, ch.Attempts)
}

func TestMemoryStore_ConcurrentConsumeIsOneShot(t *testing.T) {
	s := NewMemoryStore()
	s.Put("a@b.com", model.Challenge{Email: "a@b.com"})

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	consumed := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, ok := s.Update("a@b.com", func(ch *model.Challenge) bool {
				return false
			})
			if ok {
				consumed <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(consumed)

	require.Len(t, consumed, 1)
	_, ok := s.Get("a@b.com")
	require.False(t, ok)
}

func TestMemoryStore_SweepExpired(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.Put("old@b.com", model.Challenge{Email: "old@b.com", ExpiresAt: now.Add(-time.Minute)})
	s.Put("live@b.com", model.Challenge{Email: "live@b.com", ExpiresAt: now.Add(time.Minute)})

	removed := s.SweepExpired(now)
	require.Equal(t, 1, removed)

	_, ok := s.Get("old@b.com")
	require.False(t, ok)
	_, ok = s.Get("live@b.com")
	require.True(t, ok)
}
