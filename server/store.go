package server

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/neptuneai/swap-agent/core"
)

// sessionTTL is how long an idle session's state is retained. A quote left
// unconfirmed past this simply expires with its session.
const sessionTTL = 30 * time.Minute

// Store holds per-conversation session state with TTL eviction. It also
// serializes turns per conversation: the confirmation state machine assumes
// no concurrent turn mutates the pending quote between a quote being issued
// and the confirmation being evaluated.
type Store struct {
	cache *ristretto.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a session store.
func NewStore() (*Store, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Store{
		cache: cache,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Get returns the session state for a conversation, or a fresh IDLE state.
func (s *Store) Get(conversationID string) core.SessionState {
	if v, ok := s.cache.Get(conversationID); ok {
		if state, ok := v.(core.SessionState); ok {
			return state
		}
	}
	return core.NewSessionState()
}

// Put stores the session state for a conversation.
func (s *Store) Put(conversationID string, state core.SessionState) {
	s.cache.SetWithTTL(conversationID, state, 1, sessionTTL)
	s.cache.Wait()
}

// Lock returns the per-conversation mutex, creating it on first use.
func (s *Store) Lock(conversationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[conversationID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[conversationID] = l
	return l
}

// Forget drops a conversation's state and lock.
func (s *Store) Forget(conversationID string) {
	s.cache.Del(conversationID)
	s.cache.Wait()
	s.mu.Lock()
	delete(s.locks, conversationID)
	s.mu.Unlock()
}
