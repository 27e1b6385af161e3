package store

import (
	"slices"
	"sync"
	"time"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
)

// AccountEntry owns the simulator of one account. Mu serializes every call
// into Sim; a Simulator is single-writer.
type AccountEntry struct {
	Key       string
	Sim       *engine.Simulator
	CreatedAt time.Time
	Mu        sync.Mutex
}

// AccountStore is a thread-safe in-memory registry of accounts,
// keyed by account key.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*AccountEntry
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*AccountEntry),
	}
}

// Create adds an account to the store. It returns
// domain.ErrAccountAlreadyExists if an account with the same key
// already exists.
func (s *AccountStore) Create(e *AccountEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[e.Key]; exists {
		return domain.ErrAccountAlreadyExists
	}
	s.accounts[e.Key] = e
	return nil
}

// GetOrCreate returns the account with key, creating it with newFn when it
// does not exist yet. The boolean reports whether it was created.
func (s *AccountStore) GetOrCreate(key string, newFn func() *AccountEntry) (*AccountEntry, bool) {
	s.mu.RLock()
	e, ok := s.accounts[key]
	s.mu.RUnlock()
	if ok {
		return e, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.accounts[key]; ok {
		return e, false
	}
	e = newFn()
	s.accounts[key] = e
	return e, true
}

// Get retrieves an account by key. It returns
// domain.ErrAccountNotFound if the account does not exist.
func (s *AccountStore) Get(key string) (*AccountEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.accounts[key]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return e, nil
}

// Exists returns true if an account with the given key exists.
func (s *AccountStore) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[key]
	return ok
}

// Keys returns every account key in sorted order.
func (s *AccountStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.accounts))
	for k := range s.accounts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of accounts.
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
