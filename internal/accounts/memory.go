package accounts

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Account)}
}

func (s *MemoryStore) Get(_ context.Context, email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.docs[email]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (s *MemoryStore) Create(_ context.Context, acct Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[acct.Email]; ok {
		return ErrExists
	}
	s.docs[acct.Email] = acct
	return nil
}

func (s *MemoryStore) TouchLogin(_ context.Context, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.docs[email]
	if !ok {
		return ErrNotFound
	}
	acct.LastLogin = at
	s.docs[email] = acct
	return nil
}
