package user

import (
	"context"
	"strings"
	"sync"
	"time"

	id "fabula/pkg/domain"
)

// InMemoryStore is the development and test store.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]User
	names map[string]id.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users: make(map[id.UserID]User),
		names: make(map[string]id.UserID),
	}
}

func nameKey(name string) string { return strings.ToLower(name) }

func (s *InMemoryStore) Create(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.names[nameKey(u.Name)]; taken {
		return ErrDuplicateName
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = u
	s.names[nameKey(u.Name)] = u.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.names[nameKey(name)]
	if !ok {
		return User{}, ErrNotFound
	}
	return s.users[userID], nil
}

func (s *InMemoryStore) Update(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if nameKey(existing.Name) != nameKey(u.Name) {
		if _, taken := s.names[nameKey(u.Name)]; taken {
			return ErrDuplicateName
		}
		delete(s.names, nameKey(existing.Name))
		s.names[nameKey(u.Name)] = u.ID
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return nil
}

// Delete removes a principal. Used by tests to simulate a subject deleted
// after token issuance.
func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	delete(s.names, nameKey(u.Name))
	delete(s.users, userID)
	return nil
}
