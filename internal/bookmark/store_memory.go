package bookmark

import (
	"context"
	"sort"
	"sync"
	"time"

	id "fabula/pkg/domain"
)

type pairKey struct {
	user id.UserID
	tale id.TaleID
}

// InMemoryStore is the development and test store.
type InMemoryStore struct {
	mu        sync.RWMutex
	bookmarks map[pairKey]Bookmark
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{bookmarks: make(map[pairKey]Bookmark)}
}

func (s *InMemoryStore) Add(_ context.Context, b Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{user: b.UserID, tale: b.TaleID}
	if _, exists := s.bookmarks[key]; exists {
		return ErrDuplicate
	}
	b.CreatedAt = time.Now().UTC()
	s.bookmarks[key] = b
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, userID id.UserID, taleID id.TaleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{user: userID, tale: taleID}
	if _, ok := s.bookmarks[key]; !ok {
		return ErrNotFound
	}
	delete(s.bookmarks, key)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Bookmark
	for key, b := range s.bookmarks {
		if key.user == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) DeleteByTale(_ context.Context, taleID id.TaleID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key := range s.bookmarks {
		if key.tale == taleID {
			delete(s.bookmarks, key)
			removed++
		}
	}
	return removed, nil
}
