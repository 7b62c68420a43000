package comment

import (
	"context"
	"sort"
	"sync"
	"time"

	id "fabula/pkg/domain"
)

type pairKey struct {
	tale id.TaleID
	user id.UserID
}

// InMemoryStore is the development and test store.
type InMemoryStore struct {
	mu       sync.RWMutex
	comments map[id.CommentID]Comment
	pairs    map[pairKey]id.CommentID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		comments: make(map[id.CommentID]Comment),
		pairs:    make(map[pairKey]id.CommentID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, c Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{tale: c.TaleID, user: c.UserID}
	if _, exists := s.pairs[key]; exists {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.comments[c.ID] = c
	s.pairs[key] = c.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, commentID id.CommentID) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[commentID]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *InMemoryStore) ListByTale(_ context.Context, taleID id.TaleID) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Comment
	for _, c := range s.comments {
		if c.TaleID == taleID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, c Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.comments[c.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Body = c.Body
	existing.UpdatedAt = time.Now().UTC()
	s.comments[c.ID] = existing
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, commentID id.CommentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[commentID]
	if !ok {
		return ErrNotFound
	}
	delete(s.pairs, pairKey{tale: c.TaleID, user: c.UserID})
	delete(s.comments, commentID)
	return nil
}

func (s *InMemoryStore) DeleteByTale(_ context.Context, taleID id.TaleID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for commentID, c := range s.comments {
		if c.TaleID == taleID {
			delete(s.pairs, pairKey{tale: c.TaleID, user: c.UserID})
			delete(s.comments, commentID)
			removed++
		}
	}
	return removed, nil
}
