package tale

import (
	"context"
	"sort"
	"sync"
	"time"

	id "fabula/pkg/domain"
)

// InMemoryStore is the development and test store.
type InMemoryStore struct {
	mu    sync.RWMutex
	tales map[id.TaleID]Folktale
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tales: make(map[id.TaleID]Folktale)}
}

func copyTale(f Folktale) Folktale {
	f.Tags = append([]string(nil), f.Tags...)
	f.Ratings = append([]Rating(nil), f.Ratings...)
	return f
}

func (s *InMemoryStore) Create(_ context.Context, f Folktale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	s.tales[f.ID] = copyTale(f)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, taleID id.TaleID) (Folktale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.tales[taleID]
	if !ok {
		return Folktale{}, ErrNotFound
	}
	return copyTale(f), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Folktale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Folktale, 0, len(s.tales))
	for _, f := range s.tales {
		out = append(out, copyTale(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, f Folktale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tales[f.ID]
	if !ok {
		return ErrNotFound
	}
	f.CreatedAt = existing.CreatedAt
	f.Ratings = existing.Ratings
	f.UpdatedAt = time.Now().UTC()
	s.tales[f.ID] = copyTale(f)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, taleID id.TaleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tales[taleID]; !ok {
		return ErrNotFound
	}
	delete(s.tales, taleID)
	return nil
}

func (s *InMemoryStore) AddRating(_ context.Context, taleID id.TaleID, r Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.tales[taleID]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range f.Ratings {
		if existing.UserID == r.UserID {
			return ErrDuplicateRating
		}
	}
	if r.RatedAt.IsZero() {
		r.RatedAt = time.Now().UTC()
	}
	f.Ratings = append(f.Ratings, r)
	s.tales[taleID] = f
	return nil
}
