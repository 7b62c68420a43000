package tale

import (
	"context"
	"errors"

	id "fabula/pkg/domain"
)

var (
	// ErrNotFound signals the tale does not exist (or no longer exists).
	ErrNotFound = errors.New("tale not found")
	// ErrDuplicateRating signals the (tale, principal) uniqueness
	// constraint; the storage layer enforces it, not a check-then-write.
	ErrDuplicateRating = errors.New("tale already rated by this user")
)

// Store persists folktales and their embedded ratings.
type Store interface {
	Create(ctx context.Context, f Folktale) error
	FindByID(ctx context.Context, taleID id.TaleID) (Folktale, error)
	List(ctx context.Context) ([]Folktale, error)
	Update(ctx context.Context, f Folktale) error
	Delete(ctx context.Context, taleID id.TaleID) error
	AddRating(ctx context.Context, taleID id.TaleID, r Rating) error
}
