package bookmark

import (
	"context"
	"errors"

	id "fabula/pkg/domain"
)

var (
	ErrNotFound = errors.New("bookmark not found")
	// ErrDuplicate signals the (principal, tale) uniqueness constraint.
	ErrDuplicate = errors.New("tale already bookmarked by this user")
)

// Store persists bookmarks. DeleteByTale participates in the cascading
// delete and must honor a surrounding transaction when bound to one.
type Store interface {
	Add(ctx context.Context, b Bookmark) error
	Remove(ctx context.Context, userID id.UserID, taleID id.TaleID) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Bookmark, error)
	DeleteByTale(ctx context.Context, taleID id.TaleID) (int64, error)
}
