package comment

import (
	"context"
	"errors"

	id "fabula/pkg/domain"
)

var (
	ErrNotFound = errors.New("comment not found")
	// ErrDuplicate signals the (tale, principal) uniqueness constraint.
	ErrDuplicate = errors.New("user already commented on this tale")
)

// Store persists comments. DeleteByTale participates in the cascading
// delete and must honor a surrounding transaction when bound to one.
type Store interface {
	Create(ctx context.Context, c Comment) error
	FindByID(ctx context.Context, commentID id.CommentID) (Comment, error)
	ListByTale(ctx context.Context, taleID id.TaleID) ([]Comment, error)
	Update(ctx context.Context, c Comment) error
	Delete(ctx context.Context, commentID id.CommentID) error
	DeleteByTale(ctx context.Context, taleID id.TaleID) (int64, error)
}
