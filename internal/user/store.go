package user

import (
	"context"
	"errors"

	id "fabula/pkg/domain"
)

var (
	// ErrNotFound covers both "never existed" and "deleted since".
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateName signals the unique display-name constraint.
	ErrDuplicateName = errors.New("display name already taken")
)

// Store persists principals. Principals are never physically deleted by the
// service; stores still expose Delete for operational tooling.
type Store interface {
	Create(ctx context.Context, u User) error
	FindByID(ctx context.Context, userID id.UserID) (User, error)
	FindByName(ctx context.Context, name string) (User, error)
	Update(ctx context.Context, u User) error
}
