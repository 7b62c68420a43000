package audit

import (
	"context"

	id "fabula/pkg/domain"
)

// Store persists audit events. Implementations must be safe for concurrent
// use; Append is called from request goroutines and the async worker.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
