package service

import (
	"context"
	"sync"

	"fabula/internal/bookmark"
	"fabula/internal/comment"
	"fabula/internal/tale"
)

// Stores groups the three stores touched by a cascading delete. When the
// backing implementation is transactional, all three are bound to the same
// transaction.
type Stores struct {
	Tales     tale.Store
	Comments  comment.Store
	Bookmarks bookmark.Store
}

// StoreTx is the transaction boundary for the cascading delete. fn sees a
// store set whose writes either all commit or all roll back.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(stores Stores) error) error
}

// MemoryTx serializes cascading deletes over the in-memory stores with a
// coarse mutex. There is no rollback; atomicity rests on the coordinator
// deleting dependents before the parent, so a dependent failure leaves the
// parent record untouched.
type MemoryTx struct {
	mu     sync.Mutex
	stores Stores
}

func NewMemoryTx(stores Stores) *MemoryTx {
	return &MemoryTx{stores: stores}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.stores)
}
