package service

import (
	"context"
	"database/sql"
	"time"

	"fabula/internal/bookmark"
	"fabula/internal/comment"
	"fabula/internal/tale"
	dErrors "fabula/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// PostgresTx runs the cascading delete inside a single database
// transaction: the tale, comment and bookmark stores handed to fn are all
// bound to the same *sql.Tx, so a failure anywhere rolls the whole unit
// back.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stores := Stores{
		Tales:     tale.NewPostgresTx(tx),
		Comments:  comment.NewPostgresTx(tx),
		Bookmarks: bookmark.NewPostgresTx(tx),
	}
	if err := fn(stores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
