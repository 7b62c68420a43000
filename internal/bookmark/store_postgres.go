package bookmark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	id "fabula/pkg/domain"
)

const uniqueViolation = "23505"

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists bookmarks with a (user_id, tale_id) unique index.
type PostgresStore struct {
	db dbtx
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// NewPostgresTx binds the store to an open transaction for the cascading
// delete unit.
func NewPostgresTx(tx *sql.Tx) *PostgresStore { return &PostgresStore{db: tx} }

func (s *PostgresStore) Add(ctx context.Context, b Bookmark) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (id, user_id, tale_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, b.ID.String(), b.UserID.String(), b.TaleID.String(), time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, userID id.UserID, taleID id.TaleID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM bookmarks WHERE user_id = $1 AND tale_id = $2
	`, userID.String(), taleID.String())
	if err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, tale_id, created_at
		FROM bookmarks WHERE user_id = $1 ORDER BY created_at
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []Bookmark
	for rows.Next() {
		var (
			b                     Bookmark
			rawID, userID, taleID string
		)
		if err := rows.Scan(&rawID, &userID, &taleID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		if b.ID, err = id.ParseBookmarkID(rawID); err != nil {
			return nil, err
		}
		if b.UserID, err = id.ParseUserID(userID); err != nil {
			return nil, err
		}
		if b.TaleID, err = id.ParseTaleID(taleID); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return bookmarks, nil
}

func (s *PostgresStore) DeleteByTale(ctx context.Context, taleID id.TaleID) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE tale_id = $1`, taleID.String())
	if err != nil {
		return 0, fmt.Errorf("delete bookmarks by tale: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete bookmarks by tale: %w", err)
	}
	return affected, nil
}
