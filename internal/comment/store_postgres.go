package comment

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

// PostgresStore persists comments with a (tale_id, user_id) unique index.
type PostgresStore struct {
	db dbtx
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// NewPostgresTx binds the store to an open transaction for the cascading
// delete unit.
func NewPostgresTx(tx *sql.Tx) *PostgresStore { return &PostgresStore{db: tx} }

func (s *PostgresStore) Create(ctx context.Context, c Comment) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, tale_id, user_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, c.ID.String(), c.TaleID.String(), c.UserID.String(), c.Body, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

const selectComment = `
	SELECT id, tale_id, user_id, body, created_at, updated_at
	FROM comments`

func (s *PostgresStore) FindByID(ctx context.Context, commentID id.CommentID) (Comment, error) {
	c, err := scan(s.db.QueryRowContext(ctx, selectComment+` WHERE id = $1`, commentID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, fmt.Errorf("find comment: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListByTale(ctx context.Context, taleID id.TaleID) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, selectComment+` WHERE tale_id = $1 ORDER BY created_at`, taleID.String())
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

func (s *PostgresStore) Update(ctx context.Context, c Comment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE comments SET body = $2, updated_at = $3 WHERE id = $1
	`, c.ID.String(), c.Body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, commentID id.CommentID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID.String())
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByTale(ctx context.Context, taleID id.TaleID) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE tale_id = $1`, taleID.String())
	if err != nil {
		return 0, fmt.Errorf("delete comments by tale: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete comments by tale: %w", err)
	}
	return affected, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Comment, error) {
	var (
		c                     Comment
		rawID, taleID, userID string
	)
	if err := row.Scan(&rawID, &taleID, &userID, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Comment{}, err
	}
	var err error
	if c.ID, err = id.ParseCommentID(rawID); err != nil {
		return Comment{}, err
	}
	if c.TaleID, err = id.ParseTaleID(taleID); err != nil {
		return Comment{}, err
	}
	if c.UserID, err = id.ParseUserID(userID); err != nil {
		return Comment{}, err
	}
	return c, nil
}
