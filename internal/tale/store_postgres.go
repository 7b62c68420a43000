package tale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	id "fabula/pkg/domain"
)

const uniqueViolation = "23505"

// dbtx abstracts *sql.DB and *sql.Tx so the same store runs standalone or
// inside the cascading-delete transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists folktales in PostgreSQL. Tags are stored as a
// text[] column; ratings live in a child table with a (tale_id, user_id)
// unique index.
type PostgresStore struct {
	db dbtx
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// NewPostgresTx binds the store to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore { return &PostgresStore{db: tx} }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *PostgresStore) Create(ctx context.Context, f Folktale) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tales (id, title, region, body, tags, image_url, audio_url, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, f.ID.String(), f.Title, f.Region, f.Body, pq.Array(f.Tags), f.ImageURL, f.AudioURL,
		f.CreatedBy.String(), f.UpdatedBy.String(), now)
	if err != nil {
		return fmt.Errorf("create tale: %w", err)
	}
	return nil
}

const selectTale = `
	SELECT id, title, region, body, tags, image_url, audio_url, created_by, updated_by, created_at, updated_at
	FROM tales`

func (s *PostgresStore) FindByID(ctx context.Context, taleID id.TaleID) (Folktale, error) {
	f, err := scanTale(s.db.QueryRowContext(ctx, selectTale+` WHERE id = $1`, taleID.String()))
	if err != nil {
		return Folktale{}, err
	}
	ratings, err := s.listRatings(ctx, taleID)
	if err != nil {
		return Folktale{}, err
	}
	f.Ratings = ratings
	return f, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Folktale, error) {
	rows, err := s.db.QueryContext(ctx, selectTale+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tales: %w", err)
	}
	defer rows.Close()

	var tales []Folktale
	for rows.Next() {
		f, err := scanTaleRows(rows)
		if err != nil {
			return nil, err
		}
		tales = append(tales, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tales: %w", err)
	}
	return tales, nil
}

func (s *PostgresStore) Update(ctx context.Context, f Folktale) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tales
		SET title = $2, region = $3, body = $4, tags = $5, image_url = $6, audio_url = $7,
		    updated_by = $8, updated_at = $9
		WHERE id = $1
	`, f.ID.String(), f.Title, f.Region, f.Body, pq.Array(f.Tags), f.ImageURL, f.AudioURL,
		f.UpdatedBy.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update tale: %w", err)
	}
	return requireAffected(res, "update tale")
}

func (s *PostgresStore) Delete(ctx context.Context, taleID id.TaleID) error {
	// Ratings are embedded in the tale's lifecycle; they go with it.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ratings WHERE tale_id = $1`, taleID.String()); err != nil {
		return fmt.Errorf("delete ratings: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM tales WHERE id = $1`, taleID.String())
	if err != nil {
		return fmt.Errorf("delete tale: %w", err)
	}
	return requireAffected(res, "delete tale")
}

func (s *PostgresStore) AddRating(ctx context.Context, taleID id.TaleID, r Rating) error {
	if _, err := s.FindByID(ctx, taleID); err != nil {
		return err
	}
	ratedAt := r.RatedAt
	if ratedAt.IsZero() {
		ratedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ratings (tale_id, user_id, value, rated_at)
		VALUES ($1, $2, $3, $4)
	`, taleID.String(), r.UserID.String(), r.Value, ratedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRating
		}
		return fmt.Errorf("add rating: %w", err)
	}
	return nil
}

func (s *PostgresStore) listRatings(ctx context.Context, taleID id.TaleID) ([]Rating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, value, rated_at FROM ratings WHERE tale_id = $1 ORDER BY rated_at
	`, taleID.String())
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []Rating
	for rows.Next() {
		var (
			r      Rating
			rawUID string
		)
		if err := rows.Scan(&rawUID, &r.Value, &r.RatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		r.UserID, err = id.ParseUserID(rawUID)
		if err != nil {
			return nil, fmt.Errorf("scan rating user: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInto(row scanner) (Folktale, error) {
	var (
		f                           Folktale
		rawID, createdBy, updatedBy string
		tags                        pq.StringArray
	)
	err := row.Scan(&rawID, &f.Title, &f.Region, &f.Body, &tags, &f.ImageURL, &f.AudioURL,
		&createdBy, &updatedBy, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return Folktale{}, err
	}
	f.Tags = []string(tags)
	if f.ID, err = id.ParseTaleID(rawID); err != nil {
		return Folktale{}, fmt.Errorf("scan tale id: %w", err)
	}
	if f.CreatedBy, err = id.ParseUserID(createdBy); err != nil {
		return Folktale{}, fmt.Errorf("scan tale creator: %w", err)
	}
	if f.UpdatedBy, err = id.ParseUserID(updatedBy); err != nil {
		return Folktale{}, fmt.Errorf("scan tale updater: %w", err)
	}
	return f, nil
}

func scanTale(row *sql.Row) (Folktale, error) {
	f, err := scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Folktale{}, ErrNotFound
		}
		return Folktale{}, fmt.Errorf("scan tale: %w", err)
	}
	return f, nil
}

func scanTaleRows(rows *sql.Rows) (Folktale, error) {
	f, err := scanInto(rows)
	if err != nil {
		return Folktale{}, fmt.Errorf("scan tale: %w", err)
	}
	return f, nil
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
