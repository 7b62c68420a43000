package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	id "fabula/pkg/domain"
)

// uniqueViolation is the SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// PostgresStore persists principals in PostgreSQL via database/sql with the
// pgx stdlib driver.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *PostgresStore) Create(ctx context.Context, u User) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, password_hash, is_admin, verified, otp_code, otp_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, u.ID.String(), u.Name, u.PasswordHash, u.IsAdmin, u.Verified, nullString(u.OTP), u.OTPExpiresAt, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, userID.String()))
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, selectUser+` WHERE lower(name) = lower($1)`, name))
}

func (s *PostgresStore) Update(ctx context.Context, u User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, password_hash = $3, is_admin = $4, verified = $5,
		    otp_code = $6, otp_expires_at = $7, updated_at = $8
		WHERE id = $1
	`, u.ID.String(), u.Name, u.PasswordHash, u.IsAdmin, u.Verified, nullString(u.OTP), u.OTPExpiresAt, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectUser = `
	SELECT id, name, password_hash, is_admin, verified, otp_code, otp_expires_at, created_at, updated_at
	FROM users`

func (s *PostgresStore) scanOne(row *sql.Row) (User, error) {
	var (
		u      User
		rawID  string
		otp    sql.NullString
		otpExp sql.NullTime
	)
	err := row.Scan(&rawID, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.Verified, &otp, &otpExp, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	u.ID, err = id.ParseUserID(rawID)
	if err != nil {
		return User{}, fmt.Errorf("scan user id: %w", err)
	}
	if otp.Valid {
		u.OTP = otp.String
	}
	if otpExp.Valid {
		t := otpExp.Time
		u.OTPExpiresAt = &t
	}
	return u, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
