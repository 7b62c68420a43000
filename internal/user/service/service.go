// Package service implements registration, login, principal resolution and
// the OTP verification flow.
package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fabula/internal/user"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
	audit "fabula/pkg/platform/audit"
	"fabula/pkg/platform/audit/publisher"
	"fabula/pkg/platform/middleware/request"
)

const (
	minPasswordLength = 8
	otpTTL            = 10 * time.Minute
	otpDigits         = 6
)

// TokenIssuer mints a bearer credential for a principal.
type TokenIssuer interface {
	Issue(userID id.UserID) (string, error)
}

// Service is the principal-facing application service.
type Service struct {
	users  user.Store
	tokens TokenIssuer
	logger *slog.Logger
	audit  *publisher.Publisher
}

func New(users user.Store, tokens TokenIssuer, logger *slog.Logger, auditPub *publisher.Publisher) *Service {
	return &Service{users: users, tokens: tokens, logger: logger, audit: auditPub}
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, userID id.UserID, subject, reason string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, audit.Event{
		UserID:    userID,
		Subject:   subject,
		Action:    string(event),
		Reason:    reason,
		RequestID: request.GetRequestID(ctx),
	})
}

// Register creates a principal and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, name, password string) (user.User, string, error) {
	if name == "" {
		return user.User{}, "", dErrors.New(dErrors.CodeValidation, "display name required")
	}
	if len(password) < minPasswordLength {
		return user.User{}, "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	u := user.User{
		ID:           id.NewUserID(),
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicateName) {
			return user.User{}, "", dErrors.New(dErrors.CodeNameTaken, "display name already taken")
		}
		return user.User{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return user.User{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logAudit(ctx, audit.EventUserRegistered, u.ID, "", "")
	return u.Sanitized(), tok, nil
}

// Login verifies the credential and returns the principal with a fresh
// token. Unknown names and wrong passwords are indistinguishable to callers.
func (s *Service) Login(ctx context.Context, name, password string) (user.User, string, error) {
	u, err := s.users.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.logAudit(ctx, audit.EventAuthFailed, id.UserID{}, name, "unknown name")
			return user.User{}, "", dErrors.New(dErrors.CodeInvalidCredentials, "invalid name or password")
		}
		return user.User{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.logAudit(ctx, audit.EventAuthFailed, u.ID, "", "password mismatch")
		return user.User{}, "", dErrors.New(dErrors.CodeInvalidCredentials, "invalid name or password")
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return user.User{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return u.Sanitized(), tok, nil
}

// Resolve maps a verified token subject to a stored principal, with the
// credential hash excluded. ErrNotFound covers both "never existed" and
// "deleted since token issuance"; callers treat both identically.
func (s *Service) Resolve(ctx context.Context, userID id.UserID) (user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, dErrors.New(dErrors.CodeUserNotFound, "user not found")
		}
		return user.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve user")
	}
	return u.Sanitized(), nil
}

// RequestOTP issues a one-time passcode for verification or password reset.
// Delivery is an external concern; the code is returned to the caller wiring.
func (s *Service) RequestOTP(ctx context.Context, name string) (string, error) {
	u, err := s.users.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}

	code, err := generateOTP()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate passcode")
	}
	expires := time.Now().UTC().Add(otpTTL)
	u.OTP = code
	u.OTPExpiresAt = &expires
	if err := s.users.Update(ctx, u); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store passcode")
	}
	return code, nil
}

// VerifyOTP consumes a passcode and marks the principal verified.
func (s *Service) VerifyOTP(ctx context.Context, name, code string) (user.User, error) {
	u, err := s.users.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, dErrors.New(dErrors.CodeInvalidOTP, "invalid or expired passcode")
		}
		return user.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}

	expired := u.OTPExpiresAt == nil || time.Now().After(*u.OTPExpiresAt)
	if u.OTP == "" || expired || subtle.ConstantTimeCompare([]byte(u.OTP), []byte(code)) != 1 {
		return user.User{}, dErrors.New(dErrors.CodeInvalidOTP, "invalid or expired passcode")
	}

	u.Verified = true
	u.OTP = ""
	u.OTPExpiresAt = nil
	if err := s.users.Update(ctx, u); err != nil {
		return user.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.logAudit(ctx, audit.EventUserVerified, u.ID, "", "")
	return u.Sanitized(), nil
}

// SetRole grants or revokes the elevated-privilege flag. The actor is
// recorded for the audit trail; authorization happens at the gate.
func (s *Service) SetRole(ctx context.Context, actor, target id.UserID, isAdmin bool) (user.User, error) {
	u, err := s.users.FindByID(ctx, target)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return user.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}

	if u.IsAdmin == isAdmin {
		return u.Sanitized(), nil
	}

	u.IsAdmin = isAdmin
	if err := s.users.Update(ctx, u); err != nil {
		return user.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update role")
	}

	event := audit.Event{
		UserID:    target,
		Action:    string(audit.EventUserRoleChanged),
		Reason:    fmt.Sprintf("isAdmin=%t", isAdmin),
		ActorID:   actor.String(),
		RequestID: request.GetRequestID(ctx),
	}
	if s.audit != nil {
		_ = s.audit.Emit(ctx, event)
	}
	return u.Sanitized(), nil
}

func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}
