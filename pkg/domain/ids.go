// Package domain holds the typed identifiers shared across fabula.
// Typed IDs keep user, tale, comment and bookmark identifiers from being
// mixed up at compile time; parsing enforces the trust-boundary invariant
// that every accepted ID is a valid, non-nil UUID.
package domain

import (
	"github.com/google/uuid"

	dErrors "fabula/pkg/domain-errors"
)

// UserID identifies a registered principal.
type UserID uuid.UUID

// TaleID identifies a folktale.
type TaleID uuid.UUID

// CommentID identifies a comment on a folktale.
type CommentID uuid.UUID

// BookmarkID identifies a bookmark.
type BookmarkID uuid.UUID

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" ID required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" ID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" ID must not be nil")
	}
	return parsed, nil
}

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewTaleID returns a fresh random tale ID.
func NewTaleID() TaleID { return TaleID(uuid.New()) }

// NewCommentID returns a fresh random comment ID.
func NewCommentID() CommentID { return CommentID(uuid.New()) }

// NewBookmarkID returns a fresh random bookmark ID.
func NewBookmarkID() BookmarkID { return BookmarkID(uuid.New()) }

// ParseUserID parses a user ID received at a trust boundary.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user")
	return UserID(parsed), err
}

// ParseTaleID parses a tale ID received at a trust boundary.
func ParseTaleID(raw string) (TaleID, error) {
	parsed, err := parseUUID(raw, "tale")
	return TaleID(parsed), err
}

// ParseCommentID parses a comment ID received at a trust boundary.
func ParseCommentID(raw string) (CommentID, error) {
	parsed, err := parseUUID(raw, "comment")
	return CommentID(parsed), err
}

// ParseBookmarkID parses a bookmark ID received at a trust boundary.
func ParseBookmarkID(raw string) (BookmarkID, error) {
	parsed, err := parseUUID(raw, "bookmark")
	return BookmarkID(parsed), err
}

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id TaleID) String() string     { return uuid.UUID(id).String() }
func (id CommentID) String() string  { return uuid.UUID(id).String() }
func (id BookmarkID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TaleID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CommentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id BookmarkID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
