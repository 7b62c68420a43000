// Package service implements per-user folktale bookmarks.
package service

import (
	"context"
	"errors"
	"log/slog"

	"fabula/internal/bookmark"
	"fabula/internal/tale"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
)

// Service is the bookmark application service.
type Service struct {
	bookmarks bookmark.Store
	tales     tale.Store
	logger    *slog.Logger
}

func New(bookmarks bookmark.Store, tales tale.Store, logger *slog.Logger) *Service {
	return &Service{bookmarks: bookmarks, tales: tales, logger: logger}
}

// Add bookmarks a tale for the acting principal.
func (s *Service) Add(ctx context.Context, actor id.UserID, taleID id.TaleID) (bookmark.Bookmark, error) {
	if _, err := s.tales.FindByID(ctx, taleID); err != nil {
		if errors.Is(err, tale.ErrNotFound) {
			return bookmark.Bookmark{}, dErrors.New(dErrors.CodeNotFound, "folktale not found")
		}
		return bookmark.Bookmark{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load folktale")
	}

	b := bookmark.Bookmark{
		ID:     id.NewBookmarkID(),
		UserID: actor,
		TaleID: taleID,
	}
	if err := s.bookmarks.Add(ctx, b); err != nil {
		if errors.Is(err, bookmark.ErrDuplicate) {
			return bookmark.Bookmark{}, dErrors.New(dErrors.CodeAlreadyBookmarked, "folktale already bookmarked")
		}
		return bookmark.Bookmark{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add bookmark")
	}
	return b, nil
}

// Remove drops the acting principal's bookmark on a tale.
func (s *Service) Remove(ctx context.Context, actor id.UserID, taleID id.TaleID) error {
	if err := s.bookmarks.Remove(ctx, actor, taleID); err != nil {
		if errors.Is(err, bookmark.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "bookmark not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove bookmark")
	}
	return nil
}

// List returns the acting principal's bookmarks, oldest first.
func (s *Service) List(ctx context.Context, actor id.UserID) ([]bookmark.Bookmark, error) {
	bookmarks, err := s.bookmarks.ListByUser(ctx, actor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bookmarks")
	}
	return bookmarks, nil
}
