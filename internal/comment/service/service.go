// Package service implements commenting on folktales. One comment per
// (tale, principal) pair; edits are author-only, removal is author-or-admin.
package service

import (
	"context"
	"errors"
	"log/slog"

	"fabula/internal/comment"
	"fabula/internal/tale"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
	audit "fabula/pkg/platform/audit"
	"fabula/pkg/platform/audit/publisher"
	"fabula/pkg/platform/middleware/request"
)

// Service is the comment application service.
type Service struct {
	comments comment.Store
	tales    tale.Store
	logger   *slog.Logger
	audit    *publisher.Publisher
}

func New(comments comment.Store, tales tale.Store, logger *slog.Logger, auditPub *publisher.Publisher) *Service {
	return &Service{comments: comments, tales: tales, logger: logger, audit: auditPub}
}

// Add records the acting principal's comment on a tale.
func (s *Service) Add(ctx context.Context, actor id.UserID, taleID id.TaleID, body string) (comment.Comment, error) {
	if body == "" {
		return comment.Comment{}, dErrors.New(dErrors.CodeValidation, "comment body required")
	}

	if _, err := s.tales.FindByID(ctx, taleID); err != nil {
		if errors.Is(err, tale.ErrNotFound) {
			return comment.Comment{}, dErrors.New(dErrors.CodeNotFound, "folktale not found")
		}
		return comment.Comment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load folktale")
	}

	c := comment.Comment{
		ID:     id.NewCommentID(),
		TaleID: taleID,
		UserID: actor,
		Body:   body,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		if errors.Is(err, comment.ErrDuplicate) {
			return comment.Comment{}, dErrors.New(dErrors.CodeAlreadyCommented, "folktale already commented")
		}
		return comment.Comment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create comment")
	}
	return c, nil
}

// ListByTale returns the comments on a tale, oldest first. A tale with no
// comments, including one that no longer exists, yields an empty list.
func (s *Service) ListByTale(ctx context.Context, taleID id.TaleID) ([]comment.Comment, error) {
	comments, err := s.comments.ListByTale(ctx, taleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list comments")
	}
	return comments, nil
}

// Update replaces the comment body. Only the author may edit.
func (s *Service) Update(ctx context.Context, actor id.UserID, commentID id.CommentID, body string) (comment.Comment, error) {
	if body == "" {
		return comment.Comment{}, dErrors.New(dErrors.CodeValidation, "comment body required")
	}

	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			return comment.Comment{}, dErrors.New(dErrors.CodeNotFound, "comment not found")
		}
		return comment.Comment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load comment")
	}
	if c.UserID != actor {
		return comment.Comment{}, dErrors.New(dErrors.CodeForbidden, "only the author may edit a comment")
	}

	c.Body = body
	if err := s.comments.Update(ctx, c); err != nil {
		return comment.Comment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update comment")
	}
	return s.comments.FindByID(ctx, commentID)
}

// Remove deletes a comment. The author may remove their own; an admin may
// remove any.
func (s *Service) Remove(ctx context.Context, actor id.UserID, isAdmin bool, commentID id.CommentID) error {
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "comment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load comment")
	}
	if c.UserID != actor && !isAdmin {
		return dErrors.New(dErrors.CodeForbidden, "only the author or an admin may remove a comment")
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "comment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove comment")
	}

	if s.audit != nil {
		_ = s.audit.Emit(ctx, audit.Event{
			UserID:    c.UserID,
			Subject:   commentID.String(),
			Action:    string(audit.EventCommentRemoved),
			ActorID:   actor.String(),
			RequestID: request.GetRequestID(ctx),
		})
	}
	return nil
}
