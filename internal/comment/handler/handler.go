// Package handler exposes the comment endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fabula/internal/comment"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
	"fabula/pkg/platform/httputil"
	"fabula/pkg/platform/middleware/auth"
	"fabula/pkg/platform/middleware/request"
)

// Service defines the interface for comment operations.
type Service interface {
	Add(ctx context.Context, actor id.UserID, taleID id.TaleID, body string) (comment.Comment, error)
	ListByTale(ctx context.Context, taleID id.TaleID) ([]comment.Comment, error)
	Update(ctx context.Context, actor id.UserID, commentID id.CommentID, body string) (comment.Comment, error)
	Remove(ctx context.Context, actor id.UserID, isAdmin bool, commentID id.CommentID) error
}

// Handler handles comment endpoints.
type Handler struct {
	logger      *slog.Logger
	comments    Service
	requireAuth func(http.Handler) http.Handler
}

// New creates a new comment Handler.
func New(comments Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, comments: comments, requireAuth: requireAuth}
}

// Register registers the comment routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/folktales/{id}/comments", h.handleList)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAuth)
		pr.Post("/folktales/{id}/comments", h.handleAdd)
		pr.Put("/comments/{id}", h.handleUpdate)
		pr.Delete("/comments/{id}", h.handleRemove)
	})
}

type commentRequest struct {
	Body string `json:"body"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	taleID, err := id.ParseTaleID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid folktale id"))
		return
	}

	comments, err := h.comments.ListByTale(r.Context(), taleID)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to list comments")
		return
	}
	if comments == nil {
		comments = []comment.Comment{}
	}
	httputil.WriteJSON(w, http.StatusOK, "comments", comments)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	taleID, err := id.ParseTaleID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid folktale id"))
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.comments.Add(ctx, p.ID, taleID, req.Body)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to add comment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "comment added", c)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	commentID, err := id.ParseCommentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid comment id"))
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.comments.Update(ctx, p.ID, commentID, req.Body)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to update comment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "comment updated", c)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	commentID, err := id.ParseCommentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid comment id"))
		return
	}

	if err := h.comments.Remove(ctx, p.ID, p.IsAdmin, commentID); err != nil {
		h.writeServiceError(ctx, w, err, "failed to remove comment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "comment removed", nil)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	code := dErrors.CodeOf(err)
	if dErrors.ToHTTPStatus(code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", request.GetRequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, msg,
			"code", code,
			"request_id", request.GetRequestID(ctx))
	}
	httputil.WriteError(w, err)
}
