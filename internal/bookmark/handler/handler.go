// Package handler exposes the bookmark endpoints. All of them require an
// authenticated principal.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fabula/internal/bookmark"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
	"fabula/pkg/platform/httputil"
	"fabula/pkg/platform/middleware/auth"
	"fabula/pkg/platform/middleware/request"
)

// Service defines the interface for bookmark operations.
type Service interface {
	Add(ctx context.Context, actor id.UserID, taleID id.TaleID) (bookmark.Bookmark, error)
	Remove(ctx context.Context, actor id.UserID, taleID id.TaleID) error
	List(ctx context.Context, actor id.UserID) ([]bookmark.Bookmark, error)
}

// Handler handles bookmark endpoints.
type Handler struct {
	logger      *slog.Logger
	bookmarks   Service
	requireAuth func(http.Handler) http.Handler
}

// New creates a new bookmark Handler.
func New(bookmarks Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, bookmarks: bookmarks, requireAuth: requireAuth}
}

// Register registers the bookmark routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAuth)
		pr.Get("/bookmarks", h.handleList)
		pr.Post("/folktales/{id}/bookmark", h.handleAdd)
		pr.Delete("/folktales/{id}/bookmark", h.handleRemove)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	marks, err := h.bookmarks.List(ctx, p.ID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list bookmarks")
		return
	}
	if marks == nil {
		marks = []bookmark.Bookmark{}
	}
	httputil.WriteJSON(w, http.StatusOK, "bookmarks", marks)
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

	b, err := h.bookmarks.Add(ctx, p.ID, taleID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to add bookmark")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "bookmark added", b)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
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

	if err := h.bookmarks.Remove(ctx, p.ID, taleID); err != nil {
		h.writeServiceError(ctx, w, err, "failed to remove bookmark")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "bookmark removed", nil)
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
