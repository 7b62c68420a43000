// Package handler exposes the folktale endpoints, including the admin-only
// cascading delete route.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fabula/internal/tale"
	"fabula/internal/tale/service"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
	"fabula/pkg/platform/httputil"
	"fabula/pkg/platform/middleware/auth"
	"fabula/pkg/platform/middleware/request"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks

// Service defines the interface for folktale operations.
type Service interface {
	Create(ctx context.Context, actor id.UserID, in service.CreateInput) (tale.Folktale, error)
	Get(ctx context.Context, taleID id.TaleID) (tale.Folktale, error)
	List(ctx context.Context) ([]tale.Folktale, error)
	Update(ctx context.Context, actor id.UserID, taleID id.TaleID, in service.CreateInput) (tale.Folktale, error)
	Rate(ctx context.Context, actor id.UserID, taleID id.TaleID, value int) (tale.Folktale, error)
	Delete(ctx context.Context, actor id.UserID, taleID id.TaleID) error
}

// Handler handles folktale endpoints.
type Handler struct {
	logger       *slog.Logger
	tales        Service
	requireAuth  func(http.Handler) http.Handler
	requireAdmin func(http.Handler) http.Handler
}

// New creates a new tale Handler.
func New(
	tales Service,
	logger *slog.Logger,
	requireAuth, requireAdmin func(http.Handler) http.Handler,
) *Handler {
	return &Handler{
		logger:       logger,
		tales:        tales,
		requireAuth:  requireAuth,
		requireAdmin: requireAdmin,
	}
}

// Register registers the folktale routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/folktales", h.handleList)
	r.Get("/folktales/{id}", h.handleGet)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAuth)
		pr.Post("/folktales", h.handleCreate)
		pr.Put("/folktales/{id}", h.handleUpdate)
		pr.Post("/folktales/{id}/rating", h.handleRate)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(h.requireAuth)
		ar.Use(h.requireAdmin)
		ar.Delete("/admin/folktales/{id}", h.handleDelete)
	})
}

type taleRequest struct {
	Title    string   `json:"title"`
	Region   string   `json:"region"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags"`
	ImageURL string   `json:"imageUrl"`
	AudioURL string   `json:"audioUrl"`
}

func (req taleRequest) input() service.CreateInput {
	return service.CreateInput{
		Title:    req.Title,
		Region:   req.Region,
		Body:     req.Body,
		Tags:     req.Tags,
		ImageURL: req.ImageURL,
		AudioURL: req.AudioURL,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tales, err := h.tales.List(r.Context())
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to list folktales")
		return
	}
	if tales == nil {
		tales = []tale.Folktale{}
	}
	httputil.WriteJSON(w, http.StatusOK, "folktales", tales)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	taleID, err := id.ParseTaleID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid folktale id"))
		return
	}

	f, err := h.tales.Get(r.Context(), taleID)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to load folktale")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "folktale", f)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req taleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	f, err := h.tales.Create(ctx, p.ID, req.input())
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to create folktale")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "folktale created", f)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
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

	var req taleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	f, err := h.tales.Update(ctx, p.ID, taleID, req.input())
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to update folktale")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "folktale updated", f)
}

type ratingRequest struct {
	Value int `json:"value"`
}

func (h *Handler) handleRate(w http.ResponseWriter, r *http.Request) {
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

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	f, err := h.tales.Rate(ctx, p.ID, taleID, req.Value)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to rate folktale")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "folktale rated", f)
}

type deletedTale struct {
	ID string `json:"id"`
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.tales.Delete(ctx, p.ID, taleID); err != nil {
		h.writeServiceError(ctx, w, err, "failed to delete folktale")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "folktale deleted", deletedTale{ID: taleID.String()})
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
