// Package handler exposes the principal-facing auth endpoints and the admin
// role route.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fabula/internal/platform/metrics"
	"fabula/internal/user"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
	"fabula/pkg/platform/httputil"
	"fabula/pkg/platform/middleware/auth"
	"fabula/pkg/platform/middleware/request"
)

// Service defines the interface for principal operations.
type Service interface {
	Register(ctx context.Context, name, password string) (user.User, string, error)
	Login(ctx context.Context, name, password string) (user.User, string, error)
	Resolve(ctx context.Context, userID id.UserID) (user.User, error)
	RequestOTP(ctx context.Context, name string) (string, error)
	VerifyOTP(ctx context.Context, name, code string) (user.User, error)
	SetRole(ctx context.Context, actor, target id.UserID, isAdmin bool) (user.User, error)
}

// Handler handles auth and user-admin endpoints.
type Handler struct {
	logger       *slog.Logger
	users        Service
	metrics      *metrics.Metrics
	requireAuth  func(http.Handler) http.Handler
	requireAdmin func(http.Handler) http.Handler
}

// New creates a new user Handler.
func New(
	users Service,
	logger *slog.Logger,
	m *metrics.Metrics,
	requireAuth, requireAdmin func(http.Handler) http.Handler,
) *Handler {
	return &Handler{
		logger:       logger,
		users:        users,
		metrics:      m,
		requireAuth:  requireAuth,
		requireAdmin: requireAdmin,
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/otp/request", h.handleRequestOTP)
	r.Post("/auth/otp/verify", h.handleVerifyOTP)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAuth)
		pr.Get("/auth/me", h.handleMe)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(h.requireAuth)
		ar.Use(h.requireAdmin)
		ar.Put("/admin/users/{id}/role", h.handleSetRole)
	})
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type tokenResponse struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	u, tok, err := h.users.Register(ctx, req.Name, req.Password)
	if err != nil {
		h.writeServiceError(ctx, w, err, "registration failed")
		return
	}

	if h.metrics != nil {
		h.metrics.IncrementUsersRegistered()
	}
	httputil.WriteJSON(w, http.StatusCreated, "user registered", tokenResponse{User: u, Token: tok})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	u, tok, err := h.users.Login(ctx, req.Name, req.Password)
	if err != nil {
		h.writeServiceError(ctx, w, err, "login failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "login successful", tokenResponse{User: u, Token: tok})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "principal missing from context despite auth middleware",
			"request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	u, err := h.users.Resolve(ctx, p.ID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to load profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "profile", u)
}

type otpRequest struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

func (h *Handler) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	// The passcode is delivered out of band; the response only acknowledges
	// issuance.
	if _, err := h.users.RequestOTP(ctx, req.Name); err != nil {
		h.writeServiceError(ctx, w, err, "failed to issue passcode")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "passcode issued", nil)
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	u, err := h.users.VerifyOTP(ctx, req.Name, req.Code)
	if err != nil {
		h.writeServiceError(ctx, w, err, "verification failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "user verified", u)
}

type roleRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := auth.GetPrincipal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	target, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	u, err := h.users.SetRole(ctx, actor.ID, target, req.IsAdmin)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to change role")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "role updated", u)
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
