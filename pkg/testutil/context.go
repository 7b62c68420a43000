package testutil

import (
	"net/http"

	id "fabula/pkg/domain"
	authmw "fabula/pkg/platform/middleware/auth"
)

// WithPrincipal attaches an authenticated principal to the request context,
// simulating what the authentication gate does for protected routes.
func WithPrincipal(req *http.Request, p authmw.Principal) *http.Request {
	return req.WithContext(authmw.WithPrincipal(req.Context(), p))
}

// WithUser attaches a minimal non-admin principal with the given user ID.
// Invalid IDs leave the request unauthenticated.
func WithUser(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return WithPrincipal(req, authmw.Principal{ID: parsed})
}

// WithAdmin attaches an admin principal with a fresh user ID.
func WithAdmin(req *http.Request) *http.Request {
	return WithPrincipal(req, authmw.Principal{ID: id.NewUserID(), IsAdmin: true})
}
