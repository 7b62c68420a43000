// Package admin implements the authorization gate. It composes after the
// authentication gate and keeps "not who you say you are" (401) distinct
// from "you are who you say, but not authorized" (403).
package admin

import (
	"log/slog"
	"net/http"

	dErrors "fabula/pkg/domain-errors"
	"fabula/pkg/platform/httputil"
	"fabula/pkg/platform/middleware/auth"
	"fabula/pkg/platform/middleware/request"
)

// RequireAdmin gates privileged routes. It must be mounted after
// auth.RequireAuth; a missing principal is a defensive 401, a principal
// without the elevated-privilege flag is a 403.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal, ok := auth.GetPrincipal(ctx)
			if !ok {
				logger.ErrorContext(ctx, "principal missing despite auth middleware",
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeAuthRequired, "authentication required"))
				return
			}

			if !principal.IsAdmin {
				logger.WarnContext(ctx, "admin access denied",
					"user_id", principal.ID.String(),
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeAdminAccessDenied, "administrator access required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
