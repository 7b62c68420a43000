// Package auth implements the authentication gate. The core is a plain
// function returning a tagged result; the middleware is a thin shell that
// writes the classified failure or attaches the principal to the request
// context for the lifetime of the request. Nothing is cached across requests.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fabula/internal/token"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
	"fabula/pkg/platform/httputil"
	"fabula/pkg/platform/middleware/request"
)

// Principal is the resolved identity attached to authenticated requests.
// It never carries the credential hash.
type Principal struct {
	ID       id.UserID
	Name     string
	IsAdmin  bool
	Verified bool
}

// TokenVerifier checks a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(raw string) (id.UserID, error)
}

// PrincipalResolver maps a verified subject to a stored principal.
// Implementations return a dErrors.CodeUserNotFound coded error for both
// never-existed and deleted-since-issuance subjects.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID id.UserID) (Principal, error)
}

// FailureCounter observes classified authentication failures, by wire code.
type FailureCounter interface {
	IncAuthFailure(code string)
}

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for tests that seed an authenticated context.
var ContextKeyPrincipal = contextKeyPrincipal{}

// GetPrincipal retrieves the authenticated principal from the context.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(Principal)
	return p, ok
}

// WithPrincipal returns a context carrying the principal. Used by the
// middleware and by tests.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

const bearerPrefix = "Bearer "

// Authenticate validates the Authorization header value and resolves the
// principal. Every failure is a coded error matching the gate's contract:
//
//	no_auth_header, empty_token, server_config_error, invalid_token,
//	token_expired, invalid_token_payload, user_not_found, server_error
func Authenticate(ctx context.Context, authHeader string, verifier TokenVerifier, resolver PrincipalResolver) (Principal, error) {
	raw, ok := strings.CutPrefix(authHeader, bearerPrefix)
	if !ok {
		return Principal{}, dErrors.New(dErrors.CodeNoAuthHeader, "missing or malformed Authorization header")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Principal{}, dErrors.New(dErrors.CodeEmptyToken, "empty bearer token")
	}

	subject, err := verifier.Verify(raw)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrNoSecret):
			return Principal{}, dErrors.Wrap(err, dErrors.CodeServerConfig, "signing secret not configured")
		case errors.Is(err, token.ErrTokenExpired):
			return Principal{}, dErrors.New(dErrors.CodeTokenExpired, "token has expired")
		case errors.Is(err, token.ErrMissingSubject):
			return Principal{}, dErrors.New(dErrors.CodeInvalidTokenPayload, "token payload missing subject")
		default:
			return Principal{}, dErrors.New(dErrors.CodeInvalidToken, "invalid token")
		}
	}

	principal, err := resolver.ResolvePrincipal(ctx, subject)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUserNotFound) {
			return Principal{}, err
		}
		return Principal{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve principal")
	}
	return principal, nil
}

// RequireAuth gates protected routes. On success the resolved principal is
// available to downstream handlers via GetPrincipal for this request only.
func RequireAuth(verifier TokenVerifier, resolver PrincipalResolver, logger *slog.Logger, failures FailureCounter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal, err := Authenticate(ctx, r.Header.Get("Authorization"), verifier, resolver)
			if err != nil {
				code := dErrors.CodeOf(err)
				if failures != nil {
					failures.IncAuthFailure(string(code))
				}
				requestID := request.GetRequestID(ctx)
				if dErrors.ToHTTPStatus(code) >= http.StatusInternalServerError {
					logger.ErrorContext(ctx, "authentication gate failure",
						"error", err,
						"code", code,
						"request_id", requestID,
					)
				} else {
					logger.WarnContext(ctx, "unauthorized access",
						"code", code,
						"request_id", requestID,
					)
				}
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}
