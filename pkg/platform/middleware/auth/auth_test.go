package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabula/internal/token"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
)

type stubResolver struct {
	principals map[id.UserID]Principal
	err        error
}

func (s *stubResolver) ResolvePrincipal(_ context.Context, userID id.UserID) (Principal, error) {
	if s.err != nil {
		return Principal{}, s.err
	}
	p, ok := s.principals[userID]
	if !ok {
		return Principal{}, dErrors.New(dErrors.CodeUserNotFound, "user not found")
	}
	return p, nil
}

type countingFailures struct {
	codes []string
}

func (c *countingFailures) IncAuthFailure(code string) { c.codes = append(c.codes, code) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGate(t *testing.T, resolver *stubResolver, failures FailureCounter) (http.Handler, *token.Codec, *bool) {
	t.Helper()
	codec, err := token.NewCodec("gate-secret", time.Hour)
	require.NoError(t, err)

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	return RequireAuth(codec, resolver, testLogger(), failures)(next), codec, &reached
}

func doGet(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestRequireAuth_NoHeader(t *testing.T) {
	handler, _, reached := newGate(t, &stubResolver{}, nil)

	w := doGet(handler, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "no_auth_header", errorCode(t, w))
	assert.False(t, *reached)
}

func TestRequireAuth_WrongScheme(t *testing.T) {
	handler, _, reached := newGate(t, &stubResolver{}, nil)

	w := doGet(handler, "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "no_auth_header", errorCode(t, w))
	assert.False(t, *reached)
}

func TestRequireAuth_EmptyToken(t *testing.T) {
	handler, _, reached := newGate(t, &stubResolver{}, nil)

	w := doGet(handler, "Bearer ")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "empty_token", errorCode(t, w))
	assert.False(t, *reached)
}

func TestRequireAuth_TamperedToken(t *testing.T) {
	handler, _, reached := newGate(t, &stubResolver{}, nil)

	other, err := token.NewCodec("different-secret", time.Hour)
	require.NoError(t, err)
	raw, err := other.Issue(id.NewUserID())
	require.NoError(t, err)

	w := doGet(handler, "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_token", errorCode(t, w))
	assert.False(t, *reached)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	resolver := &stubResolver{}
	handler, _, reached := newGate(t, resolver, nil)

	// Token whose expiresAt is already in the past, signature still valid.
	past := time.Now().Add(-2 * time.Second)
	expiredIssuer, err := token.NewCodec("gate-secret", time.Second, token.WithClock(func() time.Time { return past }))
	require.NoError(t, err)
	raw, err := expiredIssuer.Issue(id.NewUserID())
	require.NoError(t, err)

	w := doGet(handler, "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_expired", errorCode(t, w))
	assert.False(t, *reached)
}

func TestRequireAuth_SubjectDeletedSinceIssuance(t *testing.T) {
	resolver := &stubResolver{principals: map[id.UserID]Principal{}}
	handler, codec, reached := newGate(t, resolver, nil)

	raw, err := codec.Issue(id.NewUserID())
	require.NoError(t, err)

	w := doGet(handler, "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "user_not_found", errorCode(t, w))
	assert.False(t, *reached)
}

func TestRequireAuth_ResolverInfrastructureFailure(t *testing.T) {
	resolver := &stubResolver{err: errors.New("datastore unreachable")}
	failures := &countingFailures{}
	handler, codec, reached := newGate(t, resolver, failures)

	raw, err := codec.Issue(id.NewUserID())
	require.NoError(t, err)

	w := doGet(handler, "Bearer "+raw)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "server_error", errorCode(t, w))
	assert.False(t, *reached)
	assert.Equal(t, []string{"server_error"}, failures.codes)
}

func TestRequireAuth_Success(t *testing.T) {
	userID := id.NewUserID()
	resolver := &stubResolver{principals: map[id.UserID]Principal{
		userID: {ID: userID, Name: "Aesop", IsAdmin: false},
	}}

	codec, err := token.NewCodec("gate-secret", time.Hour)
	require.NoError(t, err)

	var seen Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		require.True(t, ok)
		seen = p
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(codec, resolver, testLogger(), nil)(next)

	raw, err := codec.Issue(userID)
	require.NoError(t, err)

	w := doGet(handler, "Bearer "+raw)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, seen.ID)
	assert.Equal(t, "Aesop", seen.Name)
}

func TestAuthenticate_MissingSubjectPayload(t *testing.T) {
	codec, err := token.NewCodec("gate-secret", time.Hour)
	require.NoError(t, err)

	_, err = Authenticate(context.Background(), "Bearer "+missingSubjectToken(t), codec, &stubResolver{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTokenPayload))
}

// missingSubjectToken signs a token with the gate secret but no subject.
func missingSubjectToken(t *testing.T) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("gate-secret"))
	require.NoError(t, err)
	return raw
}

func TestRequireAuth_FailureCounterPerCode(t *testing.T) {
	failures := &countingFailures{}
	handler, _, _ := newGate(t, &stubResolver{}, failures)

	doGet(handler, "")
	doGet(handler, "Bearer ")

	assert.Equal(t, []string{"no_auth_header", "empty_token"}, failures.codes)
}
