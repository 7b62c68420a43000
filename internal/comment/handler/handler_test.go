package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"fabula/internal/comment"
	"fabula/internal/comment/service"
	"fabula/internal/tale"
	id "fabula/pkg/domain"
	"fabula/pkg/platform/middleware/auth"
	"fabula/pkg/testutil"
)

func newRouter(t *testing.T, p *auth.Principal) (http.Handler, *tale.InMemoryStore) {
	t.Helper()
	tales := tale.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(comment.NewInMemoryStore(), tales, logger, nil)

	seed := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, testutil.WithPrincipal(r, *p))
		})
	}

	h := New(svc, logger, seed)
	r := chi.NewRouter()
	h.Register(r)
	return r, tales
}

func seedTale(t *testing.T, tales *tale.InMemoryStore) id.TaleID {
	t.Helper()
	f := tale.Folktale{ID: id.NewTaleID(), Title: "The Bremen Town Musicians", Body: "a tale"}
	require.NoError(t, tales.Create(t.Context(), f))
	return f.ID
}

func TestCommentEndpoints(t *testing.T) {
	principal := &auth.Principal{ID: id.NewUserID()}
	router, tales := newRouter(t, principal)
	taleID := seedTale(t, tales)

	t.Run("add", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/folktales/"+taleID.String()+"/comments",
			map[string]string{"body": "wonderful"})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	t.Run("second comment conflicts", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/folktales/"+taleID.String()+"/comments",
			map[string]string{"body": "again"})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "already_commented")
	})

	t.Run("list is public", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/folktales/"+taleID.String()+"/comments")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("unknown tale", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/folktales/"+id.NewTaleID().String()+"/comments",
			map[string]string{"body": "orphan"})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestCommentUpdate_NonAuthorForbidden(t *testing.T) {
	principal := &auth.Principal{ID: id.NewUserID()}
	router, tales := newRouter(t, principal)
	taleID := seedTale(t, tales)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/folktales/"+taleID.String()+"/comments",
		map[string]string{"body": "mine"})
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	created := testutil.UnmarshalResponse[struct {
		Data comment.Comment `json:"data"`
	}](t, rr)

	// A different principal cannot edit the comment.
	principal.ID = id.NewUserID()
	req = testutil.NewJSONRequest(t, http.MethodPut, "/comments/"+created.Data.ID.String(),
		map[string]string{"body": "hijacked"})
	rr = testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
}
