package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fabula/internal/tale"
	"fabula/internal/tale/handler/mocks"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
	"fabula/pkg/platform/httputil"
	"fabula/pkg/platform/middleware/admin"
	"fabula/pkg/platform/middleware/auth"
)

func seedPrincipal(p auth.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

func newTestRouter(t *testing.T, svc Service, p auth.Principal) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(svc, logger, seedPrincipal(p), admin.RequireAdmin(logger))
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func decodeError(t *testing.T, body *bytes.Buffer) httputil.ErrorResponse {
	t.Helper()
	var resp httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestDelete_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	adminUser := auth.Principal{ID: id.NewUserID(), IsAdmin: true}
	router := newTestRouter(t, svc, adminUser)

	taleID := id.NewTaleID()
	svc.EXPECT().Delete(gomock.Any(), adminUser.ID, taleID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/admin/folktales/"+taleID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Message string `json:"message"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "folktale deleted", resp.Message)
	assert.Equal(t, taleID.String(), resp.Data.ID)
}

func TestDelete_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	adminUser := auth.Principal{ID: id.NewUserID(), IsAdmin: true}
	router := newTestRouter(t, svc, adminUser)

	taleID := id.NewTaleID()
	svc.EXPECT().Delete(gomock.Any(), adminUser.ID, taleID).
		Return(dErrors.New(dErrors.CodeNotFound, "folktale not found"))

	req := httptest.NewRequest(http.MethodDelete, "/admin/folktales/"+taleID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec.Body).Error)
}

func TestDelete_MalformedID(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	adminUser := auth.Principal{ID: id.NewUserID(), IsAdmin: true}
	router := newTestRouter(t, svc, adminUser)

	// No service expectation: a malformed id never reaches the coordinator.
	req := httptest.NewRequest(http.MethodDelete, "/admin/folktales/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", decodeError(t, rec.Body).Error)
}

func TestDelete_NonAdminRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	regular := auth.Principal{ID: id.NewUserID(), IsAdmin: false}
	router := newTestRouter(t, svc, regular)

	req := httptest.NewRequest(http.MethodDelete, "/admin/folktales/"+id.NewTaleID().String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin_access_denied", decodeError(t, rec.Body).Error)
}

func TestCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	author := auth.Principal{ID: id.NewUserID()}
	router := newTestRouter(t, svc, author)

	created := tale.Folktale{ID: id.NewTaleID(), Title: "The Selkie", Body: "from the sea"}
	svc.EXPECT().
		Create(gomock.Any(), author.ID, gomock.Any()).
		Return(created, nil)

	body := bytes.NewBufferString(`{"title":"The Selkie","body":"from the sea"}`)
	req := httptest.NewRequest(http.MethodPost, "/folktales", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreate_InvalidBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	router := newTestRouter(t, svc, auth.Principal{ID: id.NewUserID()})

	req := httptest.NewRequest(http.MethodPost, "/folktales", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	router := newTestRouter(t, svc, auth.Principal{ID: id.NewUserID()})

	taleID := id.NewTaleID()
	svc.EXPECT().Get(gomock.Any(), taleID).
		Return(tale.Folktale{ID: taleID, Title: "Found"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/folktales/"+taleID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRate_DuplicateMapsToConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	rater := auth.Principal{ID: id.NewUserID()}
	router := newTestRouter(t, svc, rater)

	taleID := id.NewTaleID()
	svc.EXPECT().Rate(gomock.Any(), rater.ID, taleID, 5).
		Return(tale.Folktale{}, dErrors.New(dErrors.CodeAlreadyRated, "folktale already rated"))

	body := bytes.NewBufferString(`{"value":5}`)
	req := httptest.NewRequest(http.MethodPost, "/folktales/"+taleID.String()+"/rating", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_rated", decodeError(t, rec.Body).Error)
}
