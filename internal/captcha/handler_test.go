package captcha

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshopflow/internal/logger"
)

func newRouter(reg *Registry) http.Handler {
	h := NewHandler(reg)
	r := chi.NewRouter()
	r.Post("/api/captcha", h.Open)
	r.Post("/api/captcha/{id}/refresh", h.Refresh)
	return r
}

func TestHandler_OpenAndRefresh(t *testing.T) {
	reg := NewRegistry(time.Minute, &scripted{draws: draw(3, 4, Add)}, logger.Discard(), nil)
	router := newRouter(reg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/captcha", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var opened ChallengeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	assert.Equal(t, "What is 3 + 4?", opened.Question)
	assert.NotContains(t, rec.Body.String(), `"7"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/captcha/"+opened.ID+"/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshed ChallengeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.Equal(t, opened.ID, refreshed.ID)
	assert.Greater(t, refreshed.Challenge.Serial, opened.Challenge.Serial)
}

func TestHandler_RefreshUnknown(t *testing.T) {
	router := newRouter(NewRegistry(time.Minute, nil, logger.Discard(), nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/captcha/nope/refresh", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "CAPTCHA_SESSION_NOT_FOUND")
}
