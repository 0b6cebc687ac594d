package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshopflow/internal/captcha"
	"workshopflow/internal/chat"
	"workshopflow/internal/config"
	"workshopflow/internal/kvstore"
	"workshopflow/internal/logger"
	"workshopflow/internal/membership"
	"workshopflow/internal/metrics"
	myMiddleware "workshopflow/internal/middleware"
	"workshopflow/internal/user"
)

func newTestServer(t *testing.T) (*httptest.Server, kvstore.Store) {
	t.Helper()
	return newTestServerWith(t, &config.Config{CorsOrigins: []string{"http://localhost:5173"}},
		myMiddleware.NewRateLimiter(100, 100, time.Hour, logger.Discard()))
}

func newTestServerWith(t *testing.T, cfg *config.Config, limiter *myMiddleware.RateLimiter) (*httptest.Server, kvstore.Store) {
	t.Helper()
	log := logger.Discard()
	store := kvstore.NewMemory()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	captchaRegistry := captcha.NewRegistry(time.Minute, nil, log, m)
	userService := user.NewService(user.NewRepository(store), "test-secret", time.Hour, log, m)
	threadStore := chat.NewThreadStore(store, log, m)
	threadStore.Load(t.Context())

	srv := httptest.NewServer(newRouter(routerDeps{
		cfg:          cfg,
		registry:     reg,
		captcha:      captcha.NewHandler(captchaRegistry),
		users:        user.NewHandler(userService, captchaRegistry),
		auth:         myMiddleware.NewAuthMiddleware(userService),
		loginLimiter: limiter,
		chat:         chat.NewHandler(threadStore),
		membership:   membership.NewHandler(membership.NewService(store, 0, log, m)),
	}))
	t.Cleanup(srv.Close)
	return srv, store
}

func call(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func solve(c captcha.Challenge) string {
	switch c.Operator {
	case captcha.Add:
		return fmt.Sprint(c.OperandA + c.OperandB)
	case captcha.Subtract:
		return fmt.Sprint(c.OperandA - c.OperandB)
	}
	return fmt.Sprint(c.OperandA * c.OperandB)
}

func TestFullFlow(t *testing.T) {
	srv, store := newTestServer(t)

	assert.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.URL+"/health", "", nil, nil))

	status := call(t, http.MethodPost, srv.URL+"/api/register", "", map[string]string{
		"email": "alice@example.com", "password": "hunter22", "fullName": "Alice",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var ch captcha.ChallengeResponse
	require.Equal(t, http.StatusCreated, call(t, http.MethodPost, srv.URL+"/api/captcha", "", nil, &ch))

	var login user.LoginResult
	status = call(t, http.MethodPost, srv.URL+"/api/login", "", map[string]string{
		"email": "alice@example.com", "password": "hunter22", "role": "student",
		"captcha_id": ch.ID, "captcha_answer": solve(ch.Challenge),
	}, &login)
	require.Equal(t, http.StatusOK, status)
	require.True(t, login.Success)

	assert.Equal(t, http.StatusUnauthorized, call(t, http.MethodGet, srv.URL+"/api/chat", "", nil, nil))

	var widget chat.WidgetResponse
	require.Equal(t, http.StatusCreated, call(t, http.MethodPost, srv.URL+"/api/chat/messages", login.AccessToken,
		map[string]string{"text": "hi"}, &widget))
	require.Len(t, widget.Messages, 1)
	assert.Equal(t, "Alice", widget.Messages[0].Sender)

	var persisted []chat.Message
	require.NoError(t, kvstore.LoadJSON(t.Context(), store, kvstore.KeyChatThread, &persisted))
	assert.Equal(t, widget.Messages, persisted)

	assert.Equal(t, http.StatusNoContent, call(t, http.MethodPost, srv.URL+"/api/logout", login.AccessToken, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, http.MethodGet, srv.URL+"/api/chat", login.AccessToken, nil, nil))
}

func loginStatuses(t *testing.T, srv *httptest.Server, n int) []int {
	t.Helper()
	var codes []int
	for i := range n {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/login",
			strings.NewReader(`{"email":"a@b.c","password":"x","captcha_id":"none","captcha_answer":"1"}`))
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		codes = append(codes, res.StatusCode)
	}
	return codes
}

func TestLoginLimiter_SpoofedForwardingHeaders(t *testing.T) {
	cfg := &config.Config{}
	srv, _ := newTestServerWith(t, cfg, myMiddleware.NewRateLimiter(0.001, 2, time.Hour, logger.Discard()))

	codes := loginStatuses(t, srv, 6)
	assert.Equal(t, []int{404, 404, 429, 429, 429, 429}, codes)
}

func TestLoginLimiter_TrustedProxyUsesForwardedFor(t *testing.T) {
	cfg := &config.Config{TrustProxy: true}
	srv, _ := newTestServerWith(t, cfg, myMiddleware.NewRateLimiter(0.001, 2, time.Hour, logger.Discard()))

	codes := loginStatuses(t, srv, 6)
	assert.NotContains(t, codes, http.StatusTooManyRequests)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
