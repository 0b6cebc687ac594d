package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"workshopflow/internal/logger"
)

type stubValidator map[string]Identity

func (s stubValidator) ValidateToken(token string) (Identity, error) {
	id, ok := s[token]
	if !ok {
		return Identity{}, errors.New("bad token")
	}
	return id, nil
}

func TestAuthMiddleware(t *testing.T) {
	am := NewAuthMiddleware(stubValidator{"good": {UserID: "u1", FullName: "Alice", Role: "student"}})

	var seen Identity
	h := am.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"invalid", "Bearer nope", "", http.StatusUnauthorized},
		{"header", "Bearer good", "", http.StatusNoContent},
		{"query fallback", "", "?token=good", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/chat"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
	assert.Equal(t, "Alice", seen.FullName)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, time.Hour, logger.Discard())
	h := rl.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000"))
}

func TestRateLimiter_IgnoresForwardingHeaders(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, time.Hour, logger.Discard())
	h := rl.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var codes []int
	for i := range 6 {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = "10.0.0.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429, 429, 429}, codes)
}
