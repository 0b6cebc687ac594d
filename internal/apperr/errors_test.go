package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	conflict := Conflict("EMAIL_TAKEN", "Email already registered")
	wrapped := fmt.Errorf("register: %w", conflict)

	assert.Same(t, conflict, FromError(wrapped))
	assert.Equal(t, http.StatusInternalServerError, FromError(errors.New("boom")).StatusCode)
	assert.Nil(t, FromError(nil))
}

func TestWriteError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, BadRequest("EMPTY_ANSWER", "Please answer the CAPTCHA question").WithDetails("x"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "EMPTY_ANSWER", body.Error.Code)
	assert.Equal(t, "x", body.Error.Details)
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Text string `json:"text"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"hi"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &v))
	assert.Equal(t, "hi", v.Text)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":`))
	assert.Equal(t, http.StatusBadRequest, FromError(DecodeJSON(httptest.NewRecorder(), req, &v)).StatusCode)

	big := `{"text":"` + strings.Repeat("a", int(MaxBodyBytes)) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	appErr := FromError(DecodeJSON(httptest.NewRecorder(), req, &v))
	assert.Equal(t, http.StatusRequestEntityTooLarge, appErr.StatusCode)
	assert.Equal(t, "BODY_TOO_LARGE", appErr.Code)
}
