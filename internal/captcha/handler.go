package captcha

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"workshopflow/internal/apperr"
)

// ChallengeResponse is what the login form renders.
type ChallengeResponse struct {
	ID        string    `json:"captcha_id"`
	Question  string    `json:"question"`
	Challenge Challenge `json:"challenge"`
}

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Open handles POST /api/captcha
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	id, c := h.registry.Open()
	apperr.WriteJSON(w, http.StatusCreated, ChallengeResponse{ID: id, Question: c.Question(), Challenge: c})
}

// Refresh handles POST /api/captcha/{id}/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.registry.Refresh(id)
	if err != nil {
		apperr.WriteError(w, ToAppError(err))
		return
	}
	apperr.WriteJSON(w, http.StatusOK, ChallengeResponse{ID: id, Question: c.Question(), Challenge: c})
}

// ToAppError maps captcha errors onto HTTP errors.
func ToAppError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyAnswer):
		return apperr.BadRequest("CAPTCHA_EMPTY_ANSWER", "Please answer the CAPTCHA question")
	case errors.Is(err, ErrWrongAnswer):
		return apperr.BadRequest("CAPTCHA_WRONG_ANSWER", "Incorrect CAPTCHA answer. Please try again.")
	case errors.Is(err, ErrUnknownSession):
		return apperr.NotFound("CAPTCHA_SESSION_NOT_FOUND", "CAPTCHA expired, please request a new one")
	}
	return err
}
