package user

import (
	"errors"
	"net/http"

	"workshopflow/internal/apperr"
	"workshopflow/internal/captcha"
	myMiddleware "workshopflow/internal/middleware"
)

// CaptchaGate is the part of the captcha registry the login form needs.
type CaptchaGate interface {
	Verify(id, answer string) (captcha.Challenge, error)
	Refresh(id string) (captcha.Challenge, error)
	Remove(id string)
}

type Handler struct {
	Service *Service
	captcha CaptchaGate
}

func NewHandler(s *Service, gate CaptchaGate) *Handler {
	return &Handler{Service: s, captcha: gate}
}

// Register handles POST /api/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := apperr.DecodeJSON(w, r, &req); err != nil {
		apperr.WriteError(w, err)
		return
	}

	profile, err := h.Service.Register(r.Context(), &req)
	switch {
	case errors.Is(err, ErrInvalidInput):
		apperr.WriteError(w, apperr.BadRequest("INVALID_REGISTRATION", err.Error()))
		return
	case errors.Is(err, ErrEmailTaken):
		apperr.WriteError(w, apperr.Conflict("EMAIL_TAKEN", "Email already registered"))
		return
	case err != nil:
		h.Service.log.LogError(err, "register failed")
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, profile)
}

// Login handles POST /api/login
// The captcha must pass before credentials are checked. A wrong answer
// returns the replacement question in the error details. A solved challenge
// is good for one credential check: failed credentials re-roll it.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := apperr.DecodeJSON(w, r, &req); err != nil {
		apperr.WriteError(w, err)
		return
	}

	live, err := h.captcha.Verify(req.CaptchaID, req.CaptchaAnswer)
	if err != nil {
		appErr := apperr.FromError(captcha.ToAppError(err))
		if !errors.Is(err, captcha.ErrUnknownSession) {
			appErr = appErr.WithDetails(captcha.ChallengeResponse{
				ID:        req.CaptchaID,
				Question:  live.Question(),
				Challenge: live,
			})
		}
		apperr.WriteError(w, appErr)
		return
	}

	res, err := h.Service.Login(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		h.Service.log.LogError(err, "login failed")
		apperr.WriteError(w, err)
		return
	}
	if !res.Success {
		next, err := h.captcha.Refresh(req.CaptchaID)
		if err != nil {
			h.captcha.Remove(req.CaptchaID)
		} else {
			res.Captcha = &captcha.ChallengeResponse{ID: req.CaptchaID, Question: next.Question(), Challenge: next}
		}
		apperr.WriteJSON(w, http.StatusUnauthorized, res)
		return
	}

	h.captcha.Remove(req.CaptchaID)
	apperr.WriteJSON(w, http.StatusOK, res)
}

// Logout handles POST /api/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(myMiddleware.BearerToken(r)); err != nil {
		apperr.WriteError(w, apperr.Unauthorized("INVALID_TOKEN", "Invalid token"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := myMiddleware.IdentityFrom(r.Context())
	if !ok {
		apperr.WriteError(w, apperr.Unauthorized("NOT_LOGGED_IN", "Not logged in"))
		return
	}
	apperr.WriteJSON(w, http.StatusOK, Profile{
		ID:       id.UserID,
		Email:    id.Email,
		FullName: id.FullName,
		Role:     Role(id.Role),
	})
}
