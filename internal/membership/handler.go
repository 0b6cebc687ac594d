package membership

import (
	"errors"
	"net/http"
	"time"

	"workshopflow/internal/apperr"
)

type PurchaseRequest struct {
	PlanID  string      `json:"planId"`
	Payment PaymentForm `json:"payment"`
}

type StatusResponse struct {
	Membership *Record `json:"membership"`
	Active     bool    `json:"active"`
}

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// ListPlans handles GET /api/membership/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	apperr.WriteJSON(w, http.StatusOK, map[string]any{
		"plans":       Plans(),
		"defaultPlan": DefaultPlanID,
	})
}

// Get handles GET /api/membership
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rec := h.service.Current(r.Context())
	apperr.WriteJSON(w, http.StatusOK, StatusResponse{
		Membership: rec,
		Active:     rec != nil && rec.Active(time.Now()),
	})
}

// Purchase handles POST /api/membership
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := apperr.DecodeJSON(w, r, &req); err != nil {
		apperr.WriteError(w, err)
		return
	}
	if req.PlanID == "" {
		req.PlanID = DefaultPlanID
	}

	rec, err := h.service.Purchase(r.Context(), req.PlanID, req.Payment)
	switch {
	case errors.Is(err, ErrUnknownPlan):
		apperr.WriteError(w, apperr.BadRequest("UNKNOWN_PLAN", err.Error()))
		return
	case isFormError(err):
		apperr.WriteError(w, apperr.BadRequest("INVALID_PAYMENT_FORM", err.Error()))
		return
	case err != nil:
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, StatusResponse{Membership: rec, Active: true})
}

func isFormError(err error) bool {
	for _, target := range []error{ErrCardName, ErrCardNumber, ErrExpiry, ErrCVV, ErrEmail} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
