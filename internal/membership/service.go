package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workshopflow/internal/kvstore"
	"workshopflow/internal/logger"
	"workshopflow/internal/metrics"
)

var ErrUnknownPlan = errors.New("unknown membership plan")

const StatusActive = "active"

// Record is the persisted membership, stored under the proMembership key.
type Record struct {
	PlanID       string    `json:"planId"`
	PlanName     string    `json:"planName"`
	Price        int       `json:"price"`
	PurchaseDate time.Time `json:"purchaseDate"`
	ExpiryDate   time.Time `json:"expiryDate"`
	Status       string    `json:"status"`
}

// Active reports whether the record is still within its validity window.
func (r Record) Active(now time.Time) bool {
	return r.Status == StatusActive && now.Before(r.ExpiryDate)
}

type Service struct {
	kv      kvstore.Store
	delay   time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService builds the membership service. delay is the artificial
// "processing" pause of the mock payment.
func NewService(kv kvstore.Store, delay time.Duration, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		kv:      kv,
		delay:   delay,
		log:     log.WithComponent("membership"),
		metrics: m,
		now:     time.Now,
	}
}

// Purchase validates the form, simulates processing and records the membership.
// The record write is best effort: a failure is logged and the purchase still
// reports success, as the payment already "went through".
func (s *Service) Purchase(ctx context.Context, planID string, form PaymentForm) (*Record, error) {
	plan, ok := FindPlan(planID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planID)
	}
	if err := form.Normalize().Validate(); err != nil {
		return nil, err
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	now := s.now().UTC()
	rec := &Record{
		PlanID:       plan.ID,
		PlanName:     plan.Name,
		Price:        plan.Price,
		PurchaseDate: now,
		ExpiryDate:   now.Add(plan.Validity),
		Status:       StatusActive,
	}
	if err := kvstore.SaveJSON(ctx, s.kv, kvstore.KeyMembership, rec); err != nil {
		s.log.LogError(err, "error storing membership", "plan", plan.ID)
		s.metrics.StoreSoftFailure(kvstore.KeyMembership, "write")
	}
	s.metrics.Purchase(plan.ID)
	s.log.Info("membership purchased", "plan", plan.ID)
	return rec, nil
}

// Current returns the stored membership, or nil when there is none or it
// cannot be decoded.
func (s *Service) Current(ctx context.Context) *Record {
	var rec Record
	err := kvstore.LoadJSON(ctx, s.kv, kvstore.KeyMembership, &rec)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.LogError(err, "error loading membership")
		s.metrics.StoreSoftFailure(kvstore.KeyMembership, "read")
		return nil
	}
	return &rec
}
