package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service counters. A nil *Metrics is valid and records nothing,
// so components can be built without a registry in tests.
type Metrics struct {
	captcha      *prometheus.CounterVec
	logins       *prometheus.CounterVec
	chatAppends  prometheus.Counter
	storeFailure *prometheus.CounterVec
	purchases    *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		captcha: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workshopflow",
			Name:      "captcha_verifications_total",
			Help:      "CAPTCHA verification outcomes.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workshopflow",
			Name:      "login_attempts_total",
			Help:      "Login attempts that passed the CAPTCHA gate, by outcome.",
		}, []string{"result"}),
		chatAppends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workshopflow",
			Name:      "chat_messages_appended_total",
			Help:      "Messages appended to the support thread.",
		}),
		storeFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workshopflow",
			Name:      "local_store_soft_failures_total",
			Help:      "Swallowed Local Store read/write failures.",
		}, []string{"key", "op"}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workshopflow",
			Name:      "membership_purchases_total",
			Help:      "Mock membership purchases by plan.",
		}, []string{"plan"}),
	}
	reg.MustRegister(m.captcha, m.logins, m.chatAppends, m.storeFailure, m.purchases)
	return m
}

func (m *Metrics) CaptchaResult(result string) {
	if m == nil {
		return
	}
	m.captcha.WithLabelValues(result).Inc()
}

func (m *Metrics) LoginResult(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) ChatAppended() {
	if m == nil {
		return
	}
	m.chatAppends.Inc()
}

// StoreSoftFailure counts a Local Store error that was logged and swallowed.
func (m *Metrics) StoreSoftFailure(key, op string) {
	if m == nil {
		return
	}
	m.storeFailure.WithLabelValues(key, op).Inc()
}

func (m *Metrics) Purchase(plan string) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(plan).Inc()
}
