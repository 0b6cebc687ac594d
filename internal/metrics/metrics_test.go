package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CaptchaResult("wrong_answer")
	m.CaptchaResult("wrong_answer")
	m.StoreSoftFailure("studentAdminChat", "write")
	m.ChatAppended()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.captcha.WithLabelValues("wrong_answer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeFailure.WithLabelValues("studentAdminChat", "write")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatAppends))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CaptchaResult("ok")
		m.LoginResult("ok")
		m.ChatAppended()
		m.StoreSoftFailure("k", "read")
		m.Purchase("annual")
	})
}
