package csrf

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSkipped     = "skipped"
	outcomePassed      = "passed"
	outcomeMissing     = "missing"
	outcomeMalformed   = "malformed"
	outcomeMismatch    = "mismatch"
	outcomeRateLimited = "rate_limited"
)

type metrics struct {
	checks *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	return &metrics{
		checks: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "authkit_csrf_checks_total",
				Help: "CSRF checks by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(outcome).Inc()
}

func outcomeOf(reason error) string {
	switch {
	case errors.Is(reason, ErrTokenMissing):
		return outcomeMissing
	case errors.Is(reason, ErrTokenMalformed):
		return outcomeMalformed
	default:
		return outcomeMismatch
	}
}
