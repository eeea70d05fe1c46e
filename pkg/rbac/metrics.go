package rbac

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	lookups       *prometheus.CounterVec
	invalidations prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)
	return &metrics{
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authkit_rbac_cache_lookups_total",
				Help: "Role hierarchy cache lookups by result",
			},
			[]string{"result"},
		),
		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "authkit_rbac_cache_invalidations_total",
			Help: "Role hierarchy cache invalidations",
		}),
	}
}

func (m *metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(result).Inc()
}

func (m *metrics) cacheInvalidated() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}
