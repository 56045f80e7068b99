package permission

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache lookups by outcome and invalidations. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Lookups       *prometheus.CounterVec
	Invalidations prometheus.Counter
	StoreErrors   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visitor",
			Subsystem: "permission_cache",
			Name:      "lookups_total",
			Help:      "Permission cache lookups by result (hit, miss, fault).",
		}, []string{"result"}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visitor",
			Subsystem: "permission_cache",
			Name:      "invalidations_total",
			Help:      "Permission cache entries invalidated by grant mutations.",
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visitor",
			Subsystem: "permission_resolver",
			Name:      "store_errors_total",
			Help:      "Permission resolutions that failed against the relational store.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Lookups, m.Invalidations, m.StoreErrors)
	}
	return m
}

func (m *Metrics) observeLookup(status CacheStatus) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(status.String()).Inc()
}

func (m *Metrics) observeInvalidation() {
	if m == nil {
		return
	}
	m.Invalidations.Inc()
}

func (m *Metrics) observeStoreError() {
	if m == nil {
		return
	}
	m.StoreErrors.Inc()
}
