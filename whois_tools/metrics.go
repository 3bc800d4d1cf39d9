package whois_tools

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects query statistics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	queries    *prometheus.CounterVec
	roundTrips *prometheus.CounterVec
	referrals  prometheus.Counter
	duration   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg, if reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nicwhois",
			Name:      "queries_total",
			Help:      "Top-level whois queries by outcome.",
		}, []string{"outcome"}),
		roundTrips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nicwhois",
			Name:      "round_trips_total",
			Help:      "Single server exchanges by outcome.",
		}, []string{"outcome"}),
		referrals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nicwhois",
			Name:      "referrals_total",
			Help:      "Referrals followed to another server.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nicwhois",
			Name:      "round_trip_duration_seconds",
			Help:      "Time spent on a single server exchange.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.queries, m.roundTrips, m.referrals, m.duration)
	}
	return m
}

func (m *Metrics) observeQuery(err error) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) observeRoundTrip(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.roundTrips.WithLabelValues(outcome(err)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeReferral() {
	if m == nil {
		return
	}
	m.referrals.Inc()
}

// outcome turns an error into a low-cardinality label value.
func outcome(err error) string {
	var (
		connErr    *ConnectionError
		writeErr   *WriteError
		readErr    *ReadError
		timeoutErr *TimeoutError
		ambErr     *AmbiguousResponseError
		loopErr    *ReferralLoopError
		hopsErr    *TooManyHopsError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &connErr):
		return "connection"
	case errors.As(err, &writeErr):
		return "write"
	case errors.As(err, &readErr):
		return "read"
	case errors.As(err, &ambErr):
		return "ambiguous"
	case errors.As(err, &loopErr):
		return "loop"
	case errors.As(err, &hopsErr):
		return "too_many_hops"
	}
	return "error"
}
