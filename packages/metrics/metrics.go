// Package metrics exposes the prometheus counters spec.md §4.4 names,
// grounded on the Metz-2-hornet processor's
// metrics.SharedServerMetrics.InvalidRequests.Inc() pattern.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// ServerMetrics is the shared counter set incremented by the processor,
// responders and gossip workers.
type ServerMetrics struct {
	InvalidTransactions   prometheus.Counter
	InvalidRequests       prometheus.Counter
	KnownTransactions     prometheus.Counter
	NewTransactions       prometheus.Counter
	SentTransactions      prometheus.Counter
	StaleTransactions     prometheus.Counter
	ConfirmedTransactions prometheus.Counter
	ConfirmedMilestones   prometheus.Counter
}

// SharedServerMetrics is the process-wide instance every component
// increments, mirroring the teacher's package-level singleton.
var SharedServerMetrics = New()

// New creates a fresh, unregistered ServerMetrics. Kept as a constructor
// (rather than only the package singleton) so tests can assert on isolated
// counters.
func New() *ServerMetrics {
	return &ServerMetrics{
		InvalidTransactions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hornet_invalid_transactions_total",
			Help: "Number of received transactions that failed structural or MWM validation.",
		}),
		InvalidRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hornet_invalid_requests_total",
			Help: "Number of received requests that could not be decoded or served.",
		}),
		KnownTransactions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hornet_known_transactions_total",
			Help: "Number of received transactions already present in the tangle.",
		}),
		NewTransactions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hornet_new_transactions_total",
			Help: "Number of transactions newly inserted into the tangle.",
		}),
		SentTransactions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hornet_sent_transactions_total",
			Help: "Number of transactions broadcast to peers.",
		}),
		StaleTransactions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hornet_stale_transactions_total",
			Help: "Number of requested hashes evicted after exceeding the retry cap.",
		}),
		ConfirmedTransactions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hornet_confirmed_transactions_total",
			Help: "Number of transactions confirmed by white-flag.",
		}),
		ConfirmedMilestones: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hornet_confirmed_milestones_total",
			Help: "Number of milestones that completed confirmation.",
		}),
	}
}

// Register registers every counter onto r, so callers decide whether to use
// the default prometheus registry or an isolated one in tests.
func (m *ServerMetrics) Register(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.InvalidTransactions,
		m.InvalidRequests,
		m.KnownTransactions,
		m.NewTransactions,
		m.SentTransactions,
		m.StaleTransactions,
		m.ConfirmedTransactions,
		m.ConfirmedMilestones,
	}
	for _, c := range collectors {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
