// Package metrics exposes Prometheus counters for registrations and exports.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	RegistrationsTotal *prometheus.CounterVec
	ExportsTotal       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegistrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventreg",
			Name:      "registrations_total",
			Help:      "Registrations persisted, by event category and whether a fee applied.",
		}, []string{"category", "payment_required"}),
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventreg",
			Name:      "exports_total",
			Help:      "CSV exports served, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.RegistrationsTotal, m.ExportsTotal)
	return m
}

// Registration counts one persisted registration. Safe on a nil receiver.
func (m *Metrics) Registration(category string, paymentRequired bool) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(category, strconv.FormatBool(paymentRequired)).Inc()
}

// Export counts one CSV export. Safe on a nil receiver.
func (m *Metrics) Export(kind string) {
	if m == nil {
		return
	}
	m.ExportsTotal.WithLabelValues(kind).Inc()
}
