package orderserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "orderserver"

// Outcome labels
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeServed   = "served"
	outcomeFailed   = "failed"
	outcomeCreated  = "created"
	outcomeExisting = "existing"
	outcomeRefused  = "refused"
)

var (
	registrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "registrations_total",
		Help:      "Registration calls by outcome.",
	}, []string{"outcome"})

	registeredClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "registered_clients",
		Help:      "Number of registered clients.",
	})

	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "messages_total",
		Help:      "Inbound envelopes by message kind and outcome.",
	}, []string{"kind", "outcome"})

	historyEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "history_evictions_total",
		Help:      "Orders evicted from a full client history.",
	})

	cryptoFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "crypto_failures_total",
		Help:      "Unexpected crypto provider failures by operation.",
	}, []string{"op"})
)
