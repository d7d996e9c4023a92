// Package metrics defines the business metrics of the listing API. It is the
// single source of truth for metric names, labels, and help strings.
//
// Create one Metrics per registry with New; the router does this at startup
// and hands it to the handlers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "listings"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

type Metrics struct {
	// LoginsTotal counts login attempts.
	// Labels:
	//   - kind: "admin" or "user"
	//   - result: "success" or "failure"
	LoginsTotal *prometheus.CounterVec

	// RegistrationsTotal counts self-service sign-ups.
	// Label:
	//   - result: "success", "conflict" or "failure"
	RegistrationsTotal *prometheus.CounterVec

	// PropertiesCreatedTotal counts newly stored listings.
	// Label:
	//   - property_type: "sale" or "rental"
	PropertiesCreatedTotal *prometheus.CounterVec

	// IdempotentReplaysTotal counts creates answered from an earlier Idempotency-Key.
	IdempotentReplaysTotal prometheus.Counter

	// PropertyMutationsTotal counts update, toggle and delete outcomes.
	// Labels:
	//   - action: "update", "toggle_status" or "delete"
	//   - result: "success", "forbidden", "not_found" or "failure"
	PropertyMutationsTotal *prometheus.CounterVec
}

// New registers all metrics with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LoginsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total number of login attempts, by principal kind and result.",
			},
			[]string{"kind", "result"},
		),
		RegistrationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total number of registration attempts, by result.",
			},
			[]string{"result"},
		),
		PropertiesCreatedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "properties_created_total",
				Help:      "Total number of properties created, by property type.",
			},
			[]string{"property_type"},
		),
		IdempotentReplaysTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idempotent_replays_total",
				Help:      "Total number of property creates answered from a stored Idempotency-Key.",
			},
		),
		PropertyMutationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "property_mutations_total",
				Help:      "Total number of property mutations, by action and result.",
			},
			[]string{"action", "result"},
		),
	}
}
