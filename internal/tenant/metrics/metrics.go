package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes.
const (
	OutcomeResolved = "resolved"
	OutcomeSkipped  = "skipped"
	OutcomeRequired = "required"
	OutcomeNotFound = "not_found"
	OutcomeInactive = "inactive"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

type Metrics struct {
	Resolutions   *prometheus.CounterVec
	TenantCreated prometheus.Counter
	StatusChanges *prometheus.CounterVec
}

// New registers the tenant metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartparking_tenant_resolutions_total",
			Help: "Tenant resolution attempts by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		TenantCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartparking_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartparking_tenant_status_changes_total",
			Help: "Tenant activations and deactivations",
		}, []string{"action"}),
	}
}

func (m *Metrics) ObserveResolution(strategy, outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) IncrementTenantCreated() {
	if m == nil {
		return
	}
	m.TenantCreated.Inc()
}

func (m *Metrics) IncrementStatusChange(action string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(action).Inc()
}
