package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeniedWrites counts hard write denials in enforcing/complete phase,
	// including the restrictive no-owner rule.
	DeniedWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_denied_writes_total",
		Help: "Cross-project and ownerless writes rejected by the enforcement gate.",
	}, []string{"collection", "reason"})

	// FilteredReadRows counts rows removed from read results by the gate.
	FilteredReadRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_filtered_read_rows_total",
		Help: "Rows excluded from read results by the enforcement gate.",
	}, []string{"collection"})

	// ShadowViolations counts would-be denials observed in shadow phase.
	ShadowViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_shadow_violations_total",
		Help: "Operations that would be denied under enforcing rules, observed in shadow phase.",
	}, []string{"collection", "operation"})

	// AuditDropped counts audit entries dropped because the async queue was
	// full or the process was shutting down.
	AuditDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warden_audit_entries_dropped_total",
		Help: "Audit entries dropped by the best-effort shadow logger.",
	})

	// ProjectPhase exports each project's rollout phase (value is always 1;
	// the phase label carries the state).
	ProjectPhase = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "warden_project_phase",
		Help: "Current rollout phase per project.",
	}, []string{"project", "phase"})
)
