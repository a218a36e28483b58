package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// EmergenciesGenerated counts synthesized emergencies by service type.
	EmergenciesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sim_emergencies_generated_total", Help: "Emergencies generated by service type."},
		[]string{"service"},
	)
	// EmergenciesResolved counts resolved emergencies by service type.
	EmergenciesResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sim_emergencies_resolved_total", Help: "Emergencies resolved by service type."},
		[]string{"service"},
	)
	// AssignmentFailures counts assignment attempts that found no available agent.
	AssignmentFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sim_assignment_failures_total", Help: "Assignment attempts with no available agent."},
	)
	// Relocations counts agents sent into relocation.
	Relocations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sim_agent_relocations_total", Help: "Agents dispatched to relocate between provinces."},
	)
	// TickDuration tracks wall time spent per simulation tick.
	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "sim_tick_duration_seconds", Help: "Wall time per simulation tick.", Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5}},
	)
	// ActiveAlerts gauges the active alert count by severity.
	ActiveAlerts = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "alerts_active", Help: "Active alerts by severity."},
		[]string{"severity"},
	)
)

// RegisterDefault registers collectors on the package registry once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(EmergenciesGenerated)
		Registry.MustRegister(EmergenciesResolved)
		Registry.MustRegister(AssignmentFailures)
		Registry.MustRegister(Relocations)
		Registry.MustRegister(TickDuration)
		Registry.MustRegister(ActiveAlerts)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
