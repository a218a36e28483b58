package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ecusim/internal/metrics"
)

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Simulation
	mux.HandleFunc("/v1/sim/tick", s.SimTickHandler)
	mux.HandleFunc("/v1/sim/state", s.SimStateHandler)
	mux.HandleFunc("/v1/sim/control", s.SimControlHandler)
	mux.HandleFunc("/v1/sim/redistribute", s.SimRedistributeHandler)

	// Datasets
	mux.HandleFunc("/v1/data/personnel", s.PersonnelHandler)
	mux.HandleFunc("/v1/data/incidents", s.IncidentsHandler)

	// Capacity analysis
	mux.HandleFunc("/v1/analysis/capacity", s.CapacityHandler)
	mux.HandleFunc("/v1/analysis/suggestions", s.SuggestionsHandler)
	mux.HandleFunc("/v1/analysis/validate", s.ValidateHandler)
	mux.HandleFunc("/v1/analysis/distribution", s.DistributionHandler)

	// Alerts
	mux.HandleFunc("/v1/alerts", s.AlertsHandler)
	mux.HandleFunc("/v1/alerts/stats", s.AlertStatsHandler)
	mux.HandleFunc("/v1/alerts/resolve-province", s.AlertsResolveProvinceHandler)
	mux.HandleFunc("/v1/alerts/", s.AlertByIDHandler) // /v1/alerts/{id}/ack, /v1/alerts/{id}/resolve

	// Live stream
	mux.HandleFunc("/v1/stream", s.StreamHandler)

	// Health, metrics, debug
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/config", s.DebugJSON)

	return mux
}

// ServeHTTP makes Server an http.Handler over its route set.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
