package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ecusim/internal/alerts"
	"ecusim/internal/buildinfo"
	"ecusim/internal/dataset"
	"ecusim/internal/model"
)

// SimTickHandler handles POST /v1/sim/tick
func (s *Server) SimTickHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		DeltaMs int `json:"deltaMs"`
		Ticks   int `json:"ticks"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.DeltaMs <= 0 { req.DeltaMs = s.Cfg.Sim.TickMs }
	if req.Ticks <= 0 { req.Ticks = 1 }
	if req.Ticks > 10000 {
		writeProblem(w, http.StatusBadRequest, "Too many ticks", "ticks must be <= 10000", r.URL.Path)
		return
	}
	for i := 0; i < req.Ticks; i++ {
		s.Engine.Tick(req.DeltaMs)
	}
	st := s.Engine.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"currentTime":         st.CurrentTime,
		"totalEmergencies":    st.TotalEmergencies,
		"resolvedEmergencies": st.ResolvedEmergencies,
		"active":              len(st.ActiveEmergencies),
	})
}

// SimStateHandler handles GET /v1/sim/state
func (s *Server) SimStateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Engine.State())
}

// SimControlHandler handles POST /v1/sim/control with actions start, stop
// and speed.
func (s *Server) SimControlHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Action string  `json:"action"`
		Speed  float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	switch req.Action {
	case "start":
		s.Runner.Start()
	case "stop":
		s.Runner.Stop()
	case "speed":
		if req.Speed <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid speed", "speed must be > 0", r.URL.Path)
			return
		}
		s.Runner.SetSpeed(req.Speed)
	default:
		writeProblem(w, http.StatusBadRequest, "Unknown action", "action must be start, stop or speed", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"running": s.Runner.Running(), "speed": s.Runner.Speed()})
}

// SimRedistributeHandler handles POST /v1/sim/redistribute. The body is a
// redistribution suggestion; it is validated against the current capacity
// analysis before agents start moving.
func (s *Server) SimRedistributeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Suggestion  model.RedistributionSuggestion `json:"suggestion"`
		ServiceType string                         `json:"serviceType"`
		Force       bool                           `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	sg := req.Suggestion
	if sg.FromProvince == "" || sg.ToProvince == "" || sg.TotalPersonnel <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid suggestion", "fromProvince, toProvince and totalPersonnel are required", r.URL.Path)
		return
	}
	if !req.Force {
		if ok, reason := s.Engine.ValidateSuggestion(sg); !ok {
			writeJSON(w, http.StatusConflict, map[string]any{"applied": false, "reason": reason})
			return
		}
	}
	svc := req.ServiceType
	if svc == "" { svc = "seguridad" }
	applied := s.Engine.RedistributeAgents(sg.FromProvince, sg.ToProvince, svc, sg.TotalPersonnel)
	if !applied {
		writeJSON(w, http.StatusConflict, map[string]any{"applied": false, "reason": "not enough available agents in source province"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"applied": true, "relocating": len(s.Engine.RelocatingAgents())})
}

// PersonnelHandler handles /v1/data/personnel. POST ingests the raw CSV body,
// GET lists the loaded records.
func (s *Server) PersonnelHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		raw, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Read failed", err.Error(), r.URL.Path)
			return
		}
		ds := dataset.ParsePersonnel(string(raw))
		if len(ds.All()) == 0 {
			writeProblem(w, http.StatusBadRequest, "Empty dataset", "no personnel rows parsed", r.URL.Path)
			return
		}
		s.Engine.LoadPersonnel(ds)
		writeJSON(w, http.StatusAccepted, map[string]any{"provinces": len(ds.All()), "totals": ds.NationalTotals()})
	case http.MethodGet:
		ds := s.Engine.Personnel()
		if ds == nil {
			writeJSON(w, http.StatusOK, map[string]any{"items": []model.PersonnelByProvince{}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": ds.All(), "totals": ds.NationalTotals()})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// IncidentsHandler handles /v1/data/incidents. POST ingests the raw CSV body.
func (s *Server) IncidentsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<20))
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Read failed", err.Error(), r.URL.Path)
			return
		}
		rows := dataset.ParseIncidents(string(raw))
		if len(rows) == 0 {
			writeProblem(w, http.StatusBadRequest, "Empty dataset", "no incident rows parsed", r.URL.Path)
			return
		}
		s.Engine.LoadIncidents(rows)
		writeJSON(w, http.StatusAccepted, map[string]any{"loaded": len(rows)})
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"loaded": s.Engine.IncidentCount()})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// CapacityHandler handles GET /v1/analysis/capacity
func (s *Server) CapacityHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	analyses := s.Engine.CapacityAnalyses()
	if p := r.URL.Query().Get("provincia"); p != "" {
		for _, ca := range analyses {
			if ca.ProvinceID == p {
				writeJSON(w, http.StatusOK, ca)
				return
			}
		}
		writeProblem(w, http.StatusNotFound, "Unknown province", "no analysis for "+p, r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": analyses})
}

// SuggestionsHandler handles GET /v1/analysis/suggestions
func (s *Server) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.Engine.RedistributionSuggestions()})
}

// ValidateHandler handles POST /v1/analysis/validate
func (s *Server) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var sg model.RedistributionSuggestion
	if err := json.NewDecoder(r.Body).Decode(&sg); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	ok, reason := s.Engine.ValidateSuggestion(sg)
	writeJSON(w, http.StatusOK, map[string]any{"valid": ok, "reason": reason})
}

// DistributionHandler handles GET /v1/analysis/distribution with the current
// and the suggested optimal agent counts per province and service.
func (s *Server) DistributionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current": s.Engine.AgentDistribution(),
		"optimal": s.Engine.SuggestOptimalDistribution(),
	})
}

// AlertsHandler handles GET /v1/alerts
func (s *Server) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	if q.Get("history") == "true" {
		limit := 0
		if v := q.Get("limit"); v != "" { _, _ = fmt.Sscanf(v, "%d", &limit) }
		writeJSON(w, http.StatusOK, map[string]any{"items": s.Engine.Alerts().History(limit)})
		return
	}
	f := alertsFilter(q.Get("severity"), q.Get("type"), q.Get("provincia"))
	writeJSON(w, http.StatusOK, map[string]any{"items": s.Engine.Alerts().ActiveAlerts(f)})
}

// AlertStatsHandler handles GET /v1/alerts/stats
func (s *Server) AlertStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Engine.Alerts().GetStatistics())
}

// AlertByIDHandler handles POST /v1/alerts/{id}/ack and
// POST /v1/alerts/{id}/resolve.
func (s *Server) AlertByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/alerts/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeProblem(w, http.StatusNotFound, "Not found", "expected /v1/alerts/{id}/{ack|resolve}", r.URL.Path)
		return
	}
	id, action := parts[0], parts[1]
	var req struct {
		By     string `json:"by"`
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.By == "" { req.By = "operator" }
	var ok bool
	switch action {
	case "ack":
		ok = s.Engine.Alerts().Acknowledge(id, req.By)
	case "resolve":
		if req.Reason == "" { req.Reason = "resolved by operator" }
		ok = s.Engine.Alerts().Resolve(id, req.Reason, req.By)
	default:
		writeProblem(w, http.StatusNotFound, "Not found", "unknown alert action "+action, r.URL.Path)
		return
	}
	if !ok {
		writeProblem(w, http.StatusNotFound, "Unknown alert", "no active alert "+id, r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "action": action})
}

// AlertsResolveProvinceHandler handles POST /v1/alerts/resolve-province
func (s *Server) AlertsResolveProvinceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Province string `json:"provincia"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if req.Province == "" {
		writeProblem(w, http.StatusBadRequest, "Missing province", "provincia is required", r.URL.Path)
		return
	}
	if req.Reason == "" { req.Reason = "resolved for province" }
	n := s.Engine.Alerts().ResolveProvince(req.Province, req.Reason)
	writeJSON(w, http.StatusOK, map[string]any{"resolved": n})
}

// HealthHandler handles GET /healthz
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Info()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": info["version"],
		"commit":  info["commit"],
		"simTime": s.Engine.SimTime(),
		"running": s.Runner.Running(),
	})
}

func alertsFilter(severity, typ, province string) alerts.Filter {
	return alerts.Filter{
		Severity:   model.AlertSeverity(severity),
		Type:       model.AlertType(typ),
		ProvinceID: province,
	}
}
