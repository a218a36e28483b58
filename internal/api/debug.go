package api

import (
	"net/http"
	"time"

	"ecusim/internal/buildinfo"
)

// DebugJSON handles GET /debug/config with effective runtime settings.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"port":           s.Cfg.Port,
			"hasRedisUrl":    s.Cfg.RedisURL != "",
			"tickMs":         s.Cfg.Sim.TickMs,
			"intervalMs":     s.Cfg.Sim.IntervalMs,
			"emergencyRate":  s.Cfg.Sim.EmergencyRate,
			"resolutionRate": s.Cfg.Sim.ResolutionRate,
		},
		"sim": map[string]any{
			"time":    s.Engine.SimTime(),
			"running": s.Runner.Running(),
			"speed":   s.Runner.Speed(),
		},
		"alerts": s.Engine.Alerts().Summary(),
	}
	writeJSON(w, http.StatusOK, info)
}
