package api

import (
	"log"
	"net/http"

	"ecusim/internal/config"
	"ecusim/internal/model"
	"ecusim/internal/sim"
)

type Server struct {
	Cfg    *config.Config
	Engine *sim.Engine
	Broker EventBroker
	Runner *Runner

	mux *http.ServeMux
}

// NewServer wires the simulation engine to the event broker. If cfg.RedisURL
// is set the broker runs over Redis Pub/Sub, otherwise in memory.
func NewServer(cfg *config.Config, engine *sim.Engine) *Server {
	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			log.Printf("redis broker unavailable, falling back to in-memory: %v", err)
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	s := &Server{Cfg: cfg, Engine: engine, Broker: broker}
	s.Runner = NewRunner(engine, cfg.Sim.TickMs, cfg.Sim.IntervalMs)

	engine.Subscribe(func(st model.SimulationState) {
		broker.Publish(TopicSnapshot, Event{Type: "sim.snapshot", Data: map[string]any{
			"currentTime":         st.CurrentTime,
			"totalEmergencies":    st.TotalEmergencies,
			"resolvedEmergencies": st.ResolvedEmergencies,
			"activeEmergencies":   st.ActiveEmergencies,
			"agents":              st.Agents,
			"statistics":          st.Statistics,
		}})
	})
	engine.Alerts().Subscribe(func(a model.Alert) {
		broker.Publish(TopicAlert, Event{Type: "alert." + string(a.Type), Data: map[string]any{
			"alert": a,
		}})
	})
	s.mux = s.Routes()
	return s
}
