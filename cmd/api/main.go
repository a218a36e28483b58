package main

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"ecusim/internal/api"
	"ecusim/internal/config"
	"ecusim/internal/dataset"
	"ecusim/internal/metrics"
	"ecusim/internal/sim"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	metrics.RegisterDefault()

	engine := sim.New(sim.Params{
		Seed:           cfg.Sim.Seed,
		EmergencyRate:  cfg.Sim.EmergencyRate,
		ResolutionRate: cfg.Sim.ResolutionRate,
	})
	loadDatasets(cfg, engine)

	srv := api.NewServer(cfg, engine)
	mux := srv.Routes()

	addr := ":" + cfg.Port

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(metricsMiddleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API listening on %s", addr)
	if cfg.Sim.IntervalMs > 0 {
		srv.Runner.Start()
	}
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func loadDatasets(cfg *config.Config, engine *sim.Engine) {
	if p := cfg.Data.PersonnelCSV; p != "" {
		raw, err := os.ReadFile(p)
		if err != nil {
			log.Printf("personnel csv %s: %v", p, err)
		} else {
			ds := dataset.ParsePersonnel(string(raw))
			engine.LoadPersonnel(ds)
			log.Printf("loaded personnel for %d provinces", len(ds.All()))
		}
	}
	if p := cfg.Data.IncidentsCSV; p != "" {
		raw, err := os.ReadFile(p)
		if err != nil {
			log.Printf("incidents csv %s: %v", p, err)
		} else {
			rows := dataset.ParseIncidents(string(raw))
			engine.LoadIncidents(rows)
			log.Printf("loaded %d incident rows", len(rows))
		}
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		dur := time.Since(start)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrade work through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		status := strconv.Itoa(ww.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
	})
}
