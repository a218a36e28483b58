package api

import (
	"sync"
	"time"

	"ecusim/internal/sim"
)

// Runner drives the engine clock in the background. Each wall-clock interval
// it advances the simulation by tickMs simulated milliseconds scaled by the
// current speed factor.
type Runner struct {
	engine     *sim.Engine
	tickMs     int
	intervalMs int

	mu      sync.Mutex
	speed   float64
	running bool
	stop    chan struct{}
}

func NewRunner(engine *sim.Engine, tickMs, intervalMs int) *Runner {
	if tickMs <= 0 {
		tickMs = 1000
	}
	if intervalMs <= 0 {
		intervalMs = 1000
	}
	return &Runner{engine: engine, tickMs: tickMs, intervalMs: intervalMs, speed: 1}
}

func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stop = make(chan struct{})
	go r.loop(r.stop)
}

func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	close(r.stop)
}

// SetSpeed changes the simulated-time multiplier. Values are clamped to
// [0.1, 60].
func (r *Runner) SetSpeed(speed float64) {
	if speed < 0.1 {
		speed = 0.1
	}
	if speed > 60 {
		speed = 60
	}
	r.mu.Lock()
	r.speed = speed
	r.mu.Unlock()
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) Speed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speed
}

func (r *Runner) loop(stop chan struct{}) {
	ticker := time.NewTicker(time.Duration(r.intervalMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			delta := int(float64(r.tickMs) * r.speed)
			r.mu.Unlock()
			if delta > 0 {
				r.engine.Tick(delta)
			}
		}
	}
}
