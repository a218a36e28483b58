package sim

import (
	"log"
	"math"
	"time"

	"ecusim/internal/metrics"
	"ecusim/internal/model"
)

const (
	minTravel     = 3 * time.Second
	maxTravel     = 6 * time.Second
	travelPerUnit = 100 * time.Millisecond // travel time per coordinate unit
	cohortStagger = 500 * time.Millisecond // start offset per agent in a cohort
)

// relocation tracks one agent's in-flight move between provinces. Progress
// is always recomputed from elapsed simulated time against the start mark,
// never accumulated per frame, so it cannot drift.
type relocation struct {
	agent    *model.Agent
	from, to string
	startPos model.Point
	endPos   model.Point
	start    time.Time // includes the cohort stagger offset
	duration time.Duration
}

// RedistributeAgents moves up to count available agents of the service type
// from one province to another. The transfer is atomic: when fewer than
// count agents are available nothing moves and the call reports failure.
// Selected agents enter the relocating state and travel over the following
// simulated seconds; arrival is handled by Tick.
func (e *Engine) RedistributeAgents(fromProvince, toProvince, serviceType string, count int) bool {
	e.mu.Lock()

	toProv, ok := model.ProvinceByID(toProvince)
	if !ok || count <= 0 {
		e.mu.Unlock()
		return false
	}

	var selected []*model.Agent
	for _, a := range e.agents {
		if a.Province == fromProvince && a.ServiceType == serviceType && a.Status == model.AgentAvailable {
			selected = append(selected, a)
			if len(selected) == count {
				break
			}
		}
	}
	if len(selected) < count {
		e.mu.Unlock()
		log.Printf("sim: not enough available %s agents in %s (want %d)", serviceType, fromProvince, count)
		return false
	}

	for i, a := range selected {
		a.Status = model.AgentRelocating
		a.RelocatingFrom = fromProvince
		a.RelocatingTo = toProvince
		a.RelocatingProgress = 0

		end := e.scatter(toProv.Coord)
		dx := end.X - a.Position.X
		dy := end.Y - a.Position.Y
		dist := math.Sqrt(dx*dx + dy*dy)
		duration := time.Duration(dist * float64(travelPerUnit))
		if duration < minTravel {
			duration = minTravel
		}
		if duration > maxTravel {
			duration = maxTravel
		}

		e.relocations = append(e.relocations, &relocation{
			agent:    a,
			from:     fromProvince,
			to:       toProvince,
			startPos: a.Position,
			endPos:   end,
			start:    e.now.Add(time.Duration(i) * cohortStagger),
			duration: duration,
		})
	}
	metrics.Relocations.Add(float64(count))

	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)
	return true
}

// advanceRelocationsLocked recomputes every in-flight relocation from the
// current simulated clock and finalizes arrivals.
func (e *Engine) advanceRelocationsLocked() {
	var remaining []*relocation
	for _, r := range e.relocations {
		elapsed := e.now.Sub(r.start)
		if elapsed < 0 {
			remaining = append(remaining, r) // staggered start not reached yet
			continue
		}
		progress := float64(elapsed) / float64(r.duration)
		if progress < 1 {
			r.agent.RelocatingProgress = progress
			r.agent.Position = Interpolate(r.startPos, r.endPos, progress)
			remaining = append(remaining, r)
			continue
		}

		// Arrival.
		r.agent.Province = r.to
		r.agent.Position = r.endPos
		r.agent.Status = model.AgentAvailable
		r.agent.RelocatingProgress = 0
		r.agent.RelocatingFrom = ""
		r.agent.RelocatingTo = ""
		e.refreshAgentCountLocked(r.from)
		e.refreshAgentCountLocked(r.to)
	}
	e.relocations = remaining
}

func (e *Engine) refreshAgentCountLocked(provinceID string) {
	st := e.stats[provinceID]
	if st == nil {
		return
	}
	n := 0
	for _, a := range e.agents {
		if a.Province == provinceID {
			n++
		}
	}
	st.Agents = n
}

// Interpolate returns the eased position between two points at the given
// progress fraction. It is a pure function of its inputs so relocation is
// restartable from any clock reading.
func Interpolate(start, end model.Point, progress float64) model.Point {
	t := easeInOut(clamp01(progress))
	return model.Point{
		X: start.X + (end.X-start.X)*t,
		Y: start.Y + (end.Y-start.Y)*t,
	}
}

// easeInOut is the standard quadratic ease-in-out curve.
func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
