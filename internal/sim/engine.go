package sim

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"ecusim/internal/alerts"
	"ecusim/internal/dataset"
	"ecusim/internal/metrics"
	"ecusim/internal/model"
	"ecusim/internal/opt"
)

// simEpoch is the fixed start of simulated time: day one of the reference
// period (1 November 2025).
var simEpoch = time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)

// Params tunes the stochastic behavior of the engine. Zero values fall back
// to the standard rates.
type Params struct {
	Seed           int64   // 0 seeds from wall clock
	EmergencyRate  float64 // per-tick probability of a new emergency
	ResolutionRate float64 // per-tick probability an assigned emergency resolves
}

func (p *Params) defaults() {
	if p.Seed == 0 {
		p.Seed = time.Now().UnixNano()
	}
	if p.EmergencyRate == 0 {
		p.EmergencyRate = 0.3
	}
	if p.ResolutionRate == 0 {
		p.ResolutionRate = 0.1
	}
}

// Listener receives a full state snapshot after every tick and relocation
// completion.
type Listener func(model.SimulationState)

// Engine owns all mutable simulation state: the fixed agent pool, the active
// and resolved emergency collections, per-province counters and in-flight
// relocations. All mutation is serialized behind one mutex so any host,
// single-threaded or not, can drive it safely.
type Engine struct {
	mu sync.Mutex

	rng *rand.Rand
	now time.Time

	params Params

	agents   []*model.Agent
	active   []*model.Emergency
	resolved []*model.Emergency

	incidents []model.IncidentRecord
	personnel *dataset.PersonnelDataset

	stats       map[string]*model.ProvinceStats
	respSum     map[string]float64 // resolved response-time accumulators, minutes
	respCount   map[string]int
	relocations []*relocation

	listeners map[int]Listener
	nextSub   int

	analyzer *opt.Analyzer
	alertSys *alerts.System
}

// New builds an engine with the full agent pool allocated per province and
// service type from population and each type's share of the reference
// incident load.
func New(p Params) *Engine {
	p.defaults()
	e := &Engine{
		rng:       rand.New(rand.NewSource(p.Seed)),
		now:       simEpoch,
		params:    p,
		stats:     map[string]*model.ProvinceStats{},
		respSum:   map[string]float64{},
		respCount: map[string]int{},
		listeners: map[int]Listener{},
		analyzer:  opt.NewAnalyzer(),
		alertSys:  alerts.NewSystem(),
	}
	e.alertSys.WithClock(e.SimTime)
	e.initAgents()
	e.initStats()
	return e
}

// agentNames is the rotating display-name pool used at initialization.
var agentNames = []string{
	"Juan P.", "María G.", "Carlos R.", "Ana M.", "Luis F.",
	"Carmen S.", "Pedro L.", "Sofia V.", "Diego A.", "Laura C.",
	"Miguel T.", "Isabel N.", "Jorge E.", "Patricia D.", "Roberto H.",
	"Valentina Q.", "Fernando B.", "Gabriela O.", "Andrés M.", "Daniela P.",
}

func (e *Engine) initAgents() {
	idx := 0
	for _, prov := range model.Provinces {
		base := prov.Population / 100000
		if base < 3 {
			base = 3
		}
		for _, svc := range model.ServiceTypes {
			count := int(math.Ceil(float64(base) * float64(svc.Count) / model.ReferenceIncidentTotal))
			if count < 1 {
				count = 1
			}
			for i := 0; i < count; i++ {
				e.agents = append(e.agents, &model.Agent{
					ID:          fmt.Sprintf("%s-%s-%d", prov.ID, svc.ID, i),
					ServiceType: svc.ID,
					Status:      model.AgentAvailable,
					Province:    prov.ID,
					Position:    e.scatter(prov.Coord),
					Name:        fmt.Sprintf("%s %d", agentNames[idx%len(agentNames)], idx/len(agentNames)+1),
					Badge:       fmt.Sprintf("AG-%03d", idx+1),
				})
				idx++
			}
		}
	}
}

func (e *Engine) initStats() {
	for _, prov := range model.Provinces {
		n := 0
		for _, a := range e.agents {
			if a.Province == prov.ID {
				n++
			}
		}
		e.stats[prov.ID] = &model.ProvinceStats{Province: prov.ID, Agents: n, ByType: map[string]int{}}
	}
}

// scatter randomizes a position within +-2.5 units of a province center.
func (e *Engine) scatter(c model.Point) model.Point {
	return model.Point{
		X: c.X + (e.rng.Float64()-0.5)*5,
		Y: c.Y + (e.rng.Float64()-0.5)*5,
	}
}

// SimTime returns the current simulated clock.
func (e *Engine) SimTime() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// Tick advances simulated time by deltaMs milliseconds: it may generate one
// emergency, retries assignment of pending backlog, rolls resolution for
// each assigned emergency and advances in-flight relocations. One snapshot
// notification is emitted per tick.
func (e *Engine) Tick(deltaMs int) {
	start := time.Now()
	defer func() { metrics.TickDuration.Observe(time.Since(start).Seconds()) }()

	e.mu.Lock()
	e.now = e.now.Add(time.Duration(deltaMs) * time.Millisecond)

	if e.rng.Float64() < e.params.EmergencyRate {
		em := e.generateLocked()
		e.active = append(e.active, em)
		metrics.EmergenciesGenerated.WithLabelValues(em.ServiceType).Inc()
		if st := e.stats[em.Province]; st != nil {
			st.Emergencies++
			st.ByType[em.ServiceType]++
		}
		e.assignLocked(em)
	}

	// Retry sweep: emergencies left pending by earlier scarcity get another
	// assignment attempt now that agents may have freed up.
	for _, em := range e.active {
		if em.Status == model.EmergencyPending {
			e.assignLocked(em)
		}
	}

	var due []string
	for _, em := range e.active {
		if em.Status == model.EmergencyAssigned && e.rng.Float64() < e.params.ResolutionRate {
			due = append(due, em.ID)
		}
	}
	for _, id := range due {
		e.resolveLocked(id)
	}

	e.advanceRelocationsLocked()

	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)
}

// assignLocked finds an available agent for the emergency: same service and
// same province first, any province of the same service as fallback. First
// match wins. Failure leaves the emergency pending.
func (e *Engine) assignLocked(em *model.Emergency) *model.Agent {
	var fallback *model.Agent
	for _, a := range e.agents {
		if a.Status != model.AgentAvailable || a.ServiceType != em.ServiceType {
			continue
		}
		if a.Province == em.Province {
			e.bindLocked(a, em)
			return a
		}
		if fallback == nil {
			fallback = a
		}
	}
	if fallback != nil {
		e.bindLocked(fallback, em)
		return fallback
	}
	metrics.AssignmentFailures.Inc()
	return nil
}

func (e *Engine) bindLocked(a *model.Agent, em *model.Emergency) {
	a.Status = model.AgentResponding
	a.EmergencyID = em.ID
	em.AssignedAgent = a.ID
	em.Status = model.EmergencyAssigned
}

// resolveLocked moves an active emergency into the resolved collection and
// frees its agent. Emergencies are never deleted, only relocated between
// the two collections.
func (e *Engine) resolveLocked(emergencyID string) {
	for i, em := range e.active {
		if em.ID != emergencyID {
			continue
		}
		em.Status = model.EmergencyResolved
		e.active = append(e.active[:i], e.active[i+1:]...)
		e.resolved = append(e.resolved, em)
		metrics.EmergenciesResolved.WithLabelValues(em.ServiceType).Inc()

		elapsed := e.now.Sub(em.Timestamp).Minutes()
		e.respSum[em.Province] += elapsed
		e.respCount[em.Province]++
		if st := e.stats[em.Province]; st != nil && e.respCount[em.Province] > 0 {
			st.AvgResponseTime = e.respSum[em.Province] / float64(e.respCount[em.Province])
		}

		if em.AssignedAgent != "" {
			for _, a := range e.agents {
				if a.ID == em.AssignedAgent {
					a.Status = model.AgentAvailable
					a.EmergencyID = ""
					break
				}
			}
		}
		return
	}
}

// LoadIncidents replaces the historical incident dataset and recomputes the
// per-province distribution counters used by the weighted generators.
func (e *Engine) LoadIncidents(rows []model.IncidentRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.incidents = rows

	counts := map[string]map[string]int{}
	for _, r := range rows {
		if counts[r.Province] == nil {
			counts[r.Province] = map[string]int{}
		}
		counts[r.Province][r.ServiceType]++
	}
	for prov, byType := range counts {
		st := e.stats[prov]
		if st == nil {
			continue // unknown province slug, keep closed province set
		}
		st.ByType = byType
		total := 0
		for _, n := range byType {
			total += n
		}
		st.Emergencies = total
	}
}

// LoadPersonnel attaches the parsed personnel dataset; capacity analyses use
// its headcounts instead of the synthetic agent pool when present.
func (e *Engine) LoadPersonnel(ds *dataset.PersonnelDataset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.personnel = ds
}

// Subscribe registers a snapshot listener and returns an unsubscribe func.
func (e *Engine) Subscribe(l Listener) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.listeners[id] = l
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *Engine) notify(state model.SimulationState) {
	e.mu.Lock()
	ls := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		ls = append(ls, l)
	}
	e.mu.Unlock()
	for _, l := range ls {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("sim: listener panic: %v", r)
				}
			}()
			l(state)
		}()
	}
}

// State returns a deep-copied snapshot of the current world.
func (e *Engine) State() model.SimulationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() model.SimulationState {
	st := model.SimulationState{
		CurrentTime:         e.now,
		TotalEmergencies:    len(e.active) + len(e.resolved),
		ResolvedEmergencies: len(e.resolved),
		ActiveEmergencies:   make([]model.Emergency, len(e.active)),
		Agents:              make([]model.Agent, len(e.agents)),
	}
	for i, em := range e.active {
		st.ActiveEmergencies[i] = *em
	}
	for i, a := range e.agents {
		st.Agents[i] = *a
	}
	for _, prov := range model.Provinces {
		if ps := e.stats[prov.ID]; ps != nil {
			cp := *ps
			cp.ByType = make(map[string]int, len(ps.ByType))
			for k, v := range ps.ByType {
				cp.ByType[k] = v
			}
			st.Statistics = append(st.Statistics, cp)
		}
	}
	return st
}

// ResolvedEmergencies returns a copy of the resolved collection.
func (e *Engine) ResolvedEmergencies() []model.Emergency {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Emergency, len(e.resolved))
	for i, em := range e.resolved {
		out[i] = *em
	}
	return out
}

// AgentDistribution returns current agent counts per province and service
// type over the closed province/service sets.
func (e *Engine) AgentDistribution() map[string]map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	dist := make(map[string]map[string]int, len(model.Provinces))
	for _, prov := range model.Provinces {
		dist[prov.ID] = make(map[string]int, len(model.ServiceTypes))
		for _, svc := range model.ServiceTypes {
			dist[prov.ID][svc.ID] = 0
		}
	}
	for _, a := range e.agents {
		if m := dist[a.Province]; m != nil {
			m[a.ServiceType]++
		}
	}
	return dist
}

// SuggestOptimalDistribution reallocates each service type's total agent
// pool across provinces in proportion to observed incident share, minimum
// one per cell. This is a deliberately naive heuristic, separate from the
// analyzer's queueing-based recommendation.
func (e *Engine) SuggestOptimalDistribution() map[string]map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	totalByType := map[string]int{}
	for _, st := range e.stats {
		for t, n := range st.ByType {
			totalByType[t] += n
		}
	}
	agentsByType := map[string]int{}
	for _, a := range e.agents {
		agentsByType[a.ServiceType]++
	}

	out := make(map[string]map[string]int, len(model.Provinces))
	for _, prov := range model.Provinces {
		out[prov.ID] = make(map[string]int, len(model.ServiceTypes))
		st := e.stats[prov.ID]
		for _, svc := range model.ServiceTypes {
			demand := 0
			if st != nil {
				demand = st.ByType[svc.ID]
			}
			totalDemand := totalByType[svc.ID]
			if totalDemand == 0 {
				totalDemand = 1
			}
			n := int(math.Round(float64(agentsByType[svc.ID]) * float64(demand) / float64(totalDemand)))
			if n < 1 {
				n = 1
			}
			out[prov.ID][svc.ID] = n
		}
	}
	return out
}

// ProvinceStatistics returns a copy of the per-province counters.
func (e *Engine) ProvinceStatistics() []model.ProvinceStats {
	return e.State().Statistics
}

// RelocatingAgents returns the agents currently in transit.
func (e *Engine) RelocatingAgents() []model.Agent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []model.Agent
	for _, a := range e.agents {
		if a.Status == model.AgentRelocating {
			out = append(out, *a)
		}
	}
	return out
}

// Alerts exposes the engine's alert system.
func (e *Engine) Alerts() *alerts.System { return e.alertSys }

// Personnel returns the loaded personnel dataset, or nil.
func (e *Engine) Personnel() *dataset.PersonnelDataset {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.personnel
}

// IncidentCount reports how many historical incident rows are loaded.
func (e *Engine) IncidentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.incidents)
}

// Analyzer exposes the engine's capacity analyzer.
func (e *Engine) Analyzer() *opt.Analyzer { return e.analyzer }
