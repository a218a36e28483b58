package sim

import (
	"fmt"

	"github.com/google/uuid"

	"ecusim/internal/model"
)

// generateLocked synthesizes one emergency. With a loaded incident dataset
// it samples a record matching the simulated clock's current month (whole
// dataset when the month has no rows); without one it falls back to weighted
// random draws over the reference distributions.
func (e *Engine) generateLocked() *model.Emergency {
	if len(e.incidents) > 0 {
		return e.generateFromDataLocked()
	}

	svc := e.weightedServiceLocked()
	prov := e.weightedProvinceLocked(svc)
	return &model.Emergency{
		ID:          "em-" + uuid.New().String(),
		ServiceType: svc,
		Subtype:     e.randomSubtypeLocked(svc),
		Province:    prov,
		Canton:      fmt.Sprintf("Canton %d", e.rng.Intn(10)+1),
		Parish:      fmt.Sprintf("Parroquia %d", e.rng.Intn(20)+1),
		Timestamp:   e.now,
		Status:      model.EmergencyPending,
		Priority:    model.ServicePriority(svc),
	}
}

func (e *Engine) generateFromDataLocked() *model.Emergency {
	month := int(e.now.Month())
	var pool []model.IncidentRecord
	for _, r := range e.incidents {
		if r.Month == month {
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		pool = e.incidents
	}
	rec := pool[e.rng.Intn(len(pool))]

	subtype := rec.Subtype
	if subtype == "" {
		subtype = e.randomSubtypeLocked(rec.ServiceType)
	}
	return &model.Emergency{
		ID:          "em-" + uuid.New().String(),
		ServiceType: rec.ServiceType,
		Subtype:     subtype,
		Province:    rec.Province,
		Canton:      rec.Canton,
		Parish:      rec.Parish,
		Timestamp:   e.now,
		Status:      model.EmergencyPending,
		Priority:    model.ServicePriority(rec.ServiceType),
	}
}

// weightedServiceLocked draws a service type proportional to its reference
// incident count.
func (e *Engine) weightedServiceLocked() string {
	total := 0
	for _, s := range model.ServiceTypes {
		total += s.Count
	}
	r := e.rng.Float64() * float64(total)
	for _, s := range model.ServiceTypes {
		r -= float64(s.Count)
		if r <= 0 {
			return s.ID
		}
	}
	return model.ServiceTypes[0].ID
}

// weightedProvinceLocked draws a province weighted by the loaded dataset's
// distribution for the service type when available, else by population.
func (e *Engine) weightedProvinceLocked(serviceType string) string {
	if len(e.incidents) > 0 {
		weights := map[string]int{}
		total := 0
		for _, r := range e.incidents {
			if r.ServiceType == serviceType {
				weights[r.Province]++
				total++
			}
		}
		if total > 0 {
			r := e.rng.Float64() * float64(total)
			// iterate the closed province list for deterministic order
			for _, p := range model.Provinces {
				r -= float64(weights[p.ID])
				if r <= 0 {
					return p.ID
				}
			}
		}
	}

	total := 0
	for _, p := range model.Provinces {
		total += p.Population
	}
	r := e.rng.Float64() * float64(total)
	for _, p := range model.Provinces {
		r -= float64(p.Population)
		if r <= 0 {
			return p.ID
		}
	}
	return model.Provinces[0].ID
}

func (e *Engine) randomSubtypeLocked(serviceType string) string {
	opts := model.Subtypes[serviceType]
	if len(opts) == 0 {
		return "General"
	}
	return opts[e.rng.Intn(len(opts))]
}
