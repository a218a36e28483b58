package sim

import (
	"time"

	"ecusim/internal/model"
)

// capacityInput is the per-province slice of engine state the analyzer
// consumes, captured under the lock so the math can run outside it.
type capacityInput struct {
	provinceID string
	personnel  model.PersonnelByProvince
	last24h    int
	population int
}

func (e *Engine) capacityInputsLocked() []capacityInput {
	cutoff := e.now.Add(-24 * time.Hour)
	last24h := map[string]int{}
	for _, em := range e.active {
		if !em.Timestamp.Before(cutoff) {
			last24h[em.Province]++
		}
	}
	for _, em := range e.resolved {
		if !em.Timestamp.Before(cutoff) {
			last24h[em.Province]++
		}
	}

	out := make([]capacityInput, 0, len(model.Provinces))
	for _, prov := range model.Provinces {
		var rec model.PersonnelByProvince
		if e.personnel != nil {
			if p, ok := e.personnel.ByProvince(prov.ID); ok {
				rec = p
			}
		}
		if rec.Total == 0 {
			// No dataset loaded (or province missing): fall back to the
			// synthetic agent pool as headcount.
			n := 0
			for _, a := range e.agents {
				if a.Province == prov.ID {
					n++
				}
			}
			rec = model.PersonnelByProvince{Province: prov.ID, Total: n}
		}
		out = append(out, capacityInput{
			provinceID: prov.ID,
			personnel:  rec,
			last24h:    last24h[prov.ID],
			population: prov.Population,
		})
	}
	return out
}

// CapacityAnalyses runs the queueing model over every province using the
// engine's current emergency history (24h window of simulated time) and the
// loaded personnel dataset when present. Each analysis is also fed to the
// alert system's threshold rules.
func (e *Engine) CapacityAnalyses() []model.CapacityAnalysis {
	e.mu.Lock()
	inputs := e.capacityInputsLocked()
	e.mu.Unlock()

	out := make([]model.CapacityAnalysis, 0, len(inputs))
	for _, in := range inputs {
		ca := e.analyzer.AnalyzeProvinceCapacity(in.provinceID, in.personnel, in.last24h, in.population)
		e.alertSys.EvaluateCapacity(ca)
		out = append(out, ca)
	}
	return out
}

// RedistributionSuggestions generates transfer suggestions from the current
// capacity analyses and raises alerts for the high-priority ones.
func (e *Engine) RedistributionSuggestions() []model.RedistributionSuggestion {
	analyses := e.CapacityAnalyses()
	suggestions := e.analyzer.GenerateSuggestions(analyses)
	for _, s := range suggestions {
		e.alertSys.EvaluateSuggestion(s)
	}
	return suggestions
}

// ValidateSuggestion checks a suggestion against the current capacity of
// its source province.
func (e *Engine) ValidateSuggestion(s model.RedistributionSuggestion) (bool, string) {
	for _, ca := range e.CapacityAnalyses() {
		if ca.ProvinceID == s.FromProvince {
			return e.analyzer.ValidateRedistribution(s, ca)
		}
	}
	return false, "unknown source province: " + s.FromProvince
}
