package opt

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ecusim/internal/model"
)

// breakdownShares are the fixed national proportions used to split a
// transfer into personnel categories.
var breakdownShares = []struct {
	category string
	share    float64
	floor    bool
}{
	{model.CategoryNationalPolice, 0.35, false},
	{model.CategoryOperators, 0.25, false},
	{model.CategoryMedical, 0.15, false},
	{model.CategoryTrafficPolice, 0.10, false},
	{model.CategoryFirefighters, 0.08, false},
	{model.CategoryArmedForces, 0.05, false},
	{model.CategoryMunicipalAgents, 0.02, true},
}

// redistribution cost parameters, arbitrary budget units
const (
	costPerPerson     = 100.0
	costPerPersonKm   = 1.0
	adaptationPerHead = 50.0
)

// kmPerCoordUnit scales schematic map units to kilometers.
const kmPerCoordUnit = 15.0

// GenerateSuggestions pairs every overloaded province (positive deficit,
// critical/overloaded status, descending priority) with every underutilized
// one (surplus, ascending utilization) and proposes a bounded transfer for
// each viable pair: at most 30% of the source surplus, covering at most 50%
// of the target deficit. Results are sorted by priority, then impact.
func (a *Analyzer) GenerateSuggestions(analyses []model.CapacityAnalysis) []model.RedistributionSuggestion {
	var overloaded, underutilized []model.CapacityAnalysis
	for _, ca := range analyses {
		switch {
		case ca.PersonnelDifference > 0 && (ca.Status == model.CapacityCritical || ca.Status == model.CapacityOverloaded):
			overloaded = append(overloaded, ca)
		case ca.PersonnelDifference < 0 && ca.Status == model.CapacityUnderutilized:
			underutilized = append(underutilized, ca)
		}
	}
	sort.SliceStable(overloaded, func(i, j int) bool { return overloaded[i].Priority > overloaded[j].Priority })
	sort.SliceStable(underutilized, func(i, j int) bool {
		return underutilized[i].UtilizationRate < underutilized[j].UtilizationRate
	})

	var out []model.RedistributionSuggestion
	for _, target := range overloaded {
		for _, source := range underutilized {
			surplus := -source.PersonnelDifference
			deficit := target.PersonnelDifference
			amount := min(int(math.Floor(float64(surplus)*0.3)), int(math.Ceil(float64(deficit)*0.5)))
			if amount <= 0 {
				continue
			}

			distance := provinceDistanceKm(source.ProvinceID, target.ProvinceID)
			out = append(out, model.RedistributionSuggestion{
				ID:                   "sugg-" + uuid.New().String(),
				FromProvince:         source.ProvinceID,
				ToProvince:           target.ProvinceID,
				TotalPersonnel:       amount,
				PersonnelBreakdown:   breakdown(amount),
				Reason:               a.transferReason(target, source),
				Priority:             target.Priority,
				ImpactScore:          a.impactScore(amount, target, distance),
				DistanceKm:           distance,
				EstimatedImprovement: a.expectedImprovement(target, amount),
				CurrentUtilization:   target.UtilizationRate,
				ProjectedUtilization: a.projectedUtilization(target, amount),
				Cost:                 estimateCost(amount, distance),
				Timestamp:            time.Now().UTC(),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ImpactScore > out[j].ImpactScore
	})
	return out
}

// ValidateRedistribution checks a proposed transfer against the source
// province: never more than 30% of its current headcount, and never enough
// to push the source itself to critical utilization. Returns a structured
// rejection reason instead of an error.
func (a *Analyzer) ValidateRedistribution(s model.RedistributionSuggestion, source model.CapacityAnalysis) (bool, string) {
	maxTransfer := int(math.Floor(float64(source.CurrentPersonnel) * 0.3))
	if s.TotalPersonnel > maxTransfer {
		return false, fmt.Sprintf("cannot transfer more than 30%% of personnel from %s (max %d)",
			model.ProvinceName(s.FromProvince), maxTransfer)
	}

	remaining := source.CurrentPersonnel - s.TotalPersonnel
	newRho := math.Inf(1)
	if remaining > 0 {
		newRho = source.EmergenciesPerHour / (float64(remaining) * a.serviceRate())
	}
	if newRho >= a.CriticalUtilization {
		return false, fmt.Sprintf("transfer would leave %s overloaded (%.1f%% utilization)",
			model.ProvinceName(s.FromProvince), newRho*100)
	}
	return true, ""
}

func provinceDistanceKm(fromID, toID string) float64 {
	p1, ok1 := model.ProvinceByID(fromID)
	p2, ok2 := model.ProvinceByID(toID)
	if !ok1 || !ok2 {
		return 500 // unknown province, assume a long haul
	}
	dx := p1.Coord.X - p2.Coord.X
	dy := p1.Coord.Y - p2.Coord.Y
	return math.Sqrt(dx*dx+dy*dy) * kmPerCoordUnit
}

// impactScore weighs utilization relief (40), target priority (30), deficit
// coverage (20) and proximity (10) into a 0-100 score.
func (a *Analyzer) impactScore(amount int, target model.CapacityAnalysis, distanceKm float64) float64 {
	utilizationReduction := (target.UtilizationRate - a.OptimalUtilization*100) / 100
	utilizationScore := math.Min(40, utilizationReduction*40)

	priorityScore := float64(target.Priority) / 10 * 30

	coverageScore := 0.0
	if target.PersonnelDifference > 0 {
		coverageScore = math.Min(20, float64(amount)/float64(target.PersonnelDifference)*20)
	}

	distanceScore := math.Max(0, 10-distanceKm/100)

	total := utilizationScore + priorityScore + coverageScore + distanceScore
	return math.Max(0, math.Min(100, total))
}

func breakdown(total int) map[string]int {
	out := make(map[string]int, len(breakdownShares))
	for _, bs := range breakdownShares {
		n := float64(total) * bs.share
		if bs.floor {
			out[bs.category] = int(math.Floor(n))
		} else {
			out[bs.category] = int(math.Ceil(n))
		}
	}
	return out
}

func (a *Analyzer) transferReason(target, source model.CapacityAnalysis) string {
	var reasons []string
	switch {
	case target.UtilizationRate >= 100:
		reasons = append(reasons, fmt.Sprintf("system collapse in %s (%.1f%% utilization)",
			model.ProvinceName(target.ProvinceID), target.UtilizationRate))
	case target.UtilizationRate >= 90:
		reasons = append(reasons, fmt.Sprintf("severe overload in %s (%.1f%% utilization)",
			model.ProvinceName(target.ProvinceID), target.UtilizationRate))
	default:
		reasons = append(reasons, fmt.Sprintf("resource optimization in %s", model.ProvinceName(target.ProvinceID)))
	}
	if target.Queue.AvgWaitTimeMinutes > 10 {
		reasons = append(reasons, fmt.Sprintf("critical wait time: %.1f minutes", target.Queue.AvgWaitTimeMinutes))
	}
	if source.UtilizationRate < 40 {
		reasons = append(reasons, fmt.Sprintf("%s has spare capacity (%.1f%% utilization)",
			model.ProvinceName(source.ProvinceID), source.UtilizationRate))
	}
	return strings.Join(reasons, ". ")
}

func (a *Analyzer) expectedImprovement(target model.CapacityAnalysis, amount int) float64 {
	if target.UtilizationRate == 0 {
		return 0
	}
	projected := a.projectedUtilization(target, amount)
	return (target.UtilizationRate - projected) / target.UtilizationRate * 100
}

func (a *Analyzer) projectedUtilization(target model.CapacityAnalysis, additional int) float64 {
	personnel := target.CurrentPersonnel + additional
	if personnel < 1 {
		personnel = 1
	}
	return target.EmergenciesPerHour / (float64(personnel) * a.serviceRate()) * 100
}

func estimateCost(personnel int, distanceKm float64) float64 {
	n := float64(personnel)
	return n*costPerPerson + n*distanceKm*costPerPersonKm + n*adaptationPerHead
}
