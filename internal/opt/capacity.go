package opt

import (
	"math"

	"ecusim/internal/model"
)

// AnalyzeProvinceCapacity combines the queueing model with incident-rate and
// density normalization for one province. The arrival rate is the 24h count
// averaged to incidents per hour.
func (a *Analyzer) AnalyzeProvinceCapacity(provinceID string, personnel model.PersonnelByProvince, emergenciesLast24h, population int) model.CapacityAnalysis {
	lambda := float64(emergenciesLast24h) / 24
	current := personnel.Total

	q := a.AnalyzeQueue(lambda, current)
	diff := q.RecommendedPersonnel - current

	ca := model.CapacityAnalysis{
		ProvinceID:             provinceID,
		CurrentPersonnel:       current,
		RecommendedPersonnel:   q.RecommendedPersonnel,
		PersonnelDifference:    diff,
		UtilizationRate:        q.UtilizationPercentage,
		EmergenciesPerHour:     lambda,
		EmergenciesLast24h:     emergenciesLast24h,
		AvgResponseTimeMinutes: q.AvgWaitTimeMinutes + a.TravelTimeMinutes,
		Queue:                  q,
		Status:                 capacityStatus(q),
		Priority:               capacityPriority(q, diff),
	}
	if population > 0 {
		ca.EmergenciesPer100k = float64(emergenciesLast24h) / float64(population) * 100000
		ca.PersonnelPer100k = float64(current) / float64(population) * 100000
	}
	if current > 0 {
		ca.EmergenciesPerPersonnel = float64(emergenciesLast24h) / float64(current)
	}
	return ca
}

func capacityStatus(q model.QueueAnalysis) model.CapacityStatus {
	switch {
	case q.IsOverloaded:
		return model.CapacityOverloaded
	case q.IsCritical:
		return model.CapacityCritical
	case q.IsOptimal:
		return model.CapacityOptimal
	case q.IsUnderutilized:
		return model.CapacityUnderutilized
	}
	return model.CapacityOptimal
}

// capacityPriority derives the 1-10 redistribution priority: a base of 5
// pushed up the utilization ladder and bumped for large absolute deficits
// relative to the recommended headcount.
func capacityPriority(q model.QueueAnalysis, personnelDifference int) int {
	priority := 5
	rho := q.UtilizationFactor
	switch {
	case rho >= 1.0:
		priority = 10
	case rho >= 0.95:
		priority = 9
	case rho >= 0.90:
		priority = 8
	case rho >= 0.80:
		priority = 7
	case rho >= 0.70:
		priority = 6
	case rho < 0.30:
		priority = 3
	case rho < 0.40:
		priority = 4
	}

	if q.RecommendedPersonnel > 0 {
		deficit := math.Abs(float64(personnelDifference)) / float64(q.RecommendedPersonnel)
		if deficit > 0.5 {
			priority += 2
		} else if deficit > 0.3 {
			priority++
		}
	}

	if priority > 10 {
		priority = 10
	}
	if priority < 1 {
		priority = 1
	}
	return priority
}
