package opt

import (
	"math"

	"ecusim/internal/model"
)

// Analyzer implements the M/M/c capacity model and the greedy redistribution
// matcher. Zero value is not usable; construct with NewAnalyzer.
type Analyzer struct {
	ServiceTimeMinutes  float64 // mean service time per incident
	TravelTimeMinutes   float64 // fixed dispatch travel offset
	OptimalUtilization  float64
	CriticalUtilization float64
	MinUtilization      float64
}

// NewAnalyzer returns an analyzer with the standard ECU 911 parameters:
// 25 minute mean service time, 75% target utilization, 90% critical and
// 40% minimum thresholds.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		ServiceTimeMinutes:  25,
		TravelTimeMinutes:   5,
		OptimalUtilization:  0.75,
		CriticalUtilization: 0.90,
		MinUtilization:      0.40,
	}
}

// serviceRate is mu, incidents served per hour per server.
func (a *Analyzer) serviceRate() float64 {
	return 60 / a.ServiceTimeMinutes
}

// maxWaitMinutes caps reported wait times when the system is unstable
// (lambda >= c*mu) and the steady-state formulas do not apply.
const maxWaitMinutes = 120

// AnalyzeQueue evaluates an M/M/c queue with arrival rate lambda
// (incidents/hour) and `servers` parallel servers. An unstable system
// (lambda >= c*mu) is reported as fully overloaded with saturated wait
// metrics instead of dividing by a non-positive denominator.
func (a *Analyzer) AnalyzeQueue(lambda float64, servers int) model.QueueAnalysis {
	mu := a.serviceRate()
	c := servers
	if c < 1 {
		c = 1
	}
	rho := lambda / (float64(c) * mu)

	q := model.QueueAnalysis{
		UtilizationFactor:     rho,
		UtilizationPercentage: rho * 100,
		RecommendedPersonnel:  a.RecommendedServers(lambda),
	}

	if lambda >= float64(c)*mu {
		q.ProbabilityOfWaiting = 1
		q.AvgWaitTimeMinutes = maxWaitMinutes
		q.AvgSystemTimeMinutes = maxWaitMinutes + a.ServiceTimeMinutes
		q.AvgQueueLength = lambda * q.AvgWaitTimeMinutes / 60
		q.AvgSystemLength = lambda * q.AvgSystemTimeMinutes / 60
	} else {
		erlangC := erlangC(lambda, mu, c)
		waitHours := erlangC / (float64(c)*mu - lambda)
		q.ProbabilityOfWaiting = erlangC
		q.AvgWaitTimeMinutes = waitHours * 60
		q.AvgSystemTimeMinutes = q.AvgWaitTimeMinutes + a.ServiceTimeMinutes
		q.AvgQueueLength = lambda * waitHours
		q.AvgSystemLength = lambda * q.AvgSystemTimeMinutes / 60
	}

	q.IsOverloaded = rho >= 1.0
	q.IsCritical = rho >= a.CriticalUtilization
	q.IsOptimal = rho >= a.MinUtilization && rho <= a.OptimalUtilization
	q.IsUnderutilized = rho < a.MinUtilization
	return q
}

// erlangC computes the Erlang-C probability of waiting. The offered-load
// powers and factorials are accumulated iteratively so large server counts
// do not overflow float64.
func erlangC(lambda, mu float64, c int) float64 {
	offered := lambda / mu

	sum := 1.0  // n = 0 term
	term := 1.0 // offered^n / n!
	for n := 1; n < c; n++ {
		term *= offered / float64(n)
		sum += term
	}
	term *= offered / float64(c) // offered^c / c!

	cmu := float64(c) * mu
	last := term * cmu / (cmu - lambda)
	p0 := 1 / (sum + last)
	return term * p0 / (1 - lambda/cmu)
}

// RecommendedServers returns the smallest server count keeping utilization
// at or below the optimal target, never less than one.
func (a *Analyzer) RecommendedServers(lambda float64) int {
	n := int(math.Ceil(lambda / (a.serviceRate() * a.OptimalUtilization)))
	if n < 1 {
		n = 1
	}
	return n
}
