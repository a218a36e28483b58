package model

import "time"

// Core domain types for the ECU 911 capacity simulation.

// AgentStatus enumerates the lifecycle states of a responder.
type AgentStatus string

const (
	AgentAvailable  AgentStatus = "available"
	AgentBusy       AgentStatus = "busy"
	AgentResponding AgentStatus = "responding"
	AgentRelocating AgentStatus = "relocating"
)

// EmergencyStatus enumerates emergency lifecycle states. "responding" is an
// alias state kept for compatibility with external renderers.
type EmergencyStatus string

const (
	EmergencyPending    EmergencyStatus = "pending"
	EmergencyAssigned   EmergencyStatus = "assigned"
	EmergencyResponding EmergencyStatus = "responding"
	EmergencyResolved   EmergencyStatus = "resolved"
)

// Point is a schematic 2D coordinate on the national map layout. It is not a
// geographic lat/lng pair; one unit is roughly 15 km.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Province is immutable reference data loaded once at start.
type Province struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Coord      Point  `json:"coordinates"`
	Population int    `json:"population"`
}

// ServiceType is one of the seven canonical emergency categories.
type ServiceType struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`    // empirical incident count for the reference period
	Priority int    `json:"priority"` // 1 = highest
}

// Agent is a single responder. Relocation fields are set only while the
// agent status is relocating.
type Agent struct {
	ID          string      `json:"id"`
	ServiceType string      `json:"type"`
	Status      AgentStatus `json:"status"`
	Province    string      `json:"province"`
	Position    Point       `json:"position"`
	Name        string      `json:"name,omitempty"`
	Badge       string      `json:"badge,omitempty"`
	EmergencyID string      `json:"emergencyId,omitempty"`

	RelocatingFrom     string  `json:"relocatingFrom,omitempty"`
	RelocatingTo       string  `json:"relocatingTo,omitempty"`
	RelocatingProgress float64 `json:"relocatingProgress,omitempty"` // 0..1
}

// Emergency is a single synthesized incident. Resolved emergencies move to a
// resolved collection and are never deleted within a session.
type Emergency struct {
	ID            string          `json:"id"`
	ServiceType   string          `json:"type"`
	Subtype       string          `json:"subtype"`
	Province      string          `json:"province"`
	Canton        string          `json:"canton"`
	Parish        string          `json:"parroquia"`
	Timestamp     time.Time       `json:"timestamp"` // simulated clock, not wall clock
	Status        EmergencyStatus `json:"status"`
	Priority      int             `json:"priority"`
	AssignedAgent string          `json:"assignedAgent,omitempty"`
}

// IncidentRecord is one row of the optional historical incident dataset.
type IncidentRecord struct {
	Date        string `json:"fecha"`
	Province    string `json:"provincia"`
	Canton      string `json:"canton"`
	ParishCode  string `json:"codParroquia"`
	Parish      string `json:"parroquia"`
	ServiceType string `json:"tipoServicio"`
	Subtype     string `json:"subtipo"`
	DayOfWeek   string `json:"diaSemana"`
	DayOfMonth  int    `json:"diaMes"`
	Month       int    `json:"mes"` // 1-12
	Year        int    `json:"anio"`
}

// PersonnelByProvince holds per-province headcounts across the fixed
// personnel categories, as parsed from the personnel dataset.
type PersonnelByProvince struct {
	Province        string `json:"provincia"`
	Operators       int    `json:"personal_ecu911"`
	NationalPolice  int    `json:"policia_nacional"`
	ArmedForces     int    `json:"fuerzas_armadas"`
	Medical         int    `json:"medicos_msp_iess"`
	Firefighters    int    `json:"bomberos"`
	TrafficPolice   int    `json:"personal_transito"`
	RedCross        int    `json:"cruz_roja"`
	MunicipalAgents int    `json:"agentes_municipales"`
	Total           int    `json:"total_personal"`
	Notes           string `json:"notas,omitempty"`
}

// Category returns the count for a personnel category id, zero if unknown.
func (p PersonnelByProvince) Category(id string) int {
	switch id {
	case CategoryOperators:
		return p.Operators
	case CategoryNationalPolice:
		return p.NationalPolice
	case CategoryArmedForces:
		return p.ArmedForces
	case CategoryMedical:
		return p.Medical
	case CategoryFirefighters:
		return p.Firefighters
	case CategoryTrafficPolice:
		return p.TrafficPolice
	case CategoryRedCross:
		return p.RedCross
	case CategoryMunicipalAgents:
		return p.MunicipalAgents
	}
	return 0
}

// QueueAnalysis is the output of the M/M/c model for one province.
type QueueAnalysis struct {
	UtilizationFactor     float64 `json:"utilizationFactor"` // rho
	UtilizationPercentage float64 `json:"utilizationPercentage"`
	ProbabilityOfWaiting  float64 `json:"probabilityOfWaiting"` // Erlang-C
	AvgWaitTimeMinutes    float64 `json:"avgWaitTimeMinutes"`   // Wq
	AvgSystemTimeMinutes  float64 `json:"avgSystemTimeMinutes"` // W
	AvgQueueLength        float64 `json:"avgQueueLength"`       // Lq
	AvgSystemLength       float64 `json:"avgSystemLength"`      // L
	IsOverloaded          bool    `json:"isOverloaded"`
	IsCritical            bool    `json:"isCritical"`
	IsOptimal             bool    `json:"isOptimal"`
	IsUnderutilized       bool    `json:"isUnderutilized"`
	RecommendedPersonnel  int     `json:"recommendedPersonnel"`
}

// CapacityStatus classifies a province's load.
type CapacityStatus string

const (
	CapacityCritical      CapacityStatus = "critical"
	CapacityOverloaded    CapacityStatus = "overloaded"
	CapacityOptimal       CapacityStatus = "optimal"
	CapacityUnderutilized CapacityStatus = "underutilized"
)

// CapacityAnalysis is the per-province capacity view, recomputed per pass.
type CapacityAnalysis struct {
	ProvinceID              string         `json:"provinceId"`
	CurrentPersonnel        int            `json:"currentPersonnel"`
	RecommendedPersonnel    int            `json:"recommendedPersonnel"`
	PersonnelDifference     int            `json:"personnelDifference"` // recommended - current
	UtilizationRate         float64        `json:"utilizationRate"`     // percent
	EmergenciesPerHour      float64        `json:"emergenciesPerHour"`
	EmergenciesLast24h      int            `json:"emergenciesLast24h"`
	EmergenciesPer100k      float64        `json:"emergenciesPer100k"`
	PersonnelPer100k        float64        `json:"personnelPer100k"`
	EmergenciesPerPersonnel float64        `json:"emergenciesPerPersonnel"`
	AvgResponseTimeMinutes  float64        `json:"avgResponseTimeMinutes"`
	Queue                   QueueAnalysis  `json:"queueAnalysis"`
	Status                  CapacityStatus `json:"status"`
	Priority                int            `json:"priority"` // 1-10
}

// RedistributionSuggestion proposes moving personnel between two provinces.
type RedistributionSuggestion struct {
	ID                   string         `json:"id"`
	FromProvince         string         `json:"fromProvince"`
	ToProvince           string         `json:"toProvince"`
	TotalPersonnel       int            `json:"totalPersonnel"`
	PersonnelBreakdown   map[string]int `json:"personnelBreakdown"`
	Reason               string         `json:"reason"`
	Priority             int            `json:"priority"`
	ImpactScore          float64        `json:"impactScore"` // 0-100
	DistanceKm           float64        `json:"distanceKm"`
	EstimatedImprovement float64        `json:"estimatedImprovementPercentage"`
	CurrentUtilization   float64        `json:"currentUtilization"`
	ProjectedUtilization float64        `json:"projectedUtilization"`
	Cost                 float64        `json:"cost"`
	Timestamp            time.Time      `json:"timestamp"`
}

// AlertSeverity levels, highest first.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityHigh     AlertSeverity = "high"
	SeverityMedium   AlertSeverity = "medium"
	SeverityLow      AlertSeverity = "low"
)

// AlertType taxonomy produced by the rule engine.
type AlertType string

const (
	AlertCapacityCritical      AlertType = "capacity_critical"
	AlertCapacityOverload      AlertType = "capacity_overload"
	AlertCapacityWarning       AlertType = "capacity_warning"
	AlertCapacityUnderutilized AlertType = "capacity_underutilized"
	AlertResponseTimeHigh      AlertType = "response_time_high"
	AlertRedistribution        AlertType = "redistribution_suggested"
)

// Alert is a single notification emitted by the alert system.
type Alert struct {
	ID             string         `json:"id"`
	Type           AlertType      `json:"type"`
	Severity       AlertSeverity  `json:"severity"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	ProvinceID     string         `json:"provinceId,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	Acknowledged   bool           `json:"acknowledged"`
	AcknowledgedAt *time.Time     `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy string         `json:"acknowledgedBy,omitempty"`
	Resolved       bool           `json:"resolved"`
	ResolvedAt     *time.Time     `json:"resolvedAt,omitempty"`
	ResolvedReason string         `json:"resolvedReason,omitempty"`
	ResolvedBy     string         `json:"resolvedBy,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

// ProvinceStats aggregates per-province counters maintained by the engine.
type ProvinceStats struct {
	Province        string         `json:"province"`
	Emergencies     int            `json:"emergencies"`
	Agents          int            `json:"agents"`
	AvgResponseTime float64        `json:"avgResponseTime"`
	ByType          map[string]int `json:"byType"`
}

// SimulationState is the full read-only snapshot handed to subscribers.
// Subscribers must not mutate it; every field is a copy.
type SimulationState struct {
	CurrentTime         time.Time       `json:"currentTime"`
	TotalEmergencies    int             `json:"totalEmergencies"`
	ResolvedEmergencies int             `json:"resolvedEmergencies"`
	ActiveEmergencies   []Emergency     `json:"activeEmergencies"`
	Agents              []Agent         `json:"agents"`
	Statistics          []ProvinceStats `json:"statistics"`
}
