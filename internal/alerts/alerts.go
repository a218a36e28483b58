package alerts

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ecusim/internal/metrics"
	"ecusim/internal/model"
)

const (
	maxActiveAlerts = 50
	historyCap      = 200
	dedupWindow     = 5 * time.Minute
	alertTTL        = 60 * time.Minute

	responseTimeTargetMinutes = 15.0
)

// Listener receives every newly inserted (non-duplicate) alert.
type Listener func(model.Alert)

// System is the alert rule engine: it evaluates capacity analyses and
// redistribution suggestions, dedupes near-identical alerts, expires stale
// ones and fans new alerts out to subscribers.
type System struct {
	mu        sync.Mutex
	active    []model.Alert // newest first
	history   []model.Alert // newest first
	listeners map[int]Listener
	nextSub   int
	now       func() time.Time
}

// NewSystem returns an empty alert system using wall-clock time. Tests can
// swap the clock with WithClock.
func NewSystem() *System {
	return &System{listeners: map[int]Listener{}, now: time.Now}
}

// WithClock replaces the time source used for timestamps, dedup windows and
// expiry. Returns the system for chaining.
func (s *System) WithClock(now func() time.Time) *System {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

// EvaluateCapacity applies the threshold rules to one capacity analysis and
// inserts any triggered alerts. The returned slice holds the alerts as
// evaluated, whether inserted fresh or merged into an existing one.
func (s *System) EvaluateCapacity(ca model.CapacityAnalysis) []model.Alert {
	name := model.ProvinceName(ca.ProvinceID)
	var out []model.Alert

	switch {
	case ca.UtilizationRate >= 100:
		out = append(out, s.newAlert(model.AlertCapacityCritical, model.SeverityCritical, ca.ProvinceID,
			fmt.Sprintf("System collapse in %s", name),
			fmt.Sprintf("%s is at %.1f%% utilization; %d additional personnel required urgently. Average wait: %.1f minutes.",
				name, ca.UtilizationRate, ca.PersonnelDifference, ca.AvgResponseTimeMinutes),
			map[string]any{
				"utilizationRate":    ca.UtilizationRate,
				"personnelNeeded":    ca.PersonnelDifference,
				"currentPersonnel":   ca.CurrentPersonnel,
				"emergenciesPerHour": ca.EmergenciesPerHour,
			}))
	case ca.UtilizationRate >= 90:
		out = append(out, s.newAlert(model.AlertCapacityOverload, model.SeverityHigh, ca.ProvinceID,
			fmt.Sprintf("Overload in %s", name),
			fmt.Sprintf("%s is operating at %.1f%% capacity; redistributing %d personnel is recommended. Current wait: %.1f minutes.",
				name, ca.UtilizationRate, ca.PersonnelDifference, ca.AvgResponseTimeMinutes),
			map[string]any{
				"utilizationRate":      ca.UtilizationRate,
				"personnelRecommended": ca.PersonnelDifference,
				"currentPersonnel":     ca.CurrentPersonnel,
			}))
	case ca.UtilizationRate >= 80:
		out = append(out, s.newAlert(model.AlertCapacityWarning, model.SeverityMedium, ca.ProvinceID,
			fmt.Sprintf("Limited capacity in %s", name),
			fmt.Sprintf("%s is near its capacity limit (%.1f%%); consider preparing a transfer of %d personnel.",
				name, ca.UtilizationRate, ca.PersonnelDifference),
			map[string]any{
				"utilizationRate":      ca.UtilizationRate,
				"personnelRecommended": ca.PersonnelDifference,
			}))
	}

	if ca.AvgResponseTimeMinutes > responseTimeTargetMinutes {
		sev := model.SeverityMedium
		if ca.AvgResponseTimeMinutes > 30 {
			sev = model.SeverityHigh
		}
		out = append(out, s.newAlert(model.AlertResponseTimeHigh, sev, ca.ProvinceID,
			fmt.Sprintf("Elevated response time in %s", name),
			fmt.Sprintf("Average response time in %s is %.1f minutes, above the %d minute target.",
				name, ca.AvgResponseTimeMinutes, int(responseTimeTargetMinutes)),
			map[string]any{
				"avgResponseTime":    ca.AvgResponseTimeMinutes,
				"targetResponseTime": responseTimeTargetMinutes,
			}))
	}

	if ca.UtilizationRate < 40 && ca.CurrentPersonnel > 10 {
		surplus := ca.PersonnelDifference
		if surplus < 0 {
			surplus = -surplus
		}
		out = append(out, s.newAlert(model.AlertCapacityUnderutilized, model.SeverityLow, ca.ProvinceID,
			fmt.Sprintf("Underutilized resources in %s", name),
			fmt.Sprintf("%s is at only %.1f%% utilization; %d personnel could be redistributed elsewhere.",
				name, ca.UtilizationRate, surplus),
			map[string]any{
				"utilizationRate": ca.UtilizationRate,
				"excessPersonnel": surplus,
			}))
	}

	for i := range out {
		s.add(&out[i])
	}
	return out
}

// EvaluateSuggestion raises an alert for high-priority redistribution
// suggestions only (priority >= 7). Returns nil otherwise.
func (s *System) EvaluateSuggestion(sg model.RedistributionSuggestion) *model.Alert {
	if sg.Priority < 7 {
		return nil
	}
	sev := model.SeverityMedium
	switch {
	case sg.Priority >= 9:
		sev = model.SeverityCritical
	case sg.Priority >= 8:
		sev = model.SeverityHigh
	}

	a := s.newAlert(model.AlertRedistribution, sev, sg.ToProvince,
		fmt.Sprintf("Redistribution recommended: %s -> %s",
			model.ProvinceName(sg.FromProvince), model.ProvinceName(sg.ToProvince)),
		fmt.Sprintf("%s. Transfer of %d personnel recommended. Expected improvement: %.1f%%. Distance: %.0f km.",
			sg.Reason, sg.TotalPersonnel, sg.EstimatedImprovement, sg.DistanceKm),
		map[string]any{
			"suggestionId": sg.ID,
			"fromProvince": sg.FromProvince,
			"toProvince":   sg.ToProvince,
			"personnel":    sg.TotalPersonnel,
			"breakdown":    sg.PersonnelBreakdown,
			"impactScore":  sg.ImpactScore,
			"priority":     sg.Priority,
		})
	s.add(&a)
	return &a
}

func (s *System) newAlert(t model.AlertType, sev model.AlertSeverity, provinceID, title, message string, data map[string]any) model.Alert {
	return model.Alert{
		ID:         "alert-" + uuid.New().String(),
		Type:       t,
		Severity:   sev,
		Title:      title,
		Message:    message,
		ProvinceID: provinceID,
		Timestamp:  s.clock(),
		Data:       data,
	}
}

func (s *System) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// add inserts an alert, merging into an unresolved alert of the same type
// and province raised within the dedup window instead of duplicating.
// Merged alerts do not re-notify subscribers; repeated per-tick evaluation
// would otherwise storm them.
func (s *System) add(a *model.Alert) {
	s.mu.Lock()
	now := s.now()

	for i := range s.active {
		ex := &s.active[i]
		if ex.Type == a.Type && ex.ProvinceID == a.ProvinceID && !ex.Resolved &&
			now.Sub(ex.Timestamp) < dedupWindow {
			ex.Message = a.Message
			ex.Data = a.Data
			ex.Timestamp = a.Timestamp
			*a = *ex
			s.expireLocked(now)
			s.mu.Unlock()
			return
		}
	}

	s.active = append([]model.Alert{*a}, s.active...)
	if len(s.active) > maxActiveAlerts {
		overflow := append([]model.Alert(nil), s.active[maxActiveAlerts:]...)
		s.active = s.active[:maxActiveAlerts]
		s.history = append(overflow, s.history...)
	}
	s.expireLocked(now)
	s.trimHistoryLocked()
	s.syncGaugeLocked()

	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	notify := *a
	s.mu.Unlock()

	for _, l := range listeners {
		safeNotify(l, notify)
	}
}

// safeNotify isolates panicking listeners so the rest still get the alert.
func safeNotify(l Listener, a model.Alert) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("alerts: listener panic: %v", r)
		}
	}()
	l(a)
}

// expireLocked resolves unresolved alerts older than the TTL and moves them
// to history. Caller holds the lock.
func (s *System) expireLocked(now time.Time) {
	kept := s.active[:0]
	for _, a := range s.active {
		if !a.Resolved && now.Sub(a.Timestamp) > alertTTL {
			t := now
			a.Resolved = true
			a.ResolvedAt = &t
			a.ResolvedReason = "auto-expired"
			s.history = append([]model.Alert{a}, s.history...)
			continue
		}
		kept = append(kept, a)
	}
	s.active = kept
}

func (s *System) trimHistoryLocked() {
	if len(s.history) > historyCap {
		s.history = s.history[:historyCap]
	}
}

// Acknowledge marks an active alert as acknowledged. Returns false when the
// alert does not exist; acknowledging twice is a no-op that still succeeds.
func (s *System) Acknowledge(alertID, by string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.active {
		if s.active[i].ID == alertID {
			t := s.now()
			s.active[i].Acknowledged = true
			s.active[i].AcknowledgedAt = &t
			s.active[i].AcknowledgedBy = by
			return true
		}
	}
	return false
}

// Resolve closes an active alert and moves it to history. Returns false
// when the alert does not exist.
func (s *System) Resolve(alertID, reason, by string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(alertID, reason, by)
}

func (s *System) resolveLocked(alertID, reason, by string) bool {
	for i := range s.active {
		if s.active[i].ID != alertID {
			continue
		}
		a := s.active[i]
		t := s.now()
		a.Resolved = true
		a.ResolvedAt = &t
		a.ResolvedReason = reason
		a.ResolvedBy = by
		s.active = append(s.active[:i], s.active[i+1:]...)
		s.history = append([]model.Alert{a}, s.history...)
		s.trimHistoryLocked()
		s.syncGaugeLocked()
		return true
	}
	return false
}

// syncGaugeLocked refreshes the exported active-alert gauge. Caller holds
// the lock.
func (s *System) syncGaugeLocked() {
	counts := map[model.AlertSeverity]int{}
	for _, a := range s.active {
		counts[a.Severity]++
	}
	for _, sev := range []model.AlertSeverity{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
		metrics.ActiveAlerts.WithLabelValues(string(sev)).Set(float64(counts[sev]))
	}
}

// ResolveProvince resolves every active alert for a province, returning how
// many were closed.
func (s *System) ResolveProvince(provinceID, reason string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, a := range s.active {
		if a.ProvinceID == provinceID {
			ids = append(ids, a.ID)
		}
	}
	for _, id := range ids {
		s.resolveLocked(id, reason, "")
	}
	return len(ids)
}

// Filter narrows ActiveAlerts; zero values match everything.
type Filter struct {
	Severity   model.AlertSeverity
	Type       model.AlertType
	ProvinceID string
}

// ActiveAlerts returns the unresolved alerts, newest first, optionally
// filtered.
func (s *System) ActiveAlerts(f Filter) []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Alert
	for _, a := range s.active {
		if a.Resolved {
			continue
		}
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.ProvinceID != "" && a.ProvinceID != f.ProvinceID {
			continue
		}
		out = append(out, a)
	}
	return out
}

// History returns up to limit alerts from the history buffer, newest first.
func (s *System) History(limit int) []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	return append([]model.Alert(nil), s.history[:limit]...)
}

// Statistics aggregates the active list on demand; nothing is cached.
type Statistics struct {
	Total          int                     `json:"total"`
	Critical       int                     `json:"critical"`
	High           int                     `json:"high"`
	Medium         int                     `json:"medium"`
	Low            int                     `json:"low"`
	ByType         map[model.AlertType]int `json:"byType"`
	ByProvince     map[string]int          `json:"byProvince"`
	Acknowledged   int                     `json:"acknowledged"`
	Unacknowledged int                     `json:"unacknowledged"`
}

// GetStatistics computes counts by severity, type, province and
// acknowledgement over the active alerts.
func (s *System) GetStatistics() Statistics {
	active := s.ActiveAlerts(Filter{})
	st := Statistics{
		Total:      len(active),
		ByType:     map[model.AlertType]int{},
		ByProvince: map[string]int{},
	}
	for _, a := range active {
		switch a.Severity {
		case model.SeverityCritical:
			st.Critical++
		case model.SeverityHigh:
			st.High++
		case model.SeverityMedium:
			st.Medium++
		case model.SeverityLow:
			st.Low++
		}
		st.ByType[a.Type]++
		if a.ProvinceID != "" {
			st.ByProvince[a.ProvinceID]++
		}
		if a.Acknowledged {
			st.Acknowledged++
		} else {
			st.Unacknowledged++
		}
	}
	return st
}

// Subscribe registers a listener for newly inserted alerts and returns an
// unsubscribe func.
func (s *System) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Summary renders a plain-text report of the current alert state.
func (s *System) Summary() string {
	st := s.GetStatistics()
	var b strings.Builder
	fmt.Fprintf(&b, "ECU 911 alert summary\n")
	fmt.Fprintf(&b, "active: %d (critical %d, high %d, medium %d, low %d)\n",
		st.Total, st.Critical, st.High, st.Medium, st.Low)
	fmt.Fprintf(&b, "acknowledged: %d, pending: %d\n", st.Acknowledged, st.Unacknowledged)
	if len(st.ByType) > 0 {
		types := make([]string, 0, len(st.ByType))
		for t := range st.ByType {
			types = append(types, string(t))
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(&b, "  %s: %d\n", t, st.ByType[model.AlertType(t)])
		}
	}
	return b.String()
}
