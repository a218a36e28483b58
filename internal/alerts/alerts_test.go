package alerts

import (
	"fmt"
	"testing"
	"time"

	"ecusim/internal/model"
)

func fakeClock(start time.Time) (*time.Time, func() time.Time) {
	t := start
	return &t, func() time.Time { return t }
}

func overloadedProvince(util float64) model.CapacityAnalysis {
	return model.CapacityAnalysis{
		ProvinceID:          "guayas",
		CurrentPersonnel:    40,
		PersonnelDifference: 15,
		UtilizationRate:     util,
		EmergenciesPerHour:  90,
	}
}

func TestEvaluateCapacityRules(t *testing.T) {
	s := NewSystem()
	out := s.EvaluateCapacity(overloadedProvince(105))
	if len(out) != 1 {
		t.Fatalf("got %d alerts, want 1", len(out))
	}
	if out[0].Type != model.AlertCapacityCritical || out[0].Severity != model.SeverityCritical {
		t.Fatalf("wrong alert: %s/%s", out[0].Type, out[0].Severity)
	}

	out = s.EvaluateCapacity(model.CapacityAnalysis{
		ProvinceID:             "pastaza",
		CurrentPersonnel:       50,
		PersonnelDifference:    -30,
		UtilizationRate:        20,
		AvgResponseTimeMinutes: 5,
	})
	if len(out) != 1 || out[0].Type != model.AlertCapacityUnderutilized || out[0].Severity != model.SeverityLow {
		t.Fatalf("expected a single low/underutilized alert, got %+v", out)
	}

	// slow responses escalate to high past 30 minutes
	out = s.EvaluateCapacity(model.CapacityAnalysis{
		ProvinceID:             "azuay",
		CurrentPersonnel:       30,
		UtilizationRate:        60,
		AvgResponseTimeMinutes: 45,
	})
	if len(out) != 1 || out[0].Type != model.AlertResponseTimeHigh || out[0].Severity != model.SeverityHigh {
		t.Fatalf("expected a high response-time alert, got %+v", out)
	}
}

func TestEvaluateSuggestionPriorityGate(t *testing.T) {
	s := NewSystem()
	if a := s.EvaluateSuggestion(model.RedistributionSuggestion{Priority: 6}); a != nil {
		t.Fatal("priority 6 must not raise an alert")
	}
	a := s.EvaluateSuggestion(model.RedistributionSuggestion{
		ID: "sugg-1", FromProvince: "pastaza", ToProvince: "guayas", TotalPersonnel: 5, Priority: 9,
	})
	if a == nil || a.Severity != model.SeverityCritical {
		t.Fatalf("priority 9 should raise a critical alert, got %+v", a)
	}
}

func TestDedupMergesWithinWindow(t *testing.T) {
	now, clk := fakeClock(time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC))
	s := NewSystem().WithClock(clk)

	first := s.EvaluateCapacity(overloadedProvince(105))
	*now = now.Add(2 * time.Minute)
	second := s.EvaluateCapacity(overloadedProvince(112))

	active := s.ActiveAlerts(Filter{})
	if len(active) != 1 {
		t.Fatalf("got %d active alerts, want 1 after merge", len(active))
	}
	if first[0].ID != second[0].ID {
		t.Fatalf("merged evaluation should surface the existing alert id")
	}
	if active[0].Timestamp != *now {
		t.Fatalf("merge should refresh the timestamp")
	}

	// outside the window a fresh alert is raised
	*now = now.Add(6 * time.Minute)
	s.EvaluateCapacity(overloadedProvince(130))
	if got := len(s.ActiveAlerts(Filter{})); got != 2 {
		t.Fatalf("got %d active alerts, want 2 past the dedup window", got)
	}
}

func TestActiveCapOverflowsToHistory(t *testing.T) {
	s := NewSystem()
	for i := 0; i < 60; i++ {
		// distinct types defeat dedup
		a := s.newAlert(model.AlertType(fmt.Sprintf("synthetic-%d", i)), model.SeverityMedium, "guayas",
			fmt.Sprintf("synthetic %d", i), "overflow probe", nil)
		s.add(&a)
	}
	active := s.ActiveAlerts(Filter{})
	if len(active) != maxActiveAlerts {
		t.Fatalf("active = %d, want %d", len(active), maxActiveAlerts)
	}
	if active[0].Type != "synthetic-59" {
		t.Fatalf("newest alert should lead, got %s", active[0].Type)
	}
	if got := len(s.History(0)); got != 10 {
		t.Fatalf("history = %d, want 10 overflowed", got)
	}
}

func TestAcknowledgeAndResolve(t *testing.T) {
	s := NewSystem()
	out := s.EvaluateCapacity(overloadedProvince(105))
	id := out[0].ID

	if !s.Acknowledge(id, "op-1") {
		t.Fatal("acknowledge failed")
	}
	active := s.ActiveAlerts(Filter{})
	if !active[0].Acknowledged || active[0].AcknowledgedBy != "op-1" {
		t.Fatalf("ack not recorded: %+v", active[0])
	}

	if !s.Resolve(id, "handled", "op-1") {
		t.Fatal("resolve failed")
	}
	if len(s.ActiveAlerts(Filter{})) != 0 {
		t.Fatal("resolved alert still active")
	}
	hist := s.History(0)
	if len(hist) != 1 || !hist[0].Resolved || hist[0].ResolvedReason != "handled" {
		t.Fatalf("resolution not in history: %+v", hist)
	}

	if s.Resolve("alert-missing", "x", "y") {
		t.Fatal("resolving an unknown id should fail")
	}
}

func TestResolveProvince(t *testing.T) {
	s := NewSystem()
	s.EvaluateCapacity(overloadedProvince(105))
	s.EvaluateCapacity(model.CapacityAnalysis{
		ProvinceID: "guayas", CurrentPersonnel: 40, UtilizationRate: 60, AvgResponseTimeMinutes: 20,
	})
	s.EvaluateCapacity(model.CapacityAnalysis{
		ProvinceID: "azuay", CurrentPersonnel: 30, UtilizationRate: 95, PersonnelDifference: 5,
	})

	if n := s.ResolveProvince("guayas", "shift change"); n != 2 {
		t.Fatalf("resolved %d guayas alerts, want 2", n)
	}
	remaining := s.ActiveAlerts(Filter{})
	if len(remaining) != 1 || remaining[0].ProvinceID != "azuay" {
		t.Fatalf("azuay alert should survive, got %+v", remaining)
	}
}

func TestAutoExpiry(t *testing.T) {
	now, clk := fakeClock(time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC))
	s := NewSystem().WithClock(clk)

	s.EvaluateCapacity(overloadedProvince(105))
	*now = now.Add(alertTTL + time.Minute)

	// expiry runs on the next insert
	s.EvaluateCapacity(model.CapacityAnalysis{
		ProvinceID: "azuay", CurrentPersonnel: 30, UtilizationRate: 95, PersonnelDifference: 5,
	})

	active := s.ActiveAlerts(Filter{})
	if len(active) != 1 || active[0].ProvinceID != "azuay" {
		t.Fatalf("stale alert should have expired, active: %+v", active)
	}
	hist := s.History(0)
	if len(hist) != 1 || hist[0].ResolvedReason != "auto-expired" {
		t.Fatalf("expired alert missing from history: %+v", hist)
	}
}

func TestListenerPanicIsolation(t *testing.T) {
	s := NewSystem()
	got := make(chan model.Alert, 1)
	s.Subscribe(func(model.Alert) { panic("boom") })
	unsub := s.Subscribe(func(a model.Alert) { got <- a })
	defer unsub()

	s.EvaluateCapacity(overloadedProvince(105))
	select {
	case a := <-got:
		if a.Type != model.AlertCapacityCritical {
			t.Fatalf("unexpected alert: %s", a.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("surviving listener never notified")
	}
}

func TestFilterAndStatistics(t *testing.T) {
	s := NewSystem()
	s.EvaluateCapacity(overloadedProvince(105))
	s.EvaluateCapacity(model.CapacityAnalysis{
		ProvinceID: "azuay", CurrentPersonnel: 30, UtilizationRate: 95, PersonnelDifference: 5,
	})

	if got := s.ActiveAlerts(Filter{ProvinceID: "azuay"}); len(got) != 1 {
		t.Fatalf("province filter returned %d alerts", len(got))
	}
	if got := s.ActiveAlerts(Filter{Severity: model.SeverityCritical}); len(got) != 1 {
		t.Fatalf("severity filter returned %d alerts", len(got))
	}

	st := s.GetStatistics()
	if st.Total != 2 || st.Critical != 1 || st.High != 1 {
		t.Fatalf("bad statistics: %+v", st)
	}
	if st.ByProvince["guayas"] != 1 || st.ByProvince["azuay"] != 1 {
		t.Fatalf("bad per-province counts: %+v", st.ByProvince)
	}
	if st.Unacknowledged != 2 {
		t.Fatalf("unacknowledged = %d, want 2", st.Unacknowledged)
	}
}
