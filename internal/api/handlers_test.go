package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ecusim/internal/config"
	"ecusim/internal/model"
	"ecusim/internal/sim"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{Port: "0"}
	cfg.Sim.TickMs = 1000
	engine := sim.New(sim.Params{Seed: 11, EmergencyRate: 2, ResolutionRate: 0.5})
	return NewServer(cfg, engine)
}

func TestSimTickHandler(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/sim/tick", strings.NewReader(`{"deltaMs":1000,"ticks":5}`))
	w := httptest.NewRecorder()
	s.SimTickHandler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		TotalEmergencies int `json:"totalEmergencies"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalEmergencies != 5 {
		t.Fatalf("total = %d, want one per tick", resp.TotalEmergencies)
	}

	w = httptest.NewRecorder()
	s.SimTickHandler(w, httptest.NewRequest(http.MethodGet, "/v1/sim/tick", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET should be rejected, got %d", w.Code)
	}
}

func TestSimStateHandler(t *testing.T) {
	s := testServer(t)
	s.Engine.Tick(1000)
	w := httptest.NewRecorder()
	s.SimStateHandler(w, httptest.NewRequest(http.MethodGet, "/v1/sim/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var st model.SimulationState
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if len(st.Agents) == 0 || st.TotalEmergencies != 1 {
		t.Fatalf("unexpected state: %d agents, %d emergencies", len(st.Agents), st.TotalEmergencies)
	}
}

func TestSimControlHandler(t *testing.T) {
	s := testServer(t)
	defer s.Runner.Stop()

	w := httptest.NewRecorder()
	s.SimControlHandler(w, httptest.NewRequest(http.MethodPost, "/v1/sim/control", strings.NewReader(`{"action":"start"}`)))
	if w.Code != http.StatusOK || !s.Runner.Running() {
		t.Fatalf("start failed: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	s.SimControlHandler(w, httptest.NewRequest(http.MethodPost, "/v1/sim/control", strings.NewReader(`{"action":"speed","speed":10}`)))
	if w.Code != http.StatusOK || s.Runner.Speed() != 10 {
		t.Fatalf("speed change failed: %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.SimControlHandler(w, httptest.NewRequest(http.MethodPost, "/v1/sim/control", strings.NewReader(`{"action":"stop"}`)))
	if w.Code != http.StatusOK || s.Runner.Running() {
		t.Fatalf("stop failed: %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.SimControlHandler(w, httptest.NewRequest(http.MethodPost, "/v1/sim/control", strings.NewReader(`{"action":"warp"}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown action accepted: %d", w.Code)
	}
}

func TestPersonnelHandlerRoundTrip(t *testing.T) {
	s := testServer(t)
	csv := "PROVINCIA,OP,PN,FFAA,SALUD,BOMB,CTE,CR,AM,TOTAL\nGUAYAS,120,900,200,300,150,80,40,60,1850\nPICHINCHA,100,850,180,280,140,75,35,55,1715\n"

	w := httptest.NewRecorder()
	s.PersonnelHandler(w, httptest.NewRequest(http.MethodPost, "/v1/data/personnel", strings.NewReader(csv)))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	s.PersonnelHandler(w, httptest.NewRequest(http.MethodGet, "/v1/data/personnel", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Items []model.PersonnelByProvince `json:"items"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("got %d provinces, want 2", len(resp.Items))
	}

	// garbage body must not load anything
	w = httptest.NewRecorder()
	s.PersonnelHandler(w, httptest.NewRequest(http.MethodPost, "/v1/data/personnel", strings.NewReader("header only\n")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty dataset accepted: %d", w.Code)
	}
}

func TestIncidentsHandler(t *testing.T) {
	s := testServer(t)
	csv := "fecha,provincia,canton,cod,parroquia,tipo,subtipo,dsem,dmes,mes,anio\n" +
		"2024-11-02,GUAYAS,GUAYAQUIL,0901,TARQUI,Seguridad Ciudadana,Robo,SABADO,2,11,2024\n"

	w := httptest.NewRecorder()
	s.IncidentsHandler(w, httptest.NewRequest(http.MethodPost, "/v1/data/incidents", strings.NewReader(csv)))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if s.Engine.IncidentCount() != 1 {
		t.Fatalf("engine holds %d incidents", s.Engine.IncidentCount())
	}
}

func TestCapacityAndSuggestionsHandlers(t *testing.T) {
	s := testServer(t)

	w := httptest.NewRecorder()
	s.CapacityHandler(w, httptest.NewRequest(http.MethodGet, "/v1/analysis/capacity", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Items []model.CapacityAnalysis `json:"items"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != len(model.Provinces) {
		t.Fatalf("got %d analyses, want %d", len(resp.Items), len(model.Provinces))
	}

	w = httptest.NewRecorder()
	s.CapacityHandler(w, httptest.NewRequest(http.MethodGet, "/v1/analysis/capacity?provincia=guayas", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("province filter status %d", w.Code)
	}
	w = httptest.NewRecorder()
	s.CapacityHandler(w, httptest.NewRequest(http.MethodGet, "/v1/analysis/capacity?provincia=atlantis", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown province status %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.SuggestionsHandler(w, httptest.NewRequest(http.MethodGet, "/v1/analysis/suggestions", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("suggestions status %d", w.Code)
	}
}

func TestValidateHandler(t *testing.T) {
	s := testServer(t)
	body := `{"fromProvince":"guayas","toProvince":"pichincha","totalPersonnel":100000}`
	w := httptest.NewRecorder()
	s.ValidateHandler(w, httptest.NewRequest(http.MethodPost, "/v1/analysis/validate", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Valid  bool   `json:"valid"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Valid || resp.Reason == "" {
		t.Fatalf("oversized transfer should be invalid with a reason: %+v", resp)
	}
}

func TestAlertEndpoints(t *testing.T) {
	s := testServer(t)
	out := s.Engine.Alerts().EvaluateCapacity(model.CapacityAnalysis{
		ProvinceID: "guayas", CurrentPersonnel: 40, PersonnelDifference: 15, UtilizationRate: 105,
	})
	id := out[0].ID

	w := httptest.NewRecorder()
	s.AlertsHandler(w, httptest.NewRequest(http.MethodGet, "/v1/alerts", nil))
	var resp struct {
		Items []model.Alert `json:"items"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != id {
		t.Fatalf("active list wrong: %+v", resp.Items)
	}

	w = httptest.NewRecorder()
	s.AlertByIDHandler(w, httptest.NewRequest(http.MethodPost, "/v1/alerts/"+id+"/ack", strings.NewReader(`{"by":"op-7"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("ack status %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	s.AlertByIDHandler(w, httptest.NewRequest(http.MethodPost, "/v1/alerts/"+id+"/resolve", strings.NewReader(`{"reason":"handled"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("resolve status %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.AlertByIDHandler(w, httptest.NewRequest(http.MethodPost, "/v1/alerts/missing/resolve", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("resolving unknown alert gave %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.AlertsHandler(w, httptest.NewRequest(http.MethodGet, "/v1/alerts?history=true", nil))
	resp.Items = nil
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 || !resp.Items[0].Resolved {
		t.Fatalf("history wrong: %+v", resp.Items)
	}

	w = httptest.NewRecorder()
	s.AlertStatsHandler(w, httptest.NewRequest(http.MethodGet, "/v1/alerts/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("stats status %d", w.Code)
	}
}

func TestResolveProvinceEndpoint(t *testing.T) {
	s := testServer(t)
	s.Engine.Alerts().EvaluateCapacity(model.CapacityAnalysis{
		ProvinceID: "azuay", CurrentPersonnel: 40, PersonnelDifference: 15, UtilizationRate: 105,
	})

	w := httptest.NewRecorder()
	s.AlertsResolveProvinceHandler(w, httptest.NewRequest(http.MethodPost, "/v1/alerts/resolve-province", strings.NewReader(`{"provincia":"azuay"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Resolved int `json:"resolved"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Resolved != 1 {
		t.Fatalf("resolved %d alerts, want 1", resp.Resolved)
	}
}

func TestRedistributeEndpoint(t *testing.T) {
	s := testServer(t)
	body := `{"suggestion":{"fromProvince":"guayas","toProvince":"pichincha","totalPersonnel":2},"serviceType":"seguridad","force":true}`
	w := httptest.NewRecorder()
	s.SimRedistributeHandler(w, httptest.NewRequest(http.MethodPost, "/v1/sim/redistribute", strings.NewReader(body)))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if len(s.Engine.RelocatingAgents()) != 2 {
		t.Fatalf("%d agents relocating, want 2", len(s.Engine.RelocatingAgents()))
	}

	// missing fields are rejected before touching the engine
	w = httptest.NewRecorder()
	s.SimRedistributeHandler(w, httptest.NewRequest(http.MethodPost, "/v1/sim/redistribute", strings.NewReader(`{"suggestion":{}}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty suggestion accepted: %d", w.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	s := testServer(t)
	w := httptest.NewRecorder()
	s.HealthHandler(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("health payload: %+v", resp)
	}
}
