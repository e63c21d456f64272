package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ternarybob/bondval/internal/interfaces"
	"github.com/ternarybob/bondval/internal/models"
)

type stubCalcs struct {
	records map[string]*models.CalculationsCache
}

func (s *stubCalcs) GetCalculatedBonds(ctx context.Context, scenarioID string) (*models.CalculationsCache, error) {
	record, ok := s.records[scenarioID]
	if !ok {
		return nil, interfaces.ErrScenarioNotFound
	}
	return record, nil
}

func calculatedRecord(scenarioID string, returns ...float64) *models.CalculationsCache {
	bonds := make([]*models.CalculationResults, 0, len(returns))
	for i, ret := range returns {
		ticker := "SU26238RMFS4"
		if i > 0 {
			ticker = "SU26240RMFS0"
		}
		bonds = append(bonds, &models.CalculationResults{
			Ticker:     ticker,
			Name:       "OFZ",
			Investment: 556.5,
			YTM:        14.2,
			OptimalExit: models.ExitResult{
				Date:         time.Date(2031, 5, 15, 0, 0, 0, 0, time.UTC),
				AnnualReturn: ret,
			},
			Validation: models.ValidationCheckpoint{AllChecksPassed: true},
			Assessment: models.ValuationAssessment{Status: models.ValuationFair},
		})
	}
	return &models.CalculationsCache{
		Timestamp:      time.Now(),
		ScenarioID:     scenarioID,
		CurrentKeyRate: 20.0,
		Bonds:          bonds,
	}
}

func TestListHandler(t *testing.T) {
	calcs := &stubCalcs{records: map[string]*models.CalculationsCache{
		"base": calculatedRecord("base", 17.5, 15.1),
	}}
	h := NewBondsHandler(calcs, RiskRewardScenarios{})

	req := httptest.NewRequest("GET", "/api/bonds", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp bondListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ScenarioID != "base" {
		t.Errorf("scenario = %q", resp.ScenarioID)
	}
	if len(resp.Bonds) != 2 {
		t.Errorf("bonds = %d, want 2", len(resp.Bonds))
	}
	if resp.CurrentKeyRate != 20.0 {
		t.Errorf("key rate = %v", resp.CurrentKeyRate)
	}
}

func TestListHandler_UnknownScenario(t *testing.T) {
	h := NewBondsHandler(&stubCalcs{records: map[string]*models.CalculationsCache{}}, RiskRewardScenarios{})

	req := httptest.NewRequest("GET", "/api/bonds?scenario=nope", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListHandler_InProgress(t *testing.T) {
	calcs := &stubCalcs{records: map[string]*models.CalculationsCache{
		"base": {ScenarioID: "base", InProgress: true, Timestamp: time.Now()},
	}}
	h := NewBondsHandler(calcs, RiskRewardScenarios{})

	req := httptest.NewRequest("GET", "/api/bonds", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "calculating" {
		t.Errorf("status field = %q, want calculating", resp["status"])
	}
}

func TestListHandler_MethodNotAllowed(t *testing.T) {
	h := NewBondsHandler(&stubCalcs{}, RiskRewardScenarios{})

	req := httptest.NewRequest("POST", "/api/bonds", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestDetailHandler(t *testing.T) {
	calcs := &stubCalcs{records: map[string]*models.CalculationsCache{
		"base":         calculatedRecord("base", 17.5),
		"optimistic":   calculatedRecord("optimistic", 19.5),
		"conservative": calculatedRecord("conservative", 16.5),
	}}
	h := NewBondsHandler(calcs, RiskRewardScenarios{
		Base: "base", Optimistic: "optimistic", Conservative: "conservative",
	})

	req := httptest.NewRequest("GET", "/api/bonds/SU26238RMFS4", nil)
	rec := httptest.NewRecorder()
	h.DetailHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp bondDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Bond == nil || resp.Bond.Ticker != "SU26238RMFS4" {
		t.Fatalf("bond = %+v", resp.Bond)
	}
	if !resp.Bond.Validation.AllChecksPassed {
		t.Error("validation block missing")
	}
	if resp.RiskReward == nil {
		t.Fatal("risk_reward section missing")
	}
	// reward = 19.5-17.5 = 2, risk = 17.5-16.5 = 1, ratio = 2
	if resp.RiskReward.Ratio != 2.0 {
		t.Errorf("ratio = %v, want 2.0", resp.RiskReward.Ratio)
	}
	if resp.RiskReward.Assessment != "excellent" {
		t.Errorf("assessment = %q", resp.RiskReward.Assessment)
	}
}

func TestDetailHandler_RiskRewardOmittedWhileScenarioComputes(t *testing.T) {
	calcs := &stubCalcs{records: map[string]*models.CalculationsCache{
		"base":         calculatedRecord("base", 17.5),
		"optimistic":   {ScenarioID: "optimistic", InProgress: true, Timestamp: time.Now()},
		"conservative": calculatedRecord("conservative", 16.5),
	}}
	h := NewBondsHandler(calcs, RiskRewardScenarios{
		Base: "base", Optimistic: "optimistic", Conservative: "conservative",
	})

	req := httptest.NewRequest("GET", "/api/bonds/SU26238RMFS4", nil)
	rec := httptest.NewRecorder()
	h.DetailHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp bondDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RiskReward != nil {
		t.Error("risk_reward present despite a scenario still computing")
	}
}

func TestDetailHandler_UnknownTicker(t *testing.T) {
	calcs := &stubCalcs{records: map[string]*models.CalculationsCache{
		"base": calculatedRecord("base", 17.5),
	}}
	h := NewBondsHandler(calcs, RiskRewardScenarios{})

	req := httptest.NewRequest("GET", "/api/bonds/NOPE", nil)
	rec := httptest.NewRecorder()
	h.DetailHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDetailHandler_BadTickerPath(t *testing.T) {
	h := NewBondsHandler(&stubCalcs{}, RiskRewardScenarios{})

	for _, path := range []string{"/api/bonds/", "/api/bonds/a/b"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		h.DetailHandler(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("path %q: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestHealthAndVersionHandlers(t *testing.T) {
	h := NewAPIHandler()

	rec := httptest.NewRecorder()
	h.HealthHandler(rec, httptest.NewRequest("GET", "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.VersionHandler(rec, httptest.NewRequest("GET", "/api/version", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("version status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["version"] == "" {
		t.Error("version missing")
	}
}
