package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/bondval/internal/common"
	"github.com/ternarybob/bondval/internal/interfaces"
	"github.com/ternarybob/bondval/internal/models"
	"github.com/ternarybob/bondval/internal/services/valuation"
)

// DefaultScenarioID is used when a request names no scenario.
const DefaultScenarioID = "base"

// RiskRewardScenarios names the three scenario runs combined into the
// reward/risk ratio on the detail endpoint.
type RiskRewardScenarios struct {
	Base         string
	Optimistic   string
	Conservative string
}

// BondsHandler serves the bond list and detail endpoints from precalculated
// results. It never computes anything inline.
type BondsHandler struct {
	calcs      interfaces.CalculationService
	riskReward RiskRewardScenarios
	logger     arbor.ILogger
}

// NewBondsHandler creates the handler. riskReward may be zero-valued, which
// disables the reward/risk section on the detail endpoint.
func NewBondsHandler(calcs interfaces.CalculationService, riskReward RiskRewardScenarios) *BondsHandler {
	return &BondsHandler{
		calcs:      calcs,
		riskReward: riskReward,
		logger:     common.GetLogger(),
	}
}

// bondListResponse is the list endpoint payload: summaries plus cache
// metadata so the UI can show data age.
type bondListResponse struct {
	ScenarioID     string               `json:"scenario_id"`
	Timestamp      int64                `json:"timestamp"`
	CurrentKeyRate float64              `json:"current_key_rate"`
	Stale          bool                 `json:"stale,omitempty"`
	Bonds          []models.BondSummary `json:"bonds"`
}

// ListHandler returns bond summaries for one scenario.
// GET /api/bonds?scenario={id}
func (h *BondsHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	record, ok := h.record(w, r, h.scenarioParam(r))
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, bondListResponse{
		ScenarioID:     record.ScenarioID,
		Timestamp:      record.Timestamp.UnixMilli(),
		CurrentKeyRate: record.CurrentKeyRate,
		Stale:          record.Stale,
		Bonds:          record.Summaries(),
	})
}

// bondDetailResponse is the detail endpoint payload: the full calculation
// plus the optional cross-scenario reward/risk section.
type bondDetailResponse struct {
	ScenarioID string                     `json:"scenario_id"`
	Timestamp  int64                      `json:"timestamp"`
	Stale      bool                       `json:"stale,omitempty"`
	Bond       *models.CalculationResults `json:"bond"`
	RiskReward *models.RiskReward         `json:"risk_reward,omitempty"`
}

// DetailHandler returns the full calculation for one bond.
// GET /api/bonds/{ticker}?scenario={id}
func (h *BondsHandler) DetailHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ticker := strings.TrimPrefix(r.URL.Path, "/api/bonds/")
	if ticker == "" || strings.Contains(ticker, "/") {
		WriteError(w, http.StatusBadRequest, "Invalid ticker")
		return
	}

	record, ok := h.record(w, r, h.scenarioParam(r))
	if !ok {
		return
	}

	bond := findBond(record, ticker)
	if bond == nil {
		WriteError(w, http.StatusNotFound, "Unknown ticker: "+ticker)
		return
	}

	WriteJSON(w, http.StatusOK, bondDetailResponse{
		ScenarioID: record.ScenarioID,
		Timestamp:  record.Timestamp.UnixMilli(),
		Stale:      record.Stale,
		Bond:       bond,
		RiskReward: h.compareScenarios(r, ticker),
	})
}

// compareScenarios builds the reward/risk section from the three configured
// scenario runs. Any scenario still computing or missing the bond yields
// nil; the detail response then simply omits the section.
func (h *BondsHandler) compareScenarios(r *http.Request, ticker string) *models.RiskReward {
	rr := h.riskReward
	if rr.Base == "" || rr.Optimistic == "" || rr.Conservative == "" {
		return nil
	}

	returns := make([]float64, 0, 3)
	for _, scenarioID := range []string{rr.Base, rr.Optimistic, rr.Conservative} {
		record, err := h.calcs.GetCalculatedBonds(r.Context(), scenarioID)
		if err != nil || record.InProgress {
			return nil
		}
		bond := findBond(record, ticker)
		if bond == nil {
			return nil
		}
		returns = append(returns, bond.OptimalExit.AnnualReturn)
	}

	result := valuation.CompareRiskReward(returns[0], returns[1], returns[2])
	return &result
}

// record loads the scenario record and handles the not-found and
// still-calculating responses. ok is false when a response was written.
func (h *BondsHandler) record(w http.ResponseWriter, r *http.Request, scenarioID string) (*models.CalculationsCache, bool) {
	record, err := h.calcs.GetCalculatedBonds(r.Context(), scenarioID)
	if err != nil {
		if errors.Is(err, interfaces.ErrScenarioNotFound) {
			WriteError(w, http.StatusNotFound, "Unknown scenario: "+scenarioID)
			return nil, false
		}
		h.logger.Error().Str("scenario", scenarioID).Err(err).Msg("Failed to load calculations")
		WriteError(w, http.StatusInternalServerError, "Failed to load calculations")
		return nil, false
	}
	if record.InProgress {
		WriteCalculating(w)
		return nil, false
	}
	return record, true
}

func (h *BondsHandler) scenarioParam(r *http.Request) string {
	if id := r.URL.Query().Get("scenario"); id != "" {
		return id
	}
	return DefaultScenarioID
}

func findBond(record *models.CalculationsCache, ticker string) *models.CalculationResults {
	for _, bond := range record.Bonds {
		if bond.Ticker == ticker {
			return bond
		}
	}
	return nil
}
