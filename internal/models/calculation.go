package models

import "time"

// ValuationStatus classifies a bond's price relative to its model value.
type ValuationStatus string

const (
	ValuationCheap     ValuationStatus = "cheap"
	ValuationFair      ValuationStatus = "fair"
	ValuationExpensive ValuationStatus = "expensive"
)

// ExitResult is the outcome of selling (or redeeming) the bond at one coupon
// date. Monetary values are in currency units, returns in annual percent.
type ExitResult struct {
	Date              time.Time `json:"date"`
	Years             float64   `json:"years"` // elapsed years since purchase
	KeyRate           float64   `json:"key_rate"`
	ReinvestRate      float64   `json:"reinvest_rate"`
	BondPrice         float64   `json:"bond_price"`
	ReinvestedCoupons float64   `json:"reinvested_coupons"`
	ExitValue         float64   `json:"exit_value"`
	TotalReturn       float64   `json:"total_return"`
	AnnualReturn      float64   `json:"annual_return"`
	IsLast            bool      `json:"is_last"` // true only for the maturity exit
}

// ValidationCheckpoint holds three independent identities recomputed after a
// calculation to self-certify engine correctness. A failing checkpoint does
// not abort the calculation; it is surfaced to the caller.
type ValidationCheckpoint struct {
	NPVAtYTM                float64 `json:"npv_at_ytm"`
	NPVDelta                float64 `json:"npv_delta"` // relative error vs investment
	NPVCheckPassed          bool    `json:"npv_check_passed"`
	ArithmeticTotal         float64 `json:"arithmetic_total"`
	ArithmeticDelta         float64 `json:"arithmetic_delta"`
	ArithmeticCheckPassed   bool    `json:"arithmetic_check_passed"`
	DiscountedFVDelta       float64 `json:"discounted_fv_delta"`
	DiscountedFVCheckPassed bool    `json:"discounted_fv_check_passed"`
	AllChecksPassed         bool    `json:"all_checks_passed"`
}

// ValuationAssessment is the cheap/fair/expensive call with the signals that
// produced it and a human-readable rationale.
type ValuationAssessment struct {
	Status         ValuationStatus `json:"status"`
	Spread         float64         `json:"spread"`       // keyRate - ytm
	RealYield      float64         `json:"real_yield"`   // ytm - inflation
	CurveSpread    float64         `json:"curve_spread"` // ytm - theoretical curve yield
	Recommendation string          `json:"recommendation"`
	Warning        string          `json:"warning,omitempty"`
}

// RiskReward combines optimal-exit annual returns from three scenario runs
// into a single reward/risk ratio.
type RiskReward struct {
	Reward     float64 `json:"reward"` // optimistic - base
	Risk       float64 `json:"risk"`   // base - conservative
	Ratio      float64 `json:"ratio"`
	Assessment string  `json:"assessment"` // excellent, good, neutral, poor
}

// CalculationResults is the full output of one bond valuation under one rate
// scenario. It is created per call, cached, and never mutated afterwards.
type CalculationResults struct {
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	Investment float64 `json:"investment"` // price + accrued interest

	// Aggregate yields, each annualized via XIRR (percent)
	YTM               float64 `json:"ytm"`                 // hold-to-maturity internal rate of return
	TotalReinvestYTM  float64 `json:"total_reinvest_ytm"`  // coupons compounded at YTM
	YieldReinvestYTM  float64 `json:"yield_reinvest_ytm"`
	TotalNoReinvest   float64 `json:"total_no_reinvest"`   // coupon * count + nominal, no compounding
	YieldNoReinvest   float64 `json:"yield_no_reinvest"`
	TotalFlatRate     float64 `json:"total_flat_rate"`     // single flat variable-rate reinvestment
	YieldFlatRate     float64 `json:"yield_flat_rate"`
	TotalModel        float64 `json:"total_model"`         // full per-period model, held to maturity
	YieldModel        float64 `json:"yield_model"`         // annualized yield of the model total
	RealYieldMaturity float64 `json:"real_yield_maturity"` // YieldModel less inflation

	CouponCount     int     `json:"coupon_count"`
	YearsToMaturity float64 `json:"years_to_maturity"`
	CurrentKeyRate  float64 `json:"current_key_rate"`

	Exits       []ExitResult `json:"exits"`
	OptimalExit ExitResult   `json:"optimal_exit"`
	ParExit     ExitResult   `json:"par_exit"`

	Validation ValidationCheckpoint `json:"validation"`
	Assessment ValuationAssessment  `json:"assessment"`
}

// BondSummary is the list-endpoint projection of CalculationResults.
type BondSummary struct {
	Ticker            string          `json:"ticker"`
	Name              string          `json:"name"`
	Price             float64         `json:"price"`
	YTM               float64         `json:"ytm"`
	RealYieldMaturity float64         `json:"real_yield_maturity"`
	YearsToMaturity   float64         `json:"years_to_maturity"`
	OptimalExitDate   time.Time       `json:"optimal_exit_date"`
	OptimalExitReturn float64         `json:"optimal_exit_return"`
	Valuation         ValuationStatus `json:"valuation"`
	ChecksPassed      bool            `json:"checks_passed"`
}

// CalculationsCache is one scenario's full result set over the bond universe.
// It is written by the precalculation scheduler and replaced wholesale on
// recompute; readers never observe a partially built record.
type CalculationsCache struct {
	Timestamp      time.Time             `json:"timestamp"`
	ScenarioID     string                `json:"scenario_id"`
	CurrentKeyRate float64               `json:"current_key_rate"`
	Bonds          []*CalculationResults `json:"bonds"`
	InProgress     bool                  `json:"in_progress"`
	Stale          bool                  `json:"stale,omitempty"` // set on read, never persisted
}

// Summaries projects the cached bond list for the list endpoint.
func (c *CalculationsCache) Summaries() []BondSummary {
	summaries := make([]BondSummary, 0, len(c.Bonds))
	for _, b := range c.Bonds {
		summaries = append(summaries, BondSummary{
			Ticker:            b.Ticker,
			Name:              b.Name,
			Price:             b.Investment,
			YTM:               b.YTM,
			RealYieldMaturity: b.RealYieldMaturity,
			YearsToMaturity:   b.YearsToMaturity,
			OptimalExitDate:   b.OptimalExit.Date,
			OptimalExitReturn: b.OptimalExit.AnnualReturn,
			Valuation:         b.Assessment.Status,
			ChecksPassed:      b.Validation.AllChecksPassed,
		})
	}
	return summaries
}
