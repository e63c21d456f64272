package valuation

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/bondval/internal/models"
)

// DefaultReinvestSpread is the assumed spread of achievable reinvestment
// yields below the key rate, in points.
const DefaultReinvestSpread = 2.0

// Engine runs full bond valuations. It is stateless apart from its
// configuration and safe for concurrent use.
type Engine struct {
	validate *validator.Validate
	spread   float64
}

// Option configures the Engine.
type Option func(*Engine)

// WithReinvestSpread overrides the assumed reinvestment spread below the
// key rate.
func WithReinvestSpread(spread float64) Option {
	return func(e *Engine) {
		e.spread = spread
	}
}

// NewEngine creates a valuation engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		validate: validator.New(),
		spread:   DefaultReinvestSpread,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculate values one bond under the input's resolved rate schedule and
// returns the full result set: per-exit table, aggregate yields, optimal
// and par exits, validation checkpoint and valuation assessment.
func (e *Engine) Calculate(in Input) (*models.CalculationResults, error) {
	if err := e.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid bond input for %q: %w", in.Ticker, err)
	}
	if !in.MaturityDate.After(in.PurchaseDate) {
		return nil, fmt.Errorf("invalid bond input for %q: maturity %s not after purchase %s",
			in.Ticker, in.MaturityDate.Format("2006-01-02"), in.PurchaseDate.Format("2006-01-02"))
	}

	dates := couponDates(in.FirstCouponDate, in.MaturityDate, in.PeriodDays)
	rates := reinvestmentRates(in, dates, e.spread)
	exits := simulateExits(in, dates, rates)

	horizon := YearsBetween(in.PurchaseDate, in.MaturityDate)

	// (a) hold-to-maturity YTM from the raw cashflows
	cashflows := make([]float64, 0, len(dates)+1)
	cfDates := make([]time.Time, 0, len(dates)+1)
	cashflows = append(cashflows, -in.Price)
	cfDates = append(cfDates, in.PurchaseDate)
	for i, d := range dates {
		cf := in.Coupon
		if i == len(dates)-1 {
			cf += in.Nominal
		}
		cashflows = append(cashflows, cf)
		cfDates = append(cfDates, d)
	}
	ytm := XIRR(cashflows, cfDates) * 100

	// (b) every coupon reinvested at the YTM until maturity
	totalReinvestYTM := in.Nominal
	for _, d := range dates {
		totalReinvestYTM += in.Coupon * math.Pow(1+ytm/100, YearsBetween(d, in.MaturityDate))
	}

	// (c) pure arithmetic sum, no reinvestment
	totalNoReinvest := in.Coupon*float64(len(dates)) + in.Nominal

	// (d) one flat rate, taken from the schedule at purchase
	flatRate := rates[0]
	if r, err := in.Schedule.RateAt(in.PurchaseDate); err == nil {
		flatRate = EstimateYTM(r, e.spread, in.couponYieldAnnual())
	}
	m := float64(in.periodsPerYear())
	totalFlatRate := in.Nominal
	for i := range dates {
		totalFlatRate += in.Coupon * math.Pow(1+flatRate/100/m, float64(len(dates)-1-i))
	}

	// (e) the full per-period model carried to maturity
	totalModel := exits[len(exits)-1].ExitValue
	yieldModel := e.annualize(in.Price, totalModel, in.PurchaseDate, in.MaturityDate)

	results := &models.CalculationResults{
		Ticker:            in.Ticker,
		Name:              in.Name,
		Investment:        in.Price,
		YTM:               ytm,
		TotalReinvestYTM:  totalReinvestYTM,
		YieldReinvestYTM:  e.annualize(in.Price, totalReinvestYTM, in.PurchaseDate, in.MaturityDate),
		TotalNoReinvest:   totalNoReinvest,
		YieldNoReinvest:   e.annualize(in.Price, totalNoReinvest, in.PurchaseDate, in.MaturityDate),
		TotalFlatRate:     totalFlatRate,
		YieldFlatRate:     e.annualize(in.Price, totalFlatRate, in.PurchaseDate, in.MaturityDate),
		TotalModel:        totalModel,
		YieldModel:        yieldModel,
		RealYieldMaturity: yieldModel - in.Inflation,
		CouponCount:       len(dates),
		YearsToMaturity:   horizon,
		CurrentKeyRate:    in.CurrentKeyRate,
		Exits:             exits,
		OptimalExit:       selectOptimalExit(exits),
		ParExit:           selectParExit(exits, in.Nominal),
	}

	results.Validation = runCheckpoint(in, dates, ytm, totalNoReinvest, totalReinvestYTM)
	results.Assessment = Classify(ytm, in.CurrentKeyRate, in.Inflation, in.TheoreticalYield)

	return results, nil
}

// annualize converts an invest-now-collect-later pair into an annual rate
// in percent via XIRR.
func (e *Engine) annualize(investment, total float64, purchase, maturity time.Time) float64 {
	return XIRR([]float64{-investment, total}, []time.Time{purchase, maturity}) * 100
}
