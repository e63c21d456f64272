package valuation

import (
	"math"
	"time"

	"github.com/ternarybob/bondval/internal/models"
)

// checkpointTolerance is the relative error allowed by each identity.
const checkpointTolerance = 0.01

// runCheckpoint recomputes three identities, each independent of the
// simulator's internal bookkeeping:
//
//  1. the NPV of all cashflows at the computed YTM must equal the
//     investment,
//  2. coupon * couponCount + nominal must equal the reported
//     no-reinvestment total,
//  3. the YTM-reinvestment total discounted back over the full horizon must
//     equal the investment.
//
// A failing checkpoint does not abort anything; it is surfaced to the caller
// as a correctness signal.
func runCheckpoint(in Input, dates []time.Time, ytm, totalNoReinvest, totalReinvestYTM float64) models.ValidationCheckpoint {
	y := ytm / 100
	horizon := YearsBetween(in.PurchaseDate, in.MaturityDate)

	npv := 0.0
	for _, d := range dates {
		npv += in.Coupon / math.Pow(1+y, YearsBetween(in.PurchaseDate, d))
	}
	npv += in.Nominal / math.Pow(1+y, horizon)
	npvDelta := math.Abs(npv-in.Price) / in.Price

	arithmetic := in.Coupon*float64(len(dates)) + in.Nominal
	arithmeticDelta := math.Abs(arithmetic-totalNoReinvest) / arithmetic

	discounted := totalReinvestYTM / math.Pow(1+y, horizon)
	discountedDelta := math.Abs(discounted-in.Price) / in.Price

	cp := models.ValidationCheckpoint{
		NPVAtYTM:                npv,
		NPVDelta:                npvDelta,
		NPVCheckPassed:          npvDelta < checkpointTolerance,
		ArithmeticTotal:         arithmetic,
		ArithmeticDelta:         arithmeticDelta,
		ArithmeticCheckPassed:   arithmeticDelta < checkpointTolerance,
		DiscountedFVDelta:       discountedDelta,
		DiscountedFVCheckPassed: discountedDelta < checkpointTolerance,
	}
	cp.AllChecksPassed = cp.NPVCheckPassed && cp.ArithmeticCheckPassed && cp.DiscountedFVCheckPassed
	return cp
}
