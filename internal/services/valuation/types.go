// Package valuation implements the bond valuation engine: rate-schedule
// resolution, XIRR solving, DCF pricing, reinvestment simulation, exit
// selection, self-validation checkpoints and cheap/fair/expensive
// classification. All functions are stateless and perform no I/O.
package valuation

import "time"

// Input is one valuation request. Monetary fields are in currency units,
// rates and yields in annual percent. Price is the dirty purchase price
// (clean price plus accrued interest), i.e. the invested amount.
type Input struct {
	Ticker string `validate:"required"`
	Name   string

	Nominal    float64 `validate:"gt=0"`
	Price      float64 `validate:"gt=0"`
	Coupon     float64 `validate:"gt=0"`
	PeriodDays int     `validate:"gt=0"`

	PurchaseDate    time.Time `validate:"required"`
	FirstCouponDate time.Time `validate:"required"`
	MaturityDate    time.Time `validate:"required"`

	Schedule       RateSchedule `validate:"min=1"`
	CurrentKeyRate float64
	Inflation      float64

	// MarketYTM is the exchange-quoted yield, TheoreticalYield the value of
	// the zero-coupon yield curve at the bond's maturity. Both feed the
	// valuation classifier only.
	MarketYTM        float64
	TheoreticalYield float64
}

// periodsPerYear derives coupon frequency from the coupon period length.
func (in Input) periodsPerYear() int {
	n := int(float64(365)/float64(in.PeriodDays) + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

// couponYieldAnnual is the bond's own annual coupon yield on the invested
// amount, in percent.
func (in Input) couponYieldAnnual() float64 {
	return in.Coupon * float64(in.periodsPerYear()) / in.Price * 100
}
