package valuation

import (
	"math"
	"time"

	"github.com/ternarybob/bondval/internal/models"
)

// couponDates steps PeriodDays from the first coupon date until reaching or
// passing maturity, always finishing with maturity itself as the final date
// even when the last spacing is irregular.
func couponDates(first, maturity time.Time, periodDays int) []time.Time {
	var dates []time.Time
	for d := first; d.Before(maturity); d = d.AddDate(0, 0, periodDays) {
		dates = append(dates, d)
	}
	return append(dates, maturity)
}

// simulateExits walks every coupon date and produces one ExitResult per
// date: the remaining bond priced by DCF at the prevailing reinvestment
// rate, plus all prior coupons compounded forward period-by-period at the
// then-current reinvestment rate for each intervening period (not the final
// rate), plus the current coupon at face value.
//
// The coupon accumulation is recomputed from scratch for every exit date,
// O(n^2) over coupon count. Coupon counts are small (<= ~80 for 40-year
// bonds) and the from-scratch walk keeps the per-period rate handling
// obvious.
func simulateExits(in Input, dates []time.Time, reinvestRates []float64) []models.ExitResult {
	periodsPerYear := in.periodsPerYear()
	m := float64(periodsPerYear)

	exits := make([]models.ExitResult, 0, len(dates))
	for i, date := range dates {
		isLast := i == len(dates)-1

		// Accumulate coupons from the first coupon date up to this exit:
		// each intervening period grows the balance at that period's rate,
		// then the period's coupon is added uncompounded.
		coupons := 0.0
		for k := 0; k <= i; k++ {
			if k > 0 {
				coupons *= 1 + reinvestRates[k-1]/100/m
			}
			coupons += in.Coupon
		}

		var bondPrice float64
		if isLast {
			bondPrice = in.Nominal
		} else {
			bondPrice = PriceDCF(in.Coupon, in.Nominal, reinvestRates[i], len(dates)-1-i, periodsPerYear)
		}

		exitValue := bondPrice + coupons
		years := YearsBetween(in.PurchaseDate, date)

		annualReturn := 0.0
		if years > 0 {
			annualReturn = (math.Pow(exitValue/in.Price, 1/years) - 1) * 100
		}

		keyRate, _ := in.Schedule.RateAt(date)
		exits = append(exits, models.ExitResult{
			Date:              date,
			Years:             years,
			KeyRate:           keyRate,
			ReinvestRate:      reinvestRates[i],
			BondPrice:         bondPrice,
			ReinvestedCoupons: coupons,
			ExitValue:         exitValue,
			TotalReturn:       (exitValue - in.Price) / in.Price * 100,
			AnnualReturn:      annualReturn,
			IsLast:            isLast,
		})
	}
	return exits
}

// reinvestmentRates derives the per-date reinvestment rate from the resolved
// key-rate schedule via EstimateYTM.
func reinvestmentRates(in Input, dates []time.Time, spread float64) []float64 {
	couponYield := in.couponYieldAnnual()
	rates := make([]float64, len(dates))
	for i, date := range dates {
		keyRate, _ := in.Schedule.RateAt(date)
		rates[i] = EstimateYTM(keyRate, spread, couponYield)
	}
	return rates
}
