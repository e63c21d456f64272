package valuation

import "math"

// PriceDCF values a coupon bond by discounting the remaining coupon stream
// and nominal at the given annual yield. The yield is in percent. A bond at
// or past maturity (periodsRemaining <= 0) is worth exactly its nominal.
func PriceDCF(coupon, nominal, annualYTM float64, periodsRemaining, periodsPerYear int) float64 {
	if periodsRemaining <= 0 {
		return nominal
	}

	i := annualYTM / 100 / float64(periodsPerYear)
	price := 0.0
	for t := 1; t <= periodsRemaining; t++ {
		price += coupon / math.Pow(1+i, float64(t))
	}
	return price + nominal/math.Pow(1+i, float64(periodsRemaining))
}

// EstimateYTM derives a bond's implied yield from the prevailing key rate
// less a spread, floored at the bond's own annual coupon yield. A bond's
// implied yield can never imply a price above par while still being
// consistent with its coupon rate.
func EstimateYTM(keyRate, spread, couponYieldAnnual float64) float64 {
	return math.Max(keyRate-spread, couponYieldAnnual)
}
