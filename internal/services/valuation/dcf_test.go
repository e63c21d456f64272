package valuation

import (
	"math"
	"testing"
)

func TestPriceDCF_AtMaturity(t *testing.T) {
	tests := []struct {
		name    string
		periods int
	}{
		{"zero periods", 0},
		{"negative periods", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceDCF(35.4, 1000, 14.0, tt.periods, 2)
			if got != 1000 {
				t.Errorf("PriceDCF(periods=%d) = %v, want exactly 1000", tt.periods, got)
			}
		})
	}
}

func TestPriceDCF_DiscountBondPullToPar(t *testing.T) {
	// Coupon rate 6% vs yield 15%: a discount bond. Price must increase
	// monotonically as periodsRemaining decreases toward 0.
	prev := math.Inf(-1)
	for periods := 40; periods >= 0; periods-- {
		price := PriceDCF(30, 1000, 15.0, periods, 2)
		if price <= prev {
			t.Fatalf("price not monotonic: %v periods -> %v, previous %v", periods, price, prev)
		}
		if price > 1000 {
			t.Fatalf("discount bond priced above par: %v at %d periods", price, periods)
		}
		prev = price
	}
}

func TestPriceDCF_SinglePeriod(t *testing.T) {
	// One semi-annual period at 10% annual: (coupon + nominal) / 1.05
	got := PriceDCF(50, 1000, 10.0, 1, 2)
	want := 1050.0 / 1.05
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("PriceDCF single period = %v, want %v", got, want)
	}
}

func TestEstimateYTM(t *testing.T) {
	tests := []struct {
		name        string
		keyRate     float64
		spread      float64
		couponYield float64
		want        float64
	}{
		{"key rate dominates", 20.0, 2.0, 12.7, 18.0},
		{"coupon yield floor", 10.0, 2.0, 12.7, 12.7},
		{"exactly at floor", 14.7, 2.0, 12.7, 12.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateYTM(tt.keyRate, tt.spread, tt.couponYield)
			if got != tt.want {
				t.Errorf("EstimateYTM(%v, %v, %v) = %v, want %v", tt.keyRate, tt.spread, tt.couponYield, got, tt.want)
			}
		})
	}
}
