package valuation

import (
	"testing"

	"github.com/ternarybob/bondval/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name             string
		ytm              float64
		keyRate          float64
		inflation        float64
		theoreticalYield float64
		want             models.ValuationStatus
	}{
		{
			// spread = 2.0 > 1.5, realYield = 2.0 < 3: two expensive signals
			name: "expensive on spread and real yield",
			ytm:  6.0, keyRate: 8.0, inflation: 4.0, theoreticalYield: 6.0,
			want: models.ValuationExpensive,
		},
		{
			// spread = 2.0 > 1.5, curveSpread = -0.5 < -0.3
			name: "expensive on spread and curve",
			ytm:  12.0, keyRate: 14.0, inflation: 4.0, theoreticalYield: 12.5,
			want: models.ValuationExpensive,
		},
		{
			// spread = -1.0 < -0.5, realYield = 12.0 > 8
			name: "cheap on spread and real yield",
			ytm:  16.0, keyRate: 15.0, inflation: 4.0, theoreticalYield: 16.0,
			want: models.ValuationCheap,
		},
		{
			// realYield = 10.5 > 8, curveSpread = 0.5 > 0.3
			name: "cheap on real yield and curve",
			ytm:  14.5, keyRate: 15.0, inflation: 4.0, theoreticalYield: 14.0,
			want: models.ValuationCheap,
		},
		{
			// only one expensive signal fires
			name: "single signal stays fair",
			ytm:  12.0, keyRate: 14.0, inflation: 4.0, theoreticalYield: 12.0,
			want: models.ValuationFair,
		},
		{
			name: "no signals",
			ytm:  14.0, keyRate: 14.5, inflation: 8.0, theoreticalYield: 14.0,
			want: models.ValuationFair,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.ytm, tt.keyRate, tt.inflation, tt.theoreticalYield)
			if got.Status != tt.want {
				t.Errorf("Classify() status = %s, want %s (spread=%.1f realYield=%.1f curveSpread=%.1f)",
					got.Status, tt.want, got.Spread, got.RealYield, got.CurveSpread)
			}
			if got.Recommendation == "" {
				t.Error("Classify() must always produce a recommendation")
			}
			if got.Status == models.ValuationExpensive && got.Warning == "" {
				t.Error("expensive assessment must carry a warning naming the signals")
			}
		})
	}
}

func TestClassify_SignalsRecorded(t *testing.T) {
	got := Classify(6.0, 8.0, 4.0, 6.5)
	if got.Spread != 2.0 {
		t.Errorf("Spread = %v, want 2.0", got.Spread)
	}
	if got.RealYield != 2.0 {
		t.Errorf("RealYield = %v, want 2.0", got.RealYield)
	}
	if got.CurveSpread != -0.5 {
		t.Errorf("CurveSpread = %v, want -0.5", got.CurveSpread)
	}
}
