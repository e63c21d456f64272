package valuation

import (
	"fmt"
	"strings"

	"github.com/ternarybob/bondval/internal/models"
)

// Classification thresholds. Expensive and cheap each require two of three
// signals; the threshold bands are disjoint so both can never fire at once.
const (
	SpreadExpensiveThreshold    = 1.5  // keyRate - ytm above this: yield lags the key rate
	RealYieldExpensiveThreshold = 3.0  // ytm - inflation below this: thin real yield
	CurveExpensiveThreshold     = -0.3 // ytm - curve yield below this: rich to the curve

	SpreadCheapThreshold    = -0.5 // yield above the key rate
	RealYieldCheapThreshold = 8.0  // fat real yield
	CurveCheapThreshold     = 0.3  // cheap to the curve
)

// Classify scores a bond as cheap, fair or expensive from three independent
// signals: the key-rate spread, the real (inflation-adjusted) yield, and the
// spread to the zero-coupon yield curve. Two of three signals must agree.
func Classify(ytm, keyRate, inflation, theoreticalYield float64) models.ValuationAssessment {
	spread := keyRate - ytm
	realYield := ytm - inflation
	curveSpread := ytm - theoreticalYield

	assessment := models.ValuationAssessment{
		Spread:      spread,
		RealYield:   realYield,
		CurveSpread: curveSpread,
	}

	var expensive, cheap []string
	if spread > SpreadExpensiveThreshold {
		expensive = append(expensive, fmt.Sprintf("yield %.1fpt below key rate", spread))
	}
	if realYield < RealYieldExpensiveThreshold {
		expensive = append(expensive, fmt.Sprintf("real yield only %.1f%%", realYield))
	}
	if curveSpread < CurveExpensiveThreshold {
		expensive = append(expensive, fmt.Sprintf("%.1fpt rich to the curve", -curveSpread))
	}

	if spread < SpreadCheapThreshold {
		cheap = append(cheap, fmt.Sprintf("yield %.1fpt above key rate", -spread))
	}
	if realYield > RealYieldCheapThreshold {
		cheap = append(cheap, fmt.Sprintf("real yield %.1f%%", realYield))
	}
	if curveSpread > CurveCheapThreshold {
		cheap = append(cheap, fmt.Sprintf("%.1fpt cheap to the curve", curveSpread))
	}

	switch {
	case len(expensive) >= 2:
		assessment.Status = models.ValuationExpensive
		assessment.Recommendation = "Overbought: consider waiting for a better entry"
		assessment.Warning = fmt.Sprintf("Expensive signals: %s", strings.Join(expensive, "; "))
	case len(cheap) >= 2:
		assessment.Status = models.ValuationCheap
		assessment.Recommendation = fmt.Sprintf("Oversold: %s", strings.Join(cheap, "; "))
	default:
		assessment.Status = models.ValuationFair
		assessment.Recommendation = "Fairly priced against key rate, inflation and curve"
	}

	return assessment
}
