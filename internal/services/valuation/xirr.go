package valuation

import (
	"math"
	"time"
)

const (
	xirrTolerance     = 1e-7
	xirrMaxIterations = 100
	xirrInitialGuess  = 0.1
	xirrFloor         = -0.99
	xirrCeiling       = 10.0

	daysPerYear = 365.25
)

// XIRR finds the rate r solving sum(cf_i / (1+r)^years_i) = 0 for
// irregularly dated signed cashflows via Newton-Raphson. The first date is
// the time origin. Non-convergence is not an error: the current estimate is
// returned and downstream validation checkpoints detect resulting
// inaccuracy. Empty input returns 0. The solver is pure; identical input
// gives identical output regardless of call order.
func XIRR(cashflows []float64, dates []time.Time) float64 {
	if len(cashflows) == 0 || len(cashflows) != len(dates) {
		return 0
	}

	origin := dates[0]
	years := make([]float64, len(dates))
	for i, d := range dates {
		years[i] = YearsBetween(origin, d)
	}

	rate := xirrInitialGuess
	for iter := 0; iter < xirrMaxIterations; iter++ {
		npv, derivative := npvAndDerivative(cashflows, years, rate)

		if math.Abs(npv) < xirrTolerance {
			return rate
		}
		// Derivative underflow: stop and return the best estimate so far
		if math.Abs(derivative) < 1e-15 {
			return rate
		}

		next := rate - npv/derivative

		// Clamp divergent iterates to [-0.99, 10]: reflect toward -0.5
		// below the floor, reset to 1.0 above the ceiling
		if next < xirrFloor {
			next = (rate - 0.5) / 2
		} else if next > xirrCeiling {
			next = 1.0
		}

		if math.Abs(next-rate) < xirrTolerance {
			return next
		}
		rate = next
	}

	return rate
}

// npvAndDerivative evaluates NPV(r) and dNPV/dr at the given rate.
func npvAndDerivative(cashflows []float64, years []float64, rate float64) (float64, float64) {
	var npv, derivative float64
	for i, cf := range cashflows {
		t := years[i]
		npv += cf / math.Pow(1+rate, t)
		derivative -= t * cf / math.Pow(1+rate, t+1)
	}
	return npv, derivative
}

// YearsBetween returns the elapsed time between two dates in fractional
// years (365.25-day convention).
func YearsBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24 / daysPerYear
}
