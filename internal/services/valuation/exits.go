package valuation

import "github.com/ternarybob/bondval/internal/models"

// ParThreshold is the fraction of nominal at which an exit price counts as
// reaching par.
const ParThreshold = 0.995

// selectOptimalExit returns the exit with the maximum annual return; the
// first occurrence wins ties.
func selectOptimalExit(exits []models.ExitResult) models.ExitResult {
	best := exits[0]
	for _, e := range exits[1:] {
		if e.AnnualReturn > best.AnnualReturn {
			best = e
		}
	}
	return best
}

// selectParExit returns the first exit whose bond price reaches par
// (nominal * ParThreshold), falling back to the last exit when none does.
func selectParExit(exits []models.ExitResult, nominal float64) models.ExitResult {
	for _, e := range exits {
		if e.BondPrice >= nominal*ParThreshold {
			return e
		}
	}
	return exits[len(exits)-1]
}
