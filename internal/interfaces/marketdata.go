package interfaces

import (
	"context"

	"github.com/ternarybob/bondval/internal/models"
)

// BondProvider supplies the bond universe from the upstream market-data
// service. Implementations are expected to be wrapped in the resilient
// gateway by callers.
type BondProvider interface {
	// FetchBonds returns the current bond universe
	FetchBonds(ctx context.Context) ([]models.BondRecord, error)
}

// RateProvider supplies central-bank key-rate history, sorted newest-first.
type RateProvider interface {
	// FetchRateHistory returns key-rate observations, newest first
	FetchRateHistory(ctx context.Context) ([]models.RatePoint, error)
}

// MarketDataProvider combines the two upstream collaborator contracts.
type MarketDataProvider interface {
	BondProvider
	RateProvider
}
