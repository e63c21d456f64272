package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/bondval/internal/models"
)

// ErrScenarioNotFound is returned when a scenario id has no definition file
var ErrScenarioNotFound = errors.New("scenario not found")

// ScenarioService provides access to key-rate forecast scenarios loaded from
// definition files.
type ScenarioService interface {
	// List returns all loaded scenarios ordered by id
	List() []*models.Scenario

	// Get returns one scenario by id, or ErrScenarioNotFound
	Get(id string) (*models.Scenario, error)

	// ModTime returns the definition file's modification time for staleness
	// checks, or ErrScenarioNotFound
	ModTime(id string) (time.Time, error)
}

// CalculationService serves precalculated per-scenario valuation results.
// The read path never blocks on computation.
type CalculationService interface {
	// GetCalculatedBonds returns the cached result set for a scenario. When
	// no computation has completed yet the returned record has InProgress
	// set and an empty bond list; when the cache is outdated the record is
	// returned immediately with Stale set and a background recompute is
	// triggered.
	GetCalculatedBonds(ctx context.Context, scenarioID string) (*models.CalculationsCache, error)
}
