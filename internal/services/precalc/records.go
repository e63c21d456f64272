package precalc

import (
	"sync"

	"github.com/ternarybob/bondval/internal/models"
	"github.com/ternarybob/bondval/internal/services/cache"
)

// recordSet holds the per-scenario calculation records, memory first with
// a flat-file layer underneath so records survive restarts. Records are
// replaced wholesale; readers never see a partial record.
type recordSet struct {
	files *cache.FileStore

	mu      sync.RWMutex
	records map[string]*models.CalculationsCache
}

func newRecordSet(files *cache.FileStore) *recordSet {
	return &recordSet{
		files:   files,
		records: make(map[string]*models.CalculationsCache),
	}
}

// get returns the record for a scenario, falling back to the file layer
// and backfilling memory. Returns nil when nothing was ever computed.
func (r *recordSet) get(scenarioID string) *models.CalculationsCache {
	r.mu.RLock()
	record := r.records[scenarioID]
	r.mu.RUnlock()
	if record != nil {
		return record
	}

	var loaded models.CalculationsCache
	if err := r.files.ReadJSON(scenarioID, &loaded); err != nil {
		return nil
	}

	r.mu.Lock()
	// Another goroutine may have raced a fresh compute in; keep the newer
	if existing := r.records[scenarioID]; existing != nil && existing.Timestamp.After(loaded.Timestamp) {
		r.mu.Unlock()
		return existing
	}
	r.records[scenarioID] = &loaded
	r.mu.Unlock()
	return &loaded
}

// put replaces the record in both tiers.
func (r *recordSet) put(record *models.CalculationsCache) error {
	r.mu.Lock()
	r.records[record.ScenarioID] = record
	r.mu.Unlock()
	return r.files.WriteJSON(record.ScenarioID, record)
}
