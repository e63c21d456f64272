// Package precalc keeps per-scenario valuation results precomputed so the
// read path never waits on the engine or on upstream feeds. Results are
// computed for the whole bond universe per scenario, cached in memory and
// on disk, and refreshed in the background when they go stale.
package precalc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/singleflight"

	"github.com/ternarybob/bondval/internal/common"
	"github.com/ternarybob/bondval/internal/interfaces"
	"github.com/ternarybob/bondval/internal/models"
	"github.com/ternarybob/bondval/internal/services/cache"
	"github.com/ternarybob/bondval/internal/services/valuation"
)

// DefaultRefreshInterval is how long a scenario record stays fresh.
const DefaultRefreshInterval = time.Hour

// Config carries the precalculation settings from the application config.
type Config struct {
	RefreshInterval time.Duration
	Inflation       float64 // annual percent, applied to every valuation
	ReinvestSpread  float64 // points below key rate for reinvestment yields
}

// Service implements interfaces.CalculationService.
type Service struct {
	engine    *valuation.Engine
	scenarios interfaces.ScenarioService

	bonds      *cache.Store[[]models.BondRecord]
	rates      *cache.Store[[]models.RatePoint]
	fetchBonds cache.FetchFunc[[]models.BondRecord]
	fetchRates cache.FetchFunc[[]models.RatePoint]

	files   *cache.FileStore // one file per scenario id
	records *recordSet
	group   singleflight.Group

	cfg    Config
	logger arbor.ILogger
	now    func() time.Time
}

var _ interfaces.CalculationService = (*Service)(nil)

// NewService wires the precalculation service. fetchBonds and fetchRates
// are expected to already carry gateway resilience.
func NewService(
	engine *valuation.Engine,
	scenarioSvc interfaces.ScenarioService,
	bonds *cache.Store[[]models.BondRecord],
	rates *cache.Store[[]models.RatePoint],
	fetchBonds cache.FetchFunc[[]models.BondRecord],
	fetchRates cache.FetchFunc[[]models.RatePoint],
	files *cache.FileStore,
	cfg Config,
	logger arbor.ILogger,
) *Service {
	if logger == nil {
		logger = common.GetLogger()
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.ReinvestSpread == 0 {
		cfg.ReinvestSpread = valuation.DefaultReinvestSpread
	}
	return &Service{
		engine:     engine,
		scenarios:  scenarioSvc,
		bonds:      bonds,
		rates:      rates,
		fetchBonds: fetchBonds,
		fetchRates: fetchRates,
		files:      files,
		records:    newRecordSet(files),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// GetCalculatedBonds returns the cached result set for a scenario without
// ever blocking on computation. A cold scenario returns an in-progress
// placeholder and kicks off the first computation; an outdated record is
// returned immediately, marked stale, while a recompute runs behind it.
func (s *Service) GetCalculatedBonds(ctx context.Context, scenarioID string) (*models.CalculationsCache, error) {
	if _, err := s.scenarios.Get(scenarioID); err != nil {
		return nil, err
	}

	record := s.records.get(scenarioID)
	if record == nil {
		s.recomputeAsync(scenarioID)
		return &models.CalculationsCache{
			Timestamp:  s.now(),
			ScenarioID: scenarioID,
			Bonds:      []*models.CalculationResults{},
			InProgress: true,
		}, nil
	}

	if s.isStale(record, scenarioID) {
		s.recomputeAsync(scenarioID)
		stale := *record
		stale.Stale = true
		return &stale, nil
	}

	return record, nil
}

// RefreshAll recomputes every known scenario. Wired to the hourly cron.
func (s *Service) RefreshAll(ctx context.Context) {
	for _, scenario := range s.scenarios.List() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.recompute(ctx, scenario.ID); err != nil {
			s.logger.Warn().
				Str("scenario", scenario.ID).
				Err(err).
				Msg("Scheduled refresh failed")
		}
	}
}

// isStale reports whether the record needs a recompute: either it aged past
// the refresh interval, or the scenario definition changed after it was
// computed.
func (s *Service) isStale(record *models.CalculationsCache, scenarioID string) bool {
	if s.now().Sub(record.Timestamp) > s.cfg.RefreshInterval {
		return true
	}
	if modTime, err := s.scenarios.ModTime(scenarioID); err == nil && modTime.After(record.Timestamp) {
		return true
	}
	return false
}

// recomputeAsync schedules a recompute without blocking the caller.
// Concurrent triggers for the same scenario collapse into one run.
func (s *Service) recomputeAsync(scenarioID string) {
	common.SafeGo(s.logger, "precalc-"+scenarioID, func() {
		if _, err := s.recompute(context.Background(), scenarioID); err != nil {
			s.logger.Error().
				Str("scenario", scenarioID).
				Err(err).
				Msg("Background recompute failed")
		}
	})
}

func (s *Service) recompute(ctx context.Context, scenarioID string) (*models.CalculationsCache, error) {
	result, err, _ := s.group.Do(scenarioID, func() (interface{}, error) {
		return s.compute(ctx, scenarioID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.CalculationsCache), nil
}

// compute values the whole universe under one scenario and replaces the
// record wholesale. Individual bond failures are skipped, never fatal.
func (s *Service) compute(ctx context.Context, scenarioID string) (*models.CalculationsCache, error) {
	runID := uuid.New().String()[:8]
	started := s.now()

	scenario, err := s.scenarios.Get(scenarioID)
	if err != nil {
		return nil, err
	}

	bonds, bondsStale, err := s.bonds.Get(ctx, s.fetchBonds)
	if err != nil {
		return nil, fmt.Errorf("bond universe unavailable: %w", err)
	}
	history, ratesStale, err := s.rates.Get(ctx, s.fetchRates)
	if err != nil {
		return nil, fmt.Errorf("rate history unavailable: %w", err)
	}
	if len(history) == 0 {
		return nil, errors.New("rate history is empty")
	}
	currentKeyRate := history[0].Rate

	schedule, err := valuation.ResolveRateSchedule(history, scenario.Forecast, started)
	if err != nil {
		return nil, fmt.Errorf("resolve rate schedule: %w", err)
	}

	s.logger.Info().
		Str("run", runID).
		Str("scenario", scenarioID).
		Int("bonds", len(bonds)).
		Bool("bonds_stale", bondsStale).
		Bool("rates_stale", ratesStale).
		Msg("Precalculation started")

	results := make([]*models.CalculationResults, 0, len(bonds))
	skipped := 0
	for _, bond := range bonds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		calc, err := s.engine.Calculate(s.buildInput(bond, schedule, currentKeyRate, started))
		if err != nil {
			skipped++
			s.logger.Warn().
				Str("run", runID).
				Str("ticker", bond.Ticker).
				Err(err).
				Msg("Skipping bond")
			continue
		}
		results = append(results, calc)

		// Long universes must not starve the request path
		runtime.Gosched()
	}

	record := &models.CalculationsCache{
		Timestamp:      started,
		ScenarioID:     scenarioID,
		CurrentKeyRate: currentKeyRate,
		Bonds:          results,
	}
	if err := s.records.put(record); err != nil {
		s.logger.Warn().
			Str("scenario", scenarioID).
			Err(err).
			Msg("Failed to persist calculation record")
	}

	s.logger.Info().
		Str("run", runID).
		Str("scenario", scenarioID).
		Int("calculated", len(results)).
		Int("skipped", skipped).
		Str("elapsed", s.now().Sub(started).String()).
		Msg("Precalculation finished")

	return record, nil
}

// buildInput maps one bond record to an engine request. The purchase date
// is now; the first coupon date is derived from the maturity-anchored
// coupon grid. The curve yield falls back to the exchange-quoted yield when
// the feed supplies no curve value.
func (s *Service) buildInput(bond models.BondRecord, schedule valuation.RateSchedule, currentKeyRate float64, now time.Time) valuation.Input {
	first := bond.MaturityDate
	for first.AddDate(0, 0, -bond.CouponPeriodDays).After(now) {
		first = first.AddDate(0, 0, -bond.CouponPeriodDays)
	}

	theoretical := bond.MarketYTM

	return valuation.Input{
		Ticker:           bond.Ticker,
		Name:             bond.Name,
		Nominal:          bond.Nominal,
		Price:            bond.Price + bond.AccruedInterest,
		Coupon:           bond.Coupon,
		PeriodDays:       bond.CouponPeriodDays,
		PurchaseDate:     now,
		FirstCouponDate:  first,
		MaturityDate:     bond.MaturityDate,
		Schedule:         schedule,
		CurrentKeyRate:   currentKeyRate,
		Inflation:        s.cfg.Inflation,
		MarketYTM:        bond.MarketYTM,
		TheoreticalYield: theoretical,
	}
}

// CacheAges reports the age of every tier for the status endpoint.
func (s *Service) CacheAges() map[string]string {
	ages := make(map[string]string)
	if _, age, ok := s.bonds.Cached(); ok {
		ages["bonds"] = age.Round(time.Second).String()
	}
	if _, age, ok := s.rates.Cached(); ok {
		ages["rates"] = age.Round(time.Second).String()
	}
	for _, scenario := range s.scenarios.List() {
		if record := s.records.get(scenario.ID); record != nil {
			ages["calculations-"+scenario.ID] = s.now().Sub(record.Timestamp).Round(time.Second).String()
		}
	}
	return ages
}
