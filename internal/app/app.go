package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/bondval/internal/common"
	"github.com/ternarybob/bondval/internal/handlers"
	"github.com/ternarybob/bondval/internal/interfaces"
	"github.com/ternarybob/bondval/internal/models"
	"github.com/ternarybob/bondval/internal/services/cache"
	"github.com/ternarybob/bondval/internal/services/gateway"
	"github.com/ternarybob/bondval/internal/services/marketdata"
	"github.com/ternarybob/bondval/internal/services/precalc"
	"github.com/ternarybob/bondval/internal/services/scenarios"
	"github.com/ternarybob/bondval/internal/services/throttle"
	"github.com/ternarybob/bondval/internal/services/valuation"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	// Domain services
	Engine          *valuation.Engine
	ScenarioService interfaces.ScenarioService
	PrecalcService  *precalc.Service

	// Upstream resilience
	BondsGateway *gateway.Gateway
	RatesGateway *gateway.Gateway

	// Request-flood protection
	ConcurrencyLimiter *throttle.ConcurrencyLimiter
	ClientLimiter      *throttle.ClientLimiter

	// Background refresh
	scheduler *cron.Cron

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	BondsHandler     *handlers.BondsHandler
	ScenariosHandler *handlers.ScenariosHandler
	StatusHandler    *handlers.StatusHandler
}

// New wires the application: config -> stores -> gateways -> provider ->
// scenarios -> engine -> precalc -> handlers.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		Config:    config,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	// Flat-file cache layers
	dataFiles, err := cache.NewFileStore(config.Storage.DataDir)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize data directory: %w", err)
	}
	calcFiles, err := cache.NewFileStore(filepath.Join(config.Storage.DataDir, "calculations"))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize calculations directory: %w", err)
	}

	// Upstream provider and resilience gateways
	client := marketdata.NewClient(
		config.MarketData.BondsURL,
		config.MarketData.RatesURL,
		marketdata.WithLogger(logger),
		marketdata.WithRateLimit(config.MarketData.RateLimit),
	)
	gatewayOpts := []gateway.Option{
		gateway.WithCallTimeout(common.Duration(config.Gateway.CallTimeout, 15*time.Second)),
		gateway.WithMaxAttempts(config.Gateway.MaxAttempts),
		gateway.WithBackoffIntervals(
			common.Duration(config.Gateway.InitialBackoff, time.Second),
			common.Duration(config.Gateway.MaxBackoff, 10*time.Second),
		),
		gateway.WithBreaker(
			config.Gateway.FailureThreshold,
			common.Duration(config.Gateway.ResetTimeout, 30*time.Second),
		),
		gateway.WithLogger(logger),
	}
	a.BondsGateway = gateway.New("exchange", gatewayOpts...)
	a.RatesGateway = gateway.New("central-bank", gatewayOpts...)

	fetchBonds := func(ctx context.Context) ([]models.BondRecord, error) {
		return gateway.DoWithResult(ctx, a.BondsGateway, "fetch-bonds", client.FetchBonds)
	}
	fetchRates := func(ctx context.Context) ([]models.RatePoint, error) {
		return gateway.DoWithResult(ctx, a.RatesGateway, "fetch-rate-history", client.FetchRateHistory)
	}

	bondStore := cache.NewStore[[]models.BondRecord](
		"bonds-cache",
		common.Duration(config.MarketData.BondCacheTTL, time.Hour),
		dataFiles,
		cache.WithStoreLogger[[]models.BondRecord](logger),
		cache.WithEmptyCheck[[]models.BondRecord](func(bonds []models.BondRecord) bool {
			return len(bonds) == 0
		}),
	)
	rateStore := cache.NewStore[[]models.RatePoint](
		"key-rate-cache",
		common.Duration(config.MarketData.RateCacheTTL, 6*time.Hour),
		dataFiles,
		cache.WithStoreLogger[[]models.RatePoint](logger),
		cache.WithEmptyCheck[[]models.RatePoint](func(points []models.RatePoint) bool {
			return len(points) == 0
		}),
	)

	// Scenario definitions
	scenarioSvc, err := scenarios.NewService(config.Scenarios.Dir, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}
	a.ScenarioService = scenarioSvc

	// Valuation engine and the precalculation layer above it
	a.Engine = valuation.NewEngine(valuation.WithReinvestSpread(config.Precalc.ReinvestSpread))
	a.PrecalcService = precalc.NewService(
		a.Engine,
		scenarioSvc,
		bondStore,
		rateStore,
		fetchBonds,
		fetchRates,
		calcFiles,
		precalc.Config{
			RefreshInterval: common.Duration(config.Precalc.RefreshInterval, time.Hour),
			Inflation:       config.Precalc.Inflation,
			ReinvestSpread:  config.Precalc.ReinvestSpread,
		},
		logger,
	)

	// Request-flood protection
	a.ConcurrencyLimiter = throttle.NewConcurrencyLimiter(
		config.Throttle.GlobalConcurrent,
		config.Throttle.EndpointConcurrent,
	)
	a.ClientLimiter = throttle.NewClientLimiter(
		config.Throttle.ClientLimit,
		time.Duration(config.Throttle.Window)*time.Second,
		config.Throttle.MaxClients,
	)

	// Handlers
	a.APIHandler = handlers.NewAPIHandler()
	a.BondsHandler = handlers.NewBondsHandler(a.PrecalcService, handlers.RiskRewardScenarios{
		Base:         config.Precalc.BaseScenario,
		Optimistic:   config.Precalc.OptimisticScenario,
		Conservative: config.Precalc.ConservativeScenario,
	})
	a.ScenariosHandler = handlers.NewScenariosHandler(scenarioSvc)
	a.StatusHandler = handlers.NewStatusHandler(
		[]*gateway.Gateway{a.BondsGateway, a.RatesGateway},
		a.PrecalcService,
		a.ConcurrencyLimiter,
	)

	// Scheduled full refresh plus an immediate warm-up run
	a.scheduler = cron.New()
	if _, err := a.scheduler.AddFunc(config.Precalc.Schedule, func() {
		a.PrecalcService.RefreshAll(a.ctx)
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid precalc schedule %q: %w", config.Precalc.Schedule, err)
	}
	a.scheduler.Start()
	common.SafeGoWithContext(a.ctx, logger, "precalc-warmup", func() {
		a.PrecalcService.RefreshAll(a.ctx)
	})

	return a, nil
}

// Close stops the scheduler and background work
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.cancelCtx()
}
