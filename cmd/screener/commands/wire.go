package commands

import (
	"fmt"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/internal/provider/alphavantage"
	"github.com/calspread/screener/internal/provider/eodhd"
	"github.com/calspread/screener/internal/provider/sample"
	"github.com/calspread/screener/internal/provider/yahoo"
	"github.com/calspread/screener/internal/scan"
	"github.com/calspread/screener/internal/screen"
	"github.com/calspread/screener/internal/source"
	"github.com/calspread/screener/pkg/config"
	"github.com/calspread/screener/pkg/httputil"
	"github.com/calspread/screener/pkg/logger"
	"github.com/calspread/screener/pkg/redis"
)

// runtime bundles everything a command needs after wiring
type runtime struct {
	cfg    *config.Config
	log    *logger.Logger
	engine *scan.Engine
	store  *scan.ReportStore
	router *source.Router
	chain  []contracts.Provider
	redis  *redis.Client
}

// buildRuntime wires config, logging, providers, the source router and
// the scan engine. Every command starts here.
func buildRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	httpClient := httputil.New(log, cfg.HTTP.RequestTimeout)

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	var quota *redis.QuotaCounter
	if redisClient.Enabled() {
		quota = redis.NewQuotaCounter(redisClient, "screener:quota")
		log.Info("Redis quota accounting enabled")
	}

	adapters := map[string]contracts.Provider{
		contracts.SourceAlphaVantage: alphavantage.New(cfg.AlphaVantage, httpClient, log),
		contracts.SourceYahoo:        yahoo.New(cfg.Yahoo, httpClient, log),
		contracts.SourceEODHD:        eodhd.New(cfg.EODHD, httpClient, log),
	}
	rates := map[string]config.RateLimit{
		contracts.SourceAlphaVantage: cfg.AlphaVantage.Rate,
		contracts.SourceYahoo:        cfg.Yahoo.Rate,
		contracts.SourceEODHD:        cfg.EODHD.Rate,
	}

	chain := make([]contracts.Provider, 0, len(cfg.SourceChain))
	limiters := make(map[string]*source.ProviderLimiter, len(cfg.SourceChain))
	for _, name := range cfg.SourceChain {
		adapter, ok := adapters[name]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q in SOURCE_CHAIN", name)
		}
		chain = append(chain, adapter)
		limiters[name] = source.NewProviderLimiter(name, rates[name], quota, log)
	}

	router := source.NewRouter(
		chain,
		sample.New(log),
		source.NewRecordCache(cfg.Cache.TTL, cfg.Cache.Capacity, log),
		limiters,
		source.NewRetryPolicy(cfg.Retry, log),
		source.NewHealthTracker(),
		log,
	)

	period, err := contracts.ParsePeriod(cfg.Scan.DefaultPeriod)
	if err != nil {
		return nil, fmt.Errorf("default period: %w", err)
	}

	orchestrator := scan.NewOrchestrator(
		router,
		screen.NewEvaluator(cfg.Scan.PassThreshold, log),
		period,
		cfg.Scan.Workers,
		log,
	)

	engine, err := scan.NewEngine(orchestrator, router, contracts.DefaultCriteria(), log)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	return &runtime{
		cfg:    cfg,
		log:    log,
		engine: engine,
		store:  scan.NewReportStore(),
		router: router,
		chain:  chain,
		redis:  redisClient,
	}, nil
}

// close releases runtime resources
func (rt *runtime) close() {
	if rt.redis != nil {
		rt.redis.Close()
	}
}
