package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmccall/sports-arb/internal/arb"
	"github.com/dmccall/sports-arb/internal/exchange"
	"github.com/dmccall/sports-arb/internal/match"
	"github.com/dmccall/sports-arb/internal/notify"
	"github.com/dmccall/sports-arb/internal/ratelimit"
	"github.com/dmccall/sports-arb/internal/reconcile"
	"github.com/dmccall/sports-arb/internal/sharpfeed"
	"github.com/dmccall/sports-arb/internal/softbook"
	"github.com/dmccall/sports-arb/internal/steam"
	"github.com/dmccall/sports-arb/internal/storage"
	"github.com/dmccall/sports-arb/pkg/cache"
	"github.com/dmccall/sports-arb/pkg/config"
	"github.com/dmccall/sports-arb/pkg/healthprobe"
	"github.com/dmccall/sports-arb/pkg/httpserver"
	"github.com/dmccall/sports-arb/pkg/types"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	// Restore the record cache before any feed loop starts, so the first
	// arbitrage scan after a restart sees yesterday's long-dated records.
	recordCache := reconcile.NewCache()
	restored, err := recordCache.LoadSnapshot(cfg.SnapshotPath)
	if err != nil {
		logger.Warn("snapshot-restore-failed",
			zap.String("path", cfg.SnapshotPath),
			zap.Error(err))
	} else if restored > 0 {
		logger.Info("snapshot-restored",
			zap.String("path", cfg.SnapshotPath),
			zap.Int("records", restored))
	}

	matcher, err := setupMatcher(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup matcher: %w", err)
	}

	arbStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	sink, err := setupSink(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup sink: %w", err)
	}

	engine := setupEngine(cfg, logger, recordCache, matcher, arbStorage)
	scanner := setupScanner(cfg, logger, recordCache, arbStorage, sink)
	detector := setupDetector(cfg, logger, recordCache, arbStorage, sink)

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Records:       recordCache,
		Opportunities: scanner,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		recordCache:   recordCache,
		engine:        engine,
		scanner:       scanner,
		detector:      detector,
		storage:       arbStorage,
		sink:          sink,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupMatcher(logger *zap.Logger) (match.Matcher, error) {
	// Defaults are sized for the normalization memo.
	memo, err := cache.NewRistrettoCache(&cache.RistrettoConfig{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("create normalization memo: %w", err)
	}

	return match.New(match.Config{
		Aliases: match.DefaultAliases,
		Memo:    memo,
		Logger:  logger,
	}), nil
}

func setupEngine(
	cfg *config.Config,
	logger *zap.Logger,
	recordCache *reconcile.Cache,
	matcher match.Matcher,
	store storage.Storage,
) *reconcile.Engine {
	intervals := map[types.FeedCategory]time.Duration{
		types.CategoryLive:     cfg.FetchIntervalLive,
		types.CategoryToday:    cfg.FetchIntervalToday,
		types.CategoryEarly:    cfg.FetchIntervalEarly,
		types.CategoryExchange: cfg.FetchIntervalExchange,
		types.CategorySoftbook: cfg.FetchIntervalSoftbook,
	}

	gate := ratelimit.New(ratelimit.Config{
		Intervals: intervals,
		Logger:    logger,
	})

	sharpClient := sharpfeed.NewClient(sharpfeed.ClientConfig{
		BaseURL:  cfg.SharpBaseURL,
		Username: cfg.SharpUsername,
		Password: cfg.SharpPassword,
		Timeout:  cfg.SharpRequestTimeout,
		Logger:   logger,
	})

	sessions := sharpfeed.NewSessionManager(sharpfeed.SessionConfig{
		Authenticator:  sharpClient,
		RenewThreshold: cfg.SharpRenewThreshold,
		RegisterWindow: cfg.SharpRegisterWindow,
		Logger:         logger,
	})

	exchangeClient := exchange.New(exchange.Config{
		BaseURL: cfg.ExchangeBaseURL,
		AppKey:  cfg.ExchangeAppKey,
		Timeout: cfg.ExchangeRequestTimeout,
		Logger:  logger,
	})

	softbookClient := softbook.New(softbook.Config{
		BaseURL:    cfg.SoftbookBaseURL,
		APIKey:     cfg.SoftbookAPIKey,
		Bookmakers: cfg.SoftbookBookmakers,
		Timeout:    cfg.SoftbookRequestTimeout,
		Logger:     logger,
	})

	return reconcile.NewEngine(
		reconcile.Config{
			Intervals:             intervals,
			SharpSportID:          cfg.SharpSportID,
			SoftbookSportKeys:     splitKeys(cfg.SoftbookSportKeys),
			StaleDropWindow:       cfg.SharpStaleDropWindow,
			ExchangeMinVolumeSoon: cfg.ExchangeMinVolumeSoon,
			DegradedAfterFailures: cfg.DegradedAfterFailures,
			SnapshotPath:          cfg.SnapshotPath,
			SnapshotInterval:      cfg.SnapshotInterval,
		},
		reconcile.Deps{
			Cache:    recordCache,
			Gate:     gate,
			Sessions: sessions,
			Sharp:    sharpClient,
			Exchange: exchangeClient,
			Softbook: softbookClient,
			Matcher:  matcher,
			Store:    store,
			Logger:   logger,
		},
	)
}

func setupScanner(
	cfg *config.Config,
	logger *zap.Logger,
	recordCache *reconcile.Cache,
	store storage.Storage,
	sink notify.Sink,
) *arb.Scanner {
	return arb.NewScanner(arb.Config{
		Commission:   cfg.ArbCommission,
		MinMargin:    cfg.ArbMinMargin,
		MaxMargin:    cfg.ArbMaxMargin,
		MinVolume:    cfg.ArbMinVolume,
		MinSanePrice: cfg.ArbMinSanePrice,
		MaxRecordAge: cfg.ArbMaxRecordAge,
		ScanInterval: cfg.ArbScanInterval,
		Symmetric:    cfg.ArbSymmetric,
	}, recordCache, store, sink, logger)
}

func setupDetector(
	cfg *config.Config,
	logger *zap.Logger,
	recordCache *reconcile.Cache,
	store storage.Storage,
	sink notify.Sink,
) *steam.Detector {
	return steam.NewDetector(steam.Config{
		Window:             cfg.SteamWindow,
		ThresholdPP:        cfg.SteamThresholdPP,
		Cooldown:           cfg.SteamCooldown,
		RealertIncrementPP: cfg.SteamRealertIncrement,
		MinPrice:           cfg.SteamMinPrice,
		MaxPrice:           cfg.SteamMaxPrice,
		TickInterval:       cfg.SteamTickInterval,
		SweepInterval:      cfg.SteamSweepInterval,
	}, recordCache, store, sink, logger)
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (notify.Sink, error) {
	if cfg.NotifyMode == "redis" {
		sink, err := notify.NewRedisSink(ctx, notify.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.RedisStream,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis sink: %w", err)
		}
		return sink, nil
	}

	return notify.NewLogSink(logger), nil
}

func splitKeys(csv string) []string {
	var keys []string
	for _, k := range strings.Split(csv, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
