// Command profitwatch watches an exchange account and reports when its
// fiat-equivalent balance has gained a configured amount over the recorded baseline.
//
// Usage:
//
//	profitwatch --config config.yaml
//	profitwatch --once         (single check, then exit)
//	profitwatch --checkpoint   (record the current balance as the new baseline, then exit)
//
// Required environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
//	For Hyperliquid: HYPERLIQUID_PRIVATE_KEY
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/profitwatch/config"
	"github.com/vadiminshakov/profitwatch/internal"
	"github.com/vadiminshakov/profitwatch/internal/clients"
	"github.com/vadiminshakov/profitwatch/internal/domain"
	"github.com/vadiminshakov/profitwatch/internal/metrics"
	"github.com/vadiminshakov/profitwatch/internal/services/marketdata"
	"github.com/vadiminshakov/profitwatch/internal/services/profit"
	"github.com/vadiminshakov/profitwatch/internal/setup"
	"github.com/vadiminshakov/profitwatch/internal/storage/history"
	"github.com/vadiminshakov/profitwatch/pkg/retrier"
)

func main() {
	conf, flags, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(flags.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, conf, flags); err != nil {
		logger.Fatal("profitwatch failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, logger *zap.Logger, conf config.Config, flags config.Flags) error {
	client, err := newClient(ctx, logger, conf)
	if err != nil {
		return err
	}

	provider, err := internal.NewMarketDataProvider(client, conf.Credentials.HyperliquidAccountAddress)
	if err != nil {
		return err
	}
	guarded := marketdata.NewGuard(conf.Platform, provider, conf.ProviderTimeout)

	store, err := history.Open(ctx, logger, conf.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close balance history", zap.Error(err))
		}
	}()

	evaluator, err := profit.NewEvaluator(logger, guarded, store, profit.Config{
		Threshold:        conf.Threshold,
		StrictAssetMatch: conf.StrictAssetMatch,
	})
	if err != nil {
		return err
	}

	var registry *metrics.Registry
	if conf.MetricsAddr != "" {
		registry = metrics.New(conf.Pair.String())
	}

	watcher, err := internal.NewWatcher(logger, evaluator, store, registry, internal.WatcherConfig{
		Asset:             conf.Asset,
		Pair:              conf.Pair,
		Schedule:          conf.Schedule,
		CheckpointOnReach: conf.CheckpointOnReach,
	})
	if err != nil {
		return err
	}

	if flags.Checkpoint {
		_, err := watcher.Checkpoint(ctx)
		return err
	}

	if err := ensureBaseline(ctx, logger, store, conf.Asset); err != nil {
		return err
	}

	if flags.Once {
		_, err := watcher.Check(ctx)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watcher.Run(gctx) })
	if registry != nil {
		g.Go(func() error { return registry.Serve(gctx, logger, conf.MetricsAddr) })
	}
	return g.Wait()
}

func newClient(ctx context.Context, logger *zap.Logger, conf config.Config) (any, error) {
	creds := conf.Credentials
	switch conf.Platform {
	case config.PlatformBinance:
		client := clients.NewBinanceClient(creds.BinanceAPIKey, creds.BinanceAPISecret)
		offset, err := clients.SyncBinanceTime(ctx, client, retrier.New(retrier.WithMaxRetries(3)))
		if err != nil {
			return nil, err
		}
		logger.Debug("synchronized binance server time", zap.Int64("offset_ms", offset))
		return client, nil
	case config.PlatformBybit:
		return clients.NewBybitClient(creds.BybitAPIKey, creds.BybitAPISecret, creds.BybitBaseURL), nil
	case config.PlatformHyperliquid:
		client, err := clients.NewHyperliquidClient(creds.HyperliquidPrivateKey, "")
		if err != nil {
			return nil, domain.NewConfigurationError("credentials", "invalid HYPERLIQUID_PRIVATE_KEY: "+err.Error())
		}
		return client, nil
	default:
		return nil, domain.NewConfigurationError("platform", "unsupported platform "+conf.Platform)
	}
}

// ensureBaseline asks the operator for an initial balance when none has been recorded.
func ensureBaseline(ctx context.Context, logger *zap.Logger, store *history.Store, asset string) error {
	_, err := store.LatestRecord(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNoBaseline) {
		return err
	}

	baseline, err := setup.PromptBaseline(asset)
	if err != nil {
		if errors.Is(err, setup.ErrAborted) {
			logger.Warn("no baseline recorded; profit stays zero until one is recorded")
			return nil
		}
		return err
	}

	if err := store.InsertRecord(ctx, baseline.AmountMinorUnits, baseline.Currency); err != nil {
		return err
	}
	logger.Info("recorded initial balance",
		zap.Int64("balance_cents", baseline.AmountMinorUnits),
		zap.String("currency", baseline.Currency),
	)
	return nil
}
