// Package profit decides whether the account's fiat-equivalent balance has gained enough
// over the recorded baseline.
package profit

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/profitwatch/internal/domain"
	"go.uber.org/zap"
)

type marketData interface {
	TotalAssetBalance(ctx context.Context, asset string) (decimal.Decimal, error)
	PairPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type baselineStore interface {
	LatestRecord(ctx context.Context) (domain.BalanceRecord, error)
}

// Config fixed evaluator settings.
type Config struct {
	// Threshold profit in major fiat units at or above which the target counts as reached.
	Threshold decimal.Decimal
	// StrictAssetMatch rejects baselines recorded for a different currency than the evaluated asset.
	StrictAssetMatch bool
}

// Evaluator computes profit against the latest recorded baseline.
// It holds no state besides its configuration; every call reads fresh data.
type Evaluator struct {
	provider marketData
	store    baselineStore
	conf     Config
	l        *zap.Logger
}

// NewEvaluator validates collaborators and returns an evaluator.
func NewEvaluator(l *zap.Logger, provider marketData, store baselineStore, conf Config) (*Evaluator, error) {
	if provider == nil {
		return nil, domain.NewConfigurationError("provider", "market data provider is required")
	}
	if store == nil {
		return nil, domain.NewConfigurationError("store", "balance history store is required")
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Evaluator{provider: provider, store: store, conf: conf, l: l}, nil
}

// Threshold returns the configured profit threshold.
func (e *Evaluator) Threshold() decimal.Decimal {
	return e.conf.Threshold
}

// CurrentBalanceMinorUnits values the account's holdings of asset at the price of pairSymbol,
// rounded half away from zero to minor units.
func (e *Evaluator) CurrentBalanceMinorUnits(ctx context.Context, asset, pairSymbol string) (int64, error) {
	holdings, err := e.provider.TotalAssetBalance(ctx, asset)
	if err != nil {
		return 0, domain.NewProviderError("get total balance of "+asset, err)
	}

	price, err := e.provider.PairPrice(ctx, pairSymbol)
	if err != nil {
		return 0, domain.NewProviderError("get price for "+pairSymbol, err)
	}

	totalCents := domain.MinorUnitsFromMajor(holdings.Mul(price))
	e.l.Info("current balance",
		zap.String("asset", asset),
		zap.String("pair", pairSymbol),
		zap.String("holdings", holdings.String()),
		zap.String("price", price.String()),
		zap.String("total", domain.MajorFromMinorUnits(totalCents).StringFixed(2)),
	)
	return totalCents, nil
}

// InitialBalanceMinorUnits returns the latest recorded baseline, or 0 when none exists.
func (e *Evaluator) InitialBalanceMinorUnits(ctx context.Context) (int64, error) {
	record, ok, err := e.baseline(ctx)
	if err != nil || !ok {
		return 0, err
	}
	return record.BalanceMinorUnits, nil
}

func (e *Evaluator) baseline(ctx context.Context) (domain.BalanceRecord, bool, error) {
	record, err := e.store.LatestRecord(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoBaseline) {
			return domain.BalanceRecord{}, false, nil
		}
		return domain.BalanceRecord{}, false, domain.NewPersistenceError("latest record", err)
	}

	e.l.Info("initial balance",
		zap.String("amount", domain.MajorFromMinorUnits(record.BalanceMinorUnits).StringFixed(2)),
		zap.String("currency", record.Currency),
		zap.Time("recorded_at", record.CreatedAt),
	)
	return record, true, nil
}

// ProfitMajorUnits returns (current - initial) in major units. Without a baseline it
// returns zero and does not contact the market-data provider.
func (e *Evaluator) ProfitMajorUnits(ctx context.Context, asset, pairSymbol string) (decimal.Decimal, error) {
	snapshot, err := e.snapshot(ctx, asset, pairSymbol)
	if err != nil {
		return decimal.Zero, err
	}
	return snapshot.ProfitMajorUnits, nil
}

// IsAboveThreshold reports whether profit >= threshold.
func (e *Evaluator) IsAboveThreshold(ctx context.Context, asset, pairSymbol string) (bool, error) {
	_, reached, err := e.Evaluate(ctx, asset, pairSymbol)
	return reached, err
}

// Evaluate computes the snapshot and the threshold decision in one pass.
func (e *Evaluator) Evaluate(ctx context.Context, asset, pairSymbol string) (domain.ProfitSnapshot, bool, error) {
	snapshot, err := e.snapshot(ctx, asset, pairSymbol)
	if err != nil {
		return domain.ProfitSnapshot{}, false, err
	}
	return snapshot, snapshot.ProfitMajorUnits.GreaterThanOrEqual(e.conf.Threshold), nil
}

func (e *Evaluator) snapshot(ctx context.Context, asset, pairSymbol string) (domain.ProfitSnapshot, error) {
	record, ok, err := e.baseline(ctx)
	if err != nil {
		return domain.ProfitSnapshot{}, err
	}

	if !ok || record.BalanceMinorUnits == 0 {
		e.l.Warn("initial balance is zero, cannot calculate profit; record the initial balance first")
		return domain.ProfitSnapshot{ProfitMajorUnits: decimal.Zero}, nil
	}

	if !strings.EqualFold(record.Currency, asset) {
		if e.conf.StrictAssetMatch {
			return domain.ProfitSnapshot{}, errors.Wrapf(domain.ErrBaselineMismatch,
				"baseline recorded for %s, evaluating %s", record.Currency, asset)
		}
		e.l.Warn("baseline currency differs from evaluated asset",
			zap.String("baseline_currency", record.Currency), zap.String("asset", asset))
	}

	current, err := e.CurrentBalanceMinorUnits(ctx, asset, pairSymbol)
	if err != nil {
		return domain.ProfitSnapshot{}, err
	}

	profit := domain.MajorFromMinorUnits(current - record.BalanceMinorUnits)
	e.l.Info("difference", zap.String("profit", profit.StringFixed(2)))

	return domain.ProfitSnapshot{
		CurrentBalanceMinorUnits: current,
		InitialBalanceMinorUnits: record.BalanceMinorUnits,
		ProfitMajorUnits:         profit,
	}, nil
}
