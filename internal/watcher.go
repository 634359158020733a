package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/profitwatch/internal/domain"
	"github.com/vadiminshakov/profitwatch/internal/metrics"
	"github.com/vadiminshakov/profitwatch/internal/storage/history"
)

type profitEvaluator interface {
	Evaluate(ctx context.Context, asset, pairSymbol string) (domain.ProfitSnapshot, bool, error)
	CurrentBalanceMinorUnits(ctx context.Context, asset, pairSymbol string) (int64, error)
	Threshold() decimal.Decimal
}

type baselineWriter interface {
	InsertRecord(ctx context.Context, amountMinorUnits int64, currency string, opts ...history.RecordOption) error
}

// WatcherConfig what to watch and how often.
type WatcherConfig struct {
	Asset    string
	Pair     domain.Pair
	Schedule string
	// CheckpointOnReach records the current balance as the new baseline after the threshold is reached.
	CheckpointOnReach bool
}

// CheckResult outcome of a single profit check.
type CheckResult struct {
	ID       string
	Snapshot domain.ProfitSnapshot
	Reached  bool
}

// Watcher runs profit checks on a cron schedule.
type Watcher struct {
	eval    profitEvaluator
	store   baselineWriter
	metrics *metrics.Registry
	conf    WatcherConfig
	l       *zap.Logger
	now     func() time.Time
}

// NewWatcher wires the evaluator, the baseline store and metrics. m may be nil.
func NewWatcher(l *zap.Logger, eval profitEvaluator, store baselineWriter, m *metrics.Registry, conf WatcherConfig) (*Watcher, error) {
	if eval == nil {
		return nil, domain.NewConfigurationError("evaluator", "is required")
	}
	if store == nil {
		return nil, domain.NewConfigurationError("store", "is required")
	}
	if conf.Asset == "" {
		return nil, domain.NewConfigurationError("asset", "is required")
	}
	if m != nil {
		m.SetThreshold(eval.Threshold())
	}

	return &Watcher{
		eval:    eval,
		store:   store,
		metrics: m,
		conf:    conf,
		l:       l.With(zap.String("asset", conf.Asset), zap.String("pair", conf.Pair.String())),
		now:     time.Now,
	}, nil
}

// Check evaluates profit once and reports the result.
func (w *Watcher) Check(ctx context.Context) (CheckResult, error) {
	id := uuid.NewString()
	l := w.l.With(zap.String("check_id", id))
	started := w.now()

	snapshot, reached, err := w.eval.Evaluate(ctx, w.conf.Asset, w.conf.Pair.Symbol())
	took := w.now().Sub(started)
	if err != nil {
		if w.metrics != nil {
			w.metrics.ObserveError(err, took)
		}
		l.Error("profit check failed", zap.Error(err), zap.Duration("took", took))
		return CheckResult{ID: id}, err
	}
	if w.metrics != nil {
		w.metrics.ObserveSnapshot(snapshot, reached, took)
	}

	result := CheckResult{ID: id, Snapshot: snapshot, Reached: reached}
	if !reached {
		l.Info("threshold not reached",
			zap.String("profit", snapshot.ProfitMajorUnits.StringFixed(2)),
			zap.String("threshold", w.eval.Threshold().String()),
		)
		return result, nil
	}

	l.Info("threshold reached!",
		zap.String("profit", snapshot.ProfitMajorUnits.StringFixed(2)),
		zap.String("threshold", w.eval.Threshold().String()),
	)

	if w.conf.CheckpointOnReach {
		if err := w.store.InsertRecord(ctx, snapshot.CurrentBalanceMinorUnits, w.conf.Asset); err != nil {
			l.Error("failed to record new baseline", zap.Error(err))
			return result, errors.Wrap(err, "checkpoint after threshold reached")
		}
		l.Info("recorded new baseline", zap.Int64("balance_cents", snapshot.CurrentBalanceMinorUnits))
	}

	return result, nil
}

// Checkpoint records the current computed balance as the new baseline.
func (w *Watcher) Checkpoint(ctx context.Context) (int64, error) {
	current, err := w.eval.CurrentBalanceMinorUnits(ctx, w.conf.Asset, w.conf.Pair.Symbol())
	if err != nil {
		return 0, err
	}
	if err := w.store.InsertRecord(ctx, current, w.conf.Asset); err != nil {
		return 0, err
	}
	w.l.Info("recorded baseline", zap.Int64("balance_cents", current))
	return current, nil
}

// Run performs an immediate check, then one per schedule tick until ctx is cancelled.
// Check failures are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.conf.Schedule, func() { _, _ = w.Check(ctx) }); err != nil {
		return domain.NewConfigurationError("schedule", err.Error())
	}

	w.l.Info("starting profit watcher", zap.String("schedule", w.conf.Schedule))
	_, _ = w.Check(ctx)

	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	w.l.Info("profit watcher stopped")
	return nil
}
