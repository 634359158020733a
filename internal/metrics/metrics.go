// Package metrics exposes profit check results to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/profitwatch/internal/domain"
	"go.uber.org/zap"
)

// Error kinds used as the check_errors_total label.
const (
	KindProvider    = "provider"
	KindPersistence = "persistence"
	KindOther       = "other"
)

// Registry holds the watcher's collectors on a private prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	Profit         prometheus.Gauge
	CurrentBalance prometheus.Gauge
	InitialBalance prometheus.Gauge
	Threshold      prometheus.Gauge
	Checks         prometheus.Counter
	Reached        prometheus.Counter
	CheckErrors    *prometheus.CounterVec
	CheckDuration  prometheus.Histogram
}

// New creates and registers all collectors. pair is attached as a constant label.
func New(pair string) *Registry {
	labels := prometheus.Labels{"pair": pair}
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Profit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "profitwatch_profit_major_units",
			Help:        "Profit over the baseline in major fiat units",
			ConstLabels: labels,
		}),
		CurrentBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "profitwatch_current_balance_minor_units",
			Help:        "Current fiat-equivalent balance in minor units",
			ConstLabels: labels,
		}),
		InitialBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "profitwatch_initial_balance_minor_units",
			Help:        "Latest recorded baseline in minor units",
			ConstLabels: labels,
		}),
		Threshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "profitwatch_threshold_major_units",
			Help:        "Configured profit threshold in major fiat units",
			ConstLabels: labels,
		}),
		Checks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "profitwatch_checks_total",
			Help:        "Total number of profit checks run",
			ConstLabels: labels,
		}),
		Reached: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "profitwatch_threshold_reached_total",
			Help:        "Total number of checks where profit reached the threshold",
			ConstLabels: labels,
		}),
		CheckErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "profitwatch_check_errors_total",
			Help:        "Total number of failed profit checks by error kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "profitwatch_check_duration_seconds",
			Help:        "Duration of a profit check in seconds",
			ConstLabels: labels,
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	r.reg.MustRegister(r.Profit, r.CurrentBalance, r.InitialBalance, r.Threshold,
		r.Checks, r.Reached, r.CheckErrors, r.CheckDuration)
	return r
}

// ObserveSnapshot records a successful check.
func (r *Registry) ObserveSnapshot(s domain.ProfitSnapshot, reached bool, took time.Duration) {
	r.Checks.Inc()
	r.CheckDuration.Observe(took.Seconds())
	r.Profit.Set(s.ProfitMajorUnits.InexactFloat64())
	r.CurrentBalance.Set(float64(s.CurrentBalanceMinorUnits))
	r.InitialBalance.Set(float64(s.InitialBalanceMinorUnits))
	if reached {
		r.Reached.Inc()
	}
}

// ObserveError records a failed check.
func (r *Registry) ObserveError(err error, took time.Duration) {
	r.Checks.Inc()
	r.CheckDuration.Observe(took.Seconds())
	r.CheckErrors.WithLabelValues(ErrorKind(err)).Inc()
}

// SetThreshold publishes the configured threshold.
func (r *Registry) SetThreshold(threshold decimal.Decimal) {
	r.Threshold.Set(threshold.InexactFloat64())
}

// ErrorKind classifies err for the check_errors_total label.
func ErrorKind(err error) string {
	switch {
	case domain.IsProviderError(err):
		return KindProvider
	case domain.IsPersistenceError(err):
		return KindPersistence
	default:
		return KindOther
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Registry) Serve(ctx context.Context, l *zap.Logger, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Warn("metrics server shutdown", zap.Error(err))
		}
	}()

	l.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "metrics server")
	}
	return nil
}
