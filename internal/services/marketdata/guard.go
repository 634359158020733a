package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/vadiminshakov/profitwatch/internal/domain"
)

const (
	defaultCallTimeout  = 10 * time.Second
	breakerOpenDuration = 60 * time.Second
	breakerTripFailures = 3
)

// Guard bounds every provider call with a timeout and a circuit breaker.
// Failures, timeouts and open-breaker rejections surface as domain.ProviderError.
// It never retries.
type Guard struct {
	next    Provider
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewGuard wraps next. A non-positive timeout selects the default of 10s.
func NewGuard(name string, next Provider, timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     breakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripFailures
		},
	}

	return &Guard{
		next:    next,
		cb:      gobreaker.NewCircuitBreaker(st),
		timeout: timeout,
	}
}

func (g *Guard) TotalAssetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return g.call(ctx, "get total balance of "+asset, func(ctx context.Context) (decimal.Decimal, error) {
		return g.next.TotalAssetBalance(ctx, asset)
	})
}

func (g *Guard) PairPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return g.call(ctx, "get price for "+symbol, func(ctx context.Context) (decimal.Decimal, error) {
		return g.next.PairPrice(ctx, symbol)
	})
}

// State reports the breaker state, e.g. "closed" or "open".
func (g *Guard) State() string {
	return g.cb.State().String()
}

type callResult struct {
	value decimal.Decimal
	err   error
}

func (g *Guard) call(ctx context.Context, op string, fn func(ctx context.Context) (decimal.Decimal, error)) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.cb.Execute(func() (interface{}, error) {
		// some exchange SDKs ignore ctx, so the deadline is enforced here as well
		done := make(chan callResult, 1)
		go func() {
			v, err := fn(ctx)
			done <- callResult{value: v, err: err}
		}()

		select {
		case r := <-done:
			return r.value, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	if err != nil {
		return decimal.Zero, domain.NewProviderError(op, err)
	}
	return res.(decimal.Decimal), nil
}
