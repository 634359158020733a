// Package marketdata adapts exchange APIs to the balance and price lookups the profit evaluator needs.
package marketdata

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider market-data lookups.
type Provider interface {
	// TotalAssetBalance returns free plus locked holdings of asset, zero if the account does not hold it.
	TotalAssetBalance(ctx context.Context, asset string) (decimal.Decimal, error)
	// PairPrice returns the latest traded price of a trading-pair symbol such as SOLBRL.
	PairPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}
