//go:build integration

package marketdata

import (
	"context"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/profitwatch/internal/clients"
)

// TestHyperliquidProvider_Integration calls the real Hyperliquid Info API.
// To run this test, use: go test -tags=integration -v ./...
func TestHyperliquidProvider_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	key := os.Getenv("HYPERLIQUID_PRIVATE_KEY")
	if key == "" {
		t.Fatal("HYPERLIQUID_PRIVATE_KEY environment variable must be set for integration tests")
	}

	client, err := clients.NewHyperliquidClient(key, "")
	require.NoError(t, err)
	provider := NewHyperliquidProvider(client.Info(), client.AccountAddress())
	ctx := context.Background()

	t.Run("returns mid price for SOL", func(t *testing.T) {
		price, err := provider.PairPrice(ctx, "SOLUSDC")
		require.NoError(t, err)
		assert.True(t, price.GreaterThan(decimal.Zero), "expected price > 0, got %s", price)
	})

	t.Run("unknown asset has zero balance", func(t *testing.T) {
		balance, err := provider.TotalAssetBalance(ctx, "NOTACOIN")
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
	})
}
