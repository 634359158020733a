package internal

import (
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"

	"github.com/vadiminshakov/profitwatch/internal/clients"
	"github.com/vadiminshakov/profitwatch/internal/services/marketdata"
)

// NewMarketDataProvider picks the provider implementation for the exchange client type.
// accountAddr overrides the queried Hyperliquid address when non-empty.
func NewMarketDataProvider(client any, accountAddr string) (marketdata.Provider, error) {
	switch c := client.(type) {
	case *binance.Client:
		return marketdata.NewBinanceProvider(c), nil
	case *bybit.Client:
		return marketdata.NewBybitProvider(c), nil
	case *clients.HyperliquidClient:
		addr := c.AccountAddress()
		if accountAddr != "" {
			addr = accountAddr
		}
		return marketdata.NewHyperliquidProvider(c.Info(), addr), nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}
