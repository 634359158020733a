package marketdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/profitwatch/internal/domain"
)

// BinanceProvider reads spot account balances and ticker prices from Binance.
type BinanceProvider struct {
	client *binance.Client
}

func NewBinanceProvider(client *binance.Client) *BinanceProvider {
	return &BinanceProvider{client: client}
}

// TotalAssetBalance returns free + locked spot balance of asset.
func (p *BinanceProvider) TotalAssetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	free, locked, err := p.balance(ctx, asset)
	if err != nil {
		return decimal.Zero, domain.NewProviderError("get total balance of "+asset, err)
	}
	return free.Add(locked), nil
}

// FreeAssetBalance returns the balance available for trading or withdrawal.
func (p *BinanceProvider) FreeAssetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	free, _, err := p.balance(ctx, asset)
	if err != nil {
		return decimal.Zero, domain.NewProviderError("get free balance of "+asset, err)
	}
	return free, nil
}

func (p *BinanceProvider) balance(ctx context.Context, asset string) (free, locked decimal.Decimal, _ error) {
	account, err := p.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, errors.Wrap(err, "failed to get binance account")
	}

	for _, b := range account.Balances {
		if !strings.EqualFold(b.Asset, asset) {
			continue
		}
		free, err = decimal.NewFromString(b.Free)
		if err != nil {
			return decimal.Zero, decimal.Zero, errors.Wrap(err, "failed to parse free balance")
		}
		locked, err = decimal.NewFromString(b.Locked)
		if err != nil {
			return decimal.Zero, decimal.Zero, errors.Wrap(err, "failed to parse locked balance")
		}
		return free, locked, nil
	}

	return decimal.Zero, decimal.Zero, nil
}

// PairPrice returns the latest price of symbol.
func (p *BinanceProvider) PairPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := p.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, domain.NewProviderError("get price for "+symbol, err)
	}
	if len(prices) == 0 {
		return decimal.Zero, domain.NewProviderError("get price for "+symbol,
			fmt.Errorf("binance API returned empty prices for %s", symbol))
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, domain.NewProviderError("get price for "+symbol, errors.Wrap(err, "failed to parse price"))
	}
	return price, nil
}
