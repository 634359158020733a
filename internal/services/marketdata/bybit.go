package marketdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/profitwatch/internal/domain"
)

// BybitProvider reads unified-account wallet balances and spot tickers from Bybit.
type BybitProvider struct {
	client *bybit.Client
}

func NewBybitProvider(client *bybit.Client) *BybitProvider {
	return &BybitProvider{client: client}
}

// TotalAssetBalance returns the wallet balance of asset, which includes locked funds.
func (p *BybitProvider) TotalAssetBalance(_ context.Context, asset string) (decimal.Decimal, error) {
	coin := bybit.Coin(strings.ToUpper(asset))
	res, err := p.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5UNIFIED, []bybit.Coin{coin})
	if err != nil {
		return decimal.Zero, domain.NewProviderError("get total balance of "+asset, errors.Wrap(err, "failed to get bybit wallet balance"))
	}

	for _, account := range res.Result.List {
		for _, c := range account.Coin {
			if !strings.EqualFold(string(c.Coin), asset) {
				continue
			}
			if c.WalletBalance == "" {
				return decimal.Zero, nil
			}
			balance, err := decimal.NewFromString(c.WalletBalance)
			if err != nil {
				return decimal.Zero, domain.NewProviderError("get total balance of "+asset, errors.Wrap(err, "failed to parse balance"))
			}
			return balance, nil
		}
	}

	return decimal.Zero, nil
}

// PairPrice returns the last spot price of symbol.
func (p *BybitProvider) PairPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	s := bybit.SymbolV5(symbol)

	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &s,
	})
	if err != nil {
		return decimal.Zero, domain.NewProviderError("get price for "+symbol, err)
	}

	if result.Result.Spot == nil || len(result.Result.Spot.List) == 0 {
		return decimal.Zero, domain.NewProviderError("get price for "+symbol,
			fmt.Errorf("bybit API returned empty prices for %s", symbol))
	}

	price, err := decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
	if err != nil {
		return decimal.Zero, domain.NewProviderError("get price for "+symbol, errors.Wrap(err, "failed to parse price"))
	}
	return price, nil
}
