package marketdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/profitwatch/internal/domain"
)

// quote suffixes stripped from pair symbols; Hyperliquid mids are keyed by base coin
var hyperliquidQuotes = []string{"USDC", "USDT", "USD"}

// HyperliquidProvider reads spot balances and mid prices from the Hyperliquid Info API.
type HyperliquidProvider struct {
	info        *hyperliquid.Info
	accountAddr string
}

func NewHyperliquidProvider(info *hyperliquid.Info, accountAddr string) *HyperliquidProvider {
	return &HyperliquidProvider{info: info, accountAddr: accountAddr}
}

// TotalAssetBalance returns the spot total (free + hold) of asset.
func (p *HyperliquidProvider) TotalAssetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	if p.info == nil {
		return decimal.Zero, domain.NewProviderError("get total balance of "+asset, errors.New("hyperliquid info client is nil"))
	}

	st, err := p.info.SpotUserState(ctx, p.accountAddr)
	if err != nil {
		return decimal.Zero, domain.NewProviderError("get total balance of "+asset, errors.Wrap(err, "get spot user state"))
	}

	for _, b := range st.Balances {
		if !strings.EqualFold(b.Coin, asset) {
			continue
		}
		total, err := decimal.NewFromString(b.Total)
		if err != nil {
			return decimal.Zero, domain.NewProviderError("get total balance of "+asset, errors.Wrap(err, "failed to parse balance"))
		}
		return total, nil
	}
	return decimal.Zero, nil
}

// PairPrice returns the mid price for symbol. Accepts a bare coin (SOL) or a USD-quoted pair (SOLUSDC).
func (p *HyperliquidProvider) PairPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if p.info == nil {
		return decimal.Zero, domain.NewProviderError("get price for "+symbol, errors.New("hyperliquid info client is nil"))
	}

	mids, err := p.info.AllMids(ctx)
	if err != nil {
		return decimal.Zero, domain.NewProviderError("get price for "+symbol, err)
	}

	mid, ok := mids[symbol]
	if !ok {
		mid, ok = mids[hyperliquidCoin(symbol)]
	}
	if !ok || mid == "" {
		return decimal.Zero, domain.NewProviderError("get price for "+symbol,
			fmt.Errorf("hyperliquid API returned empty mid price for %s", symbol))
	}

	price, err := decimal.NewFromString(mid)
	if err != nil {
		return decimal.Zero, domain.NewProviderError("get price for "+symbol, errors.Wrap(err, "failed to parse price"))
	}
	return price, nil
}

func hyperliquidCoin(symbol string) string {
	upper := strings.ToUpper(symbol)
	for _, q := range hyperliquidQuotes {
		if strings.HasSuffix(upper, q) && len(upper) > len(q) {
			return upper[:len(upper)-len(q)]
		}
	}
	return upper
}
