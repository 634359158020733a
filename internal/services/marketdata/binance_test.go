package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/profitwatch/internal/domain"
)

func newTestBinanceProvider(t *testing.T, handler http.HandlerFunc) *BinanceProvider {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := binance.NewClient("key", "secret")
	client.BaseURL = srv.URL
	return NewBinanceProvider(client)
}

func binanceHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/account"):
		_, _ = w.Write([]byte(`{"balances":[
			{"asset":"BTC","free":"0.1","locked":"0"},
			{"asset":"SOL","free":"1.5","locked":"0.25"}
		]}`))
	case strings.HasSuffix(r.URL.Path, "/ticker/price"):
		if r.URL.Query().Get("symbol") != "SOLBRL" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
			return
		}
		_, _ = w.Write([]byte(`[{"symbol":"SOLBRL","price":"812.34000000"}]`))
	default:
		http.NotFound(w, r)
	}
}

func TestBinanceProvider_Balances(t *testing.T) {
	p := newTestBinanceProvider(t, binanceHandler)
	ctx := context.Background()

	total, err := p.TotalAssetBalance(ctx, "sol")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.75").Equal(total), total.String())

	free, err := p.FreeAssetBalance(ctx, "SOL")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.5").Equal(free), free.String())

	unknown, err := p.TotalAssetBalance(ctx, "DOGE")
	require.NoError(t, err)
	assert.True(t, unknown.IsZero())
}

func TestBinanceProvider_PairPrice(t *testing.T) {
	p := newTestBinanceProvider(t, binanceHandler)

	price, err := p.PairPrice(context.Background(), "SOLBRL")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("812.34").Equal(price), price.String())
}

func TestBinanceProvider_InvalidSymbol(t *testing.T) {
	p := newTestBinanceProvider(t, binanceHandler)

	price, err := p.PairPrice(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, domain.IsProviderError(err))
	assert.True(t, price.IsZero())

	var apiErr *common.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, int64(-1121), apiErr.Code)
}

func TestBinanceProvider_AccountFailure(t *testing.T) {
	p := newTestBinanceProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":-2015,"msg":"Invalid API-key, IP, or permissions for action."}`))
	})

	_, err := p.TotalAssetBalance(context.Background(), "SOL")
	require.Error(t, err)
	assert.True(t, domain.IsProviderError(err))
}
