package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/profitwatch/pkg/retrier"
)

const binanceRequestTimeout = 10 * time.Second

// NewBinanceClient creates an authenticated Binance client with a bounded HTTP timeout.
func NewBinanceClient(apiKey, apiSecret string) *binance.Client {
	client := binance.NewClient(apiKey, apiSecret)
	client.HTTPClient = &http.Client{Timeout: binanceRequestTimeout}
	return client
}

// SyncBinanceTime aligns the client's request timestamps with the server clock so signed
// calls are not rejected for being outside recvWindow. Returns the applied offset in ms,
// local clock minus server clock; the client subtracts it when stamping requests.
func SyncBinanceTime(ctx context.Context, client *binance.Client, r *retrier.Retrier) (int64, error) {
	offset, err := retrier.DoWithData(r, ctx, func(ctx context.Context) (int64, error) {
		return client.NewSetServerTimeService().Do(ctx)
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to synchronize binance server time")
	}
	return offset, nil
}
