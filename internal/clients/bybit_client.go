package clients

import (
	"net/http"
	"time"

	"github.com/hirokisan/bybit/v2"
)

const bybitRequestTimeout = 10 * time.Second

// NewBybitClient creates an authenticated Bybit client. An empty baseURL keeps the SDK default.
func NewBybitClient(apiKey, apiSecret, baseURL string) *bybit.Client {
	client := bybit.NewClient().
		WithAuth(apiKey, apiSecret).
		WithHTTPClient(&http.Client{Timeout: bybitRequestTimeout})
	if baseURL != "" {
		client = client.WithBaseURL(baseURL)
	}

	return client
}
