package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/profitwatch/internal/domain"
	"github.com/vadiminshakov/profitwatch/internal/storage/history"
)

var envKeys = []string{
	"PROFITWATCH_PLATFORM", "PROFITWATCH_ASSET", "PROFITWATCH_PAIR", "PROFITWATCH_THRESHOLD",
	"PROFITWATCH_SCHEDULE", "PROFITWATCH_METRICS_ADDR", "PROFITWATCH_STRICT_ASSET_MATCH",
	"PROFITWATCH_STORAGE_DRIVER", "SQLITE_PATH", "PG_DSN", "WAL_DIR",
	"BINANCE_API_KEY", "BINANCE_API_SECRET", "BYBIT_API_KEY", "BYBIT_API_SECRET", "BYBIT_BASE_URL",
	"HYPERLIQUID_PRIVATE_KEY", "HYPERLIQUID_ACCOUNT_ADDRESS",
}

func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_API_SECRET", "secret")

	conf, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, PlatformBinance, conf.Platform)
	assert.Equal(t, "SOL", conf.Asset)
	assert.Equal(t, domain.Pair{From: "SOL", To: "BRL"}, conf.Pair)
	assert.Equal(t, "SOLBRL", conf.Pair.Symbol())
	assert.True(t, decimal.NewFromInt(100).Equal(conf.Threshold))
	assert.Equal(t, "0 */5 * * * *", conf.Schedule)
	assert.Equal(t, 10*time.Second, conf.ProviderTimeout)
	assert.Equal(t, history.DriverSQLite, conf.Storage.Driver)
	assert.Equal(t, "data/crypto_history.db", conf.Storage.SQLitePath)
	assert.False(t, conf.StrictAssetMatch)
	assert.Equal(t, "key", conf.Credentials.BinanceAPIKey)
}

func TestLoad_YAML(t *testing.T) {
	cleanEnv(t)
	t.Setenv("BYBIT_API_KEY", "key")
	t.Setenv("BYBIT_API_SECRET", "secret")

	path := writeConfig(t, `
platform: bybit
asset: btc
pair: btc_usdt
threshold: "250.75"
strict_asset_match: true
schedule: "*/30 * * * * *"
provider_timeout: 3s
checkpoint_on_reach: true
metrics_addr: ":9102"
storage:
  driver: wal
  wal_dir: /tmp/profitwatch-wal
`)

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, PlatformBybit, conf.Platform)
	assert.Equal(t, "BTC", conf.Asset)
	assert.Equal(t, "BTCUSDT", conf.Pair.Symbol())
	assert.True(t, decimal.RequireFromString("250.75").Equal(conf.Threshold))
	assert.True(t, conf.StrictAssetMatch)
	assert.True(t, conf.CheckpointOnReach)
	assert.Equal(t, 3*time.Second, conf.ProviderTimeout)
	assert.Equal(t, ":9102", conf.MetricsAddr)
	assert.Equal(t, history.DriverWAL, conf.Storage.Driver)
	assert.Equal(t, "/tmp/profitwatch-wal", conf.Storage.WALDir)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	cleanEnv(t)
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_API_SECRET", "secret")
	t.Setenv("PROFITWATCH_THRESHOLD", "42.5")
	t.Setenv("SQLITE_PATH", "/var/lib/profitwatch/history.db")
	t.Setenv("PROFITWATCH_STRICT_ASSET_MATCH", "true")

	conf, err := Load(writeConfig(t, "threshold: \"10\"\n"))
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("42.5").Equal(conf.Threshold))
	assert.Equal(t, "/var/lib/profitwatch/history.db", conf.Storage.SQLitePath)
	assert.True(t, conf.StrictAssetMatch)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{name: "pair without underscore", yaml: "pair: SOLBRL\n", field: "pair"},
		{name: "threshold not decimal", yaml: "threshold: lots\n", field: "threshold"},
		{name: "negative threshold", yaml: "threshold: \"-1\"\n", field: "threshold"},
		{name: "unknown platform", yaml: "platform: kraken\n", field: "platform"},
		{name: "bad schedule", yaml: "schedule: every minute\n", field: "schedule"},
		{name: "unknown driver", yaml: "storage:\n  driver: mongo\n", field: "storage.driver"},
		{name: "postgres without dsn", yaml: "storage:\n  driver: postgres\n", field: "storage.postgres_dsn"},
		{name: "broken yaml", yaml: "platform: [binance\n", field: "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv("BINANCE_API_KEY", "key")
			t.Setenv("BINANCE_API_SECRET", "secret")

			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)

			var confErr *domain.ConfigurationError
			require.ErrorAs(t, err, &confErr)
			assert.Equal(t, tt.field, confErr.Field)
		})
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	for _, platform := range []string{PlatformBinance, PlatformBybit, PlatformHyperliquid} {
		t.Run(platform, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv("PROFITWATCH_PLATFORM", platform)

			_, err := Load("")
			require.Error(t, err)
			assert.True(t, domain.IsConfigurationError(err))
		})
	}
}

func TestLoad_HyperliquidAddressNeedsKey(t *testing.T) {
	cleanEnv(t)
	t.Setenv("PROFITWATCH_PLATFORM", "hyperliquid")
	t.Setenv("HYPERLIQUID_ACCOUNT_ADDRESS", "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")

	_, err := Load("")
	assert.True(t, domain.IsConfigurationError(err))

	t.Setenv("HYPERLIQUID_PRIVATE_KEY", "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, PlatformHyperliquid, conf.Platform)
	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", conf.Credentials.HyperliquidAccountAddress)
}

func TestParseFlags(t *testing.T) {
	f, err := parseFlags([]string{"-config", "prod.yaml", "-once", "-debug"})
	require.NoError(t, err)
	assert.Equal(t, Flags{ConfigPath: "prod.yaml", Once: true, Debug: true}, f)

	f, err = parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", f.ConfigPath)
	assert.False(t, f.Checkpoint)

	_, err = parseFlags([]string{"-unknown"})
	assert.Error(t, err)
}

func TestLoad_InvalidStrictAssetMatchEnv(t *testing.T) {
	cleanEnv(t)
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_API_SECRET", "secret")
	t.Setenv("PROFITWATCH_STRICT_ASSET_MATCH", "ture")

	_, err := Load("")
	require.Error(t, err)

	var confErr *domain.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "strict_asset_match", confErr.Field)
}
