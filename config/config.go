// Package config loads the profit watcher settings from YAML, environment and flags.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/profitwatch/internal/domain"
	"github.com/vadiminshakov/profitwatch/internal/storage/history"
	"gopkg.in/yaml.v3"
)

// Supported platforms.
const (
	PlatformBinance     = "binance"
	PlatformBybit       = "bybit"
	PlatformHyperliquid = "hyperliquid"
)

const (
	defaultPlatform        = PlatformBinance
	defaultAsset           = "SOL"
	defaultPair            = "SOL_BRL"
	defaultThreshold       = "100"
	defaultSchedule        = "0 */5 * * * *"
	defaultProviderTimeout = 10 * time.Second
	defaultQueryTimeout    = 10 * time.Second
	defaultSQLitePath      = "data/crypto_history.db"
	defaultWALDir          = "wal/history"
)

// Config is the validated runtime configuration.
type Config struct {
	Platform          string
	Asset             string
	Pair              domain.Pair
	Threshold         decimal.Decimal
	StrictAssetMatch  bool
	Schedule          string
	ProviderTimeout   time.Duration
	CheckpointOnReach bool
	MetricsAddr       string
	Storage           history.Config
	Credentials       Credentials
}

// Credentials exchange API secrets. Never read from YAML.
type Credentials struct {
	BinanceAPIKey             string
	BinanceAPISecret          string
	BybitAPIKey               string
	BybitAPISecret            string
	BybitBaseURL              string
	HyperliquidPrivateKey     string
	// HyperliquidAccountAddress overrides the address derived from the key, e.g. for a vault.
	HyperliquidAccountAddress string
}

// ConfigTmp mirrors the YAML document; decimals are kept as strings until parsed.
type ConfigTmp struct {
	Platform          string        `yaml:"platform"`
	Asset             string        `yaml:"asset"`
	Pair              string        `yaml:"pair"`
	Threshold         string        `yaml:"threshold"`
	StrictAssetMatch  bool          `yaml:"strict_asset_match"`
	Schedule          string        `yaml:"schedule"`
	ProviderTimeout   time.Duration `yaml:"provider_timeout"`
	CheckpointOnReach bool          `yaml:"checkpoint_on_reach"`
	MetricsAddr       string        `yaml:"metrics_addr"`
	Storage           struct {
		Driver       string        `yaml:"driver"`
		SQLitePath   string        `yaml:"sqlite_path"`
		PostgresDSN  string        `yaml:"postgres_dsn"`
		WALDir       string        `yaml:"wal_dir"`
		QueryTimeout time.Duration `yaml:"query_timeout"`
	} `yaml:"storage"`
}

// Load reads the YAML file at path (a missing file is not an error), applies environment
// overrides and defaults, and validates the result.
func Load(path string) (Config, error) {
	var raw ConfigTmp
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrap(err, "read config")
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return Config{}, domain.NewConfigurationError("file", "parse "+path+": "+err.Error())
			}
		}
	}

	if err := applyEnv(&raw); err != nil {
		return Config{}, err
	}
	applyDefaults(&raw)

	conf, err := raw.parse()
	if err != nil {
		return Config{}, err
	}
	conf.Credentials = credentialsFromEnv()

	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

func applyEnv(raw *ConfigTmp) error {
	if v := os.Getenv("PROFITWATCH_PLATFORM"); v != "" {
		raw.Platform = v
	}
	if v := os.Getenv("PROFITWATCH_ASSET"); v != "" {
		raw.Asset = v
	}
	if v := os.Getenv("PROFITWATCH_PAIR"); v != "" {
		raw.Pair = v
	}
	if v := os.Getenv("PROFITWATCH_THRESHOLD"); v != "" {
		raw.Threshold = v
	}
	if v := os.Getenv("PROFITWATCH_SCHEDULE"); v != "" {
		raw.Schedule = v
	}
	if v := os.Getenv("PROFITWATCH_METRICS_ADDR"); v != "" {
		raw.MetricsAddr = v
	}
	if v := os.Getenv("PROFITWATCH_STRICT_ASSET_MATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.NewConfigurationError("strict_asset_match", "PROFITWATCH_STRICT_ASSET_MATCH must be a boolean, got "+strconv.Quote(v))
		}
		raw.StrictAssetMatch = b
	}
	if v := os.Getenv("PROFITWATCH_STORAGE_DRIVER"); v != "" {
		raw.Storage.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		raw.Storage.SQLitePath = v
	}
	if v := os.Getenv("PG_DSN"); v != "" {
		raw.Storage.PostgresDSN = v
	}
	if v := os.Getenv("WAL_DIR"); v != "" {
		raw.Storage.WALDir = v
	}
	return nil
}

func applyDefaults(raw *ConfigTmp) {
	if raw.Platform == "" {
		raw.Platform = defaultPlatform
	}
	if raw.Asset == "" {
		raw.Asset = defaultAsset
	}
	if raw.Pair == "" {
		raw.Pair = defaultPair
	}
	if raw.Threshold == "" {
		raw.Threshold = defaultThreshold
	}
	if raw.Schedule == "" {
		raw.Schedule = defaultSchedule
	}
	if raw.ProviderTimeout == 0 {
		raw.ProviderTimeout = defaultProviderTimeout
	}
	if raw.Storage.Driver == "" {
		raw.Storage.Driver = history.DriverSQLite
	}
	if raw.Storage.SQLitePath == "" {
		raw.Storage.SQLitePath = defaultSQLitePath
	}
	if raw.Storage.WALDir == "" {
		raw.Storage.WALDir = defaultWALDir
	}
	if raw.Storage.QueryTimeout == 0 {
		raw.Storage.QueryTimeout = defaultQueryTimeout
	}
}

func (raw ConfigTmp) parse() (Config, error) {
	pair, err := domain.ParsePair(raw.Pair)
	if err != nil {
		return Config{}, domain.NewConfigurationError("pair", err.Error())
	}
	threshold, err := decimal.NewFromString(raw.Threshold)
	if err != nil {
		return Config{}, domain.NewConfigurationError("threshold", "must be a decimal, got "+raw.Threshold)
	}

	return Config{
		Platform:          strings.ToLower(raw.Platform),
		Asset:             strings.ToUpper(raw.Asset),
		Pair:              pair,
		Threshold:         threshold,
		StrictAssetMatch:  raw.StrictAssetMatch,
		Schedule:          raw.Schedule,
		ProviderTimeout:   raw.ProviderTimeout,
		CheckpointOnReach: raw.CheckpointOnReach,
		MetricsAddr:       raw.MetricsAddr,
		Storage: history.Config{
			Driver:       strings.ToLower(raw.Storage.Driver),
			SQLitePath:   raw.Storage.SQLitePath,
			PostgresDSN:  raw.Storage.PostgresDSN,
			WALDir:       raw.Storage.WALDir,
			QueryTimeout: raw.Storage.QueryTimeout,
		},
	}, nil
}

func credentialsFromEnv() Credentials {
	return Credentials{
		BinanceAPIKey:             os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret:          os.Getenv("BINANCE_API_SECRET"),
		BybitAPIKey:               os.Getenv("BYBIT_API_KEY"),
		BybitAPISecret:            os.Getenv("BYBIT_API_SECRET"),
		BybitBaseURL:              os.Getenv("BYBIT_BASE_URL"),
		HyperliquidPrivateKey:     os.Getenv("HYPERLIQUID_PRIVATE_KEY"),
		HyperliquidAccountAddress: os.Getenv("HYPERLIQUID_ACCOUNT_ADDRESS"),
	}
}

// Validate checks field ranges and that the selected platform has credentials.
func (c Config) Validate() error {
	switch c.Platform {
	case PlatformBinance, PlatformBybit, PlatformHyperliquid:
	default:
		return domain.NewConfigurationError("platform", "unsupported platform "+strconv.Quote(c.Platform))
	}
	if c.Asset == "" {
		return domain.NewConfigurationError("asset", "is required")
	}
	if c.Threshold.IsNegative() {
		return domain.NewConfigurationError("threshold", "must not be negative")
	}
	if c.ProviderTimeout < 0 {
		return domain.NewConfigurationError("provider_timeout", "must be positive")
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Schedule); err != nil {
		return domain.NewConfigurationError("schedule", err.Error())
	}

	switch c.Storage.Driver {
	case history.DriverSQLite, history.DriverWAL, history.DriverMemory:
	case history.DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return domain.NewConfigurationError("storage.postgres_dsn", "is required for the postgres driver")
		}
	default:
		return domain.NewConfigurationError("storage.driver", "unsupported driver "+strconv.Quote(c.Storage.Driver))
	}

	return c.Credentials.validate(c.Platform)
}

func (c Credentials) validate(platform string) error {
	switch platform {
	case PlatformBinance:
		if c.BinanceAPIKey == "" || c.BinanceAPISecret == "" {
			return domain.NewConfigurationError("credentials", "BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
		}
	case PlatformBybit:
		if c.BybitAPIKey == "" || c.BybitAPISecret == "" {
			return domain.NewConfigurationError("credentials", "BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
		}
	case PlatformHyperliquid:
		if c.HyperliquidPrivateKey == "" {
			return domain.NewConfigurationError("credentials", "HYPERLIQUID_PRIVATE_KEY environment variable must be set")
		}
	}
	return nil
}
