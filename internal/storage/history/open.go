package history

import (
	"context"
	"fmt"
	"time"

	"github.com/vadiminshakov/profitwatch/internal/domain"
	"go.uber.org/zap"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverWAL      = "wal"
	DriverMemory   = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Driver       string
	SQLitePath   string
	PostgresDSN  string
	WALDir       string
	QueryTimeout time.Duration
}

// Open creates the configured backend and wraps it in a Store.
// The caller owns the returned store and must Close it.
func Open(ctx context.Context, l *zap.Logger, cfg Config) (*Store, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Driver {
	case DriverSQLite, "":
		backend, err = NewSQLiteBackend(l, cfg.SQLitePath)
	case DriverPostgres:
		backend, err = OpenPostgres(ctx, l, cfg.PostgresDSN, cfg.QueryTimeout)
	case DriverWAL:
		backend, err = NewWALBackend(l, cfg.WALDir)
	case DriverMemory:
		backend = NewMemoryBackend()
	default:
		return nil, domain.NewConfigurationError("storage.driver", fmt.Sprintf("unsupported driver %q", cfg.Driver))
	}
	if err != nil {
		if domain.IsConfigurationError(err) {
			return nil, err
		}
		return nil, domain.NewPersistenceError("open "+cfg.Driver, err)
	}

	return NewStore(backend), nil
}
