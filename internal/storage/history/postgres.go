package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/profitwatch/internal/domain"
	"go.uber.org/zap"
)

const defaultQueryTimeout = 10 * time.Second

// pq error code for check_violation
const pqCheckViolation = "23514"

const postgresSchema = `CREATE TABLE IF NOT EXISTS crypto_history (
	id              BIGSERIAL PRIMARY KEY,
	created_at      TIMESTAMPTZ NOT NULL,
	current_balance BIGINT NOT NULL DEFAULT 0 CHECK (current_balance >= 0),
	currency        TEXT NOT NULL CHECK (currency <> '')
)`

const postgresIndex = `CREATE INDEX IF NOT EXISTS idx_crypto_history_created ON crypto_history (created_at DESC, id DESC)`

// PostgresBackend stores records in PostgreSQL.
type PostgresBackend struct {
	db      *sqlx.DB
	timeout time.Duration
	l       *zap.Logger
}

// OpenPostgres connects to dsn, verifies the connection and runs migrations.
func OpenPostgres(ctx context.Context, l *zap.Logger, dsn string, timeout time.Duration) (*PostgresBackend, error) {
	if dsn == "" {
		return nil, domain.NewConfigurationError("storage.postgres_dsn", "required for postgres driver")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	b := NewPostgresBackend(l, db, timeout)

	pingCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	if err := b.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	l.Info("postgres history opened")
	return b, nil
}

// NewPostgresBackend wraps an already opened connection pool.
func NewPostgresBackend(l *zap.Logger, db *sqlx.DB, timeout time.Duration) *PostgresBackend {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &PostgresBackend{db: db, timeout: timeout, l: l}
}

// Migrate creates the history table if missing.
func (b *PostgresBackend) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	for _, stmt := range []string{postgresSchema, postgresIndex} {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate postgres")
		}
	}
	return nil
}

func (b *PostgresBackend) Append(ctx context.Context, record domain.BalanceRecord) (domain.BalanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.BalanceRecord{}, errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO crypto_history (created_at, current_balance, currency)
		VALUES ($1, $2, $3) RETURNING id`,
		record.CreatedAt, record.BalanceMinorUnits, record.Currency,
	).Scan(&record.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqCheckViolation {
			return domain.BalanceRecord{}, errors.Wrap(domain.ErrInvalidRecord, pqErr.Message)
		}
		b.l.Error("error inserting new record", zap.Error(err))
		return domain.BalanceRecord{}, errors.Wrap(err, "insert")
	}

	if err := tx.Commit(); err != nil {
		return domain.BalanceRecord{}, errors.Wrap(err, "commit")
	}
	return record, nil
}

func (b *PostgresBackend) Latest(ctx context.Context) (domain.BalanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var record domain.BalanceRecord
	err := b.db.GetContext(ctx, &record,
		`SELECT id, created_at, current_balance, currency FROM crypto_history
		ORDER BY created_at DESC, id DESC LIMIT 1`,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.BalanceRecord{}, domain.ErrNoBaseline
		}
		b.l.Error("error fetching balance", zap.Error(err))
		return domain.BalanceRecord{}, errors.Wrap(err, "query latest")
	}

	record.CreatedAt = record.CreatedAt.UTC()
	return record, nil
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
