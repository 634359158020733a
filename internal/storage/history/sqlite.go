package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/profitwatch/internal/domain"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const defaultSQLitePath = "data/crypto_history.db"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS crypto_history (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at      INTEGER NOT NULL,
	current_balance INTEGER NOT NULL DEFAULT 0,
	currency        TEXT    NOT NULL
)`

const sqliteIndex = `CREATE INDEX IF NOT EXISTS idx_crypto_history_created ON crypto_history(created_at)`

// SQLiteBackend stores records in an embedded SQLite database.
// created_at is kept as unix microseconds, exact for every valid record time.
type SQLiteBackend struct {
	db *sql.DB
	mu sync.Mutex
	l  *zap.Logger
}

// NewSQLiteBackend opens (or creates) the database file and runs migrations.
func NewSQLiteBackend(l *zap.Logger, path string) (*SQLiteBackend, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create sqlite dir %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// a single connection serializes writers; readers never see a half-written row
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	for _, stmt := range []string{sqliteSchema, sqliteIndex} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "migrate sqlite")
		}
	}

	l.Info("sqlite history opened", zap.String("path", path))
	return &SQLiteBackend{db: db, l: l}, nil
}

func (b *SQLiteBackend) Append(ctx context.Context, record domain.BalanceRecord) (domain.BalanceRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.BalanceRecord{}, errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO crypto_history (created_at, current_balance, currency) VALUES (?, ?, ?)`,
		record.CreatedAt.UnixMicro(), record.BalanceMinorUnits, record.Currency,
	)
	if err != nil {
		b.l.Error("error inserting new record", zap.Error(err))
		return domain.BalanceRecord{}, errors.Wrap(err, "insert")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.BalanceRecord{}, errors.Wrap(err, "last insert id")
	}

	if err := tx.Commit(); err != nil {
		return domain.BalanceRecord{}, errors.Wrap(err, "commit")
	}

	record.ID = id
	return record, nil
}

func (b *SQLiteBackend) Latest(ctx context.Context) (domain.BalanceRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var (
		record    domain.BalanceRecord
		createdAt int64
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT id, created_at, current_balance, currency FROM crypto_history
		ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&record.ID, &createdAt, &record.BalanceMinorUnits, &record.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.BalanceRecord{}, domain.ErrNoBaseline
		}
		b.l.Error("error fetching balance", zap.Error(err))
		return domain.BalanceRecord{}, errors.Wrap(err, "query latest")
	}

	record.CreatedAt = time.UnixMicro(createdAt).UTC()
	return record, nil
}

func (b *SQLiteBackend) Close() error {
	b.l.Info("closing sqlite history")
	return b.db.Close()
}
