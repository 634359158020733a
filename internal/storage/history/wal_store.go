package history

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/profitwatch/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultWALDir       = "./wal/history"
	recordSegmentLimit  = 1000
	recordMaxSegments   = 100
	balanceRecordPrefix = "balance_record_"
)

// WALBackend persists balance records in a write-ahead log.
// The latest record is rebuilt from the log on open and tracked on every append.
type WALBackend struct {
	wal    *gowal.Wal
	mu     sync.RWMutex
	latest *domain.BalanceRecord
}

// NewWALBackend opens the WAL under dir and replays it.
func NewWALBackend(l *zap.Logger, dir string) (*WALBackend, error) {
	if dir == "" {
		dir = defaultWALDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "history_",
		SegmentThreshold: recordSegmentLimit,
		MaxSegments:      recordMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init balance history WAL")
	}

	b := &WALBackend{wal: wal}
	for msg := range wal.Iterator() {
		if !strings.HasPrefix(msg.Key, balanceRecordPrefix) {
			continue
		}
		var record domain.BalanceRecord
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			l.Error("failed to decode balance record", zap.Error(err), zap.String("key", msg.Key))
			continue
		}
		b.track(record)
	}

	l.Info("wal history opened", zap.String("dir", dir), zap.Uint64("index", wal.CurrentIndex()))
	return b, nil
}

func (b *WALBackend) track(record domain.BalanceRecord) {
	if b.latest == nil || record.Newer(*b.latest) {
		r := record
		b.latest = &r
	}
}

func (b *WALBackend) Append(_ context.Context, record domain.BalanceRecord) (domain.BalanceRecord, error) {
	if b == nil || b.wal == nil {
		return domain.BalanceRecord{}, errors.New("balance history WAL is not initialized")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	nextIndex := b.wal.CurrentIndex() + 1
	record.ID = int64(nextIndex)

	payload, err := json.Marshal(record)
	if err != nil {
		return domain.BalanceRecord{}, errors.Wrap(err, "marshal balance record")
	}

	if err := b.wal.Write(nextIndex, balanceRecordPrefix+record.Currency, payload); err != nil {
		return domain.BalanceRecord{}, errors.Wrap(err, "write balance record")
	}

	b.track(record)
	return record, nil
}

func (b *WALBackend) Latest(_ context.Context) (domain.BalanceRecord, error) {
	if b == nil || b.wal == nil {
		return domain.BalanceRecord{}, errors.New("balance history WAL is not initialized")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.latest == nil {
		return domain.BalanceRecord{}, domain.ErrNoBaseline
	}
	return *b.latest, nil
}

func (b *WALBackend) Close() error {
	if b == nil || b.wal == nil {
		return errors.New("balance history WAL is not initialized")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.wal.Close()
}
