// Package history persists the append-only log of balance records used as profit baselines.
package history

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/profitwatch/internal/domain"
)

// Backend durable storage for balance records.
// Append must be atomic: a record is fully written or not at all.
type Backend interface {
	Append(ctx context.Context, record domain.BalanceRecord) (domain.BalanceRecord, error)
	// Latest returns the record with max CreatedAt (ties: highest ID) or domain.ErrNoBaseline.
	Latest(ctx context.Context) (domain.BalanceRecord, error)
	Close() error
}

// RecordOption customizes InsertRecord.
type RecordOption func(*recordOptions)

type recordOptions struct {
	at time.Time
}

// WithTimestamp sets the record creation time instead of the current time.
func WithTimestamp(t time.Time) RecordOption {
	return func(o *recordOptions) {
		o.at = t
	}
}

// Store balance history store. Validates records and maps backend failures to
// domain.PersistenceError.
type Store struct {
	backend Backend
	now     func() time.Time
}

// NewStore wraps a backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// InsertRecord appends an immutable record. Without WithTimestamp the current UTC time is used.
func (s *Store) InsertRecord(ctx context.Context, amountMinorUnits int64, currency string, opts ...RecordOption) error {
	o := recordOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.at.IsZero() {
		o.at = s.now()
	}

	record := domain.NewBalanceRecord(o.at, amountMinorUnits, currency)
	if err := record.Validate(); err != nil {
		return err
	}

	if _, err := s.backend.Append(ctx, record); err != nil {
		if errors.Is(err, domain.ErrInvalidRecord) {
			return err
		}
		return domain.NewPersistenceError("insert record", err)
	}
	return nil
}

// LatestRecord returns the most recent record or domain.ErrNoBaseline.
func (s *Store) LatestRecord(ctx context.Context) (domain.BalanceRecord, error) {
	record, err := s.backend.Latest(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoBaseline) {
			return domain.BalanceRecord{}, domain.ErrNoBaseline
		}
		return domain.BalanceRecord{}, domain.NewPersistenceError("latest record", err)
	}
	return record, nil
}

// LatestBalance returns the latest record's balance, or 0 when nothing is stored.
func (s *Store) LatestBalance(ctx context.Context) (int64, error) {
	record, err := s.LatestRecord(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoBaseline) {
			return 0, nil
		}
		return 0, err
	}
	return record.BalanceMinorUnits, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
