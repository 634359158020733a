package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// BalanceRecord historical balance snapshot used as a profit baseline.
type BalanceRecord struct {
	ID                int64     `json:"id" db:"id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	BalanceMinorUnits int64     `json:"current_balance" db:"current_balance"`
	Currency          string    `json:"currency" db:"currency"`
}

// Supported CreatedAt range; every backend stores it at microsecond precision.
var (
	MinRecordTime = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxRecordTime = time.Date(9999, 12, 31, 23, 59, 59, 999999000, time.UTC)
)

// NewBalanceRecord creates a record stamped in UTC, truncated to microseconds.
func NewBalanceRecord(createdAt time.Time, balanceMinorUnits int64, currency string) BalanceRecord {
	return BalanceRecord{
		CreatedAt:         createdAt.UTC().Truncate(time.Microsecond),
		BalanceMinorUnits: balanceMinorUnits,
		Currency:          currency,
	}
}

// Validate checks the persisted invariants of a record.
func (r BalanceRecord) Validate() error {
	if r.BalanceMinorUnits < 0 {
		return errors.Wrap(ErrInvalidRecord, "balance must not be negative")
	}
	if r.Currency == "" {
		return errors.Wrap(ErrInvalidRecord, "currency is required")
	}
	if r.CreatedAt.Before(MinRecordTime) || r.CreatedAt.After(MaxRecordTime) {
		return errors.Wrapf(ErrInvalidRecord, "created_at %s out of supported range", r.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// Newer reports whether r supersedes other as the latest record.
// Equal timestamps are resolved by insertion order (higher ID wins).
func (r BalanceRecord) Newer(other BalanceRecord) bool {
	if r.CreatedAt.Equal(other.CreatedAt) {
		return r.ID > other.ID
	}
	return r.CreatedAt.After(other.CreatedAt)
}

// ProfitSnapshot result of one profit evaluation. Not persisted.
type ProfitSnapshot struct {
	CurrentBalanceMinorUnits int64
	InitialBalanceMinorUnits int64
	ProfitMajorUnits         decimal.Decimal
}

// minorUnitExp number of decimal places between major and minor units (cents).
const minorUnitExp = 2

// MinorUnitsFromMajor converts a major-unit amount into minor units,
// rounding half away from zero.
func MinorUnitsFromMajor(amount decimal.Decimal) int64 {
	return amount.Shift(minorUnitExp).Round(0).IntPart()
}

// MajorFromMinorUnits converts minor units into an exact major-unit amount.
func MajorFromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitExp)
}
