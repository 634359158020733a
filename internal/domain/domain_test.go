package domain

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	pair, err := ParsePair("sol_brl")
	require.NoError(t, err)
	assert.Equal(t, Pair{From: "SOL", To: "BRL"}, pair)
	assert.Equal(t, "SOLBRL", pair.Symbol())
	assert.Equal(t, "SOL_BRL", pair.String())

	for _, bad := range []string{"", "SOLBRL", "SOL_", "_BRL", "A_B_C"} {
		_, err := ParsePair(bad)
		assert.Error(t, err, bad)
	}
}

func TestMinorUnitsFromMajor(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"150", 15000},
		{"1.005", 101},
		{"1.004", 100},
		{"-1.005", -101},
		{"0.004", 0},
		{"1234.56", 123456},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MinorUnitsFromMajor(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestMajorFromMinorUnits(t *testing.T) {
	assert.True(t, decimal.RequireFromString("50").Equal(MajorFromMinorUnits(5000)))
	assert.True(t, decimal.RequireFromString("-0.01").Equal(MajorFromMinorUnits(-1)))
	assert.True(t, decimal.RequireFromString("1234.56").Equal(MajorFromMinorUnits(123456)))
}

func TestBalanceRecord_Validate(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, NewBalanceRecord(ts, 0, "SOL").Validate())
	assert.True(t, errors.Is(NewBalanceRecord(ts, -1, "SOL").Validate(), ErrInvalidRecord))
	assert.True(t, errors.Is(NewBalanceRecord(ts, 10, "").Validate(), ErrInvalidRecord))
	assert.NoError(t, NewBalanceRecord(time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC), 1, "SOL").Validate())
	assert.True(t, errors.Is(NewBalanceRecord(time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC), 1, "SOL").Validate(), ErrInvalidRecord))
	assert.True(t, errors.Is(BalanceRecord{Currency: "SOL", CreatedAt: MinRecordTime.Add(-time.Hour)}.Validate(), ErrInvalidRecord))
}

func TestBalanceRecord_Newer(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	older := BalanceRecord{ID: 5, CreatedAt: ts}
	newer := BalanceRecord{ID: 1, CreatedAt: ts.Add(time.Second)}
	sameTimeLaterInsert := BalanceRecord{ID: 6, CreatedAt: ts}

	assert.True(t, newer.Newer(older))
	assert.False(t, older.Newer(newer))
	assert.True(t, sameTimeLaterInsert.Newer(older))
	assert.False(t, older.Newer(sameTimeLaterInsert))
}

func TestNewBalanceRecord_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	rec := NewBalanceRecord(time.Date(2024, 1, 1, 9, 0, 0, 0, loc), 1, "SOL")
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
	assert.Equal(t, 12, rec.CreatedAt.Hour())
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("boom")

	perr := NewProviderError("price", base)
	assert.True(t, IsProviderError(errors.Wrap(perr, "outer")))
	assert.True(t, errors.Is(perr, base))
	assert.Same(t, perr, NewProviderError("again", perr))
	assert.Nil(t, NewProviderError("nil", nil))

	serr := NewPersistenceError("insert", base)
	assert.True(t, IsPersistenceError(serr))
	assert.False(t, IsProviderError(serr))

	cerr := NewConfigurationError("api_key", "required")
	assert.True(t, IsConfigurationError(cerr))
	assert.Equal(t, "configuration: api_key: required", cerr.Error())
}

func TestNewBalanceRecord_TruncatesToMicroseconds(t *testing.T) {
	rec := NewBalanceRecord(time.Date(2024, 1, 1, 0, 0, 0, 123456789, time.UTC), 1, "SOL")
	assert.Equal(t, 123456000, rec.CreatedAt.Nanosecond())
}

func TestParsePair_InvalidMessage(t *testing.T) {
	_, err := ParsePair("SOLBRL")
	assert.EqualError(t, err, `invalid pair "SOLBRL", expected BASE_QUOTE`)
}
