package presale

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePhase_Boundaries(t *testing.T) {
	phases := []Phase{
		{StartTime: 100, EndTime: 200},
		{StartTime: 200, EndTime: 300},
		{StartTime: 400, EndTime: 500},
	}

	tests := []struct {
		name string
		t    int64
		want int
	}{
		{"start of first", 100, 0},
		{"last second of first", 199, 0},
		{"end is exclusive", 200, 1},
		{"inside second", 250, 1},
		{"start of third after gap", 400, 2},
		{"last second of third", 499, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePhase(phases, tt.t)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePhase_NoActivePhase(t *testing.T) {
	phases := []Phase{
		{StartTime: 100, EndTime: 200},
		{StartTime: 300, EndTime: 400},
	}

	for _, at := range []int64{0, 99, 200, 250, 299, 400, 10_000} {
		_, err := ResolvePhase(phases, at)
		assert.ErrorIs(t, err, ErrNoActivePhase, "t=%d", at)
	}
}

func TestResolvePhase_OverlapPicksFirst(t *testing.T) {
	phases := []Phase{
		{StartTime: 100, EndTime: 300},
		{StartTime: 200, EndTime: 400},
	}

	got, err := ResolvePhase(phases, 250)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = ResolvePhase(phases, 350)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestCost(t *testing.T) {
	p := Phase{PriceNative: 1_500, PriceStable: 7}

	native, err := Cost(p, 1_000, CurrencyNative)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000), native)

	stable, err := Cost(p, 1_000, CurrencyStable)
	require.NoError(t, err)
	assert.Equal(t, uint64(7_000), stable)
}

func TestCost_Overflow(t *testing.T) {
	p := Phase{PriceNative: 2, PriceStable: 1}

	_, err := Cost(p, math.MaxUint64, CurrencyNative)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArithmeticOverflow))

	// Price 1 never overflows.
	got, err := Cost(p, math.MaxUint64, CurrencyStable)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got)
}

func TestParseCurrency(t *testing.T) {
	for in, want := range map[string]Currency{
		"native": CurrencyNative,
		"SOL":    CurrencyNative,
		"stable": CurrencyStable,
		" usdc ": CurrencyStable,
	} {
		got, err := ParseCurrency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCurrency("btc")
	assert.ErrorIs(t, err, ErrInvalidPaymentType)
}
