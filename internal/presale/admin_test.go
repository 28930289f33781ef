package presale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *InitParams)
		want   *Error
	}{
		{"valid", func(*InitParams) {}, nil},
		{"start equals end", func(p *InitParams) { p.Phases[3].EndTime = p.Phases[3].StartTime }, ErrInvalidPhaseConfig},
		{"zero native price", func(p *InitParams) { p.Phases[0].PriceNative = 0 }, ErrInvalidPhaseConfig},
		{"zero stable price", func(p *InitParams) { p.Phases[9].PriceStable = 0 }, ErrInvalidPhaseConfig},
		{"zero allocation", func(p *InitParams) { p.Phases[5].TokensAllocated = 0 }, ErrInvalidPhaseConfig},
		{"overlap allowed", func(p *InitParams) { p.Phases[1].StartTime = p.Phases[0].StartTime }, nil},
		{"launch over 100", func(p *InitParams) { p.VestingLaunchPercent = 101; p.VestingMonthlyPercent = 0 }, ErrInvalidVestingSchedule},
		{"sum over 100", func(p *InitParams) { p.VestingLaunchPercent = 80; p.VestingMonthlyPercent = 21 }, ErrInvalidVestingSchedule},
		{"never fully vests", func(p *InitParams) { p.VestingLaunchPercent = 50; p.VestingMonthlyPercent = 0 }, ErrInvalidVestingSchedule},
		{"full at launch", func(p *InitParams) { p.VestingLaunchPercent = 100; p.VestingMonthlyPercent = 0 }, nil},
		{"negative interval", func(p *InitParams) { p.MinTimeBetweenPurchases = -1 }, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(p)
			err := p.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewConfig_ResetsPhaseSold(t *testing.T) {
	p := testParams()
	p.Phases[2].TokensSold = 42

	cfg := NewConfig(testAuthority, p)
	assert.Equal(t, uint64(0), cfg.Phases[2].TokensSold)
	assert.Equal(t, uint64(0), cfg.TokensSold)
	assert.False(t, cfg.IsPaused)
	assert.Equal(t, testAuthority, cfg.Authority)
}

func TestSetPaused(t *testing.T) {
	cfg := testConfig()

	changed, err := cfg.SetPaused(testAuthority, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, cfg.IsPaused)

	changed, err = cfg.SetPaused(testAuthority, true)
	require.NoError(t, err)
	assert.False(t, changed, "pausing twice is a no-op")

	_, err = cfg.SetPaused(testBuyer, false)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, cfg.IsPaused)

	changed, err = cfg.SetPaused(testAuthority, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, cfg.IsPaused)
}

func TestPauseGatesPurchase(t *testing.T) {
	cfg := testConfig()
	_, err := cfg.SetPaused(testAuthority, true)
	require.NoError(t, err)

	_, err = PlanPurchase(cfg, nil, buy(1, CurrencyNative, 1_000))
	assert.ErrorIs(t, err, ErrPresalePaused)

	_, err = cfg.SetPaused(testAuthority, false)
	require.NoError(t, err)

	_, err = PlanPurchase(cfg, nil, buy(1, CurrencyNative, 1_000))
	assert.NoError(t, err)
}

func TestApplyUpdate(t *testing.T) {
	cfg := testConfig()
	maxTx := uint64(5)
	interval := int64(0)

	require.NoError(t, cfg.ApplyUpdate(testAuthority, ConfigUpdate{
		MaxPerTransaction:       &maxTx,
		MinTimeBetweenPurchases: &interval,
	}))
	assert.Equal(t, uint64(5), cfg.MaxPerTransaction)
	assert.Equal(t, uint64(500_000), cfg.MaxPerWallet, "absent fields are untouched")
	assert.Equal(t, int64(0), cfg.MinTimeBetweenPurchases)

	err := cfg.ApplyUpdate(otherBuyer, ConfigUpdate{MaxPerTransaction: &maxTx})
	assert.ErrorIs(t, err, ErrUnauthorized)

	bad := int64(-5)
	wallet := uint64(1)
	err = cfg.ApplyUpdate(testAuthority, ConfigUpdate{MaxPerWallet: &wallet, MinTimeBetweenPurchases: &bad})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, uint64(500_000), cfg.MaxPerWallet, "rejected update writes nothing")

	assert.True(t, ConfigUpdate{}.Empty())
	assert.False(t, ConfigUpdate{MaxPerWallet: &wallet}.Empty())
}

func TestApplyUpdate_EnforcedOnNextPurchase(t *testing.T) {
	cfg := testConfig()
	maxTx := uint64(10)
	require.NoError(t, cfg.ApplyUpdate(testAuthority, ConfigUpdate{MaxPerTransaction: &maxTx}))

	_, err := PlanPurchase(cfg, nil, buy(11, CurrencyNative, 1_000))
	assert.ErrorIs(t, err, ErrExceedsMaxPerTransaction)
}

func TestPlanBurn(t *testing.T) {
	end := testConfig().SalesEnd()

	t.Run("authority only", func(t *testing.T) {
		cfg := testConfig()
		_, err := cfg.PlanBurn(testBuyer, end, 10_000_000, 0)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("before end", func(t *testing.T) {
		cfg := testConfig()
		_, err := cfg.PlanBurn(testAuthority, end-1, 10_000_000, 0)
		assert.ErrorIs(t, err, ErrPresaleNotEnded)
	})

	t.Run("burns unsold once", func(t *testing.T) {
		cfg := testConfig()
		cfg.TokensSold = 1_500
		cfg.Phases[0].TokensSold = 1_500

		amount, err := cfg.PlanBurn(testAuthority, end, 10_000_000, 1_500)
		require.NoError(t, err)
		assert.Equal(t, uint64(10_000_000-1_500), amount)
		cfg.ApplyBurn(amount)

		_, err = cfg.PlanBurn(testAuthority, end+1, 10_000_000-amount, 1_500)
		assert.ErrorIs(t, err, ErrNothingToBurn)
	})

	t.Run("treasury short", func(t *testing.T) {
		cfg := testConfig()
		_, err := cfg.PlanBurn(testAuthority, end, 9_999_999, 0)
		assert.ErrorIs(t, err, ErrInsufficientTreasury)
	})

	t.Run("treasury keeps unclaimed purchases", func(t *testing.T) {
		cfg := testConfig()
		cfg.TokensSold = 1_500
		cfg.Phases[0].TokensSold = 1_500
		unsold := cfg.Unsold()

		_, err := cfg.PlanBurn(testAuthority, end, unsold, 1_500)
		assert.ErrorIs(t, err, ErrInsufficientTreasury)

		amount, err := cfg.PlanBurn(testAuthority, end, unsold+1_500, 1_500)
		require.NoError(t, err)
		assert.Equal(t, unsold, amount)
	})

	t.Run("sold out", func(t *testing.T) {
		cfg := testConfig()
		cfg.TotalTokensForSale = 1_000
		cfg.TokensSold = 1_000
		cfg.Phases[0].TokensSold = 1_000
		_, err := cfg.PlanBurn(testAuthority, end, 0, 0)
		assert.ErrorIs(t, err, ErrNothingToBurn)
	})
}

func TestOutstanding(t *testing.T) {
	got, err := Outstanding([]UserPurchase{
		{TotalPurchased: 1_000, ClaimedAmount: 400},
		{TotalPurchased: 500},
		{TotalPurchased: 200, ClaimedAmount: 200},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_100), got)

	_, err = Outstanding([]UserPurchase{{TotalPurchased: math.MaxUint64}, {TotalPurchased: 1}})
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestCheckInvariants(t *testing.T) {
	cfg := testConfig()
	r, err := PlanPurchase(cfg, nil, buy(1_000, CurrencyNative, 1_000))
	require.NoError(t, err)
	u := ApplyPurchase(cfg, nil, r)

	assert.Empty(t, CheckInvariants(cfg, []UserPurchase{*u}, launch))

	cfg.TokensSold++
	violations := CheckInvariants(cfg, []UserPurchase{*u}, launch)
	names := make([]string, 0, len(violations))
	for _, v := range violations {
		names = append(names, v.Name)
	}
	assert.ElementsMatch(t, []string{"phase_sum", "ledger_sum"}, names)

	cfg.TokensSold--
	u.ClaimedAmount = 401
	violations = CheckInvariants(cfg, []UserPurchase{*u}, launch)
	require.Len(t, violations, 1)
	assert.Equal(t, "vesting_bound", violations[0].Name)
}

func TestErrorCategories(t *testing.T) {
	assert.Equal(t, CategoryAuthorization, CodeUnauthorized.Category())
	assert.Equal(t, CategoryState, CodePresalePaused.Category())
	assert.Equal(t, CategoryAccounting, CodeInsufficientFunds.Category())
	assert.Equal(t, CategoryInput, ErrorCode("Mystery").Category())

	assert.False(t, IsPresaleError(assert.AnError))
	assert.True(t, IsPresaleError(ErrNothingToBurn.With("k", 1)))
	assert.Equal(t, "NothingToBurn: no unsold tokens to burn", ErrNothingToBurn.Error())
}
