package presale

import "github.com/gagliardetto/solana-go"

// InitParams are the sale parameters supplied to initialize.
type InitParams struct {
	Phases                  [PhaseCount]Phase `json:"phases"`
	TotalTokensForSale      uint64            `json:"total_tokens_for_sale"`
	MaxPerTransaction       uint64            `json:"max_per_transaction"`
	MaxPerWallet            uint64            `json:"max_per_wallet"`
	MinTimeBetweenPurchases int64             `json:"min_time_between_purchases"`
	LaunchTimestamp         int64             `json:"launch_timestamp"`
	VestingLaunchPercent    uint8             `json:"vesting_launch_percent"`
	VestingMonthlyPercent   uint8             `json:"vesting_monthly_percent"`
}

// Validate checks the schedule and vesting parameters.
//
// Overlapping phases are accepted; the resolver's first-match rule decides
// between them.
func (p *InitParams) Validate() error {
	for i, ph := range p.Phases {
		if ph.StartTime >= ph.EndTime {
			return ErrInvalidPhaseConfig.With("phase", i).With("reason", "start_time must be before end_time")
		}
		if ph.PriceNative == 0 || ph.PriceStable == 0 {
			return ErrInvalidPhaseConfig.With("phase", i).With("reason", "prices must be positive")
		}
		if ph.TokensAllocated == 0 {
			return ErrInvalidPhaseConfig.With("phase", i).With("reason", "tokens_allocated must be positive")
		}
	}
	if err := ValidateVesting(p.VestingLaunchPercent, p.VestingMonthlyPercent); err != nil {
		return err
	}
	if p.MinTimeBetweenPurchases < 0 {
		return ErrInvalidConfig.With("min_time_between_purchases", p.MinTimeBetweenPurchases)
	}
	return nil
}

// ValidateVesting requires both percentages in [0,100], their sum at most
// 100, and an entitlement that eventually reaches 100 percent.
func ValidateVesting(launchPct, monthlyPct uint8) error {
	if launchPct > 100 || monthlyPct > 100 {
		return ErrInvalidVestingSchedule.With("reason", "percentages must be within 0..100")
	}
	if uint16(launchPct)+uint16(monthlyPct) > 100 {
		return ErrInvalidVestingSchedule.With("reason", "launch + monthly percentage exceeds 100")
	}
	if monthlyPct == 0 && launchPct != 100 {
		return ErrInvalidVestingSchedule.With("reason", "zero monthly percentage never fully vests")
	}
	return nil
}

// NewConfig builds the initial configuration from validated params.
// Incoming phase TokensSold values are reset.
func NewConfig(authority solana.PublicKey, p *InitParams) *Config {
	cfg := &Config{
		Authority:               authority,
		TotalTokensForSale:      p.TotalTokensForSale,
		LaunchTimestamp:         p.LaunchTimestamp,
		Phases:                  p.Phases,
		MaxPerTransaction:       p.MaxPerTransaction,
		MaxPerWallet:            p.MaxPerWallet,
		MinTimeBetweenPurchases: p.MinTimeBetweenPurchases,
		VestingLaunchPercent:    p.VestingLaunchPercent,
		VestingMonthlyPercent:   p.VestingMonthlyPercent,
	}
	for i := range cfg.Phases {
		cfg.Phases[i].TokensSold = 0
	}
	return cfg
}

// RequireAuthority fails with Unauthorized unless caller is the configured authority.
func (c *Config) RequireAuthority(caller solana.PublicKey) error {
	if !c.Authority.Equals(caller) {
		return ErrUnauthorized.With("caller", caller.String())
	}
	return nil
}

// SetPaused sets the pause flag. Pausing a paused sale is a no-op.
// It reports whether the flag changed.
func (c *Config) SetPaused(caller solana.PublicKey, paused bool) (bool, error) {
	if err := c.RequireAuthority(caller); err != nil {
		return false, err
	}
	changed := c.IsPaused != paused
	c.IsPaused = paused
	return changed, nil
}

// ConfigUpdate carries optional limit changes; nil fields are left alone.
type ConfigUpdate struct {
	MaxPerTransaction       *uint64 `json:"max_per_transaction,omitempty"`
	MaxPerWallet            *uint64 `json:"max_per_wallet,omitempty"`
	MinTimeBetweenPurchases *int64  `json:"min_time_between_purchases,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u ConfigUpdate) Empty() bool {
	return u.MaxPerTransaction == nil && u.MaxPerWallet == nil && u.MinTimeBetweenPurchases == nil
}

// ApplyUpdate overwrites the provided limits after an authority check.
// Validation happens before any field is written.
func (c *Config) ApplyUpdate(caller solana.PublicKey, u ConfigUpdate) error {
	if err := c.RequireAuthority(caller); err != nil {
		return err
	}
	if u.MinTimeBetweenPurchases != nil && *u.MinTimeBetweenPurchases < 0 {
		return ErrInvalidConfig.With("min_time_between_purchases", *u.MinTimeBetweenPurchases)
	}
	if u.MaxPerTransaction != nil {
		c.MaxPerTransaction = *u.MaxPerTransaction
	}
	if u.MaxPerWallet != nil {
		c.MaxPerWallet = *u.MaxPerWallet
	}
	if u.MinTimeBetweenPurchases != nil {
		c.MinTimeBetweenPurchases = *u.MinTimeBetweenPurchases
	}
	return nil
}

// PlanBurn returns the unsold amount that may be burned at now.
// treasuryBalance is the current token balance of the treasury and
// outstanding is what buyers have purchased but not yet claimed. The
// treasury must cover both, so a burn never eats into owed tokens.
func (c *Config) PlanBurn(caller solana.PublicKey, now int64, treasuryBalance, outstanding uint64) (uint64, error) {
	if err := c.RequireAuthority(caller); err != nil {
		return 0, err
	}
	if end := c.SalesEnd(); now < end {
		return 0, ErrPresaleNotEnded.With("sales_end", end)
	}
	unsold := c.Unsold()
	if unsold == 0 {
		return 0, ErrNothingToBurn
	}
	required, err := checkedAdd(unsold, outstanding)
	if err != nil {
		return 0, err
	}
	if treasuryBalance < required {
		return 0, ErrInsufficientTreasury.
			With("treasury", treasuryBalance).
			With("unsold", unsold).
			With("outstanding", outstanding)
	}
	return unsold, nil
}

// Outstanding sums what users have purchased but not yet claimed.
func Outstanding(users []UserPurchase) (uint64, error) {
	var total uint64
	for _, u := range users {
		owed := uint64(0)
		if u.TotalPurchased > u.ClaimedAmount {
			owed = u.TotalPurchased - u.ClaimedAmount
		}
		sum, err := checkedAdd(total, owed)
		if err != nil {
			return 0, err
		}
		total = sum
	}
	return total, nil
}

// ApplyBurn records a completed burn.
func (c *Config) ApplyBurn(amount uint64) {
	c.TokensBurned += amount
}
