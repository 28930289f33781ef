package presale

// MonthsElapsed returns the number of whole vesting months between launch
// and now. It is 0 before launch.
func MonthsElapsed(launch, now int64) uint64 {
	if now < launch {
		return 0
	}
	return uint64(now-launch) / uint64(SecondsPerMonth)
}

// VestedPercent returns min(100, launchPct + monthlyPct*months), or 0 before
// launch.
func (c *Config) VestedPercent(now int64) uint64 {
	if now < c.LaunchTimestamp {
		return 0
	}
	pct := uint64(c.VestingLaunchPercent)
	if pct >= 100 {
		return 100
	}
	monthly := uint64(c.VestingMonthlyPercent)
	if monthly == 0 {
		return pct
	}
	months := MonthsElapsed(c.LaunchTimestamp, now)
	// Saturate before multiplying so large month counts cannot overflow.
	needed := (100 - pct + monthly - 1) / monthly
	if months >= needed {
		return 100
	}
	return pct + monthly*months
}

// VestedAmount returns floor(totalPurchased * VestedPercent(now) / 100).
func (c *Config) VestedAmount(u *UserPurchase, now int64) uint64 {
	if u == nil {
		return 0
	}
	return mulDivFloor(u.TotalPurchased, c.VestedPercent(now), 100)
}

// Claimable returns the vested amount not yet claimed.
func (c *Config) Claimable(u *UserPurchase, now int64) uint64 {
	vested := c.VestedAmount(u, now)
	if u == nil || vested <= u.ClaimedAmount {
		return 0
	}
	return vested - u.ClaimedAmount
}

// ClaimReceipt describes an applied claim.
type ClaimReceipt struct {
	Amount        uint64 `json:"amount"`
	VestedPercent uint64 `json:"vested_percent"`
	Vested        uint64 `json:"vested"`
	ClaimedTotal  uint64 `json:"claimed_total"`
	ClaimedAt     int64  `json:"claimed_at"`
}

// PlanClaim computes the claim the buyer is entitled to at now.
// A nil record, a pre-launch time and a fully claimed entitlement all fail
// with NoTokensToClaim.
func PlanClaim(cfg *Config, u *UserPurchase, now int64) (*ClaimReceipt, error) {
	if u == nil {
		return nil, ErrNoTokensToClaim.With("reason", "no purchase record")
	}
	vested := cfg.VestedAmount(u, now)
	if vested <= u.ClaimedAmount {
		return nil, ErrNoTokensToClaim.
			With("claimed", u.ClaimedAmount).
			With("vested", vested)
	}
	amount := vested - u.ClaimedAmount
	return &ClaimReceipt{
		Amount:        amount,
		VestedPercent: cfg.VestedPercent(now),
		Vested:        vested,
		ClaimedTotal:  u.ClaimedAmount + amount,
		ClaimedAt:     now,
	}, nil
}

// ApplyClaim advances the buyer's claimed watermark.
func ApplyClaim(u *UserPurchase, r *ClaimReceipt) {
	u.ClaimedAmount = r.ClaimedTotal
}
