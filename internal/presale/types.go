package presale

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// PhaseCount is the fixed number of pricing phases in a sale.
const PhaseCount = 10

// SecondsPerMonth is the vesting month: 30 days.
const SecondsPerMonth int64 = 30 * 24 * 60 * 60

// Currency selects which payment asset a purchase is settled in.
type Currency uint8

const (
	// CurrencyNative pays in lamports of the native coin.
	CurrencyNative Currency = iota
	// CurrencyStable pays in base units of the stable payment token.
	CurrencyStable
)

// String returns the canonical lower-case name used on the wire.
func (c Currency) String() string {
	switch c {
	case CurrencyNative:
		return "native"
	case CurrencyStable:
		return "stable"
	default:
		return fmt.Sprintf("currency(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the two supported currencies.
func (c Currency) Valid() bool {
	return c == CurrencyNative || c == CurrencyStable
}

// MarshalText encodes the currency by name.
func (c Currency) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, newError(CodeInvalidPaymentType, "unknown currency %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts any name ParseCurrency accepts.
func (c *Currency) UnmarshalText(text []byte) error {
	parsed, err := ParseCurrency(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCurrency accepts "native"/"sol" and "stable"/"usdc".
func ParseCurrency(s string) (Currency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "native", "sol":
		return CurrencyNative, nil
	case "stable", "usdc":
		return CurrencyStable, nil
	default:
		return 0, newError(CodeInvalidPaymentType, "unknown currency %q", s)
	}
}

// Phase is one time-bounded pricing window.
// A phase is active for StartTime <= t < EndTime.
type Phase struct {
	PriceNative     uint64 `json:"price_native"`
	PriceStable     uint64 `json:"price_stable"`
	StartTime       int64  `json:"start_time"`
	EndTime         int64  `json:"end_time"`
	TokensAllocated uint64 `json:"tokens_allocated"`
	TokensSold      uint64 `json:"tokens_sold"`
}

// UnitPrice returns the per-token price of the phase in the given currency.
func (p Phase) UnitPrice(c Currency) (uint64, error) {
	switch c {
	case CurrencyNative:
		return p.PriceNative, nil
	case CurrencyStable:
		return p.PriceStable, nil
	default:
		return 0, newError(CodeInvalidPaymentType, "unknown currency %d", uint8(c))
	}
}

// Remaining returns the unsold allocation of the phase.
func (p Phase) Remaining() uint64 {
	if p.TokensSold >= p.TokensAllocated {
		return 0
	}
	return p.TokensAllocated - p.TokensSold
}

// Config is the global presale configuration singleton.
//
// Field order is the persisted layout; append new fields at the end.
type Config struct {
	Authority   solana.PublicKey `json:"authority"`
	TokenMint   solana.PublicKey `json:"token_mint"`
	PaymentMint solana.PublicKey `json:"payment_mint"`
	Treasury    solana.PublicKey `json:"treasury"`
	NativeVault solana.PublicKey `json:"native_vault"`
	StableVault solana.PublicKey `json:"stable_vault"`

	IsPaused bool `json:"is_paused"`

	TotalTokensForSale uint64 `json:"total_tokens_for_sale"`
	TokensSold         uint64 `json:"tokens_sold"`
	LaunchTimestamp    int64  `json:"launch_timestamp"`

	Phases [PhaseCount]Phase `json:"phases"`

	MaxPerTransaction       uint64 `json:"max_per_transaction"`
	MaxPerWallet            uint64 `json:"max_per_wallet"`
	MinTimeBetweenPurchases int64  `json:"min_time_between_purchases"`

	VestingLaunchPercent  uint8 `json:"vesting_launch_percent"`
	VestingMonthlyPercent uint8 `json:"vesting_monthly_percent"`

	Bump         uint8  `json:"bump"`
	TokensBurned uint64 `json:"tokens_burned"`
}

// SalesEnd returns the latest phase end time.
func (c *Config) SalesEnd() int64 {
	end := c.Phases[0].EndTime
	for _, p := range c.Phases[1:] {
		if p.EndTime > end {
			end = p.EndTime
		}
	}
	return end
}

// Unsold returns the supply that was neither sold nor burned.
func (c *Config) Unsold() uint64 {
	used := c.TokensSold + c.TokensBurned
	if used >= c.TotalTokensForSale {
		return 0
	}
	return c.TotalTokensForSale - used
}

// UserPurchase is the per-buyer purchase ledger entry.
type UserPurchase struct {
	Owner            solana.PublicKey `json:"owner"`
	TotalPurchased   uint64           `json:"total_purchased"`
	TotalSpentNative uint64           `json:"total_spent_native"`
	TotalSpentStable uint64           `json:"total_spent_stable"`
	LastPurchaseTime int64            `json:"last_purchase_time"`
	ClaimedAmount    uint64           `json:"claimed_amount"`
	Bump             uint8            `json:"bump"`
}

// RemainingAllocation returns how many more tokens the buyer may purchase
// under maxPerWallet.
func (u *UserPurchase) RemainingAllocation(maxPerWallet uint64) uint64 {
	if u.TotalPurchased >= maxPerWallet {
		return 0
	}
	return maxPerWallet - u.TotalPurchased
}
