package presale

import (
	"github.com/gagliardetto/solana-go"
)

var (
	testAuthority = solana.PublicKey{0xa1}
	testBuyer     = solana.PublicKey{0xb1}
	otherBuyer    = solana.PublicKey{0xb2}
)

// testPhases builds ten back-to-back phases of one day each starting at
// start, each allocating alloc tokens. Prices rise by one unit per phase.
func testPhases(start int64, alloc uint64) [PhaseCount]Phase {
	var phases [PhaseCount]Phase
	const day = 24 * 60 * 60
	for i := range phases {
		phases[i] = Phase{
			PriceNative:     uint64(100 + i),
			PriceStable:     uint64(10 + i),
			StartTime:       start + int64(i)*day,
			EndTime:         start + int64(i+1)*day,
			TokensAllocated: alloc,
		}
	}
	return phases
}

func testParams() *InitParams {
	return &InitParams{
		Phases:                  testPhases(1_000, 1_000_000),
		TotalTokensForSale:      10_000_000,
		MaxPerTransaction:       100_000,
		MaxPerWallet:            500_000,
		MinTimeBetweenPurchases: 60,
		LaunchTimestamp:         2_000_000,
		VestingLaunchPercent:    40,
		VestingMonthlyPercent:   30,
	}
}

func testConfig() *Config {
	return NewConfig(testAuthority, testParams())
}
