package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/rustsol114/velirion-presale/internal/events"
	"github.com/rustsol114/velirion-presale/internal/presale"
	"github.com/rustsol114/velirion-presale/internal/store"
	"github.com/rustsol114/velirion-presale/internal/testutil"
)

var (
	testProgram   = solana.PublicKey{0x91}
	testAuthority = solana.PublicKey{0xa1}
	testBuyer     = testutil.KeyFromAlias("buyer").PublicKey()
	otherBuyer    = testutil.KeyFromAlias("other-buyer").PublicKey()
	tokenMint     = solana.PublicKey{0xc1}
	stableMint    = solana.PublicKey{0xc2}
)

const (
	day        = int64(24 * 60 * 60)
	saleStart  = int64(1_000)
	launchTime = int64(2_000_000)
	treasury   = uint64(10_000_000)
)

type fixture struct {
	engine   *Engine
	store    *store.Store
	clock    *testutil.ManualClock
	recorder *events.Recorder
}

func testParams() *presale.InitParams {
	p := &presale.InitParams{
		TotalTokensForSale:      10_000_000,
		MaxPerTransaction:       100_000,
		MaxPerWallet:            500_000,
		MinTimeBetweenPurchases: 60,
		LaunchTimestamp:         launchTime,
		VestingLaunchPercent:    40,
		VestingMonthlyPercent:   30,
	}
	for i := range p.Phases {
		p.Phases[i] = presale.Phase{
			PriceNative:     uint64(100 + i),
			PriceStable:     uint64(10 + i),
			StartTime:       saleStart + int64(i)*day,
			EndTime:         saleStart + int64(i+1)*day,
			TokensAllocated: 1_000_000,
		}
	}
	return p
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "presale.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	f := &fixture{store: s, clock: testutil.NewManualClock(0), recorder: &events.Recorder{}}
	f.engine, err = New(s, testProgram,
		WithClock(f.clock),
		WithPublisher(f.recorder),
		WithRequestIDGenerator(NewSequentialGenerator("req")),
	)
	require.NoError(t, err)
	return f
}

// newInitialized returns a fixture with a funded treasury and an
// initialized presale, clock at the start of phase 0.
func newInitialized(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.engine.CreateTreasury(ctx, tokenMint, treasury)
	require.NoError(t, err)
	_, err = f.engine.Initialize(ctx, testAuthority, InitRequest{
		Params:      testParams(),
		TokenMint:   tokenMint,
		PaymentMint: stableMint,
		Treasury:    res.Account,
	})
	require.NoError(t, err)
	f.clock.Set(saleStart)
	return f
}
