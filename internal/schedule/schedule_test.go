package schedule

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustsol114/velirion-presale/internal/presale"
)

// cueDoc renders a schedule with ten one-hour phases starting at 1000,
// followed by extra.
func cueDoc(extra string) string {
	var b strings.Builder
	b.WriteString("phases: [\n")
	for i := 0; i < presale.PhaseCount; i++ {
		fmt.Fprintf(&b, "\t{price_native: %d, price_stable: %d, start_time: %d, end_time: %d, tokens_allocated: 1000000},\n",
			100+i, 10+i, 1000+i*3600, 1000+(i+1)*3600)
	}
	b.WriteString("]\n")
	b.WriteString(`total_tokens_for_sale: 10000000
max_per_transaction: 100000
max_per_wallet: 500000
launch_timestamp: 50000
vesting: {launch_percent: 40, monthly_percent: 30}
`)
	b.WriteString(extra)
	return b.String()
}

func TestParse_CUE(t *testing.T) {
	p, err := Parse("sale.cue", []byte(cueDoc("min_time_between_purchases: 60\n")))
	require.NoError(t, err)

	assert.Equal(t, uint64(10_000_000), p.TotalTokensForSale)
	assert.Equal(t, uint64(100_000), p.MaxPerTransaction)
	assert.Equal(t, uint64(500_000), p.MaxPerWallet)
	assert.Equal(t, int64(60), p.MinTimeBetweenPurchases)
	assert.Equal(t, int64(50_000), p.LaunchTimestamp)
	assert.Equal(t, uint8(40), p.VestingLaunchPercent)
	assert.Equal(t, uint8(30), p.VestingMonthlyPercent)
	assert.Equal(t, presale.Phase{
		PriceNative: 109, PriceStable: 19,
		StartTime: 1000 + 9*3600, EndTime: 1000 + 10*3600,
		TokensAllocated: 1_000_000,
	}, p.Phases[9])
}

func TestParse_DefaultMinTime(t *testing.T) {
	p, err := Parse("sale.cue", []byte(cueDoc("")))
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.MinTimeBetweenPurchases)
}

func TestParse_YAML(t *testing.T) {
	var b strings.Builder
	b.WriteString("phases:\n")
	for i := 0; i < presale.PhaseCount; i++ {
		fmt.Fprintf(&b, "  - {price_native: 5, price_stable: 1000, start_time: %d, end_time: %d, tokens_allocated: 10}\n", i*10, (i+1)*10)
	}
	b.WriteString(`total_tokens_for_sale: 100
max_per_transaction: 10
max_per_wallet: 20
min_time_between_purchases: 0
launch_timestamp: 200
vesting:
  launch_percent: 100
  monthly_percent: 0
`)
	p, err := Parse("sale.yaml", []byte(b.String()))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), p.TotalTokensForSale)
	assert.Equal(t, uint8(100), p.VestingLaunchPercent)
	assert.Equal(t, int64(90), p.Phases[9].StartTime)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		leaf string
	}{
		{
			name: "percent out of range",
			doc:  strings.Replace(cueDoc(""), "launch_percent: 40", "launch_percent: 140", 1),
			leaf: "launch_percent",
		},
		{
			name: "negative min time",
			doc:  cueDoc("min_time_between_purchases: -1\n"),
			leaf: "min_time_between_purchases",
		},
		{
			name: "unknown field",
			doc:  cueDoc("max_per_block: 3\n"),
			leaf: "max_per_block",
		},
		{
			name: "end before start",
			doc:  strings.Replace(cueDoc(""), "start_time: 1000, end_time: 4600", "start_time: 4600, end_time: 1000", 1),
			leaf: "end_time",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("sale.cue", []byte(tt.doc))
			require.Error(t, err)
			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Contains(t, err.Error(), tt.leaf)
		})
	}
}

func TestParse_WrongPhaseCount(t *testing.T) {
	doc := `phases: [{price_native: 1, price_stable: 1, start_time: 0, end_time: 10, tokens_allocated: 1}]
total_tokens_for_sale: 1
max_per_transaction: 1
max_per_wallet: 1
launch_timestamp: 0
vesting: {launch_percent: 100, monthly_percent: 0}
`
	_, err := Parse("sale.cue", []byte(doc))
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "phases", se.Field)
}

func TestParse_PresaleValidationApplies(t *testing.T) {
	// Passes the schema, fails the combined percentage rule.
	doc := strings.Replace(cueDoc(""), "monthly_percent: 30", "monthly_percent: 70", 1)
	_, err := Parse("sale.cue", []byte(doc))
	assert.ErrorIs(t, err, presale.ErrInvalidVestingSchedule)
}

func TestFormat_RoundTrip(t *testing.T) {
	want := Example(1_700_000_000, 7*24*60*60)

	out, err := Format(want)
	require.NoError(t, err)

	got, err := Parse("example.cue", out)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sale.cue")
	require.NoError(t, os.WriteFile(path, []byte(cueDoc("")), 0o600))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p.Phases[0].StartTime)

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.cue"))
	assert.ErrorContains(t, err, "read schedule")
}
