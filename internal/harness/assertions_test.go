package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustsol114/velirion-presale/internal/testutil"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Step: 1, Op: OpInitialize, As: "admin", Outcome: OutcomeOK},
		{Step: 2, Op: OpPurchase, As: "alice", Outcome: OutcomeOK},
		{Step: 3, Op: OpPurchase, As: "alice", Outcome: "TooSoonSinceLastPurchase"},
		{Step: 4, Op: OpPurchase, As: "bob", Outcome: OutcomeOK},
		{Step: 5, Op: OpClaim, As: "alice", Outcome: OutcomeOK},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpPurchase}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpPurchase, As: "bob"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpPurchase, Outcome: "TooSoonSinceLastPurchase"}))

	err := assertTraceContains(trace, Assertion{Op: OpPurchase, As: "bob", Outcome: "TooSoonSinceLastPurchase"})
	require.Error(t, err)
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertTraceContains, aerr.Type)
	assert.Contains(t, err.Error(), "Full trace:")
	assert.Contains(t, err.Error(), "03 t=0 alice purchase -> TooSoonSinceLastPurchase")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Ops: []string{OpInitialize, OpPurchase, OpClaim}}))

	err := assertTraceOrder(trace, Assertion{Ops: []string{OpClaim, OpPurchase}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claim (step 5) should be before purchase (step 2)")

	err = assertTraceOrder(trace, Assertion{Ops: []string{OpInitialize, OpBurnUnsold}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing op: burn_unsold")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpPurchase, Count: 3}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpPurchase, Outcome: OutcomeOK, Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpPause, Count: 0}))

	err := assertTraceCount(trace, Assertion{Op: OpPurchase, As: "alice", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences")
}

func TestMatchSubset(t *testing.T) {
	keys := testutil.NewKeyring()
	owner := keys.Public("alice")

	actual, err := toFields(map[string]any{
		"record": map[string]any{
			"owner":           owner,
			"total_purchased": uint64(18446744073709551615),
			"claimed_amount":  uint64(0),
		},
		"is_paused": true,
	})
	require.NoError(t, err)

	// u64 values survive without float rounding.
	assert.Equal(t, json.Number("18446744073709551615"), actual["record"].(map[string]any)["total_purchased"])

	assert.NoError(t, matchSubset(actual, map[string]any{
		"record":    map[string]any{"owner": "alice", "total_purchased": uint64(18446744073709551615)},
		"is_paused": true,
	}, "state", keys))

	err = matchSubset(actual, map[string]any{"record": map[string]any{"claimed_amount": 5}}, "state", keys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state.record.claimed_amount = 0, expected 5")

	err = matchSubset(actual, map[string]any{"vested": 1}, "state", keys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state.vested: missing")

	err = matchSubset(actual, map[string]any{"is_paused": map[string]any{"x": 1}}, "state", keys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected object")

	err = matchSubset(actual, map[string]any{"record": map[string]any{"owner": "bob"}}, "state", keys)
	assert.Error(t, err)
}

func TestEvaluateAssertions_StateNeedsEngine(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertFinalState, Account: "config", Expect: map[string]any{"tokens_sold": 0}},
		{Type: "bogus"},
	}, nil)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "requires an engine")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}
