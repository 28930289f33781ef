package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/rustsol114/velirion-presale/internal/engine"
	"github.com/rustsol114/velirion-presale/internal/testutil"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent // nil for state assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", event)
		}
	}

	return buf.String()
}

func (a Assertion) selects(ev TraceEvent) bool {
	if ev.Op != a.Op {
		return false
	}
	if a.As != "" && ev.As != a.As {
		return false
	}
	if a.Outcome != "" && ev.Outcome != a.Outcome {
		return false
	}
	return true
}

func (a Assertion) describe() string {
	s := a.Op
	if a.As != "" {
		s += " as " + a.As
	}
	if a.Outcome != "" {
		s += " -> " + a.Outcome
	}
	return s
}

// assertTraceContains checks that some step matches op, as and outcome.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, ev := range trace {
		if assertion.selects(ev) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: assertion.describe(),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrences of ops appear in the
// given order. Other steps may appear in between.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if _, seen := positions[ev.Op]; !seen {
			positions[ev.Op] = i + 1
		}
	}

	for _, op := range assertion.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops present: %v", assertion.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Ops); i++ {
		prev, curr := assertion.Ops[i-1], assertion.Ops[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
				Actual: fmt.Sprintf("%s (step %d) should be before %s (step %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count steps match.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, ev := range trace {
		if assertion.selects(ev) {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.describe()),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState matches the config or a wallet's purchase status
// against the expected fields. Addresses may be given by alias.
func assertFinalState(actx *AssertionContext, assertion Assertion) error {
	var (
		v   any
		err error
	)
	switch assertion.Account {
	case "config":
		v, err = actx.Engine.PresaleStatus(actx.Ctx)
		if err == nil {
			v = v.(*engine.PresaleStatus).Config
		}
	case "purchase":
		v, err = actx.Engine.PurchaseStatus(actx.Ctx, actx.Keys.Public(assertion.Wallet))
	}
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s %s", assertion.Account, assertion.Wallet),
			Actual:   fmt.Sprintf("read error: %v", err),
		}
	}

	actual, err := toFields(v)
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}
	if err := matchSubset(actual, assertion.Expect, assertion.Account, actx.Keys); err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%v", assertion.Expect),
			Actual:   err.Error(),
		}
	}
	return nil
}

// assertBalance checks one balance. Vault names address the vault itself;
// any other wallet is an alias whose own or associated account is read.
func assertBalance(actx *AssertionContext, assertion Assertion) error {
	e := actx.Engine
	addr, direct := walletAddress(e, actx.Keys, assertion.Wallet)

	var (
		got uint64
		err error
	)
	switch {
	case assertion.Asset == "native":
		got, err = e.NativeBalance(actx.Ctx, addr)
	case direct:
		got, err = e.TokenAccountBalance(actx.Ctx, addr)
	case assertion.Asset == "token":
		got, err = e.TokenBalance(actx.Ctx, addr, actx.Keys.Public(TokenMintAlias))
	default:
		got, err = e.TokenBalance(actx.Ctx, addr, actx.Keys.Public(PaymentMintAlias))
	}
	if err != nil {
		return fmt.Errorf("balance %s %s: %w", assertion.Wallet, assertion.Asset, err)
	}
	if got != assertion.Amount {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("%s %s balance %d", assertion.Wallet, assertion.Asset, assertion.Amount),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

// toFields converts v to a JSON object tree. Numbers stay json.Number so
// u64 values keep full precision.
func toFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// matchSubset checks that actual contains every expected field. Nested
// objects are matched recursively; extra fields in actual are ignored.
func matchSubset(actual, expected map[string]any, path string, keys *testutil.Keyring) error {
	for _, key := range slices.Sorted(maps.Keys(expected)) {
		want := expected[key]
		field := path + "." + key
		got, ok := actual[key]
		if !ok {
			return fmt.Errorf("%s: missing", field)
		}
		if wantMap, ok := want.(map[string]any); ok {
			gotMap, ok := got.(map[string]any)
			if !ok {
				return fmt.Errorf("%s: expected object, got %v", field, got)
			}
			if err := matchSubset(gotMap, wantMap, field, keys); err != nil {
				return err
			}
			continue
		}
		if !valuesEqual(got, want, keys) {
			return fmt.Errorf("%s = %v, expected %v", field, got, want)
		}
	}
	return nil
}

// valuesEqual compares scalars by their printed form, so YAML ints match
// u64 and json.Number values. A base58 address also matches its alias.
func valuesEqual(actual, expected any, keys *testutil.Keyring) bool {
	if fmt.Sprint(actual) == fmt.Sprint(expected) {
		return true
	}
	s, ok := actual.(string)
	if !ok || keys == nil {
		return false
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return false
	}
	return keys.Alias(pk) == fmt.Sprint(expected)
}

// AssertionContext provides engine access for state assertions.
type AssertionContext struct {
	Engine *engine.Engine
	Keys   *testutil.Keyring
	Ctx    context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState, AssertBalance:
			if actx == nil || actx.Engine == nil {
				err = fmt.Errorf("assertion[%d]: %s requires an engine", i, assertion.Type)
			} else if assertion.Type == AssertFinalState {
				err = assertFinalState(actx, assertion)
			} else {
				err = assertBalance(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
