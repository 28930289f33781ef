package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/gagliardetto/solana-go"

	"github.com/rustsol114/velirion-presale/internal/engine"
	"github.com/rustsol114/velirion-presale/internal/pda"
	"github.com/rustsol114/velirion-presale/internal/presale"
	"github.com/rustsol114/velirion-presale/internal/schedule"
	"github.com/rustsol114/velirion-presale/internal/store"
	"github.com/rustsol114/velirion-presale/internal/testutil"
)

// Defaults used when a scenario names no schedule.
const (
	DefaultStart       = int64(1_700_000_000)
	DefaultPhaseLength = int64(24 * 60 * 60)
)

// Aliases of the mints every scenario trades in.
const (
	TokenMintAlias   = "token-mint"
	PaymentMintAlias = "usdc-mint"
)

var scenarioProgram = testutil.KeyFromAlias("presale-program").PublicKey()

// DefaultSchedule is the schedule of a scenario that names none.
func DefaultSchedule() *presale.InitParams {
	return schedule.Example(DefaultStart, DefaultPhaseLength)
}

// Harness is the execution state of one scenario run.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	clock    *testutil.ManualClock
	keys     *testutil.Keyring
	params   *presale.InitParams
	treasury solana.PublicKey
	logger   *slog.Logger
}

// Run executes a scenario in a fresh in-memory database and returns the
// result. An error is returned only when the scenario cannot be executed
// at all; step and assertion failures are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	params := DefaultSchedule()
	if scenario.Schedule != "" {
		p, err := schedule.LoadFile(scenario.Schedule)
		if err != nil {
			return nil, fmt.Errorf("failed to load schedule: %w", err)
		}
		params = p
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	start := params.Phases[0].StartTime
	if len(scenario.Steps) > 0 {
		start = scenario.Steps[0].At
	}
	clock := testutil.NewManualClock(start)
	eng, err := engine.New(st, scenarioProgram,
		engine.WithClock(clock),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithRequestIDGenerator(engine.NewSequentialGenerator("scenario")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	h := &Harness{
		store:  st,
		engine: eng,
		clock:  clock,
		keys:   testutil.NewKeyring(),
		params: params,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx := context.Background()
	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i+1, step, result)
	}

	actx := &AssertionContext{
		Engine: eng,
		Keys:   h.keys,
		Ctx:    ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeSetup creates the treasury and funds the scenario wallets.
func (h *Harness) executeSetup(ctx context.Context, setup Setup) error {
	addrs := h.engine.Addresses()
	h.keys.Name("config", addrs.Config.Key)
	h.keys.Name("native_vault", addrs.NativeVault.Key)
	h.keys.Name("stable_vault", addrs.StableVault.Key)
	h.keys.Name(TokenMintAlias, h.tokenMint())
	h.keys.Name(PaymentMintAlias, h.paymentMint())

	amount := setup.Treasury
	if amount == 0 {
		amount = h.params.TotalTokensForSale
	}
	res, err := h.engine.CreateTreasury(ctx, h.tokenMint(), amount)
	if err != nil {
		return fmt.Errorf("create treasury: %w", err)
	}
	h.treasury = res.Account
	h.keys.Name("treasury", res.Account)

	for alias, f := range setup.Wallets {
		if _, err := h.fund(ctx, alias, f); err != nil {
			return fmt.Errorf("fund %s: %w", alias, err)
		}
	}
	return nil
}

func (h *Harness) tokenMint() solana.PublicKey   { return h.keys.Public(TokenMintAlias) }
func (h *Harness) paymentMint() solana.PublicKey { return h.keys.Public(PaymentMintAlias) }

func (h *Harness) fund(ctx context.Context, alias string, f Funding) (map[string]any, error) {
	wallet := h.keys.Public(alias)
	out := map[string]any{}
	if f.Native > 0 {
		res, err := h.engine.Airdrop(ctx, wallet, f.Native)
		if err != nil {
			return nil, err
		}
		out["native"] = res.Balance
	}
	if f.Stable > 0 {
		res, err := h.engine.MintTokens(ctx, h.paymentMint(), wallet, f.Stable)
		if err != nil {
			return nil, err
		}
		out["stable"] = res.Balance
	}
	return out, nil
}

// executeStep runs one step, records it in the trace and checks its
// expectation and the invariants.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) {
	h.clock.Set(step.At)

	out, err := h.invoke(ctx, step)
	ev := TraceEvent{
		Step:    n,
		Op:      step.Op,
		As:      step.As,
		At:      step.At,
		Args:    step.Args,
		Outcome: OutcomeOK,
		Result:  out,
	}
	if err != nil {
		if !presale.IsPresaleError(err) {
			ev.Outcome = "error"
			result.Trace = append(result.Trace, ev)
			result.AddError(fmt.Sprintf("step %d (%s as %s): %v", n, step.Op, step.As, err))
			return
		}
		ev.Outcome = string(presale.CodeOf(err))
		ev.Result = nil
	}
	result.Trace = append(result.Trace, ev)

	h.logger.Info("step completed", "step", n, "op", step.Op, "as", step.As, "outcome", ev.Outcome)

	if msg := checkExpect(n, step, ev); msg != "" {
		result.AddError(msg)
	}
	h.checkInvariants(ctx, n, result)
}

func checkExpect(n int, step Step, ev TraceEvent) string {
	prefix := fmt.Sprintf("step %d (%s as %s)", n, step.Op, step.As)
	want := OutcomeOK
	if step.Expect != nil && step.Expect.Error != "" {
		want = step.Expect.Error
	}
	if ev.Outcome != want {
		return fmt.Sprintf("%s: expected outcome %s, got %s", prefix, want, ev.Outcome)
	}
	if step.Expect != nil && step.Expect.Result != nil {
		if err := matchSubset(ev.Result, step.Expect.Result, "result", nil); err != nil {
			return fmt.Sprintf("%s: %v", prefix, err)
		}
	}
	return ""
}

// checkInvariants records every invariant violation after step n. Before
// initialize there is nothing to check.
func (h *Harness) checkInvariants(ctx context.Context, n int, result *Result) {
	violations, err := h.engine.CheckInvariants(ctx)
	if presale.CodeOf(err) == presale.CodeNotInitialized {
		return
	}
	if err != nil {
		result.AddError(fmt.Sprintf("step %d: invariant check failed: %v", n, err))
		return
	}
	for _, v := range violations {
		result.AddError(fmt.Sprintf("step %d: invariant violated: %s", n, v))
	}
}

// invoke dispatches a step to the engine and summarizes its result.
func (h *Harness) invoke(ctx context.Context, step Step) (map[string]any, error) {
	caller := h.keys.Public(step.As)

	switch step.Op {
	case OpInitialize:
		cfg, err := h.engine.Initialize(ctx, caller, engine.InitRequest{
			Params:      h.params,
			TokenMint:   h.tokenMint(),
			PaymentMint: h.paymentMint(),
			Treasury:    h.treasury,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"total_tokens_for_sale": cfg.TotalTokensForSale,
			"launch_timestamp":      cfg.LaunchTimestamp,
		}, nil

	case OpPurchase:
		qty, _, err := argUint(step.Args, "quantity")
		if err != nil {
			return nil, err
		}
		currency, err := argCurrency(step.Args)
		if err != nil {
			return nil, err
		}
		r, err := h.engine.Purchase(ctx, caller, qty, currency)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"phase":           r.Phase,
			"cost":            r.Cost,
			"total_purchased": r.TotalPurchased,
			"tokens_sold":     r.TokensSold,
		}, nil

	case OpClaim:
		r, err := h.engine.ClaimVested(ctx, caller)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"amount":         r.Amount,
			"vested_percent": r.VestedPercent,
			"claimed_total":  r.ClaimedTotal,
		}, nil

	case OpPause, OpUnpause:
		var (
			r   *engine.PauseResult
			err error
		)
		if step.Op == OpPause {
			r, err = h.engine.Pause(ctx, caller)
		} else {
			r, err = h.engine.Unpause(ctx, caller)
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{"paused": r.Paused, "changed": r.Changed}, nil

	case OpUpdateConfig:
		u, err := argUpdate(step.Args)
		if err != nil {
			return nil, err
		}
		cfg, err := h.engine.UpdateConfig(ctx, caller, u)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"max_per_transaction":        cfg.MaxPerTransaction,
			"max_per_wallet":             cfg.MaxPerWallet,
			"min_time_between_purchases": cfg.MinTimeBetweenPurchases,
		}, nil

	case OpBurnUnsold:
		r, err := h.engine.BurnUnsold(ctx, caller)
		if err != nil {
			return nil, err
		}
		return map[string]any{"amount": r.Amount, "tokens_burned": r.TokensBurned}, nil

	case OpAirdrop:
		native, _, err := argUint(step.Args, "native")
		if err != nil {
			return nil, err
		}
		stable, _, err := argUint(step.Args, "stable")
		if err != nil {
			return nil, err
		}
		return h.fund(ctx, step.As, Funding{Native: native, Stable: stable})
	}

	return nil, fmt.Errorf("unknown op %q", step.Op)
}

// argUint reads a non-negative integer argument. YAML decodes integers as
// int, or uint64 above the int64 range.
func argUint(args map[string]any, key string) (uint64, bool, error) {
	v, ok := args[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, true, fmt.Errorf("%s: must be non-negative, got %d", key, n)
		}
		return uint64(n), true, nil
	case int64:
		if n < 0 {
			return 0, true, fmt.Errorf("%s: must be non-negative, got %d", key, n)
		}
		return uint64(n), true, nil
	case uint64:
		return n, true, nil
	case float64:
		if n < 0 || n != math.Trunc(n) || n > math.MaxUint64 {
			return 0, true, fmt.Errorf("%s: must be a non-negative integer, got %v", key, n)
		}
		return uint64(n), true, nil
	default:
		return 0, true, fmt.Errorf("%s: must be an integer, got %T", key, v)
	}
}

// argCurrency reads the currency argument: a name, or a raw payment type
// byte so that invalid types can be exercised. Missing means native.
func argCurrency(args map[string]any) (presale.Currency, error) {
	v, ok := args["currency"]
	if !ok {
		return presale.CurrencyNative, nil
	}
	if s, ok := v.(string); ok {
		return presale.ParseCurrency(s)
	}
	n, _, err := argUint(args, "currency")
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint8 {
		return 0, fmt.Errorf("currency: %d out of range", n)
	}
	return presale.Currency(n), nil
}

func argUpdate(args map[string]any) (presale.ConfigUpdate, error) {
	var u presale.ConfigUpdate
	if v, ok, err := argUint(args, "max_per_transaction"); err != nil {
		return u, err
	} else if ok {
		u.MaxPerTransaction = &v
	}
	if v, ok, err := argUint(args, "max_per_wallet"); err != nil {
		return u, err
	} else if ok {
		u.MaxPerWallet = &v
	}
	if raw, ok := args["min_time_between_purchases"]; ok {
		n, isInt := raw.(int)
		if !isInt {
			return u, fmt.Errorf("min_time_between_purchases: must be an integer, got %T", raw)
		}
		secs := int64(n)
		u.MinTimeBetweenPurchases = &secs
	}
	return u, nil
}

// walletAddress resolves an assertion wallet: a vault name or an alias.
func walletAddress(e *engine.Engine, keys *testutil.Keyring, name string) (solana.PublicKey, bool) {
	addrs := e.Addresses()
	switch name {
	case "native_vault":
		return addrs.NativeVault.Key, true
	case "stable_vault":
		return addrs.StableVault.Key, true
	case "treasury":
		ata, err := pda.TokenAccount(addrs.Config.Key, keys.Public(TokenMintAlias))
		if err != nil {
			return solana.PublicKey{}, false
		}
		return ata, true
	}
	return keys.Public(name), false
}
