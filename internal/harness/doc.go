// Package harness runs presale scenarios against a fresh engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: rate_limit
//	description: "A second purchase inside the interval is rejected"
//	schedule: ../schedules/small.yaml   # optional, relative to the scenario
//	setup:
//	  treasury: 100000                  # sale tokens minted into the treasury
//	  wallets:
//	    alice: { native: 1000000, stable: 50000 }
//	steps:
//	  - op: initialize
//	    as: admin
//	    at: 1000
//	  - op: purchase
//	    as: alice
//	    at: 1000
//	    args: { quantity: 100, currency: native }
//	  - op: purchase
//	    as: alice
//	    at: 1059
//	    args: { quantity: 100, currency: native }
//	    expect: { error: TooSoonSinceLastPurchase }
//	assertions:
//	  - type: final_state
//	    account: purchase
//	    wallet: alice
//	    expect: { record: { total_purchased: 100 } }
//	  - type: balance
//	    wallet: native_vault
//	    asset: native
//	    amount: 1000
//
// Each step runs at ledger time at. A step without expect must succeed;
// expect.error names the presale error code the step must fail with, and
// expect.result is a subset match on the step's result.
//
// # Operations
//
//   - initialize: creates the sale from the scenario schedule
//   - purchase: args quantity and currency
//   - claim
//   - pause, unpause
//   - update_config: args max_per_transaction, max_per_wallet,
//     min_time_between_purchases (each optional)
//   - burn_unsold
//   - airdrop: args native and stable, credited to the as wallet
//
// # Assertion Types
//
//   - trace_contains: a step with the given op (and as, outcome) ran
//   - trace_order: ops appear in the given order
//   - trace_count: op appears exactly count times (optionally per outcome)
//   - final_state: subset match on the config or a wallet's purchase status
//   - balance: native, token or stable balance of a wallet or vault
//
// The accounting invariants are checked after every step; a violation
// fails the scenario.
//
// # Deterministic Testing
//
// Every run uses a temporary database, a manual clock, sequential request
// IDs and keys derived from aliases, so traces are identical across runs
// and can be compared with golden files.
package harness
