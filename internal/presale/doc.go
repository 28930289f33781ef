// Package presale holds the rules of the token presale.
//
// Everything in this package is pure: functions take the configuration and
// purchase records by pointer, validate against them, and mutate them only
// after every check has passed. Persistence, currency movement and
// atomicity belong to the caller (see internal/engine).
//
// # Accounting
//
// All token and currency amounts are uint64 base units. Arithmetic that can
// overflow uses checked helpers (math/bits) and fails with
// ArithmeticOverflow instead of wrapping. Vesting percentages are applied
// with a 128-bit intermediate product and floor division.
//
// # Vesting
//
// At LaunchTimestamp a buyer's VestingLaunchPercent of TotalPurchased
// unlocks; each full SecondsPerMonth after that unlocks another
// VestingMonthlyPercent, saturating at 100 percent. Before launch nothing is
// vested.
package presale
