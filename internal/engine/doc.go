// Package engine executes presale operations against the ledger store.
//
// Every mutating operation follows the same shape:
//
//  1. Read the ledger time once from the Clock.
//  2. Open one store transaction and load the config and buyer records.
//  3. Check every rule through the pure functions of package presale.
//  4. Move funds, write records and append a journal entry.
//  5. Commit, then log and publish the committed entry.
//
// A rejected operation rolls back completely and leaves no journal entry.
// Reads (PurchaseStatus, PresaleStatus, balances) run in read-only
// transactions and never mutate state.
//
// Concurrency: the store admits one writer at a time, so operations from
// the same buyer are linearised and each observes the previous record.
package engine
