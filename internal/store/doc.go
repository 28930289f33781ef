// Package store provides the SQLite-backed ledger the presale engine runs on.
//
// The ledger holds two tables:
//   - accounts: addressable records (config, purchase records, native
//     accounts, token accounts, mints), each stored as an 8-byte
//     discriminator followed by its Borsh encoding
//   - journal: the append-only record of committed operations
//
// # Atomicity
//
// Every mutating operation runs inside Store.Update. The callback's writes
// commit together or not at all, and a journal entry appended in the same
// callback commits with them. The store keeps a single connection open, so
// concurrent Updates are serialised and each one sees the committed result
// of the previous.
//
// # Custody
//
// Token transfers and burns require an authority equal to the source
// account's owner. Vault accounts are owned by program-derived addresses,
// so only code that presents the derived address can move funds out.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
