package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rustsol114/velirion-presale/internal/presale"
)

// Tx is one unit of work against the ledger. It is only valid inside the
// Update or View callback that received it.
type Tx struct {
	ctx      context.Context
	tx       *sql.Tx
	seq      int64
	readOnly bool
}

func newTx(ctx context.Context, tx *sql.Tx) (*Tx, error) {
	var last int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM journal`).Scan(&last); err != nil {
		return nil, fmt.Errorf("read journal head: %w", err)
	}
	return &Tx{ctx: ctx, tx: tx, seq: last + 1}, nil
}

// Exists reports whether an account of any kind lives at addr.
func (t *Tx) Exists(addr solana.PublicKey) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(t.ctx, `SELECT COUNT(*) FROM accounts WHERE address = ?`, addr.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("read account %s: %w", addr, err)
	}
	return n > 0, nil
}

// KindOf returns the record kind stored at addr.
func (t *Tx) KindOf(addr solana.PublicKey) (Kind, error) {
	var kind string
	err := t.tx.QueryRowContext(t.ctx, `SELECT kind FROM accounts WHERE address = ?`, addr.String()).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("read account %s: %w", addr, ErrAccountNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read account %s: %w", addr, err)
	}
	return Kind(kind), nil
}

func (t *Tx) get(addr solana.PublicKey, k Kind, v any) error {
	var kind string
	var data []byte
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT kind, data FROM accounts WHERE address = ?`, addr.String()).Scan(&kind, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read %s %s: %w", k, addr, ErrAccountNotFound)
	}
	if err != nil {
		return fmt.Errorf("read %s %s: %w", k, addr, err)
	}
	if Kind(kind) != k {
		return fmt.Errorf("read %s %s: holds %s: %w", k, addr, kind, ErrWrongKind)
	}
	return decodeAccount(k, data, v)
}

// create inserts a new account and fails with ErrAccountInUse if the
// address is taken by any kind.
func (t *Tx) create(addr solana.PublicKey, k Kind, v any) error {
	if t.readOnly {
		return fmt.Errorf("write %s %s: read-only transaction", k, addr)
	}
	data, err := encodeAccount(k, v)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO accounts (address, kind, data, created_seq, updated_seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(address) DO NOTHING
	`, addr.String(), string(k), data, t.seq, t.seq)
	if err != nil {
		return fmt.Errorf("write %s %s: %w", k, addr, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write %s %s: rows affected: %w", k, addr, err)
	}
	if n == 0 {
		return fmt.Errorf("write %s %s: %w", k, addr, ErrAccountInUse)
	}
	return nil
}

// put overwrites an existing account of kind k.
func (t *Tx) put(addr solana.PublicKey, k Kind, v any) error {
	if t.readOnly {
		return fmt.Errorf("write %s %s: read-only transaction", k, addr)
	}
	data, err := encodeAccount(k, v)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE accounts SET data = ?, updated_seq = ?
		WHERE address = ? AND kind = ?
	`, data, t.seq, addr.String(), string(k))
	if err != nil {
		return fmt.Errorf("write %s %s: %w", k, addr, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write %s %s: rows affected: %w", k, addr, err)
	}
	if n == 0 {
		return fmt.Errorf("write %s %s: %w", k, addr, ErrAccountNotFound)
	}
	return nil
}

// Config loads the presale configuration at addr.
func (t *Tx) Config(addr solana.PublicKey) (*presale.Config, error) {
	var cfg presale.Config
	if err := t.get(addr, KindConfig, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateConfig stores a new configuration. ErrAccountInUse means the
// address is already initialized.
func (t *Tx) CreateConfig(addr solana.PublicKey, cfg *presale.Config) error {
	return t.create(addr, KindConfig, cfg)
}

// PutConfig overwrites the configuration at addr.
func (t *Tx) PutConfig(addr solana.PublicKey, cfg *presale.Config) error {
	return t.put(addr, KindConfig, cfg)
}

// UserPurchase loads the purchase record at addr, or returns nil and no
// error when none exists.
func (t *Tx) UserPurchase(addr solana.PublicKey) (*presale.UserPurchase, error) {
	var u presale.UserPurchase
	err := t.get(addr, KindUserPurchase, &u)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveUserPurchase creates the record at addr when created is true and
// overwrites it otherwise.
func (t *Tx) SaveUserPurchase(addr solana.PublicKey, u *presale.UserPurchase, created bool) error {
	if created {
		return t.create(addr, KindUserPurchase, u)
	}
	return t.put(addr, KindUserPurchase, u)
}

// UserPurchases returns every purchase record ordered by address.
func (t *Tx) UserPurchases() ([]presale.UserPurchase, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT data FROM accounts
		WHERE kind = ?
		ORDER BY address COLLATE BINARY ASC
	`, string(KindUserPurchase))
	if err != nil {
		return nil, fmt.Errorf("query user purchases: %w", err)
	}
	defer rows.Close()

	out := []presale.UserPurchase{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan user purchase: %w", err)
		}
		var u presale.UserPurchase
		if err := decodeAccount(KindUserPurchase, data, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user purchases: %w", err)
	}
	return out, nil
}
