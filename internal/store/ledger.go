package store

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/gagliardetto/solana-go"

	"github.com/rustsol114/velirion-presale/internal/presale"
)

// Lamports returns the native balance at addr. A missing account holds 0.
func (t *Tx) Lamports(addr solana.PublicKey) (uint64, error) {
	var acc NativeAccount
	err := t.get(addr, KindNative, &acc)
	if errors.Is(err, ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acc.Lamports, nil
}

// CreateNativeAccount creates an empty native account at addr.
func (t *Tx) CreateNativeAccount(addr solana.PublicKey) error {
	return t.create(addr, KindNative, &NativeAccount{})
}

// CreditLamports adds lamports to addr, creating the account if needed.
func (t *Tx) CreditLamports(addr solana.PublicKey, amount uint64) error {
	var acc NativeAccount
	err := t.get(addr, KindNative, &acc)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return t.create(addr, KindNative, &NativeAccount{Lamports: amount})
	case err != nil:
		return err
	}
	sum, carry := bits.Add64(acc.Lamports, amount, 0)
	if carry != 0 {
		return presale.ErrArithmeticOverflow.With("account", addr.String())
	}
	acc.Lamports = sum
	return t.put(addr, KindNative, &acc)
}

// TransferLamports moves amount from one native account to another.
// The destination is created if missing. A short source fails with
// InsufficientFunds.
func (t *Tx) TransferLamports(from, to solana.PublicKey, amount uint64) error {
	var src NativeAccount
	err := t.get(from, KindNative, &src)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return err
	}
	if src.Lamports < amount {
		return presale.ErrInsufficientFunds.
			With("account", from.String()).
			With("balance", src.Lamports).
			With("required", amount)
	}
	if amount == 0 || from.Equals(to) {
		return nil
	}
	src.Lamports -= amount
	if err := t.put(from, KindNative, &src); err != nil {
		return err
	}
	return t.CreditLamports(to, amount)
}

// TokenAccount loads the token account at addr.
func (t *Tx) TokenAccount(addr solana.PublicKey) (*TokenAccount, error) {
	var acc TokenAccount
	if err := t.get(addr, KindToken, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// CreateTokenAccount creates an empty token account for mint owned by owner.
func (t *Tx) CreateTokenAccount(addr, mint, owner solana.PublicKey) error {
	return t.create(addr, KindToken, &TokenAccount{Mint: mint, Owner: owner})
}

// EnsureTokenAccount creates the token account if it is absent and checks
// that an existing one holds mint. It reports whether it created one.
func (t *Tx) EnsureTokenAccount(addr, mint, owner solana.PublicKey) (bool, error) {
	acc, err := t.TokenAccount(addr)
	if errors.Is(err, ErrAccountNotFound) {
		return true, t.CreateTokenAccount(addr, mint, owner)
	}
	if err != nil {
		return false, err
	}
	if !acc.Mint.Equals(mint) {
		return false, fmt.Errorf("token account %s: %w", addr, ErrMintMismatch)
	}
	return false, nil
}

// TransferTokens moves amount between two token accounts of the same mint.
// authority must own the source account. A short source fails with
// InsufficientFunds.
func (t *Tx) TransferTokens(from, to, authority solana.PublicKey, amount uint64) error {
	src, err := t.TokenAccount(from)
	if err != nil {
		return err
	}
	dst, err := t.TokenAccount(to)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(authority) {
		return fmt.Errorf("transfer from %s by %s: %w", from, authority, ErrOwnerMismatch)
	}
	if !src.Mint.Equals(dst.Mint) {
		return fmt.Errorf("transfer %s to %s: %w", from, to, ErrMintMismatch)
	}
	if src.Amount < amount {
		return presale.ErrInsufficientFunds.
			With("account", from.String()).
			With("balance", src.Amount).
			With("required", amount)
	}
	sum, carry := bits.Add64(dst.Amount, amount, 0)
	if carry != 0 {
		return presale.ErrArithmeticOverflow.With("account", to.String())
	}
	if from.Equals(to) {
		return nil
	}
	src.Amount -= amount
	dst.Amount = sum
	if err := t.put(from, KindToken, src); err != nil {
		return err
	}
	return t.put(to, KindToken, dst)
}

// MintTo issues amount new tokens of mint into dest, creating the mint
// record on first use.
func (t *Tx) MintTo(mint, dest solana.PublicKey, amount uint64) error {
	acc, err := t.TokenAccount(dest)
	if err != nil {
		return err
	}
	if !acc.Mint.Equals(mint) {
		return fmt.Errorf("mint to %s: %w", dest, ErrMintMismatch)
	}

	var m Mint
	err = t.get(mint, KindMint, &m)
	created := errors.Is(err, ErrAccountNotFound)
	if err != nil && !created {
		return err
	}
	supply, carry := bits.Add64(m.Supply, amount, 0)
	if carry != 0 {
		return presale.ErrArithmeticOverflow.With("mint", mint.String())
	}
	balance, carry := bits.Add64(acc.Amount, amount, 0)
	if carry != 0 {
		return presale.ErrArithmeticOverflow.With("account", dest.String())
	}
	m.Supply = supply
	acc.Amount = balance

	if created {
		err = t.create(mint, KindMint, &m)
	} else {
		err = t.put(mint, KindMint, &m)
	}
	if err != nil {
		return err
	}
	return t.put(dest, KindToken, acc)
}

// Burn destroys amount tokens held in from. authority must own from.
func (t *Tx) Burn(from, authority solana.PublicKey, amount uint64) error {
	acc, err := t.TokenAccount(from)
	if err != nil {
		return err
	}
	if !acc.Owner.Equals(authority) {
		return fmt.Errorf("burn from %s by %s: %w", from, authority, ErrOwnerMismatch)
	}
	if acc.Amount < amount {
		return presale.ErrInsufficientTreasury.
			With("balance", acc.Amount).
			With("required", amount)
	}
	acc.Amount -= amount
	if err := t.put(from, KindToken, acc); err != nil {
		return err
	}

	var m Mint
	err = t.get(acc.Mint, KindMint, &m)
	if errors.Is(err, ErrAccountNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if m.Supply >= amount {
		m.Supply -= amount
	} else {
		m.Supply = 0
	}
	return t.put(acc.Mint, KindMint, &m)
}

// MintSupply returns the tracked supply of mint, or 0 if never minted.
func (t *Tx) MintSupply(mint solana.PublicKey) (uint64, error) {
	var m Mint
	err := t.get(mint, KindMint, &m)
	if errors.Is(err, ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return m.Supply, nil
}
