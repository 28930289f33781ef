package engine

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/rustsol114/velirion-presale/internal/journal"
	"github.com/rustsol114/velirion-presale/internal/pda"
	"github.com/rustsol114/velirion-presale/internal/presale"
	"github.com/rustsol114/velirion-presale/internal/store"
)

// FundResult reports the balance of a funded account.
type FundResult struct {
	Account solana.PublicKey  `json:"account"`
	Owner   solana.PublicKey  `json:"owner"`
	Mint    *solana.PublicKey `json:"mint,omitempty"`
	Amount  uint64            `json:"amount"`
	Balance uint64            `json:"balance"`
}

type fundArgs struct {
	Owner  solana.PublicKey  `json:"owner"`
	Mint   *solana.PublicKey `json:"mint,omitempty"`
	Amount uint64            `json:"amount"`
}

// Airdrop credits lamports to wallet's native account. It stands in for
// the outside world funding a wallet and has no authority check.
//
// Only wallet keys and the native vault can be funded. Program-derived
// addresses are off the ed25519 curve and are refused with
// InvalidRecipient, so an airdrop cannot occupy the config or a purchase
// record address before the program creates it.
func (e *Engine) Airdrop(ctx context.Context, wallet solana.PublicKey, lamports uint64) (*FundResult, error) {
	args := fundArgs{Owner: wallet, Amount: lamports}
	return execute(ctx, e, journal.OpFund, wallet, args, func(tx *store.Tx, _ int64) (*FundResult, error) {
		if err := e.checkRecipient(tx, wallet); err != nil {
			return nil, err
		}
		if err := tx.CreditLamports(wallet, lamports); err != nil {
			return nil, err
		}
		balance, err := tx.Lamports(wallet)
		if err != nil {
			return nil, err
		}
		return &FundResult{Account: wallet, Owner: wallet, Amount: lamports, Balance: balance}, nil
	})
}

func (e *Engine) checkRecipient(tx *store.Tx, wallet solana.PublicKey) error {
	if !wallet.Equals(e.addrs.NativeVault.Key) && !wallet.IsOnCurve() {
		return presale.ErrInvalidRecipient.With("account", wallet.String()).With("reason", "program-derived address")
	}
	kind, err := tx.KindOf(wallet)
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		return nil
	case err != nil:
		return err
	case kind != store.KindNative:
		return presale.ErrInvalidRecipient.With("account", wallet.String()).With("kind", kind)
	}
	return nil
}

// MintTokens issues amount tokens of mint into owner's associated token
// account, creating the account if needed.
func (e *Engine) MintTokens(ctx context.Context, mint, owner solana.PublicKey, amount uint64) (*FundResult, error) {
	ata, err := pda.TokenAccount(owner, mint)
	if err != nil {
		return nil, err
	}
	return e.mintInto(ctx, ata, mint, owner, amount)
}

// CreateTreasury creates the sale token treasury at the config address's
// associated token account for tokenMint and mints amount into it. The
// returned account is the one initialize expects as its treasury.
func (e *Engine) CreateTreasury(ctx context.Context, tokenMint solana.PublicKey, amount uint64) (*FundResult, error) {
	owner := e.addrs.Config.Key
	ata, err := pda.TokenAccount(owner, tokenMint)
	if err != nil {
		return nil, err
	}
	return e.mintInto(ctx, ata, tokenMint, owner, amount)
}

func (e *Engine) mintInto(ctx context.Context, ata, mint, owner solana.PublicKey, amount uint64) (*FundResult, error) {
	args := fundArgs{Owner: owner, Mint: &mint, Amount: amount}
	return execute(ctx, e, journal.OpFund, owner, args, func(tx *store.Tx, _ int64) (*FundResult, error) {
		if _, err := tx.EnsureTokenAccount(ata, mint, owner); err != nil {
			return nil, err
		}
		if err := tx.MintTo(mint, ata, amount); err != nil {
			return nil, err
		}
		acc, err := tx.TokenAccount(ata)
		if err != nil {
			return nil, err
		}
		return &FundResult{Account: ata, Owner: owner, Mint: &mint, Amount: amount, Balance: acc.Amount}, nil
	})
}
