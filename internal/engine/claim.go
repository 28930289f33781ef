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

// ClaimVested transfers every vested, unclaimed token of buyer from the
// treasury to the buyer's associated token account, creating that account
// if needed. Claims are not affected by pause.
func (e *Engine) ClaimVested(ctx context.Context, buyer solana.PublicKey) (*presale.ClaimReceipt, error) {
	return execute(ctx, e, journal.OpClaim, buyer, nil, func(tx *store.Tx, now int64) (*presale.ClaimReceipt, error) {
		cfg, err := e.loadConfig(tx)
		if err != nil {
			return nil, err
		}
		user, addr, err := e.loadUser(tx, buyer)
		if err != nil {
			return nil, err
		}

		receipt, err := presale.PlanClaim(cfg, user, now)
		if err != nil {
			return nil, err
		}

		dest, err := pda.TokenAccount(buyer, cfg.TokenMint)
		if err != nil {
			return nil, err
		}
		if _, err := tx.EnsureTokenAccount(dest, cfg.TokenMint, buyer); err != nil {
			return nil, err
		}
		// Only the config address can authorise treasury outflows.
		err = tx.TransferTokens(cfg.Treasury, dest, e.addrs.Config.Key, receipt.Amount)
		if errors.Is(err, presale.ErrInsufficientFunds) {
			return nil, presale.ErrInsufficientTreasury.With("required", receipt.Amount)
		}
		if err != nil {
			return nil, err
		}

		presale.ApplyClaim(user, receipt)
		if err := tx.SaveUserPurchase(addr.Key, user, false); err != nil {
			return nil, err
		}
		return receipt, nil
	})
}
