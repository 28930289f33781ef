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

type purchaseArgs struct {
	Quantity uint64           `json:"quantity"`
	Currency presale.Currency `json:"currency"`
}

// Purchase buys quantity tokens for buyer at the active phase price,
// paying in currency. The buyer's record is created on first purchase.
//
// Payment moves from the buyer's native account (native) or the buyer's
// associated token account for the payment mint (stable) into the matching
// vault. A short balance fails with InsufficientFunds and nothing changes.
func (e *Engine) Purchase(ctx context.Context, buyer solana.PublicKey, quantity uint64, currency presale.Currency) (*presale.PurchaseReceipt, error) {
	// Invalid currencies cannot be text-encoded, so journal the raw value.
	var args any = purchaseArgs{Quantity: quantity, Currency: currency}
	if !currency.Valid() {
		args = map[string]any{"quantity": quantity, "currency": uint8(currency)}
	}
	return execute(ctx, e, journal.OpPurchase, buyer, args, func(tx *store.Tx, now int64) (*presale.PurchaseReceipt, error) {
		cfg, err := e.loadConfig(tx)
		if err != nil {
			return nil, err
		}
		user, addr, err := e.loadUser(tx, buyer)
		if err != nil {
			return nil, err
		}

		receipt, err := presale.PlanPurchase(cfg, user, presale.PurchaseRequest{
			Buyer:    buyer,
			Quantity: quantity,
			Currency: currency,
			Now:      now,
		})
		if err != nil {
			return nil, err
		}

		if err := e.collectPayment(tx, cfg, buyer, receipt); err != nil {
			return nil, err
		}

		user = presale.ApplyPurchase(cfg, user, receipt)
		user.Bump = addr.Bump
		if err := tx.PutConfig(e.addrs.Config.Key, cfg); err != nil {
			return nil, err
		}
		if err := tx.SaveUserPurchase(addr.Key, user, receipt.CreatedRecord); err != nil {
			return nil, err
		}
		return receipt, nil
	})
}

func (e *Engine) collectPayment(tx *store.Tx, cfg *presale.Config, buyer solana.PublicKey, r *presale.PurchaseReceipt) error {
	switch r.Currency {
	case presale.CurrencyNative:
		return tx.TransferLamports(buyer, cfg.NativeVault, r.Cost)
	case presale.CurrencyStable:
		src, err := pda.TokenAccount(buyer, cfg.PaymentMint)
		if err != nil {
			return err
		}
		err = tx.TransferTokens(src, cfg.StableVault, buyer, r.Cost)
		if errors.Is(err, store.ErrAccountNotFound) || errors.Is(err, store.ErrMintMismatch) {
			return presale.ErrInsufficientFunds.With("account", src.String()).With("required", r.Cost)
		}
		return err
	default:
		return presale.ErrInvalidPaymentType
	}
}
