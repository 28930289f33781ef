package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rustsol114/velirion-presale/internal/journal"
	"github.com/rustsol114/velirion-presale/internal/pda"
	"github.com/rustsol114/velirion-presale/internal/presale"
	"github.com/rustsol114/velirion-presale/internal/store"
)

// PurchaseStatus is a read-only view of one buyer's position.
type PurchaseStatus struct {
	Wallet              solana.PublicKey     `json:"wallet"`
	Record              presale.UserPurchase `json:"record"`
	VestedPercent       uint64               `json:"vested_percent"`
	Vested              uint64               `json:"vested"`
	Claimable           uint64               `json:"claimable"`
	RemainingAllocation uint64               `json:"remaining_allocation"`
	CurrentPhase        *int                 `json:"current_phase,omitempty"`
	IsPaused            bool                 `json:"is_paused"`
	At                  int64                `json:"at"`
}

// PresaleStatus is a read-only view of the sale.
type PresaleStatus struct {
	Config          presale.Config `json:"config"`
	CurrentPhase    *int           `json:"current_phase,omitempty"`
	RemainingSupply uint64         `json:"remaining_supply"`
	Unsold          uint64         `json:"unsold"`
	TokenSupply     uint64         `json:"token_supply"`
	SalesEnd        int64          `json:"sales_end"`
	VestedPercent   uint64         `json:"vested_percent"`
	At              int64          `json:"at"`
}

func currentPhase(cfg *presale.Config, now int64) *int {
	idx, err := cfg.CurrentPhase(now)
	if err != nil {
		return nil
	}
	return &idx
}

// PurchaseStatus reports wallet's record and entitlements at the current
// time. It never mutates state. A wallet with no record fails with
// PurchaseNotFound.
func (e *Engine) PurchaseStatus(ctx context.Context, wallet solana.PublicKey) (*PurchaseStatus, error) {
	var out *PurchaseStatus
	now := e.clock.Now()
	err := e.store.View(ctx, func(tx *store.Tx) error {
		cfg, err := e.loadConfig(tx)
		if err != nil {
			return err
		}
		user, _, err := e.loadUser(tx, wallet)
		if err != nil {
			return err
		}
		if user == nil {
			return presale.ErrPurchaseNotFound.With("wallet", wallet.String())
		}
		out = &PurchaseStatus{
			Wallet:              wallet,
			Record:              *user,
			VestedPercent:       cfg.VestedPercent(now),
			Vested:              cfg.VestedAmount(user, now),
			Claimable:           cfg.Claimable(user, now),
			RemainingAllocation: user.RemainingAllocation(cfg.MaxPerWallet),
			CurrentPhase:        currentPhase(cfg, now),
			IsPaused:            cfg.IsPaused,
			At:                  now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PresaleStatus reports the configuration and derived sale figures,
// including the sale token's circulating supply after burns.
func (e *Engine) PresaleStatus(ctx context.Context) (*PresaleStatus, error) {
	var out *PresaleStatus
	now := e.clock.Now()
	err := e.store.View(ctx, func(tx *store.Tx) error {
		cfg, err := e.loadConfig(tx)
		if err != nil {
			return err
		}
		supply, err := tx.MintSupply(cfg.TokenMint)
		if err != nil {
			return err
		}
		var remaining uint64
		if cfg.TotalTokensForSale > cfg.TokensSold {
			remaining = cfg.TotalTokensForSale - cfg.TokensSold
		}
		out = &PresaleStatus{
			Config:          *cfg,
			CurrentPhase:    currentPhase(cfg, now),
			RemainingSupply: remaining,
			Unsold:          cfg.Unsold(),
			TokenSupply:     supply,
			SalesEnd:        cfg.SalesEnd(),
			VestedPercent:   cfg.VestedPercent(now),
			At:              now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Journal returns committed entries with seq > after, at most limit of
// them (0 for all).
func (e *Engine) Journal(ctx context.Context, after int64, limit int) ([]journal.Entry, error) {
	return e.store.Journal(ctx, after, limit)
}

// NativeBalance returns the lamports held at addr.
func (e *Engine) NativeBalance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	var out uint64
	err := e.store.View(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.Lamports(addr)
		return err
	})
	return out, err
}

// TokenBalance returns owner's balance of mint held in the owner's
// associated token account, or 0 if that account does not exist.
func (e *Engine) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	ata, err := pda.TokenAccount(owner, mint)
	if err != nil {
		return 0, err
	}
	return e.TokenAccountBalance(ctx, ata)
}

// TokenAccountBalance returns the amount held in the token account at addr,
// or 0 if it does not exist.
func (e *Engine) TokenAccountBalance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	var out uint64
	err := e.store.View(ctx, func(tx *store.Tx) error {
		acc, err := tx.TokenAccount(addr)
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = acc.Amount
		return nil
	})
	return out, err
}

// CheckInvariants verifies the supply, vesting and vault invariants
// against committed state at the current time.
func (e *Engine) CheckInvariants(ctx context.Context) ([]presale.InvariantViolation, error) {
	var out []presale.InvariantViolation
	now := e.clock.Now()
	err := e.store.View(ctx, func(tx *store.Tx) error {
		cfg, err := e.loadConfig(tx)
		if err != nil {
			return err
		}
		users, err := tx.UserPurchases()
		if err != nil {
			return err
		}
		out = presale.CheckInvariants(cfg, users, now)

		var spentNative, spentStable uint64
		for _, u := range users {
			spentNative += u.TotalSpentNative
			spentStable += u.TotalSpentStable
		}
		native, err := tx.Lamports(cfg.NativeVault)
		if err != nil {
			return err
		}
		if native < spentNative {
			out = append(out, presale.InvariantViolation{
				Name:   "native_vault",
				Detail: fmt.Sprintf("vault=%d spent=%d", native, spentNative),
			})
		}
		stable, err := tx.TokenAccount(cfg.StableVault)
		if err != nil {
			return err
		}
		if stable.Amount < spentStable {
			out = append(out, presale.InvariantViolation{
				Name:   "stable_vault",
				Detail: fmt.Sprintf("vault=%d spent=%d", stable.Amount, spentStable),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
