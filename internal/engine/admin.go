package engine

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/rustsol114/velirion-presale/internal/journal"
	"github.com/rustsol114/velirion-presale/internal/presale"
	"github.com/rustsol114/velirion-presale/internal/store"
)

// PauseResult reports the pause flag after a pause or unpause.
type PauseResult struct {
	Paused  bool `json:"paused"`
	Changed bool `json:"changed"`
}

// Pause stops new purchases. Authority only; pausing a paused sale is a
// successful no-op.
func (e *Engine) Pause(ctx context.Context, caller solana.PublicKey) (*PauseResult, error) {
	return e.setPaused(ctx, journal.OpPause, caller, true)
}

// Unpause resumes purchases. Authority only; idempotent.
func (e *Engine) Unpause(ctx context.Context, caller solana.PublicKey) (*PauseResult, error) {
	return e.setPaused(ctx, journal.OpUnpause, caller, false)
}

func (e *Engine) setPaused(ctx context.Context, op journal.Op, caller solana.PublicKey, paused bool) (*PauseResult, error) {
	return execute(ctx, e, op, caller, nil, func(tx *store.Tx, _ int64) (*PauseResult, error) {
		cfg, err := e.loadConfig(tx)
		if err != nil {
			return nil, err
		}
		changed, err := cfg.SetPaused(caller, paused)
		if err != nil {
			return nil, err
		}
		if changed {
			if err := tx.PutConfig(e.addrs.Config.Key, cfg); err != nil {
				return nil, err
			}
		}
		return &PauseResult{Paused: cfg.IsPaused, Changed: changed}, nil
	})
}

// UpdateConfig overwrites the provided purchase limits. Authority only.
// The new limits apply to the next purchase.
func (e *Engine) UpdateConfig(ctx context.Context, caller solana.PublicKey, u presale.ConfigUpdate) (*presale.Config, error) {
	return execute(ctx, e, journal.OpUpdateConfig, caller, u, func(tx *store.Tx, _ int64) (*presale.Config, error) {
		cfg, err := e.loadConfig(tx)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyUpdate(caller, u); err != nil {
			return nil, err
		}
		if err := tx.PutConfig(e.addrs.Config.Key, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	})
}

// BurnReceipt describes a completed burn of unsold supply.
type BurnReceipt struct {
	Amount       uint64 `json:"amount"`
	TokensBurned uint64 `json:"tokens_burned"`
	BurnedAt     int64  `json:"burned_at"`
}

// BurnUnsold destroys the supply that was neither sold nor previously
// burned. Authority only, and only once the last phase has ended.
func (e *Engine) BurnUnsold(ctx context.Context, caller solana.PublicKey) (*BurnReceipt, error) {
	return execute(ctx, e, journal.OpBurnUnsold, caller, nil, func(tx *store.Tx, now int64) (*BurnReceipt, error) {
		cfg, err := e.loadConfig(tx)
		if err != nil {
			return nil, err
		}
		var balance uint64
		treasury, err := tx.TokenAccount(cfg.Treasury)
		switch {
		case err == nil:
			balance = treasury.Amount
		case !errors.Is(err, store.ErrAccountNotFound):
			return nil, err
		}

		users, err := tx.UserPurchases()
		if err != nil {
			return nil, err
		}
		outstanding, err := presale.Outstanding(users)
		if err != nil {
			return nil, err
		}

		amount, err := cfg.PlanBurn(caller, now, balance, outstanding)
		if err != nil {
			return nil, err
		}
		if err := tx.Burn(cfg.Treasury, e.addrs.Config.Key, amount); err != nil {
			return nil, err
		}
		cfg.ApplyBurn(amount)
		if err := tx.PutConfig(e.addrs.Config.Key, cfg); err != nil {
			return nil, err
		}
		return &BurnReceipt{Amount: amount, TokensBurned: cfg.TokensBurned, BurnedAt: now}, nil
	})
}
