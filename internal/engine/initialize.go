package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rustsol114/velirion-presale/internal/journal"
	"github.com/rustsol114/velirion-presale/internal/presale"
	"github.com/rustsol114/velirion-presale/internal/store"
)

// InitRequest carries everything initialize needs besides the authority.
type InitRequest struct {
	Params      *presale.InitParams `json:"params"`
	TokenMint   solana.PublicKey    `json:"token_mint"`
	PaymentMint solana.PublicKey    `json:"payment_mint"`
	Treasury    solana.PublicKey    `json:"treasury"`
}

// Initialize creates the presale configuration with authority as its
// administrator. It succeeds at most once per program instance.
//
// The treasury must be an existing token account of TokenMint owned by the
// config address. The stable vault token account and the native vault are
// created in the same transaction.
func (e *Engine) Initialize(ctx context.Context, authority solana.PublicKey, req InitRequest) (*presale.Config, error) {
	return execute(ctx, e, journal.OpInitialize, authority, req, func(tx *store.Tx, now int64) (*presale.Config, error) {
		exists, err := tx.Exists(e.addrs.Config.Key)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, presale.ErrAlreadyInitialized
		}
		if req.Params == nil {
			return nil, presale.ErrInvalidConfig.With("reason", "missing params")
		}
		if err := req.Params.Validate(); err != nil {
			return nil, err
		}
		if err := e.checkTreasury(tx, req); err != nil {
			return nil, err
		}

		cfg := presale.NewConfig(authority, req.Params)
		cfg.TokenMint = req.TokenMint
		cfg.PaymentMint = req.PaymentMint
		cfg.Treasury = req.Treasury
		cfg.NativeVault = e.addrs.NativeVault.Key
		cfg.StableVault = e.addrs.StableVault.Key
		cfg.Bump = e.addrs.Config.Bump

		if err := tx.CreateConfig(e.addrs.Config.Key, cfg); err != nil {
			if errors.Is(err, store.ErrAccountInUse) {
				return nil, presale.ErrAlreadyInitialized
			}
			return nil, err
		}
		if err := tx.CreateTokenAccount(cfg.StableVault, cfg.PaymentMint, e.addrs.Config.Key); err != nil {
			return nil, fmt.Errorf("create stable vault: %w", err)
		}
		// The native vault may already hold lamports sent before initialize.
		vaultExists, err := tx.Exists(cfg.NativeVault)
		if err != nil {
			return nil, err
		}
		if !vaultExists {
			if err := tx.CreateNativeAccount(cfg.NativeVault); err != nil {
				return nil, fmt.Errorf("create native vault: %w", err)
			}
		}
		return cfg, nil
	})
}

func (e *Engine) checkTreasury(tx *store.Tx, req InitRequest) error {
	acc, err := tx.TokenAccount(req.Treasury)
	if errors.Is(err, store.ErrAccountNotFound) || errors.Is(err, store.ErrWrongKind) {
		return presale.ErrInvalidTreasury.With("treasury", req.Treasury.String()).With("reason", "not a token account")
	}
	if err != nil {
		return err
	}
	if !acc.Mint.Equals(req.TokenMint) {
		return presale.ErrInvalidTokenMint.
			With("treasury_mint", acc.Mint.String()).
			With("token_mint", req.TokenMint.String())
	}
	if !acc.Owner.Equals(e.addrs.Config.Key) {
		return presale.ErrInvalidTreasury.
			With("owner", acc.Owner.String()).
			With("required_owner", e.addrs.Config.Key.String())
	}
	return nil
}
