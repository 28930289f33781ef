package presale

import "github.com/gagliardetto/solana-go"

// PurchaseRequest is a buy order at a given ledger time.
type PurchaseRequest struct {
	Buyer    solana.PublicKey
	Quantity uint64
	Currency Currency
	Now      int64
}

// PurchaseReceipt describes what an applied purchase changed.
type PurchaseReceipt struct {
	Buyer          solana.PublicKey `json:"buyer"`
	Phase          int              `json:"phase"`
	Quantity       uint64           `json:"quantity"`
	Currency       Currency         `json:"currency"`
	Cost           uint64           `json:"cost"`
	UnitPrice      uint64           `json:"unit_price"`
	CreatedRecord  bool             `json:"created_record"`
	TotalPurchased uint64           `json:"total_purchased"`
	PhaseSold      uint64           `json:"phase_tokens_sold"`
	TokensSold     uint64           `json:"tokens_sold"`
	PurchasedAt    int64            `json:"purchased_at"`
}

// PlanPurchase validates req against cfg and the buyer's current record
// (nil when the buyer has never purchased) and returns the receipt that
// ApplyPurchase would produce. Nothing is mutated.
//
// Checks run in a fixed order and the first violation is returned:
// paused, quantity, currency, active phase, per-transaction limit,
// per-wallet limit, purchase interval, phase allocation, total supply,
// cost overflow. A paused sale rejects every order with PresalePaused.
func PlanPurchase(cfg *Config, user *UserPurchase, req PurchaseRequest) (*PurchaseReceipt, error) {
	if cfg.IsPaused {
		return nil, ErrPresalePaused
	}

	if req.Quantity == 0 {
		return nil, ErrInvalidQuantity
	}
	if !req.Currency.Valid() {
		return nil, ErrInvalidPaymentType.With("currency", uint8(req.Currency))
	}

	idx, err := cfg.CurrentPhase(req.Now)
	if err != nil {
		return nil, err
	}
	phase := cfg.Phases[idx]

	if req.Quantity > cfg.MaxPerTransaction {
		return nil, ErrExceedsMaxPerTransaction.
			With("quantity", req.Quantity).
			With("max_per_transaction", cfg.MaxPerTransaction)
	}

	var purchased uint64
	if user != nil {
		purchased = user.TotalPurchased
	}
	walletTotal, err := checkedAdd(purchased, req.Quantity)
	if err != nil {
		return nil, err
	}
	if walletTotal > cfg.MaxPerWallet {
		return nil, ErrExceedsMaxPerWallet.
			With("wallet_total", walletTotal).
			With("max_per_wallet", cfg.MaxPerWallet)
	}

	if user != nil {
		elapsed := req.Now - user.LastPurchaseTime
		if elapsed < cfg.MinTimeBetweenPurchases {
			return nil, ErrTooSoonSinceLastPurchase.
				With("elapsed", elapsed).
				With("min_time_between_purchases", cfg.MinTimeBetweenPurchases)
		}
	}

	phaseSold, err := checkedAdd(phase.TokensSold, req.Quantity)
	if err != nil {
		return nil, err
	}
	if phaseSold > phase.TokensAllocated {
		return nil, ErrExceedsPhaseAllocation.
			With("phase", idx).
			With("remaining", phase.Remaining())
	}

	totalSold, err := checkedAdd(cfg.TokensSold, req.Quantity)
	if err != nil {
		return nil, err
	}
	if totalSold > cfg.TotalTokensForSale {
		return nil, ErrExceedsTotalSupply.
			With("tokens_sold", cfg.TokensSold).
			With("total_tokens_for_sale", cfg.TotalTokensForSale)
	}

	price, err := phase.UnitPrice(req.Currency)
	if err != nil {
		return nil, err
	}
	cost, err := Cost(phase, req.Quantity, req.Currency)
	if err != nil {
		return nil, err
	}

	// Spend accumulators must not overflow either.
	if user != nil {
		spent := user.TotalSpentNative
		if req.Currency == CurrencyStable {
			spent = user.TotalSpentStable
		}
		if _, err := checkedAdd(spent, cost); err != nil {
			return nil, err
		}
	}

	return &PurchaseReceipt{
		Buyer:          req.Buyer,
		Phase:          idx,
		Quantity:       req.Quantity,
		Currency:       req.Currency,
		Cost:           cost,
		UnitPrice:      price,
		CreatedRecord:  user == nil,
		TotalPurchased: walletTotal,
		PhaseSold:      phaseSold,
		TokensSold:     totalSold,
		PurchasedAt:    req.Now,
	}, nil
}

// ApplyPurchase writes a planned receipt into cfg and the buyer record.
// When user is nil a new record is returned; otherwise user is updated in
// place and returned. The receipt must come from PlanPurchase on the same
// cfg and user.
func ApplyPurchase(cfg *Config, user *UserPurchase, r *PurchaseReceipt) *UserPurchase {
	if user == nil {
		user = &UserPurchase{Owner: r.Buyer}
	}
	cfg.Phases[r.Phase].TokensSold = r.PhaseSold
	cfg.TokensSold = r.TokensSold

	user.TotalPurchased = r.TotalPurchased
	switch r.Currency {
	case CurrencyNative:
		user.TotalSpentNative += r.Cost
	case CurrencyStable:
		user.TotalSpentStable += r.Cost
	}
	user.LastPurchaseTime = r.PurchasedAt
	return user
}
