package presale

import "fmt"

// InvariantViolation describes a broken accounting invariant.
type InvariantViolation struct {
	Name   string
	Detail string
}

func (v InvariantViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Name, v.Detail)
}

// CheckInvariants verifies the supply and vesting invariants across the
// config and every purchase record at time now. It returns nil when all hold.
func CheckInvariants(cfg *Config, users []UserPurchase, now int64) []InvariantViolation {
	var out []InvariantViolation

	var phaseSum uint64
	for i, p := range cfg.Phases {
		if p.TokensSold > p.TokensAllocated {
			out = append(out, InvariantViolation{
				Name:   "phase_allocation",
				Detail: fmt.Sprintf("phase %d sold %d of %d", i, p.TokensSold, p.TokensAllocated),
			})
		}
		phaseSum += p.TokensSold
	}
	if phaseSum != cfg.TokensSold {
		out = append(out, InvariantViolation{
			Name:   "phase_sum",
			Detail: fmt.Sprintf("sum(phase.tokens_sold)=%d tokens_sold=%d", phaseSum, cfg.TokensSold),
		})
	}
	if cfg.TokensSold > cfg.TotalTokensForSale {
		out = append(out, InvariantViolation{
			Name:   "total_supply",
			Detail: fmt.Sprintf("tokens_sold=%d total=%d", cfg.TokensSold, cfg.TotalTokensForSale),
		})
	}

	var purchased uint64
	for _, u := range users {
		purchased += u.TotalPurchased
		vested := cfg.VestedAmount(&u, now)
		if u.ClaimedAmount > vested || vested > u.TotalPurchased {
			out = append(out, InvariantViolation{
				Name: "vesting_bound",
				Detail: fmt.Sprintf("%s claimed=%d vested=%d purchased=%d",
					u.Owner, u.ClaimedAmount, vested, u.TotalPurchased),
			})
		}
	}
	if purchased != cfg.TokensSold {
		out = append(out, InvariantViolation{
			Name:   "ledger_sum",
			Detail: fmt.Sprintf("sum(total_purchased)=%d tokens_sold=%d", purchased, cfg.TokensSold),
		})
	}
	return out
}
