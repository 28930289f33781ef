package presale

// ResolvePhase returns the index of the phase active at t.
//
// A phase is active for StartTime <= t < EndTime. Gaps between phases, times
// before the first phase and times after the last one are all
// NoActivePhase. If phases overlap, the first match in list order wins.
func ResolvePhase(phases []Phase, t int64) (int, error) {
	for i, p := range phases {
		if p.StartTime <= t && t < p.EndTime {
			return i, nil
		}
	}
	return -1, ErrNoActivePhase.With("time", t)
}

// CurrentPhase is ResolvePhase over the config's schedule.
func (c *Config) CurrentPhase(t int64) (int, error) {
	return ResolvePhase(c.Phases[:], t)
}

// Cost returns quantity * unit price of the phase in the given currency.
func Cost(p Phase, quantity uint64, c Currency) (uint64, error) {
	price, err := p.UnitPrice(c)
	if err != nil {
		return 0, err
	}
	return checkedMul(quantity, price)
}
