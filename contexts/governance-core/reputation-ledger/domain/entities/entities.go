package entities

import "agora/contracts/governance"

// Account is the read-side view of one address across the real and passive
// ledgers.
type Account struct {
	Address        string
	Balance        governance.Amount
	Stake          governance.Amount
	PassiveBalance governance.Amount
}

// Free is the spendable part of the balance: nominal balance minus the
// portion held by active stakes.
func (a Account) Free() governance.Amount {
	if a.Stake.GTE(a.Balance) {
		return governance.ZeroAmount()
	}
	return a.Balance.Sub(a.Stake)
}
