package domain

import "time"

// FundingAccount is one signing account available for purchases.
// Balance bookkeeping lives here; all concurrent mutation is serialized
// by the wallet pool, never done directly by callers.
type FundingAccount struct {
	Ref        string  // base58 pubkey, opaque handle to the signing key
	Index      int     // 1-based position in configuration
	BalanceSOL float64 // last observed total balance
	FeeReserve float64 // withheld for network fees, never spent on purchases
	Reserved   bool    // true while a plan's legs are in flight for this account
	TradeCount int     // committed purchases over process lifetime
	LastUsed   time.Time
}

// Spendable returns the balance available for purchases after the fee reserve.
func (a *FundingAccount) Spendable() float64 {
	s := a.BalanceSOL - a.FeeReserve
	if s < 0 {
		return 0
	}
	return s
}

// CanFund reports whether the account can cover amount on top of its reserve.
func (a *FundingAccount) CanFund(amount float64) bool {
	return a.Spendable() >= amount
}
