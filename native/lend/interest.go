package lend

import "math/big"

// AmountOwed computes the compounded debt for a principal accruing at a
// per-second fixed-point rate over the elapsed duration. With zero elapsed
// time the principal is returned unchanged. Callers guarantee the elapsed
// duration is never negative.
func AmountOwed(principal, rate *big.Int, elapsed int64) *big.Int {
	if principal == nil {
		return big.NewInt(0)
	}
	if rate == nil || elapsed <= 0 {
		return cloneBigInt(principal)
	}
	return wadMul(principal, powWad(rate, elapsed))
}

// ProtocolFee returns the protocol's cut of loan yield: FeePercent of the
// amount owed beyond principal, floored. Non-positive yield carries no fee,
// which also shields a zero-duration settlement from underflow.
func ProtocolFee(principal, amountOwed *big.Int) *big.Int {
	if principal == nil || amountOwed == nil {
		return big.NewInt(0)
	}
	if amountOwed.Cmp(principal) <= 0 {
		return big.NewInt(0)
	}
	yield := new(big.Int).Sub(amountOwed, principal)
	fee := yield.Mul(yield, big.NewInt(FeePercent))
	return fee.Quo(fee, big.NewInt(OneHundredPercent))
}
