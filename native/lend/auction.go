package lend

import "math/big"

// CeilingRate returns the maximum per-second rate a refinance may bid at the
// supplied instant. The ceiling ramps linearly from the no-interest baseline
// at the moment of calling to MaxInterest at the end of the auction window,
// so early bidders must offer cheap refinancing while a stalled auction can
// still clear at higher rates later.
func CeilingRate(callTime, now int64) *big.Int {
	elapsed := now - callTime
	if elapsed <= 0 {
		return cloneBigInt(One)
	}
	if elapsed > AuctionDuration {
		elapsed = AuctionDuration
	}
	extra := new(big.Int).Mul(maxRateDelta, big.NewInt(elapsed))
	extra.Quo(extra, big.NewInt(AuctionDuration))
	return extra.Add(One, extra)
}
