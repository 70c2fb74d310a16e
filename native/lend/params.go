package lend

import "math/big"

const moduleName = "lend"

var (
	// One is the fixed-point scale. A per-second rate equal to One compounds
	// to zero interest.
	One = mustBigInt("1000000000000000000")
	// MaxInterest caps the per-second rate an offer or refinance may carry.
	MaxInterest = new(big.Int).Mul(One, big.NewInt(2))
	// maxRateDelta is the extra rate the auction ceiling ramps through over a
	// full auction window.
	maxRateDelta = new(big.Int).Sub(MaxInterest, One)
)

const (
	// FeePercent is the protocol's share of loan yield.
	FeePercent = 10
	// OneHundredPercent is the denominator for FeePercent.
	OneHundredPercent = 100
	// AuctionDuration is the refinance auction window in seconds. A transfer
	// at exactly CallTime+AuctionDuration is the last valid instant; reclaim
	// becomes possible strictly after it.
	AuctionDuration int64 = 86_400
	// RepayBuffer bounds how far a repay timestamp may trail the current time
	// for an uncalled loan. It absorbs clock drift, not late payment.
	RepayBuffer int64 = 60
)
