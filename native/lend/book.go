package lend

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CreateOffer records a standing liquidity commitment from the lender. The
// validation ladder fails fast with a distinct condition per check; ids are
// assigned sequentially and never reused.
func (e *Engine) CreateOffer(lender common.Address, loanAmount, rate *big.Int, positionIDs, collateralAmounts []*big.Int, minimumLoanAmount *big.Int, duration int64, perpetual bool) (*Offer, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if duration == 0 {
		return nil, errZeroDuration
	}
	// The zero address is the cancellation sentinel; minting an offer with it
	// would create a record that is born cancelled.
	if lender == (common.Address{}) {
		return nil, errZeroLender
	}
	if loanAmount == nil {
		return nil, errZeroLoanAmount
	}
	if e.token.BalanceOf(lender).Cmp(loanAmount) < 0 {
		return nil, errLenderBalance
	}
	if e.token.Allowance(lender, e.escrow).Cmp(loanAmount) < 0 {
		return nil, errLenderAllowance
	}
	if rate == nil || rate.Cmp(One) <= 0 || rate.Cmp(MaxInterest) > 0 {
		return nil, errRateOutOfRange
	}
	if loanAmount.Sign() == 0 {
		return nil, errZeroLoanAmount
	}
	if len(positionIDs) == 0 {
		return nil, errNoPositions
	}
	if len(collateralAmounts) != len(positionIDs) {
		return nil, errVectorLength
	}
	for _, amount := range collateralAmounts {
		if amount == nil || amount.Sign() == 0 {
			return nil, errZeroCollateralCap
		}
	}
	if minimumLoanAmount != nil && loanAmount.Cmp(minimumLoanAmount) < 0 {
		return nil, errMinimumAboveAmount
	}

	id, err := e.state.NextOfferID()
	if err != nil {
		return nil, err
	}
	offer := &Offer{
		ID:                id,
		Lender:            lender,
		LoanAmount:        cloneBigInt(loanAmount),
		Rate:              cloneBigInt(rate),
		MinimumLoanAmount: cloneBigInt(minimumLoanAmount),
		Duration:          duration,
		StartTime:         e.now(),
		BorrowedAmount:    big.NewInt(0),
		PositionIDs:       cloneBigInts(positionIDs),
		CollateralAmounts: cloneBigInts(collateralAmounts),
		Perpetual:         perpetual,
	}
	if err := e.state.OfferPut(offer); err != nil {
		return nil, err
	}
	e.emit(NewOfferCreatedEvent(offer))
	return offer.Clone(), nil
}

// CancelOffer terminates an offer by zeroing its lender. The sentinel lender
// never equals a real caller, so a second cancellation attempt fails with the
// same not-lender condition as a genuinely unauthorized one.
func (e *Engine) CancelOffer(id uint64, caller common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	offer, ok := e.state.OfferGet(id)
	if !ok || offer.Lender != caller {
		return errNotLender
	}
	offer = offer.Clone()
	offer.Lender = common.Address{}
	if err := e.state.OfferPut(offer); err != nil {
		return err
	}
	e.emit(NewOfferCancelledEvent(id))
	return nil
}

// GetOffer returns the stored offer record, including its position and
// collateral cap vectors.
func (e *Engine) GetOffer(id uint64) (*Offer, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	offer, ok := e.state.OfferGet(id)
	if !ok {
		return nil, errInvalidOffer
	}
	return offer.Clone(), nil
}

// drawDown validates a fill against the offer and records the drawn amount.
// The loan amount scales proportionally within the matched collateral slot's
// declared cap, not the offer's aggregate cap.
func (e *Engine) drawDown(offer *Offer, positionID, collateralAmount *big.Int, minimumDuration, now int64) (*big.Int, error) {
	slot := -1
	for i, id := range offer.PositionIDs {
		if id != nil && positionID != nil && id.Cmp(positionID) == 0 {
			slot = i
			break
		}
	}
	if slot < 0 {
		return nil, errPositionNotEligible
	}
	cap := offer.CollateralAmounts[slot]
	if collateralAmount == nil || collateralAmount.Sign() == 0 || collateralAmount.Cmp(cap) > 0 {
		return nil, errCollateralCap
	}
	if now+minimumDuration > offer.StartTime+offer.Duration {
		return nil, errOutsideOfferWindow
	}

	loanAmount := new(big.Int).Mul(collateralAmount, offer.LoanAmount)
	loanAmount.Quo(loanAmount, cap)
	if loanAmount.Cmp(offer.MinimumLoanAmount) < 0 {
		return nil, errBelowMinimumLoan
	}
	if loanAmount.Cmp(offer.LoanAmount) > 0 {
		return nil, errExceedsOfferAmount
	}
	borrowed := new(big.Int).Add(offer.BorrowedAmount, loanAmount)
	if borrowed.Cmp(offer.LoanAmount) > 0 {
		return nil, errCapacityExhausted
	}
	offer.BorrowedAmount = borrowed
	return loanAmount, nil
}

// releaseCapacity credits drawn capacity back to a perpetual offer when one
// of its loans retires. The amount was previously added by drawDown, so the
// result cannot go negative under correct sequencing; the floor guard is
// kept anyway because the credit uses the retiring loan's original
// principal, which can diverge from the amount actually settled.
func (e *Engine) releaseCapacity(offer *Offer, amount *big.Int) {
	remaining := new(big.Int).Sub(offer.BorrowedAmount, amount)
	if remaining.Sign() < 0 {
		remaining = big.NewInt(0)
	}
	offer.BorrowedAmount = remaining
}
