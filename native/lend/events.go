package lend

import (
	"strconv"

	"lendbook/core/types"
)

const (
	EventTypeOfferCreated    = "lend.offer.created"
	EventTypeOfferCancelled  = "lend.offer.cancelled"
	EventTypeLoanAccepted    = "lend.loan.accepted"
	EventTypeLoanCalled      = "lend.loan.called"
	EventTypeLoanRepaid      = "lend.loan.repaid"
	EventTypeLoanTransferred = "lend.loan.transferred"
	EventTypeLoanReclaimed   = "lend.loan.reclaimed"
)

// NewOfferCreatedEvent returns the canonical payload for a new offer.
func NewOfferCreatedEvent(o *Offer) *types.Event {
	attrs := offerAttributes(o)
	return &types.Event{Type: EventTypeOfferCreated, Attributes: attrs}
}

// NewOfferCancelledEvent returns the payload emitted when a lender cancels
// an offer.
func NewOfferCancelledEvent(id uint64) *types.Event {
	return &types.Event{Type: EventTypeOfferCancelled, Attributes: map[string]string{
		"offerId": strconv.FormatUint(id, 10),
	}}
}

// NewLoanAcceptedEvent returns the payload for a freshly drawn loan.
func NewLoanAcceptedEvent(l *Loan) *types.Event {
	return &types.Event{Type: EventTypeLoanAccepted, Attributes: loanAttributes(l)}
}

// NewLoanCalledEvent returns the payload emitted when a lender calls a loan.
func NewLoanCalledEvent(l *Loan) *types.Event {
	return &types.Event{Type: EventTypeLoanCalled, Attributes: loanAttributes(l)}
}

// NewLoanRepaidEvent returns the payload emitted on settlement, carrying the
// amounts paid to the lender and the fee recipient.
func NewLoanRepaidEvent(l *Loan, lenderAmount, fee string) *types.Event {
	attrs := loanAttributes(l)
	attrs["lenderAmount"] = lenderAmount
	attrs["fee"] = fee
	return &types.Event{Type: EventTypeLoanRepaid, Attributes: attrs}
}

// NewLoanTransferredEvent returns the payload emitted when a refinance
// retires one loan record and mints its successor.
func NewLoanTransferredEvent(old, next *Loan) *types.Event {
	attrs := loanAttributes(next)
	attrs["previousLoanId"] = strconv.FormatUint(old.ID, 10)
	attrs["previousLender"] = old.Lender.Hex()
	return &types.Event{Type: EventTypeLoanTransferred, Attributes: attrs}
}

// NewLoanReclaimedEvent returns the payload emitted when a lender seizes the
// collateral after an auction closes unfilled.
func NewLoanReclaimedEvent(l *Loan) *types.Event {
	return &types.Event{Type: EventTypeLoanReclaimed, Attributes: loanAttributes(l)}
}

func offerAttributes(o *Offer) map[string]string {
	attrs := make(map[string]string)
	if o == nil {
		return attrs
	}
	attrs["offerId"] = strconv.FormatUint(o.ID, 10)
	attrs["lender"] = o.Lender.Hex()
	attrs["loanAmount"] = cloneBigInt(o.LoanAmount).String()
	attrs["rate"] = cloneBigInt(o.Rate).String()
	attrs["perpetual"] = strconv.FormatBool(o.Perpetual)
	return attrs
}

func loanAttributes(l *Loan) map[string]string {
	attrs := make(map[string]string)
	if l == nil {
		return attrs
	}
	attrs["loanId"] = strconv.FormatUint(l.ID, 10)
	attrs["offerId"] = strconv.FormatUint(l.OfferID, 10)
	attrs["borrower"] = l.Borrower.Hex()
	attrs["lender"] = l.Lender.Hex()
	attrs["positionId"] = cloneBigInt(l.PositionID).String()
	attrs["collateralAmount"] = cloneBigInt(l.CollateralAmount).String()
	attrs["loanAmount"] = cloneBigInt(l.LoanAmount).String()
	attrs["rate"] = cloneBigInt(l.Rate).String()
	return attrs
}
