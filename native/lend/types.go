package lend

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Offer is a standing lender commitment to fund loans against a basket of
// outcome-token collateral, up to a capacity. Offers are never deleted; a
// cancelled offer keeps its record with the lender zeroed so historical
// lookups stay stable.
type Offer struct {
	// ID is the monotonically assigned offer identifier.
	ID uint64
	// Lender owns the offer. The zero address marks a cancelled offer and can
	// never match a real caller.
	Lender common.Address
	// LoanAmount is the maximum principal offered in total.
	LoanAmount *big.Int
	// Rate is the per-second compounding multiplier, in (One, MaxInterest].
	Rate *big.Int
	// MinimumLoanAmount is the smallest single draw permitted.
	MinimumLoanAmount *big.Int
	// Duration is the window in seconds after StartTime during which draws
	// are permitted.
	Duration int64
	// StartTime records offer creation.
	StartTime int64
	// BorrowedAmount is the running total drawn against the offer. It never
	// exceeds LoanAmount.
	BorrowedAmount *big.Int
	// PositionIDs and CollateralAmounts are parallel vectors declaring, per
	// eligible collateral position, the cap of collateral the lender accepts.
	// Each cap also parameterises the proportional draw ratio for its slot.
	PositionIDs       []*big.Int
	CollateralAmounts []*big.Int
	// Perpetual offers regain capacity when loans drawn from them retire.
	Perpetual bool
}

// Cancelled reports whether the offer has been terminated by its lender.
func (o *Offer) Cancelled() bool {
	return o == nil || o.Lender == (common.Address{})
}

// Clone returns a deep copy so callers can mutate without affecting the
// stored instance.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	clone := *o
	clone.LoanAmount = cloneBigInt(o.LoanAmount)
	clone.Rate = cloneBigInt(o.Rate)
	clone.MinimumLoanAmount = cloneBigInt(o.MinimumLoanAmount)
	clone.BorrowedAmount = cloneBigInt(o.BorrowedAmount)
	clone.PositionIDs = cloneBigInts(o.PositionIDs)
	clone.CollateralAmounts = cloneBigInts(o.CollateralAmounts)
	return &clone
}

// Loan is an active or retired borrow record pairing escrowed collateral with
// owed principal and interest terms. A refinance mints a fresh record and
// retires the old one rather than swapping the lender in place.
type Loan struct {
	// ID is the monotonically assigned loan identifier.
	ID uint64
	// Borrower initiated the loan. The zero address is the shared sentinel
	// for "retired" and "never existed"; the two are indistinguishable.
	Borrower common.Address
	// BorrowerWallet holds the collateral and receives it back on repayment.
	// It differs from Borrower when a proxy wallet is in use.
	BorrowerWallet common.Address
	// Lender is the current rights-holder to repayment.
	Lender common.Address
	// OfferID links back to the originating offer for perpetual-capacity
	// bookkeeping.
	OfferID uint64
	// PositionID and CollateralAmount identify the escrowed collateral.
	PositionID       *big.Int
	CollateralAmount *big.Int
	// LoanAmount is this record's principal: the drawn amount for an
	// original loan, or the settled debt for a refinance.
	LoanAmount *big.Int
	// Rate is the per-second compounding multiplier for this record.
	Rate *big.Int
	// StartTime is when this record began accruing interest.
	StartTime int64
	// MinimumDuration protects the borrower: the loan cannot be called
	// before StartTime+MinimumDuration. Zero for refinanced loans.
	MinimumDuration int64
	// CallTime is zero while uncalled, otherwise the instant interest
	// accrual was frozen and the refinance auction opened.
	CallTime int64
	// IsTransferred marks loans minted by a refinance so the original
	// offer's capacity is never credited back twice.
	IsTransferred bool
}

// Active reports whether the loan record still governs escrowed collateral.
func (l *Loan) Active() bool {
	return l != nil && l.Borrower != (common.Address{})
}

// Called reports whether the loan is inside or past its auction window.
func (l *Loan) Called() bool {
	return l != nil && l.CallTime != 0
}

// Clone returns a deep copy of the loan record.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	clone.PositionID = cloneBigInt(l.PositionID)
	clone.CollateralAmount = cloneBigInt(l.CollateralAmount)
	clone.LoanAmount = cloneBigInt(l.LoanAmount)
	clone.Rate = cloneBigInt(l.Rate)
	return &clone
}

func cloneBigInts(values []*big.Int) []*big.Int {
	if values == nil {
		return nil
	}
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = cloneBigInt(v)
	}
	return out
}
