package lend

import "errors"

var (
	errNilState       = errors.New("lend engine: state not configured")
	errNilCollateral  = errors.New("lend engine: position ledger not configured")
	errNilToken       = errors.New("lend engine: token ledger not configured")
	errNilFeeReceiver = errors.New("lend engine: fee recipient not configured")

	// Offer creation.
	errZeroDuration       = errors.New("lend engine: offer duration must be nonzero")
	errZeroLender         = errors.New("lend engine: lender address required")
	errLenderBalance      = errors.New("lend engine: lender balance below loan amount")
	errLenderAllowance    = errors.New("lend engine: lender allowance below loan amount")
	errRateOutOfRange     = errors.New("lend engine: rate outside (One, MaxInterest]")
	errZeroLoanAmount     = errors.New("lend engine: loan amount must be nonzero")
	errNoPositions        = errors.New("lend engine: at least one collateral position required")
	errVectorLength       = errors.New("lend engine: collateral amounts must match position ids")
	errZeroCollateralCap  = errors.New("lend engine: collateral amounts must be nonzero")
	errMinimumAboveAmount = errors.New("lend engine: minimum loan amount exceeds offer amount")

	// Offer lifecycle.
	errNotLender    = errors.New("lend engine: caller is not the offer lender")
	errInvalidOffer = errors.New("lend engine: offer not found or cancelled")

	// Draw-down.
	errPositionNotEligible = errors.New("lend engine: position not eligible for offer")
	errCollateralCap       = errors.New("lend engine: collateral exceeds position cap")
	errOutsideOfferWindow  = errors.New("lend engine: minimum duration exceeds offer window")
	errBelowMinimumLoan    = errors.New("lend engine: draw below offer minimum loan amount")
	errExceedsOfferAmount  = errors.New("lend engine: draw exceeds offer loan amount")
	errCapacityExhausted   = errors.New("lend engine: offer capacity exhausted")

	// Loan lifecycle.
	errInactiveLoan       = errors.New("lend engine: loan not found or retired")
	errNotBorrower        = errors.New("lend engine: caller is not the loan borrower")
	errBorrowerBalance    = errors.New("lend engine: borrower balance below amount owed")
	errBorrowerAllowance  = errors.New("lend engine: borrower allowance below amount owed")
	errAlreadyCalled      = errors.New("lend engine: loan already called")
	errNotCalled          = errors.New("lend engine: loan has not been called")
	errMinimumDuration    = errors.New("lend engine: loan within minimum duration")
	errStalePaybackTime   = errors.New("lend engine: payback time too far in the past")
	errFuturePaybackTime  = errors.New("lend engine: payback time in the future")
	errPaybackBeforeStart = errors.New("lend engine: payback time before loan start")
	errPaybackNotCallTime = errors.New("lend engine: payback time must equal call time")
	errAuctionEnded       = errors.New("lend engine: refinance auction has ended")
	errAuctionActive      = errors.New("lend engine: refinance auction still active")
	errRateAboveCeiling   = errors.New("lend engine: rate above current auction ceiling")

	// Collateral checks.
	errCollateralBalance  = errors.New("lend engine: insufficient collateral balance")
	errCollateralApproval = errors.New("lend engine: collateral transfers not approved")
)
