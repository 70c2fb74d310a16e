package lend

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lendbook/core/events"
	"lendbook/core/types"
	nativecommon "lendbook/native/common"
)

// State is the persistence surface the engine mutates. Offers and loans are
// arenas keyed by monotonically increasing ids; records are only ever marked
// retired, never removed.
type State interface {
	OfferGet(id uint64) (*Offer, bool)
	OfferPut(*Offer) error
	NextOfferID() (uint64, error)
	LoanGet(id uint64) (*Loan, bool)
	LoanPut(*Loan) error
	NextLoanID() (uint64, error)
}

// TokenLedger is the fungible stable-token collaborator. TransferFrom
// failures must abort the whole operation.
type TokenLedger interface {
	BalanceOf(account common.Address) *big.Int
	Allowance(owner, spender common.Address) *big.Int
	TransferFrom(from, to common.Address, amount *big.Int) error
}

// PositionLedger is the semi-fungible outcome-token collaborator holding the
// collateral positions.
type PositionLedger interface {
	BalanceOf(account common.Address, positionID *big.Int) *big.Int
	IsApprovedForAll(owner, operator common.Address) bool
	SafeTransferFrom(from, to common.Address, positionID, amount *big.Int, data []byte) error
}

// WalletDeriver resolves the proxy wallet for an account when an operation
// opts into proxy addressing.
type WalletDeriver interface {
	ProxyAddress(owner common.Address) common.Address
}

type lendEvent struct {
	evt *types.Event
}

func (e lendEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e lendEvent) Event() *types.Event { return e.evt }

// Engine owns the offer book and loan ledger state machine. It performs no
// locking of its own: the host serialises calls, so every operation is
// atomic with respect to all others. All validation precedes collaborator
// transfers, and ledger writes commit only after transfers succeed, so a
// re-entrant collaborator can only ever observe the pre-operation state.
type Engine struct {
	state        State
	token        TokenLedger
	positions    PositionLedger
	wallets      WalletDeriver
	escrow       common.Address
	feeRecipient common.Address
	emitter      events.Emitter
	pauses       nativecommon.PauseView
	nowFn        func() int64
}

// NewEngine constructs a lend engine with a no-op emitter. The escrow address
// is the account that custodies collateral between accept and settlement.
func NewEngine(escrow, feeRecipient common.Address) *Engine {
	return &Engine{
		escrow:       escrow,
		feeRecipient: feeRecipient,
		emitter:      events.NoopEmitter{},
		nowFn:        func() int64 { return time.Now().Unix() },
	}
}

// SetState wires the engine to the persistence layer.
func (e *Engine) SetState(state State) { e.state = state }

// SetTokenLedger configures the stable-token collaborator.
func (e *Engine) SetTokenLedger(ledger TokenLedger) { e.token = ledger }

// SetPositionLedger configures the collateral collaborator.
func (e *Engine) SetPositionLedger(ledger PositionLedger) { e.positions = ledger }

// SetWalletDeriver configures proxy wallet resolution.
func (e *Engine) SetWalletDeriver(deriver WalletDeriver) { e.wallets = deriver }

// SetPauses wires the administrative pause view.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(lendEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	switch {
	case e == nil || e.state == nil:
		return errNilState
	case e.token == nil:
		return errNilToken
	case e.positions == nil:
		return errNilCollateral
	case e.feeRecipient == (common.Address{}):
		return errNilFeeReceiver
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

func (e *Engine) resolveWallet(owner common.Address, useProxy bool) common.Address {
	if !useProxy || e.wallets == nil {
		return owner
	}
	return e.wallets.ProxyAddress(owner)
}

func (e *Engine) loadActiveLoan(id uint64) (*Loan, error) {
	loan, ok := e.state.LoanGet(id)
	if !ok || !loan.Active() {
		return nil, errInactiveLoan
	}
	return loan.Clone(), nil
}

// GetLoan returns the stored loan record. Retired and never-created ids are
// indistinguishable: both report not found.
func (e *Engine) GetLoan(id uint64) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	loan, err := e.loadActiveLoan(id)
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// AmountOwedAsOf reports the compounded debt on an active loan at the given
// timestamp.
func (e *Engine) AmountOwedAsOf(id uint64, timestamp int64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	loan, err := e.loadActiveLoan(id)
	if err != nil {
		return nil, err
	}
	if timestamp < loan.StartTime {
		return nil, errPaybackBeforeStart
	}
	return AmountOwed(loan.LoanAmount, loan.Rate, timestamp-loan.StartTime), nil
}

// Accept draws a loan against an offer: it validates the fill against the
// chosen collateral position, computes the proportional principal, escrows
// the collateral and disburses the principal from the lender to the caller.
func (e *Engine) Accept(caller common.Address, offerID uint64, positionID, collateralAmount *big.Int, minimumDuration int64, useProxy bool) (*Loan, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	offer, ok := e.state.OfferGet(offerID)
	if !ok || offer.Cancelled() {
		return nil, errInvalidOffer
	}
	offer = offer.Clone()

	now := e.now()
	loanAmount, err := e.drawDown(offer, positionID, collateralAmount, minimumDuration, now)
	if err != nil {
		return nil, err
	}

	wallet := e.resolveWallet(caller, useProxy)
	if e.positions.BalanceOf(wallet, positionID).Cmp(collateralAmount) < 0 {
		return nil, errCollateralBalance
	}
	if !e.positions.IsApprovedForAll(wallet, e.escrow) {
		return nil, errCollateralApproval
	}
	if e.token.BalanceOf(offer.Lender).Cmp(loanAmount) < 0 {
		return nil, errLenderBalance
	}
	if e.token.Allowance(offer.Lender, e.escrow).Cmp(loanAmount) < 0 {
		return nil, errLenderAllowance
	}

	id, err := e.state.NextLoanID()
	if err != nil {
		return nil, err
	}
	loan := &Loan{
		ID:               id,
		Borrower:         caller,
		BorrowerWallet:   wallet,
		Lender:           offer.Lender,
		OfferID:          offer.ID,
		PositionID:       cloneBigInt(positionID),
		CollateralAmount: cloneBigInt(collateralAmount),
		LoanAmount:       loanAmount,
		Rate:             cloneBigInt(offer.Rate),
		StartTime:        now,
		MinimumDuration:  minimumDuration,
	}

	if err := e.positions.SafeTransferFrom(wallet, e.escrow, positionID, collateralAmount, nil); err != nil {
		return nil, err
	}
	if err := e.token.TransferFrom(offer.Lender, caller, loanAmount); err != nil {
		return nil, err
	}

	if err := e.state.OfferPut(offer); err != nil {
		return nil, err
	}
	if err := e.state.LoanPut(loan); err != nil {
		return nil, err
	}
	e.emit(NewLoanAcceptedEvent(loan))
	return loan.Clone(), nil
}

// Call opens the refinance auction on a loan. Only the lender may call, only
// once, and only after the minimum duration has elapsed. Interest accrual is
// frozen at the call instant for every subsequent settlement path.
func (e *Engine) Call(loanID uint64, caller common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	loan, err := e.loadActiveLoan(loanID)
	if err != nil {
		return err
	}
	if loan.Lender != caller {
		return errNotLender
	}
	if loan.Called() {
		return errAlreadyCalled
	}
	now := e.now()
	if now < loan.StartTime+loan.MinimumDuration {
		return errMinimumDuration
	}
	loan.CallTime = now
	if err := e.state.LoanPut(loan); err != nil {
		return err
	}
	e.emit(NewLoanCalledEvent(loan))
	return nil
}

// Repay settles a loan from the borrower. For an uncalled loan the supplied
// payback time may trail the current time by at most RepayBuffer; for a
// called loan it must equal the call time exactly, since the call froze the
// accrual basis.
func (e *Engine) Repay(loanID uint64, caller common.Address, paybackTime int64) error {
	if err := e.ready(); err != nil {
		return err
	}
	loan, err := e.loadActiveLoan(loanID)
	if err != nil {
		return err
	}
	if loan.Borrower != caller {
		return errNotBorrower
	}
	now := e.now()
	if loan.Called() {
		if paybackTime != loan.CallTime {
			return errPaybackNotCallTime
		}
	} else {
		if paybackTime > now {
			return errFuturePaybackTime
		}
		if paybackTime < now-RepayBuffer {
			return errStalePaybackTime
		}
		if paybackTime < loan.StartTime {
			return errPaybackBeforeStart
		}
	}

	owed := AmountOwed(loan.LoanAmount, loan.Rate, paybackTime-loan.StartTime)
	fee := ProtocolFee(loan.LoanAmount, owed)
	lenderAmount := new(big.Int).Sub(owed, fee)

	// Settlement takes two transfers, so the borrower must cover the full
	// owed amount before either runs.
	if e.token.BalanceOf(caller).Cmp(owed) < 0 {
		return errBorrowerBalance
	}
	if e.token.Allowance(caller, e.escrow).Cmp(owed) < 0 {
		return errBorrowerAllowance
	}

	if err := e.token.TransferFrom(caller, loan.Lender, lenderAmount); err != nil {
		return err
	}
	if fee.Sign() > 0 {
		if err := e.token.TransferFrom(caller, e.feeRecipient, fee); err != nil {
			return err
		}
	}
	if err := e.positions.SafeTransferFrom(e.escrow, loan.BorrowerWallet, loan.PositionID, loan.CollateralAmount, nil); err != nil {
		return err
	}

	if err := e.creditOfferCapacity(loan); err != nil {
		return err
	}
	settled := loan.Clone()
	loan.Borrower = common.Address{}
	if err := e.state.LoanPut(loan); err != nil {
		return err
	}
	e.emit(NewLoanRepaidEvent(settled, lenderAmount.String(), fee.String()))
	return nil
}

// Transfer refinances a called loan: any party may buy out the debt at a
// rate at or below the auction ceiling. The old record retires and a fresh
// loan is minted with the settled debt as its principal. A transfer at
// exactly CallTime+AuctionDuration is the last valid instant.
func (e *Engine) Transfer(loanID uint64, newLender common.Address, newRate *big.Int) (*Loan, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	loan, err := e.loadActiveLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !loan.Called() {
		return nil, errNotCalled
	}
	now := e.now()
	if now > loan.CallTime+AuctionDuration {
		return nil, errAuctionEnded
	}
	if newRate == nil || newRate.Cmp(One) < 0 || newRate.Cmp(MaxInterest) > 0 {
		return nil, errRateOutOfRange
	}
	if newRate.Cmp(CeilingRate(loan.CallTime, now)) > 0 {
		return nil, errRateAboveCeiling
	}

	owed := AmountOwed(loan.LoanAmount, loan.Rate, loan.CallTime-loan.StartTime)
	fee := ProtocolFee(loan.LoanAmount, owed)
	lenderAmount := new(big.Int).Sub(owed, fee)

	if e.token.BalanceOf(newLender).Cmp(owed) < 0 {
		return nil, errLenderBalance
	}
	if e.token.Allowance(newLender, e.escrow).Cmp(owed) < 0 {
		return nil, errLenderAllowance
	}

	id, err := e.state.NextLoanID()
	if err != nil {
		return nil, err
	}
	next := &Loan{
		ID:               id,
		Borrower:         loan.Borrower,
		BorrowerWallet:   loan.BorrowerWallet,
		Lender:           newLender,
		OfferID:          loan.OfferID,
		PositionID:       cloneBigInt(loan.PositionID),
		CollateralAmount: cloneBigInt(loan.CollateralAmount),
		LoanAmount:       owed,
		Rate:             cloneBigInt(newRate),
		StartTime:        now,
		IsTransferred:    true,
	}

	if err := e.token.TransferFrom(newLender, loan.Lender, lenderAmount); err != nil {
		return nil, err
	}
	if fee.Sign() > 0 {
		if err := e.token.TransferFrom(newLender, e.feeRecipient, fee); err != nil {
			return nil, err
		}
	}

	if err := e.creditOfferCapacity(loan); err != nil {
		return nil, err
	}
	retired := loan.Clone()
	loan.Borrower = common.Address{}
	if err := e.state.LoanPut(loan); err != nil {
		return nil, err
	}
	if err := e.state.LoanPut(next); err != nil {
		return nil, err
	}
	e.emit(NewLoanTransferredEvent(retired, next))
	return next.Clone(), nil
}

// Reclaim lets the lender seize the collateral once the auction has closed
// without a refinance. No payment changes hands.
func (e *Engine) Reclaim(loanID uint64, caller common.Address, useProxy bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	loan, err := e.loadActiveLoan(loanID)
	if err != nil {
		return err
	}
	if loan.Lender != caller {
		return errNotLender
	}
	if !loan.Called() {
		return errNotCalled
	}
	if e.now() <= loan.CallTime+AuctionDuration {
		return errAuctionActive
	}

	destination := e.resolveWallet(caller, useProxy)
	if err := e.positions.SafeTransferFrom(e.escrow, destination, loan.PositionID, loan.CollateralAmount, nil); err != nil {
		return err
	}

	reclaimed := loan.Clone()
	loan.Borrower = common.Address{}
	if err := e.state.LoanPut(loan); err != nil {
		return err
	}
	e.emit(NewLoanReclaimedEvent(reclaimed))
	return nil
}

// creditOfferCapacity releases the retiring loan's drawn principal back to a
// perpetual offer. Refinanced records never credit back: the original loan's
// retirement already did.
func (e *Engine) creditOfferCapacity(loan *Loan) error {
	if loan.IsTransferred {
		return nil
	}
	offer, ok := e.state.OfferGet(loan.OfferID)
	if !ok || !offer.Perpetual {
		return nil
	}
	offer = offer.Clone()
	e.releaseCapacity(offer, loan.LoanAmount)
	return e.state.OfferPut(offer)
}
