package bank

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"lendbook/storage"
)

// positionReceiverMagic is the acknowledgement a transfer target must return
// before the ledger credits it.
var positionReceiverMagic = [4]byte{0xf2, 0x3a, 0x6e, 0x61}

// PositionReceiver is implemented by contracts that accept inbound
// semi-fungible transfers.
type PositionReceiver interface {
	OnPositionReceived(operator, from common.Address, positionID, amount *big.Int, data []byte) ([4]byte, error)
}

// Positions is an in-process semi-fungible outcome-token ledger satisfying
// the lend engine's PositionLedger collaborator.
type Positions struct {
	mu        sync.Mutex
	db        storage.Database
	operator  common.Address
	approvals map[common.Address]map[common.Address]bool
	receivers map[common.Address]PositionReceiver
}

// NewPositions constructs a position ledger bound to the protocol operator.
func NewPositions(db storage.Database, operator common.Address) *Positions {
	return &Positions{
		db:        db,
		operator:  operator,
		approvals: make(map[common.Address]map[common.Address]bool),
		receivers: make(map[common.Address]PositionReceiver),
	}
}

func positionBalanceKey(account common.Address, positionID *big.Int) []byte {
	id := "0"
	if positionID != nil {
		id = positionID.String()
	}
	return []byte(fmt.Sprintf("bank/position/balance/%s/%s", account.Hex(), id))
}

func (p *Positions) read(key []byte) *big.Int {
	raw, err := p.db.Get(key)
	if err != nil {
		return big.NewInt(0)
	}
	value, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return big.NewInt(0)
	}
	return value
}

func (p *Positions) write(key []byte, value *big.Int) error {
	return p.db.Put(key, []byte(value.String()))
}

// BalanceOf returns the account's holding of the given position.
func (p *Positions) BalanceOf(account common.Address, positionID *big.Int) *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.read(positionBalanceKey(account, positionID))
}

// IsApprovedForAll reports whether the operator holds a blanket approval over
// the owner's positions.
func (p *Positions) IsApprovedForAll(owner, operator common.Address) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.approvals[owner][operator]
}

// SetApprovalForAll grants or revokes a blanket transfer approval.
func (p *Positions) SetApprovalForAll(owner, operator common.Address, approved bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.approvals[owner]
	if !ok {
		set = make(map[common.Address]bool)
		p.approvals[owner] = set
	}
	set[operator] = approved
}

// RegisterReceiver installs the transfer-acceptance callback for a contract
// address (the lend engine's escrow account).
func (p *Positions) RegisterReceiver(addr common.Address, receiver PositionReceiver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.receivers[addr] = receiver
}

// Mint credits freshly issued outcome tokens to the account.
func (p *Positions) Mint(account common.Address, positionID, amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("bank: mint amount must be positive")
	}
	balance := p.read(positionBalanceKey(account, positionID))
	return p.write(positionBalanceKey(account, positionID), balance.Add(balance, amount))
}

// SafeTransferFrom moves a position between accounts, requiring a blanket
// approval when the source is not the operator itself and invoking the
// target's acceptance callback when one is registered.
func (p *Positions) SafeTransferFrom(from, to common.Address, positionID, amount *big.Int, data []byte) error {
	p.mu.Lock()
	receiver := p.receivers[to]
	if amount == nil || amount.Sign() < 0 {
		p.mu.Unlock()
		return fmt.Errorf("bank: transfer amount must be non-negative")
	}
	if from != p.operator && !p.approvals[from][p.operator] {
		p.mu.Unlock()
		return fmt.Errorf("bank: transfer not approved")
	}
	fromBalance := p.read(positionBalanceKey(from, positionID))
	if fromBalance.Cmp(amount) < 0 {
		p.mu.Unlock()
		return fmt.Errorf("bank: insufficient position balance")
	}
	toBalance := p.read(positionBalanceKey(to, positionID))
	if err := p.write(positionBalanceKey(from, positionID), fromBalance.Sub(fromBalance, amount)); err != nil {
		p.mu.Unlock()
		return err
	}
	if err := p.write(positionBalanceKey(to, positionID), toBalance.Add(toBalance, amount)); err != nil {
		p.mu.Unlock()
		return err
	}
	p.mu.Unlock()

	// Callback runs outside the lock so a receiver may query the ledger. A
	// declined transfer is rolled back so failure leaves both balances
	// untouched.
	if receiver != nil {
		ack, err := receiver.OnPositionReceived(p.operator, from, positionID, amount, data)
		if err == nil && ack != positionReceiverMagic {
			err = fmt.Errorf("bank: transfer rejected by receiver")
		}
		if err != nil {
			p.rollback(from, to, positionID, amount)
			return err
		}
	}
	return nil
}

func (p *Positions) rollback(from, to common.Address, positionID, amount *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fromBalance := p.read(positionBalanceKey(from, positionID))
	toBalance := p.read(positionBalanceKey(to, positionID))
	_ = p.write(positionBalanceKey(to, positionID), toBalance.Sub(toBalance, amount))
	_ = p.write(positionBalanceKey(from, positionID), fromBalance.Add(fromBalance, amount))
}
