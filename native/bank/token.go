package bank

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"lendbook/storage"
)

// Token is an in-process fungible-asset ledger satisfying the lend engine's
// TokenLedger collaborator. Balances and allowances persist through the
// shared key-value store so a restart does not lose positions. The operator
// address is the protocol account whose allowance is spent on TransferFrom,
// mirroring how the on-chain asset contract would see the protocol as
// msg.sender.
type Token struct {
	mu       sync.Mutex
	db       storage.Database
	operator common.Address
}

// NewToken constructs a token ledger bound to the protocol operator address.
func NewToken(db storage.Database, operator common.Address) *Token {
	return &Token{db: db, operator: operator}
}

func tokenBalanceKey(account common.Address) []byte {
	return []byte(fmt.Sprintf("bank/token/balance/%s", account.Hex()))
}

func tokenAllowanceKey(owner, spender common.Address) []byte {
	return []byte(fmt.Sprintf("bank/token/allowance/%s/%s", owner.Hex(), spender.Hex()))
}

func (t *Token) read(key []byte) *big.Int {
	raw, err := t.db.Get(key)
	if err != nil {
		return big.NewInt(0)
	}
	value, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return big.NewInt(0)
	}
	return value
}

func (t *Token) write(key []byte, value *big.Int) error {
	return t.db.Put(key, []byte(value.String()))
}

// BalanceOf returns the account's token balance.
func (t *Token) BalanceOf(account common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.read(tokenBalanceKey(account))
}

// Allowance returns the amount the spender may move on the owner's behalf.
func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.read(tokenAllowanceKey(owner, spender))
}

// Approve sets the spender's allowance over the owner's balance.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("bank: approve amount must be non-negative")
	}
	return t.write(tokenAllowanceKey(owner, spender), amount)
}

// Mint credits newly issued tokens to the account.
func (t *Token) Mint(account common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("bank: mint amount must be positive")
	}
	balance := t.read(tokenBalanceKey(account))
	return t.write(tokenBalanceKey(account), balance.Add(balance, amount))
}

// TransferFrom moves tokens between accounts, spending the operator's
// allowance when the source is a third party. Failure leaves both balances
// untouched.
func (t *Token) TransferFrom(from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("bank: transfer amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromBalance := t.read(tokenBalanceKey(from))
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("bank: insufficient balance")
	}
	if from != t.operator {
		allowance := t.read(tokenAllowanceKey(from, t.operator))
		if allowance.Cmp(amount) < 0 {
			return fmt.Errorf("bank: insufficient allowance")
		}
		if err := t.write(tokenAllowanceKey(from, t.operator), allowance.Sub(allowance, amount)); err != nil {
			return err
		}
	}
	toBalance := t.read(tokenBalanceKey(to))
	if err := t.write(tokenBalanceKey(from), fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	return t.write(tokenBalanceKey(to), toBalance.Add(toBalance, amount))
}
