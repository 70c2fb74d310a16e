package bank

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"lendbook/storage"
)

var (
	operatorAddr = common.BytesToAddress([]byte{0xEE})
	aliceAddr    = common.BytesToAddress([]byte{0x0A})
	bobAddr      = common.BytesToAddress([]byte{0x0B})
)

func TestTokenMintAndBalance(t *testing.T) {
	token := NewToken(storage.NewMemDB(), operatorAddr)
	if err := token.Mint(aliceAddr, big.NewInt(750)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := token.Mint(aliceAddr, big.NewInt(250)); err != nil {
		t.Fatalf("second mint: %v", err)
	}
	if got := token.BalanceOf(aliceAddr); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected 1000, got %s", got)
	}
	if got := token.BalanceOf(bobAddr); got.Sign() != 0 {
		t.Fatalf("expected zero balance, got %s", got)
	}
}

func TestTokenMintRejectsNonPositive(t *testing.T) {
	token := NewToken(storage.NewMemDB(), operatorAddr)
	if err := token.Mint(aliceAddr, big.NewInt(0)); err == nil {
		t.Fatal("expected zero mint to fail")
	}
	if err := token.Mint(aliceAddr, nil); err == nil {
		t.Fatal("expected nil mint to fail")
	}
}

func TestTokenTransferFromSpendsOperatorAllowance(t *testing.T) {
	token := NewToken(storage.NewMemDB(), operatorAddr)
	if err := token.Mint(aliceAddr, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := token.Approve(aliceAddr, operatorAddr, big.NewInt(600)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := token.TransferFrom(aliceAddr, bobAddr, big.NewInt(400)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := token.BalanceOf(bobAddr); got.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("expected bob 400, got %s", got)
	}
	if got := token.Allowance(aliceAddr, operatorAddr); got.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("expected remaining allowance 200, got %s", got)
	}
	// The remaining allowance no longer covers another 400.
	if err := token.TransferFrom(aliceAddr, bobAddr, big.NewInt(400)); err == nil {
		t.Fatal("expected allowance exhaustion to fail the transfer")
	}
}

func TestTokenTransferFromOperatorNeedsNoAllowance(t *testing.T) {
	token := NewToken(storage.NewMemDB(), operatorAddr)
	if err := token.Mint(operatorAddr, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := token.TransferFrom(operatorAddr, aliceAddr, big.NewInt(100)); err != nil {
		t.Fatalf("operator transfer: %v", err)
	}
	if got := token.BalanceOf(aliceAddr); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected 100, got %s", got)
	}
}

func TestTokenTransferFromInsufficientBalance(t *testing.T) {
	token := NewToken(storage.NewMemDB(), operatorAddr)
	if err := token.Mint(aliceAddr, big.NewInt(50)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := token.Approve(aliceAddr, operatorAddr, big.NewInt(100)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := token.TransferFrom(aliceAddr, bobAddr, big.NewInt(100)); err == nil {
		t.Fatal("expected insufficient balance to fail")
	}
	if got := token.BalanceOf(aliceAddr); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("failed transfer must not move funds, got %s", got)
	}
	if got := token.Allowance(aliceAddr, operatorAddr); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("failed transfer must not spend allowance, got %s", got)
	}
}

func TestTokenZeroTransferIsNoop(t *testing.T) {
	token := NewToken(storage.NewMemDB(), operatorAddr)
	if err := token.TransferFrom(aliceAddr, bobAddr, big.NewInt(0)); err != nil {
		t.Fatalf("zero transfer: %v", err)
	}
}

func TestTokenStatePersistsAcrossInstances(t *testing.T) {
	db := storage.NewMemDB()
	first := NewToken(db, operatorAddr)
	if err := first.Mint(aliceAddr, big.NewInt(321)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	second := NewToken(db, operatorAddr)
	if got := second.BalanceOf(aliceAddr); got.Cmp(big.NewInt(321)) != 0 {
		t.Fatalf("expected persisted balance 321, got %s", got)
	}
}
