package crypto

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestProxyAddressDeterministic(t *testing.T) {
	factory := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	initCodeHash := common.HexToHash("0x69b3e2b7a11cf89291cbe7e68eb3d74e0d851ff6f9b6e0cd0a233e4786a35d09")
	owner := common.HexToAddress("0x000000000000000000000000000000000000000a")

	deriver := NewDeriver(factory, initCodeHash)
	first := deriver.ProxyAddress(owner)
	second := deriver.ProxyAddress(owner)
	if first != second {
		t.Fatalf("derivation not deterministic: %s vs %s", first, second)
	}
	if first == (common.Address{}) {
		t.Fatal("derived the zero address")
	}
	if first == owner {
		t.Fatal("proxy wallet must differ from its owner")
	}
}

func TestProxyAddressVariesWithInputs(t *testing.T) {
	factory := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	otherFactory := common.HexToAddress("0x00000000000000000000000000000000000000f2")
	initCodeHash := common.HexToHash("0x69b3e2b7a11cf89291cbe7e68eb3d74e0d851ff6f9b6e0cd0a233e4786a35d09")
	owner := common.HexToAddress("0x000000000000000000000000000000000000000a")
	otherOwner := common.HexToAddress("0x000000000000000000000000000000000000000b")

	base := NewDeriver(factory, initCodeHash).ProxyAddress(owner)
	if NewDeriver(factory, initCodeHash).ProxyAddress(otherOwner) == base {
		t.Fatal("different owners must derive different wallets")
	}
	if NewDeriver(otherFactory, initCodeHash).ProxyAddress(owner) == base {
		t.Fatal("different factories must derive different wallets")
	}
}
