package crypto

import (
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Deriver computes deterministic proxy wallet addresses for protocol
// participants. The scheme mirrors a CREATE2 factory: the wallet address is a
// pure function of the factory address, the owner-derived salt and the proxy
// init code hash, so balance checks and transfers can target the wallet
// without it having been observed before.
type Deriver struct {
	factory      common.Address
	initCodeHash common.Hash
}

// NewDeriver constructs a Deriver for the given factory and init code hash.
func NewDeriver(factory common.Address, initCodeHash common.Hash) *Deriver {
	return &Deriver{factory: factory, initCodeHash: initCodeHash}
}

// ProxyAddress returns the proxy wallet address owned by the supplied account.
func (d *Deriver) ProxyAddress(owner common.Address) common.Address {
	salt := ethcrypto.Keccak256Hash(owner.Bytes())
	return ethcrypto.CreateAddress2(d.factory, salt, d.initCodeHash.Bytes())
}
