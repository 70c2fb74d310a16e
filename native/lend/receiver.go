package lend

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// positionReceiverMagic is the acknowledgement selector a position ledger
// expects from a transfer target before crediting it.
var positionReceiverMagic = [4]byte{0xf2, 0x3a, 0x6e, 0x61}

// OnPositionReceived acknowledges inbound collateral transfers so escrow
// deposits into the engine's custody address succeed. The engine accepts all
// transfers silently; bookkeeping happens in the operation that initiated
// them.
func (e *Engine) OnPositionReceived(operator, from common.Address, positionID, amount *big.Int, data []byte) ([4]byte, error) {
	return positionReceiverMagic, nil
}
