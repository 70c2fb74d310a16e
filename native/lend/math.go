package lend

import "math/big"

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func wadMul(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, One)
}

// powWad raises a fixed-point base to an integer exponent by squaring,
// flooring at the wad scale after every multiplication.
func powWad(base *big.Int, exp int64) *big.Int {
	result := new(big.Int).Set(One)
	if exp <= 0 {
		return result
	}
	square := cloneBigInt(base)
	for e := exp; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = wadMul(result, square)
		}
		if e > 1 {
			square = wadMul(square, square)
		}
	}
	return result
}
