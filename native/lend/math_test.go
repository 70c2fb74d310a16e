package lend

import (
	"math/big"
	"testing"
)

func TestPowWadZeroExponentIsOne(t *testing.T) {
	rate := mustBigInt("1050000000000000000")
	if got := powWad(rate, 0); got.Cmp(One) != 0 {
		t.Fatalf("expected One, got %s", got)
	}
}

func TestPowWadSquaresExactly(t *testing.T) {
	rate := mustBigInt("1050000000000000000") // 1.05 per second
	want := mustBigInt("1102500000000000000") // 1.1025
	if got := powWad(rate, 2); got.Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestPowWadMonotonicInExponent(t *testing.T) {
	rate := mustBigInt("1000000100000000000")
	prev := big.NewInt(0)
	for _, exp := range []int64{1, 2, 10, 100, 1000} {
		got := powWad(rate, exp)
		if got.Cmp(prev) <= 0 {
			t.Fatalf("powWad not increasing at exp=%d: %s <= %s", exp, got, prev)
		}
		prev = got
	}
}

func TestWadMulFloors(t *testing.T) {
	a := big.NewInt(3)
	b := mustBigInt("500000000000000000") // 0.5
	if got := wadMul(a, b); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("expected floor to 1, got %s", got)
	}
}
