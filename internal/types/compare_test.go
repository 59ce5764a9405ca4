package types

import (
	"math"
	"testing"
)

func TestCompareValuesTotalOrderNaNSortsGreatest(t *testing.T) {
	nan := NewFloat64(math.NaN())
	inf := NewFloat64(math.Inf(1))
	if CompareValuesTotalOrder(nan, inf) <= 0 {
		t.Fatal("expected NaN to sort greater than +Inf under total order")
	}
	if CompareValuesTotalOrder(inf, nan) >= 0 {
		t.Fatal("expected +Inf to sort less than NaN under total order")
	}
}

func TestCompareValuesTotalOrderBasics(t *testing.T) {
	if CompareValuesTotalOrder(NewInt64(1), NewInt64(2)) >= 0 {
		t.Fatal("expected 1 < 2")
	}
	if CompareValuesTotalOrder(NewVarchar("a"), NewVarchar("b")) >= 0 {
		t.Fatal("expected \"a\" < \"b\"")
	}
	if CompareValuesTotalOrder(NewBool(false), NewBool(true)) >= 0 {
		t.Fatal("expected false < true")
	}
}
