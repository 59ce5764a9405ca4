package exec

import (
	"testing"

	"github.com/pagequery/pagequery/internal/bind"
	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/types"
)

func lit(v types.Value) bind.BoundExpr { return bind.BoundLiteral{Val: v} }

func evalOrFatal(t *testing.T, e bind.BoundExpr) types.Value {
	t.Helper()
	v, err := Eval(e, Schema{}, nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	return v
}

func TestEvalLiteral(t *testing.T) {
	v := evalOrFatal(t, lit(types.NewInt64(5)))
	if !v.Equal(types.NewInt64(5)) {
		t.Fatalf("got %v, want 5", v)
	}
}

func TestEvalAndTruthTable(t *testing.T) {
	cases := []struct {
		l, r types.Value
		want types.Value
	}{
		{types.NewBool(true), types.NewBool(true), types.NewBool(true)},
		{types.NewBool(true), types.NewBool(false), types.NewBool(false)},
		{types.NewBool(false), types.Null, types.NewBool(false)}, // FALSE AND NULL = FALSE
		{types.Null, types.NewBool(false), types.NewBool(false)},
		{types.NewBool(true), types.Null, types.Null}, // TRUE AND NULL = NULL
		{types.Null, types.NewBool(true), types.Null},
		{types.Null, types.Null, types.Null},
	}
	for _, c := range cases {
		e := bind.BoundBinary{Op: bind.OpAnd, Left: lit(c.l), Right: lit(c.r)}
		got := evalOrFatal(t, e)
		if got.IsNull() != c.want.IsNull() || (!got.IsNull() && got.Bool != c.want.Bool) {
			t.Fatalf("%v AND %v = %v, want %v", c.l, c.r, got, c.want)
		}
	}
}

func TestEvalOrTruthTable(t *testing.T) {
	cases := []struct {
		l, r types.Value
		want types.Value
	}{
		{types.NewBool(false), types.NewBool(false), types.NewBool(false)},
		{types.NewBool(true), types.Null, types.NewBool(true)}, // TRUE OR NULL = TRUE
		{types.Null, types.NewBool(true), types.NewBool(true)},
		{types.NewBool(false), types.Null, types.Null}, // FALSE OR NULL = NULL
		{types.Null, types.NewBool(false), types.Null},
		{types.Null, types.Null, types.Null},
	}
	for _, c := range cases {
		e := bind.BoundBinary{Op: bind.OpOr, Left: lit(c.l), Right: lit(c.r)}
		got := evalOrFatal(t, e)
		if got.IsNull() != c.want.IsNull() || (!got.IsNull() && got.Bool != c.want.Bool) {
			t.Fatalf("%v OR %v = %v, want %v", c.l, c.r, got, c.want)
		}
	}
}

func TestEvalEqualityNullPropagation(t *testing.T) {
	e := bind.BoundBinary{Op: bind.OpEq, Left: lit(types.NewInt32(1)), Right: lit(types.Null)}
	got := evalOrFatal(t, e)
	if !got.IsNull() {
		t.Fatalf("1 = NULL should be NULL, got %v", got)
	}

	e2 := bind.BoundBinary{Op: bind.OpEq, Left: lit(types.NewInt32(1)), Right: lit(types.NewInt32(1))}
	got2 := evalOrFatal(t, e2)
	if got2.IsNull() || !got2.Bool {
		t.Fatalf("1 = 1 should be true, got %v", got2)
	}
}

func TestEvalArithmeticNullPropagation(t *testing.T) {
	e := bind.BoundBinary{Op: bind.OpAdd, Left: lit(types.NewInt64(1)), Right: lit(types.Null)}
	got := evalOrFatal(t, e)
	if !got.IsNull() {
		t.Fatalf("1 + NULL should be NULL, got %v", got)
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	e := bind.BoundBinary{Op: bind.OpDiv, Left: lit(types.NewInt64(1)), Right: lit(types.NewInt64(0))}
	_, err := Eval(e, Schema{}, nil)
	if !dberr.Is(err, dberr.DivisionByZero) {
		t.Fatalf("expected DivisionByZero, got %v", err)
	}
}

func TestEvalUnaryNot(t *testing.T) {
	e := bind.BoundUnary{Op: bind.OpNot, Expr: lit(types.NewBool(false))}
	got := evalOrFatal(t, e)
	if got.IsNull() || !got.Bool {
		t.Fatalf("NOT false should be true, got %v", got)
	}

	eNull := bind.BoundUnary{Op: bind.OpNot, Expr: lit(types.Null)}
	gotNull := evalOrFatal(t, eNull)
	if !gotNull.IsNull() {
		t.Fatalf("NOT NULL should be NULL, got %v", gotNull)
	}
}

func TestEvalColumnRefAddressesWideRowByOrdinal(t *testing.T) {
	schema := Schema{Spans: []SourceSpan{{Table: 1, Offset: 0, Len: 2}, {Table: 2, Offset: 2, Len: 1}}}
	row := []types.Value{types.NewInt32(10), types.NewInt32(20), types.NewInt32(30)}

	ref := bind.BoundColumnRef{Source: 1, Ordinal: 0}
	v, err := Eval(ref, schema, row)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !v.Equal(types.NewInt32(30)) {
		t.Fatalf("column ref (source=1,ordinal=0) = %v, want 30", v)
	}
}

func TestEvalColumnRefOutOfBounds(t *testing.T) {
	schema := Schema{Spans: []SourceSpan{{Table: 1, Offset: 0, Len: 1}}}
	ref := bind.BoundColumnRef{Source: 0, Ordinal: 5}
	_, err := Eval(ref, schema, []types.Value{types.NewInt32(1)})
	if !dberr.Is(err, dberr.ColumnOutOfBounds) {
		t.Fatalf("expected ColumnOutOfBounds, got %v", err)
	}
}
