package exec

import (
	"github.com/pagequery/pagequery/internal/bind"
	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/types"
)

// Eval evaluates e against row, a Wide tuple addressed through schema.
// It implements the full three-valued evaluation rules of §4.10: Null
// propagates through arithmetic and unary operators, equality returns
// Boolean true iff both operands are non-Null and equal, Null if either
// operand is Null, false otherwise, division by zero fails with
// DivisionByZero, and AND/OR follow the standard SQL three-valued truth
// tables.
//
// Grounded on the teacher's expression evaluator folded into exec.go's
// evalExpr; generalized here to walk BoundExpr (post-binder IR) instead
// of the raw parser AST, and to report DivisionByZero as a distinct
// structured error rather than a runtime panic.
func Eval(e bind.BoundExpr, schema Schema, row []types.Value) (types.Value, error) {
	switch n := e.(type) {
	case bind.BoundLiteral:
		return n.Val, nil
	case bind.BoundColumnRef:
		off := schema.offsetOf(n.Source, n.Ordinal)
		if off < 0 || off >= len(row) {
			return types.Value{}, dberr.New(dberr.LayerExec, dberr.ColumnOutOfBounds, "column reference out of bounds")
		}
		return row[off], nil
	case bind.BoundUnary:
		return evalUnary(n, schema, row)
	case bind.BoundBinary:
		return evalBinary(n, schema, row)
	default:
		return types.Value{}, dberr.New(dberr.LayerExec, dberr.ExecutorInvariantViolation, "eval: unsupported expression %T", e)
	}
}

func evalUnary(n bind.BoundUnary, schema Schema, row []types.Value) (types.Value, error) {
	v, err := Eval(n.Expr, schema, row)
	if err != nil {
		return types.Value{}, err
	}
	if v.IsNull() {
		return types.Null, nil
	}
	switch n.Op {
	case bind.OpNot:
		return types.NewBool(!v.Bool), nil
	case bind.OpNeg:
		switch v.Tag {
		case types.Int32:
			return types.NewInt32(-v.I32), nil
		case types.Int64:
			return types.NewInt64(-v.I64), nil
		case types.Float32:
			return types.NewFloat32(-v.F32), nil
		case types.Float64:
			return types.NewFloat64(-v.F64), nil
		default:
			return types.Value{}, dberr.New(dberr.LayerExec, dberr.TypeError, "NEG on non-numeric value")
		}
	default:
		return types.Value{}, dberr.New(dberr.LayerExec, dberr.ExecutorInvariantViolation, "eval: unknown unary op %q", n.Op)
	}
}

func evalBinary(n bind.BoundBinary, schema Schema, row []types.Value) (types.Value, error) {
	// AND/OR use their own short-circuit three-valued truth tables rather
	// than the generic "either side Null -> Null" rule: FALSE AND NULL is
	// FALSE, not NULL, and TRUE OR NULL is TRUE, not NULL.
	if n.Op == bind.OpAnd || n.Op == bind.OpOr {
		return evalLogical(n, schema, row)
	}

	l, err := Eval(n.Left, schema, row)
	if err != nil {
		return types.Value{}, err
	}
	r, err := Eval(n.Right, schema, row)
	if err != nil {
		return types.Value{}, err
	}

	switch n.Op {
	case bind.OpEq:
		if l.IsNull() || r.IsNull() {
			return types.Null, nil
		}
		return types.NewBool(l.Equal(r)), nil
	case bind.OpNeq:
		if l.IsNull() || r.IsNull() {
			return types.Null, nil
		}
		return types.NewBool(!l.Equal(r)), nil
	case bind.OpLt, bind.OpLte, bind.OpGt, bind.OpGte:
		if l.IsNull() || r.IsNull() {
			return types.Null, nil
		}
		c := types.CompareValuesTotalOrder(l, r)
		switch n.Op {
		case bind.OpLt:
			return types.NewBool(c < 0), nil
		case bind.OpLte:
			return types.NewBool(c <= 0), nil
		case bind.OpGt:
			return types.NewBool(c > 0), nil
		default:
			return types.NewBool(c >= 0), nil
		}
	case bind.OpAdd, bind.OpSub, bind.OpMul, bind.OpDiv:
		if l.IsNull() || r.IsNull() {
			return types.Null, nil
		}
		return evalArith(n.Op, l, r)
	default:
		return types.Value{}, dberr.New(dberr.LayerExec, dberr.ExecutorInvariantViolation, "eval: unknown binary op %q", n.Op)
	}
}

func evalLogical(n bind.BoundBinary, schema Schema, row []types.Value) (types.Value, error) {
	l, err := Eval(n.Left, schema, row)
	if err != nil {
		return types.Value{}, err
	}
	if n.Op == bind.OpAnd && !l.IsNull() && !l.Bool {
		return types.NewBool(false), nil
	}
	if n.Op == bind.OpOr && !l.IsNull() && l.Bool {
		return types.NewBool(true), nil
	}
	r, err := Eval(n.Right, schema, row)
	if err != nil {
		return types.Value{}, err
	}
	if n.Op == bind.OpAnd {
		if !r.IsNull() && !r.Bool {
			return types.NewBool(false), nil
		}
		if l.IsNull() || r.IsNull() {
			return types.Null, nil
		}
		return types.NewBool(true), nil
	}
	// OR
	if !r.IsNull() && r.Bool {
		return types.NewBool(true), nil
	}
	if l.IsNull() || r.IsNull() {
		return types.Null, nil
	}
	return types.NewBool(false), nil
}

func evalArith(op bind.Op, l, r types.Value) (types.Value, error) {
	if l.Tag != r.Tag {
		return types.Value{}, dberr.New(dberr.LayerExec, dberr.TypeError, "arithmetic on mismatched types %s and %s", l.Tag, r.Tag)
	}
	switch l.Tag {
	case types.Int32:
		if op == bind.OpDiv && r.I32 == 0 {
			return types.Value{}, dberr.New(dberr.LayerExec, dberr.DivisionByZero, "division by zero")
		}
		return types.NewInt32(applyIntOp(op, l.I32, r.I32)), nil
	case types.Int64:
		if op == bind.OpDiv && r.I64 == 0 {
			return types.Value{}, dberr.New(dberr.LayerExec, dberr.DivisionByZero, "division by zero")
		}
		return types.NewInt64(applyIntOp(op, l.I64, r.I64)), nil
	case types.Float32:
		if op == bind.OpDiv && r.F32 == 0 {
			return types.Value{}, dberr.New(dberr.LayerExec, dberr.DivisionByZero, "division by zero")
		}
		return types.NewFloat32(applyFloatOp(op, l.F32, r.F32)), nil
	case types.Float64:
		if op == bind.OpDiv && r.F64 == 0 {
			return types.Value{}, dberr.New(dberr.LayerExec, dberr.DivisionByZero, "division by zero")
		}
		return types.NewFloat64(applyFloatOp(op, l.F64, r.F64)), nil
	default:
		return types.Value{}, dberr.New(dberr.LayerExec, dberr.TypeError, "arithmetic on non-numeric type %s", l.Tag)
	}
}

type integer interface{ ~int32 | ~int64 }
type float interface{ ~float32 | ~float64 }

func applyIntOp[T integer](op bind.Op, l, r T) T {
	switch op {
	case bind.OpAdd:
		return l + r
	case bind.OpSub:
		return l - r
	case bind.OpMul:
		return l * r
	case bind.OpDiv:
		return l / r
	default:
		return 0
	}
}

func applyFloatOp[T float](op bind.Op, l, r T) T {
	switch op {
	case bind.OpAdd:
		return l + r
	case bind.OpSub:
		return l - r
	case bind.OpMul:
		return l * r
	case bind.OpDiv:
		return l / r
	default:
		return 0
	}
}
