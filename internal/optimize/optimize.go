// Package optimize applies a fixed, idempotent, semantics-preserving
// rule pipeline to a logical plan tree: constant folding, predicate
// pushdown, index selection, projection pruning (§2, §4.8).
//
// Grounded on the teacher's handful of planning heuristics scattered
// through exec.go (it inlines constant WHERE clauses and prefers an
// index when one exists on an equality predicate's column); here those
// heuristics are lifted into an explicit, ordered rule pipeline that
// runs once per statement rather than being interleaved with execution.
package optimize

import (
	"github.com/pagequery/pagequery/internal/bind"
	"github.com/pagequery/pagequery/internal/catalog"
	"github.com/pagequery/pagequery/internal/plan"
	"github.com/pagequery/pagequery/internal/types"
)

// Optimize rewrites n by applying, in order: constant folding, predicate
// pushdown, index selection, projection pruning. Each rule is
// independently idempotent; running the full pipeline twice on its own
// output is a no-op.
func Optimize(cat *catalog.Catalog, n plan.Node) plan.Node {
	n = foldConstants(n)
	n = pushdownPredicates(n)
	n = selectIndexes(cat, n)
	n = prunePerProjection(cat, n)
	return n
}

// foldConstants replaces a literal-only subexpression with a literal
// where evalConstUnary/evalConstBinary can evaluate it: NOT and unary
// minus of a literal, AND/OR of two non-Null literals, and a comparison
// with a Null literal (which folds to Null). Arithmetic and comparisons
// between two non-Null literals are not folded; the executor evaluates
// them per row.
func foldConstants(n plan.Node) plan.Node {
	return mapExprs(n, foldExpr)
}

func foldExpr(e bind.BoundExpr) bind.BoundExpr {
	switch x := e.(type) {
	case bind.BoundUnary:
		inner := foldExpr(x.Expr)
		x.Expr = inner
		if lit, ok := inner.(bind.BoundLiteral); ok {
			if v, ok := evalConstUnary(x.Op, lit.Val); ok {
				return bind.BoundLiteral{Val: v}
			}
		}
		return x
	case bind.BoundBinary:
		l := foldExpr(x.Left)
		r := foldExpr(x.Right)
		x.Left, x.Right = l, r
		ll, lok := l.(bind.BoundLiteral)
		rl, rok := r.(bind.BoundLiteral)
		if lok && rok {
			if v, ok := evalConstBinary(x.Op, ll.Val, rl.Val); ok {
				return bind.BoundLiteral{Val: v}
			}
		}
		return x
	default:
		return e
	}
}

// evalConstUnary and evalConstBinary implement only the total
// (never-erroring) slice of three-valued evaluation needed at plan time;
// the full evaluator (division by zero, type coercion across all
// operators) lives in the executor and runs per-row regardless of
// folding.
func evalConstUnary(op bind.Op, v types.Value) (types.Value, bool) {
	if v.IsNull() {
		return types.Null, true
	}
	switch op {
	case bind.OpNot:
		return types.NewBool(!v.Bool), true
	case bind.OpNeg:
		switch v.Tag {
		case types.Int32:
			return types.NewInt32(-v.I32), true
		case types.Int64:
			return types.NewInt64(-v.I64), true
		case types.Float32:
			return types.NewFloat32(-v.F32), true
		case types.Float64:
			return types.NewFloat64(-v.F64), true
		}
	}
	return types.Value{}, false
}

func evalConstBinary(op bind.Op, l, r types.Value) (types.Value, bool) {
	if op == bind.OpAnd || op == bind.OpOr {
		// Only two non-Null literals are folded; an AND/OR with a Null
		// operand is left to the executor's three-valued evaluator.
		if l.IsNull() || r.IsNull() {
			return types.Value{}, false
		}
		if op == bind.OpAnd {
			return types.NewBool(l.Bool && r.Bool), true
		}
		return types.NewBool(l.Bool || r.Bool), true
	}
	if l.IsNull() || r.IsNull() {
		if op == bind.OpEq || op == bind.OpNeq || op == bind.OpLt || op == bind.OpLte || op == bind.OpGt || op == bind.OpGte {
			return types.Null, true
		}
		return types.Value{}, false
	}
	return types.Value{}, false
}

// mapExprs walks n, replacing every BoundExpr reachable from a plan
// node's fields via fn, and recursing into child plan nodes.
func mapExprs(n plan.Node, fn func(bind.BoundExpr) bind.BoundExpr) plan.Node {
	switch x := n.(type) {
	case plan.Scan:
		return x
	case plan.IndexScan:
		if x.Lo != nil {
			x.Lo = fn(x.Lo)
		}
		if x.Hi != nil {
			x.Hi = fn(x.Hi)
		}
		return x
	case plan.Filter:
		x.Input = mapExprs(x.Input, fn)
		x.Predicate = fn(x.Predicate)
		return x
	case plan.Project:
		x.Input = mapExprs(x.Input, fn)
		for i, e := range x.Exprs {
			x.Exprs[i] = fn(e)
		}
		return x
	case plan.Sort:
		x.Input = mapExprs(x.Input, fn)
		for i, k := range x.Keys {
			x.Keys[i].Expr = fn(k.Expr)
		}
		return x
	case plan.Limit:
		x.Input = mapExprs(x.Input, fn)
		return x
	case plan.Join:
		x.Left = mapExprs(x.Left, fn)
		x.Right = mapExprs(x.Right, fn)
		x.Condition = fn(x.Condition)
		return x
	case plan.Insert:
		for _, row := range x.Rows {
			for i, e := range row {
				row[i] = fn(e)
			}
		}
		return x
	case plan.Update:
		for i, a := range x.Assignments {
			a.Value = fn(a.Value)
			x.Assignments[i] = a
		}
		if x.Predicate != nil {
			x.Predicate = fn(x.Predicate)
		}
		return x
	case plan.Delete:
		if x.Predicate != nil {
			x.Predicate = fn(x.Predicate)
		}
		return x
	default:
		return n
	}
}

// pushdownPredicates moves a Filter directly above a Project to sit
// below it (predicates never reference computed projection aliases in
// this engine, since WHERE is bound against the FROM/JOIN scope, not
// the select list, so the rewrite is always valid). Filters are never
// pushed below Limit or Sort, nor through a Join, per §4.9 rule 2
// exactly as written.
func pushdownPredicates(n plan.Node) plan.Node {
	switch x := n.(type) {
	case plan.Filter:
		x.Input = pushdownPredicates(x.Input)
		if proj, ok := x.Input.(plan.Project); ok {
			proj.Input = plan.Filter{Input: proj.Input, Predicate: x.Predicate}
			return proj
		}
		return x
	case plan.Project:
		x.Input = pushdownPredicates(x.Input)
		return x
	case plan.Sort:
		x.Input = pushdownPredicates(x.Input)
		return x
	case plan.Limit:
		x.Input = pushdownPredicates(x.Input)
		return x
	case plan.Join:
		x.Left = pushdownPredicates(x.Left)
		x.Right = pushdownPredicates(x.Right)
		return x
	default:
		return n
	}
}

// selectIndexes rewrites a Scan directly below a Filter into an
// IndexScan when the filter's predicate is an equality or range
// comparison against an indexed column, narrowing the leaf iterator to
// a B+Tree lookup instead of a full heap scan. The Filter stays above
// the IndexScan and re-checks the predicate on every fetched row, which
// drops stale index entries and rows on an inclusive bound of a strict
// comparison.
func selectIndexes(cat *catalog.Catalog, n plan.Node) plan.Node {
	switch x := n.(type) {
	case plan.Filter:
		x.Input = selectIndexes(cat, x.Input)
		if scan, ok := x.Input.(plan.Scan); ok {
			if is, ok := tryIndexScan(cat, scan, x.Predicate); ok {
				x.Input = is
			}
		}
		return x
	case plan.Project:
		x.Input = selectIndexes(cat, x.Input)
		return x
	case plan.Sort:
		x.Input = selectIndexes(cat, x.Input)
		return x
	case plan.Limit:
		x.Input = selectIndexes(cat, x.Input)
		return x
	case plan.Join:
		x.Left = selectIndexes(cat, x.Left)
		x.Right = selectIndexes(cat, x.Right)
		return x
	default:
		return n
	}
}

// tryIndexScan recognizes `col OP literal` (or `literal OP col`) where
// OP is one of =, <, <=, >, >= and col is indexed, producing bounded
// IndexScan range endpoints. Anything else declines (returns false) and
// the Scan is left as a full heap scan under its Filter.
func tryIndexScan(cat *catalog.Catalog, scan plan.Scan, pred bind.BoundExpr) (plan.IndexScan, bool) {
	bin, ok := pred.(bind.BoundBinary)
	if !ok {
		return plan.IndexScan{}, false
	}
	colRef, lit, op, ok := splitColumnLiteral(bin)
	if !ok {
		return plan.IndexScan{}, false
	}
	if colRef.Table != scan.Table.Id {
		return plan.IndexScan{}, false
	}
	idx := cat.FindIndexOnColumn(scan.Table.Id, colRef.Column)
	if idx == nil {
		return plan.IndexScan{}, false
	}
	litVal := lit.(bind.BoundLiteral).Val
	if _, err := types.NewIndexKey(litVal); err != nil && !litVal.IsNull() {
		// Not an indexable key type (a float, for instance).
		return plan.IndexScan{}, false
	}
	if op != bind.OpEq && litVal.Tag == types.Varchar {
		// The index orders Varchar keys by collation while the executor
		// compares strings bytewise, so a range bound could skip rows.
		return plan.IndexScan{}, false
	}

	is := plan.IndexScan{Table: scan.Table, Alias: scan.Alias, Index: idx.Id}
	switch op {
	case bind.OpEq:
		is.Lo, is.Hi = lit, lit
	case bind.OpLt, bind.OpLte:
		is.Hi = lit
	case bind.OpGt, bind.OpGte:
		is.Lo = lit
	default:
		return plan.IndexScan{}, false
	}
	return is, true
}

func splitColumnLiteral(bin bind.BoundBinary) (bind.BoundColumnRef, bind.BoundExpr, bind.Op, bool) {
	if cr, ok := bin.Left.(bind.BoundColumnRef); ok {
		if _, ok := bin.Right.(bind.BoundLiteral); ok {
			return cr, bin.Right, bin.Op, true
		}
	}
	if cr, ok := bin.Right.(bind.BoundColumnRef); ok {
		if _, ok := bin.Left.(bind.BoundLiteral); ok {
			return cr, bin.Left, flipOp(bin.Op), true
		}
	}
	return bind.BoundColumnRef{}, nil, "", false
}

func flipOp(op bind.Op) bind.Op {
	switch op {
	case bind.OpLt:
		return bind.OpGt
	case bind.OpLte:
		return bind.OpGte
	case bind.OpGt:
		return bind.OpLt
	case bind.OpGte:
		return bind.OpLte
	default:
		return op
	}
}

// prunePerProjection applies projection pruning to every Project node
// (§4.9 rule 4). Every output expression of a Project is treated as
// required: the ColumnIds that ancestors reference are not collected,
// so no expression is ever dropped. What it does change is Identity:
// when a Project's expressions are exactly the input's columns in their
// natural Wide order (no computation, no alias rename, no reordering),
// the Project is marked Identity so the executor collapses it into a
// bare Wide->Output copy instead of running the general evaluator per
// column.
//
// This planner only ever lowers one Project per statement (§4.8: SELECT
// is always FROM -> [Filter] -> Project -> [Sort] -> [Limit], and JOIN
// sources are plain Scans with no Project of their own), and every
// expression in that one Project is part of the query's result, so
// keeping all of them is what the query needs.
func prunePerProjection(cat *catalog.Catalog, n plan.Node) plan.Node {
	return prunePlan(cat, n, nil)
}

// prunePlan recurses through n and, at each Project, keeps the output
// indexes in requiredFromAbove. Every call passes nil, which means
// every output is kept.
func prunePlan(cat *catalog.Catalog, n plan.Node, requiredFromAbove map[int]bool) plan.Node {
	switch x := n.(type) {
	case plan.Project:
		x.Input = prunePlan(cat, x.Input, nil)
		required := requiredFromAbove
		if required == nil {
			required = allIndices(len(x.Exprs))
		}
		x.Exprs, x.Names = dropUnrequired(x.Exprs, x.Names, required)
		x.Identity = isIdentityProjection(cat, x)
		return x
	case plan.Filter:
		x.Input = prunePlan(cat, x.Input, nil)
		return x
	case plan.Sort:
		x.Input = prunePlan(cat, x.Input, nil)
		return x
	case plan.Limit:
		x.Input = prunePlan(cat, x.Input, nil)
		return x
	case plan.Join:
		x.Left = prunePlan(cat, x.Left, nil)
		x.Right = prunePlan(cat, x.Right, nil)
		return x
	default:
		return n
	}
}

func allIndices(n int) map[int]bool {
	m := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		m[i] = true
	}
	return m
}

// dropUnrequired removes every (expr, name) pair whose index is not in
// required, preserving relative order.
func dropUnrequired(exprs []bind.BoundExpr, names []string, required map[int]bool) ([]bind.BoundExpr, []string) {
	keptExprs := make([]bind.BoundExpr, 0, len(exprs))
	keptNames := make([]string, 0, len(names))
	for i, e := range exprs {
		if !required[i] {
			continue
		}
		keptExprs = append(keptExprs, e)
		keptNames = append(keptNames, names[i])
	}
	return keptExprs, keptNames
}

// sourceTables walks p's plan tree in the same left-to-right order
// exec/build.go assigns Wide offsets, returning the TableId backing each
// source. Scan/IndexScan are leaves; Filter passes its input through
// unchanged; Join concatenates left then right.
func sourceTables(n plan.Node) []catalog.TableId {
	switch x := n.(type) {
	case plan.Scan:
		return []catalog.TableId{x.Table.Id}
	case plan.IndexScan:
		return []catalog.TableId{x.Table.Id}
	case plan.Filter:
		return sourceTables(x.Input)
	case plan.Join:
		return append(sourceTables(x.Left), sourceTables(x.Right)...)
	default:
		return nil
	}
}

// isIdentityProjection reports whether p.Exprs is, in order, exactly
// every column of every source table in p.Input's natural Wide layout,
// each referenced by plain BoundColumnRef with no rename (Names[i]
// equal to the underlying column's name). This is the "SELECT *"
// shape: nothing computed, nothing reordered, nothing dropped.
func isIdentityProjection(cat *catalog.Catalog, p plan.Project) bool {
	tables := sourceTables(p.Input)
	if len(tables) == 0 {
		return false
	}
	pos := 0
	for src, tid := range tables {
		t, err := cat.GetTableById(tid)
		if err != nil {
			return false
		}
		for ord, col := range t.Columns {
			if pos >= len(p.Exprs) {
				return false
			}
			cr, ok := p.Exprs[pos].(bind.BoundColumnRef)
			if !ok || cr.Source != src || cr.Ordinal != ord {
				return false
			}
			if p.Names[pos] != col.Name {
				return false
			}
			pos++
		}
	}
	return pos == len(p.Exprs)
}
