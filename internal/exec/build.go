package exec

import (
	"github.com/pagequery/pagequery/internal/bind"
	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/plan"
	"github.com/pagequery/pagequery/internal/types"
)

// Build translates an optimized logical plan tree into a pull-iterator
// tree, assigning each Scan/IndexScan leaf a SourceSpan so later
// operators can address its columns within the Wide row (§4.10).
func Build(env *Env, stats *Stats, n plan.Node) (Iterator, Schema, error) {
	it, schema, _, err := build(env, stats, n, 0)
	return it, schema, err
}

// build returns the iterator, the accumulated schema as of this
// subtree, and the next free Wide offset.
func build(env *Env, stats *Stats, n plan.Node, offset int) (Iterator, Schema, int, error) {
	switch x := n.(type) {
	case plan.Scan:
		t, err := env.Cat.GetTableById(x.Table.Id)
		if err != nil {
			return nil, Schema{}, 0, err
		}
		span := SourceSpan{Table: x.Table.Id, Offset: offset, Len: len(t.Columns)}
		schema := Schema{Spans: []SourceSpan{span}}
		return NewScan(env, stats, x.Table, span), schema, offset + span.Len, nil

	case plan.IndexScan:
		t, err := env.Cat.GetTableById(x.Table.Id)
		if err != nil {
			return nil, Schema{}, 0, err
		}
		span := SourceSpan{Table: x.Table.Id, Offset: offset, Len: len(t.Columns)}
		schema := Schema{Spans: []SourceSpan{span}}
		lo, err := boundToIndexKey(x.Lo)
		if err != nil {
			return nil, Schema{}, 0, err
		}
		hi, err := boundToIndexKey(x.Hi)
		if err != nil {
			return nil, Schema{}, 0, err
		}
		return NewIndexScan(env, stats, x.Table, span, x.Index, lo, hi), schema, offset + span.Len, nil

	case plan.Filter:
		input, schema, next, err := build(env, stats, x.Input, offset)
		if err != nil {
			return nil, Schema{}, 0, err
		}
		return NewFilter(input, schema, x.Predicate), schema, next, nil

	case plan.Project:
		input, schema, next, err := build(env, stats, x.Input, offset)
		if err != nil {
			return nil, Schema{}, 0, err
		}
		return NewProject(input, schema, x.Exprs, x.Identity), schema, next, nil

	case plan.Sort:
		input, schema, next, err := build(env, stats, x.Input, offset)
		if err != nil {
			return nil, Schema{}, 0, err
		}
		return NewSort(input, schema, x.Keys), schema, next, nil

	case plan.Limit:
		input, schema, next, err := build(env, stats, x.Input, offset)
		if err != nil {
			return nil, Schema{}, 0, err
		}
		return NewLimit(input, x.Count, x.Offset), schema, next, nil

	case plan.Join:
		left, lschema, mid, err := build(env, stats, x.Left, offset)
		if err != nil {
			return nil, Schema{}, 0, err
		}
		right, rschema, next, err := build(env, stats, x.Right, mid)
		if err != nil {
			return nil, Schema{}, 0, err
		}
		schema := Schema{Spans: append(append([]SourceSpan{}, lschema.Spans...), rschema.Spans...)}
		return NewJoin(left, right, schema, x.Condition), schema, next, nil

	case plan.Insert:
		return NewInsert(env, stats, x.Table, x.Columns, x.Rows), Schema{}, offset, nil

	case plan.Update:
		return NewUpdate(env, stats, x.Table, x.Assignments, x.Predicate), Schema{}, offset, nil

	case plan.Delete:
		return NewDelete(env, stats, x.Table, x.Predicate), Schema{}, offset, nil

	default:
		return nil, Schema{}, 0, dberr.New(dberr.LayerExec, dberr.ExecutorInvariantViolation, "build: unsupported plan node %T", n)
	}
}

// boundToIndexKey evaluates a constant-folded BoundExpr bound (nil
// allowed, meaning unbounded) into an IndexKey for a B+Tree range scan.
func boundToIndexKey(e bind.BoundExpr) (*types.IndexKey, error) {
	if e == nil {
		return nil, nil
	}
	lit, ok := e.(bind.BoundLiteral)
	if !ok {
		return nil, dberr.New(dberr.LayerExec, dberr.ExecutorInvariantViolation, "index scan bound is not a constant")
	}
	if lit.Val.IsNull() {
		return nil, nil
	}
	key, err := types.NewIndexKey(lit.Val)
	if err != nil {
		return nil, dberr.Wrap(dberr.LayerExec, dberr.TypeError, err, "index scan bound")
	}
	return &key, nil
}
