// Package engine sequences the query pipeline: bind, plan, optimize,
// execute, dispatching DML through the mutation path and SELECT through
// the query path, with DDL handled directly against the catalog (§4.10,
// §4.8's "DDL bypasses the planner entirely").
//
// Grounded on the teacher's Execute top-level switch (internal/engine/exec.go),
// which special-cases CreateTable/DropTable/etc. before falling into the
// recursive statement evaluator; here the same dispatch shape drives a
// bind -> plan -> optimize -> exec pipeline instead of direct
// interpretation.
package engine

import (
	"context"
	"fmt"

	"github.com/pagequery/pagequery/internal/ast"
	"github.com/pagequery/pagequery/internal/bind"
	"github.com/pagequery/pagequery/internal/catalog"
	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/exec"
	"github.com/pagequery/pagequery/internal/optimize"
	"github.com/pagequery/pagequery/internal/plan"
	"github.com/pagequery/pagequery/internal/storage/pager"
	"github.com/pagequery/pagequery/internal/types"
)

// Row is one output row of a query, column-aligned with its Schema.
type Row = []types.Value

// Result is what Driver.Execute returns: a query path result carries
// Rows/Schema, a mutation path result carries Count, a definition path
// result carries neither.
type Result struct {
	Schema []bind.OutputColumn
	Rows   []Row
	Count  int64
	Stats  exec.Stats
}

// Driver owns the catalog and buffer pool and runs the full pipeline
// for one statement at a time (§5: single-threaded per-statement
// execution).
type Driver struct {
	Cat  *catalog.Catalog
	Pool *pager.BufferPool
	// Order is the default B+Tree order used for newly created indexes.
	Order int
}

// New returns a Driver over an already-open catalog and buffer pool.
func New(cat *catalog.Catalog, pool *pager.BufferPool, order int) *Driver {
	return &Driver{Cat: cat, Pool: pool, Order: order}
}

// Execute binds, plans, optimizes, and runs stmt. ctx is checked once at
// the top (§5: "no iterator checks context mid-row").
func (d *Driver) Execute(ctx context.Context, stmt ast.Statement) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := bind.New(d.Cat)
	bound, err := b.Bind(stmt)
	if err != nil {
		return nil, err
	}
	return d.executeBound(ctx, bound, false)
}

func (d *Driver) executeBound(ctx context.Context, bound bind.BoundStatement, analyze bool) (*Result, error) {
	switch s := bound.(type) {
	case bind.BoundCreateTable:
		return d.execCreateTable(s)
	case bind.BoundDropTable:
		return d.execDropTable(s)
	case bind.BoundCreateIndex:
		return d.execCreateIndex(s)
	case bind.BoundDropIndex:
		return d.execDropIndex(s)
	case bind.BoundExplain:
		return d.execExplain(ctx, s)
	default:
		return d.executeQueryOrDML(ctx, bound)
	}
}

func (d *Driver) executeQueryOrDML(ctx context.Context, bound bind.BoundStatement) (*Result, error) {
	lp, err := plan.Build(bound)
	if err != nil {
		return nil, err
	}
	lp = optimize.Optimize(d.Cat, lp)

	env := &exec.Env{Cat: d.Cat, Pool: d.Pool, Order: d.Order}
	var stats exec.Stats
	it, schema, err := exec.Build(env, &stats, lp)
	if err != nil {
		return nil, err
	}
	_ = schema

	if err := it.Open(ctx); err != nil {
		return nil, err
	}
	defer it.Close()

	sel, isSelect := bound.(bind.BoundSelect)
	if isSelect {
		var rows []Row
		for {
			t, ok, err := it.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			rows = append(rows, append(Row{}, t.Output...))
		}
		return &Result{Schema: sel.Projections, Rows: rows, Stats: stats}, nil
	}

	var count int64
	for {
		_, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		count++
	}
	return &Result{Count: count, Stats: stats}, nil
}

func (d *Driver) execCreateTable(s bind.BoundCreateTable) (*Result, error) {
	cols := make([]struct {
		Name     string
		Type     types.DataType
		Nullable bool
	}, len(s.Columns))
	for i, c := range s.Columns {
		cols[i].Name = c.Name
		cols[i].Type = c.Type
		cols[i].Nullable = c.Nullable
	}
	if _, err := d.Cat.CreateTable(s.Name, cols); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

// execDropTable removes the table (and its indexes) from the catalog.
// Its heap pages are not reclaimed: §3 already permits leaking pages,
// since they are allocated on demand and never freed.
func (d *Driver) execDropTable(s bind.BoundDropTable) (*Result, error) {
	if err := d.Cat.DropTable(s.Name); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

// execDropIndex removes the index from the catalog. Its B+Tree pages
// are leaked, matching execDropTable.
func (d *Driver) execDropIndex(s bind.BoundDropIndex) (*Result, error) {
	if err := d.Cat.DropIndex(s.Name); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (d *Driver) execCreateIndex(s bind.BoundCreateIndex) (*Result, error) {
	order := d.Order
	if order < 3 {
		order = 64
	}
	tree, err := pager.NewBTree(d.Pool, order)
	if err != nil {
		return nil, err
	}

	t, err := d.Cat.GetTableById(s.Table.Id)
	if err != nil {
		return nil, err
	}
	colId := t.Columns[s.Column].Id

	idx, err := d.Cat.CreateIndex(s.Name, s.Table.Id, colId, s.Unique, tree.Root(), order)
	if err != nil {
		return nil, err
	}

	// Backfill: walk the existing heap and insert every non-Null value
	// under the new index.
	heap := pager.OpenHeap(d.Pool, t.HeapPages)
	err = heap.Scan(func(rid pager.RowID, row []types.Value) (bool, error) {
		v := row[s.Column]
		if v.IsNull() {
			return true, nil
		}
		key, err := types.NewIndexKey(v)
		if err != nil {
			return true, nil
		}
		if err := tree.InsertUnique(key, rid, s.Unique); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if err := d.Cat.SetIndexRoot(idx.Id, tree.Root()); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (d *Driver) execExplain(ctx context.Context, s bind.BoundExplain) (*Result, error) {
	switch s.Inner.(type) {
	case bind.BoundCreateTable, bind.BoundDropTable, bind.BoundCreateIndex, bind.BoundDropIndex:
		return nil, dberr.New(dberr.LayerExec, dberr.NotImplemented, "EXPLAIN of DDL is not supported")
	}
	lp, err := plan.Build(s.Inner)
	if err != nil {
		return nil, err
	}
	lp = optimize.Optimize(d.Cat, lp)
	if !s.Analyze {
		return &Result{Schema: []bind.OutputColumn{{Name: "plan", Type: types.Varchar}}, Rows: []Row{{types.NewVarchar(describePlan(lp, 0))}}}, nil
	}
	return d.executeQueryOrDML(ctx, s.Inner)
}

// describePlan renders a logical plan tree as an indented, human-readable
// string for EXPLAIN output.
func describePlan(n plan.Node, depth int) string {
	pad := ""
	for i := 0; i < depth; i++ {
		pad += "  "
	}
	switch x := n.(type) {
	case plan.Scan:
		return fmt.Sprintf("%sScan(%s)", pad, x.Table.Name)
	case plan.IndexScan:
		return fmt.Sprintf("%sIndexScan(%s)", pad, x.Table.Name)
	case plan.Filter:
		return fmt.Sprintf("%sFilter\n%s", pad, describePlan(x.Input, depth+1))
	case plan.Project:
		return fmt.Sprintf("%sProject\n%s", pad, describePlan(x.Input, depth+1))
	case plan.Sort:
		return fmt.Sprintf("%sSort\n%s", pad, describePlan(x.Input, depth+1))
	case plan.Limit:
		return fmt.Sprintf("%sLimit\n%s", pad, describePlan(x.Input, depth+1))
	case plan.Join:
		return fmt.Sprintf("%sJoin\n%s\n%s", pad, describePlan(x.Left, depth+1), describePlan(x.Right, depth+1))
	case plan.Insert:
		return fmt.Sprintf("%sInsert(%s)", pad, x.Table.Name)
	case plan.Update:
		return fmt.Sprintf("%sUpdate(%s)", pad, x.Table.Name)
	case plan.Delete:
		return fmt.Sprintf("%sDelete(%s)", pad, x.Table.Name)
	default:
		return fmt.Sprintf("%s?", pad)
	}
}
