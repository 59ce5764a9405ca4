// Package plan lowers a bind.BoundStatement into a LogicalPlan tree:
// Scan, Filter, Project, Sort, Limit, Join, IndexScan, Insert, Update,
// Delete (§4.8). SELECT lowers FROM -> [Filter] -> Project -> [Sort] ->
// [Limit]; DDL never reaches this package (the engine driver dispatches
// it directly against the catalog).
//
// Grounded on the teacher's planning step folded into exec.go's
// recursive evaluate-the-AST dispatch; here it is a distinct stage that
// builds an explicit tree the optimizer can rewrite before execution.
package plan

import (
	"github.com/pagequery/pagequery/internal/bind"
	"github.com/pagequery/pagequery/internal/catalog"
)

// Node is one logical plan tree node.
type Node interface{ planNode() }

// Scan reads every live row of a table in heap order.
type Scan struct {
	Table TableRef
	Alias string
}

// IndexScan reads rows of a table via a secondary index, optionally
// bounded by Lo/Hi (either may be nil for an unbounded side).
type IndexScan struct {
	Table TableRef
	Alias string
	Index catalog.IndexId
	Lo    bind.BoundExpr
	Hi    bind.BoundExpr
}

// TableRef names the table a Scan/IndexScan/Insert/Update/Delete targets.
type TableRef struct {
	Id   catalog.TableId
	Name string
}

// Filter keeps only rows for which Predicate evaluates true (three-valued:
// Null and false both exclude).
type Filter struct {
	Input     Node
	Predicate bind.BoundExpr
}

// Project evaluates Exprs against each input row, producing the output
// row shape. Identity is set by the optimizer's projection-pruning rule
// when Exprs is a pure, unrenamed column-reorder identity over Input's
// natural Wide order (§4.9 rule 4): the executor then copies Wide
// straight into Output instead of evaluating each expression.
type Project struct {
	Input    Node
	Exprs    []bind.BoundExpr
	Names    []string
	Identity bool
}

// SortKey is one ORDER BY key within a Sort node.
type SortKey struct {
	Expr bind.BoundExpr
	Desc bool
}

// Sort orders its input by Keys (Null after non-Null ascending, before
// it descending), using the total float order
// for Float32/Float64 keys (§9 Open Question resolution).
type Sort struct {
	Input Node
	Keys  []SortKey
}

// Limit caps the number of rows pulled from Input, skipping Offset first.
type Limit struct {
	Input  Node
	Count  *int64
	Offset *int64
}

// Join is an inner join of Left and Right on Condition.
type Join struct {
	Left, Right Node
	Condition   bind.BoundExpr
}

// Insert appends Rows to Table.
type Insert struct {
	Table   TableRef
	Columns []int
	Rows    [][]bind.BoundExpr
}

// Update rewrites matching rows of Table per Assignments.
type Update struct {
	Table       TableRef
	Assignments []bind.BoundAssignment
	Predicate   bind.BoundExpr
}

// Delete removes matching rows of Table.
type Delete struct {
	Table     TableRef
	Predicate bind.BoundExpr
}

func (Scan) planNode()      {}
func (IndexScan) planNode() {}
func (Filter) planNode()    {}
func (Project) planNode()   {}
func (Sort) planNode()      {}
func (Limit) planNode()     {}
func (Join) planNode()      {}
func (Insert) planNode()    {}
func (Update) planNode()    {}
func (Delete) planNode()    {}

// Build lowers a bound statement to a logical plan tree. DDL statements
// are rejected: the engine driver must intercept them before calling Build.
func Build(stmt bind.BoundStatement) (Node, error) {
	switch s := stmt.(type) {
	case bind.BoundSelect:
		return buildSelect(s), nil
	case bind.BoundInsert:
		return Insert{
			Table:   TableRef{Id: s.Table.Id, Name: s.Table.Name},
			Columns: s.Columns,
			Rows:    s.Rows,
		}, nil
	case bind.BoundUpdate:
		return Update{
			Table:       TableRef{Id: s.Table.Id, Name: s.Table.Name},
			Assignments: s.Assignments,
			Predicate:   s.Where,
		}, nil
	case bind.BoundDelete:
		return Delete{
			Table:     TableRef{Id: s.Table.Id, Name: s.Table.Name},
			Predicate: s.Where,
		}, nil
	default:
		panic("plan: Build called with a DDL or unsupported bound statement")
	}
}

func buildSelect(s bind.BoundSelect) Node {
	var n Node = Scan{Table: TableRef{Id: s.From.Table.Id, Name: s.From.Table.Name}, Alias: s.From.Alias}
	for _, j := range s.Joins {
		right := Scan{Table: TableRef{Id: j.Source.Table.Id, Name: j.Source.Table.Name}, Alias: j.Source.Alias}
		n = Join{Left: n, Right: right, Condition: j.On}
	}
	if s.Where != nil {
		n = Filter{Input: n, Predicate: s.Where}
	}
	names := make([]string, len(s.Projections))
	for i, p := range s.Projections {
		names[i] = p.Name
	}
	n = Project{Input: n, Exprs: s.ProjExprs, Names: names}
	if len(s.OrderBy) > 0 {
		keys := make([]SortKey, len(s.OrderBy))
		for i, o := range s.OrderBy {
			keys[i] = SortKey{Expr: o.Expr, Desc: o.Desc}
		}
		n = Sort{Input: n, Keys: keys}
	}
	if s.Limit != nil || s.Offset != nil {
		n = Limit{Input: n, Count: s.Limit, Offset: s.Offset}
	}
	return n
}
