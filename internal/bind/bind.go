// Package bind resolves an ast.Statement against the catalog into a
// BoundStatement: table references become catalog.TableId, column
// references become catalog.ColumnId, and every expression is
// type-checked against the §4.7 type rules.
//
// Grounded on the teacher's resolveColumn/typeCheck pass folded into
// its executor (internal/engine/exec.go); here it is pulled out into
// its own pipeline stage ahead of planning, matching the specification's
// explicit binder/planner/optimizer/executor separation.
package bind

import (
	"github.com/pagequery/pagequery/internal/ast"
	"github.com/pagequery/pagequery/internal/catalog"
	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/types"
)

// Op is the IR operator enum expressions are lowered to.
type Op string

const (
	OpAdd    Op = "+"
	OpSub    Op = "-"
	OpMul    Op = "*"
	OpDiv    Op = "/"
	OpEq     Op = "="
	OpNeq    Op = "<>"
	OpLt     Op = "<"
	OpLte    Op = "<="
	OpGt     Op = ">"
	OpGte    Op = ">="
	OpAnd    Op = "AND"
	OpOr     Op = "OR"
	OpNot    Op = "NOT"
	OpNeg    Op = "NEG"
	OpIsNull Op = "IS NULL"
)

// BoundExpr is a type-checked scalar expression. Its DataType is not
// carried on the node: bindExpr returns it alongside the node, the
// binder checks it there, and only a SELECT's output column types are
// kept after binding.
type BoundExpr interface{ boundExprNode() }

// BoundColumnRef names a resolved column by id, carrying the source
// index of the FROM/JOIN item it came from (for multi-table scope
// resolution during execution) and Ordinal, its position within that
// table's schema — the executor's Wide row addresses columns by
// position, not by the catalog's global ColumnId.
type BoundColumnRef struct {
	Table   catalog.TableId
	Column  catalog.ColumnId
	Ordinal int
	Source  int
}

// BoundLiteral is a constant value.
type BoundLiteral struct{ Val types.Value }

// BoundUnary is a unary IR operator application.
type BoundUnary struct {
	Op   Op
	Expr BoundExpr
}

// BoundBinary is a binary IR operator application.
type BoundBinary struct {
	Op          Op
	Left, Right BoundExpr
}

func (BoundColumnRef) boundExprNode() {}
func (BoundLiteral) boundExprNode()   {}
func (BoundUnary) boundExprNode()     {}
func (BoundBinary) boundExprNode()    {}

// OutputColumn names one column of a bound statement's result shape.
type OutputColumn struct {
	Name string
	Type types.DataType
}

// BoundSource is one resolved FROM/JOIN table, in scope order.
type BoundSource struct {
	Table TableRef
	Alias string
}

// TableRef names a resolved table.
type TableRef struct {
	Id   catalog.TableId
	Name string
}

// BoundJoin pairs a resolved source with its join condition.
type BoundJoin struct {
	Source BoundSource
	On     BoundExpr
}

// BoundSelect is a fully resolved, type-checked SELECT.
type BoundSelect struct {
	From        BoundSource
	Joins       []BoundJoin
	Projections []OutputColumn
	ProjExprs   []BoundExpr
	Where       BoundExpr
	OrderBy     []BoundOrderItem
	Limit       *int64
	Offset      *int64
}

// BoundOrderItem is one resolved ORDER BY key.
type BoundOrderItem struct {
	Expr BoundExpr
	Desc bool
}

// BoundInsert is a fully resolved INSERT.
type BoundInsert struct {
	Table TableRef
	// Columns gives, for each value in a row tuple, which catalog
	// column it targets (by index into the table's schema).
	Columns []int
	Rows    [][]BoundExpr
}

// BoundAssignment is one resolved SET column = expr entry.
type BoundAssignment struct {
	Column int // index into the table's schema
	Value  BoundExpr
}

// BoundUpdate is a fully resolved UPDATE.
type BoundUpdate struct {
	Table       TableRef
	Assignments []BoundAssignment
	Where       BoundExpr
}

// BoundDelete is a fully resolved DELETE.
type BoundDelete struct {
	Table TableRef
	Where BoundExpr
}

// BoundCreateTable, BoundDropTable, BoundCreateIndex, and BoundDropIndex
// pass DDL statements through with only name validation; the engine
// driver executes them directly against the catalog (§4.8: "DDL bypasses
// the planner entirely").
type BoundCreateTable struct {
	Name    string
	Columns []ast.ColumnDef
}
type BoundDropTable struct{ Name string }
type BoundCreateIndex struct {
	Name   string
	Table  TableRef
	Column int
	Unique bool
}
type BoundDropIndex struct{ Name string }

// BoundExplain wraps another bound statement.
type BoundExplain struct {
	Analyze bool
	Inner   BoundStatement
}

// BoundStatement is the binder's output: the root of every statement
// kind after resolution and type-checking.
type BoundStatement interface{ boundStmtNode() }

func (BoundSelect) boundStmtNode()      {}
func (BoundInsert) boundStmtNode()      {}
func (BoundUpdate) boundStmtNode()      {}
func (BoundDelete) boundStmtNode()      {}
func (BoundCreateTable) boundStmtNode() {}
func (BoundDropTable) boundStmtNode()   {}
func (BoundCreateIndex) boundStmtNode() {}
func (BoundDropIndex) boundStmtNode()   {}
func (BoundExplain) boundStmtNode()     {}

// scopeEntry is one name's resolution target within a FROM/JOIN scope.
type scopeEntry struct {
	table   catalog.TableId
	column  catalog.ColumnId
	ordinal int
	typ     types.DataType
	source  int
}

// scope maps both qualified (alias.column) and unqualified (column)
// names to their resolution, built up left-to-right across FROM/JOIN
// (§4.7 "FROM builds name→(ColumnId, DataType); joins merge scopes").
type scope struct {
	byQualified map[string]scopeEntry
	byBare      map[string][]scopeEntry // >1 entries means ambiguous
	sources     []BoundSource
}

func newScope() *scope {
	return &scope{byQualified: map[string]scopeEntry{}, byBare: map[string][]scopeEntry{}}
}

func (s *scope) addTable(cat *catalog.Catalog, fi ast.FromItem) (BoundSource, error) {
	t, err := cat.GetTableByName(fi.Table)
	if err != nil {
		return BoundSource{}, err
	}
	alias := fi.Alias
	if alias == "" {
		alias = fi.Table
	}
	src := len(s.sources)
	for ord, c := range t.Columns {
		e := scopeEntry{table: t.Id, column: c.Id, ordinal: ord, typ: c.Type, source: src}
		s.byQualified[alias+"."+c.Name] = e
		s.byBare[c.Name] = append(s.byBare[c.Name], e)
	}
	bs := BoundSource{Table: TableRef{Id: t.Id, Name: t.Name}, Alias: alias}
	s.sources = append(s.sources, bs)
	return bs, nil
}

func (s *scope) resolve(ref ast.ColumnRef) (scopeEntry, error) {
	if ref.Table != "" {
		e, ok := s.byQualified[ref.Table+"."+ref.Column]
		if !ok {
			return scopeEntry{}, dberr.New(dberr.LayerBind, dberr.UnknownColumn, "unknown column %q.%q", ref.Table, ref.Column)
		}
		return e, nil
	}
	entries, ok := s.byBare[ref.Column]
	if !ok || len(entries) == 0 {
		return scopeEntry{}, dberr.New(dberr.LayerBind, dberr.UnknownColumn, "unknown column %q", ref.Column)
	}
	if len(entries) > 1 {
		return scopeEntry{}, dberr.New(dberr.LayerBind, dberr.AmbiguousColumn, "column %q is ambiguous across joined tables", ref.Column)
	}
	return entries[0], nil
}

func indexOfSource(sources []BoundSource, bs BoundSource) int {
	for i, s := range sources {
		if s == bs {
			return i
		}
	}
	return -1
}

// Binder resolves statements against a fixed catalog snapshot.
type Binder struct {
	cat *catalog.Catalog
}

// New returns a Binder resolving names against cat.
func New(cat *catalog.Catalog) *Binder {
	return &Binder{cat: cat}
}

// Bind type-checks and resolves stmt.
func (b *Binder) Bind(stmt ast.Statement) (BoundStatement, error) {
	switch s := stmt.(type) {
	case ast.SelectStmt:
		return b.bindSelect(s)
	case ast.InsertStmt:
		return b.bindInsert(s)
	case ast.UpdateStmt:
		return b.bindUpdate(s)
	case ast.DeleteStmt:
		return b.bindDelete(s)
	case ast.CreateTableStmt:
		return BoundCreateTable{Name: s.Name, Columns: s.Columns}, nil
	case ast.DropTableStmt:
		if _, err := b.cat.GetTableByName(s.Name); err != nil {
			return nil, err
		}
		return BoundDropTable{Name: s.Name}, nil
	case ast.CreateIndexStmt:
		return b.bindCreateIndex(s)
	case ast.DropIndexStmt:
		if _, err := b.cat.GetIndexByName(s.Name); err != nil {
			return nil, err
		}
		return BoundDropIndex{Name: s.Name}, nil
	case ast.ExplainStmt:
		inner, err := b.Bind(s.Inner)
		if err != nil {
			return nil, err
		}
		return BoundExplain{Analyze: s.Analyze, Inner: inner}, nil
	default:
		return nil, dberr.New(dberr.LayerBind, dberr.NotImplemented, "unsupported statement type %T", stmt)
	}
}

func (b *Binder) bindSelect(s ast.SelectStmt) (BoundStatement, error) {
	sc := newScope()
	from, err := sc.addTable(b.cat, s.From)
	if err != nil {
		return nil, err
	}

	var joins []BoundJoin
	for _, j := range s.Joins {
		src, err := sc.addTable(b.cat, j.Right)
		if err != nil {
			return nil, err
		}
		cond, _, err := b.bindExpr(sc, j.On)
		if err != nil {
			return nil, err
		}
		if t, _ := b.exprType(sc, j.On); t != types.Boolean && t != types.NullType {
			return nil, dberr.New(dberr.LayerBind, dberr.TypeMismatchBinary, "join condition must be boolean, got %s", t)
		}
		joins = append(joins, BoundJoin{Source: src, On: cond})
	}

	if len(s.Projections) == 0 {
		return nil, dberr.New(dberr.LayerBind, dberr.EmptyProject, "select list is empty")
	}

	var outCols []OutputColumn
	var projExprs []BoundExpr
	for _, item := range s.Projections {
		if star, ok := item.Expr.(ast.StarExpr); ok {
			if star.Table != "" {
				return nil, dberr.New(dberr.LayerBind, dberr.NotImplemented, "qualified t.* projection is not supported")
			}
			for _, bs := range sc.sources {
				tbl, err := b.cat.GetTableById(bs.Table.Id)
				if err != nil {
					return nil, err
				}
				for ord, c := range tbl.Columns {
					outCols = append(outCols, OutputColumn{Name: c.Name, Type: c.Type})
					projExprs = append(projExprs, BoundColumnRef{Table: bs.Table.Id, Column: c.Id, Ordinal: ord, Source: indexOfSource(sc.sources, bs)})
				}
			}
			continue
		}
		be, typ, err := b.bindExpr(sc, item.Expr)
		if err != nil {
			return nil, err
		}
		name := item.Alias
		if name == "" {
			if cr, ok := item.Expr.(ast.ColumnRef); ok {
				name = cr.Column
			} else {
				name = "?column?"
			}
		}
		outCols = append(outCols, OutputColumn{Name: name, Type: typ})
		projExprs = append(projExprs, be)
	}

	var where BoundExpr
	if s.Where != nil {
		w, typ, err := b.bindExpr(sc, s.Where)
		if err != nil {
			return nil, err
		}
		if typ != types.Boolean && typ != types.NullType {
			return nil, dberr.New(dberr.LayerBind, dberr.TypeMismatchBinary, "WHERE must be boolean, got %s", typ)
		}
		where = w
	}

	var order []BoundOrderItem
	for _, o := range s.OrderBy {
		be, _, err := b.bindExpr(sc, o.Expr)
		if err != nil {
			return nil, err
		}
		order = append(order, BoundOrderItem{Expr: be, Desc: o.Desc})
	}

	return BoundSelect{
		From:        from,
		Joins:       joins,
		Projections: outCols,
		ProjExprs:   projExprs,
		Where:       where,
		OrderBy:     order,
		Limit:       s.Limit,
		Offset:      s.Offset,
	}, nil
}

func (b *Binder) bindInsert(s ast.InsertStmt) (BoundStatement, error) {
	t, err := b.cat.GetTableByName(s.Table)
	if err != nil {
		return nil, err
	}
	targetCols := s.Columns
	if len(targetCols) == 0 {
		for _, c := range t.Columns {
			targetCols = append(targetCols, c.Name)
		}
	}
	colIdx := make([]int, len(targetCols))
	colTypes := make([]types.DataType, len(targetCols))
	for i, name := range targetCols {
		idx := -1
		for j, c := range t.Columns {
			if c.Name == name {
				idx = j
				break
			}
		}
		if idx == -1 {
			return nil, dberr.New(dberr.LayerBind, dberr.UnknownColumn, "unknown column %q in table %q", name, t.Name)
		}
		colIdx[i] = idx
		colTypes[i] = t.Columns[idx].Type
	}

	rows := make([][]BoundExpr, 0, len(s.Rows))
	for _, r := range s.Rows {
		if len(r) != len(targetCols) {
			return nil, dberr.New(dberr.LayerBind, dberr.ColumnCountMismatch, "row has %d values, expected %d", len(r), len(targetCols))
		}
		bound := make([]BoundExpr, len(r))
		for i, e := range r {
			be, typ, err := b.bindExpr(nil, e)
			if err != nil {
				return nil, err
			}
			if typ != types.NullType && typ != colTypes[i] {
				return nil, dberr.New(dberr.LayerBind, dberr.TypeMismatchBinary, "column %q expects %s, got %s", targetCols[i], colTypes[i], typ)
			}
			bound[i] = be
		}
		rows = append(rows, bound)
	}

	return BoundInsert{Table: TableRef{Id: t.Id, Name: t.Name}, Columns: colIdx, Rows: rows}, nil
}

func (b *Binder) bindUpdate(s ast.UpdateStmt) (BoundStatement, error) {
	t, err := b.cat.GetTableByName(s.Table)
	if err != nil {
		return nil, err
	}
	sc := newScope()
	if _, err := sc.addTable(b.cat, ast.FromItem{Table: s.Table}); err != nil {
		return nil, err
	}

	var assigns []BoundAssignment
	for _, a := range s.Assignments {
		idx := -1
		for j, c := range t.Columns {
			if c.Name == a.Column {
				idx = j
				break
			}
		}
		if idx == -1 {
			return nil, dberr.New(dberr.LayerBind, dberr.UnknownColumn, "unknown column %q in table %q", a.Column, t.Name)
		}
		be, typ, err := b.bindExpr(sc, a.Value)
		if err != nil {
			return nil, err
		}
		if typ != types.NullType && typ != t.Columns[idx].Type {
			return nil, dberr.New(dberr.LayerBind, dberr.TypeMismatchBinary, "column %q expects %s, got %s", a.Column, t.Columns[idx].Type, typ)
		}
		assigns = append(assigns, BoundAssignment{Column: idx, Value: be})
	}

	var where BoundExpr
	if s.Where != nil {
		w, typ, err := b.bindExpr(sc, s.Where)
		if err != nil {
			return nil, err
		}
		if typ != types.Boolean && typ != types.NullType {
			return nil, dberr.New(dberr.LayerBind, dberr.TypeMismatchBinary, "WHERE must be boolean, got %s", typ)
		}
		where = w
	}

	return BoundUpdate{Table: TableRef{Id: t.Id, Name: t.Name}, Assignments: assigns, Where: where}, nil
}

func (b *Binder) bindDelete(s ast.DeleteStmt) (BoundStatement, error) {
	t, err := b.cat.GetTableByName(s.Table)
	if err != nil {
		return nil, err
	}
	sc := newScope()
	if _, err := sc.addTable(b.cat, ast.FromItem{Table: s.Table}); err != nil {
		return nil, err
	}
	var where BoundExpr
	if s.Where != nil {
		w, typ, err := b.bindExpr(sc, s.Where)
		if err != nil {
			return nil, err
		}
		if typ != types.Boolean && typ != types.NullType {
			return nil, dberr.New(dberr.LayerBind, dberr.TypeMismatchBinary, "WHERE must be boolean, got %s", typ)
		}
		where = w
	}
	return BoundDelete{Table: TableRef{Id: t.Id, Name: t.Name}, Where: where}, nil
}

func (b *Binder) bindCreateIndex(s ast.CreateIndexStmt) (BoundStatement, error) {
	t, err := b.cat.GetTableByName(s.Table)
	if err != nil {
		return nil, err
	}
	idx := -1
	for j, c := range t.Columns {
		if c.Name == s.Column {
			idx = j
			break
		}
	}
	if idx == -1 {
		return nil, dberr.New(dberr.LayerBind, dberr.UnknownColumn, "unknown column %q in table %q", s.Column, t.Name)
	}
	return BoundCreateIndex{Name: s.Name, Table: TableRef{Id: t.Id, Name: t.Name}, Column: idx, Unique: s.Unique}, nil
}

// bindExpr resolves and type-checks e within scope sc (nil for contexts
// with no FROM, e.g. INSERT value lists), returning the bound node and
// its inferred type.
func (b *Binder) bindExpr(sc *scope, e ast.Expr) (BoundExpr, types.DataType, error) {
	switch n := e.(type) {
	case ast.Literal:
		return BoundLiteral{Val: n.Val}, n.Val.Tag, nil
	case ast.ColumnRef:
		if sc == nil {
			return nil, types.NullType, dberr.New(dberr.LayerBind, dberr.UnknownColumn, "column reference %q not valid in this context", n.Column)
		}
		entry, err := sc.resolve(n)
		if err != nil {
			return nil, types.NullType, err
		}
		return BoundColumnRef{Table: entry.table, Column: entry.column, Ordinal: entry.ordinal, Source: entry.source}, entry.typ, nil
	case ast.UnaryExpr:
		inner, typ, err := b.bindExpr(sc, n.Expr)
		if err != nil {
			return nil, types.NullType, err
		}
		switch n.Op {
		case "NOT":
			if typ != types.Boolean && typ != types.NullType {
				return nil, types.NullType, dberr.New(dberr.LayerBind, dberr.TypeMismatchUnary, "NOT requires boolean, got %s", typ)
			}
			return BoundUnary{Op: OpNot, Expr: inner}, types.Boolean, nil
		case "-":
			if !typ.IsNumeric() && typ != types.NullType {
				return nil, types.NullType, dberr.New(dberr.LayerBind, dberr.TypeMismatchUnary, "unary - requires numeric, got %s", typ)
			}
			return BoundUnary{Op: OpNeg, Expr: inner}, typ, nil
		default:
			return nil, types.NullType, dberr.New(dberr.LayerBind, dberr.NotImplemented, "unary operator %q", n.Op)
		}
	case ast.BinaryExpr:
		return b.bindBinary(sc, n)
	default:
		return nil, types.NullType, dberr.New(dberr.LayerBind, dberr.NotImplemented, "unsupported expression %T", e)
	}
}

func (b *Binder) bindBinary(sc *scope, n ast.BinaryExpr) (BoundExpr, types.DataType, error) {
	left, ltyp, err := b.bindExpr(sc, n.Left)
	if err != nil {
		return nil, types.NullType, err
	}
	right, rtyp, err := b.bindExpr(sc, n.Right)
	if err != nil {
		return nil, types.NullType, err
	}

	switch n.Op {
	case "+", "-", "*", "/":
		if !(ltyp.IsNumeric() || ltyp == types.NullType) || !(rtyp.IsNumeric() || rtyp == types.NullType) {
			return nil, types.NullType, dberr.New(dberr.LayerBind, dberr.TypeMismatchBinary, "arithmetic requires numeric operands, got %s and %s", ltyp, rtyp)
		}
		resType := ltyp
		if ltyp == types.NullType {
			resType = rtyp
		}
		if ltyp != types.NullType && rtyp != types.NullType && ltyp != rtyp {
			return nil, types.NullType, dberr.New(dberr.LayerBind, dberr.TypeMismatchBinary, "arithmetic requires matching numeric types, got %s and %s", ltyp, rtyp)
		}
		return BoundBinary{Op: Op(n.Op), Left: left, Right: right}, resType, nil
	case "=", "<>", "<", "<=", ">", ">=":
		if ltyp != types.NullType && rtyp != types.NullType && ltyp != rtyp {
			return nil, types.NullType, dberr.New(dberr.LayerBind, dberr.TypeMismatchBinary, "comparison requires equal types, got %s and %s", ltyp, rtyp)
		}
		return BoundBinary{Op: Op(n.Op), Left: left, Right: right}, types.Boolean, nil
	case "AND", "OR":
		if (ltyp != types.Boolean && ltyp != types.NullType) || (rtyp != types.Boolean && rtyp != types.NullType) {
			return nil, types.NullType, dberr.New(dberr.LayerBind, dberr.TypeMismatchBinary, "%s requires boolean operands, got %s and %s", n.Op, ltyp, rtyp)
		}
		return BoundBinary{Op: Op(n.Op), Left: left, Right: right}, types.Boolean, nil
	default:
		return nil, types.NullType, dberr.New(dberr.LayerBind, dberr.NotImplemented, "binary operator %q", n.Op)
	}
}

// exprType re-derives an expression's type by binding it again and
// discarding the bound node, used where only the type is needed (join
// condition checks).
func (b *Binder) exprType(sc *scope, e ast.Expr) (types.DataType, error) {
	_, typ, err := b.bindExpr(sc, e)
	return typ, err
}
