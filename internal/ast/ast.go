// Package ast defines the statement and expression shape the binder
// consumes. The lexer/parser producing these values is an external
// collaborator (§1): this package only fixes the contract, a near
// mirror of the teacher's own parser AST (internal/engine/parser.go's
// VarRef/Literal/Unary/Binary/Select family) trimmed to the surface
// this engine supports — no CTEs, UNION, subqueries, or window
// functions.
package ast

import "github.com/pagequery/pagequery/internal/types"

// Expr is the root interface for scalar expression nodes.
type Expr interface{ exprNode() }

// ColumnRef refers to a column, qualified or not. Table is empty for an
// unqualified reference.
type ColumnRef struct {
	Table  string
	Column string
}

// Literal holds a constant value.
type Literal struct {
	Val types.Value
}

// UnaryExpr represents a unary operator (-, NOT).
type UnaryExpr struct {
	Op   string
	Expr Expr
}

// BinaryExpr represents a binary operator: arithmetic, comparison,
// equality, or AND/OR.
type BinaryExpr struct {
	Op          string
	Left, Right Expr
}

// StarExpr represents SELECT * or SELECT t.* in a projection list.
// Table is empty for an unqualified *.
type StarExpr struct {
	Table string
}

func (ColumnRef) exprNode()  {}
func (Literal) exprNode()    {}
func (UnaryExpr) exprNode()  {}
func (BinaryExpr) exprNode() {}
func (StarExpr) exprNode()   {}

// Statement is the root interface for all parsed statements.
type Statement interface{ stmtNode() }

// FromItem names a source table and its optional alias.
type FromItem struct {
	Table string
	Alias string
}

// JoinClause is an inner join against Right with condition On.
type JoinClause struct {
	Right Right // Right-hand FromItem
	On    Expr
}

// Right is a FromItem alias kept distinct to avoid stuttering at call
// sites (join.Right.Table reads oddly as join.Right.FromItem.Table).
type Right = FromItem

// SelectItem is one projection list entry: Expr (with optional Alias),
// where Expr may be a StarExpr for * or t.*.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// OrderItem specifies one ORDER BY key.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// SelectStmt is a SELECT query and its clauses.
type SelectStmt struct {
	From        FromItem
	Joins       []JoinClause
	Projections []SelectItem
	Where       Expr
	OrderBy     []OrderItem
	Limit       *int64
	Offset      *int64
}

// InsertStmt is an INSERT ... VALUES statement. Rows is a list of value
// tuples, one per row; each tuple's length must match len(Columns) (or
// the table's full column list if Columns is empty).
type InsertStmt struct {
	Table   string
	Columns []string
	Rows    [][]Expr
}

// Assignment is one SET column = expr entry in an UPDATE statement.
type Assignment struct {
	Column string
	Value  Expr
}

// UpdateStmt is an UPDATE ... SET ... WHERE statement.
type UpdateStmt struct {
	Table       string
	Assignments []Assignment
	Where       Expr
}

// DeleteStmt is a DELETE FROM ... WHERE statement.
type DeleteStmt struct {
	Table string
	Where Expr
}

// ColumnDef is one column declaration in a CREATE TABLE statement.
type ColumnDef struct {
	Name     string
	Type     types.DataType
	Nullable bool
}

// CreateTableStmt is a CREATE TABLE statement.
type CreateTableStmt struct {
	Name    string
	Columns []ColumnDef
}

// DropTableStmt is a DROP TABLE statement.
type DropTableStmt struct {
	Name string
}

// CreateIndexStmt is a CREATE INDEX statement.
type CreateIndexStmt struct {
	Name   string
	Table  string
	Column string
	Unique bool
}

// DropIndexStmt is a DROP INDEX statement.
type DropIndexStmt struct {
	Name string
}

// ExplainStmt wraps another statement, requesting its plan (and, if
// Analyze is set, its executed statistics) instead of its result.
type ExplainStmt struct {
	Analyze bool
	Inner   Statement
}

func (SelectStmt) stmtNode()      {}
func (InsertStmt) stmtNode()      {}
func (UpdateStmt) stmtNode()      {}
func (DeleteStmt) stmtNode()      {}
func (CreateTableStmt) stmtNode() {}
func (DropTableStmt) stmtNode()   {}
func (CreateIndexStmt) stmtNode() {}
func (DropIndexStmt) stmtNode()   {}
func (ExplainStmt) stmtNode()     {}
