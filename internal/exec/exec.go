// Package exec implements the Volcano-style pull iterators that execute
// a logical plan tree against the storage engine: Scan, IndexScan,
// Filter, Project, Sort, Limit, Join, Insert, Update, Delete (§4.10).
//
// Grounded on the teacher's tree-walking executor (internal/engine/exec.go):
// the same per-operator dispatch and three-valued evaluator rules, but
// restructured from "evaluate the whole statement into a []Row slice"
// into the open/next/close pull-iterator contract the specification
// requires.
package exec

import (
	"context"

	"github.com/pagequery/pagequery/internal/bind"
	"github.com/pagequery/pagequery/internal/catalog"
	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/plan"
	"github.com/pagequery/pagequery/internal/storage/pager"
	"github.com/pagequery/pagequery/internal/types"
)

// Tuple is the row representation flowing through the operator tree.
// Wide holds every column of every joined source, addressed by
// (Source, ordinal-within-source) via the Schema; Output holds the
// current projection's evaluated values once a Project operator has
// run. Operators above a Project (Sort, Limit) still evaluate
// expressions against Wide, since ORDER BY may reference a column not
// present in the select list.
type Tuple struct {
	Wide   []types.Value
	Output []types.Value
}

// SourceSpan records where one FROM/JOIN source's columns live within a
// Wide row: [Offset, Offset+Len).
type SourceSpan struct {
	Table  catalog.TableId
	Offset int
	Len    int
}

// Schema describes how to locate a BoundColumnRef's value inside Wide.
type Schema struct {
	Spans []SourceSpan
}

func (s Schema) offsetOf(source int, colOrdinal int) int {
	return s.Spans[source].Offset + colOrdinal
}

// Iterator is the pull contract every operator implements.
type Iterator interface {
	Open(ctx context.Context) error
	Next() (Tuple, bool, error)
	Close() error
}

// Env holds the resources an operator tree needs: catalog for table
// metadata, buffer pool for heap/index page access, and the B+Tree
// order for new indexes.
type Env struct {
	Cat    *catalog.Catalog
	Pool   *pager.BufferPool
	Order  int // default B+Tree order for newly created indexes
}

// Stats accumulates per-statement execution counters, surfaced in the
// engine driver's Result. It has no storage-ops or rows-filtered
// counter.
type Stats struct {
	RowsRead     int64
	RowsWritten  int64
	RowsDeleted  int64
	IndexLookups int64
}

// columnOrdinal finds c's position within its table's schema.
func columnOrdinal(t *catalog.Table, c catalog.ColumnId) int {
	for i, col := range t.Columns {
		if col.Id == c {
			return i
		}
	}
	return -1
}

// --- Scan -------------------------------------------------------------

// ScanIter performs a full heap scan of a table, in page-then-slot
// order.
type ScanIter struct {
	env   *Env
	table plan.TableRef
	span  SourceSpan
	stats *Stats

	heap *pager.Heap
	rows []heapRow
	pos  int
}

type heapRow struct {
	rid pager.RowID
	row []types.Value
}

// NewScan builds a Scan iterator. span locates this table's columns
// within the Wide row the caller will assemble (Offset 0, Len =
// len(table.Columns) for a single-table query; callers building a join
// tree pass the accumulated offset).
func NewScan(env *Env, stats *Stats, table plan.TableRef, span SourceSpan) *ScanIter {
	return &ScanIter{env: env, table: table, span: span, stats: stats}
}

func (s *ScanIter) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := s.env.Cat.GetTableById(s.table.Id)
	if err != nil {
		return err
	}
	s.heap = pager.OpenHeap(s.env.Pool, t.HeapPages)
	s.rows = s.rows[:0]
	s.pos = 0
	return s.heap.Scan(func(rid pager.RowID, row []types.Value) (bool, error) {
		s.rows = append(s.rows, heapRow{rid: rid, row: row})
		return true, nil
	})
}

func (s *ScanIter) Next() (Tuple, bool, error) {
	if s.pos >= len(s.rows) {
		return Tuple{}, false, nil
	}
	row := s.rows[s.pos].row
	s.pos++
	if s.stats != nil {
		s.stats.RowsRead++
	}
	wide := make([]types.Value, s.span.Offset+s.span.Len)
	copy(wide[s.span.Offset:], row)
	return Tuple{Wide: wide}, true, nil
}

func (s *ScanIter) Close() error { s.rows = nil; return nil }

// --- IndexScan ----------------------------------------------------------

// IndexScanIter reads rows via a B+Tree range scan, re-fetching each
// row from the heap and skipping entries whose slot is deleted. It does
// not evaluate the predicate itself: the optimizer keeps the original
// Filter above it, which re-checks every fetched row (§4.10).
type IndexScanIter struct {
	env   *Env
	table plan.TableRef
	span  SourceSpan
	index catalog.IndexId
	lo    *types.IndexKey
	hi    *types.IndexKey
	stats *Stats

	heap  *pager.Heap
	rows  []heapRow
	pos   int
}

// NewIndexScan builds an IndexScan iterator bounded by [lo, hi] (either
// may be nil).
func NewIndexScan(env *Env, stats *Stats, table plan.TableRef, span SourceSpan, index catalog.IndexId, lo, hi *types.IndexKey) *IndexScanIter {
	return &IndexScanIter{env: env, table: table, span: span, index: index, lo: lo, hi: hi, stats: stats}
}

func (s *IndexScanIter) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := s.env.Cat.GetTableById(s.table.Id)
	if err != nil {
		return err
	}
	idx, err := s.env.Cat.GetIndexById(s.index)
	if err != nil {
		return err
	}
	s.heap = pager.OpenHeap(s.env.Pool, t.HeapPages)
	tree := pager.OpenBTree(s.env.Pool, idx.RootPage, idx.Order)

	s.rows = s.rows[:0]
	s.pos = 0
	err = tree.RangeScan(s.lo, s.hi, func(_ types.IndexKey, rid pager.RowID) (bool, error) {
		if s.stats != nil {
			s.stats.IndexLookups++
		}
		row, err := s.heap.Fetch(rid)
		if err != nil {
			if dberr.Is(err, dberr.InvalidRowId) {
				// Stale index entry pointing at a tombstoned slot: skip it
				// rather than fail the whole scan. (A reused slot fetches
				// fine; the Filter above drops it if it does not match.)
				return true, nil
			}
			return false, err
		}
		s.rows = append(s.rows, heapRow{rid: rid, row: row})
		return true, nil
	})
	return err
}

func (s *IndexScanIter) Next() (Tuple, bool, error) {
	if s.pos >= len(s.rows) {
		return Tuple{}, false, nil
	}
	row := s.rows[s.pos].row
	s.pos++
	if s.stats != nil {
		s.stats.RowsRead++
	}
	wide := make([]types.Value, s.span.Offset+s.span.Len)
	copy(wide[s.span.Offset:], row)
	return Tuple{Wide: wide}, true, nil
}

func (s *IndexScanIter) Close() error { s.rows = nil; return nil }

// --- Filter -------------------------------------------------------------

// FilterIter passes through only tuples whose predicate evaluates to
// Boolean true (three-valued: Null and false both exclude).
type FilterIter struct {
	input  Iterator
	schema Schema
	pred   bind.BoundExpr
}

func NewFilter(input Iterator, schema Schema, pred bind.BoundExpr) *FilterIter {
	return &FilterIter{input: input, schema: schema, pred: pred}
}

func (f *FilterIter) Open(ctx context.Context) error { return f.input.Open(ctx) }

func (f *FilterIter) Next() (Tuple, bool, error) {
	for {
		t, ok, err := f.input.Next()
		if err != nil || !ok {
			return Tuple{}, ok, err
		}
		v, err := Eval(f.pred, f.schema, t.Wide)
		if err != nil {
			return Tuple{}, false, err
		}
		if !v.IsNull() && v.Tag == types.Boolean && v.Bool {
			return t, true, nil
		}
	}
}

func (f *FilterIter) Close() error { return f.input.Close() }

// --- Project --------------------------------------------------------------

// ProjectIter evaluates Exprs against each input row's Wide columns,
// producing Output. When identity is true (the optimizer's
// projection-pruning rule detected a pure column-reorder identity, §4.9
// rule 4), Next skips the generic per-expression evaluator entirely and
// copies Wide straight into Output.
type ProjectIter struct {
	input    Iterator
	schema   Schema
	exprs    []bind.BoundExpr
	identity bool
}

func NewProject(input Iterator, schema Schema, exprs []bind.BoundExpr, identity bool) *ProjectIter {
	return &ProjectIter{input: input, schema: schema, exprs: exprs, identity: identity}
}

func (p *ProjectIter) Open(ctx context.Context) error { return p.input.Open(ctx) }

func (p *ProjectIter) Next() (Tuple, bool, error) {
	t, ok, err := p.input.Next()
	if err != nil || !ok {
		return Tuple{}, ok, err
	}
	if p.identity {
		t.Output = append([]types.Value{}, t.Wide...)
		return t, true, nil
	}
	out := make([]types.Value, len(p.exprs))
	for i, e := range p.exprs {
		v, err := Eval(e, p.schema, t.Wide)
		if err != nil {
			return Tuple{}, false, err
		}
		out[i] = v
	}
	t.Output = out
	return t, true, nil
}

func (p *ProjectIter) Close() error { return p.input.Close() }

// --- Sort -----------------------------------------------------------------

// SortIter materializes its entire input in Open and returns it in
// stable order, with Null after non-Null values for an ascending key and
// before them for a descending key; float keys use the total order (NaN sorts
// greatest) rather than raw IEEE-754 comparison (§4.9 Open Question
// resolution).
type SortIter struct {
	input  Iterator
	schema Schema
	keys   []plan.SortKey

	rows []Tuple
	pos  int
}

func NewSort(input Iterator, schema Schema, keys []plan.SortKey) *SortIter {
	return &SortIter{input: input, schema: schema, keys: keys}
}

func (s *SortIter) Open(ctx context.Context) error {
	if err := s.input.Open(ctx); err != nil {
		return err
	}
	s.rows = s.rows[:0]
	for {
		t, ok, err := s.input.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		s.rows = append(s.rows, t)
	}
	vals := make([][]types.Value, len(s.rows))
	for i, t := range s.rows {
		row := make([]types.Value, len(s.keys))
		for j, k := range s.keys {
			v, err := Eval(k.Expr, s.schema, t.Wide)
			if err != nil {
				return err
			}
			row[j] = v
		}
		vals[i] = row
	}
	stableSortByKeys(s.rows, vals, s.keys)
	s.pos = 0
	return nil
}

func (s *SortIter) Next() (Tuple, bool, error) {
	if s.pos >= len(s.rows) {
		return Tuple{}, false, nil
	}
	t := s.rows[s.pos]
	s.pos++
	return t, true, nil
}

func (s *SortIter) Close() error { s.rows = nil; return s.input.Close() }

// stableSortByKeys sorts rows (and the parallel precomputed key vals)
// together via stable insertion sort on the comparator sortLess, which
// keeps the function small and obviously correct over the modest row
// counts an embedded engine without cost-based planning expects.
func stableSortByKeys(rows []Tuple, vals [][]types.Value, keys []plan.SortKey) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && sortLess(vals[j], vals[j-1], keys); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
			vals[j], vals[j-1] = vals[j-1], vals[j]
		}
	}
}

func sortLess(a, b []types.Value, keys []plan.SortKey) bool {
	for i, k := range keys {
		c := compareSortValues(a[i], b[i])
		if k.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
	}
	return false
}

// compareSortValues compares Null as greater than every non-Null value.
// sortLess negates the result for a Desc key, so Nulls come last in
// ascending order and first in descending order.
func compareSortValues(a, b types.Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}
	return types.CompareValuesTotalOrder(a, b)
}

// --- Limit ------------------------------------------------------------

// LimitIter skips Offset rows then yields at most Count.
type LimitIter struct {
	input  Iterator
	count  *int64
	offset *int64

	skipped int64
	emitted int64
}

func NewLimit(input Iterator, count, offset *int64) *LimitIter {
	return &LimitIter{input: input, count: count, offset: offset}
}

func (l *LimitIter) Open(ctx context.Context) error {
	l.skipped, l.emitted = 0, 0
	return l.input.Open(ctx)
}

func (l *LimitIter) Next() (Tuple, bool, error) {
	if l.count != nil && l.emitted >= *l.count {
		return Tuple{}, false, nil
	}
	for l.offset != nil && l.skipped < *l.offset {
		_, ok, err := l.input.Next()
		if err != nil || !ok {
			return Tuple{}, ok, err
		}
		l.skipped++
	}
	t, ok, err := l.input.Next()
	if err != nil || !ok {
		return Tuple{}, ok, err
	}
	l.emitted++
	return t, true, nil
}

func (l *LimitIter) Close() error { return l.input.Close() }

// --- Join ------------------------------------------------------------

// JoinIter is a nested-loop inner join: the right side is fully
// materialized in Open (§4.10), then matched against each left row.
type JoinIter struct {
	left, right Iterator
	schema      Schema
	cond        bind.BoundExpr

	rightRows []Tuple
	curLeft   Tuple
	haveLeft  bool
	rpos      int
}

func NewJoin(left, right Iterator, schema Schema, cond bind.BoundExpr) *JoinIter {
	return &JoinIter{left: left, right: right, schema: schema, cond: cond}
}

func (j *JoinIter) Open(ctx context.Context) error {
	if err := j.left.Open(ctx); err != nil {
		return err
	}
	if err := j.right.Open(ctx); err != nil {
		return err
	}
	j.rightRows = j.rightRows[:0]
	for {
		t, ok, err := j.right.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		j.rightRows = append(j.rightRows, t)
	}
	j.haveLeft = false
	j.rpos = 0
	return nil
}

func (j *JoinIter) Next() (Tuple, bool, error) {
	for {
		if !j.haveLeft {
			t, ok, err := j.left.Next()
			if err != nil || !ok {
				return Tuple{}, ok, err
			}
			j.curLeft = t
			j.haveLeft = true
			j.rpos = 0
		}
		for j.rpos < len(j.rightRows) {
			r := j.rightRows[j.rpos]
			j.rpos++
			wide := mergeWide(j.curLeft.Wide, r.Wide)
			v, err := Eval(j.cond, j.schema, wide)
			if err != nil {
				return Tuple{}, false, err
			}
			if !v.IsNull() && v.Tag == types.Boolean && v.Bool {
				return Tuple{Wide: wide}, true, nil
			}
		}
		j.haveLeft = false
	}
}

// mergeWide combines a left and a right Wide row into one row wide
// enough to hold both sides' spans. Each side's row is all-Null outside
// its own SourceSpan (see ScanIter.Next), so the wider side's non-Null
// cells always win at any overlapping position.
func mergeWide(left, right []types.Value) []types.Value {
	n := len(left)
	if len(right) > n {
		n = len(right)
	}
	out := make([]types.Value, n)
	for i := range out {
		out[i] = types.Null
	}
	for i, v := range left {
		if !v.IsNull() {
			out[i] = v
		}
	}
	for i, v := range right {
		if !v.IsNull() {
			out[i] = v
		}
	}
	return out
}

func (j *JoinIter) Close() error {
	if err := j.left.Close(); err != nil {
		return err
	}
	return j.right.Close()
}

// --- Insert ------------------------------------------------------------

// InsertIter appends each row to the target heap and every secondary
// index covering an inserted column, yielding one Tuple per inserted
// row (its final stored values) for RowsWritten accounting by the
// caller.
type InsertIter struct {
	env     *Env
	stats   *Stats
	table   plan.TableRef
	columns []int
	rows    [][]bind.BoundExpr

	pos int
}

func NewInsert(env *Env, stats *Stats, table plan.TableRef, columns []int, rows [][]bind.BoundExpr) *InsertIter {
	return &InsertIter{env: env, stats: stats, table: table, columns: columns, rows: rows}
}

func (ins *InsertIter) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ins.pos = 0
	return nil
}

func (ins *InsertIter) Next() (Tuple, bool, error) {
	if ins.pos >= len(ins.rows) {
		return Tuple{}, false, nil
	}
	t, err := ins.env.Cat.GetTableById(ins.table.Id)
	if err != nil {
		return Tuple{}, false, err
	}
	full := make([]types.Value, len(t.Columns))
	for i := range full {
		full[i] = types.Null
	}
	exprRow := ins.rows[ins.pos]
	for i, colIdx := range ins.columns {
		v, err := Eval(exprRow[i], Schema{}, nil)
		if err != nil {
			return Tuple{}, false, err
		}
		full[colIdx] = v
	}

	heap := pager.OpenHeap(ins.env.Pool, t.HeapPages)
	rid, err := heap.Insert(full)
	if err != nil {
		return Tuple{}, false, err
	}
	if err := ins.env.Cat.SetHeapPages(ins.table.Id, heap.Pages()); err != nil {
		return Tuple{}, false, err
	}

	if err := insertIntoIndexes(ins.env, t, full, rid); err != nil {
		return Tuple{}, false, err
	}

	ins.pos++
	if ins.stats != nil {
		ins.stats.RowsWritten++
	}
	return Tuple{Wide: full}, true, nil
}

func (ins *InsertIter) Close() error { return nil }

func insertIntoIndexes(env *Env, t *catalog.Table, row []types.Value, rid pager.RowID) error {
	for _, idx := range env.Cat.IndexesForTable(t.Id) {
		ord := columnOrdinal(t, idx.Column)
		if ord < 0 || row[ord].IsNull() {
			continue
		}
		key, err := types.NewIndexKey(row[ord])
		if err != nil {
			continue
		}
		tree := pager.OpenBTree(env.Pool, idx.RootPage, idx.Order)
		if err := tree.InsertUnique(key, rid, idx.Unique); err != nil {
			return err
		}
		if err := env.Cat.SetIndexRoot(idx.Id, tree.Root()); err != nil {
			return err
		}
	}
	return nil
}

func deleteFromIndexes(env *Env, t *catalog.Table, row []types.Value, rid pager.RowID) error {
	for _, idx := range env.Cat.IndexesForTable(t.Id) {
		ord := columnOrdinal(t, idx.Column)
		if ord < 0 || row[ord].IsNull() {
			continue
		}
		key, err := types.NewIndexKey(row[ord])
		if err != nil {
			continue
		}
		tree := pager.OpenBTree(env.Pool, idx.RootPage, idx.Order)
		if err := tree.Delete(key, rid); err != nil {
			return err
		}
		if err := env.Cat.SetIndexRoot(idx.Id, tree.Root()); err != nil {
			return err
		}
	}
	return nil
}

// --- Update --------------------------------------------------------------

// UpdateIter implements UPDATE as collect-then-mutate: every matching
// row is found first (so the scan is never invalidated by the delete
// it will perform), then each is removed and reinserted with its new
// values. RowId is never preserved across an update (§4.10 Open
// Question resolution).
type UpdateIter struct {
	env     *Env
	stats   *Stats
	table   plan.TableRef
	assigns []bind.BoundAssignment
	pred    bind.BoundExpr
	schema  Schema

	matches []heapRow
	pos     int
}

func NewUpdate(env *Env, stats *Stats, table plan.TableRef, assigns []bind.BoundAssignment, pred bind.BoundExpr) *UpdateIter {
	return &UpdateIter{env: env, stats: stats, table: table, assigns: assigns, pred: pred}
}

func (u *UpdateIter) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := u.env.Cat.GetTableById(u.table.Id)
	if err != nil {
		return err
	}
	span := SourceSpan{Table: t.Id, Offset: 0, Len: len(t.Columns)}
	u.schema = Schema{Spans: []SourceSpan{span}}

	heap := pager.OpenHeap(u.env.Pool, t.HeapPages)
	u.matches = u.matches[:0]
	err = heap.Scan(func(rid pager.RowID, row []types.Value) (bool, error) {
		if u.pred == nil {
			u.matches = append(u.matches, heapRow{rid: rid, row: row})
			return true, nil
		}
		v, err := Eval(u.pred, u.schema, row)
		if err != nil {
			return false, err
		}
		if !v.IsNull() && v.Tag == types.Boolean && v.Bool {
			u.matches = append(u.matches, heapRow{rid: rid, row: row})
		}
		return true, nil
	})
	u.pos = 0
	return err
}

func (u *UpdateIter) Next() (Tuple, bool, error) {
	if u.pos >= len(u.matches) {
		return Tuple{}, false, nil
	}
	m := u.matches[u.pos]
	u.pos++

	t, err := u.env.Cat.GetTableById(u.table.Id)
	if err != nil {
		return Tuple{}, false, err
	}
	newRow := append([]types.Value{}, m.row...)
	for _, a := range u.assigns {
		v, err := Eval(a.Value, u.schema, m.row)
		if err != nil {
			return Tuple{}, false, err
		}
		newRow[a.Column] = v
	}

	heap := pager.OpenHeap(u.env.Pool, t.HeapPages)
	if err := deleteFromIndexes(u.env, t, m.row, m.rid); err != nil {
		return Tuple{}, false, err
	}
	if err := heap.Delete(m.rid); err != nil {
		return Tuple{}, false, err
	}
	newRid, err := heap.Insert(newRow)
	if err != nil {
		return Tuple{}, false, err
	}
	if err := u.env.Cat.SetHeapPages(u.table.Id, heap.Pages()); err != nil {
		return Tuple{}, false, err
	}
	if err := insertIntoIndexes(u.env, t, newRow, newRid); err != nil {
		return Tuple{}, false, err
	}

	if u.stats != nil {
		u.stats.RowsWritten++
	}
	return Tuple{Wide: newRow}, true, nil
}

func (u *UpdateIter) Close() error { u.matches = nil; return nil }

// --- Delete --------------------------------------------------------------

// DeleteIter implements DELETE as collect-then-delete, to avoid
// invalidating the heap scan the predicate evaluation is driving
// (§4.10).
type DeleteIter struct {
	env    *Env
	stats  *Stats
	table  plan.TableRef
	pred   bind.BoundExpr
	schema Schema

	matches []heapRow
	pos     int
}

func NewDelete(env *Env, stats *Stats, table plan.TableRef, pred bind.BoundExpr) *DeleteIter {
	return &DeleteIter{env: env, stats: stats, table: table, pred: pred}
}

func (d *DeleteIter) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := d.env.Cat.GetTableById(d.table.Id)
	if err != nil {
		return err
	}
	span := SourceSpan{Table: t.Id, Offset: 0, Len: len(t.Columns)}
	d.schema = Schema{Spans: []SourceSpan{span}}

	heap := pager.OpenHeap(d.env.Pool, t.HeapPages)
	d.matches = d.matches[:0]
	err = heap.Scan(func(rid pager.RowID, row []types.Value) (bool, error) {
		if d.pred == nil {
			d.matches = append(d.matches, heapRow{rid: rid, row: row})
			return true, nil
		}
		v, err := Eval(d.pred, d.schema, row)
		if err != nil {
			return false, err
		}
		if !v.IsNull() && v.Tag == types.Boolean && v.Bool {
			d.matches = append(d.matches, heapRow{rid: rid, row: row})
		}
		return true, nil
	})
	d.pos = 0
	return err
}

func (d *DeleteIter) Next() (Tuple, bool, error) {
	if d.pos >= len(d.matches) {
		return Tuple{}, false, nil
	}
	m := d.matches[d.pos]
	d.pos++

	t, err := d.env.Cat.GetTableById(d.table.Id)
	if err != nil {
		return Tuple{}, false, err
	}
	heap := pager.OpenHeap(d.env.Pool, t.HeapPages)
	if err := deleteFromIndexes(d.env, t, m.row, m.rid); err != nil {
		return Tuple{}, false, err
	}
	if err := heap.Delete(m.rid); err != nil {
		return Tuple{}, false, err
	}

	if d.stats != nil {
		d.stats.RowsDeleted++
	}
	return Tuple{Wide: m.row}, true, nil
}

func (d *DeleteIter) Close() error { d.matches = nil; return nil }
