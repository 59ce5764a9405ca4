// Package catalog is the process-wide in-memory registry mapping table
// and index names to stable identifiers and their metadata (§2, §3 of
// the specification). It owns the monotonic TableId/ColumnId/IndexId
// allocators; nothing outside this package mints one.
//
// Grounded on the teacher's CatalogManager (internal/storage/catalog.go):
// the same mutex-guarded map-of-maps shape and the same RowCount
// bookkeeping field, generalized from string-keyed introspection tables
// to typed ids addressing the storage engine's heap tables and B+Trees.
package catalog

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/storage/pager"
	"github.com/pagequery/pagequery/internal/types"
)

// TableId, ColumnId, and IndexId are opaque, stable, monotonically
// increasing identifiers, never reused within a process (§3).
type TableId uint64
type ColumnId uint64
type IndexId uint64

// Column describes one column of a table's schema.
type Column struct {
	Id       ColumnId
	Name     string
	Type     types.DataType
	Nullable bool
}

// Table is a table's full catalog entry: its schema and its heap table
// location (the page list is owned by the pager.Heap; the catalog keeps
// only the identifying PageIds needed to reopen it).
type Table struct {
	Id         TableId
	Name       string
	Columns    []Column
	HeapPages  []pager.PageID
	RowCount   int64 // estimate; changed only by SetRowCount, which scans do not call
}

// ColumnByName returns the column named n and true, or the zero Column
// and false.
func (t *Table) ColumnByName(n string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == n {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnById returns the column with the given id and true, or the zero Column
// and false.
func (t *Table) ColumnById(id ColumnId) (Column, bool) {
	for _, c := range t.Columns {
		if c.Id == id {
			return c, true
		}
	}
	return Column{}, false
}

// Index is an index's full catalog entry: the table and column it
// covers, and its B+Tree root page and order.
type Index struct {
	Id       IndexId
	Name     string
	Table    TableId
	Column   ColumnId
	Unique   bool
	RootPage pager.PageID
	Order    int
}

// Catalog is the registry. All methods are safe for concurrent use,
// though the engine's single-writer model (§5) means contention is not
// expected in practice.
type Catalog struct {
	mu sync.RWMutex

	nextTableId  atomic.Uint64
	nextColumnId atomic.Uint64
	nextIndexId  atomic.Uint64

	tablesByName map[string]TableId
	tablesById   map[TableId]*Table

	indexesByName  map[string]IndexId
	indexesById    map[IndexId]*Index
	indexesByTable map[TableId][]IndexId
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{
		tablesByName:   make(map[string]TableId),
		tablesById:     make(map[TableId]*Table),
		indexesByName:  make(map[string]IndexId),
		indexesById:    make(map[IndexId]*Index),
		indexesByTable: make(map[TableId][]IndexId),
	}
}

// CreateTable registers a new table named name with the given column
// specs (ids are assigned here). It returns dberr TableExists if the
// name is already taken.
func (c *Catalog) CreateTable(name string, cols []struct {
	Name     string
	Type     types.DataType
	Nullable bool
}) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tablesByName[name]; exists {
		return nil, dberr.New(dberr.LayerPlan, dberr.TableExists, "table %q already exists", name)
	}

	tid := TableId(c.nextTableId.Add(1))
	t := &Table{Id: tid, Name: name}
	for _, cs := range cols {
		t.Columns = append(t.Columns, Column{
			Id:       ColumnId(c.nextColumnId.Add(1)),
			Name:     cs.Name,
			Type:     cs.Type,
			Nullable: cs.Nullable,
		})
	}
	c.tablesByName[name] = tid
	c.tablesById[tid] = t
	return t, nil
}

// GetTableByName returns the table named name.
func (c *Catalog) GetTableByName(name string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.tablesByName[name]
	if !ok {
		return nil, dberr.New(dberr.LayerBind, dberr.UnknownTable, "unknown table %q", name)
	}
	return c.tablesById[id], nil
}

// GetTableById returns the table with the given id.
func (c *Catalog) GetTableById(id TableId) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tablesById[id]
	if !ok {
		return nil, dberr.New(dberr.LayerExec, dberr.TableNotFound, "no table with id %d", id)
	}
	return t, nil
}

// SetHeapPages updates a table's heap page list after mutation (insert
// allocating a new page, for instance).
func (c *Catalog) SetHeapPages(id TableId, pages []pager.PageID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tablesById[id]
	if !ok {
		return dberr.New(dberr.LayerExec, dberr.TableNotFound, "no table with id %d", id)
	}
	cp := make([]pager.PageID, len(pages))
	copy(cp, pages)
	t.HeapPages = cp
	return nil
}

// SetRowCount updates a table's row-count estimate. No scan or other
// engine path calls it, so the estimate keeps its last explicitly set
// value (zero for a new table).
func (c *Catalog) SetRowCount(id TableId, n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tablesById[id]
	if !ok {
		return dberr.New(dberr.LayerExec, dberr.TableNotFound, "no table with id %d", id)
	}
	t.RowCount = n
	return nil
}

// CreateIndex registers a new index named name over table/column. A
// duplicate index name fails with dberr IndexExists: per the engine's
// general "names are unique within their namespace" rule, a duplicate
// create is always an error, never a silent no-op.
func (c *Catalog) CreateIndex(name string, table TableId, column ColumnId, unique bool, root pager.PageID, order int) (*Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.indexesByName[name]; exists {
		return nil, dberr.New(dberr.LayerPlan, dberr.IndexExists, "index %q already exists", name)
	}
	t, ok := c.tablesById[table]
	if !ok {
		return nil, dberr.New(dberr.LayerExec, dberr.TableNotFound, "no table with id %d", table)
	}
	if _, ok := t.ColumnById(column); !ok {
		return nil, dberr.New(dberr.LayerPlan, dberr.CatalogError, "column %d does not belong to table %q", column, t.Name)
	}

	iid := IndexId(c.nextIndexId.Add(1))
	idx := &Index{Id: iid, Name: name, Table: table, Column: column, Unique: unique, RootPage: root, Order: order}
	c.indexesByName[name] = iid
	c.indexesById[iid] = idx
	c.indexesByTable[table] = append(c.indexesByTable[table], iid)
	return idx, nil
}

// GetIndexByName returns the index named name.
func (c *Catalog) GetIndexByName(name string) (*Index, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.indexesByName[name]
	if !ok {
		return nil, dberr.New(dberr.LayerBind, dberr.IndexNotFound, "unknown index %q", name)
	}
	return c.indexesById[id], nil
}

// GetIndexById returns the index with the given id.
func (c *Catalog) GetIndexById(id IndexId) (*Index, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.indexesById[id]
	if !ok {
		return nil, dberr.New(dberr.LayerExec, dberr.IndexNotFound, "no index with id %d", id)
	}
	return idx, nil
}

// SetIndexRoot updates an index's root page after a B+Tree root split
// or collapse.
func (c *Catalog) SetIndexRoot(id IndexId, root pager.PageID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.indexesById[id]
	if !ok {
		return dberr.New(dberr.LayerExec, dberr.IndexNotFound, "no index with id %d", id)
	}
	idx.RootPage = root
	return nil
}

// DropTable removes table name's catalog entry along with every index
// registered on it, so no IndexId is left referencing a table that no
// longer exists. Its heap pages are not reclaimed: pages are allocated
// on demand and never freed (§3), so dropping a table leaks them rather
// than requiring a free-list.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.tablesByName[name]
	if !ok {
		return dberr.New(dberr.LayerBind, dberr.UnknownTable, "unknown table %q", name)
	}
	for _, iid := range c.indexesByTable[id] {
		idx := c.indexesById[iid]
		delete(c.indexesByName, idx.Name)
		delete(c.indexesById, iid)
	}
	delete(c.indexesByTable, id)
	delete(c.tablesByName, name)
	delete(c.tablesById, id)
	return nil
}

// DropIndex removes index name's catalog entry. As with DropTable, the
// underlying B+Tree's pages are leaked rather than reclaimed.
func (c *Catalog) DropIndex(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.indexesByName[name]
	if !ok {
		return dberr.New(dberr.LayerBind, dberr.IndexNotFound, "unknown index %q", name)
	}
	idx := c.indexesById[id]
	delete(c.indexesByName, name)
	delete(c.indexesById, id)
	siblings := c.indexesByTable[idx.Table]
	for i, iid := range siblings {
		if iid == id {
			c.indexesByTable[idx.Table] = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	return nil
}

// IndexesForTable returns every index registered against table, in
// creation order.
func (c *Catalog) IndexesForTable(table TableId) []*Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := c.indexesByTable[table]
	out := make([]*Index, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.indexesById[id])
	}
	return out
}

// FindIndexOnColumn returns the first index covering table's column,
// preferring a unique index over a non-unique one, or nil if none exists.
func (c *Catalog) FindIndexOnColumn(table TableId, column ColumnId) *Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var best *Index
	for _, id := range c.indexesByTable[table] {
		idx := c.indexesById[id]
		if idx.Column != column {
			continue
		}
		if best == nil || (idx.Unique && !best.Unique) {
			best = idx
		}
	}
	return best
}

// TableExists reports whether a table named name is registered.
func (c *Catalog) TableExists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tablesByName[name]
	return ok
}

// IndexExists reports whether an index named name is registered.
func (c *Catalog) IndexExists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.indexesByName[name]
	return ok
}

func (t TableId) String() string  { return fmt.Sprintf("table#%d", uint64(t)) }
func (c ColumnId) String() string { return fmt.Sprintf("col#%d", uint64(c)) }
func (i IndexId) String() string  { return fmt.Sprintf("index#%d", uint64(i)) }
