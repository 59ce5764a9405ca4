package catalog

import (
	"testing"

	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/storage/pager"
	"github.com/pagequery/pagequery/internal/types"
)

func colSpec(name string, typ types.DataType, nullable bool) struct {
	Name     string
	Type     types.DataType
	Nullable bool
} {
	return struct {
		Name     string
		Type     types.DataType
		Nullable bool
	}{name, typ, nullable}
}

func TestCreateTableAssignsIdsAndRejectsDuplicateName(t *testing.T) {
	c := New()
	tbl, err := c.CreateTable("users", []struct {
		Name     string
		Type     types.DataType
		Nullable bool
	}{
		colSpec("id", types.Int64, false),
		colSpec("name", types.Varchar, true),
	})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if tbl.Id == 0 {
		t.Fatal("expected a nonzero TableId")
	}
	if len(tbl.Columns) != 2 || tbl.Columns[0].Id == tbl.Columns[1].Id {
		t.Fatalf("expected two columns with distinct ids, got %+v", tbl.Columns)
	}

	_, err = c.CreateTable("users", nil)
	if !dberr.Is(err, dberr.TableExists) {
		t.Fatalf("expected TableExists, got %v", err)
	}
}

func TestGetTableByNameAndById(t *testing.T) {
	c := New()
	tbl, _ := c.CreateTable("t", []struct {
		Name     string
		Type     types.DataType
		Nullable bool
	}{colSpec("a", types.Int32, false)})

	byName, err := c.GetTableByName("t")
	if err != nil {
		t.Fatalf("GetTableByName: %v", err)
	}
	if byName.Id != tbl.Id {
		t.Fatalf("GetTableByName returned id %d, want %d", byName.Id, tbl.Id)
	}
	if _, err := c.GetTableByName("missing"); !dberr.Is(err, dberr.UnknownTable) {
		t.Fatalf("expected UnknownTable, got %v", err)
	}

	byId, err := c.GetTableById(tbl.Id)
	if err != nil || byId.Name != "t" {
		t.Fatalf("GetTableById: got %+v, err %v", byId, err)
	}
	if _, err := c.GetTableById(TableId(99999)); !dberr.Is(err, dberr.TableNotFound) {
		t.Fatalf("expected TableNotFound, got %v", err)
	}
}

func TestCreateIndexRejectsDuplicateNameAndForeignColumn(t *testing.T) {
	c := New()
	t1, _ := c.CreateTable("t1", []struct {
		Name     string
		Type     types.DataType
		Nullable bool
	}{colSpec("a", types.Int32, false)})
	t2, _ := c.CreateTable("t2", []struct {
		Name     string
		Type     types.DataType
		Nullable bool
	}{colSpec("b", types.Int32, false)})

	idx, err := c.CreateIndex("idx_a", t1.Id, t1.Columns[0].Id, false, pager.PageID(0), 4)
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if idx.Table != t1.Id {
		t.Fatalf("index.Table = %v, want %v", idx.Table, t1.Id)
	}

	if _, err := c.CreateIndex("idx_a", t1.Id, t1.Columns[0].Id, false, 0, 4); !dberr.Is(err, dberr.IndexExists) {
		t.Fatalf("expected IndexExists, got %v", err)
	}

	if _, err := c.CreateIndex("idx_cross", t1.Id, t2.Columns[0].Id, false, 0, 4); !dberr.Is(err, dberr.CatalogError) {
		t.Fatalf("expected CatalogError for a column belonging to another table, got %v", err)
	}
}

func TestFindIndexOnColumnPrefersUnique(t *testing.T) {
	c := New()
	tbl, _ := c.CreateTable("t", []struct {
		Name     string
		Type     types.DataType
		Nullable bool
	}{colSpec("a", types.Int32, false)})
	col := tbl.Columns[0].Id

	if idx := c.FindIndexOnColumn(tbl.Id, col); idx != nil {
		t.Fatalf("expected no index before any CreateIndex, got %+v", idx)
	}

	nonUnique, err := c.CreateIndex("idx_nonunique", tbl.Id, col, false, 0, 4)
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if got := c.FindIndexOnColumn(tbl.Id, col); got.Id != nonUnique.Id {
		t.Fatalf("expected the only index %v, got %v", nonUnique.Id, got.Id)
	}

	unique, err := c.CreateIndex("idx_unique", tbl.Id, col, true, 0, 4)
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if got := c.FindIndexOnColumn(tbl.Id, col); got.Id != unique.Id {
		t.Fatalf("expected unique index %v preferred, got %v", unique.Id, got.Id)
	}
}

func TestSetHeapPagesAndRowCount(t *testing.T) {
	c := New()
	tbl, _ := c.CreateTable("t", []struct {
		Name     string
		Type     types.DataType
		Nullable bool
	}{colSpec("a", types.Int32, false)})

	pages := []pager.PageID{1, 2, 3}
	if err := c.SetHeapPages(tbl.Id, pages); err != nil {
		t.Fatalf("SetHeapPages: %v", err)
	}
	got, _ := c.GetTableById(tbl.Id)
	if len(got.HeapPages) != 3 {
		t.Fatalf("HeapPages = %v, want 3 entries", got.HeapPages)
	}

	if err := c.SetRowCount(tbl.Id, 42); err != nil {
		t.Fatalf("SetRowCount: %v", err)
	}
	got, _ = c.GetTableById(tbl.Id)
	if got.RowCount != 42 {
		t.Fatalf("RowCount = %d, want 42", got.RowCount)
	}
}
