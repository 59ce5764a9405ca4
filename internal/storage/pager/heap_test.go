package pager

import (
	"testing"

	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/types"
)

func TestHeapInsertFetchRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	bp := NewBufferPool(mgr, 8)
	h := NewHeap(bp)

	rid, err := h.Insert([]types.Value{types.NewInt64(1), types.NewVarchar("a")})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	row, err := h.Fetch(rid)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !row[0].Equal(types.NewInt64(1)) || !row[1].Equal(types.NewVarchar("a")) {
		t.Fatalf("Fetch returned %v, want [1, a]", row)
	}
}

func TestHeapRowIdsAreDistinct(t *testing.T) {
	mgr := newTestManager(t)
	bp := NewBufferPool(mgr, 8)
	h := NewHeap(bp)

	seen := make(map[RowID]bool)
	for i := 0; i < 200; i++ {
		rid, err := h.Insert([]types.Value{types.NewInt64(int64(i))})
		if err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
		if seen[rid] {
			t.Fatalf("duplicate RowID %v at insert %d", rid, i)
		}
		seen[rid] = true
	}
}

func TestHeapOverflowsToNewPage(t *testing.T) {
	mgr := newTestManager(t)
	bp := NewBufferPool(mgr, 8)
	h := NewHeap(bp)

	// A page is a few KB; inserting enough rows must force at least one
	// additional page allocation.
	big := make([]byte, 512)
	for i := 0; i < 50; i++ {
		if _, err := h.Insert([]types.Value{types.NewBlob(big)}); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}
	if len(h.Pages()) < 2 {
		t.Fatalf("expected heap to span multiple pages, got %d", len(h.Pages()))
	}
}

func TestHeapScanVisitsEveryLiveRowInPageSlotOrder(t *testing.T) {
	mgr := newTestManager(t)
	bp := NewBufferPool(mgr, 8)
	h := NewHeap(bp)

	var rids []RowID
	for i := 0; i < 10; i++ {
		rid, err := h.Insert([]types.Value{types.NewInt32(int32(i))})
		if err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
		rids = append(rids, rid)
	}
	if err := h.Delete(rids[3]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := h.Delete(rids[7]); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var got []int32
	err := h.Scan(func(rid RowID, row []types.Value) (bool, error) {
		got = append(got, row[0].I32)
		return true, nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []int32{0, 1, 2, 4, 5, 6, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("Scan visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Scan visited %v, want %v", got, want)
		}
	}
}

func TestHeapFetchDeletedRowFails(t *testing.T) {
	mgr := newTestManager(t)
	bp := NewBufferPool(mgr, 8)
	h := NewHeap(bp)

	rid, _ := h.Insert([]types.Value{types.NewInt32(1)})
	if err := h.Delete(rid); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := h.Fetch(rid); !dberr.Is(err, dberr.InvalidRowId) {
		t.Fatalf("Fetch of deleted row: got %v, want InvalidRowId", err)
	}
}

func TestOpenHeapReconstructsFromPageList(t *testing.T) {
	mgr := newTestManager(t)
	bp := NewBufferPool(mgr, 8)
	h := NewHeap(bp)
	h.Insert([]types.Value{types.NewInt32(1)})
	h.Insert([]types.Value{types.NewInt32(2)})
	pages := h.Pages()

	reopened := OpenHeap(bp, pages)
	var count int
	err := reopened.Scan(func(rid RowID, row []types.Value) (bool, error) {
		count++
		return true, nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != 2 {
		t.Fatalf("reopened heap scanned %d rows, want 2", count)
	}
}
