package pager

import (
	"testing"

	"github.com/pagequery/pagequery/internal/types"
)

func newTestBTree(t *testing.T, order int) *BTree {
	t.Helper()
	mgr := newTestManager(t)
	bp := NewBufferPool(mgr, 64)
	tree, err := NewBTree(bp, order)
	if err != nil {
		t.Fatalf("NewBTree: %v", err)
	}
	return tree
}

func intKey(n int64) types.IndexKey { return types.IndexKey{Tag: types.KeyInt64, I64: n} }

func TestBTreeInsertSearchRoundTrip(t *testing.T) {
	tree := newTestBTree(t, 4)
	want := make(map[int64]RowID)
	for i := int64(0); i < 100; i++ {
		rid := RowID{Page: PageID(i), Slot: SlotID(i % 7)}
		if err := tree.Insert(intKey(i), rid); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
		want[i] = rid
	}
	for i, rid := range want {
		got, err := tree.Search(intKey(i))
		if err != nil {
			t.Fatalf("Search(%d): %v", i, err)
		}
		if len(got) != 1 || got[0] != rid {
			t.Fatalf("Search(%d) = %v, want [%v]", i, got, rid)
		}
	}
	if got, _ := tree.Search(intKey(-1)); got != nil {
		t.Fatalf("Search of absent key = %v, want nil", got)
	}
}

func TestBTreeDuplicateKeysAccumulateRowIds(t *testing.T) {
	tree := newTestBTree(t, 4)
	k := intKey(42)
	rids := []RowID{{Page: 1, Slot: 1}, {Page: 2, Slot: 2}, {Page: 3, Slot: 3}}
	for _, r := range rids {
		if err := tree.Insert(k, r); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	got, err := tree.Search(k)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != len(rids) {
		t.Fatalf("Search returned %d rids, want %d", len(got), len(rids))
	}
}

func TestBTreeRangeScanOrderedAndBounded(t *testing.T) {
	tree := newTestBTree(t, 4)
	for i := int64(0); i < 50; i++ {
		if err := tree.Insert(intKey(i), RowID{Page: PageID(i)}); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	lo, hi := intKey(10), intKey(20)
	var got []int64
	err := tree.RangeScan(&lo, &hi, func(k types.IndexKey, rid RowID) (bool, error) {
		got = append(got, k.I64)
		return true, nil
	})
	if err != nil {
		t.Fatalf("RangeScan: %v", err)
	}
	if len(got) != 11 {
		t.Fatalf("RangeScan [10,20] returned %d keys, want 11", len(got))
	}
	for i, v := range got {
		if v != int64(10+i) {
			t.Fatalf("RangeScan not in ascending order: %v", got)
		}
	}
}

func TestBTreeRangeScanUnboundedCoversAll(t *testing.T) {
	tree := newTestBTree(t, 4)
	n := 30
	for i := 0; i < n; i++ {
		if err := tree.Insert(intKey(int64(i)), RowID{Page: PageID(i)}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	count := 0
	err := tree.RangeScan(nil, nil, func(k types.IndexKey, rid RowID) (bool, error) {
		count++
		return true, nil
	})
	if err != nil {
		t.Fatalf("RangeScan: %v", err)
	}
	if count != n {
		t.Fatalf("unbounded RangeScan visited %d, want %d", count, n)
	}
}

func TestBTreeRangeScanEarlyStop(t *testing.T) {
	tree := newTestBTree(t, 4)
	for i := int64(0); i < 20; i++ {
		tree.Insert(intKey(i), RowID{Page: PageID(i)})
	}
	count := 0
	err := tree.RangeScan(nil, nil, func(k types.IndexKey, rid RowID) (bool, error) {
		count++
		return count < 5, nil
	})
	if err != nil {
		t.Fatalf("RangeScan: %v", err)
	}
	if count != 5 {
		t.Fatalf("RangeScan with early stop visited %d, want 5", count)
	}
}

func TestBTreeDeleteRemovesRowAndRebalances(t *testing.T) {
	tree := newTestBTree(t, 4)
	n := 200
	for i := 0; i < n; i++ {
		if err := tree.Insert(intKey(int64(i)), RowID{Page: PageID(i)}); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	// Delete every third key: forces leaf underflow, borrowing, and
	// merging across much of the tree.
	for i := 0; i < n; i += 3 {
		if err := tree.Delete(intKey(int64(i)), RowID{Page: PageID(i)}); err != nil {
			t.Fatalf("Delete(%d): %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		got, err := tree.Search(intKey(int64(i)))
		if err != nil {
			t.Fatalf("Search(%d) after delete pass: %v", i, err)
		}
		if i%3 == 0 {
			if got != nil {
				t.Fatalf("Search(%d) = %v after delete, want nil", i, got)
			}
		} else if len(got) != 1 {
			t.Fatalf("Search(%d) = %v, want exactly one surviving rid", i, got)
		}
	}
	// The surviving keys must still be reachable, in order, via RangeScan.
	var seen []int64
	err := tree.RangeScan(nil, nil, func(k types.IndexKey, rid RowID) (bool, error) {
		seen = append(seen, k.I64)
		return true, nil
	})
	if err != nil {
		t.Fatalf("RangeScan after deletes: %v", err)
	}
	want := n - (n+2)/3
	if len(seen) != want {
		t.Fatalf("RangeScan after deletes saw %d keys, want %d", len(seen), want)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Fatalf("RangeScan after deletes not strictly ascending at %d: %v", i, seen)
		}
	}
}

func TestBTreeDeleteAllCollapsesToEmptyLeafRoot(t *testing.T) {
	tree := newTestBTree(t, 4)
	n := 50
	for i := 0; i < n; i++ {
		tree.Insert(intKey(int64(i)), RowID{Page: PageID(i)})
	}
	for i := 0; i < n; i++ {
		if err := tree.Delete(intKey(int64(i)), RowID{Page: PageID(i)}); err != nil {
			t.Fatalf("Delete(%d): %v", i, err)
		}
	}
	count := 0
	err := tree.RangeScan(nil, nil, func(k types.IndexKey, rid RowID) (bool, error) {
		count++
		return true, nil
	})
	if err != nil {
		t.Fatalf("RangeScan: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty tree after deleting every key, found %d", count)
	}
}

func TestBTreeDeleteOneOfMultipleRowIdsKeepsKey(t *testing.T) {
	tree := newTestBTree(t, 4)
	k := intKey(7)
	r1, r2 := RowID{Page: 1}, RowID{Page: 2}
	tree.Insert(k, r1)
	tree.Insert(k, r2)
	if err := tree.Delete(k, r1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := tree.Search(k)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0] != r2 {
		t.Fatalf("Search after partial delete = %v, want [%v]", got, r2)
	}
}
