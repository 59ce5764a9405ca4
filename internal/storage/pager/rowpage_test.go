package pager

import (
	"testing"

	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/types"
)

func newTestRowPage(size int) *RowPage {
	buf := make([]byte, size)
	InitRowPage(buf)
	return NewRowPage(buf)
}

func TestRowPageInsertFetchRoundTrip(t *testing.T) {
	p := newTestRowPage(256)
	row := []types.Value{types.NewInt64(7), types.NewVarchar("hi")}
	slot, err := p.InsertRow(row)
	if err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	got, err := p.FetchRow(slot)
	if err != nil {
		t.Fatalf("FetchRow: %v", err)
	}
	if len(got) != 2 || !got[0].Equal(row[0]) || !got[1].Equal(row[1]) {
		t.Fatalf("got %v, want %v", got, row)
	}
	if p.UsedCount() != 1 || p.SlotCount() != 1 {
		t.Fatalf("UsedCount/SlotCount = %d/%d, want 1/1", p.UsedCount(), p.SlotCount())
	}
}

func TestRowPageDeleteTombstonesSlot(t *testing.T) {
	p := newTestRowPage(256)
	slot, _ := p.InsertRow([]types.Value{types.NewInt32(1)})
	if err := p.DeleteRow(slot); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if p.UsedCount() != 0 {
		t.Fatalf("UsedCount = %d after delete, want 0", p.UsedCount())
	}
	if p.SlotCount() != 1 {
		t.Fatalf("SlotCount = %d after delete, want 1 (tombstone retained)", p.SlotCount())
	}
	if _, err := p.FetchRow(slot); !dberr.Is(err, dberr.InvalidRowId) {
		t.Fatalf("FetchRow on tombstoned slot: got %v, want InvalidRowId", err)
	}
	if err := p.DeleteRow(slot); !dberr.Is(err, dberr.InvalidRowId) {
		t.Fatalf("double delete: got %v, want InvalidRowId", err)
	}
}

func TestRowPageReusesTombstonedSlot(t *testing.T) {
	p := newTestRowPage(256)
	s0, _ := p.InsertRow([]types.Value{types.NewInt32(1)})
	p.InsertRow([]types.Value{types.NewInt32(2)})
	if err := p.DeleteRow(s0); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	before := p.SlotCount()
	s2, err := p.InsertRow([]types.Value{types.NewInt32(3)})
	if err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	if s2 != s0 {
		t.Fatalf("expected reinsert to reuse tombstoned slot %d, got %d", s0, s2)
	}
	if p.SlotCount() != before {
		t.Fatalf("SlotCount grew from %d to %d; reuse should not add a slot", before, p.SlotCount())
	}
}

func TestRowPageFetchOutOfRange(t *testing.T) {
	p := newTestRowPage(256)
	if _, err := p.FetchRow(0); !dberr.Is(err, dberr.InvalidRowId) {
		t.Fatalf("FetchRow on empty page: got %v, want InvalidRowId", err)
	}
}

func TestRowPagePageFullReportsDberr(t *testing.T) {
	p := newTestRowPage(32)
	big := []types.Value{types.NewVarchar(string(make([]byte, 100)))}
	if _, err := p.InsertRow(big); !dberr.Is(err, dberr.PageFull) {
		t.Fatalf("expected PageFull, got %v", err)
	}
}

func TestRowPageScanVisitsLiveRowsInSlotOrder(t *testing.T) {
	p := newTestRowPage(512)
	var slots []SlotID
	for i := 0; i < 5; i++ {
		s, err := p.InsertRow([]types.Value{types.NewInt32(int32(i))})
		if err != nil {
			t.Fatalf("InsertRow %d: %v", i, err)
		}
		slots = append(slots, s)
	}
	p.DeleteRow(slots[1])
	p.DeleteRow(slots[3])

	var seen []int32
	err := p.Scan(func(s SlotID, row []types.Value) (bool, error) {
		seen = append(seen, row[0].I32)
		return true, nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []int32{0, 2, 4}
	if len(seen) != len(want) {
		t.Fatalf("Scan visited %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("Scan visited %v, want %v", seen, want)
		}
	}
}

func TestCanFit(t *testing.T) {
	if !CanFit(4096, 100) {
		t.Fatal("expected a 100 byte record to fit in a 4096 byte page")
	}
	if CanFit(4096, 10000) {
		t.Fatal("expected a 10000 byte record not to fit in a 4096 byte page")
	}
}
