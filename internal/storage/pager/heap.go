package pager

import (
	"sync"

	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/types"
)

// Heap is an unordered heap table: an append-mostly sequence of row pages
// addressed by (PageID, SlotID). It is the storage representation behind
// every base table (§4.4). A single mutex guards the page list, matching
// the engine's single-writer model (§5) — row-page mutation itself still
// goes through the BufferPool's own pin/dirty bookkeeping.
type Heap struct {
	mu    sync.Mutex
	pool  *BufferPool
	pages []PageID
}

// NewHeap creates an empty heap table over pool.
func NewHeap(pool *BufferPool) *Heap {
	return &Heap{pool: pool}
}

// OpenHeap reconstructs a Heap view over an existing, already-populated
// set of pages (read back from catalog metadata at startup).
func OpenHeap(pool *BufferPool, pages []PageID) *Heap {
	cp := make([]PageID, len(pages))
	copy(cp, pages)
	return &Heap{pool: pool, pages: cp}
}

// Pages returns the heap's current page list, for catalog persistence.
func (h *Heap) Pages() []PageID {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]PageID, len(h.pages))
	copy(cp, h.pages)
	return cp
}

// Insert appends row to the heap, reusing free space on the last page
// before allocating a new one, and returns the row's stable RowID.
func (h *Heap) Insert(row []types.Value) (RowID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.pages) > 0 {
		last := h.pages[len(h.pages)-1]
		buf, err := h.pool.FetchPage(last)
		if err != nil {
			return RowID{}, err
		}
		rp := NewRowPage(buf)
		slot, err := rp.InsertRow(row)
		if err == nil {
			h.pool.UnpinPage(last, true)
			return RowID{Page: last, Slot: slot}, nil
		}
		h.pool.UnpinPage(last, false)
		if !dberr.Is(err, dberr.PageFull) {
			return RowID{}, err
		}
	}

	id, buf := h.pool.AllocatePage()
	InitRowPage(buf)
	rp := NewRowPage(buf)
	slot, err := rp.InsertRow(row)
	if err != nil {
		h.pool.UnpinPage(id, true)
		return RowID{}, err
	}
	h.pages = append(h.pages, id)
	h.pool.UnpinPage(id, true)
	return RowID{Page: id, Slot: slot}, nil
}

// Fetch reads the row stored at rid.
func (h *Heap) Fetch(rid RowID) ([]types.Value, error) {
	buf, err := h.pool.FetchPage(rid.Page)
	if err != nil {
		return nil, err
	}
	defer h.pool.UnpinPage(rid.Page, false)
	rp := NewRowPage(buf)
	return rp.FetchRow(rid.Slot)
}

// Delete tombstones the row at rid.
func (h *Heap) Delete(rid RowID) error {
	buf, err := h.pool.FetchPage(rid.Page)
	if err != nil {
		return err
	}
	rp := NewRowPage(buf)
	err = rp.DeleteRow(rid.Slot)
	h.pool.UnpinPage(rid.Page, err == nil)
	return err
}

// Scan calls fn for every live row in the heap in page, then slot, order
// (the stable full-scan order named in §4.7), stopping early if fn
// returns false.
func (h *Heap) Scan(fn func(rid RowID, row []types.Value) (cont bool, err error)) error {
	pages := h.Pages()
	for _, pid := range pages {
		buf, err := h.pool.FetchPage(pid)
		if err != nil {
			return err
		}
		rp := NewRowPage(buf)
		stop := false
		scanErr := rp.Scan(func(s SlotID, row []types.Value) (bool, error) {
			cont, err := fn(RowID{Page: pid, Slot: s}, row)
			if !cont {
				stop = true
			}
			return cont, err
		})
		h.pool.UnpinPage(pid, false)
		if scanErr != nil {
			return scanErr
		}
		if stop {
			break
		}
	}
	return nil
}
