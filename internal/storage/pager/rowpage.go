package pager

import (
	"encoding/binary"

	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/types"
)

// Slotted row page layout (§4.3), all integers little-endian:
//
//	bytes 0-2   slot_count      uint16
//	bytes 2-4   used_count      uint16 (non-tombstoned slots)
//	bytes 4-6   free_space_ptr  uint16 (offset where the next record is appended)
//	bytes 6-8   reserved
//	then slot_count slot entries, 4 bytes each: {offset:u16, used:u8, pad:u8}
//	then row records, growing from high offsets downward as slots are appended
const (
	rowPageHeaderLen = 8
	slotEntryLen     = 4
)

// RowPage is a read-write view over one page buffer's bytes, interpreting
// it as a slotted row page. It does not own the buffer; callers obtain
// buf from a BufferPool fetch and must unpin it when done.
type RowPage struct {
	buf      []byte
	pageSize int
}

// NewRowPage wraps buf (as returned by BufferPool.FetchPage or
// AllocatePage) for slotted-row access.
func NewRowPage(buf []byte) *RowPage {
	return &RowPage{buf: buf, pageSize: len(buf)}
}

// InitRowPage zeroes buf into an empty row page: slot_count=0, used_count=0,
// free_space_ptr=page_size (records append from the end backward).
func InitRowPage(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(buf)))
}

func (p *RowPage) slotCount() int {
	return int(binary.LittleEndian.Uint16(p.buf[0:2]))
}

func (p *RowPage) setSlotCount(n int) {
	binary.LittleEndian.PutUint16(p.buf[0:2], uint16(n))
}

func (p *RowPage) usedCount() int {
	return int(binary.LittleEndian.Uint16(p.buf[2:4]))
}

func (p *RowPage) setUsedCount(n int) {
	binary.LittleEndian.PutUint16(p.buf[2:4], uint16(n))
}

func (p *RowPage) freeSpacePtr() int {
	return int(binary.LittleEndian.Uint16(p.buf[4:6]))
}

func (p *RowPage) setFreeSpacePtr(n int) {
	binary.LittleEndian.PutUint16(p.buf[4:6], uint16(n))
}

func (p *RowPage) slotOffset(s SlotID) int {
	return rowPageHeaderLen + int(s)*slotEntryLen
}

// slotEntry reads slot s's (record offset, used flag). A slot with
// used == 0 is a tombstone: its directory entry is retained until
// InsertRow reuses the slot, but its bytes are not live.
func (p *RowPage) slotEntry(s SlotID) (offset uint16, used bool) {
	off := p.slotOffset(s)
	offset = binary.LittleEndian.Uint16(p.buf[off : off+2])
	used = p.buf[off+2] != 0
	return
}

func (p *RowPage) setSlotEntry(s SlotID, offset uint16, used bool) {
	off := p.slotOffset(s)
	binary.LittleEndian.PutUint16(p.buf[off:off+2], offset)
	if used {
		p.buf[off+2] = 1
	} else {
		p.buf[off+2] = 0
	}
	p.buf[off+3] = 0
}

// freeBytes returns the space available between the end of the slot
// directory and the start of the record area.
func (p *RowPage) freeBytes() int {
	dirEnd := rowPageHeaderLen + p.slotCount()*slotEntryLen
	return p.freeSpacePtr() - dirEnd
}

// InsertRow appends row's encoded bytes into the record area and either
// reuses a tombstoned slot or appends a new slot entry, returning the
// assigned SlotID. It reports dberr PageFull if there is not enough
// contiguous free space for the record plus (if needed) a new slot entry.
func (p *RowPage) InsertRow(row []types.Value) (SlotID, error) {
	need := types.RowEncodedLen(row)
	if need > 0xFFFF {
		return 0, dberr.New(dberr.LayerStorage, dberr.PageFull, "row record %d bytes exceeds page addressing range", need)
	}

	reuse := SlotID(0xFFFF)
	for i := 0; i < p.slotCount(); i++ {
		if _, used := p.slotEntry(SlotID(i)); !used {
			reuse = SlotID(i)
			break
		}
	}

	extraSlot := 0
	if reuse == 0xFFFF {
		extraSlot = slotEntryLen
	}
	if p.freeBytes()-extraSlot < need {
		return 0, dberr.New(dberr.LayerStorage, dberr.PageFull, "page has no room for a %d byte record", need)
	}

	newPtr := p.freeSpacePtr() - need
	types.EncodeRow(p.buf[newPtr:newPtr], row)
	p.setFreeSpacePtr(newPtr)

	var slot SlotID
	if reuse != 0xFFFF {
		slot = reuse
		p.setSlotEntry(slot, uint16(newPtr), true)
	} else {
		slot = SlotID(p.slotCount())
		p.setSlotCount(p.slotCount() + 1)
		p.setSlotEntry(slot, uint16(newPtr), true)
	}
	p.setUsedCount(p.usedCount() + 1)
	return slot, nil
}

// FetchRow decodes the row stored at slot s. It returns dberr InvalidRowId
// if s is out of range or tombstoned.
func (p *RowPage) FetchRow(s SlotID) ([]types.Value, error) {
	if int(s) >= p.slotCount() {
		return nil, dberr.New(dberr.LayerStorage, dberr.InvalidRowId, "slot %d out of range (slot_count=%d)", s, p.slotCount())
	}
	offset, used := p.slotEntry(s)
	if !used {
		return nil, dberr.New(dberr.LayerStorage, dberr.InvalidRowId, "slot %d is deleted", s)
	}
	row, _, err := types.DecodeRow(p.buf[offset:])
	if err != nil {
		return nil, dberr.Wrap(dberr.LayerStorage, dberr.CorruptedPage, err, "slot %d", s)
	}
	return row, nil
}

// DeleteRow tombstones slot s: used_count decrements and the slot
// directory entry persists, so a RowID dangling in an index resolves to
// "deleted" until a later InsertRow reuses the slot; from then on that
// RowID addresses the new row.
func (p *RowPage) DeleteRow(s SlotID) error {
	if int(s) >= p.slotCount() {
		return dberr.New(dberr.LayerStorage, dberr.InvalidRowId, "slot %d out of range (slot_count=%d)", s, p.slotCount())
	}
	offset, used := p.slotEntry(s)
	if !used {
		return dberr.New(dberr.LayerStorage, dberr.InvalidRowId, "slot %d already deleted", s)
	}
	p.setSlotEntry(s, offset, false)
	p.setUsedCount(p.usedCount() - 1)
	return nil
}

// UsedCount returns the number of live (non-tombstoned) rows on the page.
func (p *RowPage) UsedCount() int { return p.usedCount() }

// SlotCount returns the total number of slot directory entries, live or
// tombstoned.
func (p *RowPage) SlotCount() int { return p.slotCount() }

// Scan calls fn for every live slot on the page in slot order, stopping
// early if fn returns false.
func (p *RowPage) Scan(fn func(s SlotID, row []types.Value) (cont bool, err error)) error {
	for i := 0; i < p.slotCount(); i++ {
		s := SlotID(i)
		if _, used := p.slotEntry(s); !used {
			continue
		}
		row, err := p.FetchRow(s)
		if err != nil {
			return err
		}
		cont, err := fn(s, row)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return nil
}

// CanFit reports whether a row of the given encoded length could be
// inserted into an empty page of this size, that is, whether the record
// is fundamentally too large rather than just blocked by current
// fragmentation. The heap table does not call it.
func CanFit(pageSize, encodedLen int) bool {
	return encodedLen+slotEntryLen <= pageSize-rowPageHeaderLen
}
