// Package pager implements the paged, disk-backed storage engine: the
// page manager, the pin-counted buffer pool, the slotted row page, the
// heap table, and the B+Tree secondary index. It is the hardest
// subsystem in the engine (§2 of the specification): binary page
// formats, slot reuse, node split/merge/borrow, and iterator stability
// under concurrent mutation.
//
// The backing file has no header and no magic bytes (§6): byte offset
// id * PageSize always stores page id, and missing trailing pages read
// as zeros.
package pager

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultPageSize is the page size in bytes a Manager uses when Open is
// given a non-positive size. 4096 is the typical size named in the
// specification.
const DefaultPageSize = 4096

// PageID identifies a page within a database file. PageID 0 is a valid,
// ordinary page (there is no reserved superblock).
type PageID uint64

// SlotID identifies a slot within a row page's slot directory.
type SlotID uint16

// RowID is the stable (PageID, SlotID) address of a row for the
// lifetime of its slot.
type RowID struct {
	Page PageID
	Slot SlotID
}

func (r RowID) String() string { return fmt.Sprintf("(%d,%d)", r.Page, r.Slot) }

// Manager owns a single backing file of concatenated fixed-size pages.
// It is the lowest storage layer: it knows nothing about buffer pool
// pinning, slotted rows, or B+Tree structure, only raw page I/O.
type Manager struct {
	file       *os.File
	pageSize   int
	nextPageID PageID
}

// Open opens (creating if necessary) a database file at path and
// computes nextPageID = file_size / PageSize, per §4.1.
func Open(path string, pageSize int) (*Manager, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("pager: open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pager: stat %q: %w", path, err)
	}
	next := PageID(info.Size() / int64(pageSize))
	return &Manager{file: f, pageSize: pageSize, nextPageID: next}, nil
}

// PageSize returns the configured page size.
func (m *Manager) PageSize() int { return m.pageSize }

// AllocatePage returns a fresh PageID. The caller is responsible for
// writing its content; the manager does not materialize a frame itself
// (that is the buffer pool's job, §4.2) and does not extend the file
// until the page is flushed.
func (m *Manager) AllocatePage() PageID {
	id := m.nextPageID
	m.nextPageID++
	return id
}

// FetchPage reads exactly one page from the backing file. Missing
// trailing bytes (a page beyond EOF) materialize as zeros rather than
// an error, matching "allocate_page... does not yet extend the file."
func (m *Manager) FetchPage(id PageID) ([]byte, error) {
	buf := make([]byte, m.pageSize)
	off := int64(id) * int64(m.pageSize)
	n, err := m.file.ReadAt(buf, off)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// Partial or zero read past EOF: the rest of buf stays zeroed,
			// matching "missing pages at end-of-file read as zeros."
			_ = n
			return buf, nil
		}
		return nil, fmt.Errorf("pager: fetch page %d: %w", id, err)
	}
	return buf, nil
}

// WritePage writes buf (which must be exactly PageSize bytes) to page id.
func (m *Manager) WritePage(id PageID, buf []byte) error {
	if len(buf) != m.pageSize {
		return fmt.Errorf("pager: write page %d: buffer is %d bytes, want %d", id, len(buf), m.pageSize)
	}
	off := int64(id) * int64(m.pageSize)
	if _, err := m.file.WriteAt(buf, off); err != nil {
		return fmt.Errorf("pager: write page %d: %w", id, err)
	}
	return nil
}

// Sync flushes the backing file to stable storage.
func (m *Manager) Sync() error {
	if err := m.file.Sync(); err != nil {
		return fmt.Errorf("pager: sync: %w", err)
	}
	return nil
}

// Close closes the backing file.
func (m *Manager) Close() error {
	if err := m.file.Close(); err != nil {
		return fmt.Errorf("pager: close: %w", err)
	}
	return nil
}
