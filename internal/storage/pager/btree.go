package pager

import (
	"fmt"

	"github.com/pagequery/pagequery/internal/dberr"
	"github.com/pagequery/pagequery/internal/types"
)

// BTree is a secondary index: a B+Tree of order m mapping IndexKey to a
// set of RowIDs (duplicate keys are supported; each key owns a list of
// RowIDs rather than forcing one entry per row). Every traversal follows
// a load-decide-drop-descend discipline: a node is fetched, fully decoded
// into a Go value, and unpinned before the next level is fetched, so no
// call ever holds two frame pins across a recursive step (§4.5).
//
// Grounded on the teacher's pager B+Tree for the shape of node descent
// (fetch-decode-recurse), but the rebalancing on delete below — borrow
// from a sibling, merge, and collapse the root — is new: the teacher's
// own Delete leaves the tree unbalanced after removal.
type BTree struct {
	pool  *BufferPool
	root  PageID
	order int
}

// NewBTree allocates an empty single-leaf tree of the given order
// (m >= 3).
func NewBTree(pool *BufferPool, order int) (*BTree, error) {
	if order < 3 {
		return nil, fmt.Errorf("pager: btree order must be >= 3, got %d", order)
	}
	id, buf := pool.AllocatePage()
	leaf := &btreeLeaf{}
	enc, err := encodeLeaf(leaf, len(buf))
	if err != nil {
		pool.UnpinPage(id, true)
		return nil, err
	}
	copy(buf, enc)
	pool.UnpinPage(id, true)
	return &BTree{pool: pool, root: id, order: order}, nil
}

// OpenBTree reopens an existing tree rooted at root.
func OpenBTree(pool *BufferPool, root PageID, order int) *BTree {
	return &BTree{pool: pool, root: root, order: order}
}

// Root returns the tree's current root page, for catalog persistence
// (root may change across splits and root collapses).
func (t *BTree) Root() PageID { return t.root }

func (t *BTree) maxKeys() int { return t.order - 1 }
func (t *BTree) minKeys() int { return (t.order+1)/2 - 1 }

// Search returns the RowIDs stored under key, or nil if key is absent.
func (t *BTree) Search(key types.IndexKey) ([]RowID, error) {
	pid := t.root
	for {
		buf, err := t.pool.FetchPage(pid)
		if err != nil {
			return nil, err
		}
		if isLeafPage(buf) {
			leaf, err := decodeLeaf(buf)
			t.pool.UnpinPage(pid, false)
			if err != nil {
				return nil, dberr.Wrap(dberr.LayerStorage, dberr.IndexCorrupted, err, "search")
			}
			for i, k := range leaf.keys {
				if types.Compare(k, key) == 0 {
					return leaf.rids[i], nil
				}
			}
			return nil, nil
		}
		in, err := decodeInternal(buf)
		t.pool.UnpinPage(pid, false)
		if err != nil {
			return nil, dberr.Wrap(dberr.LayerStorage, dberr.IndexCorrupted, err, "search")
		}
		pid = in.children[childIndex(in.keys, key)]
	}
}

// RangeScan calls fn for every (key, rid) pair with key in [lo, hi]
// (either bound may be nil for unbounded), in ascending types.Compare order,
// following the leaf next-chain (§4.5). Stops early if fn returns false.
func (t *BTree) RangeScan(lo, hi *types.IndexKey, fn func(key types.IndexKey, rid RowID) (cont bool, err error)) error {
	pid := t.root
	for {
		buf, err := t.pool.FetchPage(pid)
		if err != nil {
			return err
		}
		if isLeafPage(buf) {
			t.pool.UnpinPage(pid, false)
			break
		}
		in, err := decodeInternal(buf)
		t.pool.UnpinPage(pid, false)
		if err != nil {
			return dberr.Wrap(dberr.LayerStorage, dberr.IndexCorrupted, err, "rangeScan descent")
		}
		if lo != nil {
			pid = in.children[childIndex(in.keys, *lo)]
		} else {
			pid = in.children[0]
		}
	}
	// pid now names the leftmost leaf that could hold lo.
	for {
		buf, err := t.pool.FetchPage(pid)
		if err != nil {
			return err
		}
		leaf, err := decodeLeaf(buf)
		t.pool.UnpinPage(pid, false)
		if err != nil {
			return dberr.Wrap(dberr.LayerStorage, dberr.IndexCorrupted, err, "rangeScan leaf")
		}
		for i, k := range leaf.keys {
			if lo != nil && types.Compare(k, *lo) < 0 {
				continue
			}
			if hi != nil && types.Compare(k, *hi) > 0 {
				return nil
			}
			for _, r := range leaf.rids[i] {
				cont, err := fn(k, r)
				if err != nil {
					return err
				}
				if !cont {
					return nil
				}
			}
		}
		if !leaf.hasNext {
			return nil
		}
		pid = leaf.next
	}
}

// childIndex returns the index of the child to descend into for key,
// given an internal node's sorted keys (upper-bound search: child i
// covers keys in [keys[i-1], keys[i])).
func childIndex(keys []types.IndexKey, key types.IndexKey) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if types.Compare(key, keys[mid]) < 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// Insert adds (key, rid) to the tree, splitting nodes bottom-up as
// needed and growing a new root when the existing root splits.
func (t *BTree) Insert(key types.IndexKey, rid RowID) error {
	promotedKey, newRight, err := t.insertRec(t.root, key, rid)
	if err != nil {
		return err
	}
	if newRight == 0 && promotedKey == nil {
		return nil
	}
	id, buf := t.pool.AllocatePage()
	in := &btreeInternal{children: []PageID{t.root, newRight}, keys: []types.IndexKey{*promotedKey}}
	enc, err := encodeInternal(in, len(buf))
	if err != nil {
		t.pool.UnpinPage(id, true)
		return err
	}
	copy(buf, enc)
	t.pool.UnpinPage(id, true)
	t.root = id
	return nil
}

// InsertUnique behaves as Insert, except that when unique is true a key
// already owning at least one RowID is rejected with IndexViolation
// instead of growing the key's rid list (§4.5: "inserting a second rid
// for an existing key fails with IndexViolation" when unique=true).
func (t *BTree) InsertUnique(key types.IndexKey, rid RowID, unique bool) error {
	if unique {
		existing, err := t.Search(key)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return dberr.New(dberr.LayerStorage, dberr.IndexViolation, "duplicate key for unique index")
		}
	}
	return t.Insert(key, rid)
}

// insertRec inserts into the subtree rooted at pid. A non-nil returned
// key means pid's node split: the returned PageID is the new right
// sibling and the key is the separator to promote to pid's parent.
func (t *BTree) insertRec(pid PageID, key types.IndexKey, rid RowID) (*types.IndexKey, PageID, error) {
	buf, err := t.pool.FetchPage(pid)
	if err != nil {
		return nil, 0, err
	}
	leaf := isLeafPage(buf)

	if leaf {
		node, err := decodeLeaf(buf)
		t.pool.UnpinPage(pid, false)
		if err != nil {
			return nil, 0, dberr.Wrap(dberr.LayerStorage, dberr.IndexCorrupted, err, "insert")
		}
		idx := childIndex(node.keys, key)
		if idx > 0 && types.Compare(node.keys[idx-1], key) == 0 {
			node.rids[idx-1] = append(node.rids[idx-1], rid)
		} else {
			node.keys = insertKeyAt(node.keys, idx, key)
			rids := make([]RowID, 1, 4)
			rids[0] = rid
			node.rids = append(node.rids, nil)
			copy(node.rids[idx+1:], node.rids[idx:])
			node.rids[idx] = rids
		}
		if len(node.keys) <= t.maxKeys() {
			return nil, 0, t.writeLeaf(pid, node)
		}
		return t.splitLeaf(pid, node)
	}

	node, err := decodeInternal(buf)
	t.pool.UnpinPage(pid, false)
	if err != nil {
		return nil, 0, dberr.Wrap(dberr.LayerStorage, dberr.IndexCorrupted, err, "insert")
	}
	ci := childIndex(node.keys, key)
	promoted, newRight, err := t.insertRec(node.children[ci], key, rid)
	if err != nil {
		return nil, 0, err
	}
	if promoted == nil {
		return nil, 0, nil
	}
	node.keys = insertKeyAt(node.keys, ci, *promoted)
	node.children = append(node.children, 0)
	copy(node.children[ci+2:], node.children[ci+1:])
	node.children[ci+1] = newRight

	if len(node.keys) <= t.maxKeys() {
		return nil, 0, t.writeInternal(pid, node)
	}
	return t.splitInternal(pid, node)
}

func insertKeyAt(keys []types.IndexKey, idx int, key types.IndexKey) []types.IndexKey {
	keys = append(keys, types.IndexKey{})
	copy(keys[idx+1:], keys[idx:])
	keys[idx] = key
	return keys
}

func (t *BTree) writeLeaf(pid PageID, node *btreeLeaf) error {
	buf, err := t.pool.FetchPage(pid)
	if err != nil {
		return err
	}
	enc, err := encodeLeaf(node, len(buf))
	if err != nil {
		t.pool.UnpinPage(pid, false)
		return err
	}
	copy(buf, enc)
	t.pool.UnpinPage(pid, true)
	return nil
}

func (t *BTree) writeInternal(pid PageID, node *btreeInternal) error {
	buf, err := t.pool.FetchPage(pid)
	if err != nil {
		return err
	}
	enc, err := encodeInternal(node, len(buf))
	if err != nil {
		t.pool.UnpinPage(pid, false)
		return err
	}
	copy(buf, enc)
	t.pool.UnpinPage(pid, true)
	return nil
}

// splitLeaf divides an overflowing leaf in half, wires the next-chain
// through the new right sibling, and returns the right leaf's first key
// as the separator to promote.
func (t *BTree) splitLeaf(pid PageID, node *btreeLeaf) (*types.IndexKey, PageID, error) {
	mid := len(node.keys) / 2
	right := &btreeLeaf{
		next:    node.next,
		hasNext: node.hasNext,
		keys:    append([]types.IndexKey{}, node.keys[mid:]...),
		rids:    append([][]RowID{}, node.rids[mid:]...),
	}
	node.keys = node.keys[:mid]
	node.rids = node.rids[:mid]

	rightID, rbuf := t.pool.AllocatePage()
	enc, err := encodeLeaf(right, len(rbuf))
	if err != nil {
		t.pool.UnpinPage(rightID, true)
		return nil, 0, err
	}
	copy(rbuf, enc)
	t.pool.UnpinPage(rightID, true)

	node.next = rightID
	node.hasNext = true
	if err := t.writeLeaf(pid, node); err != nil {
		return nil, 0, err
	}
	sep := right.keys[0]
	return &sep, rightID, nil
}

// splitInternal divides an overflowing internal node in half. The
// median key is promoted and does NOT survive in either half (true
// B+Tree internal split), per §4.5.
func (t *BTree) splitInternal(pid PageID, node *btreeInternal) (*types.IndexKey, PageID, error) {
	mid := len(node.keys) / 2
	sep := node.keys[mid]

	right := &btreeInternal{
		children: append([]PageID{}, node.children[mid+1:]...),
		keys:     append([]types.IndexKey{}, node.keys[mid+1:]...),
	}
	node.children = node.children[:mid+1]
	node.keys = node.keys[:mid]

	rightID, rbuf := t.pool.AllocatePage()
	enc, err := encodeInternal(right, len(rbuf))
	if err != nil {
		t.pool.UnpinPage(rightID, true)
		return nil, 0, err
	}
	copy(rbuf, enc)
	t.pool.UnpinPage(rightID, true)

	if err := t.writeInternal(pid, node); err != nil {
		return nil, 0, err
	}
	return &sep, rightID, nil
}

// Delete removes rid from key's entry, deleting the key entirely if it
// is rid's last owner, then rebalances the tree bottom-up: borrowing a
// key from a sibling when possible, merging with a sibling otherwise,
// and collapsing the root when it is left with a single child.
func (t *BTree) Delete(key types.IndexKey, rid RowID) error {
	_, err := t.deleteRec(t.root, key, rid, true)
	if err != nil {
		return err
	}
	buf, err := t.pool.FetchPage(t.root)
	if err != nil {
		return err
	}
	if !isLeafPage(buf) {
		in, derr := decodeInternal(buf)
		t.pool.UnpinPage(t.root, false)
		if derr != nil {
			return dberr.Wrap(dberr.LayerStorage, dberr.IndexCorrupted, derr, "delete: root check")
		}
		if len(in.keys) == 0 {
			// Root collapsed to a single child: that child becomes the new root.
			t.root = in.children[0]
		}
	} else {
		t.pool.UnpinPage(t.root, false)
	}
	return nil
}

// deleteRec deletes (key, rid) from the subtree at pid. It returns
// whether pid's node is now underflowing (below minKeys), which is
// meaningless (and ignored) when pid is the root.
func (t *BTree) deleteRec(pid PageID, key types.IndexKey, rid RowID, isRoot bool) (bool, error) {
	buf, err := t.pool.FetchPage(pid)
	if err != nil {
		return false, err
	}

	if isLeafPage(buf) {
		node, err := decodeLeaf(buf)
		t.pool.UnpinPage(pid, false)
		if err != nil {
			return false, dberr.Wrap(dberr.LayerStorage, dberr.IndexCorrupted, err, "delete")
		}
		idx := -1
		for i, k := range node.keys {
			if types.Compare(k, key) == 0 {
				idx = i
				break
			}
		}
		if idx == -1 {
			return false, dberr.New(dberr.LayerStorage, dberr.InvalidRowId, "delete: key not found in index")
		}
		rids := node.rids[idx]
		kept := rids[:0]
		found := false
		for _, r := range rids {
			if !found && r == rid {
				found = true
				continue
			}
			kept = append(kept, r)
		}
		if !found {
			return false, dberr.New(dberr.LayerStorage, dberr.InvalidRowId, "delete: rowid not found under key")
		}
		if len(kept) == 0 {
			node.keys = append(node.keys[:idx], node.keys[idx+1:]...)
			node.rids = append(node.rids[:idx], node.rids[idx+1:]...)
		} else {
			node.rids[idx] = kept
		}
		if err := t.writeLeaf(pid, node); err != nil {
			return false, err
		}
		if isRoot {
			return false, nil
		}
		return len(node.keys) < t.minKeys(), nil
	}

	node, err := decodeInternal(buf)
	t.pool.UnpinPage(pid, false)
	if err != nil {
		return false, dberr.Wrap(dberr.LayerStorage, dberr.IndexCorrupted, err, "delete")
	}
	ci := childIndex(node.keys, key)
	childUnderflow, err := t.deleteRec(node.children[ci], key, rid, false)
	if err != nil {
		return false, err
	}
	if !childUnderflow {
		return false, nil
	}

	if err := t.rebalanceChild(node, ci); err != nil {
		return false, err
	}
	if err := t.writeInternal(pid, node); err != nil {
		return false, err
	}
	if isRoot {
		return false, nil
	}
	return len(node.keys) < t.minKeys(), nil
}

// rebalanceChild fixes an underflowing child at index ci of node by
// borrowing a key/child from an adjacent sibling, or merging with one
// when neither sibling has a key to spare. node is mutated in place;
// the caller is responsible for persisting it.
func (t *BTree) rebalanceChild(node *btreeInternal, ci int) error {
	childBuf, err := t.pool.FetchPage(node.children[ci])
	if err != nil {
		return err
	}
	childIsLeaf := isLeafPage(childBuf)
	t.pool.UnpinPage(node.children[ci], false)

	// Try borrowing from the left sibling first, then the right.
	if ci > 0 {
		ok, err := t.tryBorrowLeft(node, ci, childIsLeaf)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	if ci < len(node.children)-1 {
		ok, err := t.tryBorrowRight(node, ci, childIsLeaf)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	if ci > 0 {
		return t.mergeChildren(node, ci-1, childIsLeaf)
	}
	return t.mergeChildren(node, ci, childIsLeaf)
}

func (t *BTree) tryBorrowLeft(node *btreeInternal, ci int, isLeaf bool) (bool, error) {
	leftID := node.children[ci-1]
	childID := node.children[ci]
	if isLeaf {
		left, err := t.loadLeaf(leftID)
		if err != nil {
			return false, err
		}
		if len(left.keys) <= t.minKeys() {
			return false, nil
		}
		child, err := t.loadLeaf(childID)
		if err != nil {
			return false, err
		}
		n := len(left.keys) - 1
		borrowedKey, borrowedRids := left.keys[n], left.rids[n]
		left.keys = left.keys[:n]
		left.rids = left.rids[:n]
		child.keys = append([]types.IndexKey{borrowedKey}, child.keys...)
		child.rids = append([][]RowID{borrowedRids}, child.rids...)
		if err := t.writeLeaf(leftID, left); err != nil {
			return false, err
		}
		if err := t.writeLeaf(childID, child); err != nil {
			return false, err
		}
		node.keys[ci-1] = child.keys[0]
		return true, nil
	}

	left, err := t.loadInternal(leftID)
	if err != nil {
		return false, err
	}
	if len(left.keys) <= t.minKeys() {
		return false, nil
	}
	child, err := t.loadInternal(childID)
	if err != nil {
		return false, err
	}
	n := len(left.keys) - 1
	movedChild := left.children[len(left.children)-1]
	left.children = left.children[:len(left.children)-1]
	movedKey := left.keys[n]
	left.keys = left.keys[:n]

	child.children = append([]PageID{movedChild}, child.children...)
	child.keys = append([]types.IndexKey{node.keys[ci-1]}, child.keys...)
	node.keys[ci-1] = movedKey

	if err := t.writeInternal(leftID, left); err != nil {
		return false, err
	}
	if err := t.writeInternal(childID, child); err != nil {
		return false, err
	}
	return true, nil
}

func (t *BTree) tryBorrowRight(node *btreeInternal, ci int, isLeaf bool) (bool, error) {
	rightID := node.children[ci+1]
	childID := node.children[ci]
	if isLeaf {
		right, err := t.loadLeaf(rightID)
		if err != nil {
			return false, err
		}
		if len(right.keys) <= t.minKeys() {
			return false, nil
		}
		child, err := t.loadLeaf(childID)
		if err != nil {
			return false, err
		}
		borrowedKey, borrowedRids := right.keys[0], right.rids[0]
		right.keys = right.keys[1:]
		right.rids = right.rids[1:]
		child.keys = append(child.keys, borrowedKey)
		child.rids = append(child.rids, borrowedRids)
		if err := t.writeLeaf(rightID, right); err != nil {
			return false, err
		}
		if err := t.writeLeaf(childID, child); err != nil {
			return false, err
		}
		node.keys[ci] = right.keys[0]
		return true, nil
	}

	right, err := t.loadInternal(rightID)
	if err != nil {
		return false, err
	}
	if len(right.keys) <= t.minKeys() {
		return false, nil
	}
	child, err := t.loadInternal(childID)
	if err != nil {
		return false, err
	}
	movedChild := right.children[0]
	right.children = right.children[1:]
	movedKey := right.keys[0]
	right.keys = right.keys[1:]

	child.children = append(child.children, movedChild)
	child.keys = append(child.keys, node.keys[ci])
	node.keys[ci] = movedKey

	if err := t.writeInternal(rightID, right); err != nil {
		return false, err
	}
	if err := t.writeInternal(childID, child); err != nil {
		return false, err
	}
	return true, nil
}

// mergeChildren merges node's children at index li and li+1 (absorbing
// the right into the left) along with the separator key at node.keys[li],
// then removes that key and the right child pointer from node.
func (t *BTree) mergeChildren(node *btreeInternal, li int, isLeaf bool) error {
	leftID, rightID := node.children[li], node.children[li+1]
	if isLeaf {
		left, err := t.loadLeaf(leftID)
		if err != nil {
			return err
		}
		right, err := t.loadLeaf(rightID)
		if err != nil {
			return err
		}
		left.keys = append(left.keys, right.keys...)
		left.rids = append(left.rids, right.rids...)
		left.next = right.next
		left.hasNext = right.hasNext
		if err := t.writeLeaf(leftID, left); err != nil {
			return err
		}
	} else {
		left, err := t.loadInternal(leftID)
		if err != nil {
			return err
		}
		right, err := t.loadInternal(rightID)
		if err != nil {
			return err
		}
		left.keys = append(left.keys, node.keys[li])
		left.keys = append(left.keys, right.keys...)
		left.children = append(left.children, right.children...)
		if err := t.writeInternal(leftID, left); err != nil {
			return err
		}
	}
	node.keys = append(node.keys[:li], node.keys[li+1:]...)
	node.children = append(node.children[:li+1], node.children[li+2:]...)
	return nil
}

func (t *BTree) loadLeaf(pid PageID) (*btreeLeaf, error) {
	buf, err := t.pool.FetchPage(pid)
	if err != nil {
		return nil, err
	}
	node, err := decodeLeaf(buf)
	t.pool.UnpinPage(pid, false)
	if err != nil {
		return nil, dberr.Wrap(dberr.LayerStorage, dberr.IndexCorrupted, err, "loadLeaf")
	}
	return node, nil
}

func (t *BTree) loadInternal(pid PageID) (*btreeInternal, error) {
	buf, err := t.pool.FetchPage(pid)
	if err != nil {
		return nil, err
	}
	node, err := decodeInternal(buf)
	t.pool.UnpinPage(pid, false)
	if err != nil {
		return nil, dberr.Wrap(dberr.LayerStorage, dberr.IndexCorrupted, err, "loadInternal")
	}
	return node, nil
}
