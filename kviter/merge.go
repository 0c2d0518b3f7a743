package kviter

import (
	"bytes"
	"container/heap"
)

// MergeIterator fans in N child iterators, in ascending key order, giving
// precedence to the lowest-indexed child on a key collision (spec §4.5):
// children are ordered most-recent-first by the caller, so index 0 wins.
type MergeIterator struct {
	h   *iterHeap
	cur *heapItem
}

var _ StorageIterator = (*MergeIterator)(nil)

type heapItem struct {
	it  StorageIterator
	idx int
}

type iterHeap []*heapItem

func (h iterHeap) Len() int { return len(h) }

func (h iterHeap) Less(i, j int) bool {
	c := bytes.Compare(h[i].it.Key(), h[j].it.Key())
	if c != 0 {
		return c < 0
	}
	return h[i].idx < h[j].idx
}

func (h iterHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *iterHeap) Push(x any) { *h = append(*h, x.(*heapItem)) }

func (h *iterHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NewMergeIterator builds a MergeIterator over iters. iters[0] is the
// highest-precedence source; later entries in iters break ties in favor of
// earlier ones.
func NewMergeIterator(iters []StorageIterator) (*MergeIterator, error) {
	h := &iterHeap{}
	for i, it := range iters {
		if it.Valid() {
			heap.Push(h, &heapItem{it: it, idx: i})
		}
	}
	heap.Init(h)

	m := &MergeIterator{h: h}
	if err := m.popCurrent(); err != nil {
		return nil, err
	}
	return m, nil
}

// popCurrent pops the next distinct key off the heap into m.cur, advancing
// and re-pushing every other heap entry that shares the same key (spec
// §4.5: duplicates across sources collapse to the highest-precedence one).
// Spec §7 treats only a failed per-SST seek as a tolerable scan error; a
// mid-iteration Next failure on a duplicate source must propagate rather
// than silently drop that source's remaining entries.
func (m *MergeIterator) popCurrent() error {
	if m.h.Len() == 0 {
		m.cur = nil
		return nil
	}

	top := heap.Pop(m.h).(*heapItem)
	m.cur = top

	for m.h.Len() > 0 {
		next := (*m.h)[0]
		if !bytes.Equal(next.it.Key(), top.it.Key()) {
			break
		}
		next = heap.Pop(m.h).(*heapItem)
		if err := next.it.Next(); err != nil {
			return err
		}
		if next.it.Valid() {
			heap.Push(m.h, next)
		}
	}
	return nil
}

// Valid reports whether the iterator is positioned on an entry.
func (m *MergeIterator) Valid() bool { return m.cur != nil }

// Key returns the current entry's key.
func (m *MergeIterator) Key() []byte { return m.cur.it.Key() }

// Value returns the current entry's value, taken from the
// lowest-index source that held this key.
func (m *MergeIterator) Value() []byte { return m.cur.it.Value() }

// Next advances the winning source and re-pops the smallest remaining key.
func (m *MergeIterator) Next() error {
	if err := m.cur.it.Next(); err != nil {
		return err
	}
	if m.cur.it.Valid() {
		heap.Push(m.h, m.cur)
	}
	return m.popCurrent()
}
