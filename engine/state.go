package engine

import (
	"github.com/arjunvedant/stratakv/memtable"
	"github.com/arjunvedant/stratakv/sstable"
)

// lsmState is an immutable snapshot tuple: the active memtable, frozen
// memtables and L0 SSTs (both ordered oldest→newest), and the next id to
// assign a flushed SST (spec §3). Engine holds one snapshot behind a
// pointer; every mutation builds a new snapshot and swaps the pointer
// rather than mutating the one readers may be holding (spec §5).
type lsmState struct {
	active    *memtable.MemTable
	frozen    []*memtable.MemTable
	l0        []*sstable.SsTable
	nextSstID uint64
}

// withFrozenActive returns a new snapshot with the current active memtable
// pushed onto frozen and a fresh active memtable installed.
func (s *lsmState) withFrozenActive(fresh *memtable.MemTable) *lsmState {
	frozen := make([]*memtable.MemTable, len(s.frozen), len(s.frozen)+1)
	copy(frozen, s.frozen)
	frozen = append(frozen, s.active)

	return &lsmState{
		active:    fresh,
		frozen:    frozen,
		l0:        s.l0,
		nextSstID: s.nextSstID,
	}
}

// withFlushedTable returns a new snapshot with the oldest frozen memtable
// removed and table appended to l0, id consumed.
func (s *lsmState) withFlushedTable(table *sstable.SsTable) *lsmState {
	frozen := make([]*memtable.MemTable, len(s.frozen)-1)
	copy(frozen, s.frozen[1:])

	l0 := make([]*sstable.SsTable, len(s.l0), len(s.l0)+1)
	copy(l0, s.l0)
	l0 = append(l0, table)

	return &lsmState{
		active:    s.active,
		frozen:    frozen,
		l0:        l0,
		nextSstID: s.nextSstID + 1,
	}
}
