// Package memtable provides the mutable, in-memory write buffer in front of
// the on-disk SST layer: an ordered, thread-safe key-value map backed by a
// skip list, plus the logic to flush it into an SsTableBuilder.
package memtable

import (
	"sync"

	"github.com/arjunvedant/stratakv/kviter"
	"github.com/arjunvedant/stratakv/sstable"
)

// MemTable is a thread-safe, ordered map from key to value. A tombstone
// (deleted key) is represented as a present key with an empty, non-nil
// value — memtable itself never hides tombstones; LsmIterator is the layer
// that filters them out (spec §4.4/§4.7).
type MemTable struct {
	mu sync.RWMutex
	sl *skipList
	id uint64
}

// New constructs an empty MemTable. id identifies this memtable among its
// siblings (spec's next_sst_id is reused as the memtable id once frozen).
func New(id uint64) *MemTable {
	return &MemTable{sl: newSkipList(), id: id}
}

// ID returns the memtable's identifier.
func (m *MemTable) ID() uint64 { return m.id }

// Put inserts or overwrites key with value.
func (m *MemTable) Put(key, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sl.put(string(key), append([]byte(nil), value...))
}

// Get returns the value for key and whether it was found. A found entry
// with an empty value is a tombstone: callers that need delete semantics
// must check len(value) == 0 themselves (spec §4.4).
func (m *MemTable) Get(key []byte) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.sl.get(string(key))
	return v, ok
}

// Delete writes a tombstone for key.
func (m *MemTable) Delete(key []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sl.put(string(key), []byte{})
}

// ApproximateSize estimates the memtable's in-memory footprint, used by the
// engine to decide when to freeze it (spec §4.8).
func (m *MemTable) ApproximateSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := 0
	for n := m.sl.first(); n != nil; n = n.forward[0] {
		size += len(n.record.key) + len(n.record.value)
	}
	return size
}

// IsEmpty reports whether the memtable holds no entries.
func (m *MemTable) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sl.size == 0
}

// Scan returns an iterator over entries between lower and upper, each bound
// included, excluded or unbounded according to its Kind, materializing
// the matching pairs into an owned slice while holding the read lock (spec
// §9 Design Notes, strategy (b)) so the iterator stays valid after Scan
// returns regardless of concurrent writers.
func (m *MemTable) Scan(lower, upper kviter.Bound) *Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var start *skipListNode
	if lower.Kind == kviter.Unbounded {
		start = m.sl.first()
	} else {
		start = m.sl.seekGE(string(lower.Key))
		if lower.Kind == kviter.Excluded && start != nil && start.record.key == string(lower.Key) {
			start = start.forward[0]
		}
	}

	var records []record
	for n := start; n != nil; n = n.forward[0] {
		if !withinUpper(n.record.key, upper) {
			break
		}
		records = append(records, record{key: n.record.key, value: append([]byte(nil), n.record.value...)})
	}

	return &Iterator{records: records}
}

func withinUpper(key string, upper kviter.Bound) bool {
	switch upper.Kind {
	case kviter.Unbounded:
		return true
	case kviter.Included:
		return key <= string(upper.Key)
	case kviter.Excluded:
		return key < string(upper.Key)
	default:
		return false
	}
}

// Flush writes every entry, in key order, into builder. Tombstones are
// written through like any other value; SsTableBuilder does not interpret
// them (spec §4.2/§4.4).
func (m *MemTable) Flush(builder *sstable.Builder) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for n := m.sl.first(); n != nil; n = n.forward[0] {
		if err := builder.Add([]byte(n.record.key), n.record.value); err != nil {
			return err
		}
	}
	return nil
}
