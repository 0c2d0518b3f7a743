package memtable

import "github.com/arjunvedant/stratakv/kviter"

// Iterator walks a materialized snapshot of memtable entries produced by
// MemTable.Scan. It implements kviter.StorageIterator.
type Iterator struct {
	records []record
	pos     int
}

var _ kviter.StorageIterator = (*Iterator)(nil)

// Valid reports whether the iterator is positioned on an entry.
func (it *Iterator) Valid() bool { return it.pos < len(it.records) }

// Key returns the current entry's key.
func (it *Iterator) Key() []byte { return []byte(it.records[it.pos].key) }

// Value returns the current entry's value.
func (it *Iterator) Value() []byte { return it.records[it.pos].value }

// Next advances to the next entry.
func (it *Iterator) Next() error {
	it.pos++
	return nil
}
