package block

import "bytes"

// Iterator walks the entries of a single Block in key order.
//
// Validity is tracked with an explicit flag rather than inferred from an
// empty key, since the spec forbids empty keys at write time but an
// iterator contract shouldn't rely on that to distinguish "invalid" from
// "positioned on an entry with an empty key".
type Iterator struct {
	block *Block
	idx   int
	key   []byte
	value []byte
	valid bool
}

// NewAndSeekToFirst creates an iterator over block and positions it on the
// first entry.
func NewAndSeekToFirst(block *Block) *Iterator {
	it := &Iterator{block: block}
	it.SeekToFirst()
	return it
}

// NewAndSeekToKey creates an iterator over block and positions it on the
// smallest entry with key >= key, or invalid if none exists.
func NewAndSeekToKey(blk *Block, key []byte) *Iterator {
	it := &Iterator{block: blk}
	it.SeekToKey(key)
	return it
}

// SeekToFirst repositions the iterator on the block's first entry.
func (it *Iterator) SeekToFirst() {
	it.seekToIdx(0)
}

// seekToIdx positions the iterator at offsets[idx], or invalidates it if
// idx is past the end of the offset table.
func (it *Iterator) seekToIdx(idx int) {
	if idx >= len(it.block.offsets) {
		it.idx = len(it.block.offsets)
		it.key = nil
		it.value = nil
		it.valid = false
		return
	}

	key, value, _ := it.block.entryAt(it.block.offsets[idx])
	it.idx = idx
	it.key = key
	it.value = value
	it.valid = true
}

// Key returns the current entry's key. Only defined while Valid is true.
func (it *Iterator) Key() []byte { return it.key }

// Value returns the current entry's value. Only defined while Valid is true.
func (it *Iterator) Value() []byte { return it.value }

// Valid reports whether the iterator is positioned on a real entry.
func (it *Iterator) Valid() bool { return it.valid }

// Next advances to the following entry, invalidating the iterator once the
// block is exhausted.
func (it *Iterator) Next() error {
	it.seekToIdx(it.idx + 1)
	return nil
}

// SeekToKey positions the iterator on the smallest entry with key >= key,
// linearly scanning the offset table; becomes invalid if no such entry
// exists. Linear scan keeps the external contract simple; a binary search
// over the offset table would give the same observable behavior.
func (it *Iterator) SeekToKey(key []byte) {
	for idx := 0; idx < len(it.block.offsets); idx++ {
		entryKey, _, _ := it.block.entryAt(it.block.offsets[idx])
		if bytes.Compare(entryKey, key) >= 0 {
			it.seekToIdx(idx)
			return
		}
	}
	it.seekToIdx(len(it.block.offsets))
}
