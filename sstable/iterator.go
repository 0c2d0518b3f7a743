package sstable

import (
	"fmt"

	"github.com/arjunvedant/stratakv/block"
	"github.com/arjunvedant/stratakv/kviter"
)

// Iterator walks an SsTable's entries in key order, crossing block
// boundaries transparently. It implements kviter.StorageIterator.
type Iterator struct {
	table    *SsTable
	blockIdx int
	blockIt  *block.Iterator
}

var _ kviter.StorageIterator = (*Iterator)(nil)

// NewAndSeekToFirst loads block 0 and seeks to its first entry.
func NewAndSeekToFirst(table *SsTable) (*Iterator, error) {
	it := &Iterator{table: table}
	if err := it.seekToBlock(0); err != nil {
		return nil, err
	}
	it.blockIt.SeekToFirst()
	return it, nil
}

// NewAndSeekToKey loads the block that may contain key and seeks within
// it; if the in-block seek misses (every entry in that block sorts before
// key), it advances to the next block. Returns ErrKeyPastLastBlock if key
// sorts after every entry in the table.
func NewAndSeekToKey(table *SsTable, key []byte) (*Iterator, error) {
	it := &Iterator{table: table}
	idx := table.FindBlockIdx(key)
	if err := it.seekToBlock(idx); err != nil {
		return nil, err
	}
	it.blockIt.SeekToKey(key)

	if !it.blockIt.Valid() {
		if idx+1 >= table.NumBlocks() {
			return nil, ErrKeyPastLastBlock
		}
		if err := it.seekToBlock(idx + 1); err != nil {
			return nil, err
		}
		it.blockIt.SeekToFirst()
	}

	return it, nil
}

func (it *Iterator) seekToBlock(idx int) error {
	blk, err := it.table.ReadBlock(idx)
	if err != nil {
		return fmt.Errorf("sstable: advance to block %d: %w", idx, err)
	}
	it.blockIdx = idx
	it.blockIt = block.NewAndSeekToFirst(blk)
	return nil
}

// Valid reports whether the iterator is positioned on an entry.
func (it *Iterator) Valid() bool { return it.blockIt.Valid() }

// Key returns the current entry's key.
func (it *Iterator) Key() []byte { return it.blockIt.Key() }

// Value returns the current entry's value.
func (it *Iterator) Value() []byte { return it.blockIt.Value() }

// Next advances within the current block; on exhaustion, moves to the next
// block and seeks to its first entry, or becomes invalid past the last
// block.
func (it *Iterator) Next() error {
	if err := it.blockIt.Next(); err != nil {
		return err
	}
	if it.blockIt.Valid() {
		return nil
	}

	if it.blockIdx+1 < it.table.NumBlocks() {
		if err := it.seekToBlock(it.blockIdx + 1); err != nil {
			return err
		}
		it.blockIt.SeekToFirst()
	}
	return nil
}
