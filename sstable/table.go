package sstable

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/arjunvedant/stratakv/block"
	"github.com/arjunvedant/stratakv/sstfile"
)

const trailerSize = 8 // meta_offset:u32-be | filter_offset:u32-be

// SsTable is an opened, immutable, on-disk table: block metas plus the file
// handle backing it. The file object is owned solely by this table (spec
// §5 "Resource discipline").
type SsTable struct {
	id         uint64
	file       sstfile.File
	blockMetas []BlockMeta
	metaOffset uint32
	filter     *bloom.BloomFilter
}

// Open reads the trailer, decodes block metas and the Bloom filter, and
// retains the file handle.
func Open(id uint64, file sstfile.File) (*SsTable, error) {
	size := file.Size()
	if size < trailerSize {
		return nil, fmt.Errorf("%w: file too small for trailer", ErrCorruptTable)
	}

	trailer, err := file.Read(size-trailerSize, trailerSize)
	if err != nil {
		return nil, fmt.Errorf("%w: reading trailer: %v", ErrCorruptTable, err)
	}
	metaOffset := binary.BigEndian.Uint32(trailer[0:4])
	filterOffset := binary.BigEndian.Uint32(trailer[4:8])

	if int64(metaOffset) > int64(filterOffset) || int64(filterOffset) > size-trailerSize {
		return nil, fmt.Errorf("%w: trailer offsets out of range", ErrCorruptTable)
	}

	metaBytes, err := file.Read(int64(metaOffset), int64(filterOffset)-int64(metaOffset))
	if err != nil {
		return nil, fmt.Errorf("%w: reading meta region: %v", ErrCorruptTable, err)
	}
	metas, err := decodeBlockMetas(metaBytes)
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, fmt.Errorf("%w: table has zero blocks", ErrCorruptTable)
	}

	filterBytes, err := file.Read(int64(filterOffset), size-trailerSize-int64(filterOffset))
	if err != nil {
		return nil, fmt.Errorf("%w: reading filter region: %v", ErrCorruptTable, err)
	}
	filter := &bloom.BloomFilter{}
	if len(filterBytes) > 0 {
		if _, err := filter.ReadFrom(bytes.NewReader(filterBytes)); err != nil {
			return nil, fmt.Errorf("%w: decoding bloom filter: %v", ErrCorruptTable, err)
		}
	}

	return &SsTable{
		id:         id,
		file:       file,
		blockMetas: metas,
		metaOffset: metaOffset,
		filter:     filter,
	}, nil
}

// ID returns the table's identifier (its position in next_sst_id order).
func (t *SsTable) ID() uint64 { return t.id }

// NumBlocks returns the number of data blocks in the table.
func (t *SsTable) NumBlocks() int { return len(t.blockMetas) }

// MayContain reports whether key could be present in the table. False
// means definitely absent; true means maybe present. Backed by the table's
// Bloom filter, which never produces false negatives, so callers may use a
// false result to skip the table entirely without affecting correctness.
func (t *SsTable) MayContain(key []byte) bool {
	if t.filter == nil {
		return true
	}
	return t.filter.Test(key)
}

// ReadBlock decodes and returns data block idx.
func (t *SsTable) ReadBlock(idx int) (*block.Block, error) {
	if idx < 0 || idx >= len(t.blockMetas) {
		return nil, fmt.Errorf("%w: block index %d out of range", ErrCorruptTable, idx)
	}

	start := int64(t.blockMetas[idx].Offset)
	var end int64
	if idx+1 == len(t.blockMetas) {
		end = int64(t.metaOffset)
	} else {
		end = int64(t.blockMetas[idx+1].Offset)
	}

	raw, err := t.file.Read(start, end-start)
	if err != nil {
		return nil, fmt.Errorf("%w: reading block %d: %v", ErrCorruptTable, idx, err)
	}

	blk, err := block.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding block %d: %v", ErrCorruptTable, idx, err)
	}
	return blk, nil
}

// FindBlockIdx returns the largest i such that blockMetas[i].FirstKey <= key
// (or 0 if key sorts before every block, per spec §4.3).
func (t *SsTable) FindBlockIdx(key []byte) int {
	m := len(t.blockMetas)

	// sort.Search finds the smallest index for which the predicate holds;
	// here, the first block whose first key is > key. One less than that
	// is the block that may contain key.
	idx := sort.Search(m, func(i int) bool {
		return bytes.Compare(t.blockMetas[i].FirstKey, key) > 0
	})

	if idx == 0 {
		return 0
	}
	return idx - 1
}
