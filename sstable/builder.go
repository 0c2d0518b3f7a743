package sstable

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/arjunvedant/stratakv/block"
	"github.com/arjunvedant/stratakv/sstfile"
)

// falsePositiveRate is the target false-positive rate for the per-table
// Bloom filter; see SPEC_FULL.md D.1.
const falsePositiveRate = 0.01

// Builder streams sorted, key-unique entries into blocks, producing an SST
// byte image (spec §4.2).
type Builder struct {
	blockSize int

	data []byte
	meta []BlockMeta

	curBlock    *block.Builder
	curFirstKey []byte

	filter *bloom.BloomFilter
}

// NewBuilder constructs a Builder targeting blockSize bytes per data block,
// sizing its Bloom filter for expectedKeys entries.
func NewBuilder(blockSize, expectedKeys int) *Builder {
	if expectedKeys < 1 {
		expectedKeys = 1
	}
	return &Builder{
		blockSize: blockSize,
		curBlock:  block.NewBuilder(blockSize),
		filter:    bloom.NewWithEstimates(uint(expectedKeys), falsePositiveRate),
	}
}

// Add appends a key-value entry. Entries must be added in ascending key
// order with no duplicate keys.
func (b *Builder) Add(key, value []byte) error {
	ok, err := b.curBlock.Add(key, value)
	if err != nil {
		return fmt.Errorf("sstable: %w", err)
	}

	if !ok {
		b.sealCurrentBlock()
		b.curBlock = block.NewBuilder(b.blockSize)

		ok, err = b.curBlock.Add(key, value)
		if err != nil {
			return fmt.Errorf("sstable: %w", err)
		}
		if !ok {
			return fmt.Errorf("sstable: entry for key %q does not fit in an empty block of size %d", key, b.blockSize)
		}
	}

	if b.curFirstKey == nil {
		b.curFirstKey = append([]byte(nil), key...)
	}
	b.filter.Add(key)

	return nil
}

// sealCurrentBlock appends the current block's encoded bytes to the data
// region and records its meta entry, using the first key actually written
// into the block — not the key that triggered the overflow (spec §4.2's
// fix to the recorded bug).
func (b *Builder) sealCurrentBlock() {
	if b.curBlock.IsEmpty() {
		return
	}

	blk := b.curBlock.Build()
	encoded := blk.Encode()

	b.meta = append(b.meta, BlockMeta{
		Offset:   uint32(len(b.data)),
		FirstKey: b.curFirstKey,
	})
	b.data = append(b.data, encoded...)
	b.curFirstKey = nil
}

// EstimatedSize reports the builder's current in-progress size, useful for
// callers deciding when to stop adding entries and flush.
func (b *Builder) EstimatedSize() int {
	size := len(b.data)
	for _, m := range b.meta {
		size += 4 + 2 + len(m.FirstKey)
	}
	return size
}

// encode concatenates data, meta, the Bloom filter bit-set, and the
// trailing offsets: (data blocks | meta | filter | meta_offset:u32-be |
// filter_offset:u32-be).
func (b *Builder) encode() ([]byte, error) {
	buf := append([]byte(nil), b.data...)

	metaOffset := uint32(len(buf))
	buf = append(buf, encodeBlockMetas(b.meta)...)

	filterOffset := uint32(len(buf))
	var filterBuf bytes.Buffer
	if _, err := b.filter.WriteTo(&filterBuf); err != nil {
		return nil, fmt.Errorf("sstable: encode bloom filter: %w", err)
	}
	buf = append(buf, filterBuf.Bytes()...)

	buf = binary.BigEndian.AppendUint32(buf, metaOffset)
	buf = binary.BigEndian.AppendUint32(buf, filterOffset)

	return buf, nil
}

// Build seals the final block (if non-empty), writes the encoded image to
// dir/<id>.sst, and returns an opened SsTable over it. The builder must not
// be reused afterward.
func (b *Builder) Build(id uint64, dir string) (*SsTable, error) {
	b.sealCurrentBlock()

	if len(b.meta) == 0 {
		return nil, fmt.Errorf("sstable: cannot build an SST with zero blocks")
	}

	encoded, err := b.encode()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, FileName(id))
	f, err := sstfile.Create(path, encoded)
	if err != nil {
		return nil, fmt.Errorf("sstable: %w", err)
	}

	return Open(id, f)
}

// FileName is the on-disk naming convention for SST number id, matching the
// zero-padded scheme the teacher's segment manager uses for log segments
// (engine/tabledir.go reuses the same scan-and-resume logic against this
// name shape).
func FileName(id uint64) string {
	return fmt.Sprintf("%06d.sst", id)
}
