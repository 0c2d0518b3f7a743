package block

import "fmt"

// maxKeyOrValueLen is the largest length encodable in the one-byte length
// prefix used by the entry format (spec: key/value length < 256).
const maxKeyOrValueLen = 255

// Builder streams sorted entries into a single Block, sealing once the
// target size would be exceeded.
type Builder struct {
	targetSize int
	data       []byte
	offsets    []uint16
}

// NewBuilder constructs a Builder targeting blockSize bytes per block.
func NewBuilder(blockSize int) *Builder {
	return &Builder{targetSize: blockSize}
}

// currentSize mirrors the spec's size accounting: data so far, the offset
// table so far, plus the trailing count field.
func (b *Builder) currentSize() int {
	return len(b.data) + len(b.offsets)*offsetSize + countSize
}

// Add appends a key-value entry. It returns false, without mutating the
// builder, if the block is non-empty and appending would exceed the target
// size. The first entry added is always accepted regardless of size.
func (b *Builder) Add(key, value []byte) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("block: empty key")
	}
	if len(key) > maxKeyOrValueLen || len(value) > maxKeyOrValueLen {
		return false, fmt.Errorf("block: key/value length must be < 256")
	}

	entrySize := lenPrefixSize + len(key) + lenPrefixSize + len(value)
	incoming := entrySize + offsetSize

	if !b.IsEmpty() && b.currentSize()+incoming > b.targetSize {
		return false, nil
	}

	b.offsets = append(b.offsets, uint16(len(b.data)))
	b.data = append(b.data, byte(len(key)))
	b.data = append(b.data, key...)
	b.data = append(b.data, byte(len(value)))
	b.data = append(b.data, value...)

	return true, nil
}

// IsEmpty reports whether any entry has been added.
func (b *Builder) IsEmpty() bool {
	return len(b.data) == 0
}

// Build finalizes the builder into an immutable Block.
func (b *Builder) Build() *Block {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	offsets := make([]uint16, len(b.offsets))
	copy(offsets, b.offsets)
	return &Block{data: data, offsets: offsets}
}
