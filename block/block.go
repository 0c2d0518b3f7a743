// Package block implements the smallest unit of on-disk layout and caching
// in the storage engine: a contiguous byte slice holding a sorted run of
// key-value entries, an offset array for O(1) indexed access, and a count.
//
// Encoded layout:
//
//	| entry_0 | entry_1 | ... | entry_{n-1} | off_0 | off_1 | ... | off_{n-1} | n |
//
// Each entry is [key_len:u8][key][value_len:u8][value]. Offsets and the
// trailing count are 16-bit little-endian, regardless of the endianness
// used by the layer that embeds the block (see package sstable).
package block

import (
	"encoding/binary"
	"errors"
)

// ErrCorruptBlock is returned by Decode when the input cannot possibly be a
// valid encoded block (too short, inconsistent offset table, ...).
var ErrCorruptBlock = errors.New("block: corrupt encoding")

const (
	lenPrefixSize = 1 // key_len / value_len byte
	offsetSize    = 2 // bytes per offset entry
	countSize     = 2 // bytes for the trailing entry count
)

// Block is an immutable, sorted sequence of key-value entries plus the
// offset table locating each entry's start within data.
type Block struct {
	data    []byte
	offsets []uint16
}

// Encode serializes the block to its on-disk byte layout.
func (b *Block) Encode() []byte {
	buf := make([]byte, 0, len(b.data)+len(b.offsets)*offsetSize+countSize)
	buf = append(buf, b.data...)
	for _, off := range b.offsets {
		buf = binary.LittleEndian.AppendUint16(buf, off)
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(b.offsets)))
	return buf
}

// Decode reverses Encode. Decoding an empty or undersized buffer fails
// explicitly rather than panicking.
func Decode(data []byte) (*Block, error) {
	if len(data) < countSize {
		return nil, ErrCorruptBlock
	}

	n := int(binary.LittleEndian.Uint16(data[len(data)-countSize:]))
	if n < 1 {
		return nil, ErrCorruptBlock
	}

	offsetsStart := len(data) - countSize - n*offsetSize
	if offsetsStart < 0 {
		return nil, ErrCorruptBlock
	}

	offsetBytes := data[offsetsStart : len(data)-countSize]
	offsets := make([]uint16, n)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint16(offsetBytes[i*offsetSize:])
	}

	dataRegion := data[:offsetsStart]
	for i, off := range offsets {
		if int(off) >= len(dataRegion) {
			return nil, ErrCorruptBlock
		}
		if i > 0 && off <= offsets[i-1] {
			return nil, ErrCorruptBlock
		}
		if _, _, _, err := decodeEntryAt(dataRegion, off); err != nil {
			return nil, err
		}
	}

	owned := make([]byte, len(dataRegion))
	copy(owned, dataRegion)

	return &Block{data: owned, offsets: offsets}, nil
}

// decodeEntryAt reads the entry starting at byte offset off within data,
// returning its key, value, and the byte offset one past the entry. It
// fails with ErrCorruptBlock rather than panicking if either length prefix
// would read or index past the end of data — the only way an
// offset-consistent but otherwise corrupt block can surface a bad entry.
func decodeEntryAt(data []byte, off uint16) (key, value []byte, next uint16, err error) {
	pos := int(off)

	if pos >= len(data) {
		return nil, nil, 0, ErrCorruptBlock
	}
	keyLen := int(data[pos])
	pos += lenPrefixSize
	if pos+keyLen > len(data) {
		return nil, nil, 0, ErrCorruptBlock
	}
	key = data[pos : pos+keyLen]
	pos += keyLen

	if pos >= len(data) {
		return nil, nil, 0, ErrCorruptBlock
	}
	valLen := int(data[pos])
	pos += lenPrefixSize
	if pos+valLen > len(data) {
		return nil, nil, 0, ErrCorruptBlock
	}
	value = data[pos : pos+valLen]
	pos += valLen

	return key, value, uint16(pos), nil
}

// entryAt decodes the entry starting at byte offset off within b.data. It
// is only ever called with an offset Decode has already validated (or one
// Builder produced itself), so a decode failure here is never expected;
// it is treated as an invariant violation rather than a reportable error.
func (b *Block) entryAt(off uint16) (key, value []byte, next uint16) {
	key, value, next, err := decodeEntryAt(b.data, off)
	if err != nil {
		panic("block: entryAt called with an offset Decode did not validate: " + err.Error())
	}
	return key, value, next
}
