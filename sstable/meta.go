package sstable

import (
	"encoding/binary"
	"fmt"
)

// BlockMeta is the per-block index entry stored in an SST's meta region:
// the block's starting offset within the file and the first key it holds.
// SST-level integers are big-endian, independent of the block codec's own
// little-endian layout (spec §3/§6).
type BlockMeta struct {
	Offset   uint32
	FirstKey []byte
}

// encodeBlockMetas concatenates metas in block order:
// (offset:u32-be | key_len:u16-be | first_key) per entry.
func encodeBlockMetas(metas []BlockMeta) []byte {
	size := 0
	for _, m := range metas {
		size += 4 + 2 + len(m.FirstKey)
	}

	buf := make([]byte, 0, size)
	for _, m := range metas {
		buf = binary.BigEndian.AppendUint32(buf, m.Offset)
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(m.FirstKey)))
		buf = append(buf, m.FirstKey...)
	}
	return buf
}

// decodeBlockMetas reverses encodeBlockMetas.
func decodeBlockMetas(buf []byte) ([]BlockMeta, error) {
	var metas []BlockMeta
	for len(buf) > 0 {
		if len(buf) < 6 {
			return nil, fmt.Errorf("%w: truncated block meta entry", ErrCorruptTable)
		}
		offset := binary.BigEndian.Uint32(buf[0:4])
		keyLen := int(binary.BigEndian.Uint16(buf[4:6]))
		buf = buf[6:]

		if keyLen > len(buf) {
			return nil, fmt.Errorf("%w: block meta key length out of range", ErrCorruptTable)
		}
		firstKey := make([]byte, keyLen)
		copy(firstKey, buf[:keyLen])
		buf = buf[keyLen:]

		metas = append(metas, BlockMeta{Offset: offset, FirstKey: firstKey})
	}
	return metas, nil
}
