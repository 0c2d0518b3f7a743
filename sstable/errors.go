package sstable

import "errors"

// ErrCorruptTable is wrapped by any error arising from a malformed SST
// image: truncated regions, inconsistent offsets, or a meta/block count
// mismatch.
var ErrCorruptTable = errors.New("sstable: corrupt table")

// ErrKeyPastLastBlock is returned by NewAndSeekToKey when the sought key sorts
// after every entry in the table.
var ErrKeyPastLastBlock = errors.New("sstable: key past last block")

// IsKeyPastLastBlock reports whether err is or wraps ErrKeyPastLastBlock.
func IsKeyPastLastBlock(err error) bool {
	return errors.Is(err, ErrKeyPastLastBlock)
}
