package sstable

import (
	"errors"
	"fmt"
)

// magic is 0xdb4775248b80fb57 in little-endian byte order.
var magic = []byte{0x57, 0xfb, 0x80, 0x8b, 0x24, 0x75, 0x47, 0xdb}

// on-disk compression tags, stored in each block trailer
const (
	blockNoCompression     byte = 0
	blockSnappyCompression byte = 1
	blockZstdCompression   byte = 2
)

const (
	// BlockTrailerLen is the length of the trailer following every block.
	BlockTrailerLen = 5
	// MaxBlockHandleLen is the maximum encoded length of a BlockHandle.
	MaxBlockHandleLen = 20
	// FooterLen is the fixed length of the table footer.
	FooterLen = 2*MaxBlockHandleLen + 8
)

const (
	// blocks are addressed by uint32 restart offsets, readers accept up
	// to maxBlockSize bytes
	maxBlockSize = 1<<31 - 1
	// maxDataBlockSize caps WriterOptions.BlockSize
	maxDataBlockSize = 1 << 30
	// maxEntrySize caps len(key)+len(value), a full data block plus one
	// maximal entry stays below maxBlockSize
	maxEntrySize = maxDataBlockSize - 64
)

var (
	ErrBadMagic        = errors.New("sstable: bad magic byte sequence")
	ErrBadHandle       = errors.New("sstable: bad block handle")
	ErrBadCompression  = errors.New("sstable: bad compression codec")
	ErrBadChecksum     = errors.New("sstable: block checksum mismatch")
	ErrBadBlock        = errors.New("sstable: bad block contents")
	ErrComparerChanged = errors.New("sstable: changing comparer while building table")
	ErrEntryTooLarge   = errors.New("sstable: entry too large")
)

// ContractError is the panic value raised when a caller breaks the writer
// contract, e.g. by adding keys out of order or by using a finished writer.
type ContractError struct {
	Op     string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("sstable: %s: %s", e.Op, e.Reason)
}
