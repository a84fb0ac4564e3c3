package sstable

import (
	"encoding/binary"
	"fmt"
)

// blockBuilder accumulates prefix-compressed entries of a single block.
//
//	Block layout:
//	+---------+---------+---------+-----------------+-------+-----------------+---------------------+
//	| entry 1 |   ...   | entry n | restart 1 (4 B) |  ...  | restart m (4 B) | num restarts (4 B)  |
//	+---------+---------+---------+-----------------+-------+-----------------+---------------------+
//
//	Entry layout:
//	+-----------------+---------------------+--------------------+---------------------+----------------+
//	| shared (varint) | unshared (varint)   | value len (varint) | key suffix (varlen) | value (varlen) |
//	+-----------------+---------------------+--------------------+---------------------+----------------+
//
// Keys at restart points are stored in full (shared = 0).
type blockBuilder struct {
	restartInterval int

	buf      []byte
	restarts []uint32
	counter  int // entries since the last restart
	lastKey  []byte
}

func newBlockBuilder(restartInterval int) *blockBuilder {
	b := &blockBuilder{restartInterval: restartInterval}
	b.reset()
	return b
}

func (b *blockBuilder) reset() {
	b.buf = b.buf[:0]
	b.restarts = append(b.restarts[:0], 0)
	b.counter = 0
	b.lastKey = b.lastKey[:0]
}

func (b *blockBuilder) empty() bool { return len(b.buf) == 0 }

// estimatedSize returns the size of the block if it were finished now.
func (b *blockBuilder) estimatedSize() int {
	return len(b.buf) + 4*len(b.restarts) + 4
}

func (b *blockBuilder) add(key, value []byte) {
	shared := 0
	if b.counter < b.restartInterval {
		n := min(len(b.lastKey), len(key))
		for shared < n && b.lastKey[shared] == key[shared] {
			shared++
		}
	} else {
		b.restarts = append(b.restarts, uint32(len(b.buf)))
		b.counter = 0
	}

	b.buf = binary.AppendUvarint(b.buf, uint64(shared))
	b.buf = binary.AppendUvarint(b.buf, uint64(len(key)-shared))
	b.buf = binary.AppendUvarint(b.buf, uint64(len(value)))
	b.buf = append(b.buf, key[shared:]...)
	b.buf = append(b.buf, value...)

	b.lastKey = append(b.lastKey[:0], key...)
	b.counter++
}

// finish appends the restart array and returns the serialized block. The
// returned slice is only valid until the next reset.
func (b *blockBuilder) finish() []byte {
	for _, r := range b.restarts {
		b.buf = binary.LittleEndian.AppendUint32(b.buf, r)
	}
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(len(b.restarts)))
	return b.buf
}

// --------------------------------------------------------------------

// BlockEntry is a decoded key/value pair of a block.
type BlockEntry struct {
	Key   []byte
	Value []byte
}

// decodeBlock decodes all entries of a serialized, uncompressed block.
// Keys are freshly allocated, values alias the block.
func decodeBlock(block []byte) ([]BlockEntry, error) {
	if len(block) < 4 {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrBadBlock, len(block))
	}
	numRestarts := int(binary.LittleEndian.Uint32(block[len(block)-4:]))
	if numRestarts < 1 || (len(block)-4)/4 < numRestarts {
		return nil, fmt.Errorf("%w: invalid restart count %d", ErrBadBlock, numRestarts)
	}
	data := block[:len(block)-4-4*numRestarts]

	var entries []BlockEntry
	var prev []byte
	for pos := 0; pos < len(data); {
		shared, n1 := binary.Uvarint(data[pos:])
		if n1 <= 0 {
			return nil, ErrBadBlock
		}
		unshared, n2 := binary.Uvarint(data[pos+n1:])
		if n2 <= 0 {
			return nil, ErrBadBlock
		}
		vlen, n3 := binary.Uvarint(data[pos+n1+n2:])
		if n3 <= 0 {
			return nil, ErrBadBlock
		}
		pos += n1 + n2 + n3

		if rest := uint64(len(data) - pos); shared > uint64(len(prev)) || unshared > rest || vlen > rest-unshared {
			return nil, fmt.Errorf("%w: entry overflows block", ErrBadBlock)
		}

		key := make([]byte, 0, int(shared+unshared))
		key = append(key, prev[:shared]...)
		key = append(key, data[pos:pos+int(unshared)]...)
		pos += int(unshared)

		entries = append(entries, BlockEntry{Key: key, Value: data[pos : pos+int(vlen)]})
		pos += int(vlen)
		prev = key
	}
	return entries, nil
}
