package sstable

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

// BlockHandle locates a block within a table file. Size excludes the trailer.
type BlockHandle struct {
	Offset uint64
	Size   uint64
}

// AppendTo appends the varint encoded handle to dst.
func (h BlockHandle) AppendTo(dst []byte) []byte {
	dst = binary.AppendUvarint(dst, h.Offset)
	return binary.AppendUvarint(dst, h.Size)
}

// DecodeBlockHandle decodes a handle from the front of src and returns
// it together with the number of bytes consumed.
func DecodeBlockHandle(src []byte) (BlockHandle, int, error) {
	offset, n := binary.Uvarint(src)
	if n <= 0 {
		return BlockHandle{}, 0, ErrBadHandle
	}
	size, m := binary.Uvarint(src[n:])
	if m <= 0 {
		return BlockHandle{}, 0, ErrBadHandle
	}
	return BlockHandle{Offset: offset, Size: size}, n + m, nil
}

// Footer is the fixed-size record at the end of every table.
type Footer struct {
	MetaIndex BlockHandle
	Index     BlockHandle
}

// AppendTo appends exactly FooterLen bytes to dst.
func (f Footer) AppendTo(dst []byte) []byte {
	start := len(dst)
	dst = f.MetaIndex.AppendTo(dst)
	dst = f.Index.AppendTo(dst)
	for len(dst)-start < 2*MaxBlockHandleLen {
		dst = append(dst, 0)
	}
	return append(dst, magic...)
}

// DecodeFooter decodes a footer. The src must hold at least FooterLen bytes,
// the footer is read from the first FooterLen of them.
func DecodeFooter(src []byte) (Footer, error) {
	if len(src) < FooterLen {
		return Footer{}, ErrBadMagic
	}
	if !bytes.Equal(src[FooterLen-len(magic):FooterLen], magic) {
		return Footer{}, ErrBadMagic
	}

	var f Footer
	metaIndex, n, err := DecodeBlockHandle(src[:2*MaxBlockHandleLen])
	if err != nil {
		return Footer{}, err
	}
	index, _, err := DecodeBlockHandle(src[n : 2*MaxBlockHandleLen])
	if err != nil {
		return Footer{}, err
	}
	f.MetaIndex, f.Index = metaIndex, index
	return f, nil
}

// --------------------------------------------------------------------

var crcTable = crc32.MakeTable(crc32.Castagnoli)

const crcMaskDelta = 0xa282ead8

// blockCRC returns the CRC32C of payload followed by the tag byte.
func blockCRC(payload []byte, tag byte) uint32 {
	crc := crc32.Update(0, crcTable, payload)
	return crc32.Update(crc, crcTable, []byte{tag})
}

// blockChecksum returns the masked form of blockCRC as stored in trailers.
func blockChecksum(payload []byte, tag byte) uint32 {
	return maskChecksum(blockCRC(payload, tag))
}

// maskChecksum rotates and offsets a CRC so that checksums of data that
// itself embeds CRCs do not collide trivially.
func maskChecksum(crc uint32) uint32 {
	return ((crc >> 15) | (crc << 17)) + crcMaskDelta
}

func unmaskChecksum(masked uint32) uint32 {
	rot := masked - crcMaskDelta
	return (rot >> 17) | (rot << 15)
}

// appendTrailer appends the 5-byte block trailer to dst.
func appendTrailer(dst, payload []byte, tag byte) []byte {
	dst = append(dst, tag)
	return binary.LittleEndian.AppendUint32(dst, blockChecksum(payload, tag))
}
