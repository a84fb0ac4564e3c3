package sstable

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// IndexEntry is a single entry of the index block.
type IndexEntry struct {
	// Separator is >= every key in the block and < every key in the
	// blocks that follow.
	Separator []byte
	Handle    BlockHandle
}

// Layout describes the block organization of a finished table.
type Layout struct {
	Footer    Footer
	MetaIndex []IndexEntry
	Index     []IndexEntry
	Size      int64
}

// ReadLayout reads the footer, meta-index and index of a table, verifying
// block checksums on the way. Data blocks are not read.
func ReadLayout(r io.ReaderAt, size int64) (*Layout, error) {
	footer, err := ReadFooter(r, size)
	if err != nil {
		return nil, err
	}

	metaIndex, err := readIndexBlock(r, footer.MetaIndex)
	if err != nil {
		return nil, fmt.Errorf("sstable: read metaindex: %w", err)
	}
	index, err := readIndexBlock(r, footer.Index)
	if err != nil {
		return nil, fmt.Errorf("sstable: read index: %w", err)
	}

	return &Layout{
		Footer:    footer,
		MetaIndex: metaIndex,
		Index:     index,
		Size:      size,
	}, nil
}

// ReadFooter reads the footer at the end of a table of the given size.
func ReadFooter(r io.ReaderAt, size int64) (Footer, error) {
	if size < FooterLen {
		return Footer{}, fmt.Errorf("%w: file of %d bytes is too short", ErrBadMagic, size)
	}

	var buf [FooterLen]byte
	if _, err := r.ReadAt(buf[:], size-FooterLen); err != nil {
		return Footer{}, err
	}
	return DecodeFooter(buf[:])
}

// ReadBlock reads the block located by h, verifies its checksum and returns
// the uncompressed contents.
func ReadBlock(r io.ReaderAt, h BlockHandle) ([]byte, error) {
	if h.Size > maxBlockSize {
		return nil, fmt.Errorf("%w: block size %d", ErrBadHandle, h.Size)
	}

	buf := fetchBuffer(int(h.Size) + BlockTrailerLen)
	defer releaseBuffer(buf)

	raw := *buf
	if _, err := r.ReadAt(raw, int64(h.Offset)); err != nil {
		return nil, err
	}

	payload, trailer := raw[:h.Size], raw[h.Size:]
	tag := trailer[0]
	want := unmaskChecksum(binary.LittleEndian.Uint32(trailer[1:]))
	if got := blockCRC(payload, tag); got != want {
		return nil, fmt.Errorf("%w: block at offset %d, crc %08x, want %08x", ErrBadChecksum, h.Offset, got, want)
	}

	if tag == blockNoCompression {
		return append([]byte(nil), payload...), nil
	}

	c, err := compressorForTag(tag)
	if err != nil {
		return nil, err
	}
	return c.decompress(nil, payload)
}

// ReadBlockEntries reads the block located by h and decodes its entries.
func ReadBlockEntries(r io.ReaderAt, h BlockHandle) ([]BlockEntry, error) {
	block, err := ReadBlock(r, h)
	if err != nil {
		return nil, err
	}
	return decodeBlock(block)
}

func readIndexBlock(r io.ReaderAt, h BlockHandle) ([]IndexEntry, error) {
	entries, err := ReadBlockEntries(r, h)
	if err != nil {
		return nil, err
	}

	index := make([]IndexEntry, 0, len(entries))
	for _, ent := range entries {
		handle, _, err := DecodeBlockHandle(ent.Value)
		if err != nil {
			return nil, err
		}
		index = append(index, IndexEntry{Separator: ent.Key, Handle: handle})
	}
	return index, nil
}

// --------------------------------------------------------------------

var bufPool sync.Pool

// fetchBuffer returns a pooled buffer of length sz.
func fetchBuffer(sz int) *[]byte {
	if v := bufPool.Get(); v != nil {
		if p := v.(*[]byte); sz <= cap(*p) {
			*p = (*p)[:sz]
			return p
		}
	}
	p := make([]byte, sz)
	return &p
}

func releaseBuffer(p *[]byte) {
	if cap(*p) != 0 {
		bufPool.Put(p)
	}
}
