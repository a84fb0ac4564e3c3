package sstable

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Writer instances can write a table. A Writer is not safe for concurrent
// use and must be terminated by exactly one call to Finish or Abandon.
type Writer struct {
	f     WritableFile
	o     *WriterOptions
	codec compressor

	data  *blockBuilder
	index *blockBuilder

	lastKey    []byte
	numEntries uint64
	offset     uint64 // bytes committed to f

	// pending holds the handle of the last flushed data block until the
	// first key of the next block is known. The index entry is then keyed
	// by a short separator between both blocks instead of the full last key.
	// It is only set while the data block is empty.
	pending *BlockHandle

	next *WriterOptions // applied once the current data block is written

	err    error // sticky first failure
	closed bool

	scratch []byte // compression buffer
	sep     []byte // separator buffer
	tmp     []byte // handle, trailer and footer buffer
}

// NewWriter wraps a writer and returns a Writer.
func NewWriter(w io.Writer, o *WriterOptions) *Writer {
	return NewFileWriter(NewWritableFile(w), o)
}

// NewFileWriter returns a Writer appending to f.
func NewFileWriter(f WritableFile, o *WriterOptions) *Writer {
	o = o.norm()
	return &Writer{
		f:     f,
		o:     o,
		codec: newCompressor(o.Compression),
		data:  newBlockBuilder(o.BlockRestartInterval),
		index: newBlockBuilder(1),
		tmp:   make([]byte, 0, FooterLen),
	}
}

// ChangeOptions updates the options of a table under construction. Changes
// apply to blocks started after the call, a data block in progress is still
// written with the previous options. Changing the comparer is rejected with
// ErrComparerChanged.
func (w *Writer) ChangeOptions(o *WriterOptions) error {
	w.mustBeOpen("change options")

	oo := o.norm()
	if oo.Comparer.Name() != w.o.Comparer.Name() {
		return ErrComparerChanged
	}

	if w.data.empty() {
		w.applyOptions(oo)
	} else {
		w.next = oo
	}
	return nil
}

// Add appends a key/value pair to the table. Keys must be added in strictly
// increasing order; violations panic with a *ContractError. Entries larger
// than 1GiB are rejected with ErrEntryTooLarge and leave the writer usable.
// It is safe to modify the contents of the arguments after Add returns.
func (w *Writer) Add(key, value []byte) error {
	w.mustBeOpen("add")
	if w.err != nil {
		return w.err
	}
	if err := checkEntrySize(len(key), len(value)); err != nil {
		return err
	}
	if w.numEntries != 0 && w.o.Comparer.Compare(key, w.lastKey) <= 0 {
		panic(&ContractError{
			Op:     "add",
			Reason: fmt.Sprintf("out-of-order key %q, must be > %q", key, w.lastKey),
		})
	}

	if w.pending != nil {
		w.sep = w.o.Comparer.Separator(w.sep[:0], w.lastKey, key)
		w.addIndexEntry(w.sep)
	}

	w.lastKey = append(w.lastKey[:0], key...)
	w.numEntries++
	w.data.add(key, value)

	if w.data.estimatedSize() >= w.o.BlockSize {
		return w.Flush()
	}
	return nil
}

// Flush writes the current data block, if any, and flushes the file.
// Callers normally do not need this, blocks are flushed automatically once
// they reach the configured block size.
func (w *Writer) Flush() error {
	if w.closed || w.err != nil || w.data.empty() {
		return w.err
	}
	if w.pending != nil {
		panic(&ContractError{Op: "flush", Reason: "index entry of the previous block is still pending"})
	}

	handle, err := w.writeBlock(w.data, "data")
	if err != nil {
		return err
	}
	w.pending = &handle
	if w.next != nil {
		w.applyOptions(w.next)
		w.next = nil
	}

	return w.setErr(w.f.Flush())
}

// Finish flushes the remaining entries, writes the meta-index block, the
// index block and the footer. The Writer must not be used afterwards. Finish
// returns the first error encountered while building the table.
func (w *Writer) Finish() error {
	w.mustBeOpen("finish")
	err := w.Flush()
	w.closed = true
	if err != nil {
		return err
	}

	// reserved for table statistics and filters
	metaIndexHandle, err := w.writeBlock(newBlockBuilder(w.o.BlockRestartInterval), "metaindex")
	if err != nil {
		return err
	}

	if w.pending != nil {
		w.sep = w.o.Comparer.Successor(w.sep[:0], w.lastKey)
		w.addIndexEntry(w.sep)
	}

	indexHandle, err := w.writeBlock(w.index, "index")
	if err != nil {
		return err
	}

	footer := Footer{MetaIndex: metaIndexHandle, Index: indexHandle}
	w.tmp = footer.AppendTo(w.tmp[:0])
	if err := w.setErr(w.f.Append(w.tmp)); err != nil {
		return err
	}
	w.offset += uint64(len(w.tmp))

	w.o.Logger.Debug("sstable: table finished",
		zap.Uint64("entries", w.numEntries),
		zap.Uint64("size", w.offset),
	)
	return w.setErr(w.f.Flush())
}

// Abandon closes the Writer without writing the index and footer. Bytes
// already written stay in the file, the caller is expected to remove it.
func (w *Writer) Abandon() {
	w.mustBeOpen("abandon")
	w.closed = true

	w.o.Logger.Debug("sstable: table abandoned",
		zap.Uint64("entries", w.numEntries),
		zap.Uint64("size", w.offset),
	)
}

// Status returns the first error encountered, if any.
func (w *Writer) Status() error { return w.err }

// NumEntries returns the number of entries added so far.
func (w *Writer) NumEntries() uint64 { return w.numEntries }

// FileSize returns the number of bytes committed to the file so far. After a
// successful Finish it is the size of the complete table.
func (w *Writer) FileSize() uint64 { return w.offset }

func checkEntrySize(keyLen, valueLen int) error {
	if n := keyLen + valueLen; n > maxEntrySize {
		return fmt.Errorf("%w: %d bytes", ErrEntryTooLarge, n)
	}
	return nil
}

func (w *Writer) applyOptions(o *WriterOptions) {
	w.o = o
	w.codec = newCompressor(o.Compression)
	w.data.restartInterval = o.BlockRestartInterval
}

func (w *Writer) addIndexEntry(sep []byte) {
	w.tmp = w.pending.AppendTo(w.tmp[:0])
	w.index.add(sep, w.tmp)
	w.pending = nil
}

// writeBlock finishes b and writes it to the file followed by its trailer.
//
//	+------------------+-------------------------+------------------------------+
//	| payload (varlen) | compression type (1 B)  | masked crc32c (4 B, LE)      |
//	+------------------+-------------------------+------------------------------+
//
// The returned handle does not include the trailer. The offset only
// advances if both appends succeed.
func (w *Writer) writeBlock(b *blockBuilder, kind string) (BlockHandle, error) {
	raw := b.finish()
	payload, tag, scratch := choosePayload(raw, w.codec, w.scratch)
	defer func() {
		w.scratch = scratch[:0]
		b.reset()
	}()

	handle := BlockHandle{Offset: w.offset, Size: uint64(len(payload))}
	if err := w.setErr(w.f.Append(payload)); err != nil {
		return handle, err
	}

	w.tmp = appendTrailer(w.tmp[:0], payload, tag)
	if err := w.setErr(w.f.Append(w.tmp)); err != nil {
		return handle, err
	}
	w.offset += handle.Size + BlockTrailerLen

	w.o.Logger.Debug("sstable: block written",
		zap.String("kind", kind),
		zap.Uint64("offset", handle.Offset),
		zap.Uint64("size", handle.Size),
		zap.Int("raw", len(raw)),
		zap.Uint8("compression", tag),
	)
	return handle, nil
}

func (w *Writer) setErr(err error) error {
	if err != nil && w.err == nil {
		w.err = err
		w.o.Logger.Error("sstable: write failed",
			zap.Uint64("offset", w.offset),
			zap.Uint64("entries", w.numEntries),
			zap.Error(err),
		)
	}
	return w.err
}

func (w *Writer) mustBeOpen(op string) {
	if w.closed {
		panic(&ContractError{Op: op, Reason: "writer is closed"})
	}
}
