package sstable

import "io"

// WritableFile is the append-only destination of a table. The writer owns
// it exclusively while building.
type WritableFile interface {
	// Append writes all of p to the end of the file.
	Append(p []byte) error
	// Flush pushes buffered data to the underlying storage. It does not
	// need to sync to stable storage.
	Flush() error
}

// NewWritableFile adapts an io.Writer. If w has a Flush() error method
// (like *bufio.Writer) it is called on Flush, otherwise Flush is a no-op.
func NewWritableFile(w io.Writer) WritableFile {
	if f, ok := w.(WritableFile); ok {
		return f
	}
	return &writerFile{w: w}
}

type writerFile struct {
	w io.Writer
}

func (f *writerFile) Append(p []byte) error {
	n, err := f.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return err
}

func (f *writerFile) Flush() error {
	if fl, ok := f.w.(interface{ Flush() error }); ok {
		return fl.Flush()
	}
	return nil
}
