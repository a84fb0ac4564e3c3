package sstable

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Compression is the compression codec
type Compression byte

func (c Compression) isValid() bool {
	return c >= SnappyCompression && c < unknownCompression
}

// Supported compression codecs
const (
	SnappyCompression Compression = iota
	NoCompression
	ZstdCompression
	unknownCompression
)

func (c Compression) String() string {
	switch c {
	case SnappyCompression:
		return "snappy"
	case NoCompression:
		return "none"
	case ZstdCompression:
		return "zstd"
	}
	return fmt.Sprintf("Compression(%d)", byte(c))
}

// ParseCompression parses a codec name as accepted in configuration files.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "snappy", "":
		return SnappyCompression, nil
	case "none", "no":
		return NoCompression, nil
	case "zstd":
		return ZstdCompression, nil
	}
	return unknownCompression, fmt.Errorf("sstable: unknown compression %q", s)
}

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (c *Compression) UnmarshalYAML(b []byte) error {
	var s string
	if err := yaml.Unmarshal(b, &s); err != nil {
		return err
	}
	cc, err := ParseCompression(s)
	if err != nil {
		return err
	}
	*c = cc
	return nil
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (c Compression) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// --------------------------------------------------------------------

// compressor is a block codec. compress appends the encoded form of src to
// dst[:0] and reports false when the codec cannot handle the input.
type compressor interface {
	tag() byte
	compress(dst, src []byte) ([]byte, bool)
	decompress(dst, src []byte) ([]byte, error)
}

func newCompressor(c Compression) compressor {
	switch c {
	case SnappyCompression:
		return snappyCodec{}
	case ZstdCompression:
		return zstdCodec{}
	}
	return nil
}

func compressorForTag(tag byte) (compressor, error) {
	switch tag {
	case blockSnappyCompression:
		return snappyCodec{}, nil
	case blockZstdCompression:
		return zstdCodec{}, nil
	}
	return nil, fmt.Errorf("%w: type %d", ErrBadCompression, tag)
}

type snappyCodec struct{}

func (snappyCodec) tag() byte { return blockSnappyCompression }

func (snappyCodec) compress(dst, src []byte) ([]byte, bool) {
	return snappy.Encode(dst[:cap(dst)], src), true
}

func (snappyCodec) decompress(dst, src []byte) ([]byte, error) {
	sz, err := snappy.DecodedLen(src)
	if err != nil {
		return nil, err
	}
	if cap(dst) < sz {
		dst = make([]byte, sz)
	}
	return snappy.Decode(dst[:sz], src)
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func initZstd() error {
	zstdOnce.Do(func() {
		if zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1)); zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
	return zstdErr
}

type zstdCodec struct{}

func (zstdCodec) tag() byte { return blockZstdCompression }

func (zstdCodec) compress(dst, src []byte) ([]byte, bool) {
	if initZstd() != nil {
		return dst[:0], false
	}
	return zstdEncoder.EncodeAll(src, dst[:0]), true
}

func (zstdCodec) decompress(dst, src []byte) ([]byte, error) {
	if err := initZstd(); err != nil {
		return nil, err
	}
	return zstdDecoder.DecodeAll(src, dst[:0])
}

// choosePayload decides how a finished block is stored. The compressed form
// is only kept if it is at least 1/8 smaller than raw, otherwise raw is stored
// uncompressed. The scratch buffer is used as compression destination and is
// returned for reuse.
func choosePayload(raw []byte, c compressor, scratch []byte) (payload []byte, tag byte, _ []byte) {
	if c == nil {
		return raw, blockNoCompression, scratch
	}

	compressed, ok := c.compress(scratch, raw)
	if ok && len(compressed) < len(raw)-len(raw)/8 {
		return compressed, c.tag(), compressed
	}
	return raw, blockNoCompression, compressed
}
