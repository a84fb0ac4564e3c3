package sstable

import (
	"bytes"

	"github.com/goccy/go-yaml"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// fixedCodec pretends to compress any input to n bytes.
type fixedCodec struct {
	n  int
	ok bool
}

func (fixedCodec) tag() byte { return 7 }

func (c fixedCodec) compress(dst, _ []byte) ([]byte, bool) {
	return append(dst[:0], make([]byte, c.n)...), c.ok
}

func (fixedCodec) decompress(_, _ []byte) ([]byte, error) { return nil, ErrBadCompression }

var _ = Describe("choosePayload", func() {
	raw := bytes.Repeat([]byte{'x'}, 64)

	It("should store raw without a codec", func() {
		payload, tag, _ := choosePayload(raw, nil, nil)
		Expect(payload).To(Equal(raw))
		Expect(tag).To(Equal(blockNoCompression))
	})

	It("should require a saving of at least 1/8", func() {
		payload, tag, _ := choosePayload(raw, fixedCodec{n: 56, ok: true}, nil)
		Expect(payload).To(Equal(raw))
		Expect(tag).To(Equal(blockNoCompression))

		payload, tag, _ = choosePayload(raw, fixedCodec{n: 55, ok: true}, nil)
		Expect(payload).To(HaveLen(55))
		Expect(tag).To(Equal(byte(7)))
	})

	It("should fall back when the codec gives up", func() {
		payload, tag, _ := choosePayload(raw, fixedCodec{n: 1}, nil)
		Expect(payload).To(Equal(raw))
		Expect(tag).To(Equal(blockNoCompression))
	})

	It("should reuse scratch buffers", func() {
		scratch := make([]byte, 0, 128)
		payload, _, next := choosePayload(raw, fixedCodec{n: 8, ok: true}, scratch)
		Expect(cap(next)).To(Equal(128))
		Expect(&payload[0]).To(Equal(&scratch[:1][0]))
	})
})

var _ = Describe("compressor", func() {
	src := bytes.Repeat([]byte("compressible "), 100)

	roundTrip := func(c Compression, tag byte) {
		codec := newCompressor(c)
		Expect(codec).NotTo(BeNil())
		Expect(codec.tag()).To(Equal(tag))

		enc, ok := codec.compress(nil, src)
		Expect(ok).To(BeTrue())
		Expect(len(enc)).To(BeNumerically("<", len(src)))

		byTag, err := compressorForTag(tag)
		Expect(err).NotTo(HaveOccurred())
		Expect(byTag.decompress(nil, enc)).To(Equal(src))
	}

	It("should support snappy", func() {
		roundTrip(SnappyCompression, blockSnappyCompression)
	})

	It("should support zstd", func() {
		roundTrip(ZstdCompression, blockZstdCompression)
	})

	It("should not compress with none", func() {
		Expect(newCompressor(NoCompression)).To(BeNil())
	})

	It("should reject unknown tags", func() {
		_, err := compressorForTag(blockNoCompression)
		Expect(err).To(MatchError(ErrBadCompression))
		_, err = compressorForTag(3)
		Expect(err).To(MatchError(ErrBadCompression))
	})

	It("should reject corrupt input", func() {
		_, err := snappyCodec{}.decompress(nil, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
		Expect(err).To(HaveOccurred())
		_, err = zstdCodec{}.decompress(nil, []byte("not zstd"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Compression", func() {
	It("should marshal YAML", func() {
		data, err := yaml.Marshal(map[string]Compression{"compression": ZstdCompression})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("compression: zstd\n"))

		var v struct {
			Compression Compression `yaml:"compression"`
		}
		Expect(yaml.Unmarshal(data, &v)).To(Succeed())
		Expect(v.Compression).To(Equal(ZstdCompression))
	})

	It("should validate", func() {
		Expect(SnappyCompression.isValid()).To(BeTrue())
		Expect(ZstdCompression.isValid()).To(BeTrue())
		Expect(unknownCompression.isValid()).To(BeFalse())
		Expect(Compression(9).String()).To(Equal("Compression(9)"))
	})
})

var _ = Describe("checksums", func() {
	It("should mask reversibly", func() {
		for _, crc := range []uint32{0, 1, 0xdeadbeef, 0xffffffff} {
			Expect(unmaskChecksum(maskChecksum(crc))).To(Equal(crc))
		}
	})

	It("should cover the tag", func() {
		Expect(blockChecksum([]byte("abc"), 0)).NotTo(Equal(blockChecksum([]byte("abc"), 1)))
	})
})
