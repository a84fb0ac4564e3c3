package sstable_test

import (
	"os"
	"path/filepath"

	"github.com/bsm/sstable"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("WriterOptions", func() {
	It("should parse YAML", func() {
		o, err := sstable.ParseWriterOptions([]byte(`
block_size: 1024
block_restart_interval: 8
compression: zstd
comparer: leveldb.BytewiseComparator
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(o.BlockSize).To(Equal(1024))
		Expect(o.BlockRestartInterval).To(Equal(8))
		Expect(o.Compression).To(Equal(sstable.ZstdCompression))
		Expect(o.Comparer).To(Equal(sstable.BytewiseComparer))
	})

	It("should apply defaults", func() {
		o, err := sstable.ParseWriterOptions([]byte(`compression: none`))
		Expect(err).NotTo(HaveOccurred())
		Expect(o.BlockSize).To(BeZero())
		Expect(o.Compression).To(Equal(sstable.NoCompression))
		Expect(o.Comparer).To(Equal(sstable.BytewiseComparer))
	})

	It("should reject bad values", func() {
		_, err := sstable.ParseWriterOptions([]byte(`compression: lz4`))
		Expect(err).To(MatchError(ContainSubstring(`unknown compression "lz4"`)))

		_, err = sstable.ParseWriterOptions([]byte(`comparer: custom`))
		Expect(err).To(MatchError(`sstable: unknown comparer "custom"`))

		_, err = sstable.ParseWriterOptions([]byte(`block_size: [1, 2]`))
		Expect(err).To(HaveOccurred())
	})

	It("should load files", func() {
		dir, err := os.MkdirTemp("", "sstable-options")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "options.yml")
		Expect(os.WriteFile(path, []byte("block_size: 2048\ncompression: snappy\n"), 0o600)).To(Succeed())

		o, err := sstable.LoadWriterOptions(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(o.BlockSize).To(Equal(2048))
		Expect(o.Compression).To(Equal(sstable.SnappyCompression))

		_, err = sstable.LoadWriterOptions(filepath.Join(dir, "missing.yml"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("should parse compression names", func() {
		for _, c := range []sstable.Compression{sstable.SnappyCompression, sstable.NoCompression, sstable.ZstdCompression} {
			Expect(sstable.ParseCompression(c.String())).To(Equal(c))
		}
		Expect(sstable.ParseCompression("ZSTD")).To(Equal(sstable.ZstdCompression))
		_, err := sstable.ParseCompression("brotli")
		Expect(err).To(HaveOccurred())
	})
})
