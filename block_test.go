package sstable

import (
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("blockBuilder", func() {
	var subject *blockBuilder

	BeforeEach(func() {
		subject = newBlockBuilder(2)
	})

	It("should finish empty blocks", func() {
		Expect(subject.empty()).To(BeTrue())
		Expect(subject.estimatedSize()).To(Equal(8))
		Expect(subject.finish()).To(Equal([]byte{0, 0, 0, 0, 1, 0, 0, 0}))
	})

	It("should prefix-compress keys", func() {
		subject.add([]byte("apple"), []byte("1"))
		subject.add([]byte("apricot"), []byte("2"))
		subject.add([]byte("avocado"), []byte("3"))
		Expect(subject.empty()).To(BeFalse())

		Expect(subject.finish()).To(Equal([]byte{
			0, 5, 1, 'a', 'p', 'p', 'l', 'e', '1', // restart
			2, 5, 1, 'r', 'i', 'c', 'o', 't', '2',
			0, 7, 1, 'a', 'v', 'o', 'c', 'a', 'd', 'o', '3', // restart
			0, 0, 0, 0,
			18, 0, 0, 0,
			2, 0, 0, 0,
		}))
	})

	It("should estimate sizes exactly", func() {
		for i := 0; i < 50; i++ {
			subject.add([]byte(fmt.Sprintf("key.%04d", i)), []byte("value"))
			size := subject.estimatedSize()

			clone := newBlockBuilder(subject.restartInterval)
			clone.buf = append(clone.buf, subject.buf...)
			clone.restarts = append(clone.restarts[:0], subject.restarts...)
			Expect(clone.finish()).To(HaveLen(size))
		}
	})

	It("should reset", func() {
		subject.add([]byte("a"), []byte("1"))
		subject.add([]byte("b"), []byte("2"))
		subject.add([]byte("c"), []byte("3"))
		_ = subject.finish()

		subject.reset()
		Expect(subject.empty()).To(BeTrue())
		Expect(subject.restarts).To(Equal([]uint32{0}))
		Expect(subject.counter).To(Equal(0))

		subject.add([]byte("c"), []byte("3"))
		Expect(subject.finish()).To(Equal([]byte{0, 1, 1, 'c', '3', 0, 0, 0, 0, 1, 0, 0, 0}))
	})

	It("should round-trip", func() {
		for i := 0; i < 100; i++ {
			subject.add([]byte(fmt.Sprintf("key.%04d", i)), []byte(fmt.Sprintf("val.%d", i)))
		}

		entries, err := decodeBlock(subject.finish())
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(100))
		Expect(string(entries[0].Key)).To(Equal("key.0000"))
		Expect(string(entries[0].Value)).To(Equal("val.0"))
		Expect(string(entries[99].Key)).To(Equal("key.0099"))
		Expect(string(entries[99].Value)).To(Equal("val.99"))
	})
})

var _ = Describe("decodeBlock", func() {
	It("should decode empty blocks", func() {
		entries, err := decodeBlock([]byte{0, 0, 0, 0, 1, 0, 0, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("should reject malformed blocks", func() {
		_, err := decodeBlock([]byte{1, 0})
		Expect(err).To(MatchError(ErrBadBlock))

		_, err = decodeBlock([]byte{0, 0, 0, 0})
		Expect(err).To(MatchError(ErrBadBlock))

		_, err = decodeBlock([]byte{0, 0, 0, 0, 9, 0, 0, 0})
		Expect(err).To(MatchError(ErrBadBlock))

		// shared prefix without a previous key
		_, err = decodeBlock([]byte{3, 1, 1, 'a', '1', 0, 0, 0, 0, 1, 0, 0, 0})
		Expect(err).To(MatchError(ErrBadBlock))

		// value overflows the entry section
		_, err = decodeBlock([]byte{0, 1, 9, 'a', '1', 0, 0, 0, 0, 1, 0, 0, 0})
		Expect(err).To(MatchError(ErrBadBlock))
	})
})
