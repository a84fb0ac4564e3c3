package sstable

import "bytes"

// Comparer defines the total order of keys within a table.
type Comparer interface {
	// Name identifies the ordering. A table must be built under a single name.
	Name() string

	// Compare returns -1, 0, or +1 depending on whether a is less than,
	// equal to, or greater than b.
	Compare(a, b []byte) int

	// Separator appends a key x to dst such that start <= x < limit,
	// preferably shorter than start. When no shorter key exists, start is
	// appended unchanged.
	Separator(dst, start, limit []byte) []byte

	// Successor appends a short key x to dst such that x >= key.
	Successor(dst, key []byte) []byte
}

// BytewiseComparer orders keys lexicographically by their bytes.
var BytewiseComparer Comparer = bytewiseComparer{}

type bytewiseComparer struct{}

func (bytewiseComparer) Name() string { return "leveldb.BytewiseComparator" }

func (bytewiseComparer) Compare(a, b []byte) int { return bytes.Compare(a, b) }

func (bytewiseComparer) Separator(dst, start, limit []byte) []byte {
	n := min(len(start), len(limit))
	i := 0
	for i < n && start[i] == limit[i] {
		i++
	}

	// one key is a prefix of the other
	if i >= n {
		return append(dst, start...)
	}

	if c := start[i]; c < 0xff && c+1 < limit[i] {
		dst = append(dst, start[:i+1]...)
		dst[len(dst)-1]++
		return dst
	}
	return append(dst, start...)
}

func (bytewiseComparer) Successor(dst, key []byte) []byte {
	for i, c := range key {
		if c != 0xff {
			dst = append(dst, key[:i+1]...)
			dst[len(dst)-1]++
			return dst
		}
	}
	// a run of 0xff has no short successor
	return append(dst, key...)
}

func comparerByName(name string) (Comparer, bool) {
	if name == "" || name == BytewiseComparer.Name() {
		return BytewiseComparer, true
	}
	return nil, false
}
