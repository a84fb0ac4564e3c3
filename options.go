package sstable

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"
)

// WriterOptions define writer specific options.
type WriterOptions struct {
	// BlockSize is the approximate uncompressed size in bytes of each data
	// block. A block is flushed as soon as its size estimate reaches it.
	// Values above 1GiB are capped.
	// Default: 4KiB.
	BlockSize int

	// BlockRestartInterval is the number of keys between restart points
	// for delta encoding of keys in data blocks. Index blocks always use 1.
	// Default: 16.
	BlockRestartInterval int

	// The compression codec to use.
	// Default: SnappyCompression.
	Compression Compression

	// Comparer defines the key order. It cannot be changed while a table
	// is being built.
	// Default: BytewiseComparer.
	Comparer Comparer

	// Logger receives debug and error events.
	// Default: zap.L().
	Logger *zap.Logger
}

func (o *WriterOptions) norm() *WriterOptions {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}

	if oo.BlockSize < 1 {
		oo.BlockSize = 1 << 12
	} else if oo.BlockSize > maxDataBlockSize {
		oo.BlockSize = maxDataBlockSize
	}
	if oo.BlockRestartInterval < 1 {
		oo.BlockRestartInterval = 16
	}
	if !oo.Compression.isValid() {
		oo.Compression = SnappyCompression
	}
	if oo.Comparer == nil {
		oo.Comparer = BytewiseComparer
	}
	if oo.Logger == nil {
		oo.Logger = zap.L()
	}

	return &oo
}

type yamlWriterOptions struct {
	BlockSize            int         `yaml:"block_size"`
	BlockRestartInterval int         `yaml:"block_restart_interval"`
	Compression          Compression `yaml:"compression"`
	Comparer             string      `yaml:"comparer"`
}

// ParseWriterOptions parses options from YAML:
//
//	block_size: 4096
//	block_restart_interval: 16
//	compression: snappy # none, snappy or zstd
//	comparer: leveldb.BytewiseComparator
func ParseWriterOptions(data []byte) (*WriterOptions, error) {
	var raw yamlWriterOptions
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("sstable: parse options: %w", err)
	}

	cmp, ok := comparerByName(raw.Comparer)
	if !ok {
		return nil, fmt.Errorf("sstable: unknown comparer %q", raw.Comparer)
	}

	return &WriterOptions{
		BlockSize:            raw.BlockSize,
		BlockRestartInterval: raw.BlockRestartInterval,
		Compression:          raw.Compression,
		Comparer:             cmp,
	}, nil
}

// LoadWriterOptions reads options from a YAML file.
func LoadWriterOptions(path string) (*WriterOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseWriterOptions(data)
}
