// sstbuild writes sorted key/value pairs into a LevelDB compatible table
// and inspects the layout of existing tables.
//
// Usage:
//
//	sstbuild build [-config opts.yml] [-compression snappy] [-block-size 4096] [-in pairs.tsv] <output>
//	sstbuild layout <table>
//
// Input lines are tab-separated key/value pairs in strictly increasing key
// order. A line without a tab is a key with an empty value.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bsm/sstable"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "layout":
		err = runLayout(os.Args[2:], os.Stdout)
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: sstbuild build [flags] <output> | sstbuild layout <table>")
	os.Exit(2)
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	config := fs.String("config", "", "YAML options file")
	input := fs.String("in", "", "input file (default: stdin)")
	compression := fs.String("compression", "", "compression: none, snappy, zstd")
	blockSize := fs.Int("block-size", 0, "target uncompressed block size")
	restartInterval := fs.Int("restart-interval", 0, "keys between restart points")
	verbose := fs.Bool("v", false, "verbose logging")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one output path")
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	o := new(sstable.WriterOptions)
	if *config != "" {
		if o, err = sstable.LoadWriterOptions(*config); err != nil {
			return err
		}
	}
	if *compression != "" {
		if o.Compression, err = sstable.ParseCompression(*compression); err != nil {
			return err
		}
	}
	if *blockSize != 0 {
		o.BlockSize = *blockSize
	}
	if *restartInterval != 0 {
		o.BlockRestartInterval = *restartInterval
	}
	o.Logger = logger

	in := io.Reader(os.Stdin)
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	return buildFile(fs.Arg(0), in, o)
}

func buildFile(path string, in io.Reader, o *sstable.WriterOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(f, 64*1024)
	n, err := build(bw, in, o)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}

	logger := zap.L()
	if o != nil && o.Logger != nil {
		logger = o.Logger
	}
	logger.Info("table written",
		zap.String("path", path),
		zap.Uint64("entries", n),
	)
	return nil
}

// build reads pairs from in and writes a table to out. On failure the table
// is abandoned and out holds a partial table.
func build(out io.Writer, in io.Reader, o *sstable.WriterOptions) (uint64, error) {
	cmp := sstable.BytewiseComparer
	if o != nil && o.Comparer != nil {
		cmp = o.Comparer
	}

	w := sstable.NewWriter(out, o)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var prev []byte
	for line := 1; scanner.Scan(); line++ {
		key, value, _ := bytes.Cut(scanner.Bytes(), []byte{'\t'})
		if w.NumEntries() != 0 && cmp.Compare(key, prev) <= 0 {
			w.Abandon()
			return 0, fmt.Errorf("line %d: key %q is not greater than %q", line, key, prev)
		}
		if err := w.Add(key, value); err != nil {
			w.Abandon()
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		prev = append(prev[:0], key...)
	}
	if err := scanner.Err(); err != nil {
		w.Abandon()
		return 0, err
	}

	if err := w.Finish(); err != nil {
		return 0, err
	}
	return w.NumEntries(), nil
}

func runLayout(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one table path")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return err
	}

	layout, err := sstable.ReadLayout(f, stat.Size())
	if err != nil {
		return err
	}
	return printLayout(stdout, layout)
}

func printLayout(w io.Writer, layout *sstable.Layout) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "size:      %d\n", layout.Size)
	fmt.Fprintf(bw, "metaindex: offset=%d size=%d entries=%d\n", layout.Footer.MetaIndex.Offset, layout.Footer.MetaIndex.Size, len(layout.MetaIndex))
	fmt.Fprintf(bw, "index:     offset=%d size=%d entries=%d\n", layout.Footer.Index.Offset, layout.Footer.Index.Size, len(layout.Index))
	for i, ent := range layout.Index {
		fmt.Fprintf(bw, "block %d: offset=%d size=%d separator=%q\n", i, ent.Handle.Offset, ent.Handle.Size, ent.Separator)
	}
	return bw.Flush()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}
