// Package hitio reads and writes the files the aligner consumes and
// produces: tile index hits, three row alignment text, FASTA queries and
// PSL records, optionally compressed.
package hitio

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/google/brotli/go/cbrotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const bufSize = 1 << 20

type readCloser struct {
	io.Reader
	closers []func() error
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (wc *writeCloser) Close() error {
	var first error
	for _, c := range wc.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading, decompressing by extension: .zst, .gz and
// .br are understood, anything else is read as is.
func Open(path string) (io.ReadCloser, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc := &readCloser{}
	switch filepath.Ext(path) {
	case ".zst":
		zr, err := zstd.NewReader(fp, zstd.WithDecoderConcurrency(1))
		if err != nil {
			fp.Close()
			return nil, err
		}
		rc.Reader = zr
		rc.closers = append(rc.closers, func() error { zr.Close(); return nil })
	case ".gz":
		gzr, err := gzip.NewReader(fp)
		if err != nil {
			fp.Close()
			return nil, err
		}
		rc.Reader = gzr
		rc.closers = append(rc.closers, gzr.Close)
	case ".br":
		brr := cbrotli.NewReader(fp)
		rc.Reader = brr
		rc.closers = append(rc.closers, brr.Close)
	default:
		rc.Reader = fp
	}
	rc.Reader = bufio.NewReaderSize(rc.Reader, bufSize)
	rc.closers = append(rc.closers, fp.Close)
	return rc, nil
}

// Create creates path for writing, compressing by extension as Open
// decompresses. Close flushes the compressor before closing the file.
func Create(path string) (io.WriteCloser, error) {
	fp, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	wc := &writeCloser{}
	var w io.Writer
	switch filepath.Ext(path) {
	case ".zst":
		zw, err := zstd.NewWriter(fp, zstd.WithEncoderCRC(false), zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(1))
		if err != nil {
			fp.Close()
			return nil, err
		}
		w = zw
		wc.closers = append(wc.closers, zw.Close)
	case ".gz":
		gzw := gzip.NewWriter(fp)
		w = gzw
		wc.closers = append(wc.closers, gzw.Close)
	case ".br":
		brw := cbrotli.NewWriter(fp, cbrotli.WriterOptions{Quality: 1})
		w = brw
		wc.closers = append(wc.closers, brw.Close)
	default:
		w = fp
	}
	bw := bufio.NewWriterSize(w, bufSize)
	wc.Writer = bw
	wc.closers = append([]func() error{bw.Flush}, wc.closers...)
	wc.closers = append(wc.closers, fp.Close)
	return wc, nil
}
