// Package compression wraps the zlib stream format used by PNG files.
//
// PNG compresses the filtered pixel stream, zTXt/iTXt text, and iCCP
// profile bodies with zlib (RFC 1950 framing around a DEFLATE stream).
// This package provides whole-buffer helpers with pooled writers and
// readers, plus streaming constructors for the image-data path where
// the payload may be too large to buffer.
package compression

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// Zlib errors
var (
	ErrCorrupted = errors.New("compression: corrupted zlib data")
	ErrTooLarge  = errors.New("compression: decompressed data exceeds limit")
)

// Level represents a zlib compression level.
// Valid values are -2 to 9, where:
//   - -2: Huffman-only compression (klauspost extension)
//   - -1: Default compression (level 6)
//   - 0: No compression (store)
//   - 1: Best speed
//   - 9: Best compression
type Level int

// Standard compression levels
const (
	LevelHuffmanOnly Level = -2 // Huffman-only (fastest, klauspost)
	LevelDefault     Level = -1 // Default (level 6)
	LevelNone        Level = 0  // No compression
	LevelBestSpeed   Level = 1  // Best speed
	LevelBestSize    Level = 9  // Best compression
)

// FLevel represents the compression level category from the zlib header.
// This is a 2-bit field indicating the general compression level
// category, not the exact level.
type FLevel int

const (
	FLevelFastest FLevel = 0 // Fastest algorithm (levels -2, 0, 1)
	FLevelFast    FLevel = 1 // Fast algorithm (levels 2, 3, 4, 5)
	FLevelDefault FLevel = 2 // Default algorithm (levels 6, -1)
	FLevelBest    FLevel = 3 // Maximum compression (levels 7, 8, 9)
)

// FLevelToLevel returns a representative compression level for an FLevel.
// Since FLEVEL only encodes 4 categories, a typical level is returned
// for each:
//   - FLevelFastest -> 1 (best speed)
//   - FLevelFast -> 4 (middle of fast range)
//   - FLevelDefault -> 6 (default)
//   - FLevelBest -> 9 (best compression)
func FLevelToLevel(fl FLevel) Level {
	switch fl {
	case FLevelFastest:
		return 1
	case FLevelFast:
		return 4
	case FLevelDefault:
		return LevelDefault
	case FLevelBest:
		return 9
	default:
		return LevelDefault
	}
}

// DetectFLevel extracts the FLEVEL from zlib compressed data.
// Returns the FLevel and true if successful, or 0 and false if the
// data is too short or has an invalid header.
func DetectFLevel(data []byte) (FLevel, bool) {
	if len(data) < 2 {
		return 0, false
	}

	cmf := data[0]
	flg := data[1]

	// Check compression method (must be 8 = deflate)
	if cmf&0x0f != 8 {
		return 0, false
	}

	// Check header checksum
	h := uint16(cmf)<<8 | uint16(flg)
	if h%31 != 0 {
		return 0, false
	}

	// Extract FLEVEL from bits 6-7 of FLG byte
	flevel := FLevel((flg >> 6) & 0x03)
	return flevel, true
}

// Pool for zlib writers to reduce allocations.
// Each pooled item contains both the writer and its destination buffer.
type writerPoolItem struct {
	writer *zlib.Writer
	buf    *bytes.Buffer
}

var writerPool = sync.Pool{
	New: func() any {
		buf := new(bytes.Buffer)
		w, _ := zlib.NewWriterLevel(buf, zlib.DefaultCompression)
		return &writerPoolItem{writer: w, buf: buf}
	},
}

// Compress compresses data with zlib at the default level.
func Compress(src []byte) ([]byte, error) {
	return CompressLevel(src, LevelDefault)
}

// CompressLevel compresses data with zlib at the specified level.
// Level should be -2 to 9:
//   - -2: Huffman-only (fastest, klauspost extension)
//   - -1: Default compression (level 6)
//   - 0: No compression
//   - 1-9: Increasing compression (1=fastest, 9=best)
//
// For level-preserving round trips, use the level detected from the
// original compressed data via DetectFLevel.
func CompressLevel(src []byte, level Level) ([]byte, error) {
	// Use pool for default level (most common case)
	if level == LevelDefault {
		item := writerPool.Get().(*writerPoolItem)
		item.buf.Reset()
		item.writer.Reset(item.buf)

		if _, err := item.writer.Write(src); err != nil {
			item.writer.Close()
			writerPool.Put(item)
			return nil, err
		}

		if err := item.writer.Close(); err != nil {
			writerPool.Put(item)
			return nil, err
		}

		result := make([]byte, item.buf.Len())
		copy(result, item.buf.Bytes())
		writerPool.Put(item)

		return result, nil
	}

	// Non-default level: create temporary writer
	buf := new(bytes.Buffer)
	w, err := zlib.NewWriterLevel(buf, int(level))
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// readerPoolItem wraps a zlib reader for pooling
type readerPoolItem struct {
	reader io.ReadCloser
	srcBuf *bytes.Reader
}

var readerPool = sync.Pool{
	New: func() any {
		return &readerPoolItem{
			srcBuf: bytes.NewReader(nil),
		}
	},
}

// Decompress decompresses a whole zlib buffer of unknown decompressed
// size. The limit parameter bounds the decompressed size; 0 means no
// limit. Text and profile chunks use this path.
func Decompress(src []byte, limit int) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrCorrupted
	}

	item := readerPool.Get().(*readerPoolItem)
	item.srcBuf.Reset(src)

	if err := resetPooledReader(item); err != nil {
		readerPool.Put(item)
		return nil, err
	}

	var r io.Reader = item.reader
	if limit > 0 {
		r = io.LimitReader(item.reader, int64(limit)+1)
	}

	dst, err := io.ReadAll(r)
	readerPool.Put(item)
	if err != nil {
		return nil, ErrCorrupted
	}
	if limit > 0 && len(dst) > limit {
		return nil, ErrTooLarge
	}
	return dst, nil
}

// DecompressTo decompresses zlib data into the provided buffer.
// The dst buffer must be exactly the right size for the decompressed data.
func DecompressTo(dst, src []byte) error {
	if len(src) == 0 {
		if len(dst) != 0 {
			return ErrCorrupted
		}
		return nil
	}

	item := readerPool.Get().(*readerPoolItem)
	item.srcBuf.Reset(src)

	if err := resetPooledReader(item); err != nil {
		readerPool.Put(item)
		return err
	}

	n, err := io.ReadFull(item.reader, dst)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		readerPool.Put(item)
		return ErrCorrupted
	}

	readerPool.Put(item)

	if n != len(dst) {
		return ErrCorrupted
	}

	return nil
}

// resetPooledReader points the pooled zlib reader at item.srcBuf,
// creating or resetting it as needed.
func resetPooledReader(item *readerPoolItem) error {
	var err error
	if item.reader == nil {
		item.reader, err = zlib.NewReader(item.srcBuf)
		if err != nil {
			return ErrCorrupted
		}
		return nil
	}

	if resetter, ok := item.reader.(zlib.Resetter); ok {
		if err = resetter.Reset(item.srcBuf, nil); err == nil {
			return nil
		}
	}

	// Fallback: close and create new
	item.reader.Close()
	item.reader, err = zlib.NewReader(item.srcBuf)
	if err != nil {
		return ErrCorrupted
	}
	return nil
}

// NewInflater returns a streaming zlib reader over r.
// The image-data path uses this so that arbitrarily large pixel
// streams never need to be buffered whole before decompression.
func NewInflater(r io.Reader) (io.ReadCloser, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, ErrCorrupted
	}
	return zr, nil
}

// NewDeflater returns a streaming zlib writer to w at the given level.
// Close must be called to flush the stream trailer.
func NewDeflater(w io.Writer, level Level) (*zlib.Writer, error) {
	return zlib.NewWriterLevel(w, int(level))
}
