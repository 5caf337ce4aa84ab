// Package png provides reading and writing of PNG image files.
//
// PNG (Portable Network Graphics) is a raster image format built from
// length-prefixed, CRC-protected chunks. The pixel stream is filtered
// per scanline, optionally interlaced with the Adam7 scheme, and
// compressed with zlib. This package implements the full codec:
// chunk framing, the five scanline filters, interlacing, sample
// packing for bit depths 1 through 16, and the mapping between
// ancillary chunks and a structured metadata record.
//
// The simplest entry points operate on whole images:
//
//	img, err := png.Decode(r)
//	...
//	err = png.Encode(w, img, nil)
//
// Decoder and Encoder expose per-call options such as significant-bit
// rescaling, partial results for diagnostic tooling, forced filter
// types, and the data chunk size limit.
package png

import (
	"errors"
	"io"
	"os"

	"github.com/mrjoshuak/go-png/compression"
)

// Error kinds. Every error returned by this package wraps exactly one
// of these, so callers can classify failures with errors.Is. All are
// terminal for the current call; the codec never retries.
var (
	// ErrFraming reports a malformed chunk: bad CRC, truncated
	// stream, or a declared length exceeding the remaining input.
	ErrFraming = errors.New("png: framing error")

	// ErrFormat reports well-framed but illegal content: bad header
	// field combinations, an unrecognized filter type byte, a
	// palette index out of range, or a chunk-order violation.
	ErrFormat = errors.New("png: format error")

	// ErrDecompression reports a corrupted zlib stream, propagated
	// from the external compressor.
	ErrDecompression = errors.New("png: decompression error")

	// ErrConstraint reports an encode request with inconsistent
	// inputs, such as a transparency record whose shape does not
	// match the color type.
	ErrConstraint = errors.New("png: constraint error")
)

// Image bundles the three products of a decode: the header, the
// structured metadata, and the pixel raster. Encode consumes the same
// triple. The caller owns all referenced buffers once a call returns;
// the codec keeps no state between calls.
type Image struct {
	Header   Header
	Metadata Metadata
	Raster   *Raster

	// CompressionLevel is a representative zlib level for the level
	// category the pixel stream declared, recovered from its FLEVEL
	// header bits on decode. Encode does not read it; copy it into
	// EncodeOptions.CompressionLevel to keep the source's category
	// on a round trip.
	CompressionLevel compression.Level
}

// Decode reads a PNG image from r with default options.
func Decode(r io.Reader) (*Image, error) {
	return new(Decoder).Decode(r)
}

// DecodeFile reads a PNG image from the filesystem.
func DecodeFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes a PNG image to w. A nil opts uses the defaults: the
// per-row filter heuristic, default compression, 1 MiB data chunks.
func Encode(w io.Writer, img *Image, opts *EncodeOptions) error {
	return NewEncoder(opts).Encode(w, img)
}

// EncodeFile writes a PNG image to the filesystem.
func EncodeFile(path string, img *Image, opts *EncodeOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
