package png

import (
	"fmt"
	"hash/crc32"
	"io"

	"github.com/mrjoshuak/go-png/internal/wire"
)

// Signature is the 8-byte sequence that precedes the first chunk of
// every PNG file.
var Signature = [8]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// Chunk tags handled by the codec. The case of each letter is
// significant: bit 5 of the first byte marks the chunk ancillary, of
// the second byte private, and of the fourth byte safe to copy.
const (
	tagIHDR = "IHDR"
	tagPLTE = "PLTE"
	tagIDAT = "IDAT"
	tagIEND = "IEND"
	tagTRNS = "tRNS"
	tagGAMA = "gAMA"
	tagCHRM = "cHRM"
	tagSRGB = "sRGB"
	tagICCP = "iCCP"
	tagSBIT = "sBIT"
	tagBKGD = "bKGD"
	tagPHYS = "pHYs"
	tagTIME = "tIME"
	tagTEXT = "tEXt"
	tagZTXT = "zTXt"
	tagITXT = "iTXt"
)

// ignoredTags are recognized, accepted silently on decode, and never
// written on encode. This set is static configuration: it is consulted
// read-only, so concurrent codec calls never interfere.
var ignoredTags = map[string]bool{
	"hIST": true, // palette histogram
	"sPLT": true, // suggested palette
	"oFFs": true, // image offset
	"pCAL": true, // pixel value calibration
	"sCAL": true, // physical scale
	"gIFg": true, // GIF graphic control
	"gIFx": true, // GIF application extension
	"gIFt": true, // GIF plain text (deprecated)
	"dSIG": true, // digital signature
	"fRAc": true, // fractal parameters
}

// maxChunkLength is the format's limit on a chunk payload.
const maxChunkLength = 0x7FFFFFFF

// Ancillary reports whether a chunk tag marks the chunk as ancillary
// (not required to display the image).
func Ancillary(tag string) bool {
	return len(tag) == 4 && tag[0]&0x20 != 0
}

// Private reports whether a chunk tag is in the private namespace.
func Private(tag string) bool {
	return len(tag) == 4 && tag[1]&0x20 != 0
}

// SafeToCopy reports whether an unrecognized chunk may be copied to a
// modified file.
func SafeToCopy(tag string) bool {
	return len(tag) == 4 && tag[3]&0x20 != 0
}

// validTag reports whether all four tag bytes are ASCII letters.
func validTag(tag string) bool {
	if len(tag) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		c := tag[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

// RawChunk is one chunk of the container, framing only: the codec
// attaches no semantics to unrecognized tags and passes them through
// opaquely for round trips.
type RawChunk struct {
	Tag  string
	Data []byte
}

// ReadChunk reads one complete chunk from r and verifies its CRC.
// At a clean chunk boundary with no further data it returns io.EOF;
// any partial chunk is a framing error.
func ReadChunk(r io.Reader) (RawChunk, error) {
	return readChunk(wire.NewStreamReader(r))
}

// WriteChunk writes one chunk to w with its length prefix and CRC.
func WriteChunk(w io.Writer, c RawChunk) error {
	if !validTag(c.Tag) {
		return fmt.Errorf("%w: invalid chunk tag %q", ErrConstraint, c.Tag)
	}
	return writeChunk(wire.NewStreamWriter(w), c.Tag, c.Data)
}

// readChunk reads one complete chunk from the stream and verifies its
// CRC. A declared length past the end of the stream surfaces as a
// truncated-payload framing error.
func readChunk(r *wire.StreamReader) (RawChunk, error) {
	off := r.Offset()

	length, err := r.ReadUint32()
	if err != nil {
		if err == io.EOF {
			return RawChunk{}, io.EOF
		}
		return RawChunk{}, fmt.Errorf("%w: truncated chunk at offset %d", ErrFraming, off)
	}
	if length > maxChunkLength {
		return RawChunk{}, fmt.Errorf("%w: chunk length %d at offset %d exceeds limit", ErrFraming, length, off)
	}

	tag, err := r.ReadBytes(4)
	if err != nil {
		return RawChunk{}, fmt.Errorf("%w: truncated chunk at offset %d", ErrFraming, off)
	}
	if !validTag(string(tag)) {
		return RawChunk{}, fmt.Errorf("%w: invalid chunk tag %q at offset %d", ErrFraming, tag, off)
	}

	data := make([]byte, length)
	if err := r.ReadBytesInto(data); err != nil {
		return RawChunk{}, fmt.Errorf("%w: truncated %q payload at offset %d", ErrFraming, tag, off)
	}

	want, err := r.ReadUint32()
	if err != nil {
		return RawChunk{}, fmt.Errorf("%w: truncated %q CRC at offset %d", ErrFraming, tag, off)
	}

	crc := crc32.NewIEEE()
	crc.Write(tag)
	crc.Write(data)
	if got := crc.Sum32(); got != want {
		return RawChunk{}, fmt.Errorf("%w: bad CRC for %q at offset %d (got %08x, want %08x)",
			ErrFraming, tag, off, got, want)
	}

	return RawChunk{Tag: string(tag), Data: data}, nil
}

// writeChunk writes one chunk with its length prefix and CRC.
func writeChunk(w *wire.StreamWriter, tag string, data []byte) error {
	if len(data) > maxChunkLength {
		return fmt.Errorf("%w: chunk %q payload too large", ErrConstraint, tag)
	}
	if err := w.WriteUint32(uint32(len(data))); err != nil {
		return err
	}
	if err := w.WriteBytes([]byte(tag)); err != nil {
		return err
	}
	if err := w.WriteBytes(data); err != nil {
		return err
	}
	crc := crc32.NewIEEE()
	crc.Write([]byte(tag))
	crc.Write(data)
	return w.WriteUint32(crc.Sum32())
}
