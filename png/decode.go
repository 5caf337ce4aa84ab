package png

import (
	"errors"
	"fmt"
	"io"

	"github.com/mrjoshuak/go-png/compression"
	"github.com/mrjoshuak/go-png/internal/adam7"
	"github.com/mrjoshuak/go-png/internal/bitpack"
	"github.com/mrjoshuak/go-png/internal/filter"
	"github.com/mrjoshuak/go-png/internal/wire"
)

// Decoder reads PNG images. The zero value is a valid decoder with
// default behavior; a Decoder is stateless across calls and may be
// reused.
type Decoder struct {
	// Partial returns whatever was decoded before the failure
	// alongside the error: the header, the metadata gathered so far,
	// and the pixel rows recovered before the stream broke.
	// Inspection tools use this to report on damaged files.
	Partial bool

	// RescaleSBIT expands samples to the full range of the stored bit
	// depth using the significant-bits record, when one is present.
	// When channels declare different widths the widest one drives the
	// rescale. Palette images are unaffected: their samples are
	// indices.
	RescaleSBIT bool
}

// decoder is the per-call state.
type decoder struct {
	opts   *Decoder
	sr     *wire.StreamReader
	header Header
	meta   Metadata
	raster *Raster

	seen    map[string]bool
	sawIHDR bool
	sawPLTE bool
	sawIDAT bool

	idat  *idatSequence
	level compression.Level
}

// Decode reads one complete PNG image from r.
func (o *Decoder) Decode(r io.Reader) (*Image, error) {
	d := &decoder{opts: o, sr: wire.NewStreamReader(r), seen: make(map[string]bool)}
	img, err := d.run()
	if err != nil {
		if o.Partial && d.sawIHDR {
			return &Image{Header: d.header, Metadata: d.meta, Raster: d.raster, CompressionLevel: d.level}, err
		}
		return nil, err
	}
	return img, nil
}

func (d *decoder) run() (*Image, error) {
	var sig [8]byte
	if err := d.sr.ReadBytesInto(sig[:]); err != nil {
		return nil, fmt.Errorf("%w: short signature", ErrFraming)
	}
	if sig != Signature {
		return nil, fmt.Errorf("%w: not a PNG signature", ErrFraming)
	}

	first, err := readChunk(d.sr)
	if err != nil {
		return nil, framingEOF(err)
	}
	if first.Tag != tagIHDR {
		return nil, fmt.Errorf("%w: first chunk is %q, want IHDR", ErrFormat, first.Tag)
	}
	d.header, err = decodeIHDR(first.Data)
	if err != nil {
		return nil, err
	}
	d.sawIHDR = true

	for {
		c, err := readChunk(d.sr)
		if err != nil {
			return nil, framingEOF(err)
		}

	dispatch:
		switch c.Tag {
		case tagIHDR:
			return nil, fmt.Errorf("%w: duplicate IHDR", ErrFormat)

		case tagIEND:
			if len(c.Data) != 0 {
				return nil, fmt.Errorf("%w: IEND payload not empty", ErrFormat)
			}
			if !d.sawIDAT {
				return nil, fmt.Errorf("%w: missing image data", ErrFormat)
			}
			if _, err := d.sr.ReadByte(); err != io.EOF {
				return nil, fmt.Errorf("%w: data after IEND", ErrFraming)
			}
			return &Image{Header: d.header, Metadata: d.meta, Raster: d.raster, CompressionLevel: d.level}, nil

		case tagIDAT:
			if d.sawIDAT {
				return nil, fmt.Errorf("%w: image data chunks are not contiguous", ErrFormat)
			}
			if d.header.ColorType == Palette && len(d.meta.Palette) == 0 {
				return nil, fmt.Errorf("%w: image data before palette", ErrFormat)
			}
			d.sawIDAT = true
			next, err := d.readImageData(c)
			if err != nil {
				return nil, err
			}
			c = next
			goto dispatch

		case tagPLTE:
			if d.sawPLTE {
				return nil, fmt.Errorf("%w: duplicate PLTE", ErrFormat)
			}
			if d.sawIDAT {
				return nil, fmt.Errorf("%w: PLTE after image data", ErrFormat)
			}
			if d.header.ColorType == Greyscale || d.header.ColorType == GreyscaleAlpha {
				return nil, fmt.Errorf("%w: PLTE not allowed for color type %s", ErrFormat, d.header.ColorType)
			}
			if err := d.decodePLTE(c.Data); err != nil {
				return nil, err
			}
			d.sawPLTE = true

		default:
			if err := d.dispatchAncillary(c); err != nil {
				return nil, err
			}
		}
	}
}

// dispatchAncillary routes one non-critical chunk through the codec
// table, enforcing the format's ordering and uniqueness rules.
func (d *decoder) dispatchAncillary(c RawChunk) error {
	if codec, ok := chunkTable[c.Tag]; ok {
		if !codec.repeatable && d.seen[c.Tag] {
			return fmt.Errorf("%w: duplicate %q chunk", ErrFormat, c.Tag)
		}
		if codec.beforePalette && d.sawPLTE {
			return fmt.Errorf("%w: %q chunk after PLTE", ErrFormat, c.Tag)
		}
		if codec.beforeData && d.sawIDAT {
			return fmt.Errorf("%w: %q chunk after image data", ErrFormat, c.Tag)
		}
		d.seen[c.Tag] = true
		return codec.decode(d, c.Data)
	}

	if ignoredTags[c.Tag] {
		return nil
	}
	if !Ancillary(c.Tag) {
		return fmt.Errorf("%w: unknown critical chunk %q", ErrFormat, c.Tag)
	}
	d.meta.Unknown = append(d.meta.Unknown, c)
	return nil
}

// idatSequence presents the payloads of consecutive IDAT chunks as one
// io.Reader, so the inflater sees a single zlib stream without the
// chunked payload ever being concatenated in memory. The first chunk
// that is not IDAT is retained for the caller.
type idatSequence struct {
	sr   *wire.StreamReader
	cur  []byte
	next *RawChunk
	err  error
}

func (s *idatSequence) Read(p []byte) (int, error) {
	for len(s.cur) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		if s.next != nil {
			return 0, io.EOF
		}
		c, err := readChunk(s.sr)
		if err != nil {
			s.err = framingEOF(err)
			return 0, s.err
		}
		if c.Tag != tagIDAT {
			s.next = &c
			return 0, io.EOF
		}
		s.cur = c.Data
	}
	n := copy(p, s.cur)
	s.cur = s.cur[n:]
	return n, nil
}

// drain consumes remaining IDAT chunks after the zlib stream has ended
// and returns the first following chunk.
func (s *idatSequence) drain() (RawChunk, error) {
	for s.next == nil {
		if s.err != nil {
			return RawChunk{}, s.err
		}
		c, err := readChunk(s.sr)
		if err != nil {
			return RawChunk{}, framingEOF(err)
		}
		if c.Tag != tagIDAT {
			s.next = &c
		}
	}
	return *s.next, nil
}

// readImageData decompresses and reconstructs the pixel raster,
// starting from the first IDAT chunk. It returns the first chunk
// after the image data run.
func (d *decoder) readImageData(first RawChunk) (RawChunk, error) {
	d.idat = &idatSequence{sr: d.sr, cur: first.Data}

	d.level = compression.LevelDefault
	if fl, ok := compression.DetectFLevel(first.Data); ok {
		d.level = compression.FLevelToLevel(fl)
	}

	zr, err := compression.NewInflater(d.idat)
	if err != nil {
		return RawChunk{}, d.pixelError(err)
	}
	defer zr.Close()

	if err := d.readRaster(zr); err != nil {
		return RawChunk{}, err
	}

	// The zlib stream must end exactly at the last scanline.
	var one [1]byte
	if _, err := zr.Read(one[:]); err != io.EOF {
		if d.idat.err != nil {
			return RawChunk{}, d.idat.err
		}
		return RawChunk{}, fmt.Errorf("%w: too much pixel data", ErrFormat)
	}

	return d.idat.drain()
}

// readRaster reads every scanline of the image, interlaced or not,
// into a freshly allocated raster on the decoder.
func (d *decoder) readRaster(zr io.Reader) error {
	h := &d.header
	channels := h.Channels()
	d.raster = NewRaster(h.Width, h.Height, channels)

	if !h.Interlaced {
		if err := d.readRows(zr, d.raster.Pix, h.Width, h.Height); err != nil {
			return err
		}
	} else {
		for p := 0; p < adam7.NumPasses; p++ {
			pw, ph := adam7.PassSize(p, h.Width, h.Height)
			if pw == 0 || ph == 0 {
				continue
			}
			passBuf := make([]uint16, pw*ph*channels)
			if err := d.readRows(zr, passBuf, pw, ph); err != nil {
				return err
			}
			adam7.Scatter(d.raster.Pix, passBuf, h.Width, h.Height, channels, p)
		}
	}

	if h.ColorType == Palette {
		limit := uint16(len(d.meta.Palette))
		for _, s := range d.raster.Pix {
			if s >= limit {
				return fmt.Errorf("%w: palette index %d out of range", ErrFormat, s)
			}
		}
	}

	if d.opts.RescaleSBIT && h.ColorType != Palette {
		bitpack.Rescale(d.raster.Pix, h.BitDepth, d.meta.maxSignificantBits())
	}
	return nil
}

// readRows decodes height scanlines of width pixels from the inflater
// into dst, reversing the per-row filter and unpacking samples.
func (d *decoder) readRows(zr io.Reader, dst []uint16, width, height int) error {
	h := &d.header
	channels := h.Channels()
	rowSamples := width * channels
	rowBytes := h.rowBytes(width)
	bpp := h.BytesPerPixel()

	cur := make([]byte, rowBytes)
	prior := make([]byte, rowBytes)
	havePrior := false

	var ft [1]byte
	for y := 0; y < height; y++ {
		if _, err := io.ReadFull(zr, ft[:]); err != nil {
			return d.pixelError(err)
		}
		if _, err := io.ReadFull(zr, cur); err != nil {
			return d.pixelError(err)
		}

		var p []byte
		if havePrior {
			p = prior
		}
		if err := filter.Unfilter(filter.Type(ft[0]), cur, p, bpp); err != nil {
			return fmt.Errorf("%w: filter type %d on row %d", ErrFormat, ft[0], y)
		}

		bitpack.Unpack(dst[y*rowSamples:(y+1)*rowSamples], cur, h.BitDepth, rowSamples)

		cur, prior = prior, cur
		havePrior = true
	}
	return nil
}

// framingEOF converts a clean end-of-stream from the chunk layer into
// a framing error: inside a decode the stream may only end after IEND.
func framingEOF(err error) error {
	if err == io.EOF {
		return fmt.Errorf("%w: unexpected end of stream", ErrFraming)
	}
	return err
}

// pixelError classifies a failure while reading the decompressed pixel
// stream: a framing error from the chunk layer keeps its kind, a
// stream that ends before the last scanline is a format error, and
// anything else is corruption in the compressed data.
func (d *decoder) pixelError(err error) error {
	if d.idat != nil && d.idat.err != nil {
		return d.idat.err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: not enough pixel data", ErrFormat)
	}
	return fmt.Errorf("%w: %v", ErrDecompression, err)
}
