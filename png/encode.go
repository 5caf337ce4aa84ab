package png

import (
	"fmt"
	"io"

	"github.com/mrjoshuak/go-png/compression"
	"github.com/mrjoshuak/go-png/internal/adam7"
	"github.com/mrjoshuak/go-png/internal/bitpack"
	"github.com/mrjoshuak/go-png/internal/filter"
	"github.com/mrjoshuak/go-png/internal/wire"
)

// FilterType selects the scanline filter strategy for encoding.
type FilterType int

const (
	// FilterAuto picks the filter per row with the signed-magnitude
	// cost heuristic. This is the default.
	FilterAuto FilterType = iota
	// FilterNone forces the identity filter on every row.
	FilterNone
	// FilterSub forces the left-neighbor filter on every row.
	FilterSub
	// FilterUp forces the up-neighbor filter on every row.
	FilterUp
	// FilterAverage forces the neighbor-average filter on every row.
	FilterAverage
	// FilterPaeth forces the Paeth filter on every row.
	FilterPaeth
)

// DefaultChunkSize is the data chunk payload limit used when
// EncodeOptions does not set one.
const DefaultChunkSize = 1 << 20

// EncodeOptions controls encoding. The zero value selects the
// defaults: heuristic filtering, default compression, 1 MiB data
// chunks, sequential filtering.
type EncodeOptions struct {
	// ChunkSize is the maximum payload of one data chunk. The
	// compressed pixel stream is split across as many chunks as
	// needed. Zero means DefaultChunkSize.
	ChunkSize int

	// Filter is the scanline filter strategy.
	Filter FilterType

	// CompressionLevel is the zlib level for the pixel stream and
	// compressed metadata bodies. Zero selects the default level.
	CompressionLevel compression.Level

	// Parallel filters scanlines on multiple goroutines. Filtering
	// reads only raw rows, so every row is independent; output is
	// byte-identical to the sequential path.
	Parallel bool
}

// Encoder writes PNG images. An Encoder is stateless across calls and
// may be reused.
type Encoder struct {
	opts EncodeOptions
}

// NewEncoder returns an encoder with the given options. A nil opts
// uses the defaults.
func NewEncoder(opts *EncodeOptions) *Encoder {
	e := &Encoder{}
	if opts != nil {
		e.opts = *opts
	}
	if e.opts.ChunkSize <= 0 {
		e.opts.ChunkSize = DefaultChunkSize
	}
	if e.opts.CompressionLevel == 0 {
		e.opts.CompressionLevel = compression.LevelDefault
	}
	return e
}

// Encode writes img to w as a complete PNG stream.
func (e *Encoder) Encode(w io.Writer, img *Image) error {
	if img == nil || img.Raster == nil {
		return fmt.Errorf("%w: nil image", ErrConstraint)
	}
	h := &img.Header
	if err := h.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	if e.opts.Filter < FilterAuto || e.opts.Filter > FilterPaeth {
		return fmt.Errorf("%w: invalid filter strategy %d", ErrConstraint, e.opts.Filter)
	}
	if err := validateMetadata(h, &img.Metadata); err != nil {
		return err
	}
	if err := checkRaster(h, img.Raster, &img.Metadata); err != nil {
		return err
	}

	sw := wire.NewStreamWriter(w)
	if err := sw.WriteBytes(Signature[:]); err != nil {
		return err
	}
	if err := writeChunk(sw, tagIHDR, encodeIHDR(h)); err != nil {
		return err
	}
	if err := e.writeMetadataBeforeData(sw, &img.Metadata); err != nil {
		return err
	}
	if err := e.writeImageData(sw, img); err != nil {
		return err
	}
	if err := e.writeMetadataAfterData(sw, &img.Metadata); err != nil {
		return err
	}
	return writeChunk(sw, tagIEND, nil)
}

// checkRaster verifies that the raster shape and sample values agree
// with the header.
func checkRaster(h *Header, r *Raster, m *Metadata) error {
	channels := h.Channels()
	if r.Width != h.Width || r.Height != h.Height || r.Channels != channels {
		return fmt.Errorf("%w: raster %dx%dx%d does not match header %dx%dx%d",
			ErrConstraint, r.Width, r.Height, r.Channels, h.Width, h.Height, channels)
	}
	if len(r.Pix) != h.Width*h.Height*channels {
		return fmt.Errorf("%w: raster has %d samples, want %d",
			ErrConstraint, len(r.Pix), h.Width*h.Height*channels)
	}

	var limit uint32 = 1 << uint(h.BitDepth)
	if h.ColorType == Palette {
		limit = uint32(len(m.Palette))
	}
	if limit < 1<<16 {
		for _, s := range r.Pix {
			if uint32(s) >= limit {
				return fmt.Errorf("%w: sample value %d out of range for bit depth %d",
					ErrConstraint, s, h.BitDepth)
			}
		}
	}
	return nil
}

// writeMetadataBeforeData emits every ancillary chunk that must
// precede the image data, in canonical order.
func (e *Encoder) writeMetadataBeforeData(sw *wire.StreamWriter, m *Metadata) error {
	if m.Gamma != 0 {
		if err := writeChunk(sw, tagGAMA, encodeGAMA(m.Gamma)); err != nil {
			return err
		}
	}
	if m.Chroma != nil {
		if err := writeChunk(sw, tagCHRM, encodeCHRM(m.Chroma)); err != nil {
			return err
		}
	}
	if m.SRGBIntent != nil {
		if err := writeChunk(sw, tagSRGB, []byte{byte(*m.SRGBIntent)}); err != nil {
			return err
		}
	}
	if m.ICCProfile != nil {
		data, err := encodeICCP(m.ICCProfile, e.opts.CompressionLevel)
		if err != nil {
			return err
		}
		if err := writeChunk(sw, tagICCP, data); err != nil {
			return err
		}
	}
	if len(m.SignificantBits) != 0 {
		if err := writeChunk(sw, tagSBIT, []byte(m.SignificantBits)); err != nil {
			return err
		}
	}
	if len(m.Palette) != 0 {
		if err := writeChunk(sw, tagPLTE, encodePLTE(m.Palette)); err != nil {
			return err
		}
	}
	if m.Transparency != nil {
		if err := writeChunk(sw, tagTRNS, encodeTRNS(m.Transparency)); err != nil {
			return err
		}
	}
	if m.Background != nil {
		if err := writeChunk(sw, tagBKGD, encodeBKGD(m.Background)); err != nil {
			return err
		}
	}
	if m.Resolution != nil {
		if err := writeChunk(sw, tagPHYS, encodePHYS(m.Resolution)); err != nil {
			return err
		}
	}
	return nil
}

// writeMetadataAfterData emits the remaining ancillary chunks: the
// modification time, the text entries, and pass-through chunks.
func (e *Encoder) writeMetadataAfterData(sw *wire.StreamWriter, m *Metadata) error {
	if m.Modified != nil {
		if err := writeChunk(sw, tagTIME, encodeTIME(m.Modified)); err != nil {
			return err
		}
	}
	for i := range m.Text {
		tag, data, err := encodeText(&m.Text[i], e.opts.CompressionLevel)
		if err != nil {
			return err
		}
		if err := writeChunk(sw, tag, data); err != nil {
			return err
		}
	}
	for _, c := range m.Unknown {
		if err := writeChunk(sw, c.Tag, c.Data); err != nil {
			return err
		}
	}
	return nil
}

// chunkedWriter splits a byte stream across IDAT chunks of at most max
// bytes each. The deflater writes into it directly, so the compressed
// stream never needs to be assembled whole.
type chunkedWriter struct {
	sw  *wire.StreamWriter
	buf []byte
	max int
}

func (cw *chunkedWriter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := min(cw.max-len(cw.buf), len(p))
		cw.buf = append(cw.buf, p[:n]...)
		p = p[n:]
		if len(cw.buf) == cw.max {
			if err := cw.flush(); err != nil {
				return total - len(p), err
			}
		}
	}
	return total, nil
}

// flush writes the buffered bytes as one IDAT chunk, if any.
func (cw *chunkedWriter) flush() error {
	if len(cw.buf) == 0 {
		return nil
	}
	err := writeChunk(cw.sw, tagIDAT, cw.buf)
	cw.buf = cw.buf[:0]
	return err
}

// writeImageData filters, compresses, and chunks the pixel raster.
func (e *Encoder) writeImageData(sw *wire.StreamWriter, img *Image) error {
	cw := &chunkedWriter{sw: sw, buf: make([]byte, 0, e.opts.ChunkSize), max: e.opts.ChunkSize}
	zw, err := compression.NewDeflater(cw, e.opts.CompressionLevel)
	if err != nil {
		return err
	}

	h := &img.Header
	channels := h.Channels()

	if !h.Interlaced {
		if err := e.writeRows(zw, img.Raster.Pix, h, h.Width, h.Height); err != nil {
			zw.Close()
			return err
		}
	} else {
		passBuf := make([]uint16, h.Width*h.Height*channels)
		for p := 0; p < adam7.NumPasses; p++ {
			pw, ph := adam7.Extract(passBuf, img.Raster.Pix, h.Width, h.Height, channels, p)
			if pw == 0 || ph == 0 {
				continue
			}
			if err := e.writeRows(zw, passBuf[:pw*ph*channels], h, pw, ph); err != nil {
				zw.Close()
				return err
			}
		}
	}

	if err := zw.Close(); err != nil {
		return err
	}
	return cw.flush()
}

// writeRows packs and filters height scanlines of width pixels and
// writes them to the deflater. Filtering reads only raw packed rows,
// never filtered ones, so rows are independent and the parallel path
// produces identical output.
func (e *Encoder) writeRows(zw io.Writer, samples []uint16, h *Header, width, height int) error {
	channels := h.Channels()
	rowSamples := width * channels
	rowBytes := h.rowBytes(width)
	bpp := h.BytesPerPixel()

	packed := make([]byte, height*rowBytes)
	out := make([]byte, height*(1+rowBytes))

	packRow := func(y int) {
		cur := packed[y*rowBytes : (y+1)*rowBytes]
		bitpack.Pack(cur, samples[y*rowSamples:(y+1)*rowSamples], h.BitDepth)
	}
	if e.opts.Parallel {
		parallelFor(height, packRow)
	} else {
		for y := 0; y < height; y++ {
			packRow(y)
		}
	}

	applyRow := func(y int) {
		cur := packed[y*rowBytes : (y+1)*rowBytes]
		var prior []byte
		if y > 0 {
			prior = packed[(y-1)*rowBytes : y*rowBytes]
		}
		dst := out[y*(1+rowBytes)+1 : (y+1)*(1+rowBytes)]
		if e.opts.Filter == FilterAuto {
			t := filter.Choose(dst, cur, prior, bpp)
			out[y*(1+rowBytes)] = byte(t)
		} else {
			t := filter.Type(e.opts.Filter - FilterNone)
			_ = filter.Apply(t, dst, cur, prior, bpp)
			out[y*(1+rowBytes)] = byte(t)
		}
	}
	if e.opts.Parallel {
		parallelFor(height, applyRow)
	} else {
		for y := 0; y < height; y++ {
			applyRow(y)
		}
	}

	_, err := zw.Write(out)
	return err
}
