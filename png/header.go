package png

import (
	"fmt"

	"github.com/mrjoshuak/go-png/internal/bitpack"
	"github.com/mrjoshuak/go-png/internal/filter"
	"github.com/mrjoshuak/go-png/internal/wire"
)

// ColorType identifies the channel layout of the image.
type ColorType uint8

const (
	// Greyscale stores one luminance sample per pixel.
	Greyscale ColorType = 0
	// RGB stores red, green, and blue samples per pixel.
	RGB ColorType = 2
	// Palette stores one index per pixel into the PLTE palette.
	Palette ColorType = 3
	// GreyscaleAlpha stores luminance and alpha samples per pixel.
	GreyscaleAlpha ColorType = 4
	// RGBAlpha stores red, green, blue, and alpha samples per pixel.
	RGBAlpha ColorType = 6
)

// String returns a string representation of the color type.
func (c ColorType) String() string {
	switch c {
	case Greyscale:
		return "greyscale"
	case RGB:
		return "rgb"
	case Palette:
		return "palette"
	case GreyscaleAlpha:
		return "greyscale+alpha"
	case RGBAlpha:
		return "rgb+alpha"
	default:
		return "unknown"
	}
}

// Channels returns the number of samples per pixel for the color type.
func (c ColorType) Channels() int {
	switch c {
	case Greyscale, Palette:
		return 1
	case GreyscaleAlpha:
		return 2
	case RGB:
		return 3
	case RGBAlpha:
		return 4
	default:
		return 0
	}
}

// HasAlpha returns true if the color type carries an alpha channel.
func (c ColorType) HasAlpha() bool {
	return c == GreyscaleAlpha || c == RGBAlpha
}

// depthLegal reports whether the bit depth is legal for the color type.
// Depths 1, 2, and 4 are only valid for greyscale and palette images,
// and palette images cannot use depth 16.
func (c ColorType) depthLegal(depth int) bool {
	switch c {
	case Greyscale:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8 || depth == 16
	case Palette:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8
	case RGB, GreyscaleAlpha, RGBAlpha:
		return depth == 8 || depth == 16
	default:
		return false
	}
}

// Header is the image header, carried by the IHDR chunk.
type Header struct {
	Width      int
	Height     int
	BitDepth   int
	ColorType  ColorType
	Interlaced bool
}

// Channels returns the number of samples per pixel.
func (h *Header) Channels() int {
	return h.ColorType.Channels()
}

// BitsPerPixel returns channels times bit depth.
func (h *Header) BitsPerPixel() int {
	return h.Channels() * h.BitDepth
}

// BytesPerPixel returns the scanline filter unit: bits per pixel
// rounded up to whole bytes, minimum 1.
func (h *Header) BytesPerPixel() int {
	return filter.BytesPerPixel(h.BitsPerPixel())
}

// rowBytes returns the packed byte length of a scanline of the given
// pixel width, excluding the filter type byte.
func (h *Header) rowBytes(width int) int {
	return bitpack.RowBytes(width*h.Channels(), h.BitDepth)
}

// Validate checks the header field combination.
func (h *Header) Validate() error {
	if h.Width <= 0 || h.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrFormat, h.Width, h.Height)
	}
	if h.Width > 0x7FFFFFFF || h.Height > 0x7FFFFFFF {
		return fmt.Errorf("%w: dimensions %dx%d exceed format limit", ErrFormat, h.Width, h.Height)
	}
	if h.ColorType.Channels() == 0 {
		return fmt.Errorf("%w: invalid color type %d", ErrFormat, h.ColorType)
	}
	if !h.ColorType.depthLegal(h.BitDepth) {
		return fmt.Errorf("%w: bit depth %d not legal for color type %s", ErrFormat, h.BitDepth, h.ColorType)
	}
	return nil
}

// Header chunk payload layout: width, height, bit depth, color type,
// compression method, filter method, interlace method.
const ihdrLength = 13

// decodeIHDR parses the IHDR payload.
func decodeIHDR(data []byte) (Header, error) {
	var h Header
	if len(data) != ihdrLength {
		return h, fmt.Errorf("%w: IHDR length %d, want %d", ErrFormat, len(data), ihdrLength)
	}
	r := wire.NewReader(data)
	width, _ := r.ReadUint32()
	height, _ := r.ReadUint32()
	depth, _ := r.ReadByte()
	colorType, _ := r.ReadByte()
	compression, _ := r.ReadByte()
	filterMethod, _ := r.ReadByte()
	interlace, _ := r.ReadByte()

	if compression != 0 {
		return h, fmt.Errorf("%w: unknown compression method %d", ErrFormat, compression)
	}
	if filterMethod != 0 {
		return h, fmt.Errorf("%w: unknown filter method %d", ErrFormat, filterMethod)
	}
	if interlace > 1 {
		return h, fmt.Errorf("%w: unknown interlace method %d", ErrFormat, interlace)
	}

	h = Header{
		Width:      int(width),
		Height:     int(height),
		BitDepth:   int(depth),
		ColorType:  ColorType(colorType),
		Interlaced: interlace == 1,
	}
	if width > 0x7FFFFFFF || height > 0x7FFFFFFF {
		return h, fmt.Errorf("%w: dimensions %dx%d exceed format limit", ErrFormat, width, height)
	}
	if err := h.Validate(); err != nil {
		return h, err
	}
	return h, nil
}

// encodeIHDR serializes the header into an IHDR payload.
func encodeIHDR(h *Header) []byte {
	w := wire.NewBufferWriter(ihdrLength)
	w.WriteUint32(uint32(h.Width))
	w.WriteUint32(uint32(h.Height))
	w.WriteByte(byte(h.BitDepth))
	w.WriteByte(byte(h.ColorType))
	w.WriteByte(0) // compression method
	w.WriteByte(0) // filter method
	if h.Interlaced {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
	return w.Bytes()
}
