package png

import (
	"fmt"

	"github.com/mrjoshuak/go-png/compression"
	"github.com/mrjoshuak/go-png/internal/wire"
)

// PaletteEntry is one RGB triple of the PLTE palette.
type PaletteEntry struct {
	R, G, B uint8
}

// TransparencyKind discriminates the representation of a transparency
// record, which varies with the color type.
type TransparencyKind uint8

const (
	// TransparencyPalette carries one alpha value per palette index.
	TransparencyPalette TransparencyKind = iota
	// TransparencyGrey declares one greyscale sample value fully
	// transparent.
	TransparencyGrey
	// TransparencyRGB declares one RGB pixel value fully transparent.
	TransparencyRGB
)

// Transparency is the tRNS record. Exactly the fields of its Kind are
// meaningful; the others are zero.
type Transparency struct {
	Kind         TransparencyKind
	PaletteAlpha []uint8
	Grey         uint16
	RGB          [3]uint16
}

// Chromaticity holds the cHRM coordinates, each stored as the CIE xy
// value multiplied by 100000.
type Chromaticity struct {
	WhiteX, WhiteY uint32
	RedX, RedY     uint32
	GreenX, GreenY uint32
	BlueX, BlueY   uint32
}

// RenderingIntent is the sRGB color-mapping policy.
type RenderingIntent uint8

const (
	// IntentPerceptual optimizes for pleasing reproduction.
	IntentPerceptual RenderingIntent = 0
	// IntentRelative preserves colorimetry relative to the white point.
	IntentRelative RenderingIntent = 1
	// IntentSaturation preserves saturation for charts and graphs.
	IntentSaturation RenderingIntent = 2
	// IntentAbsolute preserves absolute colorimetry.
	IntentAbsolute RenderingIntent = 3
)

// String returns a string representation of the rendering intent.
func (ri RenderingIntent) String() string {
	switch ri {
	case IntentPerceptual:
		return "perceptual"
	case IntentRelative:
		return "relative"
	case IntentSaturation:
		return "saturation"
	case IntentAbsolute:
		return "absolute"
	default:
		return "unknown"
	}
}

// ICCProfile is the iCCP record. Profile holds the decompressed
// profile bytes; the chunk body is recompressed on encode.
type ICCProfile struct {
	Name    string
	Profile []byte
}

// BackgroundKind discriminates the bKGD representation.
type BackgroundKind uint8

const (
	// BackgroundIndex is a palette index.
	BackgroundIndex BackgroundKind = iota
	// BackgroundGrey is one greyscale sample.
	BackgroundGrey
	// BackgroundRGB is one sample per RGB channel.
	BackgroundRGB
)

// Background is the bKGD record.
type Background struct {
	Kind  BackgroundKind
	Index uint8
	Grey  uint16
	RGB   [3]uint16
}

// Unit is the pHYs resolution unit.
type Unit uint8

const (
	// UnitUnspecified means the resolution defines only an aspect ratio.
	UnitUnspecified Unit = 0
	// UnitMeter means pixels per meter.
	UnitMeter Unit = 1
)

// Resolution is the pHYs record: pixels per unit along each axis.
// All input shorthands (a single scalar, a bare pair, or a DPI value)
// normalize to this canonical form before emission.
type Resolution struct {
	XPPU uint32
	YPPU uint32
	Unit Unit
}

// Time is the tIME record, the last-modification time in UTC.
type Time struct {
	Year   int
	Month  int // 1-12
	Day    int // 1-31
	Hour   int // 0-23
	Minute int // 0-59
	Second int // 0-60, 60 allows for leap seconds
}

// Metadata is the structured record of every interpreted ancillary
// chunk. Optional scalar records use pointers (or zero for gamma,
// which has no legal zero value); absent fields are simply not
// emitted on encode.
type Metadata struct {
	// Palette is required for palette images and optional as a
	// suggested quantization for RGB images.
	Palette []PaletteEntry

	// Transparency is the tRNS record.
	Transparency *Transparency

	// Gamma is the image gamma times 100000, or 0 if absent.
	Gamma uint32

	// Chroma is the cHRM record.
	Chroma *Chromaticity

	// SRGBIntent marks the image as sRGB with the given intent.
	SRGBIntent *RenderingIntent

	// ICCProfile is the embedded color profile.
	ICCProfile *ICCProfile

	// SignificantBits lists the number of meaningful bits per
	// channel, in color-type channel order (for palette images,
	// the R, G, B width of the palette samples).
	SignificantBits []uint8

	// Background is the suggested background color.
	Background *Background

	// Resolution is the physical pixel density.
	Resolution *Resolution

	// Modified is the last-modification time.
	Modified *Time

	// Text is the ordered keyword/text multimap from tEXt, zTXt,
	// and iTXt chunks.
	Text []TextEntry

	// Unknown preserves unrecognized ancillary chunks in arrival
	// order for pass-through. They are re-emitted verbatim.
	Unknown []RawChunk
}

// PaletteRGBA returns the palette merged with the transparency record
// as RGBA quadruples. Entries with no transparency byte are opaque.
func (m *Metadata) PaletteRGBA() [][4]uint8 {
	out := make([][4]uint8, len(m.Palette))
	for i, e := range m.Palette {
		a := uint8(255)
		if m.Transparency != nil && m.Transparency.Kind == TransparencyPalette && i < len(m.Transparency.PaletteAlpha) {
			a = m.Transparency.PaletteAlpha[i]
		}
		out[i] = [4]uint8{e.R, e.G, e.B, a}
	}
	return out
}

// maxSignificantBits returns the largest per-channel significant-bit
// count, or 0 when the record is absent. When channels disagree the
// codec reconciles by the maximum; see the Decoder.RescaleSBIT note.
func (m *Metadata) maxSignificantBits() int {
	max := 0
	for _, b := range m.SignificantBits {
		if int(b) > max {
			max = int(b)
		}
	}
	return max
}

// sbitLength returns the sBIT payload length for a color type. The
// palette case is three (the palette samples are RGB regardless of
// the index depth).
func sbitLength(c ColorType) int {
	if c == Palette {
		return 3
	}
	return c.Channels()
}

// chunkCodec maps one ancillary tag to its payload codec and ordering
// constraints. The table is static package data, never mutated, so
// concurrent codec instances share it safely.
type chunkCodec struct {
	decode        func(d *decoder, data []byte) error
	beforePalette bool // must precede PLTE when a palette is present
	beforeData    bool // must precede the first IDAT
	repeatable    bool // may appear more than once
}

var chunkTable = map[string]chunkCodec{
	tagTRNS: {decode: (*decoder).decodeTRNS, beforeData: true},
	tagGAMA: {decode: (*decoder).decodeGAMA, beforePalette: true, beforeData: true},
	tagCHRM: {decode: (*decoder).decodeCHRM, beforePalette: true, beforeData: true},
	tagSRGB: {decode: (*decoder).decodeSRGB, beforePalette: true, beforeData: true},
	tagICCP: {decode: (*decoder).decodeICCP, beforePalette: true, beforeData: true},
	tagSBIT: {decode: (*decoder).decodeSBIT, beforePalette: true, beforeData: true},
	tagBKGD: {decode: (*decoder).decodeBKGD, beforeData: true},
	tagPHYS: {decode: (*decoder).decodePHYS, beforeData: true},
	tagTIME: {decode: (*decoder).decodeTIME},
	tagTEXT: {decode: (*decoder).decodeTEXT, repeatable: true},
	tagZTXT: {decode: (*decoder).decodeZTXT, repeatable: true},
	tagITXT: {decode: (*decoder).decodeITXT, repeatable: true},
}

// --- payload decoders ---

func (d *decoder) decodePLTE(data []byte) error {
	if len(data) == 0 || len(data)%3 != 0 || len(data) > 256*3 {
		return fmt.Errorf("%w: PLTE length %d", ErrFormat, len(data))
	}
	n := len(data) / 3
	if d.header.ColorType == Palette && n > 1<<uint(d.header.BitDepth) {
		return fmt.Errorf("%w: palette has %d entries for bit depth %d", ErrFormat, n, d.header.BitDepth)
	}
	pal := make([]PaletteEntry, n)
	for i := range pal {
		pal[i] = PaletteEntry{R: data[3*i], G: data[3*i+1], B: data[3*i+2]}
	}
	d.meta.Palette = pal
	return nil
}

func (d *decoder) decodeTRNS(data []byte) error {
	t := &Transparency{}
	switch d.header.ColorType {
	case Palette:
		if len(d.meta.Palette) == 0 {
			return fmt.Errorf("%w: tRNS before PLTE", ErrFormat)
		}
		if len(data) > len(d.meta.Palette) {
			return fmt.Errorf("%w: tRNS has %d entries for a %d-entry palette", ErrFormat, len(data), len(d.meta.Palette))
		}
		t.Kind = TransparencyPalette
		t.PaletteAlpha = append([]uint8(nil), data...)
	case Greyscale:
		if len(data) != 2 {
			return fmt.Errorf("%w: tRNS length %d for greyscale", ErrFormat, len(data))
		}
		r := wire.NewReader(data)
		t.Kind = TransparencyGrey
		t.Grey, _ = r.ReadUint16()
	case RGB:
		if len(data) != 6 {
			return fmt.Errorf("%w: tRNS length %d for rgb", ErrFormat, len(data))
		}
		r := wire.NewReader(data)
		t.Kind = TransparencyRGB
		for i := range t.RGB {
			t.RGB[i], _ = r.ReadUint16()
		}
	default:
		return fmt.Errorf("%w: tRNS not allowed for color type %s", ErrFormat, d.header.ColorType)
	}
	d.meta.Transparency = t
	return nil
}

func (d *decoder) decodeGAMA(data []byte) error {
	if len(data) != 4 {
		return fmt.Errorf("%w: gAMA length %d", ErrFormat, len(data))
	}
	r := wire.NewReader(data)
	d.meta.Gamma, _ = r.ReadUint32()
	return nil
}

func (d *decoder) decodeCHRM(data []byte) error {
	if len(data) != 32 {
		return fmt.Errorf("%w: cHRM length %d", ErrFormat, len(data))
	}
	r := wire.NewReader(data)
	c := &Chromaticity{}
	c.WhiteX, _ = r.ReadUint32()
	c.WhiteY, _ = r.ReadUint32()
	c.RedX, _ = r.ReadUint32()
	c.RedY, _ = r.ReadUint32()
	c.GreenX, _ = r.ReadUint32()
	c.GreenY, _ = r.ReadUint32()
	c.BlueX, _ = r.ReadUint32()
	c.BlueY, _ = r.ReadUint32()
	d.meta.Chroma = c
	return nil
}

func (d *decoder) decodeSRGB(data []byte) error {
	if len(data) != 1 {
		return fmt.Errorf("%w: sRGB length %d", ErrFormat, len(data))
	}
	if data[0] > 3 {
		return fmt.Errorf("%w: sRGB rendering intent %d", ErrFormat, data[0])
	}
	// An embedded profile takes precedence over the sRGB marker, so
	// the decoded metadata stays valid for re-encoding.
	if d.meta.ICCProfile != nil {
		return nil
	}
	ri := RenderingIntent(data[0])
	d.meta.SRGBIntent = &ri
	return nil
}

func (d *decoder) decodeICCP(data []byte) error {
	r := wire.NewReader(data)
	name, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: iCCP profile name not terminated", ErrFormat)
	}
	if err := checkKeyword(name); err != nil {
		return fmt.Errorf("%w: iCCP profile name: %v", ErrFormat, err)
	}
	method, err := r.ReadByte()
	if err != nil || method != 0 {
		return fmt.Errorf("%w: iCCP compression method", ErrFormat)
	}
	profile, err := compression.Decompress(r.Rest(), 0)
	if err != nil {
		return fmt.Errorf("%w: iCCP profile body: %v", ErrDecompression, err)
	}
	d.meta.ICCProfile = &ICCProfile{Name: name, Profile: profile}
	d.meta.SRGBIntent = nil
	return nil
}

func (d *decoder) decodeSBIT(data []byte) error {
	want := sbitLength(d.header.ColorType)
	if len(data) != want {
		return fmt.Errorf("%w: sBIT length %d for color type %s, want %d", ErrFormat, len(data), d.header.ColorType, want)
	}
	limit := d.header.BitDepth
	if d.header.ColorType == Palette {
		limit = 8 // palette samples are 8-bit regardless of index depth
	}
	for _, b := range data {
		if b == 0 || int(b) > limit {
			return fmt.Errorf("%w: sBIT value %d exceeds sample depth %d", ErrFormat, b, limit)
		}
	}
	d.meta.SignificantBits = append([]uint8(nil), data...)
	return nil
}

func (d *decoder) decodeBKGD(data []byte) error {
	b := &Background{}
	switch d.header.ColorType {
	case Palette:
		if len(data) != 1 {
			return fmt.Errorf("%w: bKGD length %d for palette", ErrFormat, len(data))
		}
		if len(d.meta.Palette) == 0 {
			return fmt.Errorf("%w: bKGD before PLTE", ErrFormat)
		}
		if int(data[0]) >= len(d.meta.Palette) {
			return fmt.Errorf("%w: bKGD index %d out of range for a %d-entry palette",
				ErrFormat, data[0], len(d.meta.Palette))
		}
		b.Kind = BackgroundIndex
		b.Index = data[0]
	case Greyscale, GreyscaleAlpha:
		if len(data) != 2 {
			return fmt.Errorf("%w: bKGD length %d for greyscale", ErrFormat, len(data))
		}
		r := wire.NewReader(data)
		b.Kind = BackgroundGrey
		b.Grey, _ = r.ReadUint16()
	case RGB, RGBAlpha:
		if len(data) != 6 {
			return fmt.Errorf("%w: bKGD length %d for rgb", ErrFormat, len(data))
		}
		r := wire.NewReader(data)
		b.Kind = BackgroundRGB
		for i := range b.RGB {
			b.RGB[i], _ = r.ReadUint16()
		}
	}
	d.meta.Background = b
	return nil
}

func (d *decoder) decodePHYS(data []byte) error {
	if len(data) != 9 {
		return fmt.Errorf("%w: pHYs length %d", ErrFormat, len(data))
	}
	r := wire.NewReader(data)
	res := &Resolution{}
	res.XPPU, _ = r.ReadUint32()
	res.YPPU, _ = r.ReadUint32()
	unit, _ := r.ReadByte()
	if unit > 1 {
		return fmt.Errorf("%w: pHYs unit %d", ErrFormat, unit)
	}
	res.Unit = Unit(unit)
	d.meta.Resolution = res
	return nil
}

func (d *decoder) decodeTIME(data []byte) error {
	if len(data) != 7 {
		return fmt.Errorf("%w: tIME length %d", ErrFormat, len(data))
	}
	r := wire.NewReader(data)
	year, _ := r.ReadUint16()
	month, _ := r.ReadByte()
	day, _ := r.ReadByte()
	hour, _ := r.ReadByte()
	minute, _ := r.ReadByte()
	second, _ := r.ReadByte()
	tm := &Time{
		Year:   int(year),
		Month:  int(month),
		Day:    int(day),
		Hour:   int(hour),
		Minute: int(minute),
		Second: int(second),
	}
	if err := tm.validate(); err != nil {
		return err
	}
	d.meta.Modified = tm
	return nil
}

func (t *Time) validate() error {
	if t.Month < 1 || t.Month > 12 || t.Day < 1 || t.Day > 31 ||
		t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 ||
		t.Second < 0 || t.Second > 60 || t.Year < 0 || t.Year > 65535 {
		return fmt.Errorf("%w: tIME value out of range", ErrFormat)
	}
	return nil
}

// --- payload encoders ---

func encodePLTE(pal []PaletteEntry) []byte {
	w := wire.NewBufferWriter(len(pal) * 3)
	for _, e := range pal {
		w.WriteByte(e.R)
		w.WriteByte(e.G)
		w.WriteByte(e.B)
	}
	return w.Bytes()
}

func encodeTRNS(t *Transparency) []byte {
	switch t.Kind {
	case TransparencyPalette:
		return append([]byte(nil), t.PaletteAlpha...)
	case TransparencyGrey:
		w := wire.NewBufferWriter(2)
		w.WriteUint16(t.Grey)
		return w.Bytes()
	default: // TransparencyRGB
		w := wire.NewBufferWriter(6)
		for _, v := range t.RGB {
			w.WriteUint16(v)
		}
		return w.Bytes()
	}
}

func encodeGAMA(gamma uint32) []byte {
	w := wire.NewBufferWriter(4)
	w.WriteUint32(gamma)
	return w.Bytes()
}

func encodeCHRM(c *Chromaticity) []byte {
	w := wire.NewBufferWriter(32)
	w.WriteUint32(c.WhiteX)
	w.WriteUint32(c.WhiteY)
	w.WriteUint32(c.RedX)
	w.WriteUint32(c.RedY)
	w.WriteUint32(c.GreenX)
	w.WriteUint32(c.GreenY)
	w.WriteUint32(c.BlueX)
	w.WriteUint32(c.BlueY)
	return w.Bytes()
}

func encodeICCP(p *ICCProfile, level compression.Level) ([]byte, error) {
	body, err := compression.CompressLevel(p.Profile, level)
	if err != nil {
		return nil, err
	}
	w := wire.NewBufferWriter(len(p.Name) + 2 + len(body))
	w.WriteString(p.Name)
	w.WriteByte(0) // compression method
	w.WriteBytes(body)
	return w.Bytes(), nil
}

func encodeBKGD(b *Background) []byte {
	switch b.Kind {
	case BackgroundIndex:
		return []byte{b.Index}
	case BackgroundGrey:
		w := wire.NewBufferWriter(2)
		w.WriteUint16(b.Grey)
		return w.Bytes()
	default: // BackgroundRGB
		w := wire.NewBufferWriter(6)
		for _, v := range b.RGB {
			w.WriteUint16(v)
		}
		return w.Bytes()
	}
}

func encodePHYS(r *Resolution) []byte {
	w := wire.NewBufferWriter(9)
	w.WriteUint32(r.XPPU)
	w.WriteUint32(r.YPPU)
	w.WriteByte(byte(r.Unit))
	return w.Bytes()
}

func encodeTIME(t *Time) []byte {
	w := wire.NewBufferWriter(7)
	w.WriteUint16(uint16(t.Year))
	w.WriteByte(byte(t.Month))
	w.WriteByte(byte(t.Day))
	w.WriteByte(byte(t.Hour))
	w.WriteByte(byte(t.Minute))
	w.WriteByte(byte(t.Second))
	return w.Bytes()
}

// validateMetadata checks the metadata record against the header
// before encoding. Shape mismatches are caller mistakes, reported as
// ErrConstraint.
func validateMetadata(h *Header, m *Metadata) error {
	if h.ColorType == Palette {
		if len(m.Palette) == 0 {
			return fmt.Errorf("%w: palette image without palette", ErrConstraint)
		}
		if len(m.Palette) > 1<<uint(h.BitDepth) {
			return fmt.Errorf("%w: palette has %d entries for bit depth %d", ErrConstraint, len(m.Palette), h.BitDepth)
		}
	}
	if len(m.Palette) > 256 {
		return fmt.Errorf("%w: palette has %d entries", ErrConstraint, len(m.Palette))
	}
	if h.ColorType == Greyscale || h.ColorType == GreyscaleAlpha {
		if len(m.Palette) != 0 {
			return fmt.Errorf("%w: palette not allowed for color type %s", ErrConstraint, h.ColorType)
		}
	}

	if t := m.Transparency; t != nil {
		switch h.ColorType {
		case Palette:
			if t.Kind != TransparencyPalette {
				return fmt.Errorf("%w: transparency kind mismatched to palette image", ErrConstraint)
			}
			if len(t.PaletteAlpha) > len(m.Palette) {
				return fmt.Errorf("%w: transparency has %d entries for a %d-entry palette", ErrConstraint, len(t.PaletteAlpha), len(m.Palette))
			}
		case Greyscale:
			if t.Kind != TransparencyGrey {
				return fmt.Errorf("%w: transparency kind mismatched to greyscale image", ErrConstraint)
			}
		case RGB:
			if t.Kind != TransparencyRGB {
				return fmt.Errorf("%w: transparency kind mismatched to rgb image", ErrConstraint)
			}
		default:
			return fmt.Errorf("%w: transparency not allowed for color type %s", ErrConstraint, h.ColorType)
		}
	}

	if b := m.Background; b != nil {
		switch h.ColorType {
		case Palette:
			if b.Kind != BackgroundIndex {
				return fmt.Errorf("%w: background kind mismatched to palette image", ErrConstraint)
			}
			if int(b.Index) >= len(m.Palette) {
				return fmt.Errorf("%w: background index %d out of palette range", ErrConstraint, b.Index)
			}
		case Greyscale, GreyscaleAlpha:
			if b.Kind != BackgroundGrey {
				return fmt.Errorf("%w: background kind mismatched to greyscale image", ErrConstraint)
			}
		default:
			if b.Kind != BackgroundRGB {
				return fmt.Errorf("%w: background kind mismatched to rgb image", ErrConstraint)
			}
		}
	}

	if len(m.SignificantBits) != 0 {
		want := sbitLength(h.ColorType)
		if len(m.SignificantBits) != want {
			return fmt.Errorf("%w: significant-bits has %d entries for color type %s, want %d",
				ErrConstraint, len(m.SignificantBits), h.ColorType, want)
		}
		limit := h.BitDepth
		if h.ColorType == Palette {
			limit = 8
		}
		for _, b := range m.SignificantBits {
			if b == 0 || int(b) > limit {
				return fmt.Errorf("%w: significant-bits value %d exceeds sample depth %d", ErrConstraint, b, limit)
			}
		}
	}

	if m.ICCProfile != nil {
		if m.SRGBIntent != nil {
			return fmt.Errorf("%w: iCCP and sRGB are mutually exclusive", ErrConstraint)
		}
		if err := checkKeyword(m.ICCProfile.Name); err != nil {
			return fmt.Errorf("%w: ICC profile name: %v", ErrConstraint, err)
		}
	}

	if m.Resolution != nil && m.Resolution.Unit > UnitMeter {
		return fmt.Errorf("%w: resolution unit %d", ErrConstraint, m.Resolution.Unit)
	}
	if m.Modified != nil {
		if err := m.Modified.validate(); err != nil {
			return fmt.Errorf("%w: modification time out of range", ErrConstraint)
		}
	}

	for i := range m.Text {
		if err := checkKeyword(m.Text[i].Keyword); err != nil {
			return fmt.Errorf("%w: text keyword: %v", ErrConstraint, err)
		}
	}

	for _, c := range m.Unknown {
		if !validTag(c.Tag) || !Ancillary(c.Tag) {
			return fmt.Errorf("%w: cannot pass through chunk %q", ErrConstraint, c.Tag)
		}
	}

	return nil
}
