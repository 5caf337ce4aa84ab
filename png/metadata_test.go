package png

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/mrjoshuak/go-png/compression"
)

func TestMetadataRoundTrip(t *testing.T) {
	h := Header{Width: 4, Height: 4, BitDepth: 8, ColorType: RGB}
	img := newTestImage(h)

	intent := IntentRelative
	img.Metadata = Metadata{
		Gamma: 45455,
		Chroma: &Chromaticity{
			WhiteX: 31270, WhiteY: 32900,
			RedX: 64000, RedY: 33000,
			GreenX: 30000, GreenY: 60000,
			BlueX: 15000, BlueY: 6000,
		},
		SRGBIntent:      &intent,
		SignificantBits: []uint8{5, 6, 5},
		Transparency:    &Transparency{Kind: TransparencyRGB, RGB: [3]uint16{10, 20, 30}},
		Background:      &Background{Kind: BackgroundRGB, RGB: [3]uint16{255, 255, 255}},
		Resolution:      &Resolution{XPPU: 11811, YPPU: 11811, Unit: UnitMeter},
		Modified:        &Time{Year: 2026, Month: 8, Day: 25, Hour: 12, Minute: 30, Second: 0},
		Text: []TextEntry{
			{Keyword: "Title", Text: "test card"},
			{Keyword: "Comment", Text: "plain latin-1 body"},
		},
		Unknown: []RawChunk{{Tag: "teSt", Data: []byte{9, 8, 7}}},
	}

	got := encodeDecode(t, img, nil, nil)
	if !reflect.DeepEqual(got.Metadata, img.Metadata) {
		t.Errorf("metadata round trip mismatch\n got: %+v\nwant: %+v", got.Metadata, img.Metadata)
	}
}

func TestPaletteRoundTrip(t *testing.T) {
	h := Header{Width: 4, Height: 2, BitDepth: 4, ColorType: Palette}
	img := newTestImage(h)
	img.Metadata.Transparency = &Transparency{
		Kind:         TransparencyPalette,
		PaletteAlpha: []uint8{0, 128, 255},
	}
	img.Metadata.Background = &Background{Kind: BackgroundIndex, Index: 1}

	got := encodeDecode(t, img, nil, nil)
	if !reflect.DeepEqual(got.Metadata.Palette, img.Metadata.Palette) {
		t.Errorf("palette = %v, want %v", got.Metadata.Palette, img.Metadata.Palette)
	}
	if !reflect.DeepEqual(got.Metadata.Transparency, img.Metadata.Transparency) {
		t.Errorf("transparency = %+v, want %+v", got.Metadata.Transparency, img.Metadata.Transparency)
	}

	rgba := got.Metadata.PaletteRGBA()
	if len(rgba) != len(img.Metadata.Palette) {
		t.Fatalf("PaletteRGBA length = %d, want %d", len(rgba), len(img.Metadata.Palette))
	}
	if rgba[0][3] != 0 || rgba[1][3] != 128 || rgba[3][3] != 255 {
		t.Errorf("PaletteRGBA alphas = %d %d %d, want 0 128 255",
			rgba[0][3], rgba[1][3], rgba[3][3])
	}
}

func TestGreyTransparencyRoundTrip(t *testing.T) {
	h := Header{Width: 2, Height: 2, BitDepth: 16, ColorType: Greyscale}
	img := newTestImage(h)
	img.Metadata.Transparency = &Transparency{Kind: TransparencyGrey, Grey: 0xBEEF}

	got := encodeDecode(t, img, nil, nil)
	tr := got.Metadata.Transparency
	if tr == nil || tr.Kind != TransparencyGrey || tr.Grey != 0xBEEF {
		t.Errorf("transparency = %+v", tr)
	}
}

func TestICCProfileRoundTrip(t *testing.T) {
	h := Header{Width: 2, Height: 2, BitDepth: 8, ColorType: RGB}
	img := newTestImage(h)
	profile := bytes.Repeat([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 64)
	img.Metadata.ICCProfile = &ICCProfile{Name: "test profile", Profile: profile}

	got := encodeDecode(t, img, nil, nil)
	p := got.Metadata.ICCProfile
	if p == nil {
		t.Fatal("profile lost")
	}
	if p.Name != "test profile" {
		t.Errorf("name = %q", p.Name)
	}
	if !bytes.Equal(p.Profile, profile) {
		t.Error("profile bytes differ")
	}
}

func TestTextForms(t *testing.T) {
	h := Header{Width: 2, Height: 2, BitDepth: 8, ColorType: Greyscale}
	img := newTestImage(h)
	img.Metadata.Text = []TextEntry{
		{Keyword: "Title", Text: "plain"},
		{Keyword: "Description", Text: "compressed body", Compressed: true},
		{Keyword: "Comment", Text: "häßlich", International: false},
		{
			Keyword: "Title", Text: "日本語のタイトル",
			International: true, LanguageTag: "ja", TranslatedKeyword: "題名",
		},
	}

	got := encodeDecode(t, img, nil, nil)
	texts := got.Metadata.Text
	if len(texts) != 4 {
		t.Fatalf("got %d text entries, want 4", len(texts))
	}

	if texts[0].Compressed || texts[0].International || texts[0].Text != "plain" {
		t.Errorf("tEXt entry = %+v", texts[0])
	}
	if !texts[1].Compressed || texts[1].International || texts[1].Text != "compressed body" {
		t.Errorf("zTXt entry = %+v", texts[1])
	}
	// Latin-1 representable text stays in the simple form.
	if texts[2].International || texts[2].Text != "häßlich" {
		t.Errorf("latin-1 entry = %+v", texts[2])
	}
	if !texts[3].International || texts[3].Text != "日本語のタイトル" ||
		texts[3].LanguageTag != "ja" || texts[3].TranslatedKeyword != "題名" {
		t.Errorf("iTXt entry = %+v", texts[3])
	}
}

func TestTextPromotionToInternational(t *testing.T) {
	h := Header{Width: 1, Height: 1, BitDepth: 8, ColorType: Greyscale}
	img := newTestImage(h)
	img.Metadata.Text = []TextEntry{{Keyword: "Comment", Text: "emoji ☃ body"}}

	got := encodeDecode(t, img, nil, nil)
	if len(got.Metadata.Text) != 1 {
		t.Fatalf("got %d entries", len(got.Metadata.Text))
	}
	e := got.Metadata.Text[0]
	if !e.International {
		t.Error("non-latin-1 text was not promoted to the international form")
	}
	if e.Text != "emoji ☃ body" {
		t.Errorf("text = %q", e.Text)
	}
}

func TestCheckKeyword(t *testing.T) {
	tests := []struct {
		kw string
		ok bool
	}{
		{"Title", true},
		{"Creation Time", true},
		{"x", true},
		{string(bytes.Repeat([]byte{'a'}, 79)), true},
		{"", false},
		{string(bytes.Repeat([]byte{'a'}, 80)), false},
		{" leading", false},
		{"trailing ", false},
		{"two  spaces", false},
		{"ctrl\x01char", false},
	}
	for _, tt := range tests {
		err := checkKeyword(tt.kw)
		if tt.ok && err != nil {
			t.Errorf("checkKeyword(%q) = %v, want nil", tt.kw, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("checkKeyword(%q) = nil, want error", tt.kw)
		}
	}
}

func TestAncillaryDecodeErrors(t *testing.T) {
	rgbIHDR := RawChunk{Tag: tagIHDR, Data: encodeIHDR(&Header{
		Width: 1, Height: 1, BitDepth: 8, ColorType: RGB,
	})}
	row := idat(t, []byte{0, 1, 2, 3})
	end := RawChunk{Tag: tagIEND}

	tests := []struct {
		name  string
		chunk RawChunk
	}{
		{"gAMA length", RawChunk{Tag: tagGAMA, Data: []byte{0, 0}}},
		{"cHRM length", RawChunk{Tag: tagCHRM, Data: make([]byte, 31)}},
		{"sRGB intent", RawChunk{Tag: tagSRGB, Data: []byte{4}}},
		{"sBIT length", RawChunk{Tag: tagSBIT, Data: []byte{5}}},
		{"sBIT zero", RawChunk{Tag: tagSBIT, Data: []byte{0, 5, 5}}},
		{"bKGD length", RawChunk{Tag: tagBKGD, Data: []byte{0, 1}}},
		{"pHYs length", RawChunk{Tag: tagPHYS, Data: make([]byte, 8)}},
		{"pHYs unit", RawChunk{Tag: tagPHYS, Data: []byte{0, 0, 0, 1, 0, 0, 0, 1, 2}}},
		{"tIME length", RawChunk{Tag: tagTIME, Data: make([]byte, 6)}},
		{"tIME month", RawChunk{Tag: tagTIME, Data: []byte{0x07, 0xEA, 13, 1, 0, 0, 0}}},
		{"tRNS shape", RawChunk{Tag: tagTRNS, Data: []byte{0, 1}}},
		{"tEXt keyword", RawChunk{Tag: tagTEXT, Data: []byte("no terminator")}},
		{"PLTE length", RawChunk{Tag: tagPLTE, Data: []byte{1, 2}}},
	}
	for _, tt := range tests {
		data := buildFile(t, rgbIHDR, tt.chunk, row, end)
		if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, ErrFormat) {
			t.Errorf("%s: err = %v, want ErrFormat", tt.name, err)
		}
	}
}

func TestTRNSBeforePLTE(t *testing.T) {
	data := buildFile(t,
		RawChunk{Tag: tagIHDR, Data: encodeIHDR(&Header{
			Width: 1, Height: 1, BitDepth: 8, ColorType: Palette,
		})},
		RawChunk{Tag: tagTRNS, Data: []byte{128}},
		RawChunk{Tag: tagPLTE, Data: []byte{1, 2, 3}},
		idat(t, []byte{0, 0}),
		RawChunk{Tag: tagIEND},
	)
	if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v, want ErrFormat", err)
	}
}

func TestBKGDPaletteConstraints(t *testing.T) {
	palIHDR := RawChunk{Tag: tagIHDR, Data: encodeIHDR(&Header{
		Width: 1, Height: 1, BitDepth: 8, ColorType: Palette,
	})}
	plte := RawChunk{Tag: tagPLTE, Data: []byte{10, 20, 30}}
	row := idat(t, []byte{0, 0})
	end := RawChunk{Tag: tagIEND}

	before := buildFile(t, palIHDR,
		RawChunk{Tag: tagBKGD, Data: []byte{0}}, plte, row, end)
	if _, err := Decode(bytes.NewReader(before)); !errors.Is(err, ErrFormat) {
		t.Errorf("bKGD before PLTE: err = %v, want ErrFormat", err)
	}

	// Index 200 against a one-entry palette.
	outOfRange := buildFile(t, palIHDR, plte,
		RawChunk{Tag: tagBKGD, Data: []byte{200}}, row, end)
	if _, err := Decode(bytes.NewReader(outOfRange)); !errors.Is(err, ErrFormat) {
		t.Errorf("bKGD index past palette: err = %v, want ErrFormat", err)
	}

	inRange := buildFile(t, palIHDR, plte,
		RawChunk{Tag: tagBKGD, Data: []byte{0}}, row, end)
	img, err := Decode(bytes.NewReader(inRange))
	if err != nil {
		t.Fatalf("in-range index: %v", err)
	}
	b := img.Metadata.Background
	if b == nil || b.Kind != BackgroundIndex || b.Index != 0 {
		t.Errorf("background = %+v", b)
	}
}

func TestICCPOverridesSRGB(t *testing.T) {
	profile := bytes.Repeat([]byte{0xAB, 0xCD}, 16)
	comp, err := compression.Compress(profile)
	if err != nil {
		t.Fatal(err)
	}
	iccp := RawChunk{Tag: tagICCP, Data: append([]byte("embedded\x00\x00"), comp...)}
	srgb := RawChunk{Tag: tagSRGB, Data: []byte{0}}

	rgbIHDR := RawChunk{Tag: tagIHDR, Data: encodeIHDR(&Header{
		Width: 1, Height: 1, BitDepth: 8, ColorType: RGB,
	})}
	row := idat(t, []byte{0, 1, 2, 3})
	end := RawChunk{Tag: tagIEND}

	orders := map[string][]RawChunk{
		"iCCP first": {rgbIHDR, iccp, srgb, row, end},
		"sRGB first": {rgbIHDR, srgb, iccp, row, end},
	}
	for name, chunks := range orders {
		img, err := Decode(bytes.NewReader(buildFile(t, chunks...)))
		if err != nil {
			t.Fatalf("%s: Decode: %v", name, err)
		}
		p := img.Metadata.ICCProfile
		if p == nil || !bytes.Equal(p.Profile, profile) {
			t.Fatalf("%s: profile = %+v", name, p)
		}
		if img.Metadata.SRGBIntent != nil {
			t.Errorf("%s: sRGB intent kept alongside the profile", name)
		}
		// The decoded metadata must satisfy the encoder's exclusion rule.
		if err := Encode(io.Discard, img, nil); err != nil {
			t.Errorf("%s: re-encode: %v", name, err)
		}
	}
}

func TestUnknownAncillaryPassThrough(t *testing.T) {
	h := Header{Width: 2, Height: 2, BitDepth: 8, ColorType: Greyscale}
	img := newTestImage(h)
	img.Metadata.Unknown = []RawChunk{
		{Tag: "teSt", Data: []byte{1, 2, 3}},
		{Tag: "meTa", Data: nil},
	}

	got := encodeDecode(t, img, nil, nil)
	if len(got.Metadata.Unknown) != 2 {
		t.Fatalf("got %d unknown chunks, want 2", len(got.Metadata.Unknown))
	}
	if got.Metadata.Unknown[0].Tag != "teSt" ||
		!bytes.Equal(got.Metadata.Unknown[0].Data, []byte{1, 2, 3}) {
		t.Errorf("unknown chunk = %+v", got.Metadata.Unknown[0])
	}
}

func TestRenderingIntentString(t *testing.T) {
	tests := []struct {
		ri   RenderingIntent
		want string
	}{
		{IntentPerceptual, "perceptual"},
		{IntentRelative, "relative"},
		{IntentSaturation, "saturation"},
		{IntentAbsolute, "absolute"},
		{RenderingIntent(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.ri.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.ri, got, tt.want)
		}
	}
}
