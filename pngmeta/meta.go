// Package pngmeta provides typed accessors for standard PNG metadata.
//
// This package offers a discoverable API for the registered text
// keywords, physical resolution, color characterization, and
// modification time without bloating the core png.Metadata type. All
// functions operate on *png.Metadata.
//
// Example usage:
//
//	var m png.Metadata
//	pngmeta.SetTitle(&m, "Sunset over the bay")
//	pngmeta.SetSoftware(&m, "rendertool 2.1")
//	pngmeta.SetDPI(&m, 300, 300)
package pngmeta

import (
	"time"

	"github.com/mrjoshuak/go-png/png"
)

// Registered text keywords.
const (
	// KeyTitle is a short title or caption for the image.
	KeyTitle = "Title"
	// KeyAuthor is the name of the image's creator.
	KeyAuthor = "Author"
	// KeyDescription is a longer description of the image.
	KeyDescription = "Description"
	// KeyCopyright is the copyright notice.
	KeyCopyright = "Copyright"
	// KeyCreationTime is the time of original image creation.
	KeyCreationTime = "Creation Time"
	// KeySoftware is the software used to create the image.
	KeySoftware = "Software"
	// KeyDisclaimer is a legal disclaimer.
	KeyDisclaimer = "Disclaimer"
	// KeyWarning is a warning about the nature of the content.
	KeyWarning = "Warning"
	// KeySource is the device used to create the image.
	KeySource = "Source"
	// KeyComment is miscellaneous commentary.
	KeyComment = "Comment"
)

// metersPerInch converts between the meter-based resolution unit of
// the file format and the inch-based DPI convention.
const metersPerInch = 0.0254

// ===========================================
// Text entries
// ===========================================

// Text returns the first text entry with the given keyword, or ""
// and false when none exists.
func Text(m *png.Metadata, keyword string) (string, bool) {
	for i := range m.Text {
		if m.Text[i].Keyword == keyword {
			return m.Text[i].Text, true
		}
	}
	return "", false
}

// Texts returns every text entry with the given keyword, in file
// order. Keywords are not unique in the format.
func Texts(m *png.Metadata, keyword string) []string {
	var out []string
	for i := range m.Text {
		if m.Text[i].Keyword == keyword {
			out = append(out, m.Text[i].Text)
		}
	}
	return out
}

// SetText replaces every entry with the given keyword by a single
// entry holding text. An empty text removes the keyword entirely.
func SetText(m *png.Metadata, keyword, text string) {
	kept := m.Text[:0]
	for i := range m.Text {
		if m.Text[i].Keyword != keyword {
			kept = append(kept, m.Text[i])
		}
	}
	m.Text = kept
	if text != "" {
		m.Text = append(m.Text, png.TextEntry{Keyword: keyword, Text: text})
	}
}

// AddText appends a text entry without touching existing ones.
func AddText(m *png.Metadata, keyword, text string) {
	m.Text = append(m.Text, png.TextEntry{Keyword: keyword, Text: text})
}

// Title returns the registered Title entry.
func Title(m *png.Metadata) string { s, _ := Text(m, KeyTitle); return s }

// SetTitle sets the registered Title entry.
func SetTitle(m *png.Metadata, s string) { SetText(m, KeyTitle, s) }

// Author returns the registered Author entry.
func Author(m *png.Metadata) string { s, _ := Text(m, KeyAuthor); return s }

// SetAuthor sets the registered Author entry.
func SetAuthor(m *png.Metadata, s string) { SetText(m, KeyAuthor, s) }

// Description returns the registered Description entry.
func Description(m *png.Metadata) string { s, _ := Text(m, KeyDescription); return s }

// SetDescription sets the registered Description entry.
func SetDescription(m *png.Metadata, s string) { SetText(m, KeyDescription, s) }

// Copyright returns the registered Copyright entry.
func Copyright(m *png.Metadata) string { s, _ := Text(m, KeyCopyright); return s }

// SetCopyright sets the registered Copyright entry.
func SetCopyright(m *png.Metadata, s string) { SetText(m, KeyCopyright, s) }

// Software returns the registered Software entry.
func Software(m *png.Metadata) string { s, _ := Text(m, KeySoftware); return s }

// SetSoftware sets the registered Software entry.
func SetSoftware(m *png.Metadata, s string) { SetText(m, KeySoftware, s) }

// Source returns the registered Source entry.
func Source(m *png.Metadata) string { s, _ := Text(m, KeySource); return s }

// SetSource sets the registered Source entry.
func SetSource(m *png.Metadata, s string) { SetText(m, KeySource, s) }

// Comment returns the registered Comment entry.
func Comment(m *png.Metadata) string { s, _ := Text(m, KeyComment); return s }

// SetComment sets the registered Comment entry.
func SetComment(m *png.Metadata, s string) { SetText(m, KeyComment, s) }

// ===========================================
// Physical resolution
// ===========================================

// SetDPI records the physical resolution in dots per inch. The file
// format stores pixels per meter, so the values are converted and
// rounded: 300 DPI becomes 11811 pixels per meter.
func SetDPI(m *png.Metadata, x, y float64) {
	m.Resolution = &png.Resolution{
		XPPU: uint32(x/metersPerInch + 0.5),
		YPPU: uint32(y/metersPerInch + 0.5),
		Unit: png.UnitMeter,
	}
}

// DPI returns the physical resolution in dots per inch, or zeros and
// false when the file carries no meter-based resolution.
func DPI(m *png.Metadata) (x, y float64, ok bool) {
	r := m.Resolution
	if r == nil || r.Unit != png.UnitMeter {
		return 0, 0, false
	}
	return float64(r.XPPU) * metersPerInch, float64(r.YPPU) * metersPerInch, true
}

// SetAspectRatio records a pixel aspect ratio with no absolute scale,
// as an x:y pair of pixels per unspecified unit.
func SetAspectRatio(m *png.Metadata, x, y uint32) {
	m.Resolution = &png.Resolution{XPPU: x, YPPU: y, Unit: png.UnitUnspecified}
}

// AspectRatio returns the width of a pixel divided by its height, or
// 0 and false when no resolution is recorded. Both resolution units
// define an aspect ratio.
func AspectRatio(m *png.Metadata) (float64, bool) {
	r := m.Resolution
	if r == nil || r.XPPU == 0 || r.YPPU == 0 {
		return 0, false
	}
	// Pixels per unit along x is the reciprocal of pixel width.
	return float64(r.YPPU) / float64(r.XPPU), true
}

// ===========================================
// Color characterization
// ===========================================

// SetGamma records the image gamma. The file format stores the value
// times 100000.
func SetGamma(m *png.Metadata, gamma float64) {
	m.Gamma = uint32(gamma*100000 + 0.5)
}

// Gamma returns the image gamma, or 0 and false when absent.
func Gamma(m *png.Metadata) (float64, bool) {
	if m.Gamma == 0 {
		return 0, false
	}
	return float64(m.Gamma) / 100000, true
}

// SetSRGB marks the image as sRGB with the given rendering intent and
// records the compatibility gamma and chromaticities that sRGB-unaware
// readers fall back to.
func SetSRGB(m *png.Metadata, intent png.RenderingIntent) {
	m.SRGBIntent = &intent
	m.Gamma = 45455
	m.Chroma = &png.Chromaticity{
		WhiteX: 31270, WhiteY: 32900,
		RedX: 64000, RedY: 33000,
		GreenX: 30000, GreenY: 60000,
		BlueX: 15000, BlueY: 6000,
	}
}

// IsSRGB reports whether the image is marked sRGB.
func IsSRGB(m *png.Metadata) bool {
	return m.SRGBIntent != nil
}

// ===========================================
// Modification time
// ===========================================

// SetModified records the last-modification time, converted to UTC as
// the format requires.
func SetModified(m *png.Metadata, t time.Time) {
	t = t.UTC()
	m.Modified = &png.Time{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Touch records the current time as the last-modification time.
func Touch(m *png.Metadata) {
	SetModified(m, time.Now())
}

// Modified returns the last-modification time, or the zero time and
// false when absent.
func Modified(m *png.Metadata) (time.Time, bool) {
	t := m.Modified
	if t == nil {
		return time.Time{}, false
	}
	return time.Date(t.Year, time.Month(t.Month), t.Day, t.Hour, t.Minute, t.Second, 0, time.UTC), true
}
