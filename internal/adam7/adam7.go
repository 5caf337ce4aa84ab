// Package adam7 implements the Adam7 interlacing scheme.
//
// An interlaced PNG transmits the image as seven sub-images, each
// selecting pixels on a fixed lattice of the full raster. Early passes
// are sparse and later passes fill in the remaining pixels, so a
// progressive renderer can show a coarse image before the stream
// completes. The seven passes partition the raster exactly: every
// pixel belongs to one and only one pass.
package adam7

// NumPasses is the number of Adam7 passes.
const NumPasses = 7

// Pass describes the pixel lattice of one interlace pass.
type Pass struct {
	XStart, YStart int
	XStep, YStep   int
}

// The canonical Adam7 start/step table.
var passes = [NumPasses]Pass{
	{0, 0, 8, 8},
	{4, 0, 8, 8},
	{0, 4, 4, 8},
	{2, 0, 4, 4},
	{0, 2, 2, 4},
	{1, 0, 2, 2},
	{0, 1, 1, 2},
}

// Geometry returns the lattice for pass p (0-6).
func Geometry(p int) Pass {
	return passes[p]
}

// PassSize returns the dimensions of pass p over a width x height
// raster. Either dimension may be zero, in which case the pass is
// empty and is omitted from the encoded stream entirely.
func PassSize(p, width, height int) (pw, ph int) {
	g := passes[p]
	pw = (width - g.XStart + g.XStep - 1) / g.XStep
	ph = (height - g.YStart + g.YStep - 1) / g.YStep
	if pw < 0 {
		pw = 0
	}
	if ph < 0 {
		ph = 0
	}
	return pw, ph
}

// Extract gathers the samples of pass p from the full raster src into
// dst. src holds width*height pixels of the given channel count in
// row-major order; dst must hold at least pw*ph pixels. Returns the
// pass dimensions.
func Extract(dst, src []uint16, width, height, channels, p int) (pw, ph int) {
	g := passes[p]
	pw, ph = PassSize(p, width, height)

	di := 0
	for py := 0; py < ph; py++ {
		y := g.YStart + py*g.YStep
		for px := 0; px < pw; px++ {
			x := g.XStart + px*g.XStep
			si := (y*width + x) * channels
			copy(dst[di:di+channels], src[si:si+channels])
			di += channels
		}
	}
	return pw, ph
}

// Scatter places the samples of pass p from src into the full raster
// dst at the lattice coordinates. This is the inverse of Extract.
func Scatter(dst, src []uint16, width, height, channels, p int) {
	g := passes[p]
	pw, ph := PassSize(p, width, height)

	si := 0
	for py := 0; py < ph; py++ {
		y := g.YStart + py*g.YStep
		for px := 0; px < pw; px++ {
			x := g.XStart + px*g.XStep
			di := (y*width + x) * channels
			copy(dst[di:di+channels], src[si:si+channels])
			si += channels
		}
	}
}

// Covered reports whether every pixel of a width x height raster is
// reached by exactly one pass.
func Covered(width, height int) bool {
	counts := make([]uint8, width*height)
	for p := 0; p < NumPasses; p++ {
		g := passes[p]
		pw, ph := PassSize(p, width, height)
		for py := 0; py < ph; py++ {
			y := g.YStart + py*g.YStep
			for px := 0; px < pw; px++ {
				x := g.XStart + px*g.XStep
				counts[y*width+x]++
			}
		}
	}
	for _, c := range counts {
		if c != 1 {
			return false
		}
	}
	return true
}
