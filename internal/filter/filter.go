// Package filter implements the five PNG scanline filters.
//
// Each scanline in the decompressed pixel stream is preceded by a
// one-byte filter type. The filters convert absolute byte values to
// differences from neighboring bytes, which tends to produce more
// compressible data for images with local coherence. All filter
// arithmetic wraps modulo 256.
package filter

import "errors"

// ErrUnknownType is returned when a scanline carries a filter type
// byte outside the range 0-4.
var ErrUnknownType = errors.New("filter: unknown filter type")

// Type identifies a scanline filter.
type Type byte

// The five filter types, in tie-break preference order for the
// encoder heuristic.
const (
	None    Type = 0
	Sub     Type = 1
	Up      Type = 2
	Average Type = 3
	Paeth   Type = 4
)

// String returns a string representation of the filter type.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Sub:
		return "sub"
	case Up:
		return "up"
	case Average:
		return "average"
	case Paeth:
		return "paeth"
	default:
		return "unknown"
	}
}

// BytesPerPixel returns the filter unit for a pixel of the given
// bit width: whole bytes rounded up, minimum 1.
func BytesPerPixel(bitsPerPixel int) int {
	bpp := (bitsPerPixel + 7) / 8
	if bpp < 1 {
		bpp = 1
	}
	return bpp
}

// paethPredictor picks whichever of the three neighbors is closest to
// p = a + b - c, ties broken in order a, b, c.
func paethPredictor(a, b, c byte) byte {
	// All arithmetic in int to avoid byte wraparound in the estimate.
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Unfilter reverses the filter of the given type on cur in place.
// prior is the reconstructed previous scanline, or nil for the first
// row (treated as all zeros). bpp is the filter unit from
// BytesPerPixel. Decoding is deterministic: given correct input it
// exactly reproduces the original unfiltered row.
func Unfilter(t Type, cur, prior []byte, bpp int) error {
	switch t {
	case None:
		// Row unchanged.
	case Sub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case Up:
		if prior != nil {
			for i := range cur {
				cur[i] += prior[i]
			}
		}
	case Average:
		if prior == nil {
			for i := bpp; i < len(cur); i++ {
				cur[i] += cur[i-bpp] / 2
			}
		} else {
			for i := 0; i < bpp && i < len(cur); i++ {
				cur[i] += prior[i] / 2
			}
			for i := bpp; i < len(cur); i++ {
				cur[i] += byte((int(cur[i-bpp]) + int(prior[i])) / 2)
			}
		}
	case Paeth:
		if prior == nil {
			// With b = c = 0 the predictor always picks a.
			for i := bpp; i < len(cur); i++ {
				cur[i] += cur[i-bpp]
			}
		} else {
			for i := 0; i < bpp && i < len(cur); i++ {
				cur[i] += prior[i]
			}
			for i := bpp; i < len(cur); i++ {
				cur[i] += paethPredictor(cur[i-bpp], prior[i], prior[i-bpp])
			}
		}
	default:
		return ErrUnknownType
	}
	return nil
}

// Apply computes the filtered form of cur into dst. prior is the raw
// previous scanline, or nil for the first row. dst and cur must have
// the same length and must not alias.
func Apply(t Type, dst, cur, prior []byte, bpp int) error {
	switch t {
	case None:
		copy(dst, cur)
	case Sub:
		copy(dst[:min(bpp, len(cur))], cur)
		for i := bpp; i < len(cur); i++ {
			dst[i] = cur[i] - cur[i-bpp]
		}
	case Up:
		if prior == nil {
			copy(dst, cur)
		} else {
			for i := range cur {
				dst[i] = cur[i] - prior[i]
			}
		}
	case Average:
		if prior == nil {
			copy(dst[:min(bpp, len(cur))], cur)
			for i := bpp; i < len(cur); i++ {
				dst[i] = cur[i] - cur[i-bpp]/2
			}
		} else {
			for i := 0; i < bpp && i < len(cur); i++ {
				dst[i] = cur[i] - prior[i]/2
			}
			for i := bpp; i < len(cur); i++ {
				dst[i] = cur[i] - byte((int(cur[i-bpp])+int(prior[i]))/2)
			}
		}
	case Paeth:
		if prior == nil {
			copy(dst[:min(bpp, len(cur))], cur)
			for i := bpp; i < len(cur); i++ {
				dst[i] = cur[i] - cur[i-bpp]
			}
		} else {
			for i := 0; i < bpp && i < len(cur); i++ {
				dst[i] = cur[i] - prior[i]
			}
			for i := bpp; i < len(cur); i++ {
				dst[i] = cur[i] - paethPredictor(cur[i-bpp], prior[i], prior[i-bpp])
			}
		}
	default:
		return ErrUnknownType
	}
	return nil
}

// cost is the encoder heuristic: the sum of absolute byte values with
// each byte interpreted as signed, i.e. Σ min(v, 256-v).
func cost(row []byte) int {
	sum := 0
	for _, v := range row {
		c := int(v)
		if c > 128 {
			c = 256 - c
		}
		sum += c
	}
	return sum
}

// Choose selects the filter type minimizing the signed-magnitude cost
// heuristic for one scanline, writing the winning filtered row into
// dst. Ties prefer None over Sub over Up over Average over Paeth.
// The choice only affects compressed size, never decodability, and is
// deterministic for reproducible output.
func Choose(dst, cur, prior []byte, bpp int) Type {
	best := None
	bestCost := -1
	scratch := make([]byte, len(cur))

	for t := None; t <= Paeth; t++ {
		// Apply never fails for types 0-4.
		_ = Apply(t, scratch, cur, prior, bpp)
		c := cost(scratch)
		if bestCost < 0 || c < bestCost {
			best = t
			bestCost = c
			copy(dst, scratch)
		}
	}
	return best
}
