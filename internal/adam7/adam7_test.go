package adam7

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestPassSizeKnown(t *testing.T) {
	// An 8x8 raster has one pixel in pass 0 and the canonical
	// distribution across the rest.
	wantCounts := []int{1, 1, 2, 4, 8, 16, 32}
	total := 0
	for p := 0; p < NumPasses; p++ {
		pw, ph := PassSize(p, 8, 8)
		if pw*ph != wantCounts[p] {
			t.Errorf("PassSize(%d, 8, 8) = %dx%d (%d pixels), want %d", p, pw, ph, pw*ph, wantCounts[p])
		}
		total += pw * ph
	}
	if total != 64 {
		t.Errorf("total pixels = %d, want 64", total)
	}
}

func TestPassSizeEmptyPasses(t *testing.T) {
	// A 1x1 image only has a pixel in pass 0.
	for p := 0; p < NumPasses; p++ {
		pw, ph := PassSize(p, 1, 1)
		if p == 0 {
			if pw != 1 || ph != 1 {
				t.Errorf("PassSize(0, 1, 1) = %dx%d, want 1x1", pw, ph)
			}
		} else if pw != 0 && ph != 0 {
			t.Errorf("PassSize(%d, 1, 1) = %dx%d, want an empty dimension", p, pw, ph)
		}
	}

	// A 4x1 image: passes with YStart > 0 are empty.
	if pw, ph := PassSize(6, 4, 1); pw != 0 && ph != 0 {
		t.Errorf("PassSize(6, 4, 1) = %dx%d, want an empty dimension", pw, ph)
	}
}

func TestCoverage(t *testing.T) {
	// The union of all passes must be an exact partition of the
	// raster, for well-formed dimensions of every residue mod 8.
	for _, w := range []int{1, 2, 3, 5, 7, 8, 9, 16, 33} {
		for _, h := range []int{1, 2, 3, 5, 7, 8, 9, 16, 33} {
			if !Covered(w, h) {
				t.Errorf("Covered(%d, %d) = false", w, h)
			}
		}
	}
}

func TestExtractScatterRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for _, dims := range [][2]int{{1, 1}, {2, 2}, {7, 3}, {8, 8}, {13, 9}} {
		w, h := dims[0], dims[1]
		for _, channels := range []int{1, 3, 4} {
			src := make([]uint16, w*h*channels)
			for i := range src {
				src[i] = uint16(rng.Intn(65536))
			}

			dst := make([]uint16, w*h*channels)
			buf := make([]uint16, w*h*channels)
			for p := 0; p < NumPasses; p++ {
				pw, ph := Extract(buf, src, w, h, channels, p)
				if pw == 0 || ph == 0 {
					continue
				}
				Scatter(dst, buf[:pw*ph*channels], w, h, channels, p)
			}

			if !reflect.DeepEqual(dst, src) {
				t.Errorf("%dx%d channels=%d: scatter(extract) != identity", w, h, channels)
			}
		}
	}
}

func TestExtractKnownPattern(t *testing.T) {
	// 8x2 single-channel raster numbered 0..15. Pass 0 selects (0,0),
	// pass 1 selects (4,0), pass 6 selects all of row 1.
	src := make([]uint16, 16)
	for i := range src {
		src[i] = uint16(i)
	}

	buf := make([]uint16, 16)

	pw, ph := Extract(buf, src, 8, 2, 1, 0)
	if pw != 1 || ph != 1 || buf[0] != 0 {
		t.Errorf("pass 0: %dx%d %v", pw, ph, buf[:pw*ph])
	}

	pw, ph = Extract(buf, src, 8, 2, 1, 1)
	if pw != 1 || ph != 1 || buf[0] != 4 {
		t.Errorf("pass 1: %dx%d %v", pw, ph, buf[:pw*ph])
	}

	pw, ph = Extract(buf, src, 8, 2, 1, 6)
	want := []uint16{8, 9, 10, 11, 12, 13, 14, 15}
	if pw != 8 || ph != 1 || !reflect.DeepEqual(buf[:8], want) {
		t.Errorf("pass 6: %dx%d %v, want %v", pw, ph, buf[:pw*ph], want)
	}
}
