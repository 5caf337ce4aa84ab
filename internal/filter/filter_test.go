package filter

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestBytesPerPixel(t *testing.T) {
	tests := []struct {
		bits int
		want int
	}{
		{1, 1},  // 1-bit greyscale
		{2, 1},  // 2-bit greyscale
		{4, 1},  // 4-bit greyscale or palette
		{8, 1},  // 8-bit greyscale or palette
		{16, 2}, // 16-bit greyscale or 8-bit greyscale+alpha
		{24, 3}, // 8-bit RGB
		{32, 4}, // 8-bit RGBA or 16-bit greyscale+alpha
		{48, 6}, // 16-bit RGB
		{64, 8}, // 16-bit RGBA
	}
	for _, tt := range tests {
		if got := BytesPerPixel(tt.bits); got != tt.want {
			t.Errorf("BytesPerPixel(%d) = %d, want %d", tt.bits, got, tt.want)
		}
	}
}

func TestPaethPredictor(t *testing.T) {
	tests := []struct {
		a, b, c byte
		want    byte
	}{
		{128, 128, 128, 128}, // tie broken toward a
		{0, 0, 0, 0},
		{10, 20, 10, 20},  // p = 20, picks b
		{20, 10, 10, 20},  // p = 20, picks a
		{255, 1, 255, 1},  // p wraps negative, picks b
		{100, 50, 25, 100}, // p = 125, closest to a
	}
	for _, tt := range tests {
		if got := paethPredictor(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("paethPredictor(%d, %d, %d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

func TestPaethTieFilteredByte(t *testing.T) {
	// With a = b = c = 128 the predictor ties and resolves to a, so a
	// raw byte of 130 filters to 2.
	prior := []byte{128, 128}
	cur := []byte{128, 130}

	dst := make([]byte, 2)
	if err := Apply(Paeth, dst, cur, prior, 1); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if dst[1] != 2 {
		t.Errorf("filtered byte = %d, want 2", dst[1])
	}
}

func TestUnfilterInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, bpp := range []int{1, 2, 3, 4, 6, 8} {
		for _, rowLen := range []int{bpp, bpp * 2, bpp * 7, bpp * 33} {
			cur := make([]byte, rowLen)
			prior := make([]byte, rowLen)
			for i := range cur {
				cur[i] = byte(rng.Intn(256))
				prior[i] = byte(rng.Intn(256))
			}

			for ft := None; ft <= Paeth; ft++ {
				// With a prior row
				filtered := make([]byte, rowLen)
				if err := Apply(ft, filtered, cur, prior, bpp); err != nil {
					t.Fatalf("Apply(%v) error: %v", ft, err)
				}
				if err := Unfilter(ft, filtered, prior, bpp); err != nil {
					t.Fatalf("Unfilter(%v) error: %v", ft, err)
				}
				if !bytes.Equal(filtered, cur) {
					t.Errorf("bpp=%d len=%d type=%v: unfilter(filter(row)) != row", bpp, rowLen, ft)
				}

				// First row (nil prior)
				if err := Apply(ft, filtered, cur, nil, bpp); err != nil {
					t.Fatalf("Apply(%v) error: %v", ft, err)
				}
				if err := Unfilter(ft, filtered, nil, bpp); err != nil {
					t.Fatalf("Unfilter(%v) error: %v", ft, err)
				}
				if !bytes.Equal(filtered, cur) {
					t.Errorf("bpp=%d len=%d type=%v: first-row unfilter(filter(row)) != row", bpp, rowLen, ft)
				}
			}
		}
	}
}

func TestUnfilterUnknownType(t *testing.T) {
	if err := Unfilter(Type(5), []byte{1, 2, 3}, nil, 1); err != ErrUnknownType {
		t.Errorf("Unfilter(5) error = %v, want ErrUnknownType", err)
	}
	if err := Apply(Type(200), make([]byte, 3), []byte{1, 2, 3}, nil, 1); err != ErrUnknownType {
		t.Errorf("Apply(200) error = %v, want ErrUnknownType", err)
	}
}

func TestChooseDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cur := make([]byte, 96)
	prior := make([]byte, 96)
	for i := range cur {
		cur[i] = byte(rng.Intn(256))
		prior[i] = byte(rng.Intn(256))
	}

	dst1 := make([]byte, len(cur))
	dst2 := make([]byte, len(cur))
	t1 := Choose(dst1, cur, prior, 3)
	t2 := Choose(dst2, cur, prior, 3)

	if t1 != t2 || !bytes.Equal(dst1, dst2) {
		t.Error("Choose is not deterministic")
	}
}

func TestChooseTieBreak(t *testing.T) {
	// A constant zero row has zero cost under every filter type; the
	// declared preference order must pick None.
	cur := make([]byte, 12)
	prior := make([]byte, 12)
	dst := make([]byte, 12)

	if got := Choose(dst, cur, prior, 3); got != None {
		t.Errorf("Choose on all-zero row = %v, want none", got)
	}
}

func TestChooseRoundTrip(t *testing.T) {
	// Whatever Choose picks must unfilter back to the original row.
	rng := rand.New(rand.NewSource(99))

	for trial := 0; trial < 50; trial++ {
		bpp := 1 + rng.Intn(4)
		rowLen := bpp * (1 + rng.Intn(40))
		cur := make([]byte, rowLen)
		var prior []byte
		if trial%2 == 0 {
			prior = make([]byte, rowLen)
			for i := range prior {
				prior[i] = byte(rng.Intn(256))
			}
		}
		// Smooth gradient rows favor non-trivial filters
		for i := range cur {
			cur[i] = byte(i + rng.Intn(8))
		}

		dst := make([]byte, rowLen)
		ft := Choose(dst, cur, prior, bpp)

		if err := Unfilter(ft, dst, prior, bpp); err != nil {
			t.Fatalf("Unfilter(%v) error: %v", ft, err)
		}
		if !bytes.Equal(dst, cur) {
			t.Errorf("trial %d: chosen filter %v does not round-trip", trial, ft)
		}
	}
}

func TestChoosePrefersSubOnGradient(t *testing.T) {
	// A linear horizontal gradient filters to a tiny constant under
	// Sub; the heuristic should never stay on None here.
	cur := make([]byte, 64)
	for i := range cur {
		cur[i] = byte(i * 3)
	}
	dst := make([]byte, len(cur))
	if got := Choose(dst, cur, nil, 1); got == None {
		t.Error("Choose picked none for a gradient row")
	}
}
