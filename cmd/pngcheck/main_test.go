package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrjoshuak/go-png/png"
)

func writeTestPNG(t *testing.T, interlaced bool) string {
	t.Helper()
	h := png.Header{Width: 4, Height: 4, BitDepth: 8, ColorType: png.RGB, Interlaced: interlaced}
	img := &png.Image{Header: h, Raster: png.NewRaster(h.Width, h.Height, h.Channels())}
	path := filepath.Join(t.TempDir(), "test.png")
	if err := png.EncodeFile(path, img, nil); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInterlaceInfoLabel(t *testing.T) {
	tests := []struct {
		interlaced bool
		want       string
	}{
		{false, "non-interlaced"},
		{true, "Adam7 interlaced"},
	}
	for _, tt := range tests {
		result, err := validateFile(writeTestPNG(t, tt.interlaced), false)
		if err != nil {
			t.Fatalf("interlaced=%v: %v", tt.interlaced, err)
		}
		found := false
		for _, line := range result.Info {
			if strings.Contains(line, tt.want) {
				found = true
			}
		}
		if !found {
			t.Errorf("interlaced=%v: info %q lacks %q", tt.interlaced, result.Info, tt.want)
		}
	}
}
