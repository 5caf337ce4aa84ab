package png_test

import (
	"bytes"
	"fmt"

	"github.com/mrjoshuak/go-png/png"
	"github.com/mrjoshuak/go-png/pngmeta"
)

// Example_roundTrip builds a small gradient, encodes it, and decodes
// it back.
func Example_roundTrip() {
	img := &png.Image{
		Header: png.Header{Width: 4, Height: 4, BitDepth: 8, ColorType: png.RGB},
		Raster: png.NewRaster(4, 4, 3),
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Raster.Set(x, y, 0, uint16(x*60))
			img.Raster.Set(x, y, 1, uint16(y*60))
			img.Raster.Set(x, y, 2, 128)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img, nil); err != nil {
		fmt.Println("Error encoding:", err)
		return
	}

	got, err := png.Decode(&buf)
	if err != nil {
		fmt.Println("Error decoding:", err)
		return
	}
	fmt.Printf("Image size: %dx%d\n", got.Header.Width, got.Header.Height)
	fmt.Printf("Color type: %s\n", got.Header.ColorType)
	fmt.Printf("Corner pixel: %d %d %d\n",
		got.Raster.At(3, 3, 0), got.Raster.At(3, 3, 1), got.Raster.At(3, 3, 2))
	// Output:
	// Image size: 4x4
	// Color type: rgb
	// Corner pixel: 180 180 128
}

// Example_metadata attaches standard metadata before encoding.
func Example_metadata() {
	img := &png.Image{
		Header: png.Header{Width: 1, Height: 1, BitDepth: 8, ColorType: png.Greyscale},
		Raster: png.NewRaster(1, 1, 1),
	}
	pngmeta.SetTitle(&img.Metadata, "Test card")
	pngmeta.SetSoftware(&img.Metadata, "rendertool 2.1")
	pngmeta.SetDPI(&img.Metadata, 300, 300)
	pngmeta.SetSRGB(&img.Metadata, png.IntentPerceptual)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img, nil); err != nil {
		fmt.Println("Error encoding:", err)
		return
	}

	got, err := png.Decode(&buf)
	if err != nil {
		fmt.Println("Error decoding:", err)
		return
	}
	x, y, _ := pngmeta.DPI(&got.Metadata)
	fmt.Printf("Title: %s\n", pngmeta.Title(&got.Metadata))
	fmt.Printf("Resolution: %.0f x %.0f DPI\n", x, y)
	fmt.Printf("Pixels per meter: %d\n", got.Metadata.Resolution.XPPU)
	// Output:
	// Title: Test card
	// Resolution: 300 x 300 DPI
	// Pixels per meter: 11811
}

// Example_encodeOptions tunes the filter strategy and chunking.
func Example_encodeOptions() {
	img := &png.Image{
		Header: png.Header{Width: 8, Height: 8, BitDepth: 8, ColorType: png.Greyscale, Interlaced: true},
		Raster: png.NewRaster(8, 8, 1),
	}

	var buf bytes.Buffer
	opts := &png.EncodeOptions{
		Filter:    png.FilterPaeth,
		ChunkSize: 4096,
		Parallel:  true,
	}
	if err := png.Encode(&buf, img, opts); err != nil {
		fmt.Println("Error encoding:", err)
		return
	}

	got, err := png.Decode(&buf)
	if err != nil {
		fmt.Println("Error decoding:", err)
		return
	}
	fmt.Printf("Interlaced: %v\n", got.Header.Interlaced)
	// Output:
	// Interlaced: true
}
