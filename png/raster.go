package png

// Raster is a dense 2-D array of pixel samples in row-major order,
// Width*Channels samples per row. Samples are promoted to their
// natural width on decode: values fit in 8 bits for depths up to 8
// and in 16 bits for depth 16, before any significant-bit rescaling.
type Raster struct {
	Pix      []uint16
	Width    int
	Height   int
	Channels int
}

// NewRaster allocates a raster of the given dimensions.
func NewRaster(width, height, channels int) *Raster {
	return &Raster{
		Pix:      make([]uint16, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

// Row returns the samples of row y as a slice aliasing the raster.
func (r *Raster) Row(y int) []uint16 {
	stride := r.Width * r.Channels
	return r.Pix[y*stride : (y+1)*stride]
}

// At returns sample c of the pixel at (x, y).
func (r *Raster) At(x, y, c int) uint16 {
	return r.Pix[(y*r.Width+x)*r.Channels+c]
}

// Set sets sample c of the pixel at (x, y).
func (r *Raster) Set(x, y, c int, v uint16) {
	r.Pix[(y*r.Width+x)*r.Channels+c] = v
}
