// Package bitpack converts between pixel samples and the packed byte
// rows used in PNG scanlines.
//
// Samples of depth 8 occupy one byte each and samples of depth 16
// occupy two bytes in big-endian order. Samples of depth 1, 2, and 4
// are packed most-significant-bit first into bytes, with the last byte
// of a row zero-padded when the row width is not a whole number of
// bytes. Pack and Unpack are exact inverses for all legal inputs.
package bitpack

// RowBytes returns the packed length in bytes of a row of n samples
// at the given bit depth.
func RowBytes(n, bitDepth int) int {
	return (n*bitDepth + 7) / 8
}

// Pack packs n samples from src into dst at the given bit depth.
// dst must be at least RowBytes(n, bitDepth) long; padding bits at the
// end of the row are written as zero. Samples must already fit in
// bitDepth bits.
func Pack(dst []byte, src []uint16, bitDepth int) {
	switch bitDepth {
	case 8:
		for i, s := range src {
			dst[i] = byte(s)
		}
	case 16:
		for i, s := range src {
			dst[2*i] = byte(s >> 8)
			dst[2*i+1] = byte(s)
		}
	default: // 1, 2, 4
		perByte := 8 / bitDepth
		mask := uint16(1<<bitDepth - 1)
		for i := range dst[:RowBytes(len(src), bitDepth)] {
			dst[i] = 0
		}
		for i, s := range src {
			shift := uint((perByte - 1 - i%perByte) * bitDepth)
			dst[i/perByte] |= byte((s & mask) << shift)
		}
	}
}

// Unpack unpacks n samples at the given bit depth from src into dst.
// dst must be at least n long. This is the exact inverse of Pack.
func Unpack(dst []uint16, src []byte, bitDepth, n int) {
	switch bitDepth {
	case 8:
		for i := 0; i < n; i++ {
			dst[i] = uint16(src[i])
		}
	case 16:
		for i := 0; i < n; i++ {
			dst[i] = uint16(src[2*i])<<8 | uint16(src[2*i+1])
		}
	default: // 1, 2, 4
		perByte := 8 / bitDepth
		mask := byte(1<<bitDepth - 1)
		for i := 0; i < n; i++ {
			shift := uint((perByte - 1 - i%perByte) * bitDepth)
			dst[i] = uint16((src[i/perByte] >> shift) & mask)
		}
	}
}

// Rescale expands samples that hold only sigBits significant bits to
// the full bitDepth range in place: each sample is right-shifted to
// its significant width, then scaled by (2^bitDepth-1)/(2^sigBits-1)
// with rounding. A sigBits equal to bitDepth is a no-op.
func Rescale(samples []uint16, bitDepth, sigBits int) {
	if sigBits <= 0 || sigBits >= bitDepth {
		return
	}
	shift := uint(bitDepth - sigBits)
	outMax := uint32(1)<<uint(bitDepth) - 1
	inMax := uint32(1)<<uint(sigBits) - 1
	for i, s := range samples {
		v := uint32(s) >> shift
		samples[i] = uint16((v*outMax + inMax/2) / inMax)
	}
}
