package lutkit

import "errors"

var errPixelDimensions = errors.New("apply: pixel buffer does not match width*height")

// Apply transforms a packed 32-bit ARGB pixel buffer through the LUT using
// nearest-cell lookup and blends the result with the original by intensity
// (0 leaves pixels unchanged, 1 is the pure LUT output). Nearest-cell rather
// than trilinear interpolation is a deliberate precision/speed trade-off for
// interactive preview.
//
// The input buffer is caller-owned and only read; a fresh output buffer is
// returned. Work is split into contiguous per-core ranges with no shared
// mutable state, and Apply returns only after every range completes, so
// partial results are never observed. Alpha passes through unchanged.
func Apply(l *Lut, pixels []uint32, width, height int, intensity float32) ([]uint32, error) {
	if !l.valid() {
		return nil, errInvalidLut
	}
	if width <= 0 || height <= 0 || len(pixels) != width*height {
		return nil, errPixelDimensions
	}
	intensity = clamp01(intensity)

	out := make([]uint32, len(pixels))
	if intensity == 0 {
		copy(out, pixels)
		return out, nil
	}

	edge := l.Edge
	table := l.Table
	cellScale := float32(edge-1) / 255
	keep := 1 - intensity

	parallelFor(len(pixels), func(start, end int) {
		for i := start; i < end; i++ {
			p := pixels[i]
			r := float32((p >> 16) & 0xff)
			g := float32((p >> 8) & 0xff)
			b := float32(p & 0xff)

			ri := nearestCell(r*cellScale, edge)
			gi := nearestCell(g*cellScale, edge)
			bi := nearestCell(b*cellScale, edge)
			base := (bi*edge*edge + gi*edge + ri) * 3

			out[i] = p&0xff000000 |
				blend8(r, table[base], keep, intensity)<<16 |
				blend8(g, table[base+1], keep, intensity)<<8 |
				blend8(b, table[base+2], keep, intensity)
		}
	})
	return out, nil
}

func nearestCell(v float32, edge int) int {
	i := int(v + 0.5)
	if i < 0 {
		return 0
	}
	if i > edge-1 {
		return edge - 1
	}
	return i
}

func blend8(orig, lut, keep, intensity float32) uint32 {
	v := orig*keep + lut*255*intensity
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint32(v + 0.5)
}
