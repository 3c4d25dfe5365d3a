package lutkit

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func quantize(v, maxIdx int) uint8 {
	return uint8(math.Round(float64(v) / float64(maxIdx) * 255))
}

func TestDecodeImageHald(t *testing.T) {
	// Identity 64^3 HALD: level 8, 512x512.
	const side, level, edge = 512, 8, 64
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i := 0; i < side*side; i++ {
		r := i % edge
		g := (i / edge) % edge
		b := i / (edge * edge)
		img.SetNRGBA(i%side, i/side, color.NRGBA{
			R: quantize(r, edge-1),
			G: quantize(g, edge-1),
			B: quantize(b, edge-1),
			A: 0xff,
		})
	}

	l, err := DecodeImage(encodePNG(t, img))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if l.Edge != edge {
		t.Fatalf("edge: got %d want %d", l.Edge, edge)
	}

	// Decoded cells match the identity within one quantization step.
	const tol = 1.0 / (edge - 1)
	for _, c := range [][3]int{{0, 0, 0}, {63, 0, 0}, {0, 63, 0}, {0, 0, 63}, {31, 15, 47}, {63, 63, 63}} {
		r, g, b := l.At(c[0], c[1], c[2])
		want := [3]float64{float64(c[0]) / 63, float64(c[1]) / 63, float64(c[2]) / 63}
		got := [3]float64{float64(r), float64(g), float64(b)}
		for ch := 0; ch < 3; ch++ {
			if math.Abs(got[ch]-want[ch]) > tol {
				t.Fatalf("cell %v channel %d: got %v want %v", c, ch, got[ch], want[ch])
			}
		}
	}
}

func stripImage(edge int, alt bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, edge*edge, edge))
	for y := 0; y < edge; y++ {
		for x := 0; x < edge*edge; x++ {
			tile, ix := x/edge, x%edge
			var r, g, b int
			if alt {
				r, g, b = y, tile, ix
			} else {
				r, g, b = ix, y, tile
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: quantize(r, edge-1),
				G: quantize(g, edge-1),
				B: quantize(b, edge-1),
				A: 0xff,
			})
		}
	}
	return img
}

func checkIdentity(t *testing.T, l *Lut, edge int) {
	t.Helper()
	if l.Edge != edge {
		t.Fatalf("edge: got %d want %d", l.Edge, edge)
	}
	tol := 1.0 / float64(edge-1)
	for _, c := range [][3]int{{0, 0, 0}, {edge - 1, 0, 0}, {0, edge - 1, 0}, {0, 0, edge - 1}, {edge / 2, edge / 3, edge - 1}} {
		r, g, b := l.At(c[0], c[1], c[2])
		got := [3]float64{float64(r), float64(g), float64(b)}
		for ch := 0; ch < 3; ch++ {
			want := float64(c[ch]) / float64(edge-1)
			if math.Abs(got[ch]-want) > tol {
				t.Fatalf("cell %v channel %d: got %v want %v", c, ch, got[ch], want)
			}
		}
	}
}

func TestDecodeImageHorizontalStrip(t *testing.T) {
	l, err := DecodeImage(encodePNG(t, stripImage(16, false)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	checkIdentity(t, l, 16)
}

func TestDecodeImageHorizontalStripAltAxes(t *testing.T) {
	l, err := DecodeImage(encodePNG(t, stripImage(16, true)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	checkIdentity(t, l, 16)
}

func TestDecodeImageVerticalStrip(t *testing.T) {
	const edge = 16
	img := image.NewNRGBA(image.Rect(0, 0, edge, edge*edge))
	for y := 0; y < edge*edge; y++ {
		tile, iy := y/edge, y%edge
		for x := 0; x < edge; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: quantize(x, edge-1),
				G: quantize(iy, edge-1),
				B: quantize(tile, edge-1),
				A: 0xff,
			})
		}
	}
	l, err := DecodeImage(encodePNG(t, img))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	checkIdentity(t, l, edge)
}

func TestDecodeImageCurve(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 256, 1))
	for x := 0; x < 256; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{R: uint8(x), G: uint8(255 - x), B: uint8(x / 2), A: 0xff})
	}
	l, err := DecodeImage(encodePNG(t, img))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if l.Edge != curveEdge {
		t.Fatalf("edge: got %d want %d", l.Edge, curveEdge)
	}

	// Each axis samples only its own curve.
	if r, g, b := l.At(31, 0, 0); r != 1 || g != 1 || b != 0 {
		t.Fatalf("cell (31,0,0): got (%v,%v,%v) want (1,1,0)", r, g, b)
	}
	if r, g, b := l.At(0, 31, 0); r != 0 || g != 0 || b != 0 {
		t.Fatalf("cell (0,31,0): got (%v,%v,%v) want (0,0,0)", r, g, b)
	}
	if _, _, b := l.At(0, 0, 31); math.Abs(float64(b)-127.0/255) > 1e-6 {
		t.Fatalf("cell (0,0,31): got b=%v want %v", b, 127.0/255)
	}
}

func TestDecodeImageKnownGrid(t *testing.T) {
	// 8x1 row-major grid of 32x32 tiles in a 256x128 image.
	const edge, tilesPerRow = 32, 8
	img := image.NewNRGBA(image.Rect(0, 0, 256, 128))
	for b := 0; b < edge; b++ {
		tx := (b % tilesPerRow) * edge
		ty := (b / tilesPerRow) * edge
		for g := 0; g < edge; g++ {
			for r := 0; r < edge; r++ {
				img.SetNRGBA(tx+r, ty+g, color.NRGBA{
					R: quantize(r, edge-1),
					G: quantize(g, edge-1),
					B: quantize(b, edge-1),
					A: 0xff,
				})
			}
		}
	}
	l, err := DecodeImage(encodePNG(t, img))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	checkIdentity(t, l, edge)
}

func TestDecodeImageUnrecognized(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	if _, err := DecodeImage(encodePNG(t, img)); !errors.Is(err, errImageLayout) {
		t.Fatalf("got %v want %v", err, errImageLayout)
	}
}

func TestDecodeImageBadBytes(t *testing.T) {
	if _, err := DecodeImage([]byte("not an image")); err == nil {
		t.Fatal("expected error for non-image bytes")
	}
}
