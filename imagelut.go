package lutkit

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"

	// Grid layouts ship as PNG, WebP or JPEG.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var errImageLayout = errors.New("image: unrecognized LUT grid layout")

const curveEdge = 32 // cube edge synthesized from 1-D tone curves

// Rectangular tile grids that cannot be classified by dimension arithmetic
// alone. tilesPerRow tiles of edge x edge pixels, blue index row-major.
var knownGrids = []struct {
	width, height, edge, tilesPerRow int
}{
	{256, 128, 32, 8},
	{512, 64, 32, 16},
	{128, 256, 32, 4},
}

// DecodeImage recovers a canonical LUT from an image-encoded grid: a square
// HALD tile grid, a horizontal or vertical strip of tiles, or a 1-D tone
// curve image. The pixel grid is flattened once up front; classification and
// extraction never random-access the decoded image.
func DecodeImage(data []byte) (*Lut, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	w, h, pix := flattenRGB(img)

	switch {
	case h <= 3 && w >= 16:
		return curveLut(w, pix), nil
	case w == h*h:
		return horizontalStripLut(w, h, pix), nil
	case h == w*w:
		return verticalStripLut(w, h, pix), nil
	case w == h:
		if level := int(math.Cbrt(float64(w)) + 0.5); level >= 2 && level*level*level == w {
			return haldLut(level, pix), nil
		}
	}
	for _, kg := range knownGrids {
		if w == kg.width && h == kg.height {
			return tileGridLut(w, kg.edge, kg.tilesPerRow, pix), nil
		}
	}
	return nil, errImageLayout
}

// flattenRGB reads the full pixel grid into a flat w*h*3 byte array, with
// fast paths for the stock decoder output types (teacher-style switch; the
// generic At path is only for exotic sources).
func flattenRGB(img image.Image) (w, h int, pix []uint8) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	pix = make([]uint8, w*h*3)

	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < w; x++ {
				i := (y*w + x) * 3
				pix[i] = row[x*4]
				pix[i+1] = row[x*4+1]
				pix[i+2] = row[x*4+2]
			}
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < w; x++ {
				i := (y*w + x) * 3
				pix[i] = row[x*4]
				pix[i+1] = row[x*4+1]
				pix[i+2] = row[x*4+2]
			}
		}
	case *image.YCbCr:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				yy := src.Y[src.YOffset(b.Min.X+x, b.Min.Y+y)]
				ci := src.COffset(b.Min.X+x, b.Min.Y+y)
				r, g, bb := color.YCbCrToRGB(yy, src.Cb[ci], src.Cr[ci])
				i := (y*w + x) * 3
				pix[i], pix[i+1], pix[i+2] = r, g, bb
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := (y*w + x) * 3
				pix[i] = uint8(r >> 8)
				pix[i+1] = uint8(g >> 8)
				pix[i+2] = uint8(bb >> 8)
			}
		}
	}
	return w, h, pix
}

// curveLut treats row 0 as three independent 1-D tone curves and synthesizes
// a cube where each axis samples its own curve.
func curveLut(w int, pix []uint8) *Lut {
	curve := make([][3]float32, curveEdge)
	for i := 0; i < curveEdge; i++ {
		x := (i*(w-1) + (curveEdge-1)/2) / (curveEdge - 1)
		curve[i][0] = float32(pix[x*3]) / 255
		curve[i][1] = float32(pix[x*3+1]) / 255
		curve[i][2] = float32(pix[x*3+2]) / 255
	}

	l := &Lut{Edge: curveEdge, Table: make([]float32, curveEdge*curveEdge*curveEdge*3)}
	i := 0
	for b := 0; b < curveEdge; b++ {
		for g := 0; g < curveEdge; g++ {
			for r := 0; r < curveEdge; r++ {
				l.Table[i] = curve[r][0]
				l.Table[i+1] = curve[g][1]
				l.Table[i+2] = curve[b][2]
				i += 3
			}
		}
	}
	return l
}

// horizontalStripLut handles width == height^2: a single row of edge tiles.
// The common convention maps the tile index to blue, intra-tile x to red and
// the row to green. One vendor dialect maps the tile index to green and
// intra-tile x to blue instead; the last pixel of tile 0's top row tells the
// two apart (red dominates in the common layout, blue in the dialect).
func horizontalStripLut(w, h int, pix []uint8) *Lut {
	edge := h
	probe := (edge - 1) * 3
	altAxes := pix[probe+2] > pix[probe]

	l := &Lut{Edge: edge, Table: make([]float32, edge*edge*edge*3)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tile, ix := x/edge, x%edge
			var r, g, b int
			if altAxes {
				r, g, b = y, tile, ix
			} else {
				r, g, b = ix, y, tile
			}
			setCell(l, r, g, b, pix, (y*w+x)*3)
		}
	}
	return l
}

// verticalStripLut handles height == width^2: a single column of edge tiles,
// tile index mapping to blue, row within the tile to green, column to red.
func verticalStripLut(w, h int, pix []uint8) *Lut {
	edge := w
	l := &Lut{Edge: edge, Table: make([]float32, edge*edge*edge*3)}
	for y := 0; y < h; y++ {
		tile, iy := y/edge, y%edge
		for x := 0; x < w; x++ {
			setCell(l, x, iy, tile, pix, (y*w+x)*3)
		}
	}
	return l
}

// haldLut handles the square HALD layout: side == level^3, edge == level^2,
// entries in scan order with blue selecting the tile and green/red selecting
// the pixel within it.
func haldLut(level int, pix []uint8) *Lut {
	edge := level * level
	l := &Lut{Edge: edge, Table: make([]float32, edge*edge*edge*3)}
	for i := 0; i < edge*edge*edge; i++ {
		r := i % edge
		g := (i / edge) % edge
		b := i / (edge * edge)
		setCell(l, r, g, b, pix, i*3)
	}
	return l
}

func tileGridLut(w, edge, tilesPerRow int, pix []uint8) *Lut {
	l := &Lut{Edge: edge, Table: make([]float32, edge*edge*edge*3)}
	for b := 0; b < edge; b++ {
		tx := (b % tilesPerRow) * edge
		ty := (b / tilesPerRow) * edge
		for g := 0; g < edge; g++ {
			for r := 0; r < edge; r++ {
				setCell(l, r, g, b, pix, ((ty+g)*w+tx+r)*3)
			}
		}
	}
	return l
}

func setCell(l *Lut, r, g, b int, pix []uint8, src int) {
	dst := l.Index(r, g, b)
	l.Table[dst] = float32(pix[src]) / 255
	l.Table[dst+1] = float32(pix[src+1]) / 255
	l.Table[dst+2] = float32(pix[src+2]) / 255
}
