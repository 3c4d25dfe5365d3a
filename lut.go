package lutkit

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Lut is a decoded 3-D color lookup table.
//
// Table holds Edge^3 RGB triples with the red axis varying fastest: the
// triple for cell (r, g, b) starts at (b*Edge*Edge + g*Edge + r) * 3. Every
// decoder normalizes its native channel and axis order into this layout, and
// all channel values are clamped to [0, 1]. A Lut is immutable after decode
// and safe to share between the cache and concurrent Apply calls.
type Lut struct {
	Edge  int
	Table []float32
}

var errInvalidLut = errors.New("invalid LUT table")

// Index returns the Table offset of the triple for cell (r, g, b).
func (l *Lut) Index(r, g, b int) int {
	return (b*l.Edge*l.Edge + g*l.Edge + r) * 3
}

// At returns the RGB triple stored at cell (r, g, b).
func (l *Lut) At(r, g, b int) (float32, float32, float32) {
	i := l.Index(r, g, b)
	return l.Table[i], l.Table[i+1], l.Table[i+2]
}

// SizeBytes reports the memory footprint of the table, used for cache
// accounting.
func (l *Lut) SizeBytes() int {
	return l.Edge * l.Edge * l.Edge * 3 * 4
}

func (l *Lut) valid() bool {
	return l != nil && l.Edge >= 2 && len(l.Table) == l.Edge*l.Edge*l.Edge*3
}

// Identity returns a LUT of the given edge length that maps every color to
// itself.
func Identity(edge int) *Lut {
	l := &Lut{Edge: edge, Table: make([]float32, edge*edge*edge*3)}
	step := 1.0 / float32(edge-1)
	i := 0
	for b := 0; b < edge; b++ {
		for g := 0; g < edge; g++ {
			for r := 0; r < edge; r++ {
				l.Table[i] = float32(r) * step
				l.Table[i+1] = float32(g) * step
				l.Table[i+2] = float32(b) * step
				i += 3
			}
		}
	}
	return l
}

// padIdentity extends a short table to edge^3 triples, filling the missing
// cells with identity values. Vendor exports occasionally truncate the last
// few entries; the converter corpus pads them the same way.
func padIdentity(table []float32, edge int) []float32 {
	want := edge * edge * edge * 3
	if len(table) >= want {
		return table[:want]
	}
	step := 1.0 / float32(edge-1)
	for i := len(table) / 3; i*3 < want; i++ {
		r := i % edge
		g := (i / edge) % edge
		b := i / (edge * edge)
		table = append(table, float32(r)*step, float32(g)*step, float32(b)*step)
	}
	return table
}

// WriteCube encodes the LUT in the text .cube format with a 6-decimal
// mantissa, matching the vendor converter output. Decoding the result yields
// the same table back.
func WriteCube(w io.Writer, l *Lut, title string) error {
	if !l.valid() {
		return errInvalidLut
	}
	if title != "" {
		if _, err := fmt.Fprintf(w, "TITLE %q\n", title); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "LUT_3D_SIZE %d\nDOMAIN_MIN 0.0 0.0 0.0\nDOMAIN_MAX 1.0 1.0 1.0\n\n", l.Edge); err != nil {
		return err
	}
	buf := make([]byte, 0, 64)
	for i := 0; i < len(l.Table); i += 3 {
		buf = buf[:0]
		buf = strconv.AppendFloat(buf, float64(l.Table[i]), 'f', 6, 32)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, float64(l.Table[i+1]), 'f', 6, 32)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, float64(l.Table[i+2]), 'f', 6, 32)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
