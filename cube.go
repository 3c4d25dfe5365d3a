package lutkit

import (
	"bufio"
	"bytes"
	"errors"
	"strconv"
	"strings"
)

var (
	errCubeNoSize = errors.New("cube: missing LUT_3D_SIZE directive")
	errCubeNoData = errors.New("cube: no data triples")
	errCubeSize   = errors.New("cube: edge length out of range")
)

const (
	minEdge = 2
	maxEdge = 256
)

// DecodeCube parses the line-oriented .cube text format. Comment, blank and
// metadata lines are skipped; a LUT_3D_SIZE directive supplies the edge
// length; every other non-empty line is an "R G B" float triple appended in
// file order (red axis fastest, same as the canonical layout). Data lines
// with malformed numeric tokens are skipped rather than failing the parse.
func DecodeCube(data []byte) (*Lut, error) {
	var (
		edge  int
		table []float32
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "LUT_3D_SIZE":
			if len(fields) < 2 {
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				continue
			}
			if n < minEdge || n > maxEdge {
				return nil, errCubeSize
			}
			edge = n
			if table == nil {
				table = make([]float32, 0, n*n*n*3)
			}
		case "TITLE", "DOMAIN_MIN", "DOMAIN_MAX", "LUT_1D_SIZE", "LUT_3D_INPUT_RANGE":
			// Metadata, ignored.
		default:
			if len(fields) != 3 {
				continue
			}
			r, err1 := strconv.ParseFloat(fields[0], 32)
			g, err2 := strconv.ParseFloat(fields[1], 32)
			b, err3 := strconv.ParseFloat(fields[2], 32)
			if err1 != nil || err2 != nil || err3 != nil {
				continue
			}
			table = append(table, clamp01(float32(r)), clamp01(float32(g)), clamp01(float32(b)))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if edge == 0 {
		return nil, errCubeNoSize
	}
	if len(table) == 0 {
		return nil, errCubeNoData
	}
	return &Lut{Edge: edge, Table: padIdentity(table, edge)}, nil
}

// looksLikeCube reports whether binary-labeled data is actually a .cube text
// file. The vendor corpus ships some .cube content under a .bin name.
func looksLikeCube(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	for _, b := range head[:min(len(head), 20)] {
		if b >= 0x80 {
			return false
		}
	}
	return bytes.Contains(head, []byte("LUT_3D_SIZE")) || bytes.Contains(head, []byte("TITLE"))
}
