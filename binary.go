package lutkit

import (
	"encoding/binary"
	"errors"
	"math"
)

// Binary LUT exports rarely carry a complete format description, so decoding
// is an ordered list of tagged layout probes. Each probe either recognizes
// the file and returns a full layout, or passes to the next one. The order is
// part of the compatibility surface: vendor files in circulation were only
// validated against exactly this sequence.

const (
	// 20-byte header: magic, version u32, edge u32, entry count u32,
	// flags u32 (low byte is the sample format hint, 0 = bytes, 1 = floats).
	// All fields little-endian, samples immediately after the header.
	dltHeaderSize  = 20
	dltFormatByte  = 0
	dltFormatFloat = 1

	// ".MS-LUT " header fields: version u32 at 0x08, edge u32 at 0x10,
	// data offset u64 at 0x20. Offsets outside the sane range fall through
	// to size factorization.
	msHeaderMin   = 48
	msEdgeField   = 0x10
	msOffsetField = 0x20

	saneEdgeMin   = 8
	saneEdgeMax   = 128
	saneOffsetMin = 48
	saneOffsetMax = 4096

	maxHeaderSlack = 4096 // factorization: header size must be below this
)

var (
	dltMagic = []byte{'3', 'D', 'L', 'T'}
	msMagic  = []byte(".MS-LUT ")

	// Edge lengths seen in the vendor corpus, in probe order.
	factorEdges = []int{17, 32, 33, 21, 16, 25, 20, 64}
)

// Exact-size profiles from the vendor corpus where the generic header fields
// are unreliable.
var msKnownSizes = map[int]binaryLayout{
	14855: {edge: 17, channels: 3, offset: 116}, // 17^3*3 + 116
	98480: {edge: 32, channels: 3, offset: 176}, // 32^3*3 + 176
}

// Headerless exports with these exact sizes are whole-file payloads. Checked
// before factorization: 16^3*4 would otherwise be misread as a 17^3*3 payload
// behind a 1645-byte header.
var rawKnownSizes = map[int]binaryLayout{
	12288:  {edge: 16, channels: 3},
	16384:  {edge: 16, channels: 4},
	98304:  {edge: 32, channels: 3},
	131072: {edge: 32, channels: 4},
}

var (
	errBinaryFormat    = errors.New("binary: unrecognized LUT layout")
	errBinaryTruncated = errors.New("binary: data shorter than computed layout")
)

// binaryLayout is one candidate interpretation of a binary LUT file.
type binaryLayout struct {
	edge     int
	channels int  // samples per entry: 3 or 4 for bytes, always 3 for floats
	floats   bool // 32-bit little-endian IEEE floats instead of bytes
	offset   int  // byte offset where sample data starts
}

func (bl binaryLayout) entryBytes() int {
	if bl.floats {
		return 12
	}
	return bl.channels
}

type binaryProbe struct {
	name  string
	probe func(data []byte) (binaryLayout, bool)
}

var binaryProbes = []binaryProbe{
	{name: "3dlt-header", probe: probeDLTHeader},
	{name: "ms-lut-header", probe: probeMSHeader},
	{name: "raw-exact-size", probe: probeRawExact},
	{name: "size-factorization", probe: probeSizeFactor},
	{name: "cube-root", probe: probeCubeRoot},
}

// DecodeBinary recovers a canonical LUT from a raw or structured binary
// export of unknown internal layout.
func DecodeBinary(data []byte) (*Lut, error) {
	for _, p := range binaryProbes {
		layout, ok := p.probe(data)
		if !ok {
			continue
		}
		return extractBinary(data, layout)
	}
	return nil, errBinaryFormat
}

func probeDLTHeader(data []byte) (binaryLayout, bool) {
	if len(data) < dltHeaderSize || string(data[:4]) != string(dltMagic) {
		return binaryLayout{}, false
	}
	edge := int(binary.LittleEndian.Uint32(data[8:12]))
	entries := int(binary.LittleEndian.Uint32(data[12:16]))
	flags := binary.LittleEndian.Uint32(data[16:20])
	if edge < saneEdgeMin || edge > saneEdgeMax || entries != edge*edge*edge {
		return binaryLayout{}, false
	}
	bl := binaryLayout{edge: edge, channels: 3, offset: dltHeaderSize}
	if flags&0xff == dltFormatFloat {
		bl.floats = true
	} else if len(data)-dltHeaderSize == entries*4 {
		bl.channels = 4
	}
	return bl, true
}

func probeMSHeader(data []byte) (binaryLayout, bool) {
	if len(data) < msHeaderMin || string(data[:8]) != string(msMagic) {
		return binaryLayout{}, false
	}
	if bl, ok := msKnownSizes[len(data)]; ok {
		return bl, true
	}
	edge := int(binary.LittleEndian.Uint32(data[msEdgeField : msEdgeField+4]))
	offset := binary.LittleEndian.Uint64(data[msOffsetField : msOffsetField+8])
	if edge < saneEdgeMin || edge > saneEdgeMax ||
		offset < saneOffsetMin || offset > saneOffsetMax {
		// Header fields are garbage in some versions; size factorization
		// handles those.
		return binaryLayout{}, false
	}
	return binaryLayout{edge: edge, channels: 3, offset: int(offset)}, true
}

func probeRawExact(data []byte) (binaryLayout, bool) {
	bl, ok := rawKnownSizes[len(data)]
	return bl, ok
}

func probeSizeFactor(data []byte) (binaryLayout, bool) {
	for _, edge := range factorEdges {
		for _, ch := range []int{3, 4} {
			header := len(data) - edge*edge*edge*ch
			if header >= 0 && header < maxHeaderSlack {
				return binaryLayout{edge: edge, channels: ch, offset: header}, true
			}
		}
	}
	return binaryLayout{}, false
}

func probeCubeRoot(data []byte) (binaryLayout, bool) {
	// Float triplets are preferred when their cube root is exact.
	if len(data)%12 == 0 {
		if edge, ok := exactCubeRoot(len(data) / 12); ok {
			return binaryLayout{edge: edge, channels: 3, floats: true}, true
		}
	}
	if len(data)%4 == 0 {
		if edge, ok := exactCubeRoot(len(data) / 4); ok {
			return binaryLayout{edge: edge, channels: 4}, true
		}
	}
	if len(data)%3 == 0 {
		if edge, ok := exactCubeRoot(len(data) / 3); ok {
			return binaryLayout{edge: edge, channels: 3}, true
		}
	}
	return binaryLayout{}, false
}

func exactCubeRoot(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	r := int(math.Cbrt(float64(n)) + 0.5)
	if r < minEdge || r > maxEdge || r*r*r != n {
		return 0, false
	}
	return r, true
}

func extractBinary(data []byte, bl binaryLayout) (*Lut, error) {
	entries := bl.edge * bl.edge * bl.edge
	need := bl.offset + entries*bl.entryBytes()
	if bl.offset < 0 || need > len(data) {
		return nil, errBinaryTruncated
	}

	payload := data[bl.offset:]
	swap := payloadIsBGR(payload, bl)

	table := make([]float32, 0, entries*3)
	if bl.floats {
		for i := 0; i < entries; i++ {
			off := i * 12
			c1 := math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
			c2 := math.Float32frombits(binary.LittleEndian.Uint32(payload[off+4 : off+8]))
			c3 := math.Float32frombits(binary.LittleEndian.Uint32(payload[off+8 : off+12]))
			if swap {
				c1, c3 = c3, c1
			}
			table = append(table, clamp01(c1), clamp01(c2), clamp01(c3))
		}
	} else {
		for i := 0; i < entries; i++ {
			off := i * bl.channels
			c1 := float32(payload[off]) / 255
			c2 := float32(payload[off+1]) / 255
			c3 := float32(payload[off+2]) / 255
			if swap {
				c1, c3 = c3, c1
			}
			table = append(table, c1, c2, c3)
		}
	}
	return &Lut{Edge: bl.edge, Table: table}, nil
}

// payloadIsBGR samples the first 4 entries along the fastest-varying axis.
// In the canonical layout those entries step the red coordinate, so the
// channel that grows the most should be the first stored channel; if the
// third one grows more the file is BGR. A statistical guess with no ground
// truth: LUTs with a flat red response can be misclassified, but the vendor
// corpus was validated against this exact sampling window.
func payloadIsBGR(payload []byte, bl binaryLayout) bool {
	n := 4
	if bl.edge < n {
		n = bl.edge
	}
	if n < 2 {
		return false
	}
	sample := func(entry, channel int) float32 {
		if bl.floats {
			off := entry*12 + channel*4
			return math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
		}
		return float32(payload[entry*bl.channels+channel])
	}
	firstDelta := sample(n-1, 0) - sample(0, 0)
	thirdDelta := sample(n-1, 2) - sample(0, 2)
	return thirdDelta > firstDelta
}
