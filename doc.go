// Package lutkit decodes 3-D color lookup tables from the binary, text and
// image-encoded layouts used by camera-simulation LUT exports, caches decoded
// tables under a memory budget, and applies them to packed ARGB pixel buffers
// in parallel.
//
// Most vendor formats carry no authoritative signature, so binary decoding is
// an ordered list of tagged attempts: known header magics first, then file-size
// factorization, then cube-root arithmetic. The decoded result is always
// normalized to the same canonical layout (red axis fastest, float32 channels
// in [0, 1]) regardless of the source channel order or sample width.
package lutkit
