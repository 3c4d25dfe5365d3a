package lutkit

import (
	"path/filepath"
	"strings"
)

// encSuffix marks assets that shipped encrypted. Decryption happens in the
// asset loader before bytes reach this package; the marker is stripped here
// only so the real extension can drive dispatch.
const encSuffix = ".enc"

// Decode inspects the identifier's extension and the data itself to pick a
// format decoder, and returns the canonical LUT. The identifier is typically
// the asset path; data must already be decrypted. Detection is pure: every
// input maps to exactly one decoder attempt, which itself may fail.
func Decode(identifier string, data []byte) (*Lut, error) {
	name := strings.TrimSuffix(identifier, encSuffix)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cube":
		return DecodeCube(data)
	case ".png", ".webp", ".jpg", ".jpeg":
		return DecodeImage(data)
	default:
		// .bin, .dat and extensionless files are binary exports, except for
		// the mislabeled .cube text files the vendor corpus contains.
		if looksLikeCube(data) {
			return DecodeCube(data)
		}
		return DecodeBinary(data)
	}
}
