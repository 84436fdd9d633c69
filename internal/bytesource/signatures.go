package bytesource

import "bytes"

// Signature is a well-known magic byte sequence identifying a container
// format, used to annotate the hex view (the annotation rendering itself
// is a GUI concern; this is the pure data + matcher the GUI consumes).
type Signature struct {
	Name  string
	Magic []byte
}

// WellKnownSignatures lists magic byte sequences hexbait recognizes at
// offset 0 of a file.
var WellKnownSignatures = []Signature{
	{Name: "ELF", Magic: []byte{0x7f, 'E', 'L', 'F'}},
	{Name: "PE/COFF (MZ stub)", Magic: []byte{'M', 'Z'}},
	{Name: "ZIP", Magic: []byte{'P', 'K', 0x03, 0x04}},
	{Name: "PNG", Magic: []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}},
	{Name: "GZIP", Magic: []byte{0x1f, 0x8b}},
	{Name: "Mach-O (32-bit)", Magic: []byte{0xfe, 0xed, 0xfa, 0xce}},
	{Name: "Mach-O (64-bit)", Magic: []byte{0xfe, 0xed, 0xfa, 0xcf}},
	{Name: "PDF", Magic: []byte{'%', 'P', 'D', 'F'}},
	{Name: "WASM", Magic: []byte{0x00, 'a', 's', 'm'}},
}

// MatchSignature returns the first well-known signature whose magic bytes
// are a prefix of head, or nil if none match.
func MatchSignature(head []byte) *Signature {
	for i := range WellKnownSignatures {
		sig := &WellKnownSignatures[i]
		if len(head) >= len(sig.Magic) && bytes.Equal(head[:len(sig.Magic)], sig.Magic) {
			return sig
		}
	}
	return nil
}
