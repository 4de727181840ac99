// Package fieldhash maps field and variant labels to their stable numeric
// wire identifiers.
//
// IMPORTANT: the hash function is FROZEN. It is the identifier consumers of
// an interface document rely on across separately compiled programs;
// changing it silently breaks every deployed interface.
package fieldhash

import "strconv"

// Hash returns the numeric identifier of a textual label:
// h(s) = fold(h*223 + byte) over the UTF-8 bytes of s, mod 2^32.
func Hash(label string) uint32 {
	var h uint32
	for i := 0; i < len(label); i++ {
		h = h*223 + uint32(label[i])
	}
	return h
}

// Index interprets label as a decimal numeric label. Numeric labels pass
// through unhashed: their identifier is the literal value. The second
// result reports whether label was numeric.
func Index(label string) (uint32, bool) {
	if label == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(label, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// Identify resolves a label to its wire identifier and display name:
// numeric labels pass through with their canonical decimal rendering,
// textual labels hash.
func Identify(label string) (uint32, string) {
	if n, ok := Index(label); ok {
		return n, strconv.FormatUint(uint64(n), 10)
	}
	return Hash(label), label
}
