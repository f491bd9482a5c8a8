package trigger

import (
	"strconv"
	"unicode/utf16"
)

// Fingerprint is a 32-bit rolling hash of a prompt. It is cheap and
// collision-tolerant: a collision only causes an extra dedup skip.
type Fingerprint int32

// FingerprintOf hashes text as h = h*31 + unit over its UTF-16 code units,
// wrapping on overflow.
func FingerprintOf(text string) Fingerprint {
	var h int32
	for _, r := range text {
		if r < 0x10000 {
			h = h*31 + r
			continue
		}
		hi, lo := utf16.EncodeRune(r)
		h = h*31 + hi
		h = h*31 + lo
	}
	return Fingerprint(h)
}

// String renders the fingerprint in decimal.
func (f Fingerprint) String() string {
	return strconv.FormatInt(int64(f), 10)
}
