package trigger

import (
	"strings"
	"unicode/utf16"
)

// isSpace matches the ECMAScript WhiteSpace and LineTerminator sets, which is
// what prompt callers mean by whitespace. unicode.IsSpace differs on U+0085
// and U+FEFF.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

// dottedCapitalI lowers to "i" plus a combining dot above, the one
// unconditional multi-rune lowercase mapping. strings.ToLower maps it to a
// bare "i", which would shorten the text.
var dottedCapitalI = strings.NewReplacer("\u0130", "i\u0307")

// normalize lower-cases and trims text for pattern and keyword matching.
func normalize(text string) string {
	if strings.ContainsRune(text, '\u0130') {
		text = dottedCapitalI.Replace(text)
	}
	return strings.TrimFunc(strings.ToLower(text), isSpace)
}

// textLength counts UTF-16 code units, so a supplementary-plane character
// such as an emoji counts as two.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
