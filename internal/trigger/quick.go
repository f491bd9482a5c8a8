package trigger

import (
	"regexp"
	"strings"
)

// jsSpaceClass is the ECMAScript \s class; Go's \s is ASCII only.
const jsSpaceClass = `[\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`

// maxQuickLength is the longest single-line prompt treated as trivial.
const maxQuickLength = 20

var quickPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(yes|no|ok|okay|sure|thanks|thank you|got it|perfect|great|stop|done|continue)\.?$`),
	regexp.MustCompile(`^(open|show|reveal|display)` + jsSpaceClass),
	regexp.MustCompile(`^what('s| is) (the )?(time|date)`),
	regexp.MustCompile(`^[0-9]+$`),
}

// isQuickResponse reports whether the normalized prompt is trivial enough to
// answer without loading protocols. Rules are checked in order.
func isQuickResponse(lower string) bool {
	for _, re := range quickPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return isShortLine(lower)
}

// isShortLine mirrors /^.{0,20}$/: at most 20 UTF-16 units and no line
// terminator, since '.' does not match one.
func isShortLine(s string) bool {
	if strings.IndexFunc(s, isLineTerminator) >= 0 {
		return false
	}
	return textLength(s) <= maxQuickLength
}
