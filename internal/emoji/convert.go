package emoji

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultGlyph is returned when an item carries no HTML code.
const DefaultGlyph = "😊"

var entityPattern = regexp.MustCompile(`&#(\d+);`)

// ConvertHTMLToEmoji turns decimal HTML entities such as "&#128512;" into
// the glyphs they name and concatenates them, so multi-codepoint
// sequences like flags survive. Codes that are not entities are kept
// verbatim.
func ConvertHTMLToEmoji(codes ...string) string {
	if len(codes) == 0 {
		return DefaultGlyph
	}

	var b strings.Builder
	for _, code := range codes {
		m := entityPattern.FindStringSubmatch(code)
		if m == nil {
			b.WriteString(code)
			continue
		}
		n, err := strconv.ParseInt(m[1], 10, 32)
		if err != nil {
			b.WriteString(code)
			continue
		}
		b.WriteRune(rune(n))
	}
	return b.String()
}
