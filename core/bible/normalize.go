package bible

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the lookup key for a book spelling: lowercased, inner
// whitespace collapsed to a single space, and diacritics removed, so that
// "1  Crónicas", "1 cronicas" and "1 CRONICAS" share one key.
func Normalize(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return FoldAccents(s)
}

// FoldAccents strips combining marks after canonical decomposition.
func FoldAccents(s string) string {
	if isASCII(s) {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// compact removes all whitespace; ordinal keys are digit+base with no gap.
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// Reverse returns s with its runes in reverse order. Bytes that are not
// valid UTF-8 are kept and moved one at a time.
func Reverse(s string) string {
	b := make([]byte, len(s))
	end := len(s)
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		copy(b[end-size:end], s[i:i+size])
		end -= size
		i += size
	}
	return string(b)
}
