// Package markup walks HTML-flavored text and rewrites only the text between
// tags. Tags are found by shape alone; the markup is never parsed.
package markup

import (
	"regexp"
	"strings"
)

// tagPattern matches anything that looks like a tag: "<", some content with
// at least one non-space character, ">".
var tagPattern = regexp.MustCompile(`<[^<>]*[^<>\s][^<>]*>`)

// Segment is one span of the input: either a tag or the text around tags.
type Segment struct {
	Text  string
	Tag   bool
	Start int // byte offset in the input
}

// Segments splits s into alternating text and tag spans. Empty text spans
// between adjacent tags are omitted.
func Segments(s string) []Segment {
	var out []Segment
	pos := 0
	for _, loc := range tagPattern.FindAllStringIndex(s, -1) {
		if loc[0] > pos {
			out = append(out, Segment{Text: s[pos:loc[0]], Start: pos})
		}
		out = append(out, Segment{Text: s[loc[0]:loc[1]], Tag: true, Start: loc[0]})
		pos = loc[1]
	}
	if pos < len(s) {
		out = append(out, Segment{Text: s[pos:], Start: pos})
	}
	return out
}

// Rewrite passes every text span of s through fn and copies tags unchanged.
// fn sees each text span whole, including leading and trailing whitespace,
// and may return text of any length.
func Rewrite(s string, fn func(string) string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	rest := s
	for {
		loc := tagPattern.FindStringIndex(rest)
		if loc == nil {
			break
		}
		if loc[0] > 0 {
			b.WriteString(fn(rest[:loc[0]]))
		}
		b.WriteString(rest[loc[0]:loc[1]])
		rest = rest[loc[1]:]
	}
	if rest != "" {
		b.WriteString(fn(rest))
	}
	return b.String()
}

// Text returns s with every tag replaced by a space.
func Text(s string) string {
	return tagPattern.ReplaceAllString(s, " ")
}
