// Package scan finds scripture citations in text.
//
// A Scanner compiles one regex from the book registry and binds each book
// name to the chapter/verse numbers next to it. By default the scan runs over
// the input with its runes reversed, using mirrored book spellings, so that
// numbers attach to the book name after them rather than the one before:
// "Genesis 3; 1 Samuel 5" reads as Genesis 3 and 1 Samuel 5, not as
// Genesis 3 and 1 followed by an unnumbered "Samuel". Reversal is internal;
// callers only see text in its original order.
package scan

import (
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/bibleref/core/bible"
	"github.com/FocuswithJustin/bibleref/core/markup"
	"github.com/FocuswithJustin/bibleref/core/ref"
)

// Match is one citation found in the input.
type Match struct {
	Text   string         `json:"text"`   // matched text as written
	Offset int            `json:"offset"` // byte offset of Text in the input
	Book   bible.BookID   `json:"book_id"`
	Ref    *ref.Reference `json:"reference"`
}

// Func computes the replacement for a matched citation.
type Func func(text string, r *ref.Reference) string

// Scanner extracts and rewrites citations. A Scanner is immutable and safe
// for concurrent use.
type Scanner struct {
	cfg      Config
	registry *bible.Registry
	pattern  *pattern
}

// New returns a Scanner for cfg. It fails only when cfg is invalid.
func New(cfg Config, opts ...Option) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scanner{cfg: cfg, registry: bible.DefaultRegistry()}
	for _, opt := range opts {
		opt(s)
	}
	p, err := loadPattern(s.registry, cfg)
	if err != nil {
		return nil, err
	}
	s.pattern = p
	return s, nil
}

// Must is like New but panics on an invalid configuration.
func Must(cfg Config, opts ...Option) *Scanner {
	s, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Simple returns a scanner for SimpleConfig.
func Simple(opts ...Option) *Scanner {
	return Must(SimpleConfig(), opts...)
}

// HTML returns a scanner for HTMLConfig.
func HTML(opts ...Option) *Scanner {
	return Must(HTMLConfig(), opts...)
}

// Config returns the scanner's configuration.
func (s *Scanner) Config() Config {
	return s.cfg
}

// Registry returns the registry the scanner resolves spellings with.
func (s *Scanner) Registry() *bible.Registry {
	return s.registry
}

// Extract returns every citation in text merged into one Reference, in
// document order. The result is empty when nothing was found.
func (s *Scanner) Extract(text string) *ref.Reference {
	total := ref.New()
	for _, m := range s.ExtractAll(text) {
		total.Merge(m.Ref)
	}
	return total
}

// ExtractAll returns each citation with its position, in document order.
func (s *Scanner) ExtractAll(text string) []Match {
	var matches []Match
	s.walk(text, func(m Match) string {
		matches = append(matches, m)
		return m.Text
	})
	sortMatches(matches)
	return matches
}

// ExtractStrict is Extract for input that should be nothing but citations.
// It reports false when anything other than whitespace is left once the
// citations are removed; "John 3:16; Rom 8" fails on the ";". Empty input,
// and input with no citation in it, also report (nil, false) rather than an
// empty reference.
func (s *Scanner) ExtractStrict(text string) (*ref.Reference, bool) {
	var matches []Match
	rest := s.walk(text, func(m Match) string {
		matches = append(matches, m)
		return ""
	})
	if strings.TrimSpace(rest) != "" {
		return nil, false
	}
	sortMatches(matches)
	total := ref.New()
	for _, m := range matches {
		total.Merge(m.Ref)
	}
	if !total.IsValid() {
		return nil, false
	}
	return total, true
}

// ExtractAllHTML is ExtractAll over the text between tags. Offsets are
// byte offsets in html.
func (s *Scanner) ExtractAllHTML(html string) []Match {
	var matches []Match
	for _, seg := range markup.Segments(html) {
		if seg.Tag {
			continue
		}
		for _, m := range s.ExtractAll(seg.Text) {
			m.Offset += seg.Start
			matches = append(matches, m)
		}
	}
	return matches
}

// ExtractStrictHTML is ExtractStrict with tags treated as whitespace.
func (s *Scanner) ExtractStrictHTML(html string) (*ref.Reference, bool) {
	return s.ExtractStrict(markup.Text(html))
}

// Leftovers returns text with every citation removed.
func (s *Scanner) Leftovers(text string) string {
	return s.walk(text, func(Match) string { return "" })
}

// Replace substitutes fn's result for every citation in text. In reverse
// mode fn is called for the last citation first.
func (s *Scanner) Replace(text string, fn Func) string {
	return s.walk(text, func(m Match) string { return fn(m.Text, m.Ref) })
}

// RewriteHTML is Replace applied to the text between tags. Tags, including
// their attribute values, are copied unchanged.
func (s *Scanner) RewriteHTML(html string, fn Func) string {
	return markup.Rewrite(html, func(span string) string {
		return s.Replace(span, fn)
	})
}

// walk runs the pattern over text and returns text with each valid citation
// replaced by visit's result. Unresolved names and tails that yield no range
// are left as they are. Reverse mode matches against the reversed text, but
// replacements are spliced into text itself, so bytes outside a citation are
// never touched.
func (s *Scanner) walk(text string, visit func(Match) string) string {
	p := s.pattern
	if p == nil || p.re == nil || text == "" {
		return text
	}

	src := text
	if !p.forward {
		src = bible.Reverse(text)
	}

	var edits []edit
	pos := 0
	for pos < len(src) {
		loc := p.re.FindStringSubmatchIndex(src[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}

		start := loc[0]
		leadingCV := !p.forward && loc[2*p.cv] >= 0
		if !leadingCV && !wordStart(src, start) {
			_, size := utf8.DecodeRuneInString(src[start:])
			pos = start + size
			continue
		}

		end := loc[2*p.book+1]
		if p.forward && p.cv >= 0 && loc[2*p.cv] >= 0 {
			end = loc[2*p.cv+1]
		}

		if m, ok := s.resolve(src, loc, start, end); ok {
			e := edit{start: start, end: end}
			if !p.forward {
				e.start, e.end = len(src)-end, len(src)-start
			}
			e.repl = visit(m)
			edits = append(edits, e)
		}
		pos = end
	}

	if len(edits) == 0 {
		return text
	}
	if !p.forward {
		slices.Reverse(edits)
	}
	var b strings.Builder
	b.Grow(len(text))
	copied := 0
	for _, e := range edits {
		b.WriteString(text[copied:e.start])
		b.WriteString(e.repl)
		copied = e.end
	}
	b.WriteString(text[copied:])
	return b.String()
}

// edit replaces text[start:end] with repl.
type edit struct {
	start, end int
	repl       string
}

// resolve turns one regex match into a Match. ok is false when the book does
// not resolve or the tail yields no range.
func (s *Scanner) resolve(src string, loc []int, start, end int) (Match, bool) {
	p := s.pattern
	orient := func(t string) string {
		if p.forward {
			return t
		}
		return bible.Reverse(t)
	}

	var (
		id bible.BookID
		ok bool
	)
	if name := p.group(src, loc, p.plain); name != "" {
		id, ok = s.registry.Lookup(orient(name))
	} else {
		for n := 1; n <= 3; n++ {
			if base := p.group(src, loc, p.bases[n-1]); base != "" {
				id, ok = s.registry.LookupOrdinal(n, orient(base))
				break
			}
		}
	}
	if !ok {
		return Match{}, false
	}

	cv := strings.TrimLeft(strings.TrimSpace(orient(p.group(src, loc, p.cv))), ".")
	r := ref.New()
	if cv == "" {
		if s.cfg.AddWholeBooks {
			r.AddWholeBook(id)
		}
	} else {
		ref.ParseInto(r, id, cv)
	}
	if !r.IsValid() {
		return Match{}, false
	}

	m := Match{
		Text:   orient(src[start:end]),
		Offset: start,
		Book:   id,
		Ref:    r,
	}
	if !p.forward {
		m.Offset = len(src) - end
	}
	return m, true
}

// wordStart reports whether a word may begin at byte offset i of s.
func wordStart(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func sortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Offset < ms[j].Offset })
}
