package bible

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/language"
)

// Direction selects literal or mirrored (rune-reversed) regex fragments.
type Direction int

const (
	// Forward fragments match text as written.
	Forward Direction = iota
	// Mirrored fragments match text whose runes have been reversed.
	Mirrored
)

func (d Direction) String() string {
	if d == Mirrored {
		return "mirrored"
	}
	return "forward"
}

// Fragments holds the regex alternations a scanner is assembled from.
// Index n-1 of Bases and Prefixes belongs to ordinal n.
type Fragments struct {
	Plain    string
	Bases    [3]string
	Prefixes [3]string
}

// Registry maps book spellings to canonical book ids. A Registry is immutable
// after construction and safe for concurrent use.
type Registry struct {
	spellings []Spelling
	ordinals  []OrdinalBase
	tokens    []OrdinalToken
	languages []language.Tag
	index     map[string]BookID
}

// Option configures a Registry.
type Option func(*registryOptions)

type registryOptions struct {
	languages []language.Tag
}

// WithLanguages restricts the registry to spellings of the given languages.
func WithLanguages(tags ...language.Tag) Option {
	return func(o *registryOptions) {
		o.languages = append(o.languages, tags...)
	}
}

// DefaultRegistry returns the process-wide registry built from the English
// and Spanish tables.
var DefaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(BuiltinSpellings(), BuiltinOrdinals(), BuiltinOrdinalTokens())
})

// NewRegistry builds a registry from spelling tables. Spellings are
// normalized, and an unaccented variant is added for every accented one.
// When the same key appears twice the first entry wins.
func NewRegistry(spellings []Spelling, ordinals []OrdinalBase, tokens []OrdinalToken, opts ...Option) *Registry {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{
		languages: []language.Tag{language.English, language.Spanish},
		index:     make(map[string]BookID),
	}
	if len(o.languages) > 0 {
		r.languages = o.languages
	}

	for _, s := range spellings {
		if !r.accepts(s.Language) {
			continue
		}
		for _, text := range variants(s.Text) {
			s.Text = text
			r.spellings = append(r.spellings, s)
			r.register(Normalize(text), s.Book)
		}
	}

	for _, b := range ordinals {
		if !r.accepts(b.Language) {
			continue
		}
		if b.Max < 1 || b.Max > 3 {
			continue
		}
		for _, text := range variants(b.Text) {
			b.Text = text
			r.ordinals = append(r.ordinals, b)
			for n := 1; n <= b.Max; n++ {
				r.register(ordinalKey(n, text), b.Books[n-1])
			}
		}
	}

	for _, t := range tokens {
		if t.Ordinal < 1 || t.Ordinal > 3 || !r.accepts(t.Language) {
			continue
		}
		t.Text = strings.ToLower(strings.Join(strings.Fields(t.Text), " "))
		r.tokens = append(r.tokens, t)
	}

	return r
}

func (r *Registry) register(key string, id BookID) {
	if _, exists := r.index[key]; !exists {
		r.index[key] = id
	}
}

func (r *Registry) accepts(tag language.Tag) bool {
	if tag == language.Und {
		return true
	}
	base, _ := tag.Base()
	for _, l := range r.languages {
		if lb, _ := l.Base(); lb == base {
			return true
		}
	}
	return false
}

// variants returns the normalized spelling plus its unaccented form when
// the two differ.
func variants(text string) []string {
	lower := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if lower == "" {
		return nil
	}
	if folded := FoldAccents(lower); folded != lower {
		return []string{lower, folded}
	}
	return []string{lower}
}

func ordinalKey(n int, base string) string {
	return strconv.Itoa(n) + compact(Normalize(base))
}

// Lookup resolves a spelling to a book id. Spellings that are recognized but
// outside the canon, and unknown spellings, report false.
func (r *Registry) Lookup(spelling string) (BookID, bool) {
	key := Normalize(spelling)
	if id, ok := r.index[key]; ok {
		return id, id.Valid()
	}
	if key != "" && key[0] >= '0' && key[0] <= '9' {
		if id, ok := r.index[compact(key)]; ok {
			return id, id.Valid()
		}
	}
	return 0, false
}

// LookupOrdinal resolves an ordinal base name ("samuel") for ordinal n.
func (r *Registry) LookupOrdinal(n int, base string) (BookID, bool) {
	id, ok := r.index[ordinalKey(n, base)]
	return id, ok && id.Valid()
}

// Known reports whether spelling is in the registry at all, including
// spellings that do not resolve to a canonical book.
func (r *Registry) Known(spelling string) bool {
	_, ok := r.index[Normalize(spelling)]
	return ok
}

// Languages returns the languages the registry was built for.
func (r *Registry) Languages() []language.Tag {
	out := make([]language.Tag, len(r.languages))
	copy(out, r.languages)
	return out
}

// Spellings returns the plain spellings at or below maxLevel.
func (r *Registry) Spellings(maxLevel Level) []Spelling {
	var out []Spelling
	for _, s := range r.spellings {
		if s.Level <= maxLevel {
			out = append(out, s)
		}
	}
	return out
}

// Ordinals returns the ordinal base names at or below maxLevel.
func (r *Registry) Ordinals(maxLevel Level) []OrdinalBase {
	var out []OrdinalBase
	for _, b := range r.ordinals {
		if b.Level <= maxLevel {
			out = append(out, b)
		}
	}
	return out
}

// OrdinalTokens returns the ordinal prefix words.
func (r *Registry) OrdinalTokens() []OrdinalToken {
	out := make([]OrdinalToken, len(r.tokens))
	copy(out, r.tokens)
	return out
}

// Fragments returns the alternations for every spelling at or below
// maxLevel. Alternatives are sorted longest first so that a short
// abbreviation never truncates a longer name sharing its prefix.
func (r *Registry) Fragments(maxLevel Level, dir Direction) Fragments {
	var f Fragments

	var plain []string
	for _, s := range r.Spellings(maxLevel) {
		plain = append(plain, s.Text)
	}
	f.Plain = alternation(plain, dir)

	for n := 1; n <= 3; n++ {
		var bases []string
		for _, b := range r.Ordinals(maxLevel) {
			if b.Max >= n {
				bases = append(bases, b.Text)
			}
		}
		var words, numerals []string
		for _, t := range r.tokens {
			if t.Ordinal != n {
				continue
			}
			if isNumeral(t.Text) {
				numerals = append(numerals, t.Text)
			} else {
				words = append(words, t.Text)
			}
		}
		if len(bases) == 0 || len(words)+len(numerals) == 0 {
			continue
		}
		f.Bases[n-1] = alternation(bases, dir)
		f.Prefixes[n-1] = prefix(words, numerals, dir)
	}
	return f
}

// prefix builds the ordinal grammar: a word ordinal followed by optional
// "book" and "of" and mandatory whitespace, or a numeral followed by
// optional whitespace.
func prefix(words, numerals []string, dir Direction) string {
	var alts []string
	if len(words) > 0 {
		w := alternation(words, dir)
		if dir == Mirrored {
			alts = append(alts, `\s+(?:fo\s+)?(?:koob\s+)?(?:`+w+`)`)
		} else {
			alts = append(alts, `(?:`+w+`)(?:\s+book)?(?:\s+of)?\s+`)
		}
	}
	if len(numerals) > 0 {
		n := alternation(numerals, dir)
		if dir == Mirrored {
			alts = append(alts, `\s*(?:`+n+`)`)
		} else {
			alts = append(alts, `(?:`+n+`)\s*`)
		}
	}
	return `(?:` + strings.Join(alts, "|") + `)`
}

// alternation joins texts into a regex alternation, longest first with
// ties broken alphabetically. Inner whitespace matches any whitespace run.
func alternation(texts []string, dir Direction) string {
	seen := make(map[string]bool, len(texts))
	var uniq []string
	for _, t := range texts {
		if !seen[t] {
			seen[t] = true
			uniq = append(uniq, t)
		}
	}
	sort.Slice(uniq, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(uniq[i]), utf8.RuneCountInString(uniq[j])
		if li != lj {
			return li > lj
		}
		return uniq[i] < uniq[j]
	})

	alts := make([]string, len(uniq))
	for i, t := range uniq {
		if dir == Mirrored {
			t = Reverse(t)
		}
		words := strings.Fields(t)
		for j, w := range words {
			words[j] = regexp.QuoteMeta(w)
		}
		alts[i] = strings.Join(words, `\s+`)
	}
	return strings.Join(alts, "|")
}

func isNumeral(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
