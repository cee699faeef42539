package ref

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/bibleref/core/bible"
)

// rangeItem is one comma-separated item of a chapter/verse tail, such as
// "3:16-18" or "4:1-5:2": a start point and an optional end point after the
// first "-". Every token sequence parses, so stray punctuation and junk
// never make the parse fail; they only zero the fields they displace.
//
//nolint:govet // participle grammar tags are not standard struct tags
type rangeItem struct {
	From *startPoint `@@?`
	To   *endPoint   `( "-" @@? )?`
}

// startPoint is chapter, then verse after the first ":". A field counts only
// when its first token is a number.
//
//nolint:govet // participle grammar tags are not standard struct tags
type startPoint struct {
	Chapter *string  `@Int?`
	Skip    []string `@( Int | Junk )*`
	Verse   *string  `( ":" @Int? )?`
	Rest    []string `@( ":" | Int | Junk )*`
}

// endPoint is startPoint for the text after the first "-", where further
// dashes are junk.
//
//nolint:govet // participle grammar tags are not standard struct tags
type endPoint struct {
	Chapter *string  `@Int?`
	Skip    []string `@( Int | Junk | "-" )*`
	Verse   *string  `( ":" @Int? )?`
	Rest    []string `@( ":" | "-" | Int | Junk )*`
}

// itemLexer splits an item into numbers, separators and anything else.
var itemLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[:\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Junk", Pattern: `[^0-9:\-\s]+`},
})

var itemParser = participle.MustBuild[rangeItem](
	participle.Lexer(itemLexer),
	participle.Elide("Whitespace"),
)

// digitGap matches whitespace between two digits, which separates clauses
// the same way a semicolon does ("3 16" reads as "3;16").
var digitGap = regexp.MustCompile(`(\d)\s+(\d)`)

// Parse reads a chapter/verse tail for book into a new Reference. Parse never
// fails: items it cannot make sense of are skipped, so the result may be
// empty.
func Parse(book bible.BookID, tail string) *Reference {
	r := New()
	ParseInto(r, book, tail)
	return r
}

// ParseInto reads a chapter/verse tail for book and adds its ranges to r.
//
// The tail is split into clauses on ";" and each clause into items on ",".
// The chapter established by one item carries to later items of the same
// clause, so "3:16,18" is two verses of chapter 3 while "3:16;18" is verse
// 16 of chapter 3 followed by the whole of chapter 18.
func ParseInto(r *Reference, book bible.BookID, tail string) {
	for {
		next := digitGap.ReplaceAllString(tail, "$1;$2")
		if next == tail {
			break
		}
		tail = next
	}

	for _, clause := range strings.Split(tail, ";") {
		carry := 0
		for _, item := range strings.Split(clause, ",") {
			if strings.TrimSpace(item) == "" {
				continue
			}
			ch1, vs1, ch2, vs2, ok := parseItem(item)
			if !ok {
				continue
			}
			carry = addItem(r, book, ch1, vs1, ch2, vs2, carry)
		}
	}
}

// addItem classifies one item and returns the chapter carried forward.
func addItem(r *Reference, book bible.BookID, ch1, vs1, ch2, vs2, carry int) int {
	if ch1 == 0 {
		return carry
	}
	// "1:2-3" is verses 2 through 3 of chapter 1, not 1:2 through 3:0.
	if vs1 != 0 && vs2 == 0 && ch2 != 0 {
		vs2, ch2 = ch2, 0
	}

	switch {
	case vs1 == 0 && vs2 == 0:
		r.Add(book, Whole(ch1, ch2, carry))
		return carry
	case ch2 == 0 || ch2 == ch1:
		r.Add(book, Inner(ch1, vs1, vs2))
		return ch1
	default:
		r.Add(book, Mixed(ch1, vs1, ch2, vs2, carry))
		return ch2
	}
}

// parseItem returns the four numeric fields of an item. ok is false when the
// item does not lex.
func parseItem(item string) (ch1, vs1, ch2, vs2 int, ok bool) {
	parsed, err := itemParser.ParseString("", item)
	if err != nil {
		return 0, 0, 0, 0, false
	}
	if p := parsed.From; p != nil {
		ch1, vs1 = number(p.Chapter), number(p.Verse)
	}
	if p := parsed.To; p != nil {
		ch2, vs2 = number(p.Chapter), number(p.Verse)
	}
	return ch1, vs1, ch2, vs2, true
}

// number is the value of a captured field, 0 when it is missing.
func number(s *string) int {
	if s == nil {
		return 0
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		return 0
	}
	return n
}
