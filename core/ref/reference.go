package ref

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/language"

	"github.com/FocuswithJustin/bibleref/core/bible"
)

// Entry pairs a book with one of its ranges.
type Entry struct {
	Book  bible.BookID
	Range Range
}

// Reference is an ordered set of ranges grouped by book. Books and their
// ranges keep insertion order. A Reference is filled by the parser or the
// scanner and handed out read-only; accessors return copies.
//
// A nil *Reference is an empty, invalid reference.
type Reference struct {
	order  []bible.BookID
	ranges map[bible.BookID][]Range
}

// New returns an empty Reference.
func New() *Reference {
	return &Reference{ranges: make(map[bible.BookID][]Range)}
}

// Add appends rg to book's ranges. Exact duplicates are ignored.
func (r *Reference) Add(book bible.BookID, rg Range) {
	if r.ranges == nil {
		r.ranges = make(map[bible.BookID][]Range)
	}
	existing, seen := r.ranges[book]
	for _, e := range existing {
		if e == rg {
			return
		}
	}
	if !seen {
		r.order = append(r.order, book)
	}
	r.ranges[book] = append(existing, rg)
}

// AddWholeBook records the whole of book.
func (r *Reference) AddWholeBook(book bible.BookID) {
	r.Add(book, Book())
}

// Merge adds every range of other, in order, and returns r.
func (r *Reference) Merge(other *Reference) *Reference {
	if other == nil {
		return r
	}
	for _, book := range other.order {
		for _, rg := range other.ranges[book] {
			r.Add(book, rg)
		}
	}
	return r
}

// IsValid reports whether the reference holds at least one range.
func (r *Reference) IsValid() bool {
	return r.Len() > 0
}

// Len returns the total number of ranges.
func (r *Reference) Len() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, rs := range r.ranges {
		n += len(rs)
	}
	return n
}

// Books returns the books in insertion order.
func (r *Reference) Books() []bible.BookID {
	if r == nil {
		return nil
	}
	out := make([]bible.BookID, len(r.order))
	copy(out, r.order)
	return out
}

// Ranges returns the ranges recorded for book.
func (r *Reference) Ranges(book bible.BookID) []Range {
	if r == nil {
		return nil
	}
	rs := r.ranges[book]
	out := make([]Range, len(rs))
	copy(out, rs)
	return out
}

// Entries enumerates (book, range) pairs in insertion order.
func (r *Reference) Entries() []Entry {
	if r == nil {
		return nil
	}
	var out []Entry
	for _, book := range r.order {
		for _, rg := range r.ranges[book] {
			out = append(out, Entry{Book: book, Range: rg})
		}
	}
	return out
}

// Equal reports whether both references hold the same books and ranges in
// the same order.
func (r *Reference) Equal(other *Reference) bool {
	a, b := r.Entries(), other.Entries()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders the reference with English book names, for example
// "John 3:16-18; Romans 8".
func (r *Reference) String() string {
	return r.Format(language.English)
}

// Format renders the reference with book names in the given language.
// Books are separated by "; ", and so are ranges within a book, which keeps
// the output readable by Parse.
func (r *Reference) Format(tag language.Tag) string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.order))
	for _, book := range r.order {
		name := book.LocalName(tag)
		var spans []string
		whole := false
		for _, rg := range r.ranges[book] {
			if rg.Kind == WholeBook {
				whole = true
				continue
			}
			spans = append(spans, rg.String())
		}
		switch {
		case len(spans) == 0 || whole:
			// A whole book subsumes its other ranges.
			parts = append(parts, name)
		default:
			parts = append(parts, name+" "+strings.Join(spans, "; "))
		}
	}
	return strings.Join(parts, "; ")
}

// OSIS renders the reference as space-separated OSIS references, for
// example "John.3.16-John.3.18 Rom.8".
func (r *Reference) OSIS() string {
	var parts []string
	for _, e := range r.Entries() {
		parts = append(parts, e.Range.osis(e.Book.OSIS()))
	}
	return strings.Join(parts, " ")
}

type jsonBook struct {
	Book   string  `json:"book"`
	BookID int     `json:"book_id"`
	OSIS   string  `json:"osis"`
	Ranges []Range `json:"ranges"`
}

// MarshalJSON encodes the reference as a list of books with their ranges.
func (r *Reference) MarshalJSON() ([]byte, error) {
	out := []jsonBook{}
	if r != nil {
		for _, book := range r.order {
			out = append(out, jsonBook{
				Book:   book.Name(),
				BookID: int(book),
				OSIS:   book.OSIS(),
				Ranges: r.ranges[book],
			})
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var in []jsonBook
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Reference{ranges: make(map[bible.BookID][]Range)}
	for _, b := range in {
		for _, rg := range b.Ranges {
			r.Add(bible.BookID(b.BookID), rg)
		}
	}
	return nil
}
