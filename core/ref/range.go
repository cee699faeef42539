// Package ref holds the citation value produced by the scanner: per-book
// sequences of chapter and verse ranges, the grammar that parses a
// chapter/verse tail into them, and their canonical renderings.
package ref

import (
	"fmt"
	"strconv"
)

// Kind distinguishes the four shapes a range can take.
type Kind uint8

const (
	// WholeBook is a bare book name with no chapter or verse.
	WholeBook Kind = iota
	// WholeChapters is one chapter, or an inclusive run of chapters.
	WholeChapters
	// InnerVerses is one verse, or a run of verses, inside a single chapter.
	InnerVerses
	// MixedChapters runs from a verse in one chapter to a verse in a later one.
	MixedChapters
)

var kindNames = [...]string{"book", "chapters", "verses", "mixed"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown range kind %q", b)
}

// Range is one chapter/verse span within a book. Zero end fields mean the
// span is a single chapter or verse.
//
//	WholeBook      -
//	WholeChapters  Chapter1[-Chapter2]
//	InnerVerses    Chapter1:Verse1[-Verse2]
//	MixedChapters  Chapter1:Verse1-Chapter2:Verse2
type Range struct {
	Kind     Kind `json:"kind"`
	Chapter1 int  `json:"chapter,omitempty"`
	Verse1   int  `json:"verse,omitempty"`
	Chapter2 int  `json:"end_chapter,omitempty"`
	Verse2   int  `json:"end_verse,omitempty"`
}

// Book returns the whole-book range.
func Book() Range {
	return Range{Kind: WholeBook}
}

// Whole returns a whole-chapter range. A non-zero carry is the chapter
// established earlier in the same clause: the numbers are then verses of
// that chapter and the result is an InnerVerses range.
func Whole(ch1, ch2, carry int) Range {
	if carry != 0 {
		return Inner(carry, ch1, ch2)
	}
	if ch2 == ch1 {
		ch2 = 0
	}
	return Range{Kind: WholeChapters, Chapter1: ch1, Chapter2: ch2}
}

// Inner returns a verse range inside chapter ch. A missing start verse
// means the start of the chapter.
func Inner(ch, v1, v2 int) Range {
	if v1 == 0 && v2 == 0 {
		return Whole(ch, 0, 0)
	}
	if v1 == 0 {
		v1 = 1
	}
	if v2 == v1 {
		v2 = 0
	}
	return Range{Kind: InnerVerses, Chapter1: ch, Verse1: v1, Verse2: v2}
}

// Mixed returns a cross-chapter range. With a non-zero carry and no start
// verse, ch1 is a verse of the carried chapter.
func Mixed(ch1, v1, ch2, v2, carry int) Range {
	if carry != 0 && v1 == 0 {
		ch1, v1 = carry, ch1
	}
	if v1 == 0 {
		v1 = 1
	}
	if ch2 == ch1 {
		return Inner(ch1, v1, v2)
	}
	return Range{Kind: MixedChapters, Chapter1: ch1, Verse1: v1, Chapter2: ch2, Verse2: v2}
}

// String renders the range in the canonical chapter/verse form that Parse
// reads back to the same range.
func (r Range) String() string {
	switch r.Kind {
	case WholeChapters:
		if r.Chapter2 != 0 {
			return fmt.Sprintf("%d-%d", r.Chapter1, r.Chapter2)
		}
		return strconv.Itoa(r.Chapter1)
	case InnerVerses:
		if r.Verse2 != 0 {
			return fmt.Sprintf("%d:%d-%d", r.Chapter1, r.Verse1, r.Verse2)
		}
		return fmt.Sprintf("%d:%d", r.Chapter1, r.Verse1)
	case MixedChapters:
		return fmt.Sprintf("%d:%d-%d:%d", r.Chapter1, r.Verse1, r.Chapter2, r.Verse2)
	}
	return ""
}

// osis renders the range as an OSIS reference for the given book id.
func (r Range) osis(book string) string {
	switch r.Kind {
	case WholeChapters:
		if r.Chapter2 != 0 {
			return fmt.Sprintf("%s.%d-%s.%d", book, r.Chapter1, book, r.Chapter2)
		}
		return fmt.Sprintf("%s.%d", book, r.Chapter1)
	case InnerVerses:
		if r.Verse2 != 0 {
			return fmt.Sprintf("%s.%d.%d-%s.%d.%d", book, r.Chapter1, r.Verse1, book, r.Chapter1, r.Verse2)
		}
		return fmt.Sprintf("%s.%d.%d", book, r.Chapter1, r.Verse1)
	case MixedChapters:
		return fmt.Sprintf("%s.%d.%d-%s.%d.%d", book, r.Chapter1, r.Verse1, book, r.Chapter2, r.Verse2)
	}
	return book
}
