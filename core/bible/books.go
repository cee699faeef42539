// Package bible holds the canonical book table and the registry of spellings
// the scanner recognizes for each book.
package bible

import (
	"golang.org/x/text/language"
)

// BookID identifies a canonical book: 1 is Genesis, 66 is Revelation.
// The zero value means "no book".
type BookID int

// Book ids at the edges of the canon.
const (
	FirstBook BookID = 1
	LastBook  BookID = 66
)

// BookData describes one canonical book.
type BookData struct {
	ID      BookID
	Name    string // English display name
	Spanish string // Spanish display name
	OSIS    string // OSIS book identifier (e.g. "1Sam")
	USFM    string // USFM book code (e.g. "1SA")
}

var books = [...]BookData{
	// Old Testament
	{1, "Genesis", "Génesis", "Gen", "GEN"},
	{2, "Exodus", "Éxodo", "Exod", "EXO"},
	{3, "Leviticus", "Levítico", "Lev", "LEV"},
	{4, "Numbers", "Números", "Num", "NUM"},
	{5, "Deuteronomy", "Deuteronomio", "Deut", "DEU"},
	{6, "Joshua", "Josué", "Josh", "JOS"},
	{7, "Judges", "Jueces", "Judg", "JDG"},
	{8, "Ruth", "Rut", "Ruth", "RUT"},
	{9, "1 Samuel", "1 Samuel", "1Sam", "1SA"},
	{10, "2 Samuel", "2 Samuel", "2Sam", "2SA"},
	{11, "1 Kings", "1 Reyes", "1Kgs", "1KI"},
	{12, "2 Kings", "2 Reyes", "2Kgs", "2KI"},
	{13, "1 Chronicles", "1 Crónicas", "1Chr", "1CH"},
	{14, "2 Chronicles", "2 Crónicas", "2Chr", "2CH"},
	{15, "Ezra", "Esdras", "Ezra", "EZR"},
	{16, "Nehemiah", "Nehemías", "Neh", "NEH"},
	{17, "Esther", "Ester", "Esth", "EST"},
	{18, "Job", "Job", "Job", "JOB"},
	{19, "Psalms", "Salmos", "Ps", "PSA"},
	{20, "Proverbs", "Proverbios", "Prov", "PRO"},
	{21, "Ecclesiastes", "Eclesiastés", "Eccl", "ECC"},
	{22, "Song of Solomon", "Cantares", "Song", "SNG"},
	{23, "Isaiah", "Isaías", "Isa", "ISA"},
	{24, "Jeremiah", "Jeremías", "Jer", "JER"},
	{25, "Lamentations", "Lamentaciones", "Lam", "LAM"},
	{26, "Ezekiel", "Ezequiel", "Ezek", "EZK"},
	{27, "Daniel", "Daniel", "Dan", "DAN"},
	{28, "Hosea", "Oseas", "Hos", "HOS"},
	{29, "Joel", "Joel", "Joel", "JOL"},
	{30, "Amos", "Amós", "Amos", "AMO"},
	{31, "Obadiah", "Abdías", "Obad", "OBA"},
	{32, "Jonah", "Jonás", "Jonah", "JON"},
	{33, "Micah", "Miqueas", "Mic", "MIC"},
	{34, "Nahum", "Nahúm", "Nah", "NAM"},
	{35, "Habakkuk", "Habacuc", "Hab", "HAB"},
	{36, "Zephaniah", "Sofonías", "Zeph", "ZEP"},
	{37, "Haggai", "Hageo", "Hag", "HAG"},
	{38, "Zechariah", "Zacarías", "Zech", "ZEC"},
	{39, "Malachi", "Malaquías", "Mal", "MAL"},
	// New Testament
	{40, "Matthew", "Mateo", "Matt", "MAT"},
	{41, "Mark", "Marcos", "Mark", "MRK"},
	{42, "Luke", "Lucas", "Luke", "LUK"},
	{43, "John", "Juan", "John", "JHN"},
	{44, "Acts", "Hechos", "Acts", "ACT"},
	{45, "Romans", "Romanos", "Rom", "ROM"},
	{46, "1 Corinthians", "1 Corintios", "1Cor", "1CO"},
	{47, "2 Corinthians", "2 Corintios", "2Cor", "2CO"},
	{48, "Galatians", "Gálatas", "Gal", "GAL"},
	{49, "Ephesians", "Efesios", "Eph", "EPH"},
	{50, "Philippians", "Filipenses", "Phil", "PHP"},
	{51, "Colossians", "Colosenses", "Col", "COL"},
	{52, "1 Thessalonians", "1 Tesalonicenses", "1Thess", "1TH"},
	{53, "2 Thessalonians", "2 Tesalonicenses", "2Thess", "2TH"},
	{54, "1 Timothy", "1 Timoteo", "1Tim", "1TI"},
	{55, "2 Timothy", "2 Timoteo", "2Tim", "2TI"},
	{56, "Titus", "Tito", "Titus", "TIT"},
	{57, "Philemon", "Filemón", "Phlm", "PHM"},
	{58, "Hebrews", "Hebreos", "Heb", "HEB"},
	{59, "James", "Santiago", "Jas", "JAS"},
	{60, "1 Peter", "1 Pedro", "1Pet", "1PE"},
	{61, "2 Peter", "2 Pedro", "2Pet", "2PE"},
	{62, "1 John", "1 Juan", "1John", "1JN"},
	{63, "2 John", "2 Juan", "2John", "2JN"},
	{64, "3 John", "3 Juan", "3John", "3JN"},
	{65, "Jude", "Judas", "Jude", "JUD"},
	{66, "Revelation", "Apocalipsis", "Rev", "REV"},
}

// Valid reports whether id names one of the 66 canonical books.
func (id BookID) Valid() bool {
	return id >= FirstBook && id <= LastBook
}

// Data returns the table entry for id. ok is false for ids outside 1..66.
func (id BookID) Data() (BookData, bool) {
	if !id.Valid() {
		return BookData{}, false
	}
	return books[id-1], true
}

// Name returns the English display name, or "" for an invalid id.
func (id BookID) Name() string {
	d, _ := id.Data()
	return d.Name
}

// LocalName returns the display name for the given language. Languages other
// than Spanish fall back to English.
func (id BookID) LocalName(tag language.Tag) string {
	d, ok := id.Data()
	if !ok {
		return ""
	}
	if base, _ := tag.Base(); base == spanishBase {
		return d.Spanish
	}
	return d.Name
}

// OSIS returns the OSIS book identifier, or "" for an invalid id.
func (id BookID) OSIS() string {
	d, _ := id.Data()
	return d.OSIS
}

// USFM returns the USFM book code, or "" for an invalid id.
func (id BookID) USFM() string {
	d, _ := id.Data()
	return d.USFM
}

// String implements fmt.Stringer.
func (id BookID) String() string {
	return id.Name()
}

// Books returns the canonical table in order.
func Books() []BookData {
	out := make([]BookData, len(books))
	copy(out, books[:])
	return out
}

// ByOSIS finds a book by OSIS identifier, case-insensitively.
func ByOSIS(osis string) (BookID, bool) {
	key := Normalize(osis)
	for _, b := range books {
		if Normalize(b.OSIS) == key {
			return b.ID, true
		}
	}
	return 0, false
}

var spanishBase, _ = language.Spanish.Base()
