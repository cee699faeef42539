package bible

import (
	"strings"

	"golang.org/x/text/language"
)

// Level is an abbreviation depth. Lower levels are safer to match in prose.
type Level int

const (
	// LevelFull covers full names and common abbreviations.
	LevelFull Level = 0
	// LevelShort covers two and three letter abbreviations that rarely collide
	// with ordinary words.
	LevelShort Level = 1
	// LevelRisky covers abbreviations that are also common words ("is", "so").
	LevelRisky Level = 2

	// MaxLevel is the deepest level a scanner may be configured with.
	MaxLevel = LevelRisky
)

// Spelling is one recognized way of writing a book name.
// Book is zero for spellings that are recognized but do not resolve to one of
// the 66 canonical books (the apocrypha).
type Spelling struct {
	Text     string
	Book     BookID
	Level    Level
	Language language.Tag
}

// OrdinalBase is a book name that only identifies a book together with an
// ordinal prefix ("1 Samuel", "Second Kings", "III John"). Books holds the
// book for ordinals 1, 2 and 3; Max is the highest ordinal the base accepts.
type OrdinalBase struct {
	Text     string
	Level    Level
	Language language.Tag
	Max      int
	Books    [3]BookID
}

// OrdinalToken is a word or numeral that introduces an ordinal book name.
// Numerals carry language.Und and belong to every language.
type OrdinalToken struct {
	Text     string
	Ordinal  int
	Language language.Tag
}

type nameGroup struct {
	book  BookID
	level Level
	names string // '|' separated
}

type ordinalGroup struct {
	level Level
	max   int
	books [3]BookID
	names string
}

var englishNames = []nameGroup{
	{1, LevelFull, "genesis|gen"},
	{1, LevelShort, "ge|gn"},
	{2, LevelFull, "exodus|exod|exo"},
	{2, LevelRisky, "ex"},
	{3, LevelFull, "leviticus|lev"},
	{3, LevelShort, "le|lv"},
	{4, LevelFull, "numbers|num"},
	{4, LevelShort, "nb|nm|nu"},
	{5, LevelFull, "deuteronomy|deut|deu"},
	{5, LevelShort, "dt"},
	{6, LevelFull, "joshua|josh|jos|jsh"},
	{7, LevelFull, "judges|judg|jdgs|jdg"},
	{7, LevelShort, "jg"},
	{8, LevelFull, "ruth|rth"},
	{8, LevelShort, "ru"},
	{9, LevelFull, "1samuel|1sam|1sm|1sa"},
	{9, LevelShort, "1s"},
	{10, LevelFull, "2samuel|2sam|2sm|2sa"},
	{10, LevelShort, "2s"},
	{11, LevelFull, "1kings|1king|1kgs|1kin|1ki"},
	{11, LevelShort, "1k"},
	{12, LevelFull, "2kings|2king|2kgs|2kin|2ki"},
	{12, LevelShort, "2k"},
	{13, LevelFull, "1chronicles|1chron|1chr|1ch"},
	{14, LevelFull, "2chronicles|2chron|2chr|2ch"},
	{15, LevelFull, "ezra|ezr"},
	{16, LevelFull, "nehemiah|neh"},
	{16, LevelShort, "ne"},
	{17, LevelFull, "esther|esth|est"},
	{17, LevelRisky, "es"},
	{18, LevelFull, "job"},
	{18, LevelShort, "jb"},
	{19, LevelFull, "psalms|psalm|pslm|psa|psm|pss"},
	{19, LevelShort, "ps"},
	{20, LevelFull, "proverbs|prov|prv|pro"},
	{20, LevelShort, "pr"},
	{21, LevelFull, "ecclesiastes|eccles|eccl|ecc|qoheleth|qoh"},
	{21, LevelShort, "ec"},
	{22, LevelFull, "song of solomon|song of songs|canticle of canticles|canticles|song|sos|sng"},
	{22, LevelRisky, "so"},
	{23, LevelFull, "isaiah|isa"},
	{23, LevelRisky, "is"},
	{24, LevelFull, "jeremiah|jer"},
	{24, LevelShort, "je|jr"},
	{25, LevelFull, "lamentations|lam"},
	{25, LevelShort, "lm"},
	{25, LevelRisky, "la"},
	{26, LevelFull, "ezekiel|ezek|eze|ezk"},
	{27, LevelFull, "daniel|dan"},
	{27, LevelShort, "da|dn"},
	{28, LevelFull, "hosea|hos"},
	{28, LevelShort, "ho"},
	{29, LevelFull, "joel|joe|jol"},
	{29, LevelShort, "jl"},
	{30, LevelFull, "amos|amo"},
	{30, LevelRisky, "am"},
	{31, LevelFull, "obadiah|obad|oba"},
	{31, LevelShort, "ob"},
	{32, LevelFull, "jonah|jon|jnh"},
	{33, LevelFull, "micah|mic"},
	{34, LevelFull, "nahum|nah|nam"},
	{34, LevelShort, "na"},
	{35, LevelFull, "habakkuk|hab"},
	{36, LevelFull, "zephaniah|zeph|zep"},
	{36, LevelShort, "zp"},
	{37, LevelFull, "haggai|hag"},
	{37, LevelShort, "hg"},
	{38, LevelFull, "zechariah|zech|zec"},
	{38, LevelShort, "zc"},
	{39, LevelFull, "malachi|mal"},
	{39, LevelShort, "ml"},
	{40, LevelFull, "matthew|matt|mat"},
	{40, LevelShort, "mt"},
	{41, LevelFull, "mark|mrk"},
	{41, LevelShort, "mk|mr"},
	{42, LevelFull, "luke|luk"},
	{42, LevelShort, "lk"},
	{43, LevelFull, "john|jhn"},
	{43, LevelShort, "jn"},
	{44, LevelFull, "acts|act"},
	{44, LevelShort, "ac"},
	{45, LevelFull, "romans|rom"},
	{45, LevelShort, "ro|rm"},
	{46, LevelFull, "1corinthians|1cor|1co"},
	{47, LevelFull, "2corinthians|2cor|2co"},
	{48, LevelFull, "galatians|gal"},
	{48, LevelShort, "ga"},
	{49, LevelFull, "ephesians|ephes|eph"},
	{50, LevelFull, "philippians|phil|php"},
	{51, LevelFull, "colossians|col"},
	{52, LevelFull, "1thessalonians|1thess|1thes|1th"},
	{53, LevelFull, "2thessalonians|2thess|2thes|2th"},
	{54, LevelFull, "1timothy|1tim|1ti"},
	{55, LevelFull, "2timothy|2tim|2ti"},
	{56, LevelFull, "titus|tit"},
	{57, LevelFull, "philemon|philem|phm"},
	{58, LevelFull, "hebrews|heb"},
	{59, LevelFull, "james|jas"},
	{59, LevelShort, "jm"},
	{60, LevelFull, "1peter|1pet|1pt|1pe"},
	{61, LevelFull, "2peter|2pet|2pt|2pe"},
	{62, LevelFull, "1john|1jhn|1joh|1jn|1jo"},
	{63, LevelFull, "2john|2jhn|2joh|2jn|2jo"},
	{64, LevelFull, "3john|3jhn|3joh|3jn|3jo"},
	{65, LevelFull, "jude|jud"},
	{66, LevelFull, "revelation|revelations|rev"},
	{66, LevelShort, "re"},

	// Recognized so they bind their own numbers, but not part of the canon.
	{0, LevelFull, "tobit|tob|judith|jdth|jdt|jth|wisdom of solomon|wisdom|wisd of sol|wis|" +
		"ecclesiasticus|ecclus|sirach|sir|baruch|bar|letter of jeremiah|let of jer|ltr jer|lje|" +
		"prayer of azariah|pr az|azariah|susanna|sus|bel and the dragon|bel dragon|bel|" +
		"song of the three children|song thr|prayer of manasseh|prayer of manasses|pr man|pma|" +
		"additions to esther|add to esth|add to es|rest of esther|rest esther|addesth|aes|esg|" +
		"1esdras|1esdr|1esd|2esdras|2esdr|2esd|" +
		"1maccabees|1macc|1mac|1ma|2maccabees|2macc|2mac|2ma"},
	{0, LevelShort, "tb|ws|1m|2m"},
}

var spanishNames = []nameGroup{
	{1, LevelFull, "génesis"},
	{2, LevelFull, "éxodo"},
	{3, LevelFull, "levítico"},
	{4, LevelFull, "números"},
	{5, LevelFull, "deuteronomio"},
	{6, LevelFull, "josué"},
	{7, LevelFull, "jueces|juez"},
	{8, LevelFull, "rut"},
	{9, LevelFull, "1samuel|1sam"},
	{10, LevelFull, "2samuel|2sam"},
	{11, LevelFull, "1reyes"},
	{12, LevelFull, "2reyes"},
	{13, LevelFull, "1crónicas|1cron"},
	{14, LevelFull, "2crónicas|2cron"},
	{15, LevelFull, "esdras|esd"},
	{16, LevelFull, "nehemías"},
	{17, LevelFull, "ester"},
	{18, LevelFull, "job"},
	{19, LevelFull, "salmos|salm|slm"},
	{20, LevelFull, "proverbios"},
	{21, LevelFull, "eclesiastés|ecles|ecl"},
	{22, LevelFull, "cantar de los cantares|cantares|cantar"},
	{23, LevelFull, "isaías"},
	{24, LevelFull, "jeremías"},
	{25, LevelFull, "lamentaciones|lament"},
	{26, LevelFull, "ezequiel|ezeq|ezq"},
	{27, LevelFull, "daniel|dan"},
	{28, LevelFull, "oseas"},
	{28, LevelRisky, "os"},
	{29, LevelFull, "joel"},
	{30, LevelFull, "amós"},
	{31, LevelFull, "abdías|abd"},
	{32, LevelFull, "jonás"},
	{33, LevelFull, "miqueas|miq"},
	{34, LevelFull, "nahúm"},
	{35, LevelFull, "habacuc"},
	{36, LevelFull, "sofonías|sof"},
	{37, LevelFull, "hageo"},
	{38, LevelFull, "zacarías|zac"},
	{39, LevelFull, "malaquías|malaq"},
	{40, LevelFull, "mateo"},
	{41, LevelFull, "marcos|mrc"},
	{42, LevelFull, "lucas|luc"},
	{43, LevelFull, "juan"},
	{43, LevelRisky, "ju"},
	{44, LevelFull, "hechos|hech"},
	{45, LevelFull, "romanos"},
	{46, LevelFull, "1corintios"},
	{47, LevelFull, "2corintios"},
	{48, LevelFull, "gálatas"},
	{49, LevelFull, "efesios|efes"},
	{50, LevelFull, "filipenses"},
	{51, LevelFull, "colosenses|colos"},
	{52, LevelFull, "1tesalonicenses|1tes"},
	{53, LevelFull, "2tesalonicenses|2tes"},
	{54, LevelFull, "1timoteo"},
	{55, LevelFull, "2timoteo"},
	{56, LevelFull, "tito"},
	{57, LevelFull, "filemón"},
	{58, LevelFull, "hebreos"},
	{59, LevelFull, "santiago"},
	{60, LevelFull, "1pedro"},
	{61, LevelFull, "2pedro"},
	{62, LevelFull, "1juan"},
	{63, LevelFull, "2juan"},
	{64, LevelFull, "3juan"},
	{65, LevelFull, "judas"},
	{66, LevelFull, "apocalipsis|apoc|revelaciones"},
}

var englishOrdinals = []ordinalGroup{
	{LevelFull, 2, [3]BookID{9, 10}, "samuel|sam|sa|sm"},
	{LevelFull, 2, [3]BookID{11, 12}, "kings|king|kin|kgs|ki"},
	{LevelFull, 2, [3]BookID{13, 14}, "chronicles|chron|chr|ch"},
	{LevelFull, 2, [3]BookID{46, 47}, "corinthians|cor|co"},
	{LevelFull, 2, [3]BookID{52, 53}, "thessalonians|thess|thes|th"},
	{LevelFull, 2, [3]BookID{54, 55}, "timothy|tim|ti"},
	{LevelFull, 2, [3]BookID{60, 61}, "peter|pet|pe|pt"},
	{LevelFull, 3, [3]BookID{62, 63, 64}, "john|joh|jhn|jn|jo"},
	{LevelFull, 2, [3]BookID{}, "maccabees|macc|mac|ma|esdras|esdr|esd|es"},
	{LevelShort, 2, [3]BookID{9, 10}, "s"},
	{LevelShort, 2, [3]BookID{11, 12}, "k"},
	{LevelShort, 2, [3]BookID{}, "m"},
}

var spanishOrdinals = []ordinalGroup{
	{LevelFull, 2, [3]BookID{9, 10}, "samuel|sam"},
	{LevelFull, 2, [3]BookID{11, 12}, "reyes"},
	{LevelFull, 2, [3]BookID{13, 14}, "crónicas|cron"},
	{LevelFull, 2, [3]BookID{46, 47}, "corintios"},
	{LevelFull, 2, [3]BookID{52, 53}, "tesalonicenses|tes"},
	{LevelFull, 2, [3]BookID{54, 55}, "timoteo"},
	{LevelFull, 2, [3]BookID{60, 61}, "pedro"},
	{LevelFull, 3, [3]BookID{62, 63, 64}, "juan"},
}

var ordinalWords = []OrdinalToken{
	{"1", 1, language.Und}, {"one", 1, language.English}, {"i", 1, language.Und},
	{"1st", 1, language.English}, {"first", 1, language.English},
	{"2", 2, language.Und}, {"two", 2, language.English}, {"ii", 2, language.Und},
	{"2nd", 2, language.English}, {"second", 2, language.English},
	{"3", 3, language.Und}, {"three", 3, language.English}, {"iii", 3, language.Und},
	{"3rd", 3, language.English}, {"third", 3, language.English},
	{"primera", 1, language.Spanish}, {"primero", 1, language.Spanish},
	{"1ra", 1, language.Spanish}, {"1ro", 1, language.Spanish},
	{"segunda", 2, language.Spanish}, {"segundo", 2, language.Spanish},
	{"2da", 2, language.Spanish}, {"2do", 2, language.Spanish},
	{"tercera", 3, language.Spanish}, {"tercero", 3, language.Spanish},
	{"3ra", 3, language.Spanish}, {"3ro", 3, language.Spanish},
}

// BuiltinSpellings returns the English and Spanish spelling tables.
func BuiltinSpellings() []Spelling {
	var out []Spelling
	out = appendNames(out, englishNames, language.English)
	out = appendNames(out, spanishNames, language.Spanish)
	return out
}

// BuiltinOrdinals returns the ordinal base names for both languages.
func BuiltinOrdinals() []OrdinalBase {
	var out []OrdinalBase
	out = appendOrdinals(out, englishOrdinals, language.English)
	out = appendOrdinals(out, spanishOrdinals, language.Spanish)
	return out
}

// BuiltinOrdinalTokens returns the ordinal prefix words for both languages.
func BuiltinOrdinalTokens() []OrdinalToken {
	out := make([]OrdinalToken, len(ordinalWords))
	copy(out, ordinalWords)
	return out
}

func appendNames(out []Spelling, groups []nameGroup, tag language.Tag) []Spelling {
	for _, g := range groups {
		for _, name := range strings.Split(g.names, "|") {
			out = append(out, Spelling{Text: name, Book: g.book, Level: g.level, Language: tag})
		}
	}
	return out
}

func appendOrdinals(out []OrdinalBase, groups []ordinalGroup, tag language.Tag) []OrdinalBase {
	for _, g := range groups {
		for _, name := range strings.Split(g.names, "|") {
			out = append(out, OrdinalBase{Text: name, Level: g.level, Language: tag, Max: g.max, Books: g.books})
		}
	}
	return out
}
