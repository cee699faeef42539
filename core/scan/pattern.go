package scan

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/bibleref/core/bible"
	"github.com/FocuswithJustin/bibleref/core/cache"
	"github.com/FocuswithJustin/bibleref/core/errors"
)

// pattern is a compiled book/tail regex with the indexes of its groups.
type pattern struct {
	re      *regexp.Regexp
	forward bool
	book    int    // whole book alternation
	plain   int    // plain spelling
	bases   [3]int // ordinal base per ordinal, -1 when absent
	cv      int    // chapter/verse tail
}

type patternKey struct {
	registry *bible.Registry
	config   Config
}

// patterns is shared by every Scanner. A pattern is pure data derived from
// its key, so sharing is safe.
var patterns = cache.NewLRUCache[patternKey, *pattern](cache.DefaultConfig())

// wordEnd matches the end of input or one rune that cannot continue a word.
const wordEnd = `(?P<end>$|[^\p{L}\p{N}_])`

func loadPattern(reg *bible.Registry, cfg Config) (*pattern, error) {
	return patterns.GetOrLoad(patternKey{registry: reg, config: cfg}, func() (*pattern, error) {
		return compilePattern(reg, cfg)
	})
}

// compilePattern assembles the scanner regex. Forward:
//
//	BOOK ( \.? \s* DIGITS | END )
//
// and, mirrored for reversed input:
//
//	( DIGITS \s* \.? )? BOOK END
//
// where BOOK is the plain alternation or an ordinal prefix joined to an
// ordinal base, and DIGITS is digits separated by whitespace and ":-,;".
// The tail is mandatory unless whole books are enabled.
func compilePattern(reg *bible.Registry, cfg Config) (*pattern, error) {
	f := reg.Fragments(cfg.MaxLevel, cfg.direction())

	var alts []string
	ordinal := func(n int) {
		if f.Bases[n-1] == "" || f.Prefixes[n-1] == "" {
			return
		}
		num := strconv.Itoa(n)
		if cfg.Forward {
			alts = append(alts, f.Prefixes[n-1]+`(?P<b`+num+`>`+f.Bases[n-1]+`)`)
		} else {
			alts = append(alts, `(?P<b`+num+`>`+f.Bases[n-1]+`)`+f.Prefixes[n-1])
		}
	}

	// The order of alternatives decides ties at one position, so ordinal
	// names come last when reading forward and first when reading mirrored.
	if cfg.Forward {
		if f.Plain != "" {
			alts = append(alts, `(?P<plain>`+f.Plain+`)`)
		}
		for n := 1; n <= 3; n++ {
			ordinal(n)
		}
	} else {
		for n := 3; n >= 1; n-- {
			ordinal(n)
		}
		if f.Plain != "" {
			alts = append(alts, `(?P<plain>`+f.Plain+`)`)
		}
	}
	if len(alts) == 0 {
		return &pattern{}, nil
	}

	book := `(?P<book>` + strings.Join(alts, "|") + `)`
	gap := `\s*`
	if cfg.RequireSpaceBeforeCV {
		gap = `\s+`
	}

	var expr string
	if cfg.Forward {
		cv := `(?P<cv>\.?` + gap + `\d(?:[\s\-:,;]*\d)*)`
		if cfg.AddWholeBooks {
			expr = book + `(?:` + cv + `|` + wordEnd + `)`
		} else {
			expr = book + cv
		}
	} else {
		cv := `(?P<cv>(?:\d[\s\-:,;]*)*\d` + gap + `\.?)`
		if cfg.AddWholeBooks {
			cv += `?`
		}
		expr = cv + book + wordEnd
	}

	re, err := regexp.Compile(`(?i)` + expr)
	if err != nil {
		return nil, errors.Wrap(err, "compile book pattern")
	}

	p := &pattern{
		re:      re,
		forward: cfg.Forward,
		book:    re.SubexpIndex("book"),
		plain:   re.SubexpIndex("plain"),
		cv:      re.SubexpIndex("cv"),
	}
	for n := 1; n <= 3; n++ {
		p.bases[n-1] = re.SubexpIndex("b" + strconv.Itoa(n))
	}
	return p, nil
}

// group returns the text of group i of a match of p against s, or "" when
// the group did not take part.
func (p *pattern) group(s string, loc []int, i int) string {
	if i < 0 || loc[2*i] < 0 {
		return ""
	}
	return s[loc[2*i]:loc[2*i+1]]
}
