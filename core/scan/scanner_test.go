package scan

import (
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/FocuswithJustin/bibleref/core/bible"
	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/ref"
)

func forward(cfg Config) Config {
	cfg.Forward = true
	return cfg
}

func TestEverySpellingResolvesAlone(t *testing.T) {
	reg := bible.DefaultRegistry()
	for level := bible.LevelFull; level <= bible.MaxLevel; level++ {
		for _, fwd := range []bool{false, true} {
			cfg := Config{MaxLevel: level, AddWholeBooks: true, Forward: fwd}
			s := Must(cfg)
			for _, sp := range reg.Spellings(level) {
				want, ok := reg.Lookup(sp.Text)
				if !ok {
					continue
				}
				got := s.Extract(sp.Text)
				entries := got.Entries()
				if len(entries) != 1 || entries[0].Book != want || entries[0].Range != ref.Book() {
					t.Errorf("level %d forward=%v: Extract(%q) = %v, want whole %s",
						level, fwd, sp.Text, entries, want.OSIS())
				}
			}
		}
	}
}

func TestOrdinalForms(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1 Samuel 5", "1Sam.5"},
		{"First Samuel 5", "1Sam.5"},
		{"I Samuel 5", "1Sam.5"},
		{"1st Samuel 5", "1Sam.5"},
		{"ii kings 3", "2Kgs.3"},
		{"Second Kings 3", "2Kgs.3"},
		{"2nd Book of Kings 3", "2Kgs.3"},
		{"iii John 1:4", "3John.1.4"},
		{"3 John", "3John"},
		{"1 John 4:8", "1John.4.8"},
		{"1Cor 13", "1Cor.13"},
		{"Primera Corintios 13", "1Cor.13"},
		{"2 Crónicas 7:14", "2Chr.7.14"},
		{"segundo reyes 2", "2Kgs.2"},
	}
	for _, cfg := range []Config{DefaultConfig(), forward(DefaultConfig())} {
		s := Must(cfg)
		for _, tt := range tests {
			if got := s.Extract(tt.in).OSIS(); got != tt.want {
				t.Errorf("forward=%v: Extract(%q) = %q, want %q", cfg.Forward, tt.in, got, tt.want)
			}
		}
	}
}

func TestReverseBindsNumbersToFollowingBook(t *testing.T) {
	in := "Genesis 3; 1 Samuel 5"

	rev := Must(DefaultConfig()).Extract(in)
	if got, want := rev.OSIS(), "Gen.3 1Sam.5"; got != want {
		t.Errorf("reverse Extract(%q) = %q, want %q", in, got, want)
	}

	fwd := Must(forward(DefaultConfig())).Extract(in)
	if got, want := fwd.OSIS(), "Gen.3 Gen.1"; got != want {
		t.Errorf("forward Extract(%q) = %q, want %q", in, got, want)
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		in   string
		want string
	}{
		{"single verse", DefaultConfig(), "For God so loved, John 3:16.", "John.3.16"},
		{"verse range", DefaultConfig(), "Read Romans 8:28-39 today", "Rom.8.28-Rom.8.39"},
		{"chapter list", DefaultConfig(), "Psalms 23, 91", "Ps.23 Ps.91"},
		{"whole book", DefaultConfig(), "Ruth is short", "Ruth"},
		{"whole books off", HTMLConfig(), "Ruth is short", ""},
		{"abbreviation needs level", DefaultConfig(), "Gn 1:1", ""},
		{"abbreviation at level", SimpleConfig(), "Gn 1:1", "Gen.1.1"},
		{"spanish", DefaultConfig(), "Juan 3:16", "John.3.16"},
		{"spanish accent", DefaultConfig(), "Isaías 53", "Isa.53"},
		{"accent dropped", DefaultConfig(), "Isaias 53", "Isa.53"},
		{"upper case", DefaultConfig(), "GÉNESIS 1:1", "Gen.1.1"},
		{"no space", DefaultConfig(), "John3:16", "John.3.16"},
		{"period before tail", DefaultConfig(), "John.3:16", "John.3.16"},
		{"word boundary after", DefaultConfig(), "Johnny 3", ""},
		{"word boundary before", DefaultConfig(), "StJohn 3", ""},
		{"chapter zero", DefaultConfig(), "John 0", ""},
		{"unresolved book", DefaultConfig(), "Tobit 3", ""},
		{"empty", DefaultConfig(), "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, cfg := range []Config{tt.cfg, forward(tt.cfg)} {
				if got := Must(cfg).Extract(tt.in).OSIS(); got != tt.want {
					t.Errorf("forward=%v: Extract(%q) = %q, want %q", cfg.Forward, tt.in, got, tt.want)
				}
			}
		})
	}
}

func TestRequireSpaceBeforeCV(t *testing.T) {
	cfg := Config{MaxLevel: bible.LevelFull, RequireSpaceBeforeCV: true}
	for _, c := range []Config{cfg, forward(cfg)} {
		s := Must(c)
		if got := s.Extract("John3:16").OSIS(); got != "" {
			t.Errorf("forward=%v: Extract(John3:16) = %q, want none", c.Forward, got)
		}
		if got := s.Extract("John 3:16").OSIS(); got != "John.3.16" {
			t.Errorf("forward=%v: Extract(John 3:16) = %q, want John.3.16", c.Forward, got)
		}
	}
}

func TestExtractAllOffsets(t *testing.T) {
	in := "See John 3:16 and Rom 8."
	for _, cfg := range []Config{SimpleConfig(), forward(SimpleConfig())} {
		ms := Must(cfg).ExtractAll(in)
		if len(ms) != 2 {
			t.Fatalf("forward=%v: ExtractAll() = %+v, want 2 matches", cfg.Forward, ms)
		}
		want := []struct {
			text   string
			offset int
			book   bible.BookID
		}{
			{"John 3:16", 4, 43},
			{"Rom 8", 18, 45},
		}
		for i, w := range want {
			m := ms[i]
			if m.Text != w.text || m.Offset != w.offset || m.Book != w.book {
				t.Errorf("forward=%v: match %d = {%q %d %d}, want {%q %d %d}",
					cfg.Forward, i, m.Text, m.Offset, m.Book, w.text, w.offset, w.book)
			}
			if in[m.Offset:m.Offset+len(m.Text)] != m.Text {
				t.Errorf("forward=%v: offset %d does not point at %q", cfg.Forward, m.Offset, m.Text)
			}
		}
	}
}

func TestExtractStrict(t *testing.T) {
	s := Must(DefaultConfig())
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"John 3:16", "John.3.16", true},
		{"John 3:16\nRomans 8", "John.3.16 Rom.8", true},
		{"  John 3:16 \t ", "John.3.16", true},
		{"John 3:16; Romans 8", "", false},
		{"  John 3:16 ,  ", "", false},
		{";;; John 3:16 ,,,", "", false},
		{"John 3:16 and stuff", "", false},
		{"stuff", "", false},
		{"", "", false},
		{" \n ", "", false},
		{"John 0", "", false},
	}
	for _, tt := range tests {
		got, ok := s.ExtractStrict(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ExtractStrict(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if !ok {
			if got != nil {
				t.Errorf("ExtractStrict(%q) = %v, want nil", tt.in, got)
			}
			continue
		}
		if got.OSIS() != tt.want {
			t.Errorf("ExtractStrict(%q) = %q, want %q", tt.in, got.OSIS(), tt.want)
		}
	}
}

func TestLeftoversAndReplace(t *testing.T) {
	in := "See John 3:16 and Rom 8."
	for _, cfg := range []Config{SimpleConfig(), forward(SimpleConfig())} {
		s := Must(cfg)
		if got, want := s.Leftovers(in), "See  and ."; got != want {
			t.Errorf("forward=%v: Leftovers() = %q, want %q", cfg.Forward, got, want)
		}

		var order []string
		got := s.Replace(in, func(text string, r *ref.Reference) string {
			order = append(order, text)
			return "[" + r.OSIS() + "]"
		})
		if want := "See [John.3.16] and [Rom.8]."; got != want {
			t.Errorf("forward=%v: Replace() = %q, want %q", cfg.Forward, got, want)
		}
		first := "John 3:16"
		if !cfg.Forward {
			first = "Rom 8"
		}
		if len(order) != 2 || order[0] != first {
			t.Errorf("forward=%v: callback order = %q, want %q first", cfg.Forward, order, first)
		}
	}
}

func TestReplaceLeavesUnmatchedTextAlone(t *testing.T) {
	s := Simple()
	for _, in := range []string{"", "nothing here", "Tobit 3", "John 0", "naïve café", "\xa9\xc2 text", "\xa9\xc2 John 3:16"} {
		called := false
		got := s.Replace(in, func(text string, _ *ref.Reference) string {
			called = true
			return text
		})
		if got != in {
			t.Errorf("Replace(%q) = %q, want the input unchanged", in, got)
		}
		if called != strings.Contains(in, "John 3:16") {
			t.Errorf("Replace(%q): called=%v", in, called)
		}
	}

	// Invalid bytes next to a citation stay where they were.
	for _, cfg := range []Config{SimpleConfig(), forward(SimpleConfig())} {
		in := "\xa9\xc2 John 3:16 \xff\xfe"
		got := Must(cfg).Replace(in, func(string, *ref.Reference) string { return "X" })
		if want := "\xa9\xc2 X \xff\xfe"; got != want {
			t.Errorf("forward=%v: Replace(%q) = %q, want %q", cfg.Forward, in, got, want)
		}
	}
}

func TestRewriteHTML(t *testing.T) {
	s := HTML()
	link := func(text string, r *ref.Reference) string {
		return `<a href="/` + r.OSIS() + `">` + text + `</a>`
	}

	in := `<p title="John 3:16">Read John 3:16 and <em>Rom 8:28</em>.</p>`
	want := `<p title="John 3:16">Read <a href="/John.3.16">John 3:16</a> and <em><a href="/Rom.8.28">Rom 8:28</a></em>.</p>`
	if got := s.RewriteHTML(in, link); got != want {
		t.Errorf("RewriteHTML() =\n%q\nwant\n%q", got, want)
	}

	identity := func(text string, _ *ref.Reference) string { return text }
	for _, in := range []string{in, "", "<br/>", "a < b > c", "plain John 3:16"} {
		once := s.RewriteHTML(in, identity)
		if once != in {
			t.Errorf("RewriteHTML(%q, identity) = %q", in, once)
		}
		if twice := s.RewriteHTML(once, identity); twice != once {
			t.Errorf("second RewriteHTML(%q, identity) = %q", once, twice)
		}
	}
}

func TestExtractHTML(t *testing.T) {
	s := HTML()
	in := `<p title="John 3:16">Read John 3:16 and <em>Rom 8:28</em>.</p>`

	matches := s.ExtractAllHTML(in)
	if len(matches) != 2 {
		t.Fatalf("ExtractAllHTML() found %d matches, want 2", len(matches))
	}
	for _, m := range matches {
		if in[m.Offset:m.Offset+len(m.Text)] != m.Text {
			t.Errorf("offset %d does not point at %q in the markup", m.Offset, m.Text)
		}
	}
	if matches[0].Text != "John 3:16" || matches[1].Text != "Rom 8:28" {
		t.Errorf("matches = %q, %q", matches[0].Text, matches[1].Text)
	}

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"<li>John 3:16</li><li>Rom 8:28</li>", "John 3:16; Romans 8:28", true},
		{"<b>John 3:16</b>, Rom 8", "", false},
		{"<b>John 3:16</b> <i>Rom 8</i>", "John 3:16; Romans 8", true},
		{"<p>Read John 3:16</p>", "", false},
	}
	for _, tt := range tests {
		r, ok := s.ExtractStrictHTML(tt.in)
		if ok != tt.ok {
			t.Errorf("ExtractStrictHTML(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && r.String() != tt.want {
			t.Errorf("ExtractStrictHTML(%q) = %q, want %q", tt.in, r.String(), tt.want)
		}
	}
}

func TestInvalidConfig(t *testing.T) {
	for _, lvl := range []bible.Level{-1, bible.MaxLevel + 1} {
		_, err := New(Config{MaxLevel: lvl})
		if err == nil {
			t.Fatalf("New(MaxLevel %d) succeeded", lvl)
		}
		if !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("New(MaxLevel %d) error = %v, want ErrInvalidInput", lvl, err)
		}
		var verr *errors.ValidationError
		if !errors.As(err, &verr) || verr.Field != "max_level" {
			t.Errorf("New(MaxLevel %d) error = %v, want max_level validation error", lvl, err)
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("Must(invalid) did not panic")
		}
	}()
	Must(Config{MaxLevel: 9})
}

func TestPatternShared(t *testing.T) {
	a, b := Must(SimpleConfig()), Simple()
	if a.pattern != b.pattern {
		t.Error("scanners with the same config compiled separate patterns")
	}
	if c := HTML(); c.pattern == a.pattern {
		t.Error("scanners with different configs share a pattern")
	}
}

func TestWithRegistry(t *testing.T) {
	es := bible.NewRegistry(bible.BuiltinSpellings(), bible.BuiltinOrdinals(), bible.BuiltinOrdinalTokens(),
		bible.WithLanguages(language.Spanish))
	s := Must(DefaultConfig(), WithRegistry(es))
	if s.Registry() != es {
		t.Fatal("WithRegistry was not applied")
	}
	if got := s.Extract("Juan 3:16").OSIS(); got != "John.3.16" {
		t.Errorf("Extract(Juan 3:16) = %q", got)
	}
	if got := s.Extract("Revelation 1").OSIS(); got != "" {
		t.Errorf("Spanish-only scanner matched English: %q", got)
	}
	if got := Must(DefaultConfig(), WithRegistry(nil)).Registry(); got != bible.DefaultRegistry() {
		t.Error("WithRegistry(nil) replaced the default registry")
	}
}

func TestConcurrentUse(t *testing.T) {
	s := Simple()
	in := strings.Repeat("Gen 1:1; Exod 20:3-17, 1 Cor 13. ", 20)
	want := s.Extract(in).OSIS()
	done := make(chan string)
	for i := 0; i < 8; i++ {
		go func() { done <- s.Extract(in).OSIS() }()
	}
	for i := 0; i < 8; i++ {
		if got := <-done; got != want {
			t.Errorf("concurrent Extract = %q, want %q", got, want)
		}
	}
}
