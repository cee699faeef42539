package xmltext

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/scan"
)

const sample = `<doc><p n="John 1:1">See John 3:16 and Rom 8.</p><note>Gen 1:1</note><p><![CDATA[Ps 23]]></p></doc>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	d, err := ParseString(s)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return d
}

func TestExtract(t *testing.T) {
	d := mustParse(t, sample)
	tests := []struct {
		xpath string
		want  []string // path|text|osis
	}{
		{"//p", []string{"/doc/p|John 3:16|John.3.16", "/doc/p|Rom 8|Rom.8", "/doc/p|Ps 23|Ps.23"}},
		{"//note", []string{"/doc/note|Gen 1:1|Gen.1.1"}},
		{"", []string{"/doc/p|John 3:16|John.3.16", "/doc/p|Rom 8|Rom.8", "/doc/note|Gen 1:1|Gen.1.1", "/doc/p|Ps 23|Ps.23"}},
		{"//p/text()", []string{"/doc/p|John 3:16|John.3.16", "/doc/p|Rom 8|Rom.8", "/doc/p|Ps 23|Ps.23"}},
		{"//missing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.xpath, func(t *testing.T) {
			hits, err := d.Extract(scan.Simple(), tt.xpath)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			var got []string
			for _, h := range hits {
				got = append(got, h.Path+"|"+h.Text+"|"+h.Ref.OSIS())
			}
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("Extract(%q) =\n%s\nwant\n%s", tt.xpath, strings.Join(got, "\n"), strings.Join(tt.want, "\n"))
			}
		})
	}
}

func TestExtractOffsets(t *testing.T) {
	d := mustParse(t, sample)
	hits, err := d.Extract(scan.Simple(), "//p")
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].Offset != 4 || hits[1].Offset != 18 {
		t.Errorf("offsets = %d, %d; want 4, 18", hits[0].Offset, hits[1].Offset)
	}
}

func TestMark(t *testing.T) {
	d := mustParse(t, sample)
	n, err := d.Mark(scan.Simple(), "//p", MarkOptions{})
	if err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Mark() = %d, want 2", n)
	}

	want := `<doc><p n="John 1:1">See <reference osisRef="John.3.16">John 3:16</reference> and <reference osisRef="Rom.8">Rom 8</reference>.</p><note>Gen 1:1</note><p><![CDATA[Ps 23]]></p></doc>`
	if got := d.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}

	again, err := d.Mark(scan.Simple(), "//p", MarkOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if again != 0 || d.String() != want {
		t.Errorf("second Mark() = %d, document changed to %s", again, d.String())
	}
}

func TestMarkCustomElement(t *testing.T) {
	d := mustParse(t, `<v>Juan 3:16</v>`)
	if _, err := d.Mark(scan.Simple(), "", MarkOptions{Element: "ref", Attr: "target"}); err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	if _, err := d.WriteTo(&b); err != nil {
		t.Fatal(err)
	}
	if want := `<v><ref target="John.3.16">Juan 3:16</ref></v>`; b.String() != want {
		t.Errorf("WriteTo() = %s, want %s", b.String(), want)
	}
}

func TestDeclarationKept(t *testing.T) {
	d := mustParse(t, `<?xml version="1.0" encoding="UTF-8"?><v>John 3:16</v>`)
	if _, err := d.Mark(scan.Simple(), "", MarkOptions{}); err != nil {
		t.Fatal(err)
	}
	got := d.String()
	if !strings.HasPrefix(got, `<?xml version="1.0" encoding="UTF-8"?>`) || strings.Count(got, "<?xml") != 1 {
		t.Errorf("String() = %s, want the one declaration from the input", got)
	}
	if !strings.HasSuffix(got, `<v><reference osisRef="John.3.16">John 3:16</reference></v>`) {
		t.Errorf("String() = %s", got)
	}

	if got := mustParse(t, "<v>Rom 8</v>").String(); got != "<v>Rom 8</v>" {
		t.Errorf("String() = %s, want no declaration", got)
	}
}

func TestErrors(t *testing.T) {
	if _, err := ParseString("<a><b></a>"); err == nil {
		t.Error("ParseString(malformed) succeeded")
	} else {
		var perr *errors.ParseError
		if !errors.As(err, &perr) || perr.Format != "XML" {
			t.Errorf("error = %v, want XML ParseError", err)
		}
	}

	d := mustParse(t, sample)
	_, err := d.Extract(scan.Simple(), "//p[")
	var perr *errors.ParseError
	if !errors.As(err, &perr) || perr.Format != "XPath" {
		t.Errorf("Extract(bad xpath) error = %v, want XPath ParseError", err)
	}
}
