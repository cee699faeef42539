package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/FocuswithJustin/bibleref/core/bible"
	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/ref"
	"github.com/FocuswithJustin/bibleref/core/scan"
	"github.com/FocuswithJustin/bibleref/internal/linkify"
	"github.com/FocuswithJustin/bibleref/internal/logging"
	"github.com/FocuswithJustin/bibleref/internal/xmltext"
)

// ExtractCmd prints the citations found in a text.
type ExtractCmd struct {
	ScanFlags
	Strict bool   `help:"Fail unless the input is only citations and whitespace"`
	JSON   bool   `name:"json" help:"Print JSON"`
	All    bool   `help:"Print every match with its offset instead of the merged reference"`
	HTML   bool   `name:"html" help:"Scan only the text between tags"`
	Path   string `arg:"" optional:"" default:"-" help:"Input file, or - for stdin"`
}

type extractOutput struct {
	Reference *ref.Reference `json:"reference"`
	Canonical string         `json:"canonical"`
	OSIS      string         `json:"osis"`
	Valid     bool           `json:"valid"`
}

func (c *ExtractCmd) Run(rc *runContext) error {
	s, err := c.scanner()
	if err != nil {
		return err
	}
	text, err := rc.readInput(c.Path)
	if err != nil {
		return err
	}
	start := time.Now()

	if c.Strict {
		var (
			r  *ref.Reference
			ok bool
		)
		if c.HTML {
			r, ok = s.ExtractStrictHTML(text)
		} else {
			r, ok = s.ExtractStrict(text)
		}
		if !ok {
			return errors.NewParse("citation", c.Path,
				"input is not only citations: "+strings.TrimSpace(s.Leftovers(text)), nil)
		}
		if c.JSON {
			return writeJSON(rc.out, extractOutput{Reference: r, Canonical: r.String(), OSIS: r.OSIS(), Valid: true})
		}
		_, err = fmt.Fprintln(rc.out, r.String())
		return err
	}

	var matches []scan.Match
	if c.HTML {
		matches = s.ExtractAllHTML(text)
	} else {
		matches = s.ExtractAll(text)
	}

	if c.All {
		logging.ScanCompleted(rc.ctx, "extract_all", len(text), len(matches), time.Since(start))
		if c.JSON {
			if matches == nil {
				matches = []scan.Match{}
			}
			return writeJSON(rc.out, matches)
		}
		tw := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "OFFSET\tTEXT\tREFERENCE")
		for _, m := range matches {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Offset, m.Text, m.Ref)
		}
		return tw.Flush()
	}

	r := ref.New()
	for _, m := range matches {
		r.Merge(m.Ref)
	}
	logging.ScanCompleted(rc.ctx, "extract", len(text), r.Len(), time.Since(start))
	if c.JSON {
		return writeJSON(rc.out, extractOutput{Reference: r, Canonical: r.String(), OSIS: r.OSIS(), Valid: r.IsValid()})
	}
	if !r.IsValid() {
		return nil
	}
	_, err = fmt.Fprintln(rc.out, r.String())
	return err
}

// RewriteCmd wraps citations in HTML in links.
type RewriteCmd struct {
	URLTemplate string `name:"url-template" short:"u" help:"Link URL template; placeholders: {ref} {osis} {book} {usfm} {chapter} {verse} {lang}" env:"REFSCAN_URL_TEMPLATE"`
	Lang        string `help:"Language of the link text and tooltip class" default:"en" enum:"en,es"`
	NoTooltip   bool   `help:"Omit the tooltip classes"`
	Level       int    `short:"l" help:"Abbreviation level" default:"1" env:"REFSCAN_LEVEL"`
	Forward     bool   `help:"Bind numbers to the book before them" env:"REFSCAN_FORWARD"`
	Path        string `arg:"" optional:"" default:"-" help:"Input file, or - for stdin"`
}

func (c *RewriteCmd) Run(rc *runContext) error {
	tag, err := parseLang(c.Lang)
	if err != nil {
		return err
	}
	opts := []linkify.Option{linkify.WithLanguage(tag)}
	if c.NoTooltip {
		opts = append(opts, linkify.WithoutTooltip())
	}
	linker, err := linkify.New(c.URLTemplate, opts...)
	if err != nil {
		return err
	}

	cfg := scan.HTMLConfig()
	cfg.MaxLevel = bible.Level(c.Level)
	cfg.Forward = c.Forward
	s, err := scan.New(cfg)
	if err != nil {
		return err
	}

	html, err := rc.readInput(c.Path)
	if err != nil {
		return err
	}
	_, err = io.WriteString(rc.out, s.RewriteHTML(html, linker.Link))
	return err
}

// XMLCmd scans the text nodes of an XML document.
type XMLCmd struct {
	ScanFlags
	XPath   string `name:"xpath" short:"x" help:"XPath selecting the elements to scan" default:"/*"`
	Mark    bool   `help:"Wrap citations in elements and print the document"`
	Element string `help:"Element name used by --mark" default:"reference"`
	Attr    string `help:"Attribute holding the OSIS reference" default:"osisRef"`
	JSON    bool   `name:"json" help:"Print JSON"`
	Path    string `arg:"" help:"XML file" type:"existingfile"`
}

func (c *XMLCmd) Run(rc *runContext) error {
	s, err := c.scanner()
	if err != nil {
		return err
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return errors.NewIO("open", c.Path, err)
	}
	defer f.Close()

	doc, err := xmltext.Parse(f)
	if err != nil {
		return err
	}

	if c.Mark {
		n, err := doc.Mark(s, c.XPath, xmltext.MarkOptions{Element: c.Element, Attr: c.Attr})
		if err != nil {
			return err
		}
		logging.Info("xml_marked", "path", c.Path, "citations", n)
		_, err = doc.WriteTo(rc.out)
		return err
	}

	start := time.Now()
	hits, err := doc.Extract(s, c.XPath)
	if err != nil {
		return err
	}
	logging.ScanCompleted(rc.ctx, "xml_extract", 0, len(hits), time.Since(start), "path", c.Path)
	if c.JSON {
		if hits == nil {
			hits = []xmltext.Hit{}
		}
		return writeJSON(rc.out, hits)
	}
	tw := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tTEXT\tOSIS")
	for _, h := range hits {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Path, h.Text, h.Ref.OSIS())
	}
	return tw.Flush()
}

// BooksCmd lists the canonical books and their spellings.
type BooksCmd struct {
	Level int    `short:"l" help:"Deepest abbreviation level to list" default:"0"`
	Lang  string `help:"Only list spellings in this language (en or es)"`
}

func (c *BooksCmd) Run(rc *runContext) error {
	level := bible.Level(c.Level)
	if level < bible.LevelFull || level > bible.MaxLevel {
		return errors.NewValidation("level", fmt.Sprint(c.Level), "must be 0, 1 or 2")
	}

	lang := ""
	if c.Lang != "" {
		tag, err := parseLang(c.Lang)
		if err != nil {
			return err
		}
		base, _ := tag.Base()
		lang = base.String()
	}

	spellings := make(map[bible.BookID][]string)
	for _, sp := range bible.DefaultRegistry().Spellings(level) {
		if sp.Book == 0 {
			continue
		}
		if lang != "" {
			if base, _ := sp.Language.Base(); base.String() != lang {
				continue
			}
		}
		spellings[sp.Book] = append(spellings[sp.Book], sp.Text)
	}

	tw := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOSIS\tNAME\tSPELLINGS")
	for _, b := range bible.Books() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", b.ID, b.OSIS, b.Name, strings.Join(spellings[b.ID], ", "))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
