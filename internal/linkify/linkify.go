// Package linkify turns scanned citations into tooltip links.
package linkify

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/ref"
)

// DefaultURLTemplate points links at a passage search.
const DefaultURLTemplate = "https://www.biblegateway.com/passage/?search={ref}"

// Placeholders lists the names a URL template may use.
var Placeholders = []string{"ref", "osis", "book", "usfm", "chapter", "verse", "lang"}

var placeholder = regexp.MustCompile(`\{([a-z]+)\}`)

// Linker renders citation links from a URL template.
type Linker struct {
	template string
	lang     language.Tag
	tooltip  bool
}

// Option configures a Linker.
type Option func(*Linker)

// WithLanguage selects the language for {ref}, {lang} and the lang class.
func WithLanguage(tag language.Tag) Option {
	return func(l *Linker) { l.lang = tag }
}

// WithoutTooltip drops the tooltip classes from generated links.
func WithoutTooltip() Option {
	return func(l *Linker) { l.tooltip = false }
}

// New validates template and returns a Linker. An empty template selects
// DefaultURLTemplate.
func New(template string, opts ...Option) (*Linker, error) {
	if template == "" {
		template = DefaultURLTemplate
	}
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if !known(m[1]) {
			return nil, errors.NewValidation("url_template", template,
				"unknown placeholder {"+m[1]+"}")
		}
	}
	l := &Linker{template: template, lang: language.English, tooltip: true}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func known(name string) bool {
	for _, p := range Placeholders {
		if p == name {
			return true
		}
	}
	return false
}

// LangCode returns the two-letter code of the linker's language.
func (l *Linker) LangCode() string {
	base, _ := l.lang.Base()
	return base.String()
}

// URL expands the template for r. Book, chapter and verse come from the
// first range of r; they are empty when r has none.
func (l *Linker) URL(r *ref.Reference) string {
	var book, usfm, chapter, verse string
	if entries := r.Entries(); len(entries) > 0 {
		first := entries[0]
		book, usfm = first.Book.OSIS(), first.Book.USFM()
		if first.Range.Chapter1 > 0 {
			chapter = strconv.Itoa(first.Range.Chapter1)
		}
		if first.Range.Verse1 > 0 {
			verse = strconv.Itoa(first.Range.Verse1)
		}
	}

	return strings.NewReplacer(
		"{ref}", url.QueryEscape(r.Format(l.lang)),
		"{osis}", url.PathEscape(r.OSIS()),
		"{book}", book,
		"{usfm}", usfm,
		"{chapter}", chapter,
		"{verse}", verse,
		"{lang}", l.LangCode(),
	).Replace(l.template)
}

// Slug is the class-safe form of r used in the tooltip class.
func (l *Linker) Slug(r *ref.Reference) string {
	s := strings.ToLower(strings.ReplaceAll(r.Format(l.lang), " ", "_"))
	return url.QueryEscape(s)
}

// Link wraps text in an anchor for r. It has the signature of scan.Func.
func (l *Linker) Link(text string, r *ref.Reference) string {
	var b strings.Builder
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(l.URL(r)))
	b.WriteByte('"')
	if l.tooltip {
		b.WriteString(` class="bible-tip bible-tip-`)
		b.WriteString(html.EscapeString(l.Slug(r)))
		b.WriteString(` bible-ref bible_link_lang-`)
		b.WriteString(l.LangCode())
		b.WriteByte('"')
	}
	b.WriteByte('>')
	b.WriteString(text)
	b.WriteString("</a>")
	return b.String()
}
