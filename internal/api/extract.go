package api

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/FocuswithJustin/bibleref/core/bible"
	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/ref"
	"github.com/FocuswithJustin/bibleref/core/scan"
	"github.com/FocuswithJustin/bibleref/internal/linkify"
	"github.com/FocuswithJustin/bibleref/internal/logging"
)

// ScannerOptions overrides fields of the server's scanner configuration.
// Nil fields keep the server default.
type ScannerOptions struct {
	MaxLevel     *int  `json:"max_level,omitempty"`
	WholeBooks   *bool `json:"whole_books,omitempty"`
	RequireSpace *bool `json:"require_space,omitempty"`
	Forward      *bool `json:"forward,omitempty"`
}

func (o *ScannerOptions) apply(cfg scan.Config) scan.Config {
	if o == nil {
		return cfg
	}
	if o.MaxLevel != nil {
		cfg.MaxLevel = bible.Level(*o.MaxLevel)
	}
	if o.WholeBooks != nil {
		cfg.AddWholeBooks = *o.WholeBooks
	}
	if o.RequireSpace != nil {
		cfg.RequireSpaceBeforeCV = *o.RequireSpace
	}
	if o.Forward != nil {
		cfg.Forward = *o.Forward
	}
	return cfg
}

// ExtractRequest is the body of POST /extract and of a /ws message.
type ExtractRequest struct {
	Text   string          `json:"text"`
	Strict bool            `json:"strict,omitempty"`
	Config *ScannerOptions `json:"config,omitempty"`
}

// ExtractResult is what an extraction returns. In strict mode Valid is
// false when the text held anything besides citations, and no matches are
// listed.
type ExtractResult struct {
	Reference *ref.Reference `json:"reference"`
	Canonical string         `json:"canonical"`
	OSIS      string         `json:"osis"`
	Valid     bool           `json:"valid"`
	Matches   []scan.Match   `json:"matches,omitempty"`
}

// RewriteRequest is the body of POST /rewrite.
type RewriteRequest struct {
	HTML        string          `json:"html"`
	URLTemplate string          `json:"url_template,omitempty"`
	Lang        string          `json:"lang,omitempty"`
	NoTooltip   bool            `json:"no_tooltip,omitempty"`
	Config      *ScannerOptions `json:"config,omitempty"`
}

// RewriteResult is the rewritten markup and the number of links inserted.
type RewriteResult struct {
	HTML  string `json:"html"`
	Links int    `json:"links"`
}

// scanner returns a scanner for the server defaults overridden by opts.
// Compiled patterns are shared, so this is cheap per request.
func (s *Server) scanner(base scan.Config, opts *ScannerOptions) (*scan.Scanner, error) {
	return scan.New(opts.apply(base))
}

func (s *Server) extract(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	sc, err := s.scanner(s.cfg.Scanner, req.Config)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := &ExtractResult{}
	operation := "extract"
	if req.Strict {
		operation = "extract_strict"
		if r, ok := sc.ExtractStrict(req.Text); ok {
			res.Reference, res.Valid = r, true
		} else {
			res.Reference = ref.New()
		}
	} else {
		res.Matches = sc.ExtractAll(req.Text)
		res.Reference = ref.New()
		for _, m := range res.Matches {
			res.Reference.Merge(m.Ref)
		}
		res.Valid = res.Reference.IsValid()
	}
	res.Canonical = res.Reference.String()
	res.OSIS = res.Reference.OSIS()

	elapsed := time.Since(start)
	s.metrics.observeScan(operation, elapsed, res.Reference.Len())
	logging.ScanCompleted(ctx, operation, len(req.Text), res.Reference.Len(), elapsed)
	return res, nil
}

func (s *Server) rewrite(ctx context.Context, req RewriteRequest) (*RewriteResult, error) {
	base := scan.HTMLConfig()
	base.Forward = s.cfg.Scanner.Forward
	sc, err := s.scanner(base, req.Config)
	if err != nil {
		return nil, err
	}

	tag, err := parseLang(req.Lang)
	if err != nil {
		return nil, err
	}
	tmpl := req.URLTemplate
	if tmpl == "" {
		tmpl = s.cfg.URLTemplate
	}
	opts := []linkify.Option{linkify.WithLanguage(tag)}
	if req.NoTooltip {
		opts = append(opts, linkify.WithoutTooltip())
	}
	linker, err := linkify.New(tmpl, opts...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := &RewriteResult{}
	res.HTML = sc.RewriteHTML(req.HTML, func(text string, r *ref.Reference) string {
		res.Links++
		return linker.Link(text, r)
	})

	elapsed := time.Since(start)
	s.metrics.observeScan("rewrite", elapsed, res.Links)
	logging.ScanCompleted(ctx, "rewrite", len(req.HTML), res.Links, elapsed)
	return res, nil
}

// parseLang accepts a BCP 47 tag for one of the two book-name languages.
// Empty means English.
func parseLang(s string) (language.Tag, error) {
	if s == "" {
		return language.English, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, errors.NewValidation("lang", s, "not a language tag")
	}
	switch base, _ := tag.Base(); base.String() {
	case "en":
		return language.English, nil
	case "es":
		return language.Spanish, nil
	}
	return language.Und, errors.NewUnsupported("language "+strconv.Quote(s), "book names exist for en and es only")
}
