// Command refscan finds scripture citations in text, HTML and XML, rewrites
// them as links, and maintains a citation index.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"golang.org/x/text/language"

	"github.com/FocuswithJustin/bibleref/core/bible"
	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/scan"
	"github.com/FocuswithJustin/bibleref/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for refscan.
type CLI struct {
	LogLevel  string `help:"Log level" default:"warn" enum:"debug,info,warn,error" env:"REFSCAN_LOG_LEVEL"`
	LogFormat string `help:"Log format" default:"text" enum:"json,text" env:"REFSCAN_LOG_FORMAT"`

	Extract ExtractCmd `cmd:"" help:"Extract citations from text"`
	Rewrite RewriteCmd `cmd:"" help:"Turn citations in HTML into links"`
	XML     XMLCmd     `cmd:"" name:"xml" help:"Extract or mark citations in XML text nodes"`
	Books   BooksCmd   `cmd:"" help:"List books and the spellings that name them"`
	Index   IndexGroup `cmd:"" help:"Citation index operations"`
	Serve   ServeCmd   `cmd:"" help:"Start the REST API server"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// runContext is bound into every command's Run method.
type runContext struct {
	ctx context.Context
	in  io.Reader
	out io.Writer
}

// ScanFlags configures the scanner. It is embedded in the commands that
// scan plain text.
type ScanFlags struct {
	Level        int  `short:"l" help:"Abbreviation level: 0 full names, 1 short forms, 2 risky forms" default:"0" env:"REFSCAN_LEVEL"`
	Forward      bool `help:"Bind numbers to the book before them instead of the book after them" env:"REFSCAN_FORWARD"`
	NoWholeBooks bool `help:"Ignore book names that have no chapter" env:"REFSCAN_NO_WHOLE_BOOKS"`
	RequireSpace bool `help:"Reject citations written without a space, like John3:16" env:"REFSCAN_REQUIRE_SPACE"`
}

func (f ScanFlags) config() scan.Config {
	return scan.Config{
		MaxLevel:             bible.Level(f.Level),
		AddWholeBooks:        !f.NoWholeBooks,
		RequireSpaceBeforeCV: f.RequireSpace,
		Forward:              f.Forward,
	}
}

func (f ScanFlags) scanner() (*scan.Scanner, error) {
	return scan.New(f.config())
}

// readInput reads path, or standard input when path is "-" or empty.
func (rc *runContext) readInput(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(rc.in)
		if err != nil {
			return "", errors.NewIO("read", "stdin", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIO("read", path, err)
	}
	return string(b), nil
}

// parseLang accepts "en" or "es" (or any tag with those bases).
func parseLang(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, errors.NewValidation("lang", s, "not a language tag")
	}
	switch base, _ := tag.Base(); strings.ToLower(base.String()) {
	case "en":
		return language.English, nil
	case "es":
		return language.Spanish, nil
	}
	return language.Und, errors.NewUnsupported("language "+s, "book names exist for en and es only")
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("refscan"),
		kong.Description("Find, link and index scripture citations"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	logging.InitLogger(logging.ParseLevel(cli.LogLevel), logging.ParseFormat(cli.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = kctx.Run(&runContext{ctx: ctx, in: os.Stdin, out: os.Stdout})
	kctx.FatalIfErrorf(err)
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(rc *runContext) error {
	_, err := io.WriteString(rc.out, "refscan version "+version+"\n")
	return err
}
