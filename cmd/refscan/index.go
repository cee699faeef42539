package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/internal/index"
	"github.com/FocuswithJustin/bibleref/internal/logging"
)

// IndexGroup groups the citation index subcommands.
type IndexGroup struct {
	Add    IndexAddCmd    `cmd:"" help:"Scan files and store them with their citations"`
	Query  IndexQueryCmd  `cmd:"" help:"List stored citations overlapping a reference"`
	List   IndexListCmd   `cmd:"" help:"List indexed documents"`
	Show   IndexShowCmd   `cmd:"" help:"Show one document and its citations"`
	Delete IndexDeleteCmd `cmd:"" help:"Remove a document from the index"`
	Export IndexExportCmd `cmd:"" help:"Write the index as xz-compressed JSON"`
	Import IndexImportCmd `cmd:"" help:"Load an index dump"`
	Stats  IndexStatsCmd  `cmd:"" help:"Count documents and citations"`
}

// IndexFlags selects the index database.
type IndexFlags struct {
	DB string `help:"Index database path" default:"refscan.db" env:"REFSCAN_DB" type:"path"`
}

func (f IndexFlags) open(rc *runContext, opts ...index.Option) (*index.Store, error) {
	return index.Open(rc.ctx, f.DB, opts...)
}

// IndexAddCmd indexes files.
type IndexAddCmd struct {
	IndexFlags
	ScanFlags
	Source string   `help:"Source name stored with stdin input" default:"stdin"`
	Paths  []string `arg:"" optional:"" help:"Files to index; none reads stdin"`
}

func (c *IndexAddCmd) Run(rc *runContext) error {
	s, err := c.scanner()
	if err != nil {
		return err
	}
	store, err := c.open(rc, index.WithScanner(s))
	if err != nil {
		return err
	}
	defer store.Close()

	if len(c.Paths) == 0 {
		return c.add(rc, store, c.Source, "-")
	}
	for _, p := range c.Paths {
		if err := c.add(rc, store, filepath.Base(p), p); err != nil {
			return err
		}
	}
	return nil
}

func (c *IndexAddCmd) add(rc *runContext, store *index.Store, source, path string) error {
	body, err := rc.readInput(path)
	if err != nil {
		return err
	}
	doc, err := store.Add(rc.ctx, source, body)
	if err != nil {
		return errors.Wrapf(err, "index %s", source)
	}
	_, err = fmt.Fprintf(rc.out, "%s  %s  %d citations\n", doc.ID, doc.Source, len(doc.Citations))
	return err
}

// IndexQueryCmd finds documents citing a passage.
type IndexQueryCmd struct {
	IndexFlags
	JSON bool   `name:"json" help:"Print JSON"`
	Ref  string `arg:"" help:"Reference to look up, e.g. \"Rom 8:28\""`
}

func (c *IndexQueryCmd) Run(rc *runContext) error {
	store, err := c.open(rc)
	if err != nil {
		return err
	}
	defer store.Close()

	hits, err := store.QueryText(rc.ctx, c.Ref)
	if err != nil {
		return err
	}
	if c.JSON {
		if hits == nil {
			hits = []index.Citation{}
		}
		return writeJSON(rc.out, hits)
	}
	tw := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tSOURCE\tOFFSET\tTEXT")
	for _, h := range hits {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", h.DocumentID[:12], h.Source, h.Offset, h.Text)
	}
	return tw.Flush()
}

// IndexListCmd lists documents.
type IndexListCmd struct {
	IndexFlags
}

func (c *IndexListCmd) Run(rc *runContext) error {
	store, err := c.open(rc)
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := store.List(rc.ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tCREATED\tBYTES")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", d.ID, d.Source, d.CreatedAt.Format("2006-01-02 15:04:05"), len(d.Body))
	}
	return tw.Flush()
}

// IndexShowCmd prints one document as JSON.
type IndexShowCmd struct {
	IndexFlags
	ID string `arg:"" help:"Document ID"`
}

func (c *IndexShowCmd) Run(rc *runContext) error {
	store, err := c.open(rc)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Get(rc.ctx, c.ID)
	if err != nil {
		return err
	}
	return writeJSON(rc.out, doc)
}

// IndexDeleteCmd removes a document.
type IndexDeleteCmd struct {
	IndexFlags
	ID string `arg:"" help:"Document ID"`
}

func (c *IndexDeleteCmd) Run(rc *runContext) error {
	store, err := c.open(rc)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(rc.ctx, c.ID); err != nil {
		return err
	}
	_, err = fmt.Fprintf(rc.out, "deleted %s\n", c.ID)
	return err
}

// IndexExportCmd writes a dump.
type IndexExportCmd struct {
	IndexFlags
	Output string `short:"o" help:"Output file; stdout when empty" type:"path"`
}

func (c *IndexExportCmd) Run(rc *runContext) error {
	store, err := c.open(rc)
	if err != nil {
		return err
	}
	defer store.Close()

	if c.Output == "" {
		_, err = store.Export(rc.ctx, rc.out)
		return err
	}
	f, err := os.Create(c.Output)
	if err != nil {
		return errors.NewIO("create", c.Output, err)
	}
	n, err := store.Export(rc.ctx, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.NewIO("close", c.Output, cerr)
	}
	if err != nil {
		return err
	}
	logging.Info("index_exported", "documents", n, "path", c.Output)
	return nil
}

// IndexImportCmd loads a dump.
type IndexImportCmd struct {
	IndexFlags
	Input string `arg:"" help:"Dump file written by export" type:"existingfile"`
}

func (c *IndexImportCmd) Run(rc *runContext) error {
	store, err := c.open(rc)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(c.Input)
	if err != nil {
		return errors.NewIO("open", c.Input, err)
	}
	defer f.Close()

	n, err := store.Import(rc.ctx, f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(rc.out, "imported %d documents\n", n)
	return err
}

// IndexStatsCmd prints counts.
type IndexStatsCmd struct {
	IndexFlags
}

func (c *IndexStatsCmd) Run(rc *runContext) error {
	store, err := c.open(rc)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats(rc.ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(rc.out, "documents: %d\ncitations: %d\ndriver:    %s\n", st.Documents, st.Citations, st.Driver)
	return err
}
