// Package index stores documents together with the citations found in them
// and answers "which documents cite this passage" queries.
//
// Documents are keyed by the BLAKE3 hash of their text, so adding the same
// text twice updates one record. Citations are stored one row per range with
// the range flattened to an interval (see span), which turns an overlap
// query into two comparisons on an indexed column pair.
package index

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/bibleref/core/bible"
	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/ref"
	"github.com/FocuswithJustin/bibleref/core/scan"
	"github.com/FocuswithJustin/bibleref/core/sqlite"
	"github.com/FocuswithJustin/bibleref/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS citations (
	document_id TEXT    NOT NULL,
	seq         INTEGER NOT NULL,
	text        TEXT    NOT NULL,
	byte_offset INTEGER NOT NULL,
	book        INTEGER NOT NULL,
	kind        TEXT    NOT NULL,
	chapter1    INTEGER NOT NULL,
	verse1      INTEGER NOT NULL,
	chapter2    INTEGER NOT NULL,
	verse2      INTEGER NOT NULL,
	span_start  INTEGER NOT NULL,
	span_end    INTEGER NOT NULL,
	PRIMARY KEY (document_id, seq)
);
CREATE INDEX IF NOT EXISTS citations_span ON citations (book, span_start, span_end);
`

// Citation is one range of one citation in a document.
type Citation struct {
	DocumentID string       `json:"document_id"`
	Source     string       `json:"source,omitempty"`
	Text       string       `json:"text"`
	Offset     int          `json:"offset"`
	Book       bible.BookID `json:"book_id"`
	Range      ref.Range    `json:"range"`
}

// Document is an indexed text and its citations in document order.
type Document struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	Citations []Citation `json:"citations"`
}

// Reference merges the document's citations into one Reference.
func (d *Document) Reference() *ref.Reference {
	r := ref.New()
	for _, c := range d.Citations {
		r.Add(c.Book, c.Range)
	}
	return r
}

// Stats summarizes the index contents.
type Stats struct {
	Documents int    `json:"documents"`
	Citations int    `json:"citations"`
	Driver    string `json:"driver"`
}

// Store is a citation index backed by SQLite. It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	scanner *scan.Scanner
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithScanner sets the scanner used to find citations in added documents.
func WithScanner(s *scan.Scanner) Option {
	return func(st *Store) {
		if s != nil {
			st.scanner = s
		}
	}
}

// Open opens or creates the index at path. sqlite.Memory gives a private
// in-memory index.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.NewIO("create schema", path, err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.scanner == nil {
		s.scanner = scan.Must(scan.DefaultConfig())
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Scanner returns the scanner used for added documents.
func (s *Store) Scanner() *scan.Scanner {
	return s.scanner
}

// DocumentID is the index key for body: its BLAKE3 hash in hex.
func DocumentID(body string) string {
	sum := blake3.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// Add scans body and stores it with its citations. Adding text that is
// already indexed replaces the stored citations and source.
func (s *Store) Add(ctx context.Context, source, body string) (*Document, error) {
	start := time.Now()
	doc := &Document{
		ID:        DocumentID(body),
		Source:    source,
		Body:      body,
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}
	matches := s.scanner.ExtractAll(body)
	for _, m := range matches {
		for _, e := range m.Ref.Entries() {
			doc.Citations = append(doc.Citations, Citation{
				DocumentID: doc.ID,
				Source:     source,
				Text:       m.Text,
				Offset:     m.Offset,
				Book:       e.Book,
				Range:      e.Range,
			})
		}
	}
	logging.ScanCompleted(ctx, "index", len(body), len(matches), time.Since(start))

	if err := s.put(ctx, doc); err != nil {
		return nil, err
	}
	logging.DocumentIndexed(ctx, doc.ID, source, len(doc.Citations))
	return doc, nil
}

// put writes doc and its citations in one transaction, replacing any
// existing record with the same id.
func (s *Store) put(ctx context.Context, doc *Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewIO("begin", "documents", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if err := deleteTx(ctx, tx, doc.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, source, body, created_at) VALUES (?, ?, ?, ?)`,
		doc.ID, doc.Source, doc.Body, doc.CreatedAt.Format(time.RFC3339)); err != nil {
		return errors.NewIO("insert", "documents", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO citations
		(document_id, seq, text, byte_offset, book, kind, chapter1, verse1, chapter2, verse2, span_start, span_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.NewIO("prepare", "citations", err)
	}
	defer stmt.Close()

	for i, c := range doc.Citations {
		lo, hi := span(c.Range)
		if _, err := stmt.ExecContext(ctx, doc.ID, i, c.Text, c.Offset, int(c.Book), c.Range.Kind.String(),
			c.Range.Chapter1, c.Range.Verse1, c.Range.Chapter2, c.Range.Verse2, lo, hi); err != nil {
			return errors.NewIO("insert", "citations", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewIO("commit", "documents", err)
	}
	return nil
}

func deleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM citations WHERE document_id = ?`, id); err != nil {
		return errors.NewIO("delete", "citations", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return errors.NewIO("delete", "documents", err)
	}
	return nil
}

// Get returns the document with id, or a NotFoundError.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	doc := &Document{ID: id}
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT source, body, created_at FROM documents WHERE id = ?`, id).
		Scan(&doc.Source, &doc.Body, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("document", id)
	}
	if err != nil {
		return nil, errors.NewIO("select", "documents", err)
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339, created)

	doc.Citations, err = s.citations(ctx,
		`WHERE c.document_id = ? ORDER BY c.seq`, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes the document with id. Deleting a missing document returns
// a NotFoundError.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewIO("begin", "documents", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit
	if err := deleteTx(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewIO("commit", "documents", err)
	}
	return nil
}

// List returns all documents without their citations, oldest first.
func (s *Store) List(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, body, created_at FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.NewIO("select", "documents", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d := &Document{}
		var created string
		if err := rows.Scan(&d.ID, &d.Source, &d.Body, &created); err != nil {
			return nil, errors.NewIO("scan", "documents", err)
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, created)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("select", "documents", err)
	}
	return docs, nil
}

// Stats counts documents and citation rows.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Driver: sqlite.DriverType()}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&st.Documents); err != nil {
		return st, errors.NewIO("count", "documents", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM citations`).Scan(&st.Citations); err != nil {
		return st, errors.NewIO("count", "citations", err)
	}
	return st, nil
}

// citations runs a citation select with the given WHERE/ORDER clause.
func (s *Store) citations(ctx context.Context, clause string, args ...any) ([]Citation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.document_id, d.source, c.text, c.byte_offset, c.book, c.kind,
		c.chapter1, c.verse1, c.chapter2, c.verse2
		FROM citations c JOIN documents d ON d.id = c.document_id `+clause, args...)
	if err != nil {
		return nil, errors.NewIO("select", "citations", err)
	}
	defer rows.Close()

	var out []Citation
	for rows.Next() {
		var (
			c    Citation
			book int
			kind string
		)
		if err := rows.Scan(&c.DocumentID, &c.Source, &c.Text, &c.Offset, &book, &kind,
			&c.Range.Chapter1, &c.Range.Verse1, &c.Range.Chapter2, &c.Range.Verse2); err != nil {
			return nil, errors.NewIO("scan", "citations", err)
		}
		c.Book = bible.BookID(book)
		if err := c.Range.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, errors.NewParse("citation", c.DocumentID, fmt.Sprintf("row kind %q", kind), err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("select", "citations", err)
	}
	return out, nil
}
