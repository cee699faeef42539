package index

import (
	"context"
	"strings"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/ref"
	"github.com/FocuswithJustin/bibleref/core/scan"
)

// Query returns every stored citation that overlaps a range of r, grouped
// by document in insertion order.
func (s *Store) Query(ctx context.Context, r *ref.Reference) ([]Citation, error) {
	entries := r.Entries()
	if len(entries) == 0 {
		return nil, errors.NewValidation("ref", r.String(), "empty reference")
	}

	var (
		conds []string
		args  []any
	)
	for _, e := range entries {
		lo, hi := span(e.Range)
		conds = append(conds, `(c.book = ? AND c.span_start <= ? AND c.span_end >= ?)`)
		args = append(args, int(e.Book), hi, lo)
	}
	clause := `WHERE ` + strings.Join(conds, ` OR `) + ` ORDER BY d.created_at, c.document_id, c.seq`
	return s.citations(ctx, clause, args...)
}

// QueryText parses q leniently ("jn 3", "Romans 8:28-30; Ps 23") and runs
// Query. Text with no recognizable citation is a ValidationError.
func (s *Store) QueryText(ctx context.Context, q string) ([]Citation, error) {
	r := scan.Simple().Extract(q)
	if !r.IsValid() {
		return nil, errors.NewValidation("ref", q, "no citation found")
	}
	return s.Query(ctx, r)
}
