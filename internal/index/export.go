package index

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/bibleref/core/errors"
)

// exportVersion is written into every dump and checked on import.
const exportVersion = 1

type dump struct {
	Version   int         `json:"version"`
	Documents []*Document `json:"documents"`
}

// Export writes every document with its citations to w as xz-compressed
// JSON.
func (s *Store) Export(ctx context.Context, w io.Writer) (int, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	for i, d := range docs {
		full, err := s.Get(ctx, d.ID)
		if err != nil {
			return 0, err
		}
		docs[i] = full
	}

	xw, err := xz.NewWriter(w)
	if err != nil {
		return 0, errors.NewIO("compress", "export", err)
	}
	if err := json.NewEncoder(xw).Encode(dump{Version: exportVersion, Documents: docs}); err != nil {
		xw.Close()
		return 0, errors.NewIO("write", "export", err)
	}
	if err := xw.Close(); err != nil {
		return 0, errors.NewIO("compress", "export", err)
	}
	return len(docs), nil
}

// Import loads a dump written by Export. Stored citations are kept as they
// were exported, not rescanned. Documents already present are replaced.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return 0, errors.NewParse("xz", "", "not an xz stream", err)
	}
	var d dump
	if err := json.NewDecoder(xr).Decode(&d); err != nil {
		return 0, errors.NewParse("JSON", "", "invalid index dump", err)
	}
	if d.Version != exportVersion {
		return 0, errors.NewUnsupported("dump version", "expected version 1")
	}

	for _, doc := range d.Documents {
		if doc.ID != DocumentID(doc.Body) {
			return 0, errors.NewValidation("id", doc.ID, "does not match document body")
		}
		if err := s.put(ctx, doc); err != nil {
			return 0, err
		}
	}
	return len(d.Documents), nil
}
