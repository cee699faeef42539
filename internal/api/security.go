package api

import (
	"encoding/hex"

	"github.com/FocuswithJustin/bibleref/core/errors"
)

// documentIDLen is the length of a hex BLAKE3-256 digest.
const documentIDLen = 64

// ValidateDocumentID rejects path values that cannot be an index key
// before they reach the database.
func ValidateDocumentID(id string) error {
	if id == "" {
		return errors.NewValidation("id", id, "cannot be empty")
	}
	if len(id) != documentIDLen {
		return errors.NewValidation("id", id, "must be 64 hex characters")
	}
	if _, err := hex.DecodeString(id); err != nil {
		return errors.NewValidation("id", id, "must be 64 hex characters")
	}
	return nil
}
