package scan

import (
	"strconv"

	"github.com/FocuswithJustin/bibleref/core/bible"
	"github.com/FocuswithJustin/bibleref/core/errors"
)

// Config selects which spellings are recognized and how a citation's
// chapter/verse tail is bound to a book. Config values are comparable and
// key the compiled pattern cache.
type Config struct {
	// MaxLevel is the deepest abbreviation level compiled into the pattern.
	MaxLevel bible.Level

	// AddWholeBooks makes a bare book name, with no chapter or verse, a
	// citation of the whole book.
	AddWholeBooks bool

	// RequireSpaceBeforeCV rejects "John3:16" and "John.3:16".
	RequireSpaceBeforeCV bool

	// Forward scans left to right, binding numbers to the book before them.
	// The default reverse scan binds them to the book after them, so
	// "Genesis 3; 1 Samuel 5" reads as two citations.
	Forward bool
}

// DefaultConfig returns full names only, whole books on, reverse scanning.
func DefaultConfig() Config {
	return Config{
		MaxLevel:      bible.LevelFull,
		AddWholeBooks: true,
	}
}

// SimpleConfig recognizes every abbreviation level, including whole books.
func SimpleConfig() Config {
	return Config{
		MaxLevel:      bible.MaxLevel,
		AddWholeBooks: true,
	}
}

// HTMLConfig is tuned for rewriting markup: safe abbreviations only, and a
// book name needs a chapter to count.
func HTMLConfig() Config {
	return Config{
		MaxLevel: bible.LevelShort,
	}
}

// Validate reports configuration values outside their allowed range.
func (c Config) Validate() error {
	if c.MaxLevel < bible.LevelFull || c.MaxLevel > bible.MaxLevel {
		return errors.NewValidation("max_level", strconv.Itoa(int(c.MaxLevel)),
			"must be between 0 and "+strconv.Itoa(int(bible.MaxLevel)))
	}
	return nil
}

func (c Config) direction() bible.Direction {
	if c.Forward {
		return bible.Forward
	}
	return bible.Mirrored
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithRegistry replaces the default book registry.
func WithRegistry(r *bible.Registry) Option {
	return func(s *Scanner) {
		if r != nil {
			s.registry = r
		}
	}
}
