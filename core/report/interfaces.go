package report

import (
	"context"

	"github.com/emenda-labs/xsdiff/core/comparison"
)

// Comparer is the interface a schema driver implements so the batch
// orchestrator can compare one file pair.
type Comparer interface {
	// ComparePair parses both documents and returns the ordered comparison
	// records. Parse failures carry the offending path.
	ComparePair(ctx context.Context, firstPath, secondPath string) ([]comparison.Record, error)
}

// Writer produces one report artifact per job in some presentation format.
type Writer interface {
	// Format names the output format ("html", "csv").
	Format() string

	// Begin opens a session that will publish dir/diff-report-<hint>.<ext>.
	// The header describes the file pair being compared.
	Begin(dir, hint, header string) (Session, error)
}

// Session receives the ordered records of one job. Nothing is visible in the
// report directory until Finish succeeds.
type Session interface {
	Write(rec comparison.Record) error

	// Finish flushes and atomically publishes the artifact.
	Finish() error

	// Abort discards anything written so far. Safe to call after Finish.
	Abort()
}

// Bundler copies shared static assets into a report directory.
type Bundler interface {
	Bundle(dir string) error
}

// ListingReader reads a manifest of relative file names.
type ListingReader interface {
	ReadLines(path string) ([]string, error)
}
