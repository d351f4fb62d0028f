package reportwriter

import (
	"encoding/csv"
	"fmt"

	"github.com/emenda-labs/xsdiff/core/comparison"
	"github.com/emenda-labs/xsdiff/core/report"
)

var _ report.Writer = (*CSVWriter)(nil)

// CSVWriter writes the spreadsheet form of a report: the file header on the
// first row, then a NAME / ONLY IN FIRST / ONLY IN SECOND table.
type CSVWriter struct{}

// NewCSVWriter creates a CSVWriter.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

func (w *CSVWriter) Format() string { return "csv" }

// Begin opens a session for dir/diff-report-<hint>.csv.
func (w *CSVWriter) Begin(dir, hint, header string) (report.Session, error) {
	f, err := createAtomic(dir, FileName(hint, "csv"))
	if err != nil {
		return nil, err
	}

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{header}); err != nil {
		f.abort()
		return nil, fmt.Errorf("writing report header: %w", err)
	}
	if err := cw.Write([]string{"NAME", "ONLY IN FIRST", "ONLY IN SECOND"}); err != nil {
		f.abort()
		return nil, fmt.Errorf("writing report header: %w", err)
	}

	return &csvSession{file: f, w: cw}, nil
}

type csvSession struct {
	file *atomicFile
	w    *csv.Writer
}

func (s *csvSession) Write(rec comparison.Record) error {
	return s.w.Write([]string{rec.TypeName, rec.OnlyInFirst, rec.OnlyInSecond})
}

func (s *csvSession) Finish() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.abort()
		return fmt.Errorf("flushing report: %w", err)
	}
	return s.file.commit()
}

func (s *csvSession) Abort() {
	s.file.abort()
}
