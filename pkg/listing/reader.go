package listing

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the manifest expected inside the second directory in
// directory comparison mode.
const FileName = "schema.lst"

// Reader reads newline-delimited manifests of relative schema file names.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader. A nil logger falls back to slog.Default.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// ReadLines returns the entries of the manifest at path in file order.
// Lines are taken verbatim except for a trailing carriage return. Blank
// lines are skipped and logged. An entry that is absolute or escapes its
// directory is rejected.
func (r *Reader) ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening listing file %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			r.logger.Debug("skipping blank listing entry", "listing", path, "line", lineNo)
			continue
		}

		if err := validateEntry(line); err != nil {
			return nil, fmt.Errorf("listing file %s line %d: %w", path, lineNo, err)
		}

		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading listing file %s: %w", path, err)
	}

	return lines, nil
}

// validateEntry rejects entries that would resolve outside the compared
// directories.
func validateEntry(entry string) error {
	if filepath.IsAbs(entry) {
		return fmt.Errorf("entry %q must be a relative path", entry)
	}
	cleaned := filepath.Clean(filepath.FromSlash(entry))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("entry %q attempts path traversal", entry)
	}
	return nil
}
