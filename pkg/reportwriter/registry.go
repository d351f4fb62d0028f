package reportwriter

import (
	"fmt"
	"strings"

	"github.com/emenda-labs/xsdiff/core/report"
)

// ForFormats returns one writer per requested format name, in order.
// Duplicate names are collapsed.
func ForFormats(formats []string) ([]report.Writer, error) {
	var writers []report.Writer
	seen := make(map[string]bool)
	for _, f := range formats {
		name := strings.ToLower(strings.TrimSpace(f))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case "html":
			writers = append(writers, NewHTMLWriter())
		case "csv":
			writers = append(writers, NewCSVWriter())
		default:
			return nil, fmt.Errorf("unknown report format %q (want html or csv)", f)
		}
	}
	if len(writers) == 0 {
		return nil, fmt.Errorf("no report format selected")
	}
	return writers, nil
}
