package reportwriter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName returns the artifact name for a job hint, e.g.
// "diff-report-orders.xsd.html". Path separators in the hint are flattened
// so every artifact lands directly in the report directory.
func FileName(hint, ext string) string {
	flat := strings.NewReplacer("/", "_", "\\", "_").Replace(hint)
	return "diff-report-" + flat + "." + ext
}

// atomicFile writes to a temp file in the target directory and renames it
// into place on commit.
type atomicFile struct {
	*os.File
	target string
	done   bool
}

func createAtomic(dir, name string) (*atomicFile, error) {
	target := filepath.Join(dir, name)
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating report %s: %w", target, err)
	}
	return &atomicFile{File: f, target: target}, nil
}

func (f *atomicFile) commit() error {
	if f.done {
		return fmt.Errorf("report %s already finished", f.target)
	}
	f.done = true
	if err := f.File.Close(); err != nil {
		os.Remove(f.File.Name())
		return fmt.Errorf("closing report %s: %w", f.target, err)
	}
	if err := os.Rename(f.File.Name(), f.target); err != nil {
		os.Remove(f.File.Name())
		return fmt.Errorf("publishing report %s: %w", f.target, err)
	}
	return nil
}

func (f *atomicFile) abort() {
	if f.done {
		return
	}
	f.done = true
	f.File.Close()
	os.Remove(f.File.Name())
}
