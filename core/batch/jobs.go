package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/emenda-labs/xsdiff/core/report"
	"github.com/emenda-labs/xsdiff/pkg/listing"
	"github.com/emenda-labs/xsdiff/pkg/reportwriter"
)

// Mode is the run mode chosen from the positional inputs.
type Mode string

const (
	// ModePair compares exactly two files.
	ModePair Mode = "pair"
	// ModeManifest compares the files listed in schema.lst across two folders.
	ModeManifest Mode = "manifest"
)

// Job is one file pair to compare. Hint names the report artifacts.
type Job struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Hint   string `json:"hint"`
}

// Header is the file-header line handed to report writers.
func (j Job) Header() string {
	return "comparing: " + j.Source + " with " + j.Target
}

// DefaultReportDir returns "report-<YYYY-MM-DD>-<HHmm>" for the given time.
func DefaultReportDir(now time.Time) string {
	return "report-" + now.Format("2006-01-02") + "-" + now.Format("1504")
}

// ResolveJobs turns two positional inputs into jobs. Two files yield one job
// named after the second file. Two directories yield one job per entry of
// the schema.lst manifest in the second directory. Entries whose report
// file names would collide are rejected.
func ResolveJobs(first, second string, listings report.ListingReader) ([]Job, Mode, error) {
	firstInfo, err := os.Stat(first)
	if err != nil {
		return nil, "", &InputError{First: first, Second: second, Reason: err.Error()}
	}
	secondInfo, err := os.Stat(second)
	if err != nil {
		return nil, "", &InputError{First: first, Second: second, Reason: err.Error()}
	}

	switch {
	case firstInfo.Mode().IsRegular() && secondInfo.Mode().IsRegular():
		return []Job{{
			Source: first,
			Target: second,
			Hint:   filepath.Base(second),
		}}, ModePair, nil

	case firstInfo.IsDir() && secondInfo.IsDir():
		jobs, err := manifestJobs(first, second, listings)
		if err != nil {
			return nil, "", err
		}
		return jobs, ModeManifest, nil

	default:
		return nil, "", &InputError{First: first, Second: second, Reason: "expected two files or two folders"}
	}
}

func manifestJobs(first, second string, listings report.ListingReader) ([]Job, error) {
	listPath := filepath.Join(second, listing.FileName)

	info, err := os.Stat(listPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingListingError{Path: listPath}
		}
		return nil, fmt.Errorf("checking listing file: %w", err)
	}
	if info.IsDir() {
		return nil, &MissingListingError{Path: listPath}
	}

	names, err := listings.ReadLines(listPath)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(names))
	artifacts := make(map[string]string, len(names))
	for _, name := range names {
		artifact := reportwriter.FileName(name, "")
		if prev, ok := artifacts[artifact]; ok {
			return nil, &InputError{
				First:  first,
				Second: second,
				Reason: fmt.Sprintf("listing entries %q and %q map to the same report file", prev, name),
			}
		}
		artifacts[artifact] = name
		jobs = append(jobs, Job{
			Source: filepath.Join(first, name),
			Target: filepath.Join(second, name),
			Hint:   name,
		})
	}
	return jobs, nil
}
