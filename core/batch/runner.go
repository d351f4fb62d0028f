package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/emenda-labs/xsdiff/core/comparison"
	"github.com/emenda-labs/xsdiff/core/report"
)

// Status is the outcome of one job.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Request holds the inputs of one run.
type Request struct {
	First  string
	Second string

	// ReportDir overrides the default report-<date>-<HHmm> folder name.
	ReportDir string

	// Workers bounds how many jobs run at once. Values below 2 run jobs
	// sequentially.
	Workers int

	// KeepGoing isolates job failures in manifest mode: remaining jobs still
	// run and failures are reported together at the end.
	KeepGoing bool
}

// JobResult records what happened to one job.
type JobResult struct {
	Job     Job
	Status  Status
	Summary comparison.Summary
	Err     error
}

// Result describes a finished run.
type Result struct {
	RunID     string
	Mode      Mode
	ReportDir string
	Jobs      []JobResult
}

// Failed returns the number of jobs that did not complete.
func (r *Result) Failed() int {
	n := 0
	for _, j := range r.Jobs {
		if j.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Runner drives comparisons for a run and owns its report directory.
type Runner struct {
	comparer report.Comparer
	writers  []report.Writer
	bundler  report.Bundler
	listings report.ListingReader

	now    func() time.Time
	logger *slog.Logger

	outMu sync.Mutex
	out   io.Writer
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock sets the time source used for the default report folder name.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithOutput sets where operator progress lines are printed.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// NewRunner creates a Runner from its collaborators.
func NewRunner(comparer report.Comparer, writers []report.Writer, bundler report.Bundler, listings report.ListingReader, opts ...Option) *Runner {
	r := &Runner{
		comparer: comparer,
		writers:  writers,
		bundler:  bundler,
		listings: listings,
		now:      time.Now,
		logger:   slog.Default(),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run resolves the jobs, creates the report directory, compares every pair
// and finally bundles the static resources once.
//
// Jobs are resolved and the directory is created before any job starts; both
// fail the run immediately. A job failure aborts the run unless the request
// is in manifest mode with KeepGoing set, in which case all jobs run, the
// resources are still bundled and the failures are returned together.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)

	jobs, mode, err := ResolveJobs(req.First, req.Second, r.listings)
	if err != nil {
		return nil, err
	}

	dir := req.ReportDir
	if dir == "" {
		dir = DefaultReportDir(r.now())
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, &DirectoryConflictError{Path: dir, Err: err}
	}

	logger.Info("run started", "mode", mode, "jobs", len(jobs), "report_dir", dir)
	if mode == ModePair {
		r.printf("output single file [%s/%s] comparison to: %s\n", req.First, req.Second, dir)
	} else {
		r.printf("output: to folder '%s'\n", dir)
	}

	res := &Result{RunID: runID, Mode: mode, ReportDir: dir, Jobs: make([]JobResult, len(jobs))}
	for i, job := range jobs {
		res.Jobs[i] = JobResult{Job: job, Status: StatusSkipped}
	}

	keepGoing := req.KeepGoing && mode == ModeManifest
	runErr := r.runJobs(ctx, logger, dir, res, req.Workers, keepGoing)
	if runErr != nil && (!keepGoing || ctx.Err() != nil) {
		return res, runErr
	}

	if err := r.bundler.Bundle(dir); err != nil {
		bundleErr := fmt.Errorf("bundling resources into %s: %w", dir, err)
		if runErr == nil {
			return res, bundleErr
		}
		return res, multierror.Append(runErr, bundleErr)
	}

	logger.Info("run finished", "jobs", len(jobs), "failed", res.Failed())
	return res, runErr
}

// runJobs executes every job, at most workers at a time. Without keepGoing
// the first failure cancels jobs that have not started.
func (r *Runner) runJobs(ctx context.Context, logger *slog.Logger, dir string, res *Result, workers int, keepGoing bool) error {
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range res.Jobs {
		slot := &res.Jobs[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			summary, err := r.runJob(gctx, logger, dir, slot.Job)
			if err != nil {
				slot.Status = StatusFailed
				slot.Err = err
				logger.Error("job failed", "source", slot.Job.Source, "target", slot.Job.Target, "error", err)
				if keepGoing {
					return nil
				}
				return err
			}
			slot.Status = StatusOK
			slot.Summary = summary
			return nil
		})
	}

	firstErr := g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	if !keepGoing {
		return firstErr
	}

	var merr *multierror.Error
	for _, j := range res.Jobs {
		if j.Err != nil {
			merr = multierror.Append(merr, j.Err)
		}
	}
	return merr.ErrorOrNil()
}

// runJob compares one file pair and hands the records to every writer.
func (r *Runner) runJob(ctx context.Context, logger *slog.Logger, dir string, job Job) (comparison.Summary, error) {
	r.printf("compare: %s\n", job.Hint)

	records, err := r.comparer.ComparePair(ctx, job.Source, job.Target)
	if err != nil {
		return comparison.Summary{}, &JobError{Job: job, Err: err}
	}

	header := job.Header()
	for _, w := range r.writers {
		if err := emit(w, dir, job.Hint, header, records); err != nil {
			return comparison.Summary{}, &JobError{Job: job, Err: fmt.Errorf("writing %s report: %w", w.Format(), err)}
		}
	}

	summary := comparison.Summarize(records)
	logger.Info("job compared",
		"hint", job.Hint,
		"types", summary.Types,
		"with_differences", summary.WithDifferences,
		"with_additions", summary.WithAdditions)
	return summary, nil
}

// emit brackets one writer session around the records.
func emit(w report.Writer, dir, hint, header string, records []comparison.Record) error {
	s, err := w.Begin(dir, hint, header)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := s.Write(rec); err != nil {
			s.Abort()
			return err
		}
	}
	if err := s.Finish(); err != nil {
		s.Abort()
		return err
	}
	return nil
}

func (r *Runner) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// IsPreflight reports whether err happened before any job started.
func IsPreflight(err error) bool {
	var (
		missing  *MissingListingError
		conflict *DirectoryConflictError
		input    *InputError
	)
	return errors.As(err, &missing) || errors.As(err, &conflict) || errors.As(err, &input)
}
