package batch

import (
	"fmt"
)

// MissingListingError reports directory mode without a schema.lst manifest.
type MissingListingError struct {
	Path string
}

func (e *MissingListingError) Error() string {
	return fmt.Sprintf("listing file %s not found: directory comparison needs a schema.lst in the second folder", e.Path)
}

// DirectoryConflictError reports a report directory that already exists or
// could not be created.
type DirectoryConflictError struct {
	Path string
	Err  error
}

func (e *DirectoryConflictError) Error() string {
	return fmt.Sprintf("failed to create report folder %s: %v", e.Path, e.Err)
}

func (e *DirectoryConflictError) Unwrap() error {
	return e.Err
}

// InputError reports positional arguments that are neither two files nor
// two directories.
type InputError struct {
	First  string
	Second string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("cannot compare %s with %s: %s", e.First, e.Second, e.Reason)
}

// JobError attaches the failing file pair to a per-job failure.
type JobError struct {
	Job Job
	Err error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("comparing %s with %s: %v", e.Job.Source, e.Job.Target, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}
