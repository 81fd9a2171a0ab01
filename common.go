package funes

import (
	"io"

	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrCloneFailed signals that a project's repository could not be
	// cloned. It is fatal for that project only.
	ErrCloneFailed = errors.NewKind("unable to clone %s")

	// ErrRevisionUnavailable signals that a file has no content at a given
	// commit, e.g. because the commit deleted it.
	ErrRevisionUnavailable = errors.NewKind("no content for %s at commit %s")

	// ErrInvalidSeedLine signals a malformed entry in a seed list. Intake
	// reports it and continues with the next line.
	ErrInvalidSeedLine = errors.NewKind("%s, line %d: invalid project seed")

	// ErrProjectExists signals an explicit project id that is already
	// taken.
	ErrProjectExists = errors.NewKind("project id %d already exists")

	// ErrProjectNotFound signals a job referencing an unknown project id.
	ErrProjectNotFound = errors.NewKind("project %d not found")
)

// Job represents a funes job to crawl a repository and store its file
// histories.
type Job struct {
	ProjectID int64
}

// JobIter is an iterator of Job.
type JobIter interface {
	io.Closer
	// Next returns the next job. It returns io.EOF if there are no more
	// jobs.
	Next() (*Job, error)
}
