package funes

import (
	"io"
	"time"

	log "gopkg.in/src-d/go-log.v1"
	queue "gopkg.in/src-d/go-queue.v1"
)

// Executor retrieves jobs from a job iterator and passes them to a worker
// pool to be executed. Executor acts as a producer-consumer in a single
// component.
type Executor struct {
	log  log.Logger
	wp   *WorkerPool
	q    queue.Queue
	iter JobIter
}

// NewExecutor creates a new job executor.
func NewExecutor(logger log.Logger, q queue.Queue, pool *WorkerPool, iter JobIter) *Executor {
	return &Executor{
		log:  logger,
		wp:   pool,
		q:    q,
		iter: iter,
	}
}

// Execute queues every job from the iterator and distributes them across
// the worker pool. It blocks until the queue is drained and every in-flight
// job has finished.
func (e *Executor) Execute() error {
	if err := e.queueJobs(); err != nil {
		return err
	}

	for {
		err := e.consumeJobs()
		if err == io.EOF {
			return e.wp.Close()
		}

		if err != nil {
			e.log.Errorf(err, "error consuming jobs")
		}

		<-time.After(5 * time.Second)
	}
}

func (e *Executor) queueJobs() error {
	e.log.Debugf("queueing jobs")
	var n int
	for {
		job, err := e.iter.Next()
		if err == io.EOF {
			e.log.With(log.Fields{"jobs": n}).Debugf("jobs queued")
			return nil
		}

		if ErrInvalidSeedLine.Is(err) {
			// malformed seed entries are reported and do not abort intake
			e.log.Errorf(err, "skipping seed entry")
			continue
		}

		if err != nil {
			return err
		}

		qj, err := queue.NewJob()
		if err != nil {
			return err
		}

		if err := qj.Encode(job); err != nil {
			return err
		}

		if err := e.q.Publish(qj); err != nil {
			return err
		}

		n++
	}
}

func (e *Executor) consumeJobs() error {
	iter, err := e.q.Consume(e.wp.Len())
	if err != nil {
		return err
	}

	for {
		j, err := iter.Next()
		if queue.ErrEmptyJob.Is(err) {
			e.log.Errorf(err, "empty job, skipping")
			continue
		}

		if queue.ErrAlreadyClosed.Is(err) {
			return io.EOF
		}

		if err != nil {
			return err
		}

		if j == nil {
			_ = iter.Close()
			return io.EOF
		}

		var job Job
		if err := j.Decode(&job); err != nil {
			e.log.Errorf(err, "unable to decode job")
			if err := j.Reject(false); err != nil {
				e.log.Errorf(err, "unable to reject job")
			}

			continue
		}

		e.wp.Do(&WorkerJob{&job, j})
	}
}
