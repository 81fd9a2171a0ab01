package funes

import (
	"os"
	"time"

	"github.com/funes-project/funes/matcher"
	"github.com/funes-project/funes/metrics"

	"gopkg.in/src-d/go-git.v4/plumbing"
	log "gopkg.in/src-d/go-log.v1"
)

// branchRepository is the view of a local clone the branch crawl works
// against. *Repository implements it.
type branchRepository interface {
	CurrentBranch() (string, plumbing.Hash, error)
	Branches() (map[string]plumbing.Hash, error)
	Checkout(plumbing.Hash) error
	TrackedFiles(plumbing.Hash) ([]string, error)
	FileHistory(from plumbing.Hash, path string) ([]HistoryEntry, error)
	FileRevision(commit, path string) (string, error)
}

// Downloader crawls projects into the stores of a session. It clones a
// project's repository into its workspace, visits every branch, stores
// every new file revision and tears the workspace down again. Downloader
// instances hold no per-project state and can be shared by any number of
// workers.
type Downloader struct {
	session *Session
}

// NewDownloader creates a Downloader over the given session.
func NewDownloader(s *Session) *Downloader {
	return &Downloader{session: s}
}

// Do crawls the project referenced by the job. A project that cannot be
// cloned fails; every other condition is local to a branch or a history
// entry and only narrows the result. The project record is written in
// every case, with the final status.
func (d *Downloader) Do(logger log.Logger, j *Job) error {
	p, ok := d.session.Projects.Get(j.ProjectID)
	if !ok {
		return ErrProjectNotFound.New(j.ProjectID)
	}

	logger = logger.With(log.Fields{"project": p.ID, "url": p.GitURL})
	logger.Infof("processing project")

	start := time.Now()
	p.Status = Downloading

	snapshots, err := d.crawl(logger, p)
	if err != nil {
		p.Status = Failed
		d.session.Stats.projectFailed()
		metrics.ProjectFailed()
	} else {
		p.Status = Done
		d.session.Stats.projectProcessed()
		metrics.ProjectProcessed(time.Since(start))
		logger.With(log.Fields{
			"snapshots": snapshots.Len(),
			"duration":  time.Since(start),
		}).Infof("project done")
	}

	if werr := d.session.WriteProjectRecord(p, snapshots.Snapshots()); werr != nil {
		if err == nil {
			err = werr
		} else {
			logger.Errorf(werr, "unable to write project record")
		}
	}

	return err
}

func (d *Downloader) crawl(logger log.Logger, p *Project) (*snapshotSet, error) {
	snapshots := newSnapshotSet()

	path := d.session.WorkspacePath(p.ID)
	// a stale workspace left behind by a previous failed run would make the
	// clone fail
	if _, err := os.Stat(path); err == nil {
		if err := os.RemoveAll(path); err != nil {
			return snapshots, err
		}
	}

	p.LocalPath = path
	defer d.cleanWorkspace(logger, p)

	repo, err := CloneRepository(path, p.GitURL)
	if err != nil {
		return snapshots, ErrCloneFailed.Wrap(err, p.GitURL)
	}

	logger.Debugf("cloned to %s", path)
	return snapshots, d.processBranches(logger, p, repo, snapshots)
}

// processBranches visits the branch checked out by the clone first, then
// every remaining branch in arbitrary order. A branch whose checkout fails
// is reported and skipped; the rest are still attempted.
func (d *Downloader) processBranches(logger log.Logger, p *Project, repo branchRepository, snapshots *snapshotSet) error {
	current, head, err := repo.CurrentBranch()
	if err != nil {
		return err
	}

	pending, err := repo.Branches()
	if err != nil {
		return err
	}

	for {
		delete(pending, current)

		blog := logger.With(log.Fields{"branch": current})
		blog.Debugf("analyzing branch")
		if err := d.processFiles(blog, p, repo, head, snapshots); err != nil {
			return err
		}

		checkedOut := false
		for !checkedOut {
			if len(pending) == 0 {
				return nil
			}

			var name string
			var hash plumbing.Hash
			for n, h := range pending {
				name, hash = n, h
				break
			}
			delete(pending, name)

			if err := repo.Checkout(hash); err != nil {
				logger.With(log.Fields{"branch": name}).
					Errorf(err, "unable to checkout branch")
				d.session.Stats.branchSkipped()
				metrics.BranchSkipped()
				continue
			}

			current, head = name, hash
			checkedOut = true
		}
	}
}

// processFiles classifies every file tracked by the branch and extracts the
// history of the accepted ones. Denied files only flag the project.
func (d *Downloader) processFiles(logger log.Logger, p *Project, repo branchRepository, head plumbing.Hash, snapshots *snapshotSet) error {
	files, err := repo.TrackedFiles(head)
	if err != nil {
		return err
	}

	for _, file := range files {
		switch d.session.Patterns.Classify(file) {
		case matcher.Accept:
			if err := d.processHistory(logger, repo, head, file, snapshots); err != nil {
				return err
			}
		case matcher.Deny:
			p.HasDeniedFiles = true
		}
	}

	return nil
}

// processHistory builds a snapshot per history entry of the file. Entries
// already seen on another branch are skipped without fetching content;
// entries whose revision is unavailable are discarded without being marked
// seen, so they stay eligible for a later pass.
func (d *Downloader) processHistory(logger log.Logger, repo branchRepository, head plumbing.Hash, path string, snapshots *snapshotSet) error {
	history, err := repo.FileHistory(head, path)
	if err != nil {
		logger.With(log.Fields{"file": path}).
			Errorf(err, "unable to list file history")
		return nil
	}

	for _, entry := range history {
		if snapshots.Seen(entry.Commit, path) {
			d.session.Stats.snapshotDeduplicated()
			metrics.SnapshotDeduplicated()
			continue
		}

		text, err := repo.FileRevision(entry.Commit, path)
		if ErrRevisionUnavailable.Is(err) {
			continue
		}

		if err != nil {
			logger.With(log.Fields{"file": path, "commit": entry.Commit}).
				Errorf(err, "unable to read revision")
			continue
		}

		contents := []byte(text)
		id, novel, err := d.session.Contents.Put(contents)
		if err != nil {
			// the store can no longer guarantee that registered ids have
			// bytes behind them; abort the crawl instead of skipping
			return err
		}

		if novel {
			d.session.Stats.blobStored(len(contents))
			metrics.BlobStored(len(contents))
		} else {
			d.session.Stats.blobDeduplicated()
			metrics.BlobDeduplicated()
		}

		snapshots.Add(&FileSnapshot{
			ID:        UnassignedID,
			Commit:    entry.Commit,
			Path:      path,
			ContentID: id,
			Time:      entry.Time,
		})
		d.session.Stats.snapshotStored()
		metrics.SnapshotStored()
	}

	return nil
}

func (d *Downloader) cleanWorkspace(logger log.Logger, p *Project) {
	if p.LocalPath == "" {
		return
	}

	if err := os.RemoveAll(p.LocalPath); err != nil {
		logger.Errorf(err, "unable to remove workspace %s", p.LocalPath)
	}
}

// NewDownloaderWorkerPool creates a WorkerPool whose workers crawl projects
// with a Downloader sharing the given session.
func NewDownloaderWorkerPool(logger log.Logger, s *Session) *WorkerPool {
	d := NewDownloader(s)
	return NewWorkerPool(logger, d.Do)
}
