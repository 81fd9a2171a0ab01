package funes

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/funes-project/funes/matcher"
	"github.com/funes-project/funes/storage"

	uuid "github.com/satori/go.uuid"
	"gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/osfs"
	"gopkg.in/src-d/go-billy.v4/util"
)

// Session is the shared state of one pipeline run: the output layout, the
// global content store, the project registry and the pattern list. It is
// built once before the worker pool starts and is safe for concurrent use
// by every worker.
type Session struct {
	ID       uuid.UUID
	Output   string
	Contents *storage.ContentStore
	Projects *ProjectStore
	Patterns *matcher.PatternList
	Stats    *SessionStats

	fs      billy.Filesystem
	started time.Time
}

// NewSession prepares the output layout of a run. The temp, projects, data
// and stats directories are created if missing; temp is expected to be
// empty.
func NewSession(output string, patterns *matcher.PatternList) (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:       id,
		Output:   output,
		Projects: NewProjectStore(),
		Patterns: patterns,
		Stats:    &SessionStats{},
		fs:       osfs.New(output),
		started:  time.Now(),
	}

	for _, dir := range []string{
		s.TempPath(),
		s.ProjectsPath(),
		s.DataPath(),
		s.StatsPath(),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	s.Contents = storage.NewContentStore(s.DataPath())
	return s, nil
}

// TempPath returns the directory holding transient clone workspaces.
func (s *Session) TempPath() string {
	return filepath.Join(s.Output, "temp")
}

// ProjectsPath returns the directory holding per-project crawl records.
func (s *Session) ProjectsPath() string {
	return filepath.Join(s.Output, "projects")
}

// DataPath returns the root of the content store.
func (s *Session) DataPath() string {
	return filepath.Join(s.Output, "data")
}

// StatsPath returns the directory holding session statistics.
func (s *Session) StatsPath() string {
	return filepath.Join(s.Output, "stats")
}

// WorkspacePath returns the clone location for a project. The path is a
// deterministic function of the project id, so a stale directory from a
// previous failed run can be detected and removed before cloning.
func (s *Session) WorkspacePath(id int64) string {
	return filepath.Join(s.TempPath(), strconv.FormatInt(id, 10))
}

type projectRecord struct {
	*Project
	Snapshots []*FileSnapshot `json:"snapshots"`
}

// WriteProjectRecord persists the outcome of a project crawl under
// projects/, sharded the same way as the content store. The record carries
// the full (commit, path) to content id mapping observed for the project.
func (s *Session) WriteProjectRecord(p *Project, snapshots []*FileSnapshot) error {
	dir := filepath.Join(s.ProjectsPath(), storage.IdToPath(p.ID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(projectRecord{p, snapshots}, "", "  ")
	if err != nil {
		return err
	}

	name := strconv.FormatInt(p.ID, 10) + ".json"
	return os.WriteFile(filepath.Join(dir, name), data, 0644)
}

type sessionRecord struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Stats      *SessionStats `json:"stats"`
}

// Close writes the session statistics and removes the temporary workspace
// root, which is empty after a clean run.
func (s *Session) Close() error {
	record := sessionRecord{
		ID:         s.ID.String(),
		StartedAt:  s.started,
		FinishedAt: time.Now(),
		Stats:      s.Stats,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	name := "session_" + s.ID.String() + ".json"
	if err := os.WriteFile(filepath.Join(s.StatsPath(), name), data, 0644); err != nil {
		return err
	}

	return util.RemoveAll(s.fs, "temp")
}

// SessionStats aggregates counters across all workers of a run. Updates go
// through the increment methods; the exported fields are read once the
// pool has stopped.
type SessionStats struct {
	ProjectsProcessed     int64 `json:"projects_processed"`
	ProjectsFailed        int64 `json:"projects_failed"`
	BranchesSkipped       int64 `json:"branches_skipped"`
	SnapshotsStored       int64 `json:"snapshots_stored"`
	SnapshotsDeduplicated int64 `json:"snapshots_deduplicated"`
	BlobsStored           int64 `json:"blobs_stored"`
	BlobsDeduplicated     int64 `json:"blobs_deduplicated"`
	BytesWritten          int64 `json:"bytes_written"`
}

func (st *SessionStats) projectProcessed() {
	atomic.AddInt64(&st.ProjectsProcessed, 1)
}

func (st *SessionStats) projectFailed() {
	atomic.AddInt64(&st.ProjectsFailed, 1)
}

func (st *SessionStats) branchSkipped() {
	atomic.AddInt64(&st.BranchesSkipped, 1)
}

func (st *SessionStats) snapshotStored() {
	atomic.AddInt64(&st.SnapshotsStored, 1)
}

func (st *SessionStats) snapshotDeduplicated() {
	atomic.AddInt64(&st.SnapshotsDeduplicated, 1)
}

func (st *SessionStats) blobStored(size int) {
	atomic.AddInt64(&st.BlobsStored, 1)
	atomic.AddInt64(&st.BytesWritten, int64(size))
}

func (st *SessionStats) blobDeduplicated() {
	atomic.AddInt64(&st.BlobsDeduplicated, 1)
}
