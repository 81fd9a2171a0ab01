package funes

import (
	"sync"
	"sync/atomic"
	"time"
)

// Status describes how far a project got through the pipeline.
type Status string

const (
	// Pending is the status of a project that has been created but not
	// scheduled yet.
	Pending Status = "pending"
	// Downloading is the status of a project being crawled by a worker.
	Downloading Status = "downloading"
	// Done is the status of a project whose branches were all crawled.
	Done Status = "done"
	// Failed is the status of a project that could not be crawled.
	Failed Status = "failed"
)

// Project is one git repository to be mined, identified by a stable integer
// id and its clone endpoint. A project is owned by a single worker while it
// is being crawled; only the id and the endpoint are read concurrently.
type Project struct {
	ID        int64  `json:"id"`
	GitURL    string `json:"git_url"`
	LocalPath string `json:"-"`
	// HasDeniedFiles is set if any file in the repository matched the deny
	// policy of the pattern list.
	HasDeniedFiles bool   `json:"has_denied_files"`
	Status         Status `json:"status"`
}

// UnassignedID marks a snapshot or content id that has not been allocated
// yet.
const UnassignedID int64 = -1

// FileSnapshot is one revision of one file: the combination of a commit hash
// and a relative path, plus a pointer into the content store. Two snapshots
// are the same iff commit and path match; the content plays no role in
// snapshot identity.
type FileSnapshot struct {
	// ID is the sequence number of the snapshot within its project. It is
	// UnassignedID until the snapshot is recorded.
	ID     int64  `json:"id"`
	Commit string `json:"commit"`
	Path   string `json:"path"`
	// ContentID names the deduplicated contents of the file at this commit
	// in the global content store.
	ContentID int64     `json:"content_id"`
	Time      time.Time `json:"time"`
}

type snapshotKey struct {
	commit string
	path   string
}

// snapshotSet accumulates the snapshots of a single project crawl. It is
// owned by the worker running the crawl and needs no locking. A snapshot is
// added only after its content has been registered in the content store, so
// an entry that could not be read stays eligible for a later pass.
type snapshotSet struct {
	seen      map[snapshotKey]struct{}
	snapshots []*FileSnapshot
}

func newSnapshotSet() *snapshotSet {
	return &snapshotSet{seen: make(map[snapshotKey]struct{})}
}

// Seen reports whether the (commit, path) pair was already processed in
// this crawl. The same pair is revisited whenever branches share history.
func (s *snapshotSet) Seen(commit, path string) bool {
	_, ok := s.seen[snapshotKey{commit, path}]
	return ok
}

// Add records a snapshot, assigning it the next project-local sequence id.
func (s *snapshotSet) Add(fs *FileSnapshot) {
	fs.ID = int64(len(s.snapshots))
	s.seen[snapshotKey{fs.Commit, fs.Path}] = struct{}{}
	s.snapshots = append(s.snapshots, fs)
}

// Snapshots returns the accumulated snapshots in insertion order.
func (s *snapshotSet) Snapshots() []*FileSnapshot {
	return s.snapshots
}

// Len returns the number of accumulated snapshots.
func (s *snapshotSet) Len() int {
	return len(s.snapshots)
}

// ProjectStore keeps every project of a run and hands out project ids.
// Ids are dense, monotonically increasing and never reused. ProjectStore is
// safe for concurrent use.
type ProjectStore struct {
	next int64

	mu       sync.RWMutex
	projects map[int64]*Project
}

// NewProjectStore creates an empty project store with the id allocator at
// zero.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{projects: make(map[int64]*Project)}
}

// Create registers a new project for the given endpoint under the next free
// id.
func (s *ProjectStore) Create(gitURL string) *Project {
	id := atomic.AddInt64(&s.next, 1) - 1
	p := &Project{ID: id, GitURL: gitURL, Status: Pending}

	s.mu.Lock()
	s.projects[id] = p
	s.mu.Unlock()

	return p
}

// CreateWithID registers a project under an explicit id and raises the
// allocator floor so that any id assigned later is strictly greater.
// Feeding back the highest id of a previous run makes intake resumable
// without collisions. Ids lower than the current floor leave the allocator
// untouched.
func (s *ProjectStore) CreateWithID(gitURL string, id int64) (*Project, error) {
	p := &Project{ID: id, GitURL: gitURL, Status: Pending}

	s.mu.Lock()
	if _, ok := s.projects[id]; ok {
		s.mu.Unlock()
		return nil, ErrProjectExists.New(id)
	}
	s.projects[id] = p
	s.mu.Unlock()

	s.raise(id + 1)
	return p, nil
}

// raise lifts the allocator to floor unless a concurrent allocation got
// there first. The compare-and-retry loop guarantees the counter never
// regresses.
func (s *ProjectStore) raise(floor int64) {
	for {
		cur := atomic.LoadInt64(&s.next)
		if cur >= floor {
			return
		}

		if atomic.CompareAndSwapInt64(&s.next, cur, floor) {
			return
		}
	}
}

// Get returns the project registered under the given id.
func (s *ProjectStore) Get(id int64) (*Project, bool) {
	s.mu.RLock()
	p, ok := s.projects[id]
	s.mu.RUnlock()
	return p, ok
}

// Len returns the number of registered projects.
func (s *ProjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects)
}
