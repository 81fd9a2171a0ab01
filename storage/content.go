// Package storage implements the global content-addressed blob store shared
// by every worker of a pipeline run.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
	"gopkg.in/src-d/go-errors.v1"
)

// ErrWriteBlob signals that the bytes of a freshly allocated content id
// could not be persisted. The store registers nothing in that case; the
// caller must treat it as fatal, since continuing could hand out ids with
// no backing bytes.
var ErrWriteBlob = errors.NewKind("unable to write content %d")

// shardSize bounds the number of entries per directory level of the store.
const shardSize = 1000

// CompactionFunc is notified whenever a shard directory receives its last
// blob, so that finished shards can be compressed or archived. The default
// is to do nothing.
type CompactionFunc func(dir string)

// ContentStore keeps every distinct byte sequence observed by the pipeline
// exactly once. Ids are dense integers assigned in first-seen order; blobs
// are written below the store root using the IdToPath layout and are never
// updated or removed. ContentStore is safe for concurrent use by any number
// of workers.
type ContentStore struct {
	dir     string
	compact CompactionFunc

	mu   sync.Mutex
	ids  map[xxh3.Uint128]int64
	next int64
}

// NewContentStore creates a content store rooted at dir.
func NewContentStore(dir string) *ContentStore {
	return &ContentStore{
		dir: dir,
		ids: make(map[xxh3.Uint128]int64),
	}
}

// SetCompactionFunc installs the hook signaled when a shard directory is
// complete. It must be called before the first Put.
func (s *ContentStore) SetCompactionFunc(f CompactionFunc) {
	s.compact = f
}

// Put registers contents and returns their id, together with whether the
// contents were new to the store. Identical bytes always map to the same id
// and hit the disk exactly once, no matter how many workers submit them.
//
// The hash lookup, the id allocation and the disk write form a single
// critical section: no caller can observe an id before its bytes are on
// disk.
func (s *ContentStore) Put(contents []byte) (int64, bool, error) {
	h := xxh3.Hash128(contents)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.ids[h]; ok {
		return id, false, nil
	}

	id := s.next
	path := filepath.Join(s.dir, BlobPath(id))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return -1, false, ErrWriteBlob.Wrap(err, id)
	}

	if err := os.WriteFile(path, contents, 0644); err != nil {
		return -1, false, ErrWriteBlob.Wrap(err, id)
	}

	s.ids[h] = id
	s.next++

	if s.compact != nil && shardComplete(id) {
		s.compact(filepath.Dir(path))
	}

	return id, true, nil
}

// Len returns the number of distinct contents stored so far.
func (s *ContentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IdToPath spreads an id over two nested directory levels so that no
// directory ever holds more than shardSize entries.
func IdToPath(id int64) string {
	return filepath.Join(
		fmt.Sprintf("%03d", (id/(shardSize*shardSize))%shardSize),
		fmt.Sprintf("%03d", (id/shardSize)%shardSize),
	)
}

// BlobPath returns the location of a blob relative to the store root.
func BlobPath(id int64) string {
	return filepath.Join(IdToPath(id), strconv.FormatInt(id, 10)+".raw")
}

// shardComplete reports whether id is the last one mapped to its shard
// directory.
func shardComplete(id int64) bool {
	return (id+1)%shardSize == 0
}
