package funes

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectStoreCreateDenseIDs(t *testing.T) {
	require := require.New(t)
	store := NewProjectStore()

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				store.Create("https://example.com/r.git")
			}
		}()
	}
	wg.Wait()

	require.Equal(workers*perWorker, store.Len())
	for id := int64(0); id < workers*perWorker; id++ {
		p, ok := store.Get(id)
		require.True(ok, "missing id %d", id)
		require.Equal(id, p.ID)
		require.Equal(Pending, p.Status)
	}
}

func TestProjectStoreExplicitIDRaisesFloor(t *testing.T) {
	require := require.New(t)
	store := NewProjectStore()

	p := store.Create("https://example.com/a.git")
	require.Equal(int64(0), p.ID)

	_, err := store.CreateWithID("https://example.com/b.git", 10)
	require.NoError(err)

	p = store.Create("https://example.com/c.git")
	require.Equal(int64(11), p.ID)

	// an explicit id below the floor is accepted and leaves it untouched
	_, err = store.CreateWithID("https://example.com/d.git", 5)
	require.NoError(err)

	p = store.Create("https://example.com/e.git")
	require.Equal(int64(12), p.ID)
}

func TestProjectStoreDuplicateID(t *testing.T) {
	require := require.New(t)
	store := NewProjectStore()

	_, err := store.CreateWithID("https://example.com/a.git", 7)
	require.NoError(err)

	_, err = store.CreateWithID("https://example.com/b.git", 7)
	require.True(ErrProjectExists.Is(err))
}

func TestSnapshotSet(t *testing.T) {
	require := require.New(t)
	set := newSnapshotSet()

	require.False(set.Seen("c1", "a.js"))

	first := &FileSnapshot{ID: UnassignedID, Commit: "c1", Path: "a.js", ContentID: 3}
	set.Add(first)
	require.Equal(int64(0), first.ID)
	set.Add(&FileSnapshot{Commit: "c2", Path: "a.js", ContentID: 3})
	set.Add(&FileSnapshot{Commit: "c1", Path: "b.js", ContentID: 4})

	require.True(set.Seen("c1", "a.js"))
	require.True(set.Seen("c2", "a.js"))
	require.False(set.Seen("c2", "b.js"))

	require.Equal(3, set.Len())
	for i, snapshot := range set.Snapshots() {
		require.Equal(int64(i), snapshot.ID)
	}
}
