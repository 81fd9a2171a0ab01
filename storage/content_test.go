package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentStorePutDeduplicates(t *testing.T) {
	require := require.New(t)
	store := NewContentStore(t.TempDir())

	id, novel, err := store.Put([]byte("hello"))
	require.NoError(err)
	require.True(novel)
	require.Equal(int64(0), id)

	again, novel, err := store.Put([]byte("hello"))
	require.NoError(err)
	require.False(novel)
	require.Equal(id, again)

	other, novel, err := store.Put([]byte("world"))
	require.NoError(err)
	require.True(novel)
	require.Equal(int64(1), other)

	require.Equal(2, store.Len())
}

func TestContentStoreBlobOnDisk(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	store := NewContentStore(dir)

	id, _, err := store.Put([]byte("payload"))
	require.NoError(err)

	data, err := os.ReadFile(filepath.Join(dir, BlobPath(id)))
	require.NoError(err)
	require.Equal("payload", string(data))
}

func TestContentStoreConcurrentPut(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	store := NewContentStore(dir)

	const workers = 8
	const distinct = 40

	ids := make([][distinct]int64, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for round := 0; round < 5; round++ {
				for i := 0; i < distinct; i++ {
					id, _, err := store.Put([]byte(fmt.Sprintf("content-%d", i)))
					if err != nil {
						t.Error(err)
						return
					}
					ids[w][i] = id
				}
			}
		}(w)
	}
	wg.Wait()

	require.Equal(distinct, store.Len())

	// every worker resolved each content to the same id
	for w := 1; w < workers; w++ {
		require.Equal(ids[0], ids[w])
	}

	// ids are dense and each has exactly one file behind it
	seen := make(map[int64]struct{})
	for _, id := range ids[0] {
		require.True(id >= 0 && id < distinct)
		seen[id] = struct{}{}

		_, err := os.Stat(filepath.Join(dir, BlobPath(id)))
		require.NoError(err)
	}
	require.Len(seen, distinct)
}

func TestContentStoreCompaction(t *testing.T) {
	require := require.New(t)
	store := NewContentStore(t.TempDir())

	var compacted []string
	store.SetCompactionFunc(func(dir string) {
		compacted = append(compacted, dir)
	})

	for i := 0; i < shardSize; i++ {
		_, _, err := store.Put([]byte(fmt.Sprintf("blob-%d", i)))
		require.NoError(err)
	}

	require.Len(compacted, 1)
	require.Equal(IdToPath(shardSize-1), mustRel(t, store.dir, compacted[0]))
}

func TestContentStoreWriteFailure(t *testing.T) {
	require := require.New(t)

	// rooting the store under a regular file makes every write fail
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(os.WriteFile(file, nil, 0644))

	store := NewContentStore(file)
	_, _, err := store.Put([]byte("x"))
	require.True(ErrWriteBlob.Is(err))

	// nothing was registered, so the contents stay storable elsewhere
	require.Equal(0, store.Len())
}

func TestIdToPath(t *testing.T) {
	require := require.New(t)

	require.Equal(filepath.Join("000", "000"), IdToPath(0))
	require.Equal(filepath.Join("000", "000"), IdToPath(999))
	require.Equal(filepath.Join("000", "001"), IdToPath(1000))
	require.Equal(filepath.Join("000", "999"), IdToPath(999999))
	require.Equal(filepath.Join("001", "000"), IdToPath(1000000))

	require.Equal(filepath.Join("000", "001", "1500.raw"), BlobPath(1500))
}

func mustRel(t *testing.T, base, target string) string {
	t.Helper()
	rel, err := filepath.Rel(base, target)
	require.NoError(t, err)
	return rel
}
