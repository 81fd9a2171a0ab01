package funes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneRepositoryBranches(t *testing.T) {
	require := require.New(t)
	f := buildFixtureRepo(t)
	r := f.clone(t)

	name, head, err := r.CurrentBranch()
	require.NoError(err)
	require.Equal("master", name)
	require.Equal(f.commits["c2"], head)

	branches, err := r.Branches()
	require.NoError(err)
	require.Len(branches, 3)
	require.Equal(f.commits["c2"], branches["master"])
	require.Equal(f.commits["f1"], branches["feature"])
	require.Equal(f.commits["d3"], branches["dead"])
}

func TestTrackedFiles(t *testing.T) {
	require := require.New(t)
	f := buildFixtureRepo(t)
	r := f.clone(t)

	files, err := r.TrackedFiles(f.commits["c2"])
	require.NoError(err)
	require.ElementsMatch(
		[]string{"README.md", "copy.js", "main.js", "util.js"},
		files,
	)

	// gone.js was deleted by d2 and restored by d3, so it is tracked again
	files, err = r.TrackedFiles(f.commits["d3"])
	require.NoError(err)
	require.Contains(files, "gone.js")

	files, err = r.TrackedFiles(f.commits["d2"])
	require.NoError(err)
	require.NotContains(files, "gone.js")
}

func TestFileHistory(t *testing.T) {
	require := require.New(t)
	f := buildFixtureRepo(t)
	r := f.clone(t)

	history, err := r.FileHistory(f.commits["c2"], "main.js")
	require.NoError(err)
	require.Len(history, 2)
	require.Equal(f.commits["c2"].String(), history[0].Commit)
	require.Equal(f.commits["c1"].String(), history[1].Commit)
	require.True(history[0].Time.After(history[1].Time))

	// the deleting commit is part of the history
	history, err = r.FileHistory(f.commits["d3"], "gone.js")
	require.NoError(err)
	require.Len(history, 3)
	require.Equal(f.commits["d3"].String(), history[0].Commit)
	require.Equal(f.commits["d2"].String(), history[1].Commit)
	require.Equal(f.commits["d1"].String(), history[2].Commit)
}

func TestFileRevision(t *testing.T) {
	require := require.New(t)
	f := buildFixtureRepo(t)
	r := f.clone(t)

	text, err := r.FileRevision(f.commits["c1"].String(), "main.js")
	require.NoError(err)
	require.Equal("one", text)

	text, err = r.FileRevision(f.commits["c2"].String(), "main.js")
	require.NoError(err)
	require.Equal("two", text)

	_, err = r.FileRevision(f.commits["d2"].String(), "gone.js")
	require.True(ErrRevisionUnavailable.Is(err))
}

func TestCheckout(t *testing.T) {
	require := require.New(t)
	f := buildFixtureRepo(t)
	r := f.clone(t)

	require.NoError(r.Checkout(f.commits["f1"]))

	_, err := os.Stat(filepath.Join(r.Path(), "extra.js"))
	require.NoError(err)
}
