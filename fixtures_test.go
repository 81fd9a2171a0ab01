package funes

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	git "gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/object"
)

// fixtureRepo is a local repository with a known shape:
//
//	master:  c1 adds main.js ("one") and README.md
//	         c2 updates main.js ("two"), adds util.js ("u1") and
//	         copy.js ("one", same bytes as main.js at c1)
//	feature: f1 (from c2) updates util.js ("u2"), adds extra.js ("e")
//	         and vendor/lib.min.js (denied by the JavaScript policy)
//	dead:    d1 (from c2) adds gone.js ("g1"), d2 deletes it,
//	         d3 re-adds it ("g2")
//
// HEAD points at master.
type fixtureRepo struct {
	path    string
	commits map[string]plumbing.Hash
}

func buildFixtureRepo(t *testing.T) *fixtureRepo {
	t.Helper()
	require := require.New(t)

	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	require.NoError(err)

	w, err := r.Worktree()
	require.NoError(err)

	when := time.Date(2019, time.March, 1, 12, 0, 0, 0, time.UTC)
	write := func(name, contents string) {
		path := filepath.Join(dir, name)
		require.NoError(os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(os.WriteFile(path, []byte(contents), 0644))
		_, err := w.Add(name)
		require.NoError(err)
	}

	f := &fixtureRepo{path: dir, commits: make(map[string]plumbing.Hash)}
	commit := func(label, msg string) {
		h, err := w.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{
				Name:  "fixture",
				Email: "fixture@example.com",
				When:  when,
			},
		})
		require.NoError(err)
		f.commits[label] = h
		when = when.Add(time.Minute)
	}

	checkout := func(branch string, create bool) {
		require.NoError(w.Checkout(&git.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName(branch),
			Create: create,
		}))
	}

	write("main.js", "one")
	write("README.md", "docs")
	commit("c1", "add main")

	write("main.js", "two")
	write("util.js", "u1")
	write("copy.js", "one")
	commit("c2", "update main")

	checkout("feature", true)
	write("util.js", "u2")
	write("extra.js", "e")
	write("vendor/lib.min.js", "m")
	commit("f1", "feature work")

	checkout("master", false)
	checkout("dead", true)
	write("gone.js", "g1")
	commit("d1", "add gone")

	_, err = w.Remove("gone.js")
	require.NoError(err)
	commit("d2", "remove gone")

	write("gone.js", "g2")
	commit("d3", "restore gone")

	checkout("master", false)
	return f
}

// clone clones the fixture into a fresh directory.
func (f *fixtureRepo) clone(t *testing.T) *Repository {
	t.Helper()

	r, err := CloneRepository(filepath.Join(t.TempDir(), "clone"), f.path)
	require.NoError(t, err)
	return r
}
