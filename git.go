package funes

import (
	"io"
	"strings"
	"time"

	git "gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/object"
)

// HistoryEntry is one commit in a file's history.
type HistoryEntry struct {
	Commit string
	Time   time.Time
}

// Repository gives the crawler access to a local clone. All operations read
// the object database; Checkout is the only one that touches the worktree.
type Repository struct {
	repo *git.Repository
	path string
}

// CloneRepository clones endpoint into path. The destination must not
// exist.
func CloneRepository(path, endpoint string) (*Repository, error) {
	r, err := git.PlainClone(path, false, &git.CloneOptions{URL: endpoint})
	if err != nil {
		return nil, err
	}

	return &Repository{repo: r, path: path}, nil
}

// Path returns the location of the clone.
func (r *Repository) Path() string {
	return r.path
}

// Branches returns every branch of the origin remote, keyed by short name.
// origin/HEAD and symbolic references are excluded.
func (r *Repository) Branches() (map[string]plumbing.Hash, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, err
	}

	branches := make(map[string]plumbing.Hash)
	return branches, iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference || !ref.Name().IsRemote() {
			return nil
		}

		name := strings.TrimPrefix(ref.Name().Short(), "origin/")
		if name == "HEAD" {
			return nil
		}

		branches[name] = ref.Hash()
		return nil
	})
}

// CurrentBranch returns the short name and head commit of the branch the
// clone checked out.
func (r *Repository) CurrentBranch() (string, plumbing.Hash, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", plumbing.ZeroHash, err
	}

	return head.Name().Short(), head.Hash(), nil
}

// Checkout moves the worktree to the given commit.
func (r *Repository) Checkout(h plumbing.Hash) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return err
	}

	return w.Checkout(&git.CheckoutOptions{Hash: h, Force: true})
}

// TrackedFiles lists the paths present in the tree of the given commit.
// Files that only exist in older commits are not reported.
func (r *Repository) TrackedFiles(h plumbing.Hash) ([]string, error) {
	c, err := r.repo.CommitObject(h)
	if err != nil {
		return nil, err
	}

	iter, err := c.Files()
	if err != nil {
		return nil, err
	}

	var files []string
	return files, iter.ForEach(func(f *object.File) error {
		files = append(files, f.Name)
		return nil
	})
}

// FileHistory returns the commits that touched path, newest first, walking
// back from the given head. The commit that deleted a file is part of its
// history.
func (r *Repository) FileHistory(from plumbing.Hash, path string) ([]HistoryEntry, error) {
	iter, err := r.repo.Log(&git.LogOptions{From: from, FileName: &path})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []HistoryEntry
	err = iter.ForEach(func(c *object.Commit) error {
		entries = append(entries, HistoryEntry{
			Commit: c.Hash.String(),
			Time:   c.Author.When,
		})
		return nil
	})
	// go-git v4.13.1's file-filtered commit iterator leaks io.EOF from
	// ForEach at the end of a fully consumed history
	if err == io.EOF {
		err = nil
	}

	return entries, err
}

// FileRevision returns the contents of path at the given commit. It returns
// an ErrRevisionUnavailable error if the path has no content at that
// commit.
func (r *Repository) FileRevision(commit, path string) (string, error) {
	c, err := r.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		return "", err
	}

	f, err := c.File(path)
	if err == object.ErrFileNotFound {
		return "", ErrRevisionUnavailable.New(path, commit)
	}

	if err != nil {
		return "", err
	}

	return f.Contents()
}
