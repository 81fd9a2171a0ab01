// funes mines git repositories into a deduplicated corpus of file histories.
//
// Given a seed list of repository URLs, funes clones each repository, walks
// every branch and extracts every historical revision of every accepted
// file. Each distinct byte sequence ever observed is stored exactly once in
// a global content-addressed store, and every (commit, path) pair seen is
// recorded together with the id of the content it had at that commit.
//
// A file snapshot is the pair of a commit hash and a relative path; it is
// the unit of per-project deduplication and is independent of the file's
// bytes. Content ids are dense integers assigned globally in first-seen
// order, so two branches that share history, or two unrelated projects that
// happen to carry the same file, reference the same stored blob.
//
// The output of a run lives under a single directory:
//
//	temp/     transient clone workspaces, empty after a clean run
//	projects/ one record per crawled project with its snapshot list
//	data/     the sharded content store, one file per distinct content
//	stats/    one statistics record per session
//
// funes is the ingestion stage of a corpus pipeline; parsing or tokenizing
// the stored contents is left to downstream stages.
package funes
