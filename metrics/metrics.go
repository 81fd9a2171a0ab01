// Package metrics instruments the pipeline with run-wide counters.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Start exposes the metrics endpoint at the given address. It blocks.
func Start(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

var (
	projectsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "funes",
		Name:      "projects_processed_total",
		Help:      "Number of projects crawled to completion.",
	})

	projectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "funes",
		Name:      "project_processing_seconds",
		Help:      "Time spent crawling a single project.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	projectsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "funes",
		Name:      "projects_failed_total",
		Help:      "Number of projects that could not be crawled.",
	})

	branchesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "funes",
		Name:      "branches_skipped_total",
		Help:      "Number of branches skipped because checkout failed.",
	})

	snapshotsStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "funes",
		Name:      "snapshots_stored_total",
		Help:      "Number of (commit, path) snapshots recorded.",
	})

	snapshotsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "funes",
		Name:      "snapshots_deduplicated_total",
		Help:      "Number of history entries skipped as already seen.",
	})

	blobsStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "funes",
		Name:      "blobs_stored_total",
		Help:      "Number of distinct contents written to the store.",
	})

	blobsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "funes",
		Name:      "blobs_deduplicated_total",
		Help:      "Number of contents resolved to an existing id.",
	})

	blobBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "funes",
		Name:      "blob_bytes_written_total",
		Help:      "Bytes written to the content store.",
	})
)

// ProjectProcessed counts a finished project and the time it took.
func ProjectProcessed(elapsed time.Duration) {
	projectsProcessed.Inc()
	projectDuration.Observe(elapsed.Seconds())
}

// ProjectFailed counts a project that could not be crawled.
func ProjectFailed() {
	projectsFailed.Inc()
}

// BranchSkipped counts a branch skipped because its checkout failed.
func BranchSkipped() {
	branchesSkipped.Inc()
}

// SnapshotStored counts a recorded file snapshot.
func SnapshotStored() {
	snapshotsStored.Inc()
}

// SnapshotDeduplicated counts a history entry skipped as already seen.
func SnapshotDeduplicated() {
	snapshotsDeduplicated.Inc()
}

// BlobStored counts a new content blob of the given size.
func BlobStored(size int) {
	blobsStored.Inc()
	blobBytesWritten.Add(float64(size))
}

// BlobDeduplicated counts contents that resolved to an existing id.
func BlobDeduplicated() {
	blobsDeduplicated.Inc()
}
