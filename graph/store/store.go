// Package store provides persistence backends for the debug artifacts a
// job may record while it executes: graph-version snapshots and, when frame
// recording is enabled, per-node intermediate images.
//
// Recording is optional. A job with no recorder configured simply skips
// these writes; the fixed-point pass loop in the graph package does not
// depend on a recorder being present.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested job/version pair has no recorded
// snapshot.
var ErrNotFound = errors.New("not found")

// VersionSnapshot is a single recorded graph version.
//
// Snapshots are keyed by (JobID, Version). Version corresponds directly to
// the job's next_graph_version counter at the time notify_graph_changed
// fired, so snapshots form a dense, monotonically increasing sequence
// starting at 0 for a given job.
type VersionSnapshot struct {
	JobID   int64
	Version int
	Data    []byte // opaque rendering of the graph (e.g. JSON or PNG bytes)
}

// FrameSnapshot is a single recorded intermediate node image, present only
// when a job's RecordFrameImages flag is set.
type FrameSnapshot struct {
	JobID   int64
	Version int
	NodeID  int32
	Data    []byte
}

// Recorder persists debug artifacts for a job.
//
// Implementations must be safe to use from the single goroutine that drives
// a given job (the engine never calls a Recorder concurrently for the same
// job), but a single Recorder instance may be shared across distinct jobs
// running on distinct goroutines.
type Recorder interface {
	// SaveVersion records a graph-version snapshot. Called from
	// notify_graph_changed when the job's RecordGraphVersions flag is set.
	SaveVersion(ctx context.Context, snap VersionSnapshot) error

	// SaveFrame records a single node's intermediate image. Called from
	// notify_graph_changed when the job's RecordFrameImages flag is set.
	SaveFrame(ctx context.Context, snap FrameSnapshot) error

	// LoadVersion retrieves a previously recorded graph-version snapshot.
	// Returns ErrNotFound if no such snapshot was recorded.
	LoadVersion(ctx context.Context, jobID int64, version int) (VersionSnapshot, error)

	// LatestVersion returns the highest recorded version number for a job,
	// or ErrNotFound if the job has no recorded versions.
	LatestVersion(ctx context.Context, jobID int64) (int, error)

	// Close releases any resources (file handles, connections) held by the
	// recorder. Safe to call once after the recorder is no longer needed.
	Close() error
}
