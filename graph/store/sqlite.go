package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder is a SQLite-backed Recorder.
//
// Designed for local debugging of a job's rewrite history with zero setup:
// a single file (or ":memory:") holds every recorded graph version and
// frame image.
//
// Schema:
//   - graph_versions: one row per recorded (job_id, version)
//   - node_frames: one row per recorded (job_id, version, node_id) frame
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewSQLiteRecorder opens (creating if necessary) a SQLite-backed recorder.
//
// path may be a file path or ":memory:" for an ephemeral database.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite recorder: %w", err)
	}

	// SQLite supports exactly one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS graph_versions (
			job_id INTEGER NOT NULL,
			version INTEGER NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (job_id, version)
		)`,
		`CREATE TABLE IF NOT EXISTS node_frames (
			job_id INTEGER NOT NULL,
			version INTEGER NOT NULL,
			node_id INTEGER NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (job_id, version, node_id)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	return &SQLiteRecorder{db: db}, nil
}

// SaveVersion implements Recorder.
func (r *SQLiteRecorder) SaveVersion(ctx context.Context, snap VersionSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("sqlite recorder is closed")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO graph_versions (job_id, version, data) VALUES (?, ?, ?)`,
		snap.JobID, snap.Version, snap.Data)
	if err != nil {
		return fmt.Errorf("save graph version: %w", err)
	}
	return nil
}

// SaveFrame implements Recorder.
func (r *SQLiteRecorder) SaveFrame(ctx context.Context, snap FrameSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("sqlite recorder is closed")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO node_frames (job_id, version, node_id, data) VALUES (?, ?, ?, ?)`,
		snap.JobID, snap.Version, snap.NodeID, snap.Data)
	if err != nil {
		return fmt.Errorf("save node frame: %w", err)
	}
	return nil
}

// LoadVersion implements Recorder.
func (r *SQLiteRecorder) LoadVersion(ctx context.Context, jobID int64, version int) (VersionSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return VersionSnapshot{}, fmt.Errorf("sqlite recorder is closed")
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT data FROM graph_versions WHERE job_id = ? AND version = ?`, jobID, version)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return VersionSnapshot{}, ErrNotFound
		}
		return VersionSnapshot{}, fmt.Errorf("load graph version: %w", err)
	}
	return VersionSnapshot{JobID: jobID, Version: version, Data: data}, nil
}

// LatestVersion implements Recorder.
func (r *SQLiteRecorder) LatestVersion(ctx context.Context, jobID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, fmt.Errorf("sqlite recorder is closed")
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM graph_versions WHERE job_id = ?`, jobID)
	var version sql.NullInt64
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("load latest version: %w", err)
	}
	if !version.Valid {
		return 0, ErrNotFound
	}
	return int(version.Int64), nil
}

// Close implements Recorder.
func (r *SQLiteRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.db.Close()
}
