package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLRecorder is a MySQL-backed Recorder for sharing a job's debug
// history across machines (e.g. a render farm where the job ran on one
// host and a developer inspects its rewrite history from another).
//
// Schema mirrors SQLiteRecorder: graph_versions and node_frames tables,
// both keyed by (job_id, version[, node_id]).
type MySQLRecorder struct {
	db *sql.DB
}

// NewMySQLRecorder opens a connection pool against dsn and migrates the
// recorder schema if it does not already exist.
//
// dsn follows the go-sql-driver/mysql DSN format, e.g.
// "user:pass@tcp(127.0.0.1:3306)/imageflow?parseTime=true".
func NewMySQLRecorder(dsn string) (*MySQLRecorder, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql recorder: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql recorder: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS graph_versions (
			job_id BIGINT NOT NULL,
			version INT NOT NULL,
			data LONGBLOB NOT NULL,
			PRIMARY KEY (job_id, version)
		)`,
		`CREATE TABLE IF NOT EXISTS node_frames (
			job_id BIGINT NOT NULL,
			version INT NOT NULL,
			node_id INT NOT NULL,
			data LONGBLOB NOT NULL,
			PRIMARY KEY (job_id, version, node_id)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	return &MySQLRecorder{db: db}, nil
}

// SaveVersion implements Recorder.
func (r *MySQLRecorder) SaveVersion(ctx context.Context, snap VersionSnapshot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO graph_versions (job_id, version, data) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE data = VALUES(data)`,
		snap.JobID, snap.Version, snap.Data)
	if err != nil {
		return fmt.Errorf("save graph version: %w", err)
	}
	return nil
}

// SaveFrame implements Recorder.
func (r *MySQLRecorder) SaveFrame(ctx context.Context, snap FrameSnapshot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO node_frames (job_id, version, node_id, data) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE data = VALUES(data)`,
		snap.JobID, snap.Version, snap.NodeID, snap.Data)
	if err != nil {
		return fmt.Errorf("save node frame: %w", err)
	}
	return nil
}

// LoadVersion implements Recorder.
func (r *MySQLRecorder) LoadVersion(ctx context.Context, jobID int64, version int) (VersionSnapshot, error) {
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
func (r *MySQLRecorder) LatestVersion(ctx context.Context, jobID int64) (int, error) {
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
func (r *MySQLRecorder) Close() error {
	return r.db.Close()
}
