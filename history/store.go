// Package history persists scan results to a local SQLite database so
// readiness can be tracked across runs.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/petal-labs/readyscan/core"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Record is one stored scan, without the full payload.
type Record struct {
	ScanID    string
	Target    string
	CreatedAt time.Time
	Score     int
	Ready     bool
	Findings  int
}

// Store persists scan results. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}

	// Enable WAL mode for concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save stores one scan result. The full result is kept as JSON so suppressed
// findings and evidence survive the round trip.
func (s *Store) Save(ctx context.Context, result *core.ScanResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("history: marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (scan_id, target, created_at, score, ready, findings, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ScanID,
		result.Target,
		result.Timestamp.UTC().Format(time.RFC3339Nano),
		result.ReadinessScore,
		boolToInt(result.ProductionReady),
		len(result.Findings),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("history: insert scan: %w", err)
	}
	return nil
}

// Get returns the full stored result for a scan id.
func (s *Store) Get(ctx context.Context, scanID string) (*core.ScanResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM scans WHERE scan_id = ?`, scanID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("history: scan %s not found", scanID)
	}
	if err != nil {
		return nil, fmt.Errorf("history: query scan: %w", err)
	}

	var result core.ScanResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("history: decode payload: %w", err)
	}
	return &result, nil
}

// List returns the most recent scans, newest first. A non-empty target
// filters to that target; limit <= 0 means 50.
func (s *Store) List(ctx context.Context, target string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT scan_id, target, created_at, score, ready, findings
	          FROM scans`
	args := []any{}
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list scans: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var createdAt string
		var ready int
		if err := rows.Scan(&r.ScanID, &r.Target, &createdAt, &r.Score, &ready, &r.Findings); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("history: parse created_at: %w", err)
		}
		r.Ready = ready != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate rows: %w", err)
	}
	return records, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
